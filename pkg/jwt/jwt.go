package jwt

import (
	"time"

	"github.com/flowgrid/flowgrid/pkg/errcode"
	"github.com/golang-jwt/jwt/v5"
)

// Claims represents JWT claims carried by every authenticated request
// and by the websocket handshake.
type Claims struct {
	SubjectId    string `json:"sub_id"`
	IdentityType string `json:"identity_type"`
	Email        string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateToken generates a new JWT token
func GenerateToken(subjectId, identityType, email, secret string, expireHours int) (string, error) {
	claims := Claims{
		SubjectId:    subjectId,
		IdentityType: identityType,
		Email:        email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expireHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "flowgrid",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken parses and validates a JWT token
func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})

	if err != nil {
		return nil, errcode.ErrTokenInvalid.Wrap(err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errcode.ErrTokenInvalid
}
