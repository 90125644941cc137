package middleware

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/flowgrid/flowgrid/internal/entity"
	"github.com/flowgrid/flowgrid/internal/service"
	"github.com/flowgrid/flowgrid/pkg/errcode"
	"github.com/flowgrid/flowgrid/pkg/response"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer token
	BearerPrefix = "Bearer "
	// IdentityTypeKey is the context key for the identity type
	IdentityTypeKey = "identity_type"
	// IdentityIdKey is the context key for the identity id
	IdentityIdKey = "identity_id"
	// IdentityEmailKey is the context key for the identity email
	IdentityEmailKey = "identity_email"
	// TokenKey is the context key for the raw bearer token
	TokenKey = "token"
)

// JWTAuth authenticates the request via the auth service, which checks both
// the signature and the token's status in redis (kicked/logged out).
func JWTAuth(authService *service.AuthService) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		authHeader := string(c.GetHeader(AuthorizationHeader))
		if authHeader == "" {
			response.ErrorWithCode(ctx, c, errcode.ErrTokenMissing)
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			response.ErrorWithCode(ctx, c, errcode.ErrTokenInvalid)
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		claims, err := authService.ValidateToken(ctx, tokenString)
		if err != nil {
			response.ErrorWithCode(ctx, c, errcode.ErrTokenInvalid)
			c.Abort()
			return
		}

		c.Set(IdentityTypeKey, claims.IdentityType)
		c.Set(IdentityIdKey, claims.SubjectId)
		c.Set(IdentityEmailKey, claims.Email)
		c.Set(TokenKey, tokenString)

		c.Next(ctx)
	}
}

// RequireRole aborts unless the authenticated identity has the given type.
// Must run after JWTAuth.
func RequireRole(t entity.IdentityType) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		id := GetIdentity(c)
		if id.Type != t {
			response.Forbidden(ctx, c, "")
			c.Abort()
			return
		}
		c.Next(ctx)
	}
}

// GetIdentity gets the authenticated identity from context
func GetIdentity(c *app.RequestContext) entity.Identity {
	var id entity.Identity
	if v, ok := c.Get(IdentityTypeKey); ok {
		if s, ok := v.(string); ok {
			id.Type = entity.IdentityType(s)
		}
	}
	if v, ok := c.Get(IdentityIdKey); ok {
		if s, ok := v.(string); ok {
			id.Id = s
		}
	}
	return id
}

// GetToken gets the raw bearer token from context
func GetToken(c *app.RequestContext) string {
	if v, ok := c.Get(TokenKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
