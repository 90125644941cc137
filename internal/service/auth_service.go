package service

import (
	"context"
	"errors"
	"strings"

	"github.com/flowgrid/flowgrid/internal/config"
	"github.com/flowgrid/flowgrid/internal/entity"
	"github.com/flowgrid/flowgrid/internal/repository"
	"github.com/flowgrid/flowgrid/pkg/errcode"
	"github.com/flowgrid/flowgrid/pkg/idgen"
	"github.com/flowgrid/flowgrid/pkg/jwt"
	"github.com/mbeoliero/kit/log"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService handles registration, login and token lifecycle for all three
// identity types.
type AuthService struct {
	accounts   repository.AccountStore
	cfg        *config.Config
	tokenStore *jwt.TokenStore
}

// NewAuthService creates a new AuthService
func NewAuthService(repos *repository.Repositories, cfg *config.Config, rdb *redis.Client) *AuthService {
	return &AuthService{
		accounts:   repos.Account,
		cfg:        cfg,
		tokenStore: jwt.NewTokenStore(rdb, cfg.JWT.ExpireHours),
	}
}

// RegisterConsumerRequest represents consumer registration request
type RegisterConsumerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone,omitempty"`
}

// RegisterOwnerRequest represents owner registration request
type RegisterOwnerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
}

// LoginRequest represents a login request for any identity type
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token   string              `json:"token"`
	Account *entity.AccountInfo `json:"account"`
}

// RegisterConsumer registers a new consumer account. DisplayName defaults
// to Name when omitted; owners never see Name.
func (s *AuthService) RegisterConsumer(ctx context.Context, req *RegisterConsumerRequest) (*entity.AccountInfo, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" || req.Name == "" {
		return nil, errcode.ErrInvalidParam
	}

	existing, err := s.accounts.GetConsumerByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.CtxError(ctx, "check consumer exists failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if existing != nil {
		return nil, errcode.ErrUserExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.CtxError(ctx, "hash password failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	id, err := idgen.NextID()
	if err != nil {
		return nil, errcode.ErrInternalServer.Wrap(err)
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Name
	}

	consumer := &entity.Consumer{
		Id:                  id,
		Email:               email,
		Password:            string(hashed),
		Name:                req.Name,
		DisplayName:         displayName,
		Phone:               req.Phone,
		ReadReceiptsEnabled: true,
	}
	if err := s.accounts.CreateConsumer(ctx, consumer); err != nil {
		log.CtxError(ctx, "create consumer failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	log.CtxInfo(ctx, "consumer registered: id=%s", id)
	return consumer.ToAccountInfo(), nil
}

// RegisterOwner registers a new plant owner account
func (s *AuthService) RegisterOwner(ctx context.Context, req *RegisterOwnerRequest) (*entity.AccountInfo, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" || req.Name == "" {
		return nil, errcode.ErrInvalidParam
	}

	existing, err := s.accounts.GetOwnerByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.CtxError(ctx, "check owner exists failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if existing != nil {
		return nil, errcode.ErrUserExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.CtxError(ctx, "hash password failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	id, err := idgen.NextID()
	if err != nil {
		return nil, errcode.ErrInternalServer.Wrap(err)
	}

	owner := &entity.Owner{
		Id:                  id,
		Email:               email,
		Password:            string(hashed),
		Name:                req.Name,
		Phone:               req.Phone,
		ReadReceiptsEnabled: true,
	}
	if err := s.accounts.CreateOwner(ctx, owner); err != nil {
		log.CtxError(ctx, "create owner failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	log.CtxInfo(ctx, "owner registered: id=%s", id)
	return owner.ToAccountInfo(), nil
}

// Login authenticates an account of the given identity type and issues a
// token. The newest login kicks older sessions for the same identity.
func (s *AuthService) Login(ctx context.Context, t entity.IdentityType, req *LoginRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, errcode.ErrInvalidParam
	}

	var (
		subjectId string
		password  string
		account   *entity.AccountInfo
	)

	switch t {
	case entity.IdentityConsumer:
		c, err := s.accounts.GetConsumerByEmail(ctx, email)
		if err != nil {
			return nil, s.loginLookupError(ctx, err)
		}
		subjectId, password, account = c.Id, c.Password, c.ToAccountInfo()
	case entity.IdentityOwner:
		o, err := s.accounts.GetOwnerByEmail(ctx, email)
		if err != nil {
			return nil, s.loginLookupError(ctx, err)
		}
		subjectId, password, account = o.Id, o.Password, o.ToAccountInfo()
	case entity.IdentityAdmin:
		a, err := s.accounts.GetAdminByEmail(ctx, email)
		if err != nil {
			return nil, s.loginLookupError(ctx, err)
		}
		subjectId, password = a.Id, a.Password
		account = &entity.AccountInfo{Id: a.Id, Email: a.Email, Name: a.Name, CreatedAt: a.CreatedAt}
	default:
		return nil, errcode.ErrInvalidParam
	}

	if err := bcrypt.CompareHashAndPassword([]byte(password), []byte(req.Password)); err != nil {
		return nil, errcode.ErrPasswordWrong
	}

	token, err := jwt.GenerateToken(subjectId, string(t), email, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		log.CtxError(ctx, "generate token failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	identityKey := entity.Identity{Type: t, Id: subjectId}.Key()
	if err := s.tokenStore.StoreToken(ctx, identityKey, token); err != nil {
		log.CtxError(ctx, "store token failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	kicked, err := s.tokenStore.KickOtherTokens(ctx, identityKey, token)
	if err != nil {
		log.CtxWarn(ctx, "kick other tokens failed: %v", err)
	} else if len(kicked) > 0 {
		log.CtxInfo(ctx, "kicked %d tokens for %s", len(kicked), identityKey)
	}

	log.CtxInfo(ctx, "logged in: %s", identityKey)
	return &LoginResponse{Token: token, Account: account}, nil
}

func (s *AuthService) loginLookupError(ctx context.Context, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errcode.ErrUserNotFound
	}
	log.CtxError(ctx, "login lookup failed: %v", err)
	return errcode.ErrInternalServer
}

// ValidateToken validates a token signature and its Redis status, returning
// the parsed claims.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := jwt.ParseToken(token, s.cfg.JWT.Secret)
	if err != nil {
		return nil, err
	}

	identityKey := entity.Identity{Type: entity.IdentityType(claims.IdentityType), Id: claims.SubjectId}.Key()
	valid, err := s.tokenStore.IsTokenValid(ctx, identityKey, token)
	if err != nil {
		// Redis trouble degrades to signature-only validation.
		log.CtxWarn(ctx, "check token status failed: %v", err)
		return claims, nil
	}
	if !valid {
		return nil, errcode.ErrTokenExpired
	}
	return claims, nil
}

// Logout invalidates the presented token
func (s *AuthService) Logout(ctx context.Context, id entity.Identity, token string) error {
	if err := s.tokenStore.InvalidateToken(ctx, id.Key(), token); err != nil {
		log.CtxError(ctx, "invalidate token failed: %v", err)
		return errcode.ErrInternalServer
	}
	log.CtxInfo(ctx, "logged out: %s", id.Key())
	return nil
}
