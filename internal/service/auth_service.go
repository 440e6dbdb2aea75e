package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codepractice/codepractice-backend/internal/config"
	"github.com/codepractice/codepractice-backend/internal/model"
	"github.com/codepractice/codepractice-backend/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrSessionInvalidated = errors.New("session invalidated")
)

// Claims extends JWT standard claims with the account email.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// UserStore is the account persistence used by AuthService.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// AuthToken is returned by signup and login.
type AuthToken struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Session   model.Session `json:"session"`
}

// AuthService handles accounts, JWT issuing and Redis-backed sessions.
type AuthService struct {
	cfg   *config.Config
	rdb   *redis.Client
	users UserStore
	log   zerolog.Logger

	newTokenID func() string
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client, users UserStore, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:   cfg,
		rdb:   rdb,
		users: users,
		log:   log.With().Str("component", "auth_service").Logger(),

		newTokenID: uuid.NewString,
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Signup creates an account and signs it in.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*AuthToken, error) {
	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		ID:           uuid.New(),
		Email:        normalizeEmail(email),
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Str("user_id", u.ID.String()).Msg("Account created")
	return s.issue(ctx, u)
}

// Login verifies credentials and opens a new session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthToken, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := s.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, err
	}
	return s.issue(ctx, u)
}

// Logout ends the session the token belongs to.
func (s *AuthService) Logout(ctx context.Context, sess model.Session) error {
	return s.rdb.Del(ctx, config.CacheKey.UserSessionKey(sess.UserID.String(), sess.TokenID)).Err()
}

func (s *AuthService) issue(ctx context.Context, u *model.User) (*AuthToken, error) {
	jti := s.newTokenID()
	now := time.Now()
	expires := now.Add(s.cfg.JWTExpiry)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email: u.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	// Store session in Redis with same expiry as JWT.
	key := config.CacheKey.UserSessionKey(u.ID.String(), jti)
	if err := s.rdb.Set(ctx, key, u.Email, s.cfg.JWTExpiry).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &AuthToken{
		Token:     signed,
		ExpiresAt: expires,
		Session: model.Session{
			UserID:  u.ID,
			Email:   u.Email,
			TokenID: jti,
			Admin:   s.cfg.IsAdmin(u.Email),
		},
	}, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// ValidateSession checks that the token's JTI is still an open session in Redis
// and returns the caller's session.
func (s *AuthService) ValidateSession(ctx context.Context, claims *Claims) (*model.Session, error) {
	sess, err := s.SessionFromClaims(claims)
	if err != nil {
		return nil, err
	}

	n, err := s.rdb.Exists(ctx, config.CacheKey.UserSessionKey(sess.UserID.String(), sess.TokenID)).Result()
	if err != nil {
		return nil, fmt.Errorf("check session: %w", err)
	}
	if n == 0 {
		return nil, ErrSessionInvalidated
	}
	return sess, nil
}

// SessionFromClaims builds the session value carried through a request.
func (s *AuthService) SessionFromClaims(claims *Claims) (*model.Session, error) {
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	return &model.Session{
		UserID:  userID,
		Email:   claims.Email,
		TokenID: claims.ID,
		Admin:   s.cfg.IsAdmin(claims.Email),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
