package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/codepractice/codepractice-backend/internal/config"
	"github.com/codepractice/codepractice-backend/internal/model"
	"github.com/codepractice/codepractice-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testUserID = uuid.MustParse("3f0f9c52-3b8e-4d0c-9b43-5d1c0b6f2a11")

func newAuth(t *testing.T) (*service.AuthService, redismock.ClientMock, *config.Config) {
	t.Helper()
	rdb, mock := redismock.NewClientMock()
	cfg := &config.Config{JWTSecret: "mw-secret", JWTExpiry: time.Hour, AdminEmails: []string{"admin@example.com"}}
	return service.NewAuthService(cfg, rdb, nil, zerolog.Nop()), mock, cfg
}

func signToken(t *testing.T, cfg *config.Config, email, jti string, expires time.Time) string {
	t.Helper()
	claims := service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   testUserID.String(),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email: email,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)
	return signed
}

func TestRequireAuthAndAdmin(t *testing.T) {
	auth, mock, cfg := newAuth(t)

	r := gin.New()
	r.GET("/admin", RequireAuth(auth), RequireAdmin(), func(c *gin.Context) {
		c.String(http.StatusOK, GetSession(c).Email)
	})

	adminTok := signToken(t, cfg, "admin@example.com", "a1", time.Now().Add(time.Hour))
	userTok := signToken(t, cfg, "dev@example.com", "u1", time.Now().Add(time.Hour))
	mock.ExpectExists(config.CacheKey.UserSessionKey(testUserID.String(), "a1")).SetVal(1)
	mock.ExpectExists(config.CacheKey.UserSessionKey(testUserID.String(), "u1")).SetVal(1)

	tests := []struct {
		name   string
		header string
		want   int
		code   string
	}{
		{"admin", "Bearer " + adminTok, http.StatusOK, ""},
		{"not admin", "Bearer " + userTok, http.StatusForbidden, "ADMIN_ACCESS_ONLY"},
		{"no token", "", http.StatusUnauthorized, "TOKEN_REQUIRED"},
		{"garbage", "Bearer nope", http.StatusUnauthorized, "TOKEN_INVALID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.code != "" {
				assert.Contains(t, w.Body.String(), tt.code)
			} else {
				assert.Equal(t, "admin@example.com", w.Body.String())
			}
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequireAuthExpiredAndSignedOut(t *testing.T) {
	auth, mock, cfg := newAuth(t)

	r := gin.New()
	r.GET("/me", RequireAuth(auth), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	expired := signToken(t, cfg, "dev@example.com", "e1", time.Now().Add(-time.Minute))
	req := httptest.NewRequest(http.MethodGet, "/me?token="+expired, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")

	signedOut := signToken(t, cfg, "dev@example.com", "s1", time.Now().Add(time.Hour))
	mock.ExpectExists(config.CacheKey.UserSessionKey(testUserID.String(), "s1")).SetVal(0)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signedOut)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "SESSION_INVALIDATED")
}

func TestGuestOnly(t *testing.T) {
	auth, mock, cfg := newAuth(t)

	r := gin.New()
	r.POST("/login", GuestOnly(auth), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	tok := signToken(t, cfg, "dev@example.com", "g1", time.Now().Add(time.Hour))
	mock.ExpectExists(config.CacheKey.UserSessionKey(testUserID.String(), "g1")).SetVal(1)
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ALREADY_AUTHENTICATED")
}

func TestRateLimiterRefill(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 2, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("ip:1"))
	assert.True(t, rl.allow("ip:1"))
	assert.False(t, rl.allow("ip:1"))
	assert.True(t, rl.allow("ip:2"))

	now = now.Add(time.Minute)
	assert.True(t, rl.allow("ip:1"))
}

func TestRateLimiterKeysBySession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, 1, time.Hour)

	r := gin.New()
	r.POST("/run", func(c *gin.Context) {
		c.Set(ContextKeySession, &model.Session{UserID: testUserID})
		c.Next()
	}, rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/run", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestBrotliCompressesLargeBodies(t *testing.T) {
	body := strings.Repeat("two sum ", 400)

	r := gin.New()
	r.Use(Brotli())
	r.GET("/problems", func(c *gin.Context) { c.String(http.StatusOK, body) })
	r.GET("/ws/v1/problems/stream", func(c *gin.Context) { c.String(http.StatusOK, body) })

	req := httptest.NewRequest(http.MethodGet, "/problems", nil)
	req.Header.Set("Accept-Encoding", "gzip, br")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, "br", w.Header().Get("Content-Encoding"))
	plain, err := io.ReadAll(brotli.NewReader(w.Body))
	require.NoError(t, err)
	assert.Equal(t, body, string(plain))

	req = httptest.NewRequest(http.MethodGet, "/ws/v1/problems/stream", nil)
	req.Header.Set("Accept-Encoding", "br")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, body, w.Body.String())
}

func TestBrotliPassesThroughSmallAndBinaryBodies(t *testing.T) {
	small := "{\"next_id\":4}"
	binary := strings.Repeat("\x00\x01\x02", 800)

	r := gin.New()
	r.Use(Brotli())
	r.GET("/small", func(c *gin.Context) { c.Data(http.StatusOK, "application/json", []byte(small)) })
	r.GET("/binary", func(c *gin.Context) { c.Data(http.StatusOK, "application/octet-stream", []byte(binary)) })

	for path, want := range map[string]string{"/small": small, "/binary": binary} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept-Encoding", "br;q=1.0")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Content-Encoding"), path)
		assert.Equal(t, want, w.Body.String(), path)
	}
}

func TestAcceptsBrotliHonoursWeights(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip;q=0.8, BR;q=0.9")
	assert.True(t, acceptsBrotli(req))

	req.Header.Set("Accept-Encoding", "gzip, deflate")
	assert.False(t, acceptsBrotli(req))
}
