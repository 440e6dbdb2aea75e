package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ok", func(c *gin.Context) { Success(c, http.StatusOK, gin.H{"n": 1}) })
	r.GET("/fail", func(c *gin.Context) {
		FailWithFields(c, http.StatusBadRequest, ErrValidation, map[string]string{"title": "title is required"})
	})
	return r
}

func TestRequestIDIsEchoedWhenValid(t *testing.T) {
	r := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("X-Request-ID", "trace-abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "trace-abc-123", w.Header().Get("X-Request-ID"))

	var env Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "trace-abc-123", env.Metadata.RequestID)
	assert.Nil(t, env.Error)
}

func TestRequestIDIsReplacedWhenUnsafe(t *testing.T) {
	r := newRouter()

	for _, bad := range []string{"has space", strings.Repeat("x", 65), "tab\tinside"} {
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.Header.Set("X-Request-ID", bad)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		got := w.Header().Get("X-Request-ID")
		assert.NotEqual(t, bad, got)
		_, err := uuid.Parse(got)
		assert.NoError(t, err)
	}
}

func TestFailWithFieldsEnvelope(t *testing.T) {
	r := newRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

	require.Equal(t, http.StatusBadRequest, w.Code)
	var env Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrValidation, env.Error.Code)
	assert.Equal(t, GetMessage(ErrValidation), env.Error.Message)
	assert.Equal(t, "title is required", env.Error.Fields["title"])
	assert.Nil(t, env.Data)
}

func TestSingle(t *testing.T) {
	assert.Equal(t, &Pagination{Page: 1, PerPage: 3, TotalItems: 3, TotalPages: 1}, Single(3))
	assert.Equal(t, 0, Single(0).TotalPages)
}
