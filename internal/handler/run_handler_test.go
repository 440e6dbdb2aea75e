package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/codepractice/codepractice-backend/internal/executor"
	"github.com/codepractice/codepractice-backend/internal/middleware"
	"github.com/codepractice/codepractice-backend/internal/model"
	"github.com/codepractice/codepractice-backend/internal/response"
	"github.com/codepractice/codepractice-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	res  *model.RunResult
	err  error
	seen model.Language
}

func (r *stubRunner) Run(_ context.Context, lang model.Language, _, _ string) (*model.RunResult, error) {
	r.seen = lang
	return r.res, r.err
}

type noHistory struct{}

func (noHistory) ListByUser(context.Context, uuid.UUID, int) ([]model.CodeRun, error) {
	return nil, nil
}

func newRunRouter(runner *stubRunner) *gin.Engine {
	rdb, _ := redismock.NewClientMock()
	problems := service.NewProblemService(seededStore(), noCache{}, noEvents{}, noLock{}, zerolog.Nop())
	runs := service.NewRunService(runner, noHistory{}, rdb, zerolog.Nop())
	h := NewRunHandler(problems, runs, zerolog.Nop())

	withSession := func(c *gin.Context) {
		c.Set(middleware.ContextKeySession, &model.Session{UserID: uuid.New(), Email: "member@example.com"})
		c.Next()
	}

	r := gin.New()
	r.POST("/problems/:id/run", withSession, h.RunCode)
	r.GET("/runs", withSession, h.RecentRuns)
	r.GET("/anonymous/runs", h.RecentRuns)
	return r
}

func TestRunCodeReturnsRunnerOutput(t *testing.T) {
	runner := &stubRunner{res: &model.RunResult{Language: model.LanguagePython, Output: "42"}}
	r := newRunRouter(runner)

	w, env := do(r, http.MethodPost, "/problems/2/run", `{"language":"python","code":"print(42)"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, env.Error)
	assert.Contains(t, w.Body.String(), `"output":"42"`)
	assert.Equal(t, model.LanguagePython, runner.seen)
}

func TestRunCodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		err    error
		status int
		code   response.ErrCode
	}{
		{"unknown language", "/problems/1/run", `{"language":"ruby"}`, nil, http.StatusBadRequest, response.ErrValidation},
		{"missing problem", "/problems/9/run", `{"language":"c"}`, nil, http.StatusNotFound, response.ErrNotFound},
		{"bad id", "/problems/x/run", `{"language":"c"}`, nil, http.StatusBadRequest, response.ErrInvalidID},
		{"runner down", "/problems/1/run", `{"language":"java"}`,
			fmt.Errorf("%w: status 502", executor.ErrRunnerUnavailable), http.StatusBadGateway, response.ErrRunnerUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRunRouter(&stubRunner{res: &model.RunResult{}, err: tt.err})

			w, env := do(r, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestRecentRuns(t *testing.T) {
	r := newRunRouter(&stubRunner{})

	w, _ := do(r, http.MethodGet, "/runs?limit=500", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"runs":[]`)

	w, env := do(r, http.MethodGet, "/anonymous/runs", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.ErrTokenRequired, env.Error.Code)
}
