package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/codepractice/codepractice-backend/internal/executor"
	"github.com/codepractice/codepractice-backend/internal/model"
	"github.com/codepractice/codepractice-backend/internal/response"
	"github.com/codepractice/codepractice-backend/internal/service"
	"github.com/codepractice/codepractice-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RunHandler runs editor code against the remote runner.
type RunHandler struct {
	problemService *service.ProblemService
	runService     *service.RunService
	log            zerolog.Logger
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(problemService *service.ProblemService, runService *service.RunService, log zerolog.Logger) *RunHandler {
	return &RunHandler{
		problemService: problemService,
		runService:     runService,
		log:            log.With().Str("component", "run_handler").Logger(),
	}
}

// RunCode godoc
// POST /api/v1/problems/:id/run
// Sends the editor code to the runner and returns its output.
func (h *RunHandler) RunCode(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	id, ok := parseSeqID(c)
	if !ok {
		return
	}

	var req model.RunCodeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	problem, err := h.problemService.GetBySeqID(c.Request.Context(), id)
	if err != nil {
		writeProblemError(c, h.log, err)
		return
	}

	res, err := h.runService.Run(c.Request.Context(), *sess, problem.DocID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUnsupportedLanguage):
			response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedLanguage)
		case errors.Is(err, executor.ErrRunnerUnavailable):
			h.log.Warn().Err(err).Int("problem_id", id).Msg("Runner call failed")
			response.Fail(c, http.StatusBadGateway, response.ErrRunnerUnavailable)
		default:
			h.log.Error().Err(err).Msg("Run failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": res})
}

// RecentRuns godoc
// GET /api/v1/runs?limit=
// Lists the caller's latest runs.
func (h *RunHandler) RecentRuns(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	runs, err := h.runService.Recent(c.Request.Context(), *sess, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("List runs failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"runs": runs})
}
