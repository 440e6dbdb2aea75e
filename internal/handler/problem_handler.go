package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/codepractice/codepractice-backend/internal/middleware"
	"github.com/codepractice/codepractice-backend/internal/model"
	"github.com/codepractice/codepractice-backend/internal/response"
	"github.com/codepractice/codepractice-backend/internal/sequencer"
	"github.com/codepractice/codepractice-backend/internal/service"
	"github.com/codepractice/codepractice-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ProblemHandler serves the problem list, the editor view and authoring.
type ProblemHandler struct {
	problemService *service.ProblemService
	log            zerolog.Logger
}

// NewProblemHandler creates a new ProblemHandler.
func NewProblemHandler(problemService *service.ProblemService, log zerolog.Logger) *ProblemHandler {
	return &ProblemHandler{
		problemService: problemService,
		log:            log.With().Str("component", "problem_handler").Logger(),
	}
}

// ListProblems godoc
// GET /api/v1/problems?search=&topic=&difficulty=
// Lists problems in id order, narrowed by the optional filters.
func (h *ProblemHandler) ListProblems(c *gin.Context) {
	filter := model.ProblemFilter{
		Search:     c.Query("search"),
		Topic:      model.Topic(c.Query("topic")),
		Difficulty: model.Difficulty(c.Query("difficulty")),
	}

	problems, err := h.problemService.List(c.Request.Context(), filter)
	if err != nil {
		writeProblemError(c, h.log, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"problems": problems}, response.Single(len(problems)))
}

// NextID godoc
// GET /api/v1/problems/next-id
// Returns the id the next created problem will receive.
func (h *ProblemHandler) NextID(c *gin.Context) {
	next, err := h.problemService.NextAvailableID(c.Request.Context())
	if err != nil {
		writeProblemError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"next_id": next})
}

// GetProblem godoc
// GET /api/v1/problems/:id
// Returns the problem shown in the editor. :id is the user-facing id.
func (h *ProblemHandler) GetProblem(c *gin.Context) {
	id, ok := parseSeqID(c)
	if !ok {
		return
	}

	problem, err := h.problemService.GetBySeqID(c.Request.Context(), id)
	if err != nil {
		writeProblemError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"problem":   problem,
		"languages": languageOptions(),
	})
}

// CreateProblem godoc
// POST /api/v1/problems
// Creates a problem under the next available id.
func (h *ProblemHandler) CreateProblem(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	var req model.CreateProblemRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.problemService.Create(c.Request.Context(), *sess, req.ToInput())
	if err != nil {
		writeProblemError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, res)
}

// Catalog godoc
// GET /api/v1/catalog
// Lists the topics, difficulty levels and languages the forms offer.
func (h *ProblemHandler) Catalog(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"topics":       model.Topics,
		"difficulties": model.Difficulties,
		"languages":    languageOptions(),
	})
}

type languageOption struct {
	Key   model.Language `json:"key"`
	Label string         `json:"label"`
}

func languageOptions() []languageOption {
	out := make([]languageOption, 0, len(model.Languages))
	for _, l := range model.Languages {
		out = append(out, languageOption{Key: l, Label: l.Label()})
	}
	return out
}

// requireSession returns the caller set by RequireAuth, or writes 401.
func requireSession(c *gin.Context) (*model.Session, bool) {
	sess := middleware.GetSession(c)
	if sess == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, false
	}
	return sess, true
}

// parseSeqID reads the :id path parameter. It writes the error response and
// returns false when the value is not a positive integer.
func parseSeqID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// writeProblemError maps problem service errors onto API errors.
func writeProblemError(c *gin.Context, log zerolog.Logger, err error) {
	var seqErr *sequencer.Error

	switch {
	case errors.As(err, &seqErr):
		log.Error().Err(err).Msg("Resequencing stopped part way")
		response.FailWithFields(c, http.StatusBadGateway, response.ErrResequenceFailed, map[string]string{
			"applied": strconv.Itoa(seqErr.Applied),
			"doc_id":  seqErr.DocID,
		})
	case errors.Is(err, service.ErrProblemNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrInvalidID):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
	case errors.Is(err, service.ErrIDConflict):
		response.Fail(c, http.StatusConflict, response.ErrIDConflict)
	case errors.Is(err, service.ErrBusy):
		response.Fail(c, http.StatusConflict, response.ErrLockBusy)
	case errors.Is(err, service.ErrStoreRead):
		log.Error().Err(err).Msg("Problem store read failed")
		response.Fail(c, http.StatusBadGateway, response.ErrStoreReadFailed)
	case errors.Is(err, service.ErrStoreWrite):
		log.Error().Err(err).Msg("Problem store write failed")
		response.Fail(c, http.StatusBadGateway, response.ErrStoreWriteFailed)
	default:
		log.Error().Err(err).Msg("Unexpected problem service error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
