package handler

import (
	"net/http"

	"github.com/codepractice/codepractice-backend/internal/model"
	"github.com/codepractice/codepractice-backend/internal/response"
	"github.com/codepractice/codepractice-backend/internal/service"
	"github.com/codepractice/codepractice-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AdminHandler serves the problem management table.
type AdminHandler struct {
	problemService *service.ProblemService
	log            zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(problemService *service.ProblemService, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		problemService: problemService,
		log:            log.With().Str("component", "admin_handler").Logger(),
	}
}

// ListProblems godoc
// GET /api/v1/admin/problems
// Lists every problem with its doc id for the management table.
func (h *AdminHandler) ListProblems(c *gin.Context) {
	problems, err := h.problemService.List(c.Request.Context(), model.ProblemFilter{})
	if err != nil {
		writeProblemError(c, h.log, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"problems": problems}, response.Single(len(problems)))
}

// UpdateProblem godoc
// PUT /api/v1/admin/problems/:doc_id
// Edits a problem. Changing its id renumbers the collection.
func (h *AdminHandler) UpdateProblem(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	docID, ok := parseDocID(c)
	if !ok {
		return
	}

	var req model.UpdateProblemRequest
	if fields := validator.Bind(c, &req); fields != nil {
		if _, bad := fields["id"]; bad {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidID, fields)
			return
		}
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.problemService.Update(c.Request.Context(), *sess, docID, req.ToInput())
	if err != nil {
		writeProblemError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// DeleteProblem godoc
// DELETE /api/v1/admin/problems/:doc_id
// Deletes a problem and renumbers the rest.
func (h *AdminHandler) DeleteProblem(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	docID, ok := parseDocID(c)
	if !ok {
		return
	}

	res, err := h.problemService.Delete(c.Request.Context(), *sess, docID)
	if err != nil {
		writeProblemError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// Resequence godoc
// POST /api/v1/admin/problems/resequence
// Renumbers the whole collection 1..N.
func (h *AdminHandler) Resequence(c *gin.Context) {
	res, err := h.problemService.Resequence(c.Request.Context())
	if err != nil {
		writeProblemError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func parseDocID(c *gin.Context) (string, bool) {
	docID, err := uuid.Parse(c.Param("doc_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return "", false
	}
	return docID.String(), true
}
