package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tidianeba/qualichain/internal/domain/models"
	"github.com/tidianeba/qualichain/internal/service/qcsample"
)

// QCSampleHandler exposes the sample pipeline over HTTP.
type QCSampleHandler struct {
	svc    *qcsample.Service
	logger *zap.Logger
}

// NewQCSampleHandler constructs the HTTP handler adapter.
func NewQCSampleHandler(svc *qcsample.Service, logger *zap.Logger) *QCSampleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QCSampleHandler{svc: svc, logger: logger}
}

// Register mounts the routes on the given group.
func (h *QCSampleHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/qc-samples", h.Create)
	rg.GET("/qc-samples/:id", h.GetByID)
	rg.POST("/qc-samples/:id/receive", h.MarkReceived)
	rg.POST("/qc-samples/:id/assign", h.Assign)
	rg.POST("/qc-samples/:id/assign-tests", h.AssignTests)
	rg.POST("/qc-samples/:id/begin-testing", h.BeginTesting)
	rg.POST("/qc-samples/:id/results-entered", h.MarkResultsEntered)
	rg.POST("/qc-samples/:id/submit", h.AdvanceToSubmitted)
	rg.POST("/qc-samples/:id/complete", h.Complete)
}

// Create handles POST /qc-samples.
func (h *QCSampleHandler) Create(c *gin.Context) {
	var req qcsample.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, bindError(err))
		return
	}

	sample, err := h.svc.Create(c.Request.Context(), principalFrom(c), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, sample)
}

// GetByID handles GET /qc-samples/:id.
func (h *QCSampleHandler) GetByID(c *gin.Context) {
	sample, err := h.svc.GetByID(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sample)
}

// MarkReceived handles POST /qc-samples/:id/receive.
func (h *QCSampleHandler) MarkReceived(c *gin.Context) {
	h.transition(c, h.svc.MarkReceived)
}

// assignRequest is the payload for POST /qc-samples/:id/assign.
type assignRequest struct {
	AssignedTo string `json:"assignedTo" binding:"required"`
}

// Assign handles POST /qc-samples/:id/assign.
func (h *QCSampleHandler) Assign(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, bindError(err))
		return
	}

	if err := h.svc.Assign(c.Request.Context(), principalFrom(c), c.Param("id"), req.AssignedTo); err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.reply(c)
}

// assignTestsRequest is the payload for POST /qc-samples/:id/assign-tests.
type assignTestsRequest struct {
	TestIDs []string `json:"testIds" binding:"required,min=1"`
}

// AssignTests handles POST /qc-samples/:id/assign-tests.
func (h *QCSampleHandler) AssignTests(c *gin.Context) {
	var req assignTestsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, bindError(err))
		return
	}

	if err := h.svc.AssignTests(c.Request.Context(), principalFrom(c), c.Param("id"), req.TestIDs); err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.reply(c)
}

// BeginTesting handles POST /qc-samples/:id/begin-testing.
func (h *QCSampleHandler) BeginTesting(c *gin.Context) {
	h.transition(c, h.svc.BeginTesting)
}

// MarkResultsEntered handles POST /qc-samples/:id/results-entered.
func (h *QCSampleHandler) MarkResultsEntered(c *gin.Context) {
	h.transition(c, h.svc.MarkResultsEntered)
}

// AdvanceToSubmitted handles POST /qc-samples/:id/submit.
func (h *QCSampleHandler) AdvanceToSubmitted(c *gin.Context) {
	h.transition(c, h.svc.AdvanceToSubmitted)
}

// Complete handles POST /qc-samples/:id/complete.
func (h *QCSampleHandler) Complete(c *gin.Context) {
	h.transition(c, h.svc.Complete)
}

func (h *QCSampleHandler) transition(c *gin.Context, fn func(ctx context.Context, p models.Principal, id string) error) {
	if err := fn(c.Request.Context(), principalFrom(c), c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.reply(c)
}

func (h *QCSampleHandler) reply(c *gin.Context) {
	sample, err := h.svc.GetByID(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sample)
}
