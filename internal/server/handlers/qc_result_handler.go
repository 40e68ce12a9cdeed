package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tidianeba/qualichain/internal/service/qcresult"
)

// QCResultHandler exposes test result entry and the QA handover over HTTP.
type QCResultHandler struct {
	svc    *qcresult.Service
	logger *zap.Logger
}

// NewQCResultHandler constructs the HTTP handler adapter.
func NewQCResultHandler(svc *qcresult.Service, logger *zap.Logger) *QCResultHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QCResultHandler{svc: svc, logger: logger}
}

// Register mounts the routes on the given group.
func (h *QCResultHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/qc-results", h.Create)
	rg.GET("/qc-results/:id", h.GetByID)
	rg.PUT("/qc-results/:id", h.Update)
	rg.GET("/qc-results/by-sample/:sampleId", h.GetBySample)
	rg.POST("/qc-results/submit-to-qa", h.SubmitToQA)
}

// Create handles POST /qc-results.
func (h *QCResultHandler) Create(c *gin.Context) {
	var req qcresult.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, bindError(err))
		return
	}

	result, err := h.svc.Create(c.Request.Context(), principalFrom(c), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetByID handles GET /qc-results/:id.
func (h *QCResultHandler) GetByID(c *gin.Context) {
	result, err := h.svc.GetByID(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Update handles PUT /qc-results/:id.
func (h *QCResultHandler) Update(c *gin.Context) {
	var req qcresult.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, bindError(err))
		return
	}

	result, err := h.svc.Update(c.Request.Context(), principalFrom(c), c.Param("id"), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetBySample handles GET /qc-results/by-sample/:sampleId.
func (h *QCResultHandler) GetBySample(c *gin.Context) {
	results, err := h.svc.GetBySample(c.Request.Context(), principalFrom(c), c.Param("sampleId"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// SubmitToQA handles POST /qc-results/submit-to-qa.
func (h *QCResultHandler) SubmitToQA(c *gin.Context) {
	var req qcresult.SubmitToQARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, bindError(err))
		return
	}

	if err := h.svc.SubmitToQA(c.Request.Context(), principalFrom(c), req); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
