package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tidianeba/qualichain/internal/service/qadeviation"
)

// QADeviationHandler exposes the deviation lifecycle over HTTP.
type QADeviationHandler struct {
	svc    *qadeviation.Service
	logger *zap.Logger
}

// NewQADeviationHandler constructs the HTTP handler adapter.
func NewQADeviationHandler(svc *qadeviation.Service, logger *zap.Logger) *QADeviationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QADeviationHandler{svc: svc, logger: logger}
}

// Register mounts the routes on the given group.
func (h *QADeviationHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/qa-deviations", h.Create)
	rg.GET("/qa-deviations/:id", h.GetByID)
	rg.POST("/qa-deviations/:id/assign", h.Assign)
	rg.POST("/qa-deviations/:id/resolve", h.Resolve)
	rg.POST("/qa-deviations/:id/close", h.Close)
}

// Create handles POST /qa-deviations.
func (h *QADeviationHandler) Create(c *gin.Context) {
	var req qadeviation.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, bindError(err))
		return
	}

	dev, err := h.svc.Create(c.Request.Context(), principalFrom(c), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, dev)
}

// GetByID handles GET /qa-deviations/:id.
func (h *QADeviationHandler) GetByID(c *gin.Context) {
	dev, err := h.svc.GetByID(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dev)
}

// Assign handles POST /qa-deviations/:id/assign.
func (h *QADeviationHandler) Assign(c *gin.Context) {
	var req qadeviation.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, bindError(err))
		return
	}

	dev, err := h.svc.Assign(c.Request.Context(), principalFrom(c), c.Param("id"), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dev)
}

// Resolve handles POST /qa-deviations/:id/resolve.
func (h *QADeviationHandler) Resolve(c *gin.Context) {
	var req qadeviation.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, bindError(err))
		return
	}

	dev, err := h.svc.Resolve(c.Request.Context(), principalFrom(c), c.Param("id"), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dev)
}

// Close handles POST /qa-deviations/:id/close.
func (h *QADeviationHandler) Close(c *gin.Context) {
	dev, err := h.svc.Close(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dev)
}
