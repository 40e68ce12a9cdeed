package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tidianeba/qualichain/internal/service/warehouse"
)

// WarehouseHandler exposes warehouse intake over HTTP.
type WarehouseHandler struct {
	svc    *warehouse.Service
	logger *zap.Logger
}

// NewWarehouseHandler constructs the HTTP handler adapter.
func NewWarehouseHandler(svc *warehouse.Service, logger *zap.Logger) *WarehouseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WarehouseHandler{svc: svc, logger: logger}
}

// Register mounts the routes on the given group.
func (h *WarehouseHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/warehouse/release-notifications", h.NotifyRelease)
	rg.GET("/warehouse/putaways/:id", h.GetPutaway)
	rg.POST("/warehouse/putaways/:id/complete", h.CompletePutaway)
}

// NotifyRelease handles POST /warehouse/release-notifications. Repeats for
// the same release return the existing putaway with 200 instead of 201.
func (h *WarehouseHandler) NotifyRelease(c *gin.Context) {
	var req warehouse.NotifyReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, bindError(err))
		return
	}

	rec, created, err := h.svc.NotifyRelease(c.Request.Context(), principalFrom(c), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, rec)
}

// GetPutaway handles GET /warehouse/putaways/:id.
func (h *WarehouseHandler) GetPutaway(c *gin.Context) {
	rec, err := h.svc.GetPutaway(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// CompletePutaway handles POST /warehouse/putaways/:id/complete.
func (h *WarehouseHandler) CompletePutaway(c *gin.Context) {
	var req warehouse.CompletePutawayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, bindError(err))
		return
	}

	rec, err := h.svc.CompletePutaway(c.Request.Context(), principalFrom(c), c.Param("id"), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
