package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tidianeba/qualichain/internal/domain/models"
	"github.com/tidianeba/qualichain/internal/service/purchaseorder"
)

// PurchaseOrderHandler exposes the purchase order command surface over HTTP.
type PurchaseOrderHandler struct {
	svc    *purchaseorder.Service
	logger *zap.Logger
}

// NewPurchaseOrderHandler constructs the HTTP handler adapter.
func NewPurchaseOrderHandler(svc *purchaseorder.Service, logger *zap.Logger) *PurchaseOrderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseOrderHandler{svc: svc, logger: logger}
}

// Register mounts the routes on the given group.
func (h *PurchaseOrderHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/purchase-orders", h.Create)
	rg.GET("/purchase-orders/:id", h.GetByID)
	rg.POST("/purchase-orders/:id/submit", h.Submit)
	rg.POST("/purchase-orders/:id/approve", h.Approve)
	rg.POST("/purchase-orders/:id/cancel", h.Cancel)
	rg.POST("/purchase-orders/:id/receive", h.Receive)
}

// Create handles POST /purchase-orders.
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req purchaseorder.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, bindError(err))
		return
	}

	po, err := h.svc.Create(c.Request.Context(), principalFrom(c), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, po)
}

// GetByID handles GET /purchase-orders/:id.
func (h *PurchaseOrderHandler) GetByID(c *gin.Context) {
	po, err := h.svc.GetByID(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, po)
}

// Submit handles POST /purchase-orders/:id/submit.
func (h *PurchaseOrderHandler) Submit(c *gin.Context) {
	h.transition(c, h.svc.Submit)
}

// Approve handles POST /purchase-orders/:id/approve.
func (h *PurchaseOrderHandler) Approve(c *gin.Context) {
	h.transition(c, h.svc.Approve)
}

// Cancel handles POST /purchase-orders/:id/cancel.
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	h.transition(c, h.svc.Cancel)
}

// Receive handles POST /purchase-orders/:id/receive.
func (h *PurchaseOrderHandler) Receive(c *gin.Context) {
	h.transition(c, h.svc.Receive)
}

func (h *PurchaseOrderHandler) transition(c *gin.Context, fn func(ctx context.Context, p models.Principal, id string) error) {
	if err := fn(c.Request.Context(), principalFrom(c), c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}

	po, err := h.svc.GetByID(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, po)
}
