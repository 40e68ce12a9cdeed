package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tidianeba/qualichain/internal/domain/apperr"
	"github.com/tidianeba/qualichain/internal/service/goodsreceipt"
)

// GoodsReceiptHandler exposes the goods receipt command surface over HTTP.
type GoodsReceiptHandler struct {
	svc    *goodsreceipt.Service
	logger *zap.Logger
}

// NewGoodsReceiptHandler constructs the HTTP handler adapter.
func NewGoodsReceiptHandler(svc *goodsreceipt.Service, logger *zap.Logger) *GoodsReceiptHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoodsReceiptHandler{svc: svc, logger: logger}
}

// Register mounts the routes on the given group.
func (h *GoodsReceiptHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/goods-receipts", h.Create)
	rg.GET("/goods-receipts/:id", h.GetByID)
	rg.POST("/goods-receipts/:id/verify", h.Verify)
	rg.POST("/goods-receipts/:id/complete", h.Complete)
	rg.DELETE("/goods-receipts/:id", h.Delete)
}

// Create handles POST /goods-receipts.
func (h *GoodsReceiptHandler) Create(c *gin.Context) {
	var req goodsreceipt.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, bindError(err))
		return
	}

	grn, err := h.svc.Create(c.Request.Context(), principalFrom(c), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, grn)
}

// GetByID handles GET /goods-receipts/:id.
func (h *GoodsReceiptHandler) GetByID(c *gin.Context) {
	grn, err := h.svc.GetByID(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, grn)
}

// Verify handles POST /goods-receipts/:id/verify. A dependency failure still
// carries the verified receipt: the local transition committed and only the
// downstream advance is outstanding.
func (h *GoodsReceiptHandler) Verify(c *gin.Context) {
	grn, err := h.svc.Verify(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		var e *apperr.Error
		if grn != nil && errors.As(err, &e) && e.Kind == apperr.KindDependencyFailure {
			c.JSON(http.StatusBadGateway, gin.H{
				"goodsReceipt": grn,
				"error":        errorBody{Kind: string(e.Kind), Reason: e.Reason, Message: e.Message},
			})
			return
		}
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, grn)
}

// Complete handles POST /goods-receipts/:id/complete.
func (h *GoodsReceiptHandler) Complete(c *gin.Context) {
	if err := h.svc.Complete(c.Request.Context(), principalFrom(c), c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}

	grn, err := h.svc.GetByID(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, grn)
}

// Delete handles DELETE /goods-receipts/:id.
func (h *GoodsReceiptHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), principalFrom(c), c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
