package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tidianeba/qualichain/internal/domain/models"
	"github.com/tidianeba/qualichain/internal/service/qctest"
)

// QCTestHandler exposes the test registry over HTTP.
type QCTestHandler struct {
	svc    *qctest.Service
	logger *zap.Logger
}

// NewQCTestHandler constructs the HTTP handler adapter.
func NewQCTestHandler(svc *qctest.Service, logger *zap.Logger) *QCTestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QCTestHandler{svc: svc, logger: logger}
}

// Register mounts the routes on the given group.
func (h *QCTestHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/qc-tests", h.Create)
	rg.GET("/qc-tests", h.List)
	rg.GET("/qc-tests/:id", h.GetByID)
	rg.POST("/qc-tests/:id/deactivate", h.Deactivate)
}

// Create handles POST /qc-tests.
func (h *QCTestHandler) Create(c *gin.Context) {
	var req qctest.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, bindError(err))
		return
	}

	test, err := h.svc.Create(c.Request.Context(), principalFrom(c), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, test)
}

// List handles GET /qc-tests. The optional status query narrows the listing.
func (h *QCTestHandler) List(c *gin.Context) {
	status := models.QCTestStatus(c.Query("status"))
	tests, err := h.svc.List(c.Request.Context(), principalFrom(c), status)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tests)
}

// GetByID handles GET /qc-tests/:id.
func (h *QCTestHandler) GetByID(c *gin.Context) {
	test, err := h.svc.GetByID(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, test)
}

// Deactivate handles POST /qc-tests/:id/deactivate.
func (h *QCTestHandler) Deactivate(c *gin.Context) {
	if err := h.svc.Deactivate(c.Request.Context(), principalFrom(c), c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}

	test, err := h.svc.GetByID(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, test)
}
