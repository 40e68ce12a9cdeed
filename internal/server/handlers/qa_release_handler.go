package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tidianeba/qualichain/internal/domain/apperr"
	"github.com/tidianeba/qualichain/internal/service/qarelease"
)

// QAReleaseHandler exposes the release disposition workflow over HTTP.
type QAReleaseHandler struct {
	svc    *qarelease.Service
	logger *zap.Logger
}

// NewQAReleaseHandler constructs the HTTP handler adapter.
func NewQAReleaseHandler(svc *qarelease.Service, logger *zap.Logger) *QAReleaseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QAReleaseHandler{svc: svc, logger: logger}
}

// Register mounts the routes on the given group.
func (h *QAReleaseHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/qa-releases", h.Create)
	rg.GET("/qa-releases/:id", h.GetByID)
	rg.PUT("/qa-releases/:id/checklist", h.UpdateChecklist)
	rg.POST("/qa-releases/:id/decision", h.MakeDecision)
}

// Create handles POST /qa-releases.
func (h *QAReleaseHandler) Create(c *gin.Context) {
	var req qarelease.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, bindError(err))
		return
	}

	rel, err := h.svc.Create(c.Request.Context(), principalFrom(c), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, rel)
}

// GetByID handles GET /qa-releases/:id.
func (h *QAReleaseHandler) GetByID(c *gin.Context) {
	rel, err := h.svc.GetByID(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rel)
}

// UpdateChecklist handles PUT /qa-releases/:id/checklist.
func (h *QAReleaseHandler) UpdateChecklist(c *gin.Context) {
	var req qarelease.UpdateChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, bindError(err))
		return
	}

	rel, err := h.svc.UpdateChecklist(c.Request.Context(), principalFrom(c), c.Param("id"), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rel)
}

// MakeDecision handles POST /qa-releases/:id/decision. A warehouse notify
// failure still carries the decided release: the decision committed and only
// the notification is outstanding.
func (h *QAReleaseHandler) MakeDecision(c *gin.Context) {
	var req qarelease.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, bindError(err))
		return
	}

	rel, err := h.svc.MakeDecision(c.Request.Context(), principalFrom(c), c.Param("id"), req)
	if err != nil {
		var e *apperr.Error
		if rel != nil && errors.As(err, &e) && e.Kind == apperr.KindDependencyFailure {
			c.JSON(http.StatusBadGateway, gin.H{
				"release": rel,
				"error":   errorBody{Kind: string(e.Kind), Reason: e.Reason, Message: e.Message},
			})
			return
		}
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rel)
}
