package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tidianeba/qualichain/internal/domain/apperr"
	"github.com/tidianeba/qualichain/internal/domain/models"
)

// PrincipalKey is the gin context key under which the authentication
// middleware stores the resolved principal.
const PrincipalKey = "principal"

var kindStatus = map[apperr.Kind]int{
	apperr.KindNotFound:          http.StatusNotFound,
	apperr.KindConflict:          http.StatusConflict,
	apperr.KindBadRequest:        http.StatusBadRequest,
	apperr.KindUnauthorized:      http.StatusUnauthorized,
	apperr.KindForbidden:         http.StatusForbidden,
	apperr.KindDependencyFailure: http.StatusBadGateway,
	apperr.KindInternal:          http.StatusInternalServerError,
}

// errorBody is the wire shape of a typed error.
type errorBody struct {
	Kind    string `json:"kind"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// principalFrom extracts the principal placed by the authentication
// middleware; absent means the request never passed it.
func principalFrom(c *gin.Context) models.Principal {
	if v, ok := c.Get(PrincipalKey); ok {
		if p, ok := v.(models.Principal); ok {
			return p
		}
	}
	return models.Principal{}
}

// writeError renders a typed error as the shared envelope. Internal causes
// are logged, never exposed on the wire.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		e = apperr.Internal(err)
	}

	status, ok := kindStatus[e.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("reason", e.Reason),
			zap.Error(err))
	}

	c.JSON(status, gin.H{"error": errorBody{
		Kind:    string(e.Kind),
		Reason:  e.Reason,
		Message: e.Message,
	}})
}

func bindError(err error) *apperr.Error {
	return apperr.BadRequest("payloadInvalid", "invalid request payload: %v", err)
}
