// Package rest holds the shared plumbing for the resty-backed inter-service
// clients: base client construction and decoding of the common error
// envelope back into typed application errors.
package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tidianeba/qualichain/internal/domain/apperr"
)

// ErrorBody is the wire form of an application error.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// ErrorEnvelope is the error response body every service emits.
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// NewClient builds a resty client pointed at a peer service, with the
// service token attached when configured.
func NewClient(baseURL, serviceToken string) *resty.Client {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)

	if serviceToken != "" {
		client.SetAuthToken(serviceToken)
	}
	return client
}

// DecodeError turns a non-2xx response into a typed application error. The
// remote reason key is preserved so orchestrators can whitelist benign
// already-done Conflicts on retried idempotent calls.
func DecodeError(resp *resty.Response, envelope *ErrorEnvelope) error {
	if envelope != nil && envelope.Error.Reason != "" {
		return apperr.FromParts(apperr.Kind(envelope.Error.Kind), envelope.Error.Reason, envelope.Error.Message)
	}

	switch resp.StatusCode() {
	case http.StatusNotFound:
		return apperr.NotFound("remoteNotFound", "remote service returned 404")
	case http.StatusConflict:
		return apperr.Conflict("remoteConflict", "remote service returned 409")
	case http.StatusBadRequest:
		return apperr.BadRequest("remoteBadRequest", "remote service returned 400")
	case http.StatusUnauthorized:
		return apperr.Unauthorized("remoteUnauthorized", "remote service returned 401")
	case http.StatusForbidden:
		return apperr.Forbidden("remoteForbidden", "remote service returned 403")
	default:
		return apperr.FromParts(apperr.KindInternal, "remoteError", resp.Status())
	}
}
