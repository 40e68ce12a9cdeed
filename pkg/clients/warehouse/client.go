package warehouse

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/tidianeba/qualichain/internal/config"
	"github.com/tidianeba/qualichain/pkg/clients/rest"
)

// NotifyReleaseRequest carries the released-material facts the warehouse
// needs to open a putaway.
type NotifyReleaseRequest struct {
	ReleaseID     string  `json:"releaseId"`
	ReleaseNumber string  `json:"releaseNumber"`
	MaterialID    string  `json:"materialId"`
	BatchNumber   string  `json:"batchNumber"`
	Quantity      float64 `json:"quantity"`
	Unit          string  `json:"unit,omitempty"`
}

// Client exposes the warehouse notification invoked on a Release decision.
// The target operation is idempotent; retries for the same release are safe.
type Client interface {
	NotifyRelease(ctx context.Context, req NotifyReleaseRequest) error
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a warehouse client from peer configuration.
func NewClient(peer config.PeerConfig, auth config.AuthConfig) *APIClient {
	return &APIClient{httpClient: rest.NewClient(peer.BaseURL, auth.ServiceToken)}
}

// NotifyRelease tells the warehouse a release decision landed.
func (c *APIClient) NotifyRelease(ctx context.Context, req NotifyReleaseRequest) error {
	apiErr := new(rest.ErrorEnvelope)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetError(apiErr).
		Post("/api/v1/warehouse/release-notifications")
	if err != nil {
		return fmt.Errorf("notify warehouse: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return rest.DecodeError(resp, apiErr)
	}
	return nil
}
