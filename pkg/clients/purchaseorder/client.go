package purchaseorder

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/tidianeba/qualichain/internal/config"
	"github.com/tidianeba/qualichain/internal/domain/models"
	"github.com/tidianeba/qualichain/pkg/clients/rest"
)

// Client exposes the purchase order operations other services invoke.
type Client interface {
	GetByID(ctx context.Context, id string) (*models.PurchaseOrder, error)
	Receive(ctx context.Context, id string) error
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a purchase order client from peer configuration.
func NewClient(peer config.PeerConfig, auth config.AuthConfig) *APIClient {
	return &APIClient{httpClient: rest.NewClient(peer.BaseURL, auth.ServiceToken)}
}

// GetByID fetches a purchase order from the owning service.
func (c *APIClient) GetByID(ctx context.Context, id string) (*models.PurchaseOrder, error) {
	result := new(models.PurchaseOrder)
	apiErr := new(rest.ErrorEnvelope)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(result).
		SetError(apiErr).
		Get(fmt.Sprintf("/api/v1/purchase-orders/%s", id))
	if err != nil {
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, rest.DecodeError(resp, apiErr)
	}
	return result, nil
}

// Receive advances the purchase order to Received. A Conflict with reason
// purchaseOrderAlreadyReceived means a previous attempt already landed.
func (c *APIClient) Receive(ctx context.Context, id string) error {
	apiErr := new(rest.ErrorEnvelope)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetError(apiErr).
		Post(fmt.Sprintf("/api/v1/purchase-orders/%s/receive", id))
	if err != nil {
		return fmt.Errorf("receive purchase order: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return rest.DecodeError(resp, apiErr)
	}
	return nil
}
