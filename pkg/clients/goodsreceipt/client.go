package goodsreceipt

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/tidianeba/qualichain/internal/config"
	"github.com/tidianeba/qualichain/internal/domain/models"
	"github.com/tidianeba/qualichain/pkg/clients/rest"
)

// Client exposes the goods receipt reads other services need: QC sampling
// validates its source reference against the owning service.
type Client interface {
	GetByID(ctx context.Context, id string) (*models.GoodsReceipt, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a goods receipt client from peer configuration.
func NewClient(peer config.PeerConfig, auth config.AuthConfig) *APIClient {
	return &APIClient{httpClient: rest.NewClient(peer.BaseURL, auth.ServiceToken)}
}

// GetByID fetches a goods receipt from the owning service.
func (c *APIClient) GetByID(ctx context.Context, id string) (*models.GoodsReceipt, error) {
	result := new(models.GoodsReceipt)
	apiErr := new(rest.ErrorEnvelope)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(result).
		SetError(apiErr).
		Get(fmt.Sprintf("/api/v1/goods-receipts/%s", id))
	if err != nil {
		return nil, fmt.Errorf("get goods receipt: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, rest.DecodeError(resp, apiErr)
	}
	return result, nil
}
