package qctest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/tidianeba/qualichain/internal/config"
	"github.com/tidianeba/qualichain/internal/domain/models"
	"github.com/tidianeba/qualichain/pkg/clients/rest"
)

// Client exposes the test registry reads the result service evaluates
// against.
type Client interface {
	GetByID(ctx context.Context, id string) (*models.QCTest, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a QC test client from peer configuration.
func NewClient(peer config.PeerConfig, auth config.AuthConfig) *APIClient {
	return &APIClient{httpClient: rest.NewClient(peer.BaseURL, auth.ServiceToken)}
}

// GetByID fetches a test method from the registry service.
func (c *APIClient) GetByID(ctx context.Context, id string) (*models.QCTest, error) {
	result := new(models.QCTest)
	apiErr := new(rest.ErrorEnvelope)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(result).
		SetError(apiErr).
		Get(fmt.Sprintf("/api/v1/qc-tests/%s", id))
	if err != nil {
		return nil, fmt.Errorf("get qc test: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, rest.DecodeError(resp, apiErr)
	}
	return result, nil
}
