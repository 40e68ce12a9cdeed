package qcresult

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/tidianeba/qualichain/internal/config"
	"github.com/tidianeba/qualichain/internal/domain/models"
	"github.com/tidianeba/qualichain/pkg/clients/rest"
)

// Client exposes the result reads the release service validates against.
type Client interface {
	GetBySample(ctx context.Context, sampleID string) ([]models.QCResult, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a QC result client from peer configuration.
func NewClient(peer config.PeerConfig, auth config.AuthConfig) *APIClient {
	return &APIClient{httpClient: rest.NewClient(peer.BaseURL, auth.ServiceToken)}
}

// GetBySample fetches all results recorded against a sample.
func (c *APIClient) GetBySample(ctx context.Context, sampleID string) ([]models.QCResult, error) {
	var results []models.QCResult
	apiErr := new(rest.ErrorEnvelope)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&results).
		SetError(apiErr).
		Get(fmt.Sprintf("/api/v1/qc-results/by-sample/%s", sampleID))
	if err != nil {
		return nil, fmt.Errorf("get results by sample: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, rest.DecodeError(resp, apiErr)
	}
	return results, nil
}
