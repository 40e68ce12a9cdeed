package qcsample

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/tidianeba/qualichain/internal/config"
	"github.com/tidianeba/qualichain/internal/domain/models"
	"github.com/tidianeba/qualichain/pkg/clients/rest"
)

// Client exposes the sample operations invoked from the result and release
// services: reads, and the pipeline advances driven by result activity.
type Client interface {
	GetByID(ctx context.Context, id string) (*models.QCSample, error)
	BeginTesting(ctx context.Context, id string) error
	MarkResultsEntered(ctx context.Context, id string) error
	AdvanceToSubmitted(ctx context.Context, id string) error
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a QC sample client from peer configuration.
func NewClient(peer config.PeerConfig, auth config.AuthConfig) *APIClient {
	return &APIClient{httpClient: rest.NewClient(peer.BaseURL, auth.ServiceToken)}
}

// GetByID fetches a sample from the owning service.
func (c *APIClient) GetByID(ctx context.Context, id string) (*models.QCSample, error) {
	result := new(models.QCSample)
	apiErr := new(rest.ErrorEnvelope)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(result).
		SetError(apiErr).
		Get(fmt.Sprintf("/api/v1/qc-samples/%s", id))
	if err != nil {
		return nil, fmt.Errorf("get qc sample: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, rest.DecodeError(resp, apiErr)
	}
	return result, nil
}

// BeginTesting advances the sample to TestingInProgress.
func (c *APIClient) BeginTesting(ctx context.Context, id string) error {
	return c.post(ctx, id, "begin-testing")
}

// MarkResultsEntered advances the sample to ResultsEntered.
func (c *APIClient) MarkResultsEntered(ctx context.Context, id string) error {
	return c.post(ctx, id, "results-entered")
}

// AdvanceToSubmitted advances the sample to SubmittedToQA.
func (c *APIClient) AdvanceToSubmitted(ctx context.Context, id string) error {
	return c.post(ctx, id, "submit")
}

func (c *APIClient) post(ctx context.Context, id, action string) error {
	apiErr := new(rest.ErrorEnvelope)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetError(apiErr).
		Post(fmt.Sprintf("/api/v1/qc-samples/%s/%s", id, action))
	if err != nil {
		return fmt.Errorf("qc sample %s: %w", action, err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return rest.DecodeError(resp, apiErr)
	}
	return nil
}
