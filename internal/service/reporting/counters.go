package reporting

import (
	"context"
	"time"

	"github.com/tidianeba/qualichain/internal/domain/models"
)

// ReceiptCounter counts verified goods receipts.
type ReceiptCounter interface {
	CountVerifiedBetween(ctx context.Context, start, end time.Time) (int64, error)
}

// SampleCounter counts sample lifecycle events.
type SampleCounter interface {
	CountCreatedBetween(ctx context.Context, start, end time.Time) (int64, error)
	CountCompletedBetween(ctx context.Context, start, end time.Time) (int64, error)
}

// ResultCounter counts recorded and failed results.
type ResultCounter interface {
	CountRecordedBetween(ctx context.Context, start, end time.Time) (int64, error)
	CountFailedBetween(ctx context.Context, start, end time.Time) (int64, error)
}

// ReleaseCounter counts dispositions and outstanding notifications.
type ReleaseCounter interface {
	CountDecisionsBetween(ctx context.Context, decision models.ReleaseDecision, start, end time.Time) (int64, error)
	CountUnnotified(ctx context.Context) (int64, error)
}

// DeviationCounter counts deviations still under investigation.
type DeviationCounter interface {
	CountOpen(ctx context.Context) (int64, error)
}

// RepositoryCounters adapts the per-service repositories to the Counters
// interface. Each field is backed by that service's own datastore.
type RepositoryCounters struct {
	Receipts   ReceiptCounter
	Samples    SampleCounter
	Results    ResultCounter
	Releases   ReleaseCounter
	Deviations DeviationCounter
}

func (c RepositoryCounters) CountVerifiedBetween(ctx context.Context, start, end time.Time) (int64, error) {
	return c.Receipts.CountVerifiedBetween(ctx, start, end)
}

func (c RepositoryCounters) CountSamplesCreatedBetween(ctx context.Context, start, end time.Time) (int64, error) {
	return c.Samples.CountCreatedBetween(ctx, start, end)
}

func (c RepositoryCounters) CountSamplesCompletedBetween(ctx context.Context, start, end time.Time) (int64, error) {
	return c.Samples.CountCompletedBetween(ctx, start, end)
}

func (c RepositoryCounters) CountResultsRecordedBetween(ctx context.Context, start, end time.Time) (int64, error) {
	return c.Results.CountRecordedBetween(ctx, start, end)
}

func (c RepositoryCounters) CountResultsFailedBetween(ctx context.Context, start, end time.Time) (int64, error) {
	return c.Results.CountFailedBetween(ctx, start, end)
}

func (c RepositoryCounters) CountDecisionsBetween(ctx context.Context, decision models.ReleaseDecision, start, end time.Time) (int64, error) {
	return c.Releases.CountDecisionsBetween(ctx, decision, start, end)
}

func (c RepositoryCounters) CountOpenDeviations(ctx context.Context) (int64, error) {
	return c.Deviations.CountOpen(ctx)
}

func (c RepositoryCounters) CountUnnotifiedReleases(ctx context.Context) (int64, error) {
	return c.Releases.CountUnnotified(ctx)
}
