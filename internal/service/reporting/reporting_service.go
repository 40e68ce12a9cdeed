package reporting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tidianeba/qualichain/internal/domain/models"
	"github.com/tidianeba/qualichain/internal/repository/sheets"
)

const (
	dateLayout       = "2006-01-02"
	qualityDataRange = "Quality!A:K"
)

// Counters aggregates the per-service figures that feed the daily report.
// Each method covers the half-open window [start, end).
type Counters interface {
	CountVerifiedBetween(ctx context.Context, start, end time.Time) (int64, error)
	CountSamplesCreatedBetween(ctx context.Context, start, end time.Time) (int64, error)
	CountSamplesCompletedBetween(ctx context.Context, start, end time.Time) (int64, error)
	CountResultsRecordedBetween(ctx context.Context, start, end time.Time) (int64, error)
	CountResultsFailedBetween(ctx context.Context, start, end time.Time) (int64, error)
	CountDecisionsBetween(ctx context.Context, decision models.ReleaseDecision, start, end time.Time) (int64, error)
	CountOpenDeviations(ctx context.Context) (int64, error)
	CountUnnotifiedReleases(ctx context.Context) (int64, error)
}

// ReportStore persists generated reports.
type ReportStore interface {
	Save(ctx context.Context, report models.DailyQualityReport) error
}

// Service builds the daily quality report from the service datastores,
// persists it, and optionally mirrors it to a Google Sheet.
type Service struct {
	counters Counters
	store    ReportStore
	sheet    sheets.Repository
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a new reporting service. The sheet repository may be nil
// when the export is not configured.
func NewService(counters Counters, store ReportStore, sheet sheets.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{counters: counters, store: store, sheet: sheet, logger: logger, now: time.Now}
}

// GenerateDaily builds and stores the report for the day containing the
// given moment, in the given location.
func (s *Service) GenerateDaily(ctx context.Context, at time.Time, loc *time.Location) (*models.DailyQualityReport, error) {
	if loc == nil {
		loc = time.UTC
	}
	local := at.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)

	report := models.DailyQualityReport{
		Date:      start.UTC(),
		CreatedAt: s.now().UTC(),
	}

	var err error
	if report.GRNsVerified, err = s.count(ctx, start, end, s.counters.CountVerifiedBetween); err != nil {
		return nil, fmt.Errorf("count verified receipts: %w", err)
	}
	if report.SamplesCreated, err = s.count(ctx, start, end, s.counters.CountSamplesCreatedBetween); err != nil {
		return nil, fmt.Errorf("count created samples: %w", err)
	}
	if report.SamplesCompleted, err = s.count(ctx, start, end, s.counters.CountSamplesCompletedBetween); err != nil {
		return nil, fmt.Errorf("count completed samples: %w", err)
	}
	if report.ResultsRecorded, err = s.count(ctx, start, end, s.counters.CountResultsRecordedBetween); err != nil {
		return nil, fmt.Errorf("count recorded results: %w", err)
	}
	if report.ResultsFailed, err = s.count(ctx, start, end, s.counters.CountResultsFailedBetween); err != nil {
		return nil, fmt.Errorf("count failed results: %w", err)
	}

	for _, d := range []struct {
		decision models.ReleaseDecision
		dst      *int
	}{
		{models.DecisionRelease, &report.ReleasesReleased},
		{models.DecisionHold, &report.ReleasesHeld},
		{models.DecisionReject, &report.ReleasesRejected},
	} {
		n, err := s.counters.CountDecisionsBetween(ctx, d.decision, start, end)
		if err != nil {
			return nil, fmt.Errorf("count %s decisions: %w", d.decision, err)
		}
		*d.dst = int(n)
	}

	open, err := s.counters.CountOpenDeviations(ctx)
	if err != nil {
		return nil, fmt.Errorf("count open deviations: %w", err)
	}
	report.DeviationsOpen = int(open)

	pending, err := s.counters.CountUnnotifiedReleases(ctx)
	if err != nil {
		return nil, fmt.Errorf("count pending notifications: %w", err)
	}
	report.PendingNotifications = int(pending)

	if err := s.store.Save(ctx, report); err != nil {
		return nil, fmt.Errorf("save daily report: %w", err)
	}

	if s.sheet != nil {
		if err := s.export(ctx, report); err != nil {
			// The stored report is the system of record; the sheet is a mirror.
			s.logger.Warn("sheet export failed", zap.Error(err))
		}
	}

	s.logger.Info("daily quality report generated",
		zap.String("date", start.Format(dateLayout)),
		zap.Int("grns_verified", report.GRNsVerified),
		zap.Int("results_failed", report.ResultsFailed),
		zap.Int("deviations_open", report.DeviationsOpen))
	return &report, nil
}

func (s *Service) count(ctx context.Context, start, end time.Time, fn func(context.Context, time.Time, time.Time) (int64, error)) (int, error) {
	n, err := fn(ctx, start, end)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Service) export(ctx context.Context, report models.DailyQualityReport) error {
	row := []interface{}{
		report.Date.Format(dateLayout),
		report.GRNsVerified,
		report.SamplesCreated,
		report.SamplesCompleted,
		report.ResultsRecorded,
		report.ResultsFailed,
		report.ReleasesReleased,
		report.ReleasesHeld,
		report.ReleasesRejected,
		report.DeviationsOpen,
		report.PendingNotifications,
	}
	return s.sheet.AppendRow(ctx, qualityDataRange, row)
}
