package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tidianeba/qualichain/internal/config"
	"github.com/tidianeba/qualichain/internal/service/qarelease"
	"github.com/tidianeba/qualichain/internal/service/reporting"
)

// notifyRetryBatch caps how many outstanding releases one sweep resends.
const notifyRetryBatch = 50

// Scheduler manages the recurring jobs: the daily quality report and the
// warehouse notification retry sweep.
type Scheduler struct {
	cron         *cron.Cron
	reportingSvc *reporting.Service
	releaseSvc   *qarelease.Service
	cfg          config.ReportingConfig
	location     *time.Location
	logger       *zap.Logger
}

// NewScheduler creates a new scheduler instance. Either service may be nil
// when the hosting process does not mount the corresponding job.
func NewScheduler(cfg config.ReportingConfig, reportingSvc *reporting.Service, releaseSvc *qarelease.Service, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, falling back to UTC", zap.String("timezone", cfg.Timezone), zap.Error(err))
		loc = time.UTC
	}

	return &Scheduler{
		cron:         cron.New(cron.WithLocation(loc)),
		reportingSvc: reportingSvc,
		releaseSvc:   releaseSvc,
		cfg:          cfg,
		location:     loc,
		logger:       logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("timezone", s.location.String()))

	if s.reportingSvc != nil {
		if _, err := s.cron.AddFunc(s.cfg.DailyReportSchedule, s.runDailyReport); err != nil {
			s.logger.Error("failed to schedule daily report", zap.Error(err))
		}
	}

	if s.releaseSvc != nil {
		if _, err := s.cron.AddFunc(s.cfg.NotifyRetrySchedule, s.runNotifyRetry); err != nil {
			s.logger.Error("failed to schedule notify retry sweep", zap.Error(err))
		}
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runDailyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// The 06:00 run reports on the previous calendar day.
	yesterday := time.Now().In(s.location).AddDate(0, 0, -1)
	if _, err := s.reportingSvc.GenerateDaily(ctx, yesterday, s.location); err != nil {
		s.logger.Error("daily report generation failed", zap.Error(err))
	}
}

func (s *Scheduler) runNotifyRetry() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sent, err := s.releaseSvc.RetryNotifications(ctx, notifyRetryBatch)
	if err != nil {
		s.logger.Error("notify retry sweep failed", zap.Error(err))
		return
	}
	if sent > 0 {
		s.logger.Info("warehouse notifications resent", zap.Int("count", sent))
	}
}
