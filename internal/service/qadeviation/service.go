package qadeviation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tidianeba/qualichain/internal/domain/apperr"
	"github.com/tidianeba/qualichain/internal/domain/models"
	"github.com/tidianeba/qualichain/internal/repository/mongodb"
	"github.com/tidianeba/qualichain/internal/service/authz"
)

// Repository defines the persistence operations the service needs.
type Repository interface {
	NextNumber(ctx context.Context) (int64, error)
	Insert(ctx context.Context, dev models.QADeviation) error
	GetByID(ctx context.Context, id string) (*models.QADeviation, error)
	Assign(ctx context.Context, id, assignee string, at time.Time) (bool, error)
	Resolve(ctx context.Context, id string, res mongodb.Resolution, at time.Time) (bool, error)
	Close(ctx context.Context, id string, at time.Time) (bool, error)
}

// Service owns nonconformance records. Deviations run their investigation
// lifecycle independently of any release decision on the same material.
type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService constructs the deviation service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

var severities = map[models.DeviationSeverity]bool{
	models.SeverityLow:      true,
	models.SeverityMedium:   true,
	models.SeverityHigh:     true,
	models.SeverityCritical: true,
}

// CreateRequest is the payload for QADeviation.Create.
type CreateRequest struct {
	Title           string                   `json:"title" binding:"required"`
	Description     string                   `json:"description" binding:"required"`
	Severity        models.DeviationSeverity `json:"severity" binding:"required"`
	Category        string                   `json:"category"`
	SourceType      models.SourceType        `json:"sourceType" binding:"required"`
	SourceID        string                   `json:"sourceId" binding:"required"`
	SourceReference string                   `json:"sourceReference"`
}

// Create opens a deviation against a source entity, typically a failed QC
// result or an inspection finding.
func (s *Service) Create(ctx context.Context, principal models.Principal, req CreateRequest) (*models.QADeviation, error) {
	if err := authz.Require(principal, authz.OpQADeviationCreate); err != nil {
		return nil, err
	}

	if !severities[req.Severity] {
		return nil, apperr.BadRequest("deviationSeverityUnknown", "severity %q is not recognized", req.Severity)
	}

	seq, err := s.repo.NextNumber(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := s.now().UTC()
	dev := models.QADeviation{
		ID:              uuid.NewString(),
		DeviationNumber: fmt.Sprintf("DEV-%d-%05d", now.Year(), seq),
		Title:           req.Title,
		Description:     req.Description,
		Severity:        req.Severity,
		Category:        req.Category,
		Status:          models.DeviationOpen,
		Source: models.EntityRef{
			Type:      req.SourceType,
			ID:        req.SourceID,
			Reference: req.SourceReference,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, dev); err != nil {
		return nil, apperr.Internal(err)
	}

	s.logger.Info("deviation opened",
		zap.String("deviation_id", dev.ID),
		zap.String("deviation_number", dev.DeviationNumber),
		zap.String("severity", string(dev.Severity)))
	return &dev, nil
}

// GetByID loads a deviation.
func (s *Service) GetByID(ctx context.Context, principal models.Principal, id string) (*models.QADeviation, error) {
	if err := authz.Require(principal, authz.OpQADeviationGet); err != nil {
		return nil, err
	}
	dev, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if dev == nil {
		return nil, apperr.NotFound("deviationNotFound", "deviation %s not found", id)
	}
	return dev, nil
}

// AssignRequest is the payload for QADeviation.Assign.
type AssignRequest struct {
	AssignedTo string `json:"assignedTo" binding:"required"`
}

// Assign hands an Open deviation to an investigator, moving it to
// Investigating.
func (s *Service) Assign(ctx context.Context, principal models.Principal, id string, req AssignRequest) (*models.QADeviation, error) {
	if err := authz.Require(principal, authz.OpQADeviationAssign); err != nil {
		return nil, err
	}

	ok, err := s.repo.Assign(ctx, id, req.AssignedTo, s.now().UTC())
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, s.conflict(ctx, id, "deviationNotOpen", "deviation %s is not Open, cannot assign it")
	}
	return s.reload(ctx, id)
}

// ResolveRequest is the payload for QADeviation.Resolve. Root cause and a
// corrective action are the minimum record for closing out an investigation.
type ResolveRequest struct {
	RootCause        string `json:"rootCause" binding:"required"`
	CorrectiveAction string `json:"correctiveAction" binding:"required"`
	PreventiveAction string `json:"preventiveAction"`
}

// Resolve records the investigation outcome on an Investigating deviation.
func (s *Service) Resolve(ctx context.Context, principal models.Principal, id string, req ResolveRequest) (*models.QADeviation, error) {
	if err := authz.Require(principal, authz.OpQADeviationUpdateStatus); err != nil {
		return nil, err
	}

	res := mongodb.Resolution{
		RootCause:        req.RootCause,
		CorrectiveAction: req.CorrectiveAction,
		PreventiveAction: req.PreventiveAction,
	}
	ok, err := s.repo.Resolve(ctx, id, res, s.now().UTC())
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, s.conflict(ctx, id, "deviationNotInvestigating", "deviation %s is not under investigation, cannot resolve it")
	}
	return s.reload(ctx, id)
}

// Close finalizes a Resolved deviation and stamps the closure time.
func (s *Service) Close(ctx context.Context, principal models.Principal, id string) (*models.QADeviation, error) {
	if err := authz.Require(principal, authz.OpQADeviationClose); err != nil {
		return nil, err
	}

	ok, err := s.repo.Close(ctx, id, s.now().UTC())
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, s.conflict(ctx, id, "deviationNotResolved", "deviation %s is not Resolved, cannot close it")
	}

	s.logger.Info("deviation closed", zap.String("deviation_id", id))
	return s.reload(ctx, id)
}

func (s *Service) conflict(ctx context.Context, id, reason, format string) error {
	dev, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if dev == nil {
		return apperr.NotFound("deviationNotFound", "deviation %s not found", id)
	}
	return apperr.Conflict(reason, format, id)
}

func (s *Service) reload(ctx context.Context, id string) (*models.QADeviation, error) {
	dev, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if dev == nil {
		return nil, apperr.NotFound("deviationNotFound", "deviation %s not found", id)
	}
	return dev, nil
}
