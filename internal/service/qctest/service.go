package qctest

import (
	"context"
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
	Insert(ctx context.Context, test models.QCTest) error
	GetByID(ctx context.Context, id string) (*models.QCTest, error)
	List(ctx context.Context, status models.QCTestStatus) ([]models.QCTest, error)
	TransitionStatus(ctx context.Context, id string, from []models.QCTestStatus, to models.QCTestStatus, at time.Time) (bool, error)
}

// Service owns the test method registry. Read-mostly: the result service
// evaluates recorded values against these specifications.
type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService constructs the test registry service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// SpecificationRequest is one acceptance criterion in a create request.
type SpecificationRequest struct {
	Parameter   string   `json:"parameter" binding:"required"`
	MinValue    *float64 `json:"minValue"`
	MaxValue    *float64 `json:"maxValue"`
	TargetValue *string  `json:"targetValue"`
	Unit        string   `json:"unit" binding:"required"`
	Method      string   `json:"method"`
}

// CreateRequest is the payload for QCTest.Create.
type CreateRequest struct {
	Name           string                 `json:"name" binding:"required"`
	Code           string                 `json:"code"`
	Specifications []SpecificationRequest `json:"specifications" binding:"required,min=1"`
}

// Create registers an Active test method.
func (s *Service) Create(ctx context.Context, principal models.Principal, req CreateRequest) (*models.QCTest, error) {
	if err := authz.Require(principal, authz.OpQCTestCreate); err != nil {
		return nil, err
	}

	specs := make([]models.QCSpecification, 0, len(req.Specifications))
	for i, sp := range req.Specifications {
		if sp.MinValue == nil && sp.MaxValue == nil && sp.TargetValue == nil {
			return nil, apperr.BadRequest("qcSpecificationEmpty", "specification %d has neither a range nor a target", i)
		}
		if sp.MinValue != nil && sp.MaxValue != nil && *sp.MinValue > *sp.MaxValue {
			return nil, apperr.BadRequest("qcSpecificationRangeInvalid", "specification %d: min exceeds max", i)
		}
		specs = append(specs, models.QCSpecification{
			Parameter:   sp.Parameter,
			MinValue:    sp.MinValue,
			MaxValue:    sp.MaxValue,
			TargetValue: sp.TargetValue,
			Unit:        sp.Unit,
			Method:      sp.Method,
		})
	}

	now := s.now().UTC()
	test := models.QCTest{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Code:           req.Code,
		Specifications: specs,
		Status:         models.QCTestActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Insert(ctx, test); err != nil {
		if mongodb.IsDuplicateKey(err) {
			return nil, apperr.Conflict("qcTestCodeTaken", "test code %s already exists", req.Code)
		}
		return nil, apperr.Internal(err)
	}

	s.logger.Info("qc test registered", zap.String("test_id", test.ID), zap.String("name", test.Name))
	return &test, nil
}

// GetByID loads a test method.
func (s *Service) GetByID(ctx context.Context, principal models.Principal, id string) (*models.QCTest, error) {
	if err := authz.Require(principal, authz.OpQCTestGet); err != nil {
		return nil, err
	}
	test, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if test == nil {
		return nil, apperr.NotFound("qcTestNotFound", "qc test %s not found", id)
	}
	return test, nil
}

// List returns registered test methods, optionally filtered by status.
func (s *Service) List(ctx context.Context, principal models.Principal, status models.QCTestStatus) ([]models.QCTest, error) {
	if err := authz.Require(principal, authz.OpQCTestList); err != nil {
		return nil, err
	}
	tests, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return tests, nil
}

// Deactivate retires an Active test method. New results can no longer
// reference it; existing results keep their evaluation.
func (s *Service) Deactivate(ctx context.Context, principal models.Principal, id string) error {
	if err := authz.Require(principal, authz.OpQCTestDeactivate); err != nil {
		return err
	}

	ok, err := s.repo.TransitionStatus(ctx, id, []models.QCTestStatus{models.QCTestActive}, models.QCTestInactive, s.now().UTC())
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		test, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return apperr.Internal(err)
		}
		if test == nil {
			return apperr.NotFound("qcTestNotFound", "qc test %s not found", id)
		}
		return apperr.Conflict("qcTestAlreadyInactive", "qc test %s is already inactive", id)
	}
	return nil
}
