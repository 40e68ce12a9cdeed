package qcresult

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tidianeba/qualichain/internal/domain/apperr"
	"github.com/tidianeba/qualichain/internal/domain/models"
	"github.com/tidianeba/qualichain/internal/repository/mongodb"
	"github.com/tidianeba/qualichain/internal/service/authz"
	"github.com/tidianeba/qualichain/internal/service/qcsample"
	sampleclient "github.com/tidianeba/qualichain/pkg/clients/qcsample"
	testclient "github.com/tidianeba/qualichain/pkg/clients/qctest"
)

// targetTolerance is the absolute tolerance applied when a numeric value is
// compared against a point specification.
const targetTolerance = 1e-9

// Repository defines the persistence operations the service needs.
type Repository interface {
	Insert(ctx context.Context, result models.QCResult) error
	GetByID(ctx context.Context, id string) (*models.QCResult, error)
	GetBySample(ctx context.Context, sampleID string) ([]models.QCResult, error)
	MarkInProgress(ctx context.Context, id string, at time.Time) (bool, error)
	Finalize(ctx context.Context, id string, fin mongodb.ResultFinalization) (bool, error)
	MarkSubmitted(ctx context.Context, id string, at time.Time) (bool, error)
}

// Service owns individual test outcomes and the batch submission to QA.
type Service struct {
	repo    Repository
	tests   testclient.Client
	samples sampleclient.Client
	logger  *zap.Logger
	now     func() time.Time
}

// NewService constructs the QC result service.
func NewService(repo Repository, tests testclient.Client, samples sampleclient.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, tests: tests, samples: samples, logger: logger, now: time.Now}
}

// CreateRequest is the payload for QCResult.Create.
type CreateRequest struct {
	SampleID  string `json:"sampleId" binding:"required"`
	TestID    string `json:"testId" binding:"required"`
	Parameter string `json:"parameter"`
}

// Create plans a result for a sample+test pair. The test must be Active in
// the registry; the first result against a sample moves it into testing.
func (s *Service) Create(ctx context.Context, principal models.Principal, req CreateRequest) (*models.QCResult, error) {
	if err := authz.Require(principal, authz.OpQCResultCreate); err != nil {
		return nil, err
	}

	test, err := s.tests.GetByID(ctx, req.TestID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.NotFound("qcTestNotFound", "qc test %s not found", req.TestID)
		}
		return nil, apperr.DependencyFailure("qcTestLookupFailed", err, "could not resolve qc test %s", req.TestID)
	}
	if test.Status != models.QCTestActive {
		return nil, apperr.Conflict("qcTestInactive", "qc test %s is inactive", req.TestID)
	}

	sample, err := s.samples.GetByID(ctx, req.SampleID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.NotFound("qcSampleNotFound", "qc sample %s not found", req.SampleID)
		}
		return nil, apperr.DependencyFailure("qcSampleLookupFailed", err, "could not resolve qc sample %s", req.SampleID)
	}
	if !sample.Status.Before(models.SampleSubmittedToQA) {
		return nil, apperr.Conflict("qcSampleAlreadySubmitted", "qc sample %s is already %s, no further results accepted", sample.ID, sample.Status)
	}

	parameter := req.Parameter
	if parameter == "" && len(test.Specifications) > 0 {
		parameter = test.Specifications[0].Parameter
	}

	now := s.now().UTC()
	result := models.QCResult{
		ID:        uuid.NewString(),
		SampleID:  req.SampleID,
		TestID:    req.TestID,
		Parameter: parameter,
		Status:    models.ResultPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, result); err != nil {
		return nil, apperr.Internal(err)
	}

	if err := s.samples.BeginTesting(ctx, req.SampleID); err != nil {
		if !apperr.IsReason(err, qcsample.ReasonAlreadyTesting) {
			s.logger.Error("sample advance failed after result creation",
				zap.String("result_id", result.ID),
				zap.String("sample_id", req.SampleID),
				zap.Error(err))
			return &result, apperr.DependencyFailure("qcSampleAdvanceFailed", err,
				"result %s is stored but sample %s did not enter testing; retry QCSample.BeginTesting", result.ID, req.SampleID)
		}
	}

	s.logger.Info("qc result created",
		zap.String("result_id", result.ID),
		zap.String("sample_id", req.SampleID),
		zap.String("test_id", req.TestID))
	return &result, nil
}

// GetByID loads a result.
func (s *Service) GetByID(ctx context.Context, principal models.Principal, id string) (*models.QCResult, error) {
	if err := authz.Require(principal, authz.OpQCResultGetBySample); err != nil {
		return nil, err
	}
	result, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if result == nil {
		return nil, apperr.NotFound("qcResultNotFound", "qc result %s not found", id)
	}
	return result, nil
}

// GetBySample returns all results recorded against a sample.
func (s *Service) GetBySample(ctx context.Context, principal models.Principal, sampleID string) ([]models.QCResult, error) {
	if err := authz.Require(principal, authz.OpQCResultGetBySample); err != nil {
		return nil, err
	}
	results, err := s.repo.GetBySample(ctx, sampleID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return results, nil
}

// UpdateRequest is the payload for QCResult.Update. An empty ResultValue
// only marks the result InProgress; a value finalizes and evaluates it.
type UpdateRequest struct {
	ResultValue string `json:"resultValue"`
	Unit        string `json:"unit"`
	Passed      *bool  `json:"passed"`
}

// Update enters a result value. The declarative outcome is the comparison
// against the test specification; an explicit Passed flag overrides it and
// the override is recorded. An out-of-specification value lands the result
// in Failed, which excludes it from QA submission but does not block the
// rest of the sample pipeline.
func (s *Service) Update(ctx context.Context, principal models.Principal, id string, req UpdateRequest) (*models.QCResult, error) {
	if err := authz.Require(principal, authz.OpQCResultUpdate); err != nil {
		return nil, err
	}

	result, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if result == nil {
		return nil, apperr.NotFound("qcResultNotFound", "qc result %s not found", id)
	}

	now := s.now().UTC()

	if req.ResultValue == "" {
		ok, err := s.repo.MarkInProgress(ctx, id, now)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if !ok {
			return nil, apperr.Conflict("qcResultNotPending", "qc result %s is %s, cannot restart it", id, result.Status)
		}
		result.Status = models.ResultInProgress
		return result, nil
	}

	test, err := s.tests.GetByID(ctx, result.TestID)
	if err != nil {
		return nil, apperr.DependencyFailure("qcTestLookupFailed", err, "could not resolve qc test %s", result.TestID)
	}

	passed, err := Evaluate(test, result.Parameter, req.ResultValue)
	if err != nil {
		return nil, err
	}
	overridden := false
	if req.Passed != nil {
		overridden = *req.Passed != passed
		passed = *req.Passed
	}

	status := models.ResultCompleted
	if !passed {
		status = models.ResultFailed
	}

	fin := mongodb.ResultFinalization{
		ResultValue:      req.ResultValue,
		Unit:             req.Unit,
		Passed:           passed,
		PassedOverridden: overridden,
		Status:           status,
		PerformedBy:      principal.ID,
		PerformedAt:      now,
	}
	ok, err := s.repo.Finalize(ctx, id, fin)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, apperr.Conflict("qcResultAlreadyFinal", "qc result %s is already %s", id, result.Status)
	}

	result.ResultValue = fin.ResultValue
	result.Unit = fin.Unit
	result.Passed = fin.Passed
	result.PassedOverridden = fin.PassedOverridden
	result.Status = fin.Status
	result.PerformedBy = fin.PerformedBy
	result.PerformedAt = &fin.PerformedAt
	result.UpdatedAt = now

	s.logger.Info("qc result finalized",
		zap.String("result_id", id),
		zap.Bool("passed", passed),
		zap.Bool("overridden", overridden))

	if s.allFinal(ctx, result.SampleID) {
		if err := s.samples.MarkResultsEntered(ctx, result.SampleID); err != nil {
			if !apperr.IsReason(err, qcsample.ReasonResultsAlreadyEntered) {
				s.logger.Error("sample advance failed after result finalization",
					zap.String("sample_id", result.SampleID),
					zap.Error(err))
				return result, apperr.DependencyFailure("qcSampleAdvanceFailed", err,
					"result %s is final but sample %s did not advance; retry QCSample.MarkResultsEntered", id, result.SampleID)
			}
		}
	}

	return result, nil
}

// SubmitToQARequest is the payload for QCResult.SubmitToQA.
type SubmitToQARequest struct {
	SampleID  string   `json:"sampleId" binding:"required"`
	ResultIDs []string `json:"resultIds" binding:"required,min=1"`
}

// SubmitToQA hands a batch of completed results over to QA: every referenced
// result must belong to the sample and be Completed, the flag flips exactly
// once, and the sample advances to SubmittedToQA in its owning service.
func (s *Service) SubmitToQA(ctx context.Context, principal models.Principal, req SubmitToQARequest) error {
	if err := authz.Require(principal, authz.OpQCResultSubmitToQA); err != nil {
		return err
	}

	sample, err := s.samples.GetByID(ctx, req.SampleID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return apperr.NotFound("qcSampleNotFound", "qc sample %s not found", req.SampleID)
		}
		return apperr.DependencyFailure("qcSampleLookupFailed", err, "could not resolve qc sample %s", req.SampleID)
	}
	if sample.Status != models.SampleTestingInProgress && sample.Status != models.SampleResultsEntered {
		return apperr.Conflict("qcSampleNotSubmittable", "qc sample %s is %s, results submit from the testing phase only", sample.ID, sample.Status)
	}

	results := make([]*models.QCResult, 0, len(req.ResultIDs))
	for _, rid := range req.ResultIDs {
		result, err := s.repo.GetByID(ctx, rid)
		if err != nil {
			return apperr.Internal(err)
		}
		if result == nil {
			return apperr.NotFound("qcResultNotFound", "qc result %s not found", rid)
		}
		if result.SampleID != req.SampleID {
			return apperr.Conflict("qcResultSampleMismatch", "qc result %s belongs to sample %s, not %s", rid, result.SampleID, req.SampleID)
		}
		if result.SubmittedToQA {
			return apperr.Conflict("qcResultAlreadySubmitted", "qc result %s was already submitted to QA", rid)
		}
		if result.Status != models.ResultCompleted {
			return apperr.Conflict("qcResultNotCompleted", "qc result %s is %s, only Completed results submit", rid, result.Status)
		}
		results = append(results, result)
	}

	now := s.now().UTC()
	for _, result := range results {
		ok, err := s.repo.MarkSubmitted(ctx, result.ID, now)
		if err != nil {
			return apperr.Internal(err)
		}
		if !ok {
			// Lost a race with a concurrent submit of the same result.
			return apperr.Conflict("qcResultAlreadySubmitted", "qc result %s was already submitted to QA", result.ID)
		}
	}

	if err := s.samples.AdvanceToSubmitted(ctx, req.SampleID); err != nil {
		if !apperr.IsReason(err, qcsample.ReasonAlreadySubmitted) {
			s.logger.Error("sample advance failed after result submission",
				zap.String("sample_id", req.SampleID),
				zap.Error(err))
			return apperr.DependencyFailure("qcSampleAdvanceFailed", err,
				"results are flagged for QA but sample %s did not advance; retry QCSample.AdvanceToSubmitted", req.SampleID)
		}
	}

	s.logger.Info("results submitted to qa",
		zap.String("sample_id", req.SampleID),
		zap.Int("results", len(results)))
	return nil
}

func (s *Service) allFinal(ctx context.Context, sampleID string) bool {
	results, err := s.repo.GetBySample(ctx, sampleID)
	if err != nil {
		s.logger.Warn("could not check sibling results", zap.String("sample_id", sampleID), zap.Error(err))
		return false
	}
	for _, r := range results {
		if r.Status == models.ResultPending || r.Status == models.ResultInProgress {
			return false
		}
	}
	return len(results) > 0
}

// Evaluate compares a recorded value against the test's specification for
// the parameter: numeric range when min/max are present, tolerance or exact
// match against a point target otherwise.
func Evaluate(test *models.QCTest, parameter, value string) (bool, error) {
	spec := specFor(test, parameter)
	if spec == nil {
		return false, apperr.BadRequest("qcSpecificationMissing", "test %s has no specification for parameter %q", test.ID, parameter)
	}

	if spec.MinValue != nil || spec.MaxValue != nil {
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return false, apperr.BadRequest("qcResultValueNotNumeric", "specification for %q is a numeric range but value %q is not numeric", spec.Parameter, value)
		}
		if spec.MinValue != nil && v < *spec.MinValue {
			return false, nil
		}
		if spec.MaxValue != nil && v > *spec.MaxValue {
			return false, nil
		}
		return true, nil
	}

	target := strings.TrimSpace(*spec.TargetValue)
	got := strings.TrimSpace(value)
	if tv, err1 := strconv.ParseFloat(target, 64); err1 == nil {
		if gv, err2 := strconv.ParseFloat(got, 64); err2 == nil {
			diff := tv - gv
			if diff < 0 {
				diff = -diff
			}
			return diff <= targetTolerance, nil
		}
	}
	return strings.EqualFold(target, got), nil
}

func specFor(test *models.QCTest, parameter string) *models.QCSpecification {
	for i := range test.Specifications {
		if strings.EqualFold(test.Specifications[i].Parameter, parameter) {
			return &test.Specifications[i]
		}
	}
	if parameter == "" && len(test.Specifications) > 0 {
		return &test.Specifications[0]
	}
	return nil
}
