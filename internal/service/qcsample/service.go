package qcsample

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
	grnclient "github.com/tidianeba/qualichain/pkg/clients/goodsreceipt"
)

// Conflict reasons downstream orchestrators whitelist as already-done on
// retried idempotent calls.
const (
	ReasonAlreadyTesting        = "qcSampleAlreadyTesting"
	ReasonResultsAlreadyEntered = "qcSampleResultsAlreadyEntered"
	ReasonAlreadySubmitted      = "qcSampleAlreadySubmitted"
)

// Repository defines the persistence operations the service needs.
type Repository interface {
	NextNumber(ctx context.Context) (int64, error)
	Insert(ctx context.Context, sample models.QCSample) error
	GetByID(ctx context.Context, id string) (*models.QCSample, error)
	Advance(ctx context.Context, id string, from []models.SampleStatus, to models.SampleStatus, at time.Time) (bool, error)
	AssignAnalyst(ctx context.Context, id string, from []models.SampleStatus, analyst string, at time.Time) (bool, error)
	AssignTests(ctx context.Context, id string, from []models.SampleStatus, testIDs []string, at time.Time) (bool, error)
}

// Service owns the QC sample pipeline. Status is monotonic: every write is
// guarded by the legal source states, so no call sequence can regress it.
type Service struct {
	repo   Repository
	grn    grnclient.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewService constructs the QC sample service.
func NewService(repo Repository, grn grnclient.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, grn: grn, logger: logger, now: time.Now}
}

// CreateRequest is the payload for QCSample.Create.
type CreateRequest struct {
	SourceType         models.SourceType     `json:"sourceType" binding:"required"`
	SourceID           string                `json:"sourceId" binding:"required"`
	SourceReference    string                `json:"sourceReference"`
	GoodsReceiptItemID string                `json:"goodsReceiptItemId"`
	MaterialID         string                `json:"materialId" binding:"required"`
	BatchNumber        string                `json:"batchNumber" binding:"required"`
	Quantity           float64               `json:"quantity" binding:"required"`
	Unit               string                `json:"unit" binding:"required"`
	Priority           models.SamplePriority `json:"priority"`
	DueDate            *time.Time            `json:"dueDate"`
}

// Create draws a sample from a verified goods receipt item (or a
// manufacturing batch) and stores it Pending. The goods receipt lives in
// another service; its gate is checked by an existence call at creation time
// and the human-readable reference is denormalized onto the sample.
func (s *Service) Create(ctx context.Context, principal models.Principal, req CreateRequest) (*models.QCSample, error) {
	if err := authz.Require(principal, authz.OpQCSampleCreate); err != nil {
		return nil, err
	}

	if req.Quantity <= 0 {
		return nil, apperr.BadRequest("qcSampleQuantityInvalid", "sample quantity must be positive")
	}

	sourceRef := req.SourceReference
	switch req.SourceType {
	case models.SourceGoodsReceipt:
		if req.GoodsReceiptItemID == "" {
			return nil, apperr.BadRequest("goodsReceiptItemRequired", "goods receipt samples need goodsReceiptItemId")
		}
		grn, err := s.grn.GetByID(ctx, req.SourceID)
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				return nil, apperr.NotFound("goodsReceiptNotFound", "goods receipt %s not found", req.SourceID)
			}
			return nil, apperr.DependencyFailure("goodsReceiptLookupFailed", err, "could not resolve goods receipt %s", req.SourceID)
		}
		if grn.Status == models.GRNDraft {
			return nil, apperr.Conflict("goodsReceiptNotVerified", "goods receipt %s is still Draft, sampling needs verification first", req.SourceID)
		}
		if grn.Item(req.GoodsReceiptItemID) == nil {
			return nil, apperr.BadRequest("goodsReceiptItemUnknown", "goods receipt %s has no item %s", req.SourceID, req.GoodsReceiptItemID)
		}
		sourceRef = grn.GRNNumber
	case models.SourceBatch:
		if sourceRef == "" {
			return nil, apperr.BadRequest("sourceReferenceRequired", "batch samples need a sourceReference")
		}
	default:
		return nil, apperr.BadRequest("sourceTypeInvalid", "unsupported source type %s", req.SourceType)
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	seq, err := s.repo.NextNumber(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := s.now().UTC()
	sample := models.QCSample{
		ID:           uuid.NewString(),
		SampleNumber: fmt.Sprintf("SMP-%d-%05d", now.Year(), seq),
		Source: models.EntityRef{
			Type:      req.SourceType,
			ID:        req.SourceID,
			Reference: sourceRef,
		},
		GoodsReceiptItemID: req.GoodsReceiptItemID,
		MaterialID:         req.MaterialID,
		BatchNumber:        req.BatchNumber,
		Quantity:           req.Quantity,
		Unit:               req.Unit,
		Priority:           priority,
		Status:             models.SamplePending,
		RequestedBy:        principal.ID,
		DueDate:            req.DueDate,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Insert(ctx, sample); err != nil {
		if mongodb.IsDuplicateKey(err) {
			return nil, apperr.Conflict("qcSampleNumberTaken", "sample number %s already exists", sample.SampleNumber)
		}
		return nil, apperr.Internal(err)
	}

	s.logger.Info("qc sample created",
		zap.String("sample_id", sample.ID),
		zap.String("sample_number", sample.SampleNumber),
		zap.String("source_id", req.SourceID))
	return &sample, nil
}

// GetByID loads a sample.
func (s *Service) GetByID(ctx context.Context, principal models.Principal, id string) (*models.QCSample, error) {
	if err := authz.Require(principal, authz.OpQCSampleGet); err != nil {
		return nil, err
	}
	sample, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if sample == nil {
		return nil, apperr.NotFound("qcSampleNotFound", "qc sample %s not found", id)
	}
	return sample, nil
}

// MarkReceived confirms physical arrival at the lab.
func (s *Service) MarkReceived(ctx context.Context, principal models.Principal, id string) error {
	if err := authz.Require(principal, authz.OpQCSampleMarkReceived); err != nil {
		return err
	}
	return s.advance(ctx, id, []models.SampleStatus{models.SamplePending}, models.SampleReceived, "")
}

// Assign hands the sample to an analyst and moves it to TestsAssigned.
// Rejected once the sample is submitted to QA or later.
func (s *Service) Assign(ctx context.Context, principal models.Principal, id, analyst string) error {
	if err := authz.Require(principal, authz.OpQCSampleAssign); err != nil {
		return err
	}
	if analyst == "" {
		return apperr.BadRequest("analystRequired", "assign needs a user id")
	}

	from := []models.SampleStatus{models.SamplePending, models.SampleReceived}
	ok, err := s.repo.AssignAnalyst(ctx, id, from, analyst, s.now().UTC())
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return s.conflictFor(ctx, id, models.SampleTestsAssigned)
	}
	s.logger.Info("qc sample assigned", zap.String("sample_id", id), zap.String("analyst", analyst))
	return nil
}

// AssignTests records the planned test ids. Allowed until testing begins, so
// a supervisor can still amend the plan.
func (s *Service) AssignTests(ctx context.Context, principal models.Principal, id string, testIDs []string) error {
	if err := authz.Require(principal, authz.OpQCSampleAssignTests); err != nil {
		return err
	}
	if len(testIDs) == 0 {
		return apperr.BadRequest("testIdsRequired", "assignTests needs at least one test id")
	}

	from := []models.SampleStatus{models.SamplePending, models.SampleReceived, models.SampleTestsAssigned}
	ok, err := s.repo.AssignTests(ctx, id, from, testIDs, s.now().UTC())
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return s.conflictFor(ctx, id, models.SampleTestsAssigned)
	}
	return nil
}

// BeginTesting marks the first result activity on the sample. Invoked by the
// result service; a sample already in the testing phase answers with a
// reason the caller treats as already-done.
func (s *Service) BeginTesting(ctx context.Context, principal models.Principal, id string) error {
	if err := authz.Require(principal, authz.OpQCSampleBeginTesting); err != nil {
		return err
	}
	return s.advance(ctx, id, []models.SampleStatus{models.SampleTestsAssigned}, models.SampleTestingInProgress, ReasonAlreadyTesting)
}

// MarkResultsEntered records that the assigned results have been finalized.
func (s *Service) MarkResultsEntered(ctx context.Context, principal models.Principal, id string) error {
	if err := authz.Require(principal, authz.OpQCSampleResultsEntered); err != nil {
		return err
	}
	return s.advance(ctx, id, []models.SampleStatus{models.SampleTestingInProgress}, models.SampleResultsEntered, ReasonResultsAlreadyEntered)
}

// AdvanceToSubmitted moves the sample to SubmittedToQA. Only legal while the
// sample is in the testing phase, matching the one-shot window of the result
// submittedToQA flag.
func (s *Service) AdvanceToSubmitted(ctx context.Context, principal models.Principal, id string) error {
	if err := authz.Require(principal, authz.OpQCSampleSubmit); err != nil {
		return err
	}
	return s.advance(ctx, id,
		[]models.SampleStatus{models.SampleTestingInProgress, models.SampleResultsEntered},
		models.SampleSubmittedToQA, ReasonAlreadySubmitted)
}

// Complete is the terminal status setter, used once all assigned results are
// finalized. It does not re-validate the result set; that check belongs to
// the result submission.
func (s *Service) Complete(ctx context.Context, principal models.Principal, id string) error {
	if err := authz.Require(principal, authz.OpQCSampleComplete); err != nil {
		return err
	}
	return s.advance(ctx, id,
		[]models.SampleStatus{models.SampleResultsEntered, models.SampleSubmittedToQA},
		models.SampleQCComplete, "")
}

// advance runs a guarded pipeline move. alreadyReason, when non-empty, is
// the Conflict reason emitted if the sample already sits at or directly past
// the target state, so idempotent orchestrators can tell a repeat from a
// real violation.
func (s *Service) advance(ctx context.Context, id string, from []models.SampleStatus, to models.SampleStatus, alreadyReason string) error {
	ok, err := s.repo.Advance(ctx, id, from, to, s.now().UTC())
	if err != nil {
		return apperr.Internal(err)
	}
	if ok {
		s.logger.Info("qc sample advanced", zap.String("sample_id", id), zap.String("status", string(to)))
		return nil
	}

	sample, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if sample == nil {
		return apperr.NotFound("qcSampleNotFound", "qc sample %s not found", id)
	}
	if alreadyReason != "" && alreadyRepeat(sample.Status, to) {
		return apperr.Conflict(alreadyReason, "qc sample %s is already %s", id, sample.Status)
	}
	return apperr.Conflict("qcSampleStatusIncompatible", "qc sample %s is %s, cannot move to %s", id, sample.Status, to)
}

func (s *Service) conflictFor(ctx context.Context, id string, to models.SampleStatus) error {
	sample, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if sample == nil {
		return apperr.NotFound("qcSampleNotFound", "qc sample %s not found", id)
	}
	if !sample.Status.Before(models.SampleSubmittedToQA) {
		return apperr.Conflict(ReasonAlreadySubmitted, "qc sample %s is already %s", id, sample.Status)
	}
	return apperr.Conflict("qcSampleStatusIncompatible", "qc sample %s is %s, cannot move to %s", id, sample.Status, to)
}

// alreadyRepeat reports whether current sits at or past target while still in
// the testing phase, i.e. the transition already happened and nothing beyond
// the submit gate invalidates a retry.
func alreadyRepeat(current, target models.SampleStatus) bool {
	if current.Index() < target.Index() {
		return false
	}
	if target == models.SampleSubmittedToQA {
		return current == models.SampleSubmittedToQA
	}
	return current.Before(models.SampleSubmittedToQA)
}
