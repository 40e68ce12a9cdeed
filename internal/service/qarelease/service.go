package qarelease

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tidianeba/qualichain/internal/domain/apperr"
	"github.com/tidianeba/qualichain/internal/domain/models"
	"github.com/tidianeba/qualichain/internal/repository/mongodb"
	"github.com/tidianeba/qualichain/internal/service/authz"
	resultclient "github.com/tidianeba/qualichain/pkg/clients/qcresult"
	sampleclient "github.com/tidianeba/qualichain/pkg/clients/qcsample"
	whclient "github.com/tidianeba/qualichain/pkg/clients/warehouse"
)

// defaultChecklist seeds every new release with the standard review points.
var defaultChecklist = []string{
	"All QC results reviewed and within specification",
	"Supporting documentation complete",
	"Deviations on this batch assessed",
	"Storage and labelling verified",
}

// Repository defines the persistence operations the service needs.
type Repository interface {
	NextNumber(ctx context.Context) (int64, error)
	Insert(ctx context.Context, rel models.QARelease) error
	GetByID(ctx context.Context, id string) (*models.QARelease, error)
	UpdateChecklist(ctx context.Context, id string, from []models.ReleaseStatus, items []models.ChecklistItem, to models.ReleaseStatus, at time.Time) (bool, error)
	RecordDecision(ctx context.Context, id string, from []models.ReleaseStatus, rec mongodb.DecisionRecord) (bool, error)
	MarkNotified(ctx context.Context, id string, at time.Time) (bool, error)
	ListUnnotified(ctx context.Context, limit int64) ([]models.QARelease, error)
}

// Service owns the release disposition workflow: checklist review, the QA
// decision, and the downstream warehouse notification.
type Service struct {
	repo      Repository
	samples   sampleclient.Client
	results   resultclient.Client
	warehouse whclient.Client
	logger    *zap.Logger
	now       func() time.Time
}

// NewService constructs the release service.
func NewService(repo Repository, samples sampleclient.Client, results resultclient.Client, warehouse whclient.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:      repo,
		samples:   samples,
		results:   results,
		warehouse: warehouse,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateRequest is the payload for QARelease.Create.
type CreateRequest struct {
	SampleID    string   `json:"sampleId" binding:"required"`
	QCResultIDs []string `json:"qcResultIds" binding:"required,min=1"`
}

// Create opens a release for a sample that QC has handed over. Every
// referenced result must belong to the sample and already carry the
// submitted-to-QA flag.
func (s *Service) Create(ctx context.Context, principal models.Principal, req CreateRequest) (*models.QARelease, error) {
	if err := authz.Require(principal, authz.OpQAReleaseCreate); err != nil {
		return nil, err
	}

	sample, err := s.samples.GetByID(ctx, req.SampleID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.NotFound("qcSampleNotFound", "qc sample %s not found", req.SampleID)
		}
		return nil, apperr.DependencyFailure("qcSampleLookupFailed", err, "could not resolve qc sample %s", req.SampleID)
	}
	if sample.Status != models.SampleSubmittedToQA {
		return nil, apperr.Conflict("qcSampleNotSubmitted", "qc sample %s is %s, a release needs SubmittedToQA", sample.ID, sample.Status)
	}

	results, err := s.results.GetBySample(ctx, req.SampleID)
	if err != nil {
		return nil, apperr.DependencyFailure("qcResultLookupFailed", err, "could not load results for sample %s", req.SampleID)
	}
	byID := make(map[string]models.QCResult, len(results))
	for _, r := range results {
		byID[r.ID] = r
	}
	for _, rid := range req.QCResultIDs {
		result, ok := byID[rid]
		if !ok {
			return nil, apperr.BadRequest("qcResultSampleMismatch", "result %s does not belong to sample %s", rid, req.SampleID)
		}
		if !result.SubmittedToQA {
			return nil, apperr.BadRequest("qcResultNotSubmitted", "result %s has not been submitted to QA", rid)
		}
	}

	seq, err := s.repo.NextNumber(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	checklist := make([]models.ChecklistItem, 0, len(defaultChecklist))
	for _, item := range defaultChecklist {
		checklist = append(checklist, models.ChecklistItem{Item: item})
	}

	now := s.now().UTC()
	rel := models.QARelease{
		ID:                 uuid.NewString(),
		ReleaseNumber:      fmt.Sprintf("REL-%d-%05d", now.Year(), seq),
		SampleID:           sample.ID,
		GoodsReceiptItemID: sample.GoodsReceiptItemID,
		MaterialID:         sample.MaterialID,
		BatchNumber:        sample.BatchNumber,
		Quantity:           sample.Quantity,
		Unit:               sample.Unit,
		Status:             models.ReleasePending,
		ChecklistItems:     checklist,
		QCResultIDs:        req.QCResultIDs,
		SubmittedBy:        principal.ID,
		SubmittedAt:        now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Insert(ctx, rel); err != nil {
		return nil, apperr.Internal(err)
	}

	s.logger.Info("release opened",
		zap.String("release_id", rel.ID),
		zap.String("release_number", rel.ReleaseNumber),
		zap.String("sample_id", rel.SampleID))
	return &rel, nil
}

// GetByID loads a release.
func (s *Service) GetByID(ctx context.Context, principal models.Principal, id string) (*models.QARelease, error) {
	if err := authz.Require(principal, authz.OpQAReleaseGet); err != nil {
		return nil, err
	}
	rel, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if rel == nil {
		return nil, apperr.NotFound("releaseNotFound", "release %s not found", id)
	}
	return rel, nil
}

// ChecklistItemRequest is one checklist entry in an update request.
type ChecklistItemRequest struct {
	Item    string `json:"item" binding:"required"`
	Checked bool   `json:"checked"`
	Remarks string `json:"remarks"`
}

// UpdateChecklistRequest is the payload for QARelease.UpdateChecklist.
type UpdateChecklistRequest struct {
	Items []ChecklistItemRequest `json:"items" binding:"required,min=1"`
}

// UpdateChecklist replaces the checklist while the release is before review.
// Status follows checklist progress: any item checked moves the release to
// ChecklistInProgress, all items checked to UnderReview.
func (s *Service) UpdateChecklist(ctx context.Context, principal models.Principal, id string, req UpdateChecklistRequest) (*models.QARelease, error) {
	if err := authz.Require(principal, authz.OpQAReleaseUpdateChecklist); err != nil {
		return nil, err
	}

	items := make([]models.ChecklistItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, models.ChecklistItem{Item: it.Item, Checked: it.Checked, Remarks: it.Remarks})
	}

	anyChecked, allChecked := models.ChecklistState(items)
	to := models.ReleasePending
	switch {
	case allChecked:
		to = models.ReleaseUnderReview
	case anyChecked:
		to = models.ReleaseChecklistInProgress
	}

	from := []models.ReleaseStatus{models.ReleasePending, models.ReleaseChecklistInProgress}
	ok, err := s.repo.UpdateChecklist(ctx, id, from, items, to, s.now().UTC())
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		rel, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if rel == nil {
			return nil, apperr.NotFound("releaseNotFound", "release %s not found", id)
		}
		return nil, apperr.Conflict("releaseChecklistLocked", "release %s is %s, its checklist is locked", id, rel.Status)
	}
	return s.reload(ctx, id)
}

// DecisionRequest is the payload for QARelease.MakeDecision.
type DecisionRequest struct {
	Decision models.ReleaseDecision `json:"decision" binding:"required"`
	Reason   string                 `json:"reason"`
	Password string                 `json:"password" binding:"required"`
}

var decisionStatus = map[models.ReleaseDecision]models.ReleaseStatus{
	models.DecisionRelease: models.ReleaseReleased,
	models.DecisionHold:    models.ReleaseHeld,
	models.DecisionReject:  models.ReleaseRejected,
}

// MakeDecision records the QA disposition from UnderReview (or a second pass
// from Held). A Release decision then notifies the warehouse; if that call
// fails the decision stands and the notification is retried by the sweep.
func (s *Service) MakeDecision(ctx context.Context, principal models.Principal, id string, req DecisionRequest) (*models.QARelease, error) {
	if err := authz.Require(principal, authz.OpQAReleaseMakeDecision); err != nil {
		return nil, err
	}

	status, ok := decisionStatus[req.Decision]
	if !ok {
		return nil, apperr.BadRequest("releaseDecisionUnknown", "decision %q is not recognized", req.Decision)
	}
	if req.Decision != models.DecisionRelease && req.Reason == "" {
		return nil, apperr.BadRequest("releaseReasonRequired", "a %s decision needs a reason", req.Decision)
	}

	now := s.now().UTC()
	rec := mongodb.DecisionRecord{
		Status:         status,
		Decision:       req.Decision,
		DecisionReason: req.Reason,
		DecidedBy:      principal.ID,
		DecidedAt:      now,
		ESignature:     signDecision(principal.ID, req.Password, now),
	}

	from := []models.ReleaseStatus{models.ReleaseUnderReview, models.ReleaseHeld}
	applied, err := s.repo.RecordDecision(ctx, id, from, rec)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !applied {
		rel, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if rel == nil {
			return nil, apperr.NotFound("releaseNotFound", "release %s not found", id)
		}
		return nil, apperr.Conflict("releaseAlreadyDecided", "release %s is %s, no further decision possible", id, rel.Status)
	}

	s.logger.Info("release decided",
		zap.String("release_id", id),
		zap.String("decision", string(req.Decision)),
		zap.String("decided_by", principal.ID))

	rel, err := s.reload(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Decision == models.DecisionRelease {
		if err := s.notify(ctx, rel); err != nil {
			// The decision is committed; only the notification is outstanding.
			return rel, apperr.DependencyFailure("warehouseNotifyFailed", err,
				"release %s is decided but the warehouse was not notified; the retry sweep will resend", id)
		}
		rel, err = s.reload(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	return rel, nil
}

// RetryNotifications resends outstanding warehouse notifications for
// Released records. Invoked by the scheduler sweep.
func (s *Service) RetryNotifications(ctx context.Context, limit int64) (int, error) {
	rels, err := s.repo.ListUnnotified(ctx, limit)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range rels {
		if err := s.notify(ctx, &rels[i]); err != nil {
			s.logger.Warn("warehouse notify retry failed",
				zap.String("release_id", rels[i].ID),
				zap.Error(err))
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *Service) notify(ctx context.Context, rel *models.QARelease) error {
	err := s.warehouse.NotifyRelease(ctx, whclient.NotifyReleaseRequest{
		ReleaseID:     rel.ID,
		ReleaseNumber: rel.ReleaseNumber,
		MaterialID:    rel.MaterialID,
		BatchNumber:   rel.BatchNumber,
		Quantity:      rel.Quantity,
		Unit:          rel.Unit,
	})
	if err != nil {
		return err
	}

	// MatchedCount zero here means a concurrent retry already stamped the
	// flag; the notification itself succeeded either way.
	if _, err := s.repo.MarkNotified(ctx, rel.ID, s.now().UTC()); err != nil {
		return err
	}
	return nil
}

func (s *Service) reload(ctx context.Context, id string) (*models.QARelease, error) {
	rel, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if rel == nil {
		return nil, apperr.NotFound("releaseNotFound", "release %s not found", id)
	}
	return rel, nil
}

// signDecision derives the stored e-signature from the signer, the re-entered
// password, and the decision time. The password itself is never persisted.
func signDecision(userID, password string, at time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", userID, password, at.UnixNano())))
	return hex.EncodeToString(sum[:])
}
