package warehouse

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
	Insert(ctx context.Context, rec models.PutawayRecord) error
	GetByID(ctx context.Context, id string) (*models.PutawayRecord, error)
	GetByReleaseID(ctx context.Context, releaseID string) (*models.PutawayRecord, error)
	Complete(ctx context.Context, id, location, storedBy string, at time.Time) (bool, error)
}

// Service owns warehouse intake. Release notifications open putaway tasks;
// operators complete them once the material is physically stored.
type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService constructs the warehouse service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// NotifyReleaseRequest is the payload for Warehouse.NotifyRelease.
type NotifyReleaseRequest struct {
	ReleaseID     string  `json:"releaseId" binding:"required"`
	ReleaseNumber string  `json:"releaseNumber" binding:"required"`
	MaterialID    string  `json:"materialId" binding:"required"`
	BatchNumber   string  `json:"batchNumber"`
	Quantity      float64 `json:"quantity" binding:"required,gt=0"`
	Unit          string  `json:"unit"`
}

// NotifyRelease opens a putaway for a released material. Idempotent per
// release id: a repeated notification returns the existing record (created
// false) so the QA retry sweep can resend safely.
func (s *Service) NotifyRelease(ctx context.Context, principal models.Principal, req NotifyReleaseRequest) (*models.PutawayRecord, bool, error) {
	if err := authz.Require(principal, authz.OpWarehouseNotifyRelease); err != nil {
		return nil, false, err
	}

	now := s.now().UTC()
	rec := models.PutawayRecord{
		ID:            uuid.NewString(),
		ReleaseID:     req.ReleaseID,
		ReleaseNumber: req.ReleaseNumber,
		MaterialID:    req.MaterialID,
		BatchNumber:   req.BatchNumber,
		Quantity:      req.Quantity,
		Unit:          req.Unit,
		Status:        models.PutawayPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Insert(ctx, rec); err != nil {
		if mongodb.IsDuplicateKey(err) {
			existing, gerr := s.repo.GetByReleaseID(ctx, req.ReleaseID)
			if gerr != nil {
				return nil, false, apperr.Internal(gerr)
			}
			if existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, apperr.Internal(err)
	}

	s.logger.Info("putaway opened",
		zap.String("putaway_id", rec.ID),
		zap.String("release_id", req.ReleaseID),
		zap.String("material_id", req.MaterialID))
	return &rec, true, nil
}

// GetPutaway loads a putaway record.
func (s *Service) GetPutaway(ctx context.Context, principal models.Principal, id string) (*models.PutawayRecord, error) {
	if err := authz.Require(principal, authz.OpWarehouseGetPutaway); err != nil {
		return nil, err
	}
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if rec == nil {
		return nil, apperr.NotFound("putawayNotFound", "putaway %s not found", id)
	}
	return rec, nil
}

// CompletePutawayRequest is the payload for Warehouse.CompletePutaway.
type CompletePutawayRequest struct {
	Location string `json:"location" binding:"required"`
}

// CompletePutaway records where the material ended up and moves the record
// to Stored.
func (s *Service) CompletePutaway(ctx context.Context, principal models.Principal, id string, req CompletePutawayRequest) (*models.PutawayRecord, error) {
	if err := authz.Require(principal, authz.OpWarehouseCompletePutaway); err != nil {
		return nil, err
	}

	ok, err := s.repo.Complete(ctx, id, req.Location, principal.ID, s.now().UTC())
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		rec, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if rec == nil {
			return nil, apperr.NotFound("putawayNotFound", "putaway %s not found", id)
		}
		return nil, apperr.Conflict("putawayAlreadyStored", "putaway %s is already stored", id)
	}

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if rec == nil {
		return nil, apperr.NotFound("putawayNotFound", "putaway %s not found", id)
	}

	s.logger.Info("putaway completed",
		zap.String("putaway_id", id),
		zap.String("location", req.Location),
		zap.String("stored_by", principal.ID))
	return rec, nil
}
