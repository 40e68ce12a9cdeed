package purchaseorder

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
	Insert(ctx context.Context, po models.PurchaseOrder) error
	GetByID(ctx context.Context, id string) (*models.PurchaseOrder, error)
	TransitionStatus(ctx context.Context, id string, from []models.POStatus, to models.POStatus, at time.Time) (bool, error)
}

// Service owns the purchase order state machine:
// Draft -> Pending -> Approved -> Received | Cancelled.
type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService constructs the purchase order service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// CreateItemRequest is one ordered line in a create request.
type CreateItemRequest struct {
	MaterialID string  `json:"materialId" binding:"required"`
	Quantity   float64 `json:"quantity" binding:"required"`
	UnitPrice  float64 `json:"unitPrice"`
}

// CreateRequest is the payload for PurchaseOrder.Create.
type CreateRequest struct {
	SupplierID   string              `json:"supplierId" binding:"required"`
	SiteID       string              `json:"siteId"`
	ExpectedDate time.Time           `json:"expectedDate" binding:"required"`
	Items        []CreateItemRequest `json:"items" binding:"required,min=1"`
}

// Create validates the ordered lines and stores a Draft purchase order.
func (s *Service) Create(ctx context.Context, principal models.Principal, req CreateRequest) (*models.PurchaseOrder, error) {
	if err := authz.Require(principal, authz.OpPurchaseOrderCreate); err != nil {
		return nil, err
	}

	items := make([]models.PurchaseOrderItem, 0, len(req.Items))
	total := 0.0
	for i, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, apperr.BadRequest("purchaseOrderItemQuantityInvalid", "item %d: quantity must be positive", i)
		}
		if it.UnitPrice < 0 {
			return nil, apperr.BadRequest("purchaseOrderItemPriceInvalid", "item %d: unit price must not be negative", i)
		}
		line := models.PurchaseOrderItem{
			ID:         uuid.NewString(),
			MaterialID: it.MaterialID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.Quantity * it.UnitPrice,
		}
		total += line.TotalPrice
		items = append(items, line)
	}

	seq, err := s.repo.NextNumber(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := s.now().UTC()
	po := models.PurchaseOrder{
		ID:           uuid.NewString(),
		PONumber:     fmt.Sprintf("PO-%d-%05d", now.Year(), seq),
		SupplierID:   req.SupplierID,
		SiteID:       req.SiteID,
		ExpectedDate: req.ExpectedDate,
		Status:       models.PODraft,
		TotalAmount:  total,
		Items:        items,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, po); err != nil {
		if mongodb.IsDuplicateKey(err) {
			return nil, apperr.Conflict("purchaseOrderNumberTaken", "purchase order number %s already exists", po.PONumber)
		}
		return nil, apperr.Internal(err)
	}

	s.logger.Info("purchase order created",
		zap.String("po_id", po.ID),
		zap.String("po_number", po.PONumber),
		zap.Int("items", len(po.Items)))
	return &po, nil
}

// GetByID loads a purchase order.
func (s *Service) GetByID(ctx context.Context, principal models.Principal, id string) (*models.PurchaseOrder, error) {
	if err := authz.Require(principal, authz.OpPurchaseOrderGet); err != nil {
		return nil, err
	}
	po, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if po == nil {
		return nil, apperr.NotFound("purchaseOrderNotFound", "purchase order %s not found", id)
	}
	return po, nil
}

// Submit moves a Draft order to Pending.
func (s *Service) Submit(ctx context.Context, principal models.Principal, id string) error {
	if err := authz.Require(principal, authz.OpPurchaseOrderSubmit); err != nil {
		return err
	}
	return s.transition(ctx, id, []models.POStatus{models.PODraft}, models.POPending)
}

// Approve moves a Pending order to Approved.
func (s *Service) Approve(ctx context.Context, principal models.Principal, id string) error {
	if err := authz.Require(principal, authz.OpPurchaseOrderApprove); err != nil {
		return err
	}
	return s.transition(ctx, id, []models.POStatus{models.POPending}, models.POApproved)
}

// Cancel terminates an order that has not been received.
func (s *Service) Cancel(ctx context.Context, principal models.Principal, id string) error {
	if err := authz.Require(principal, authz.OpPurchaseOrderCancel); err != nil {
		return err
	}
	return s.transition(ctx, id,
		[]models.POStatus{models.PODraft, models.POPending, models.POApproved},
		models.POCancelled)
}

// Receive marks an Approved order Received. Invoked by the goods receipt
// service when a GRN against this order is verified; re-invocation on an
// already-Received order reports Conflict with a reason the caller treats as
// a no-op success.
func (s *Service) Receive(ctx context.Context, principal models.Principal, id string) error {
	if err := authz.Require(principal, authz.OpPurchaseOrderReceive); err != nil {
		return err
	}
	return s.transition(ctx, id, []models.POStatus{models.POApproved}, models.POReceived)
}

// ReasonAlreadyReceived is the Conflict reason emitted when Receive hits an
// already-Received order. Callers whitelist it on retries.
const ReasonAlreadyReceived = "purchaseOrderAlreadyReceived"

func (s *Service) transition(ctx context.Context, id string, from []models.POStatus, to models.POStatus) error {
	now := s.now().UTC()
	ok, err := s.repo.TransitionStatus(ctx, id, from, to, now)
	if err != nil {
		return apperr.Internal(err)
	}
	if ok {
		s.logger.Info("purchase order transitioned",
			zap.String("po_id", id),
			zap.String("status", string(to)))
		return nil
	}

	// The guarded write did not match: either the order is gone or it sits in
	// an incompatible status. Re-read to tell the two apart.
	po, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if po == nil {
		return apperr.NotFound("purchaseOrderNotFound", "purchase order %s not found", id)
	}
	if to == models.POReceived && po.Status == models.POReceived {
		return apperr.Conflict(ReasonAlreadyReceived, "purchase order %s is already received", id)
	}
	return apperr.Conflict("purchaseOrderStatusIncompatible", "purchase order %s is %s, cannot move to %s", id, po.Status, to)
}
