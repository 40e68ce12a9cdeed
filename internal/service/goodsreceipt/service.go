package goodsreceipt

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
	"github.com/tidianeba/qualichain/internal/service/purchaseorder"
	poclient "github.com/tidianeba/qualichain/pkg/clients/purchaseorder"
)

// Repository defines the persistence operations the service needs.
type Repository interface {
	NextNumber(ctx context.Context) (int64, error)
	Insert(ctx context.Context, grn models.GoodsReceipt) error
	GetByID(ctx context.Context, id string) (*models.GoodsReceipt, error)
	TransitionStatus(ctx context.Context, id string, from []models.GRNStatus, to models.GRNStatus, at time.Time) (bool, error)
	SoftDelete(ctx context.Context, id string, at time.Time) (bool, error)
}

// Service owns the goods receipt state machine: Draft -> Verified ->
// Completed, with verification advancing the referenced purchase order in
// the owning service.
type Service struct {
	repo   Repository
	po     poclient.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewService constructs the goods receipt service.
func NewService(repo Repository, po poclient.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, po: po, logger: logger, now: time.Now}
}

// CreateItemRequest is one received line in a create request.
type CreateItemRequest struct {
	POItemID         string     `json:"poItemId" binding:"required"`
	ReceivedQuantity float64    `json:"receivedQuantity"`
	AcceptedQuantity float64    `json:"acceptedQuantity"`
	RejectedQuantity float64    `json:"rejectedQuantity"`
	BatchNumber      string     `json:"batchNumber"`
	ExpiryDate       *time.Time `json:"expiryDate"`
}

// CreateRequest is the payload for GoodsReceipt.Create.
type CreateRequest struct {
	PurchaseOrderID string              `json:"purchaseOrderId" binding:"required"`
	ReceivedDate    time.Time           `json:"receivedDate" binding:"required"`
	Remarks         string              `json:"remarks"`
	Items           []CreateItemRequest `json:"items" binding:"required,min=1"`
}

// Create validates the received lines against the purchase order and stores
// a Draft receipt. The order lives in another service, so the reference is
// checked by an existence call, not a constraint.
func (s *Service) Create(ctx context.Context, principal models.Principal, req CreateRequest) (*models.GoodsReceipt, error) {
	if err := authz.Require(principal, authz.OpGoodsReceiptCreate); err != nil {
		return nil, err
	}

	po, err := s.po.GetByID(ctx, req.PurchaseOrderID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.NotFound("purchaseOrderNotFound", "purchase order %s not found", req.PurchaseOrderID)
		}
		return nil, apperr.DependencyFailure("purchaseOrderLookupFailed", err, "could not resolve purchase order %s", req.PurchaseOrderID)
	}
	if po.Status != models.POApproved {
		return nil, apperr.Conflict("purchaseOrderNotApproved", "purchase order %s is %s, receipts need an approved order", po.ID, po.Status)
	}

	items := make([]models.GoodsReceiptItem, 0, len(req.Items))
	for i, it := range req.Items {
		poItem := po.Item(it.POItemID)
		if poItem == nil {
			return nil, apperr.BadRequest("purchaseOrderItemUnknown", "item %d: purchase order has no item %s", i, it.POItemID)
		}
		if it.ReceivedQuantity < 0 || it.AcceptedQuantity < 0 || it.RejectedQuantity < 0 {
			return nil, apperr.BadRequest("goodsReceiptQuantityNegative", "item %d: quantities must not be negative", i)
		}
		if it.AcceptedQuantity+it.RejectedQuantity > it.ReceivedQuantity {
			return nil, apperr.BadRequest("goodsReceiptQuantityInvariant", "item %d: accepted+rejected exceeds received", i)
		}
		if it.ReceivedQuantity > poItem.Quantity {
			return nil, apperr.BadRequest("goodsReceiptOverReceived", "item %d: received %.2f exceeds ordered %.2f", i, it.ReceivedQuantity, poItem.Quantity)
		}
		items = append(items, models.GoodsReceiptItem{
			ID:               uuid.NewString(),
			POItemID:         it.POItemID,
			ReceivedQuantity: it.ReceivedQuantity,
			AcceptedQuantity: it.AcceptedQuantity,
			RejectedQuantity: it.RejectedQuantity,
			BatchNumber:      it.BatchNumber,
			ExpiryDate:       it.ExpiryDate,
		})
	}

	seq, err := s.repo.NextNumber(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := s.now().UTC()
	grn := models.GoodsReceipt{
		ID:              uuid.NewString(),
		GRNNumber:       fmt.Sprintf("GRN-%d-%05d", now.Year(), seq),
		PurchaseOrderID: po.ID,
		ReceivedDate:    req.ReceivedDate,
		Status:          models.GRNDraft,
		Remarks:         req.Remarks,
		Items:           items,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Insert(ctx, grn); err != nil {
		if mongodb.IsDuplicateKey(err) {
			return nil, apperr.Conflict("goodsReceiptNumberTaken", "goods receipt number %s already exists", grn.GRNNumber)
		}
		return nil, apperr.Internal(err)
	}

	s.logger.Info("goods receipt created",
		zap.String("grn_id", grn.ID),
		zap.String("grn_number", grn.GRNNumber),
		zap.String("po_id", po.ID))
	return &grn, nil
}

// GetByID loads a goods receipt.
func (s *Service) GetByID(ctx context.Context, principal models.Principal, id string) (*models.GoodsReceipt, error) {
	if err := authz.Require(principal, authz.OpGoodsReceiptGet); err != nil {
		return nil, err
	}
	grn, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if grn == nil {
		return nil, apperr.NotFound("goodsReceiptNotFound", "goods receipt %s not found", id)
	}
	return grn, nil
}

// Verify moves a Draft receipt to Verified and advances the purchase order
// to Received. The local transition commits first; a downstream failure is
// surfaced as a partial success and never rolled back — the caller retries
// the order advance, which is idempotent on the other side.
func (s *Service) Verify(ctx context.Context, principal models.Principal, id string) (*models.GoodsReceipt, error) {
	if err := authz.Require(principal, authz.OpGoodsReceiptVerify); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	ok, err := s.repo.TransitionStatus(ctx, id, []models.GRNStatus{models.GRNDraft}, models.GRNVerified, now)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		grn, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if grn == nil {
			return nil, apperr.NotFound("goodsReceiptNotFound", "goods receipt %s not found", id)
		}
		return nil, apperr.Conflict("goodsReceiptAlreadyVerified", "goods receipt %s is already %s", id, grn.Status)
	}

	grn, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if grn == nil {
		return nil, apperr.NotFound("goodsReceiptNotFound", "goods receipt %s not found", id)
	}

	if err := s.po.Receive(ctx, grn.PurchaseOrderID); err != nil {
		if apperr.IsReason(err, purchaseorder.ReasonAlreadyReceived) {
			// A previous attempt already advanced the order; nothing to redo.
			s.logger.Info("purchase order already received",
				zap.String("grn_id", id),
				zap.String("po_id", grn.PurchaseOrderID))
			return grn, nil
		}
		s.logger.Error("purchase order advance failed after verification",
			zap.String("grn_id", id),
			zap.String("po_id", grn.PurchaseOrderID),
			zap.Error(err))
		return grn, apperr.DependencyFailure("purchaseOrderAdvanceFailed", err,
			"goods receipt %s is verified but purchase order %s did not advance; retry PurchaseOrder.Receive", id, grn.PurchaseOrderID)
	}

	s.logger.Info("goods receipt verified",
		zap.String("grn_id", id),
		zap.String("po_id", grn.PurchaseOrderID))
	return grn, nil
}

// Complete is the terminal transition, only reachable from Verified.
func (s *Service) Complete(ctx context.Context, principal models.Principal, id string) error {
	if err := authz.Require(principal, authz.OpGoodsReceiptComplete); err != nil {
		return err
	}

	now := s.now().UTC()
	ok, err := s.repo.TransitionStatus(ctx, id, []models.GRNStatus{models.GRNVerified}, models.GRNCompleted, now)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		grn, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return apperr.Internal(err)
		}
		if grn == nil {
			return apperr.NotFound("goodsReceiptNotFound", "goods receipt %s not found", id)
		}
		return apperr.Conflict("goodsReceiptNotVerified", "goods receipt %s is %s, only Verified receipts complete", id, grn.Status)
	}
	return nil
}

// Delete soft-deletes a Draft receipt, preserving it for audit.
func (s *Service) Delete(ctx context.Context, principal models.Principal, id string) error {
	if err := authz.Require(principal, authz.OpGoodsReceiptDelete); err != nil {
		return err
	}

	ok, err := s.repo.SoftDelete(ctx, id, s.now().UTC())
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		grn, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return apperr.Internal(err)
		}
		if grn == nil {
			return apperr.NotFound("goodsReceiptNotFound", "goods receipt %s not found", id)
		}
		return apperr.Conflict("goodsReceiptNotDraft", "goods receipt %s is %s, only Draft receipts can be deleted", id, grn.Status)
	}
	return nil
}
