package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tidianeba/qualichain/internal/domain/models"
)

const purchaseOrdersColl = "purchase_orders"

// PurchaseOrderRepository persists purchase orders for the purchase order
// service.
type PurchaseOrderRepository struct {
	store *Store
}

// NewPurchaseOrderRepository builds the repository and ensures its indexes.
func NewPurchaseOrderRepository(ctx context.Context, store *Store) (*PurchaseOrderRepository, error) {
	r := &PurchaseOrderRepository{store: store}

	_, err := r.coll().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "poNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "supplierId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *PurchaseOrderRepository) coll() *mongo.Collection {
	return r.store.Collection(purchaseOrdersColl)
}

// NextNumber reserves the next business-facing PO number.
func (r *PurchaseOrderRepository) NextNumber(ctx context.Context) (int64, error) {
	return r.store.NextSequence(ctx, "po_number")
}

// Insert stores a new purchase order. A duplicate poNumber surfaces as a
// duplicate key error.
func (r *PurchaseOrderRepository) Insert(ctx context.Context, po models.PurchaseOrder) error {
	_, err := r.coll().InsertOne(ctx, po)
	return err
}

// GetByID loads a purchase order, returning (nil, nil) when absent.
func (r *PurchaseOrderRepository) GetByID(ctx context.Context, id string) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := r.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&po)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// TransitionStatus moves the order from one of the legal source states to the
// target state in a single guarded write. Returns false when the order was
// not in any of the expected states (or does not exist).
func (r *PurchaseOrderRepository) TransitionStatus(ctx context.Context, id string, from []models.POStatus, to models.POStatus, at time.Time) (bool, error) {
	return guardedUpdate(ctx, r.coll(),
		bson.M{"_id": id, "status": statusIn(from)},
		bson.M{"$set": bson.M{"status": to, "updatedAt": at}},
	)
}
