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

const goodsReceiptsColl = "goods_receipts"

// GoodsReceiptRepository persists goods receipt notes. Soft-deleted documents
// stay in the collection but are excluded from every read.
type GoodsReceiptRepository struct {
	store *Store
}

// NewGoodsReceiptRepository builds the repository and ensures its indexes.
func NewGoodsReceiptRepository(ctx context.Context, store *Store) (*GoodsReceiptRepository, error) {
	r := &GoodsReceiptRepository{store: store}

	_, err := r.coll().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "grnNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "purchaseOrderId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *GoodsReceiptRepository) coll() *mongo.Collection {
	return r.store.Collection(goodsReceiptsColl)
}

func notDeleted(filter bson.M) bson.M {
	filter["deletedAt"] = bson.M{"$exists": false}
	return filter
}

// NextNumber reserves the next business-facing GRN number.
func (r *GoodsReceiptRepository) NextNumber(ctx context.Context) (int64, error) {
	return r.store.NextSequence(ctx, "grn_number")
}

// Insert stores a new goods receipt.
func (r *GoodsReceiptRepository) Insert(ctx context.Context, grn models.GoodsReceipt) error {
	_, err := r.coll().InsertOne(ctx, grn)
	return err
}

// GetByID loads a goods receipt, returning (nil, nil) when absent or
// soft-deleted.
func (r *GoodsReceiptRepository) GetByID(ctx context.Context, id string) (*models.GoodsReceipt, error) {
	var grn models.GoodsReceipt
	err := r.coll().FindOne(ctx, notDeleted(bson.M{"_id": id})).Decode(&grn)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &grn, nil
}

// TransitionStatus moves the receipt between states with the expected-status
// guard folded into the write.
func (r *GoodsReceiptRepository) TransitionStatus(ctx context.Context, id string, from []models.GRNStatus, to models.GRNStatus, at time.Time) (bool, error) {
	return guardedUpdate(ctx, r.coll(),
		notDeleted(bson.M{"_id": id, "status": statusIn(from)}),
		bson.M{"$set": bson.M{"status": to, "updatedAt": at}},
	)
}

// SoftDelete marks a Draft receipt deleted, preserving it for audit. Returns
// false when the receipt is not Draft or already gone.
func (r *GoodsReceiptRepository) SoftDelete(ctx context.Context, id string, at time.Time) (bool, error) {
	return guardedUpdate(ctx, r.coll(),
		notDeleted(bson.M{"_id": id, "status": string(models.GRNDraft)}),
		bson.M{"$set": bson.M{"deletedAt": at, "updatedAt": at}},
	)
}

// CountVerifiedBetween counts receipts that moved to Verified in the window,
// for the daily quality report.
func (r *GoodsReceiptRepository) CountVerifiedBetween(ctx context.Context, start, end time.Time) (int64, error) {
	return r.coll().CountDocuments(ctx, notDeleted(bson.M{
		"status":    bson.M{"$in": []string{string(models.GRNVerified), string(models.GRNCompleted)}},
		"updatedAt": bson.M{"$gte": start, "$lt": end},
	}))
}
