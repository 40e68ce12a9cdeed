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

const qcSamplesColl = "qc_samples"

// QCSampleRepository persists QC samples. Every status write carries the
// expected-status guard so the monotonic pipeline cannot be raced backwards.
type QCSampleRepository struct {
	store *Store
}

// NewQCSampleRepository builds the repository and ensures its indexes.
func NewQCSampleRepository(ctx context.Context, store *Store) (*QCSampleRepository, error) {
	r := &QCSampleRepository{store: store}

	_, err := r.coll().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sampleNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "source.id", Value: 1}}},
		{Keys: bson.D{{Key: "goodsReceiptItemId", Value: 1}}},
		{Keys: bson.D{{Key: "materialId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *QCSampleRepository) coll() *mongo.Collection {
	return r.store.Collection(qcSamplesColl)
}

// NextNumber reserves the next business-facing sample number.
func (r *QCSampleRepository) NextNumber(ctx context.Context) (int64, error) {
	return r.store.NextSequence(ctx, "sample_number")
}

// Insert stores a new sample.
func (r *QCSampleRepository) Insert(ctx context.Context, sample models.QCSample) error {
	_, err := r.coll().InsertOne(ctx, sample)
	return err
}

// GetByID loads a sample, returning (nil, nil) when absent.
func (r *QCSampleRepository) GetByID(ctx context.Context, id string) (*models.QCSample, error) {
	var sample models.QCSample
	err := r.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&sample)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sample, nil
}

// Advance moves the sample to a later pipeline state from one of the legal
// source states.
func (r *QCSampleRepository) Advance(ctx context.Context, id string, from []models.SampleStatus, to models.SampleStatus, at time.Time) (bool, error) {
	return guardedUpdate(ctx, r.coll(),
		bson.M{"_id": id, "status": statusIn(from)},
		bson.M{"$set": bson.M{"status": to, "updatedAt": at}},
	)
}

// AssignAnalyst records the analyst and advances the sample to TestsAssigned.
func (r *QCSampleRepository) AssignAnalyst(ctx context.Context, id string, from []models.SampleStatus, analyst string, at time.Time) (bool, error) {
	return guardedUpdate(ctx, r.coll(),
		bson.M{"_id": id, "status": statusIn(from)},
		bson.M{"$set": bson.M{
			"status":     models.SampleTestsAssigned,
			"assignedTo": analyst,
			"updatedAt":  at,
		}},
	)
}

// AssignTests records the planned test ids and advances the sample to
// TestsAssigned.
func (r *QCSampleRepository) AssignTests(ctx context.Context, id string, from []models.SampleStatus, testIDs []string, at time.Time) (bool, error) {
	return guardedUpdate(ctx, r.coll(),
		bson.M{"_id": id, "status": statusIn(from)},
		bson.M{"$set": bson.M{
			"status":    models.SampleTestsAssigned,
			"testIds":   testIDs,
			"updatedAt": at,
		}},
	)
}

// CountCreatedBetween counts samples created in the window.
func (r *QCSampleRepository) CountCreatedBetween(ctx context.Context, start, end time.Time) (int64, error) {
	return r.coll().CountDocuments(ctx, bson.M{"createdAt": bson.M{"$gte": start, "$lt": end}})
}

// CountCompletedBetween counts samples that reached QCComplete in the window.
func (r *QCSampleRepository) CountCompletedBetween(ctx context.Context, start, end time.Time) (int64, error) {
	return r.coll().CountDocuments(ctx, bson.M{
		"status":    string(models.SampleQCComplete),
		"updatedAt": bson.M{"$gte": start, "$lt": end},
	})
}
