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

const qcResultsColl = "qc_results"

// QCResultRepository persists individual test outcomes.
type QCResultRepository struct {
	store *Store
}

// NewQCResultRepository builds the repository and ensures its indexes.
func NewQCResultRepository(ctx context.Context, store *Store) (*QCResultRepository, error) {
	r := &QCResultRepository{store: store}

	_, err := r.coll().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sampleId", Value: 1}}},
		{Keys: bson.D{{Key: "testId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *QCResultRepository) coll() *mongo.Collection {
	return r.store.Collection(qcResultsColl)
}

// Insert stores a new result.
func (r *QCResultRepository) Insert(ctx context.Context, result models.QCResult) error {
	_, err := r.coll().InsertOne(ctx, result)
	return err
}

// GetByID loads a result, returning (nil, nil) when absent.
func (r *QCResultRepository) GetByID(ctx context.Context, id string) (*models.QCResult, error) {
	var result models.QCResult
	err := r.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetBySample returns all results recorded against a sample.
func (r *QCResultRepository) GetBySample(ctx context.Context, sampleID string) ([]models.QCResult, error) {
	cur, err := r.coll().Find(ctx, bson.M{"sampleId": sampleID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var results []models.QCResult
	if err := cur.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// MarkInProgress moves a Pending result to InProgress.
func (r *QCResultRepository) MarkInProgress(ctx context.Context, id string, at time.Time) (bool, error) {
	return guardedUpdate(ctx, r.coll(),
		bson.M{"_id": id, "status": string(models.ResultPending)},
		bson.M{"$set": bson.M{"status": models.ResultInProgress, "updatedAt": at}},
	)
}

// ResultFinalization carries the fields written when a result value is
// entered and evaluated.
type ResultFinalization struct {
	ResultValue      string
	Unit             string
	Passed           bool
	PassedOverridden bool
	Status           models.ResultStatus
	PerformedBy      string
	PerformedAt      time.Time
}

// Finalize records the entered value and evaluated outcome on a result that
// is still Pending or InProgress.
func (r *QCResultRepository) Finalize(ctx context.Context, id string, fin ResultFinalization) (bool, error) {
	return guardedUpdate(ctx, r.coll(),
		bson.M{"_id": id, "status": statusIn([]models.ResultStatus{models.ResultPending, models.ResultInProgress})},
		bson.M{"$set": bson.M{
			"resultValue":      fin.ResultValue,
			"unit":             fin.Unit,
			"passed":           fin.Passed,
			"passedOverridden": fin.PassedOverridden,
			"status":           fin.Status,
			"performedBy":      fin.PerformedBy,
			"performedAt":      fin.PerformedAt,
			"updatedAt":        fin.PerformedAt,
		}},
	)
}

// MarkSubmitted flips the one-shot submittedToQA flag on a Completed result.
// The guard excludes already-submitted results so a retry cannot re-stamp
// submittedAt.
func (r *QCResultRepository) MarkSubmitted(ctx context.Context, id string, at time.Time) (bool, error) {
	return guardedUpdate(ctx, r.coll(),
		bson.M{"_id": id, "status": string(models.ResultCompleted), "submittedToQA": false},
		bson.M{"$set": bson.M{"submittedToQA": true, "submittedAt": at, "updatedAt": at}},
	)
}

// CountRecordedBetween counts results finalized in the window.
func (r *QCResultRepository) CountRecordedBetween(ctx context.Context, start, end time.Time) (int64, error) {
	return r.coll().CountDocuments(ctx, bson.M{
		"status":      bson.M{"$in": []string{string(models.ResultCompleted), string(models.ResultFailed)}},
		"performedAt": bson.M{"$gte": start, "$lt": end},
	})
}

// CountFailedBetween counts out-of-specification results in the window.
func (r *QCResultRepository) CountFailedBetween(ctx context.Context, start, end time.Time) (int64, error) {
	return r.coll().CountDocuments(ctx, bson.M{
		"status":      string(models.ResultFailed),
		"performedAt": bson.M{"$gte": start, "$lt": end},
	})
}
