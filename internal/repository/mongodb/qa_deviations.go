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

const qaDeviationsColl = "qa_deviations"

// QADeviationRepository persists nonconformance records.
type QADeviationRepository struct {
	store *Store
}

// NewQADeviationRepository builds the repository and ensures its indexes.
func NewQADeviationRepository(ctx context.Context, store *Store) (*QADeviationRepository, error) {
	r := &QADeviationRepository{store: store}

	_, err := r.coll().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "deviationNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "source.id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *QADeviationRepository) coll() *mongo.Collection {
	return r.store.Collection(qaDeviationsColl)
}

// NextNumber reserves the next business-facing deviation number.
func (r *QADeviationRepository) NextNumber(ctx context.Context) (int64, error) {
	return r.store.NextSequence(ctx, "deviation_number")
}

// Insert stores a new deviation.
func (r *QADeviationRepository) Insert(ctx context.Context, dev models.QADeviation) error {
	_, err := r.coll().InsertOne(ctx, dev)
	return err
}

// GetByID loads a deviation, returning (nil, nil) when absent.
func (r *QADeviationRepository) GetByID(ctx context.Context, id string) (*models.QADeviation, error) {
	var dev models.QADeviation
	err := r.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&dev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &dev, nil
}

// Assign records the investigator and moves an Open deviation to
// Investigating.
func (r *QADeviationRepository) Assign(ctx context.Context, id, assignee string, at time.Time) (bool, error) {
	return guardedUpdate(ctx, r.coll(),
		bson.M{"_id": id, "status": string(models.DeviationOpen)},
		bson.M{"$set": bson.M{
			"status":     models.DeviationInvestigating,
			"assignedTo": assignee,
			"updatedAt":  at,
		}},
	)
}

// Resolution carries the investigation outcome recorded on resolve.
type Resolution struct {
	RootCause        string
	CorrectiveAction string
	PreventiveAction string
}

// Resolve records the investigation outcome and moves the deviation from
// Investigating to Resolved.
func (r *QADeviationRepository) Resolve(ctx context.Context, id string, res Resolution, at time.Time) (bool, error) {
	return guardedUpdate(ctx, r.coll(),
		bson.M{"_id": id, "status": string(models.DeviationInvestigating)},
		bson.M{"$set": bson.M{
			"status":           models.DeviationResolved,
			"rootCause":        res.RootCause,
			"correctiveAction": res.CorrectiveAction,
			"preventiveAction": res.PreventiveAction,
			"updatedAt":        at,
		}},
	)
}

// Close stamps closedAt on a Resolved deviation.
func (r *QADeviationRepository) Close(ctx context.Context, id string, at time.Time) (bool, error) {
	return guardedUpdate(ctx, r.coll(),
		bson.M{"_id": id, "status": string(models.DeviationResolved)},
		bson.M{"$set": bson.M{
			"status":    models.DeviationClosed,
			"closedAt":  at,
			"updatedAt": at,
		}},
	)
}

// CountOpen counts deviations still under investigation.
func (r *QADeviationRepository) CountOpen(ctx context.Context) (int64, error) {
	return r.coll().CountDocuments(ctx, bson.M{
		"status": bson.M{"$in": []string{string(models.DeviationOpen), string(models.DeviationInvestigating)}},
	})
}
