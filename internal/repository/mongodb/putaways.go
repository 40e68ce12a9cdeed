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

const putawaysColl = "putaways"

// PutawayRepository persists warehouse intake records. The unique index on
// releaseId makes NotifyRelease naturally idempotent: a second notification
// for the same release hits the index instead of creating a double intake.
type PutawayRepository struct {
	store *Store
}

// NewPutawayRepository builds the repository and ensures its indexes.
func NewPutawayRepository(ctx context.Context, store *Store) (*PutawayRepository, error) {
	r := &PutawayRepository{store: store}

	_, err := r.coll().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "releaseId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "materialId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *PutawayRepository) coll() *mongo.Collection {
	return r.store.Collection(putawaysColl)
}

// Insert stores a new putaway record.
func (r *PutawayRepository) Insert(ctx context.Context, rec models.PutawayRecord) error {
	_, err := r.coll().InsertOne(ctx, rec)
	return err
}

// GetByID loads a putaway record, returning (nil, nil) when absent.
func (r *PutawayRepository) GetByID(ctx context.Context, id string) (*models.PutawayRecord, error) {
	var rec models.PutawayRecord
	err := r.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetByReleaseID loads the putaway created for a release, returning
// (nil, nil) when absent.
func (r *PutawayRepository) GetByReleaseID(ctx context.Context, releaseID string) (*models.PutawayRecord, error) {
	var rec models.PutawayRecord
	err := r.coll().FindOne(ctx, bson.M{"releaseId": releaseID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Complete moves a pending putaway to Stored, recording who stored it where.
func (r *PutawayRepository) Complete(ctx context.Context, id, location, storedBy string, at time.Time) (bool, error) {
	return guardedUpdate(ctx, r.coll(),
		bson.M{"_id": id, "status": string(models.PutawayPending)},
		bson.M{"$set": bson.M{
			"status":    models.PutawayStored,
			"location":  location,
			"storedBy":  storedBy,
			"storedAt":  at,
			"updatedAt": at,
		}},
	)
}
