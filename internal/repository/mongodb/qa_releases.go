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

const qaReleasesColl = "qa_releases"

// QAReleaseRepository persists release decisions.
type QAReleaseRepository struct {
	store *Store
}

// NewQAReleaseRepository builds the repository and ensures its indexes.
func NewQAReleaseRepository(ctx context.Context, store *Store) (*QAReleaseRepository, error) {
	r := &QAReleaseRepository{store: store}

	_, err := r.coll().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "releaseNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "sampleId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "warehouseNotified", Value: 1}}},
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *QAReleaseRepository) coll() *mongo.Collection {
	return r.store.Collection(qaReleasesColl)
}

// NextNumber reserves the next business-facing release number.
func (r *QAReleaseRepository) NextNumber(ctx context.Context) (int64, error) {
	return r.store.NextSequence(ctx, "release_number")
}

// Insert stores a new release.
func (r *QAReleaseRepository) Insert(ctx context.Context, rel models.QARelease) error {
	_, err := r.coll().InsertOne(ctx, rel)
	return err
}

// GetByID loads a release, returning (nil, nil) when absent.
func (r *QAReleaseRepository) GetByID(ctx context.Context, id string) (*models.QARelease, error) {
	var rel models.QARelease
	err := r.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&rel)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

// UpdateChecklist replaces the checklist and recomputed status while the
// release is still before review.
func (r *QAReleaseRepository) UpdateChecklist(ctx context.Context, id string, from []models.ReleaseStatus, items []models.ChecklistItem, to models.ReleaseStatus, at time.Time) (bool, error) {
	return guardedUpdate(ctx, r.coll(),
		bson.M{"_id": id, "status": statusIn(from)},
		bson.M{"$set": bson.M{
			"checklistItems": items,
			"status":         to,
			"updatedAt":      at,
		}},
	)
}

// DecisionRecord carries the fields written when QA disposes a release.
type DecisionRecord struct {
	Status         models.ReleaseStatus
	Decision       models.ReleaseDecision
	DecisionReason string
	DecidedBy      string
	DecidedAt      time.Time
	ESignature     string
}

// RecordDecision writes the disposition from one of the legal review states.
func (r *QAReleaseRepository) RecordDecision(ctx context.Context, id string, from []models.ReleaseStatus, rec DecisionRecord) (bool, error) {
	return guardedUpdate(ctx, r.coll(),
		bson.M{"_id": id, "status": statusIn(from)},
		bson.M{"$set": bson.M{
			"status":         rec.Status,
			"decision":       rec.Decision,
			"decisionReason": rec.DecisionReason,
			"decidedBy":      rec.DecidedBy,
			"decidedAt":      rec.DecidedAt,
			"eSignature":     rec.ESignature,
			"updatedAt":      rec.DecidedAt,
		}},
	)
}

// MarkNotified records the successful warehouse notification. Guarded on the
// flag so a concurrent retry cannot re-stamp it.
func (r *QAReleaseRepository) MarkNotified(ctx context.Context, id string, at time.Time) (bool, error) {
	return guardedUpdate(ctx, r.coll(),
		bson.M{"_id": id, "status": string(models.ReleaseReleased), "warehouseNotified": false},
		bson.M{"$set": bson.M{
			"warehouseNotified":   true,
			"warehouseNotifiedAt": at,
			"updatedAt":           at,
		}},
	)
}

// ListUnnotified returns Released records whose warehouse notification is
// still outstanding, oldest first, for the retry sweep.
func (r *QAReleaseRepository) ListUnnotified(ctx context.Context, limit int64) ([]models.QARelease, error) {
	cur, err := r.coll().Find(ctx,
		bson.M{"status": string(models.ReleaseReleased), "warehouseNotified": false},
		options.Find().SetSort(bson.D{{Key: "decidedAt", Value: 1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rels []models.QARelease
	if err := cur.All(ctx, &rels); err != nil {
		return nil, err
	}
	return rels, nil
}

// CountUnnotified counts Released records still awaiting their warehouse
// notification.
func (r *QAReleaseRepository) CountUnnotified(ctx context.Context) (int64, error) {
	return r.coll().CountDocuments(ctx, bson.M{
		"status":            string(models.ReleaseReleased),
		"warehouseNotified": false,
	})
}

// CountDecisionsBetween counts dispositions of the given kind in the window.
func (r *QAReleaseRepository) CountDecisionsBetween(ctx context.Context, decision models.ReleaseDecision, start, end time.Time) (int64, error) {
	return r.coll().CountDocuments(ctx, bson.M{
		"decision":  string(decision),
		"decidedAt": bson.M{"$gte": start, "$lt": end},
	})
}
