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

const qcTestsColl = "qc_tests"

// QCTestRepository persists the test method registry.
type QCTestRepository struct {
	store *Store
}

// NewQCTestRepository builds the repository and ensures its indexes. The code
// index is sparse so tests without a code do not collide.
func NewQCTestRepository(ctx context.Context, store *Store) (*QCTestRepository, error) {
	r := &QCTestRepository{store: store}

	_, err := r.coll().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *QCTestRepository) coll() *mongo.Collection {
	return r.store.Collection(qcTestsColl)
}

// Insert stores a new test method.
func (r *QCTestRepository) Insert(ctx context.Context, test models.QCTest) error {
	_, err := r.coll().InsertOne(ctx, test)
	return err
}

// GetByID loads a test method, returning (nil, nil) when absent.
func (r *QCTestRepository) GetByID(ctx context.Context, id string) (*models.QCTest, error) {
	var test models.QCTest
	err := r.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&test)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &test, nil
}

// List returns test methods, optionally filtered by status.
func (r *QCTestRepository) List(ctx context.Context, status models.QCTestStatus) ([]models.QCTest, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = string(status)
	}

	cur, err := r.coll().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var tests []models.QCTest
	if err := cur.All(ctx, &tests); err != nil {
		return nil, err
	}
	return tests, nil
}

// TransitionStatus flips a test between Active and Inactive with the guard.
func (r *QCTestRepository) TransitionStatus(ctx context.Context, id string, from []models.QCTestStatus, to models.QCTestStatus, at time.Time) (bool, error) {
	return guardedUpdate(ctx, r.coll(),
		bson.M{"_id": id, "status": statusIn(from)},
		bson.M{"$set": bson.M{"status": to, "updatedAt": at}},
	)
}
