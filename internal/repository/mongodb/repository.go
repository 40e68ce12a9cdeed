package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store wraps the MongoDB client for one service's logical database. Each
// service is the sole writer of its own database; nothing here is shared
// across services beyond the cluster connection.
type Store struct {
	client *mongo.Client
	dbName string
}

// NewStore connects to MongoDB and verifies the connection.
func NewStore(ctx context.Context, uri, dbName string) (*Store, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Store{client: client, dbName: dbName}, nil
}

// NewStoreWithClient shares an existing connection under a different database
// name. Used when several services are co-hosted in one process.
func NewStoreWithClient(client *mongo.Client, dbName string) *Store {
	return &Store{client: client, dbName: dbName}
}

// Client exposes the underlying connection for co-hosted store construction.
func (s *Store) Client() *mongo.Client { return s.client }

// Collection returns a handle scoped to this store's database.
func (s *Store) Collection(name string) *mongo.Collection {
	return s.client.Database(s.dbName).Collection(name)
}

// NextSequence atomically increments and returns the named counter, backing
// business-facing document numbers (PO-2026-00042 and friends).
func (s *Store) NextSequence(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc struct {
		Value int64 `bson:"value"`
	}
	err := s.Collection("sequences").FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"value": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", name, err)
	}
	return doc.Value, nil
}

// Close closes the MongoDB connection.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// IsDuplicateKey reports whether err is a unique index violation, which the
// services surface as a Conflict.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// guardedUpdate performs the read-then-conditional-write as a single UpdateOne
// with the expected-status filter folded in, so concurrent transitions on the
// same entity cannot both win. Returns whether the document matched.
func guardedUpdate(ctx context.Context, coll *mongo.Collection, filter, update bson.M) (bool, error) {
	res, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// statusIn builds the optimistic-concurrency filter fragment for a set of
// legal source states.
func statusIn[T ~string](states []T) bson.M {
	vals := make([]string, len(states))
	for i, s := range states {
		vals[i] = string(s)
	}
	return bson.M{"$in": vals}
}
