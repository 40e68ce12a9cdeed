package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tidianeba/qualichain/internal/domain/models"
)

const reportsColl = "daily_reports"

// ReportRepository persists generated daily quality reports.
type ReportRepository struct {
	store *Store
}

// NewReportRepository builds the repository and ensures its indexes.
func NewReportRepository(ctx context.Context, store *Store) (*ReportRepository, error) {
	r := &ReportRepository{store: store}

	_, err := r.coll().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *ReportRepository) coll() *mongo.Collection {
	return r.store.Collection(reportsColl)
}

// Save upserts the report for its date, so a re-run of the job replaces the
// earlier snapshot instead of duplicating it.
func (r *ReportRepository) Save(ctx context.Context, report models.DailyQualityReport) error {
	_, err := r.coll().ReplaceOne(ctx,
		bson.M{"date": report.Date},
		report,
		options.Replace().SetUpsert(true),
	)
	return err
}
