package warehouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tidianeba/qualichain/internal/domain/apperr"
	"github.com/tidianeba/qualichain/internal/domain/models"
)

type fakeRepo struct {
	records   map[string]*models.PutawayRecord
	byRelease map[string]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[string]*models.PutawayRecord), byRelease: make(map[string]string)}
}

func (f *fakeRepo) Insert(_ context.Context, rec models.PutawayRecord) error {
	if _, taken := f.byRelease[rec.ReleaseID]; taken {
		// The releaseId unique index rejects the second insert.
		return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	}
	f.records[rec.ID] = &rec
	f.byRelease[rec.ReleaseID] = rec.ID
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*models.PutawayRecord, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, nil
	}
	clone := *rec
	return &clone, nil
}

func (f *fakeRepo) GetByReleaseID(_ context.Context, releaseID string) (*models.PutawayRecord, error) {
	id, ok := f.byRelease[releaseID]
	if !ok {
		return nil, nil
	}
	clone := *f.records[id]
	return &clone, nil
}

func (f *fakeRepo) Complete(_ context.Context, id, location, storedBy string, at time.Time) (bool, error) {
	rec, ok := f.records[id]
	if !ok || rec.Status != models.PutawayPending {
		return false, nil
	}
	rec.Status = models.PutawayStored
	rec.Location = location
	rec.StoredBy = storedBy
	rec.StoredAt = &at
	rec.UpdatedAt = at
	return true, nil
}

var testNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func newTestService(repo *fakeRepo) *Service {
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return testNow }
	return svc
}

func operator() models.Principal {
	return models.Principal{ID: "u-wh", Roles: []string{models.RoleWarehouseOperator}}
}

func system() models.Principal {
	return models.Principal{ID: "system", Roles: []string{models.RoleAdmin}}
}

func validNotify() NotifyReleaseRequest {
	return NotifyReleaseRequest{
		ReleaseID:     "rel-1",
		ReleaseNumber: "REL-2026-00001",
		MaterialID:    "mat-1",
		BatchNumber:   "B-77",
		Quantity:      5,
		Unit:          "g",
	}
}

func TestNotifyReleaseOpensPutaway(t *testing.T) {
	svc := newTestService(newFakeRepo())

	rec, created, err := svc.NotifyRelease(context.Background(), system(), validNotify())
	require.NoError(t, err)

	assert.True(t, created)
	assert.Equal(t, models.PutawayPending, rec.Status)
	assert.Equal(t, "rel-1", rec.ReleaseID)
	assert.NotEmpty(t, rec.ID)
}

func TestNotifyReleaseIsIdempotent(t *testing.T) {
	svc := newTestService(newFakeRepo())
	ctx := context.Background()

	first, created, err := svc.NotifyRelease(ctx, system(), validNotify())
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := svc.NotifyRelease(ctx, system(), validNotify())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestCompletePutaway(t *testing.T) {
	svc := newTestService(newFakeRepo())
	ctx := context.Background()

	rec, _, err := svc.NotifyRelease(ctx, system(), validNotify())
	require.NoError(t, err)

	stored, err := svc.CompletePutaway(ctx, operator(), rec.ID, CompletePutawayRequest{Location: "WH1-A-03"})
	require.NoError(t, err)

	assert.Equal(t, models.PutawayStored, stored.Status)
	assert.Equal(t, "WH1-A-03", stored.Location)
	assert.Equal(t, "u-wh", stored.StoredBy)
	require.NotNil(t, stored.StoredAt)
	assert.Equal(t, testNow, *stored.StoredAt)
}

func TestCompletePutawayRepeatConflicts(t *testing.T) {
	svc := newTestService(newFakeRepo())
	ctx := context.Background()

	rec, _, err := svc.NotifyRelease(ctx, system(), validNotify())
	require.NoError(t, err)
	_, err = svc.CompletePutaway(ctx, operator(), rec.ID, CompletePutawayRequest{Location: "WH1-A-03"})
	require.NoError(t, err)

	_, err = svc.CompletePutaway(ctx, operator(), rec.ID, CompletePutawayRequest{Location: "WH1-B-01"})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.True(t, apperr.IsReason(err, "putawayAlreadyStored"))
}

func TestCompletePutawayMissing(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.CompletePutaway(context.Background(), operator(), "missing", CompletePutawayRequest{Location: "WH1-A-03"})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestCompletePutawayRequiresOperatorRole(t *testing.T) {
	svc := newTestService(newFakeRepo())

	analyst := models.Principal{ID: "u-an", Roles: []string{models.RoleQCAnalyst}}
	_, err := svc.CompletePutaway(context.Background(), analyst, "put-1", CompletePutawayRequest{Location: "WH1-A-03"})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}
