package qadeviation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidianeba/qualichain/internal/domain/apperr"
	"github.com/tidianeba/qualichain/internal/domain/models"
	"github.com/tidianeba/qualichain/internal/repository/mongodb"
)

type fakeRepo struct {
	deviations map[string]*models.QADeviation
	seq        int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{deviations: make(map[string]*models.QADeviation)}
}

func (f *fakeRepo) NextNumber(context.Context) (int64, error) {
	f.seq++
	return f.seq, nil
}

func (f *fakeRepo) Insert(_ context.Context, dev models.QADeviation) error {
	f.deviations[dev.ID] = &dev
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*models.QADeviation, error) {
	dev, ok := f.deviations[id]
	if !ok {
		return nil, nil
	}
	clone := *dev
	return &clone, nil
}

func (f *fakeRepo) Assign(_ context.Context, id, assignee string, at time.Time) (bool, error) {
	dev, ok := f.deviations[id]
	if !ok || dev.Status != models.DeviationOpen {
		return false, nil
	}
	dev.Status = models.DeviationInvestigating
	dev.AssignedTo = assignee
	dev.UpdatedAt = at
	return true, nil
}

func (f *fakeRepo) Resolve(_ context.Context, id string, res mongodb.Resolution, at time.Time) (bool, error) {
	dev, ok := f.deviations[id]
	if !ok || dev.Status != models.DeviationInvestigating {
		return false, nil
	}
	dev.Status = models.DeviationResolved
	dev.RootCause = res.RootCause
	dev.CorrectiveAction = res.CorrectiveAction
	dev.PreventiveAction = res.PreventiveAction
	dev.UpdatedAt = at
	return true, nil
}

func (f *fakeRepo) Close(_ context.Context, id string, at time.Time) (bool, error) {
	dev, ok := f.deviations[id]
	if !ok || dev.Status != models.DeviationResolved {
		return false, nil
	}
	dev.Status = models.DeviationClosed
	dev.ClosedAt = &at
	dev.UpdatedAt = at
	return true, nil
}

var testNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func newTestService(repo *fakeRepo) *Service {
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return testNow }
	return svc
}

func manager() models.Principal {
	return models.Principal{ID: "u-qa", Roles: []string{models.RoleQAManager}}
}

func validCreate() CreateRequest {
	return CreateRequest{
		Title:       "Out of specification pH",
		Description: "pH 9.1 against 6.5-7.5",
		Severity:    models.SeverityHigh,
		Category:    "OOS",
		SourceType:  models.SourceQCResult,
		SourceID:    "res-1",
	}
}

func TestCreateOpensDeviation(t *testing.T) {
	svc := newTestService(newFakeRepo())

	dev, err := svc.Create(context.Background(), manager(), validCreate())
	require.NoError(t, err)

	assert.Equal(t, "DEV-2026-00001", dev.DeviationNumber)
	assert.Equal(t, models.DeviationOpen, dev.Status)
	assert.Equal(t, models.SourceQCResult, dev.Source.Type)
}

func TestCreateRejectsUnknownSeverity(t *testing.T) {
	svc := newTestService(newFakeRepo())

	req := validCreate()
	req.Severity = models.DeviationSeverity("Catastrophic")
	_, err := svc.Create(context.Background(), manager(), req)
	assert.True(t, apperr.IsReason(err, "deviationSeverityUnknown"))
}

func TestInvestigationLifecycle(t *testing.T) {
	svc := newTestService(newFakeRepo())
	ctx := context.Background()
	p := manager()

	dev, err := svc.Create(ctx, p, validCreate())
	require.NoError(t, err)

	dev, err = svc.Assign(ctx, p, dev.ID, AssignRequest{AssignedTo: "u-inv"})
	require.NoError(t, err)
	assert.Equal(t, models.DeviationInvestigating, dev.Status)
	assert.Equal(t, "u-inv", dev.AssignedTo)

	dev, err = svc.Resolve(ctx, p, dev.ID, ResolveRequest{
		RootCause:        "Calibration drift on pH meter",
		CorrectiveAction: "Recalibrate and retest",
		PreventiveAction: "Weekly calibration check",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DeviationResolved, dev.Status)

	dev, err = svc.Close(ctx, p, dev.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeviationClosed, dev.Status)
	require.NotNil(t, dev.ClosedAt)
	assert.Equal(t, testNow, *dev.ClosedAt)
}

func TestLifecycleOrderEnforced(t *testing.T) {
	svc := newTestService(newFakeRepo())
	ctx := context.Background()
	p := manager()

	dev, err := svc.Create(ctx, p, validCreate())
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, p, dev.ID, ResolveRequest{RootCause: "x", CorrectiveAction: "y"})
	assert.True(t, apperr.IsReason(err, "deviationNotInvestigating"))

	_, err = svc.Close(ctx, p, dev.ID)
	assert.True(t, apperr.IsReason(err, "deviationNotResolved"))

	_, err = svc.Assign(ctx, p, dev.ID, AssignRequest{AssignedTo: "u-inv"})
	require.NoError(t, err)
	_, err = svc.Assign(ctx, p, dev.ID, AssignRequest{AssignedTo: "u-other"})
	assert.True(t, apperr.IsReason(err, "deviationNotOpen"))
}

func TestCloseRequiresQAManager(t *testing.T) {
	svc := newTestService(newFakeRepo())

	analyst := models.Principal{ID: "u-an", Roles: []string{models.RoleQCAnalyst}}
	_, err := svc.Close(context.Background(), analyst, "dev-1")
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestMissingDeviation(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.GetByID(context.Background(), manager(), "missing")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
