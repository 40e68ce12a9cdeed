package purchaseorder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidianeba/qualichain/internal/domain/apperr"
	"github.com/tidianeba/qualichain/internal/domain/models"
)

type fakeRepo struct {
	orders map[string]*models.PurchaseOrder
	seq    int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: make(map[string]*models.PurchaseOrder)}
}

func (f *fakeRepo) NextNumber(context.Context) (int64, error) {
	f.seq++
	return f.seq, nil
}

func (f *fakeRepo) Insert(_ context.Context, po models.PurchaseOrder) error {
	f.orders[po.ID] = &po
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*models.PurchaseOrder, error) {
	po, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	clone := *po
	return &clone, nil
}

func (f *fakeRepo) TransitionStatus(_ context.Context, id string, from []models.POStatus, to models.POStatus, at time.Time) (bool, error) {
	po, ok := f.orders[id]
	if !ok {
		return false, nil
	}
	for _, s := range from {
		if po.Status == s {
			po.Status = to
			po.UpdatedAt = at
			return true, nil
		}
	}
	return false, nil
}

var testNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func newTestService(repo *fakeRepo) *Service {
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return testNow }
	return svc
}

func buyer() models.Principal {
	return models.Principal{ID: "u-proc", Roles: []string{models.RoleProcurement}}
}

func validCreate() CreateRequest {
	return CreateRequest{
		SupplierID:   "sup-1",
		ExpectedDate: testNow.AddDate(0, 0, 7),
		Items: []CreateItemRequest{
			{MaterialID: "mat-1", Quantity: 100, UnitPrice: 2.5},
			{MaterialID: "mat-2", Quantity: 40, UnitPrice: 10},
		},
	}
}

func TestCreateComputesTotalsAndNumber(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	po, err := svc.Create(context.Background(), buyer(), validCreate())
	require.NoError(t, err)

	assert.Equal(t, "PO-2026-00001", po.PONumber)
	assert.Equal(t, models.PODraft, po.Status)
	assert.InDelta(t, 650.0, po.TotalAmount, 1e-9)
	assert.Len(t, po.Items, 2)
	assert.InDelta(t, 250.0, po.Items[0].TotalPrice, 1e-9)
	assert.NotEmpty(t, po.Items[0].ID)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(newFakeRepo())

	tests := []struct {
		name   string
		mutate func(*CreateRequest)
		reason string
	}{
		{"zero quantity", func(r *CreateRequest) { r.Items[0].Quantity = 0 }, "purchaseOrderItemQuantityInvalid"},
		{"negative quantity", func(r *CreateRequest) { r.Items[1].Quantity = -5 }, "purchaseOrderItemQuantityInvalid"},
		{"negative price", func(r *CreateRequest) { r.Items[0].UnitPrice = -1 }, "purchaseOrderItemPriceInvalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreate()
			tt.mutate(&req)
			_, err := svc.Create(context.Background(), buyer(), req)
			assert.True(t, apperr.IsKind(err, apperr.KindBadRequest))
			assert.True(t, apperr.IsReason(err, tt.reason))
		})
	}
}

func TestLifecycleTransitions(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	p := buyer()

	po, err := svc.Create(context.Background(), p, validCreate())
	require.NoError(t, err)

	require.NoError(t, svc.Submit(context.Background(), p, po.ID))
	require.NoError(t, svc.Approve(context.Background(), p, po.ID))
	require.NoError(t, svc.Receive(context.Background(), p, po.ID))

	got, err := svc.GetByID(context.Background(), p, po.ID)
	require.NoError(t, err)
	assert.Equal(t, models.POReceived, got.Status)
}

func TestApproveRequiresPending(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	p := buyer()

	po, err := svc.Create(context.Background(), p, validCreate())
	require.NoError(t, err)

	err = svc.Approve(context.Background(), p, po.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.True(t, apperr.IsReason(err, "purchaseOrderStatusIncompatible"))
}

func TestReceiveRepeatReportsAlreadyReceived(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	p := buyer()

	po, err := svc.Create(context.Background(), p, validCreate())
	require.NoError(t, err)
	require.NoError(t, svc.Submit(context.Background(), p, po.ID))
	require.NoError(t, svc.Approve(context.Background(), p, po.ID))
	require.NoError(t, svc.Receive(context.Background(), p, po.ID))

	err = svc.Receive(context.Background(), p, po.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.True(t, apperr.IsReason(err, ReasonAlreadyReceived))
}

func TestCancelBlockedAfterReceive(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	p := buyer()

	po, err := svc.Create(context.Background(), p, validCreate())
	require.NoError(t, err)
	require.NoError(t, svc.Submit(context.Background(), p, po.ID))
	require.NoError(t, svc.Approve(context.Background(), p, po.ID))
	require.NoError(t, svc.Receive(context.Background(), p, po.ID))

	err = svc.Cancel(context.Background(), p, po.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestTransitionsOnMissingOrder(t *testing.T) {
	svc := newTestService(newFakeRepo())

	err := svc.Submit(context.Background(), buyer(), "missing")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	assert.True(t, apperr.IsReason(err, "purchaseOrderNotFound"))
}

func TestApproveRequiresProcurementRole(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	analyst := models.Principal{ID: "u-an", Roles: []string{models.RoleQCAnalyst}}
	err := svc.Approve(context.Background(), analyst, "po-1")
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}
