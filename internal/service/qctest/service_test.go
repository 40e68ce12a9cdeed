package qctest

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
	tests map[string]*models.QCTest
	codes map[string]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{tests: make(map[string]*models.QCTest), codes: make(map[string]bool)}
}

func (f *fakeRepo) Insert(_ context.Context, test models.QCTest) error {
	f.tests[test.ID] = &test
	f.codes[test.Code] = true
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*models.QCTest, error) {
	test, ok := f.tests[id]
	if !ok {
		return nil, nil
	}
	clone := *test
	return &clone, nil
}

func (f *fakeRepo) List(_ context.Context, status models.QCTestStatus) ([]models.QCTest, error) {
	var out []models.QCTest
	for _, test := range f.tests {
		if status == "" || test.Status == status {
			out = append(out, *test)
		}
	}
	return out, nil
}

func (f *fakeRepo) TransitionStatus(_ context.Context, id string, from []models.QCTestStatus, to models.QCTestStatus, at time.Time) (bool, error) {
	test, ok := f.tests[id]
	if !ok {
		return false, nil
	}
	for _, s := range from {
		if test.Status == s {
			test.Status = to
			test.UpdatedAt = at
			return true, nil
		}
	}
	return false, nil
}

func fptr(v float64) *float64 { return &v }

func supervisor() models.Principal {
	return models.Principal{ID: "u-sup", Roles: []string{models.RoleQCSupervisor}}
}

func validCreate() CreateRequest {
	return CreateRequest{
		Name: "pH determination",
		Code: "PH-001",
		Specifications: []SpecificationRequest{
			{Parameter: "pH", MinValue: fptr(6.5), MaxValue: fptr(7.5), Unit: "pH", Method: "USP <791>"},
		},
	}
}

func TestCreateRegistersActiveTest(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	test, err := svc.Create(context.Background(), supervisor(), validCreate())
	require.NoError(t, err)

	assert.Equal(t, models.QCTestActive, test.Status)
	assert.Len(t, test.Specifications, 1)
	assert.NotEmpty(t, test.ID)
}

func TestCreateSpecValidation(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	req := validCreate()
	req.Specifications[0].MinValue = nil
	req.Specifications[0].MaxValue = nil
	_, err := svc.Create(context.Background(), supervisor(), req)
	assert.True(t, apperr.IsReason(err, "qcSpecificationEmpty"))

	req = validCreate()
	req.Specifications[0].MinValue = fptr(8)
	_, err = svc.Create(context.Background(), supervisor(), req)
	assert.True(t, apperr.IsReason(err, "qcSpecificationRangeInvalid"))
}

func TestDeactivateLifecycle(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)
	ctx := context.Background()

	test, err := svc.Create(ctx, supervisor(), validCreate())
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, supervisor(), test.ID))

	err = svc.Deactivate(ctx, supervisor(), test.ID)
	assert.True(t, apperr.IsReason(err, "qcTestAlreadyInactive"))

	err = svc.Deactivate(ctx, supervisor(), "missing")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestListFiltersByStatus(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)
	ctx := context.Background()

	first, err := svc.Create(ctx, supervisor(), validCreate())
	require.NoError(t, err)

	second := validCreate()
	second.Code = "PH-002"
	_, err = svc.Create(ctx, supervisor(), second)
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, supervisor(), first.ID))

	active, err := svc.List(ctx, supervisor(), models.QCTestActive)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := svc.List(ctx, supervisor(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
