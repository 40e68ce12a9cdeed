// Package servicetest wires the real services together with in-memory
// repositories and loopback clients, exercising the cross-service
// orchestration end to end without HTTP or MongoDB.
package servicetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tidianeba/qualichain/internal/domain/models"
	"github.com/tidianeba/qualichain/internal/repository/mongodb"
	"github.com/tidianeba/qualichain/internal/service/goodsreceipt"
	"github.com/tidianeba/qualichain/internal/service/purchaseorder"
	"github.com/tidianeba/qualichain/internal/service/qarelease"
	"github.com/tidianeba/qualichain/internal/service/qcresult"
	"github.com/tidianeba/qualichain/internal/service/qcsample"
	"github.com/tidianeba/qualichain/internal/service/qctest"
	whsvc "github.com/tidianeba/qualichain/internal/service/warehouse"
	whclient "github.com/tidianeba/qualichain/pkg/clients/warehouse"
)

// ---- in-memory repositories --------------------------------------------

type poRepo struct {
	orders map[string]*models.PurchaseOrder
	seq    int64
}

func (r *poRepo) NextNumber(context.Context) (int64, error) { r.seq++; return r.seq, nil }

func (r *poRepo) Insert(_ context.Context, po models.PurchaseOrder) error {
	r.orders[po.ID] = &po
	return nil
}

func (r *poRepo) GetByID(_ context.Context, id string) (*models.PurchaseOrder, error) {
	po, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	clone := *po
	return &clone, nil
}

func (r *poRepo) TransitionStatus(_ context.Context, id string, from []models.POStatus, to models.POStatus, at time.Time) (bool, error) {
	po, ok := r.orders[id]
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

type grnRepo struct {
	receipts map[string]*models.GoodsReceipt
	seq      int64
}

func (r *grnRepo) NextNumber(context.Context) (int64, error) { r.seq++; return r.seq, nil }

func (r *grnRepo) Insert(_ context.Context, grn models.GoodsReceipt) error {
	r.receipts[grn.ID] = &grn
	return nil
}

func (r *grnRepo) GetByID(_ context.Context, id string) (*models.GoodsReceipt, error) {
	grn, ok := r.receipts[id]
	if !ok || grn.DeletedAt != nil {
		return nil, nil
	}
	clone := *grn
	return &clone, nil
}

func (r *grnRepo) TransitionStatus(_ context.Context, id string, from []models.GRNStatus, to models.GRNStatus, at time.Time) (bool, error) {
	grn, ok := r.receipts[id]
	if !ok || grn.DeletedAt != nil {
		return false, nil
	}
	for _, s := range from {
		if grn.Status == s {
			grn.Status = to
			grn.UpdatedAt = at
			return true, nil
		}
	}
	return false, nil
}

func (r *grnRepo) SoftDelete(_ context.Context, id string, at time.Time) (bool, error) {
	grn, ok := r.receipts[id]
	if !ok || grn.DeletedAt != nil || grn.Status != models.GRNDraft {
		return false, nil
	}
	grn.DeletedAt = &at
	return true, nil
}

type testRepo struct {
	tests map[string]*models.QCTest
}

func (r *testRepo) Insert(_ context.Context, test models.QCTest) error {
	r.tests[test.ID] = &test
	return nil
}

func (r *testRepo) GetByID(_ context.Context, id string) (*models.QCTest, error) {
	test, ok := r.tests[id]
	if !ok {
		return nil, nil
	}
	clone := *test
	return &clone, nil
}

func (r *testRepo) List(_ context.Context, status models.QCTestStatus) ([]models.QCTest, error) {
	var out []models.QCTest
	for _, test := range r.tests {
		if status == "" || test.Status == status {
			out = append(out, *test)
		}
	}
	return out, nil
}

func (r *testRepo) TransitionStatus(_ context.Context, id string, from []models.QCTestStatus, to models.QCTestStatus, at time.Time) (bool, error) {
	test, ok := r.tests[id]
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

type sampleRepo struct {
	samples map[string]*models.QCSample
	seq     int64
}

func (r *sampleRepo) NextNumber(context.Context) (int64, error) { r.seq++; return r.seq, nil }

func (r *sampleRepo) Insert(_ context.Context, sample models.QCSample) error {
	r.samples[sample.ID] = &sample
	return nil
}

func (r *sampleRepo) GetByID(_ context.Context, id string) (*models.QCSample, error) {
	sample, ok := r.samples[id]
	if !ok {
		return nil, nil
	}
	clone := *sample
	return &clone, nil
}

func (r *sampleRepo) matches(id string, from []models.SampleStatus) *models.QCSample {
	sample, ok := r.samples[id]
	if !ok {
		return nil
	}
	for _, s := range from {
		if sample.Status == s {
			return sample
		}
	}
	return nil
}

func (r *sampleRepo) Advance(_ context.Context, id string, from []models.SampleStatus, to models.SampleStatus, at time.Time) (bool, error) {
	sample := r.matches(id, from)
	if sample == nil {
		return false, nil
	}
	sample.Status = to
	sample.UpdatedAt = at
	return true, nil
}

func (r *sampleRepo) AssignAnalyst(_ context.Context, id string, from []models.SampleStatus, analyst string, at time.Time) (bool, error) {
	sample := r.matches(id, from)
	if sample == nil {
		return false, nil
	}
	sample.Status = models.SampleTestsAssigned
	sample.AssignedTo = analyst
	sample.UpdatedAt = at
	return true, nil
}

func (r *sampleRepo) AssignTests(_ context.Context, id string, from []models.SampleStatus, testIDs []string, at time.Time) (bool, error) {
	sample := r.matches(id, from)
	if sample == nil {
		return false, nil
	}
	sample.TestIDs = testIDs
	sample.UpdatedAt = at
	return true, nil
}

type resultRepo struct {
	results []*models.QCResult
}

func (r *resultRepo) find(id string) *models.QCResult {
	for _, res := range r.results {
		if res.ID == id {
			return res
		}
	}
	return nil
}

func (r *resultRepo) Insert(_ context.Context, result models.QCResult) error {
	r.results = append(r.results, &result)
	return nil
}

func (r *resultRepo) GetByID(_ context.Context, id string) (*models.QCResult, error) {
	res := r.find(id)
	if res == nil {
		return nil, nil
	}
	clone := *res
	return &clone, nil
}

func (r *resultRepo) GetBySample(_ context.Context, sampleID string) ([]models.QCResult, error) {
	var out []models.QCResult
	for _, res := range r.results {
		if res.SampleID == sampleID {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (r *resultRepo) MarkInProgress(_ context.Context, id string, at time.Time) (bool, error) {
	res := r.find(id)
	if res == nil || res.Status != models.ResultPending {
		return false, nil
	}
	res.Status = models.ResultInProgress
	res.UpdatedAt = at
	return true, nil
}

func (r *resultRepo) Finalize(_ context.Context, id string, fin mongodb.ResultFinalization) (bool, error) {
	res := r.find(id)
	if res == nil || (res.Status != models.ResultPending && res.Status != models.ResultInProgress) {
		return false, nil
	}
	res.ResultValue = fin.ResultValue
	res.Unit = fin.Unit
	res.Passed = fin.Passed
	res.PassedOverridden = fin.PassedOverridden
	res.Status = fin.Status
	res.PerformedBy = fin.PerformedBy
	performedAt := fin.PerformedAt
	res.PerformedAt = &performedAt
	res.UpdatedAt = fin.PerformedAt
	return true, nil
}

func (r *resultRepo) MarkSubmitted(_ context.Context, id string, at time.Time) (bool, error) {
	res := r.find(id)
	if res == nil || res.SubmittedToQA {
		return false, nil
	}
	res.SubmittedToQA = true
	res.SubmittedAt = &at
	res.UpdatedAt = at
	return true, nil
}

type releaseRepo struct {
	releases map[string]*models.QARelease
	seq      int64
}

func (r *releaseRepo) NextNumber(context.Context) (int64, error) { r.seq++; return r.seq, nil }

func (r *releaseRepo) Insert(_ context.Context, rel models.QARelease) error {
	r.releases[rel.ID] = &rel
	return nil
}

func (r *releaseRepo) GetByID(_ context.Context, id string) (*models.QARelease, error) {
	rel, ok := r.releases[id]
	if !ok {
		return nil, nil
	}
	clone := *rel
	return &clone, nil
}

func (r *releaseRepo) matches(id string, from []models.ReleaseStatus) *models.QARelease {
	rel, ok := r.releases[id]
	if !ok {
		return nil
	}
	for _, s := range from {
		if rel.Status == s {
			return rel
		}
	}
	return nil
}

func (r *releaseRepo) UpdateChecklist(_ context.Context, id string, from []models.ReleaseStatus, items []models.ChecklistItem, to models.ReleaseStatus, at time.Time) (bool, error) {
	rel := r.matches(id, from)
	if rel == nil {
		return false, nil
	}
	rel.ChecklistItems = items
	rel.Status = to
	rel.UpdatedAt = at
	return true, nil
}

func (r *releaseRepo) RecordDecision(_ context.Context, id string, from []models.ReleaseStatus, rec mongodb.DecisionRecord) (bool, error) {
	rel := r.matches(id, from)
	if rel == nil {
		return false, nil
	}
	rel.Status = rec.Status
	rel.Decision = rec.Decision
	rel.DecisionReason = rec.DecisionReason
	rel.DecidedBy = rec.DecidedBy
	decidedAt := rec.DecidedAt
	rel.DecidedAt = &decidedAt
	rel.ESignature = rec.ESignature
	rel.UpdatedAt = rec.DecidedAt
	return true, nil
}

func (r *releaseRepo) MarkNotified(_ context.Context, id string, at time.Time) (bool, error) {
	rel, ok := r.releases[id]
	if !ok || rel.WarehouseNotified {
		return false, nil
	}
	rel.WarehouseNotified = true
	rel.WarehouseNotifiedAt = &at
	rel.UpdatedAt = at
	return true, nil
}

func (r *releaseRepo) ListUnnotified(_ context.Context, limit int64) ([]models.QARelease, error) {
	var out []models.QARelease
	for _, rel := range r.releases {
		if rel.Status == models.ReleaseReleased && !rel.WarehouseNotified && int64(len(out)) < limit {
			out = append(out, *rel)
		}
	}
	return out, nil
}

type putawayRepo struct {
	records   map[string]*models.PutawayRecord
	byRelease map[string]string
}

func (r *putawayRepo) Insert(_ context.Context, rec models.PutawayRecord) error {
	if _, taken := r.byRelease[rec.ReleaseID]; taken {
		return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	}
	r.records[rec.ID] = &rec
	r.byRelease[rec.ReleaseID] = rec.ID
	return nil
}

func (r *putawayRepo) GetByID(_ context.Context, id string) (*models.PutawayRecord, error) {
	rec, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	clone := *rec
	return &clone, nil
}

func (r *putawayRepo) GetByReleaseID(_ context.Context, releaseID string) (*models.PutawayRecord, error) {
	id, ok := r.byRelease[releaseID]
	if !ok {
		return nil, nil
	}
	clone := *r.records[id]
	return &clone, nil
}

func (r *putawayRepo) Complete(_ context.Context, id, location, storedBy string, at time.Time) (bool, error) {
	rec, ok := r.records[id]
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

// ---- loopback clients ---------------------------------------------------

// systemPrincipal mirrors what the auth middleware builds from the shared
// service token on real inter-service calls.
var systemPrincipal = models.Principal{ID: "system", Roles: []string{models.RoleAdmin}}

type poLoop struct{ svc *purchaseorder.Service }

func (c poLoop) GetByID(ctx context.Context, id string) (*models.PurchaseOrder, error) {
	return c.svc.GetByID(ctx, systemPrincipal, id)
}

func (c poLoop) Receive(ctx context.Context, id string) error {
	return c.svc.Receive(ctx, systemPrincipal, id)
}

type grnLoop struct{ svc *goodsreceipt.Service }

func (c grnLoop) GetByID(ctx context.Context, id string) (*models.GoodsReceipt, error) {
	return c.svc.GetByID(ctx, systemPrincipal, id)
}

type testLoop struct{ svc *qctest.Service }

func (c testLoop) GetByID(ctx context.Context, id string) (*models.QCTest, error) {
	return c.svc.GetByID(ctx, systemPrincipal, id)
}

type sampleLoop struct{ svc *qcsample.Service }

func (c sampleLoop) GetByID(ctx context.Context, id string) (*models.QCSample, error) {
	return c.svc.GetByID(ctx, systemPrincipal, id)
}

func (c sampleLoop) BeginTesting(ctx context.Context, id string) error {
	return c.svc.BeginTesting(ctx, systemPrincipal, id)
}

func (c sampleLoop) MarkResultsEntered(ctx context.Context, id string) error {
	return c.svc.MarkResultsEntered(ctx, systemPrincipal, id)
}

func (c sampleLoop) AdvanceToSubmitted(ctx context.Context, id string) error {
	return c.svc.AdvanceToSubmitted(ctx, systemPrincipal, id)
}

type resultLoop struct{ svc *qcresult.Service }

func (c resultLoop) GetBySample(ctx context.Context, sampleID string) ([]models.QCResult, error) {
	return c.svc.GetBySample(ctx, systemPrincipal, sampleID)
}

type whLoop struct{ svc *whsvc.Service }

func (c whLoop) NotifyRelease(ctx context.Context, req whclient.NotifyReleaseRequest) error {
	_, _, err := c.svc.NotifyRelease(ctx, systemPrincipal, whsvc.NotifyReleaseRequest{
		ReleaseID:     req.ReleaseID,
		ReleaseNumber: req.ReleaseNumber,
		MaterialID:    req.MaterialID,
		BatchNumber:   req.BatchNumber,
		Quantity:      req.Quantity,
		Unit:          req.Unit,
	})
	return err
}

// ---- the scenario -------------------------------------------------------

type system struct {
	po        *purchaseorder.Service
	grn       *goodsreceipt.Service
	qctest    *qctest.Service
	sample    *qcsample.Service
	result    *qcresult.Service
	release   *qarelease.Service
	warehouse *whsvc.Service
	putaways  *putawayRepo
}

func newSystem() *system {
	putaways := &putawayRepo{records: map[string]*models.PutawayRecord{}, byRelease: map[string]string{}}

	sys := &system{putaways: putaways}
	sys.po = purchaseorder.NewService(&poRepo{orders: map[string]*models.PurchaseOrder{}}, nil)
	sys.grn = goodsreceipt.NewService(&grnRepo{receipts: map[string]*models.GoodsReceipt{}}, poLoop{sys.po}, nil)
	sys.qctest = qctest.NewService(&testRepo{tests: map[string]*models.QCTest{}}, nil)
	sys.sample = qcsample.NewService(&sampleRepo{samples: map[string]*models.QCSample{}}, grnLoop{sys.grn}, nil)
	sys.result = qcresult.NewService(&resultRepo{}, testLoop{sys.qctest}, sampleLoop{sys.sample}, nil)
	sys.warehouse = whsvc.NewService(putaways, nil)
	sys.release = qarelease.NewService(&releaseRepo{releases: map[string]*models.QARelease{}},
		sampleLoop{sys.sample}, resultLoop{sys.result}, whLoop{sys.warehouse}, nil)
	return sys
}

func strptr(s string) *string { return &s }
func fptr(v float64) *float64 { return &v }

func TestMaterialLifecycleEndToEnd(t *testing.T) {
	sys := newSystem()
	ctx := context.Background()

	procurement := models.Principal{ID: "u-proc", Roles: []string{models.RoleProcurement}}
	operator := models.Principal{ID: "u-wh", Roles: []string{models.RoleWarehouseOperator}}
	analyst := models.Principal{ID: "u-an", Roles: []string{models.RoleQCAnalyst}}
	qaManager := models.Principal{ID: "u-qa", Roles: []string{models.RoleQAManager}}

	// Procurement raises and approves a purchase order.
	po, err := sys.po.Create(ctx, procurement, purchaseorder.CreateRequest{
		SupplierID:   "sup-1",
		ExpectedDate: time.Now().AddDate(0, 0, 7),
		Items: []purchaseorder.CreateItemRequest{
			{MaterialID: "mat-paracetamol", Quantity: 100, UnitPrice: 12.5},
		},
	})
	require.NoError(t, err)
	require.NoError(t, sys.po.Submit(ctx, procurement, po.ID))
	require.NoError(t, sys.po.Approve(ctx, procurement, po.ID))

	// The warehouse receives the goods and verification advances the order.
	grn, err := sys.grn.Create(ctx, operator, goodsreceipt.CreateRequest{
		PurchaseOrderID: po.ID,
		ReceivedDate:    time.Now(),
		Items: []goodsreceipt.CreateItemRequest{
			{POItemID: po.Items[0].ID, ReceivedQuantity: 100, AcceptedQuantity: 100, BatchNumber: "B-2026-091"},
		},
	})
	require.NoError(t, err)

	grn, err = sys.grn.Verify(ctx, operator, grn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GRNVerified, grn.Status)

	received, err := sys.po.GetByID(ctx, procurement, po.ID)
	require.NoError(t, err)
	assert.Equal(t, models.POReceived, received.Status)

	// QC registers the test methods.
	phTest, err := sys.qctest.Create(ctx, analyst, qctest.CreateRequest{
		Name: "pH determination",
		Code: "PH-001",
		Specifications: []qctest.SpecificationRequest{
			{Parameter: "pH", MinValue: fptr(6.5), MaxValue: fptr(7.5), Unit: "pH"},
		},
	})
	require.NoError(t, err)
	appearanceTest, err := sys.qctest.Create(ctx, analyst, qctest.CreateRequest{
		Name: "Appearance",
		Code: "APP-001",
		Specifications: []qctest.SpecificationRequest{
			{Parameter: "Appearance", TargetValue: strptr("White powder"), Unit: "-"},
		},
	})
	require.NoError(t, err)

	// A sample is drawn from the receipt and assigned.
	sample, err := sys.sample.Create(ctx, analyst, qcsample.CreateRequest{
		SourceType:         models.SourceGoodsReceipt,
		SourceID:           grn.ID,
		GoodsReceiptItemID: grn.Items[0].ID,
		MaterialID:         "mat-paracetamol",
		BatchNumber:        "B-2026-091",
		Quantity:           10,
		Unit:               "g",
	})
	require.NoError(t, err)
	require.NoError(t, sys.sample.MarkReceived(ctx, analyst, sample.ID))
	require.NoError(t, sys.sample.Assign(ctx, analyst, sample.ID, analyst.ID))
	require.NoError(t, sys.sample.AssignTests(ctx, analyst, sample.ID, []string{phTest.ID, appearanceTest.ID}))

	// The first result moves the sample into testing.
	phResult, err := sys.result.Create(ctx, analyst, qcresult.CreateRequest{SampleID: sample.ID, TestID: phTest.ID})
	require.NoError(t, err)
	inTesting, err := sys.sample.GetByID(ctx, analyst, sample.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SampleTestingInProgress, inTesting.Status)

	// The second creation tolerates the sample already testing.
	appResult, err := sys.result.Create(ctx, analyst, qcresult.CreateRequest{SampleID: sample.ID, TestID: appearanceTest.ID})
	require.NoError(t, err)

	// Both values pass specification; finalizing the batch advances the sample.
	phResult, err = sys.result.Update(ctx, analyst, phResult.ID, qcresult.UpdateRequest{ResultValue: "7.0", Unit: "pH"})
	require.NoError(t, err)
	assert.Equal(t, models.ResultCompleted, phResult.Status)
	assert.True(t, phResult.Passed)

	appResult, err = sys.result.Update(ctx, analyst, appResult.ID, qcresult.UpdateRequest{ResultValue: "white powder"})
	require.NoError(t, err)
	assert.Equal(t, models.ResultCompleted, appResult.Status)

	entered, err := sys.sample.GetByID(ctx, analyst, sample.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SampleResultsEntered, entered.Status)

	// QC hands the batch over to QA.
	require.NoError(t, sys.result.SubmitToQA(ctx, analyst, qcresult.SubmitToQARequest{
		SampleID:  sample.ID,
		ResultIDs: []string{phResult.ID, appResult.ID},
	}))
	submitted, err := sys.sample.GetByID(ctx, analyst, sample.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SampleSubmittedToQA, submitted.Status)

	// QA reviews the checklist and releases the batch.
	rel, err := sys.release.Create(ctx, qaManager, qarelease.CreateRequest{
		SampleID:    sample.ID,
		QCResultIDs: []string{phResult.ID, appResult.ID},
	})
	require.NoError(t, err)

	items := make([]qarelease.ChecklistItemRequest, 0, len(rel.ChecklistItems))
	for _, it := range rel.ChecklistItems {
		items = append(items, qarelease.ChecklistItemRequest{Item: it.Item, Checked: true})
	}
	rel, err = sys.release.UpdateChecklist(ctx, qaManager, rel.ID, qarelease.UpdateChecklistRequest{Items: items})
	require.NoError(t, err)
	assert.Equal(t, models.ReleaseUnderReview, rel.Status)

	rel, err = sys.release.MakeDecision(ctx, qaManager, rel.ID, qarelease.DecisionRequest{
		Decision: models.DecisionRelease,
		Password: "s3cret",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReleaseReleased, rel.Status)
	assert.True(t, rel.WarehouseNotified)
	assert.NotEmpty(t, rel.ESignature)

	// The warehouse got exactly one putaway and stores the material.
	putaway, err := sys.putaways.GetByReleaseID(ctx, rel.ID)
	require.NoError(t, err)
	require.NotNil(t, putaway)
	assert.Equal(t, models.PutawayPending, putaway.Status)
	assert.Equal(t, "B-2026-091", putaway.BatchNumber)

	stored, err := sys.warehouse.CompletePutaway(ctx, operator, putaway.ID, whsvc.CompletePutawayRequest{Location: "WH1-A-03"})
	require.NoError(t, err)
	assert.Equal(t, models.PutawayStored, stored.Status)

	// QC closes out the sample once QA is done with it.
	require.NoError(t, sys.sample.Complete(ctx, analyst, sample.ID))
	complete, err := sys.sample.GetByID(ctx, analyst, sample.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SampleQCComplete, complete.Status)
}

func TestFailedResultBlocksSubmission(t *testing.T) {
	sys := newSystem()
	ctx := context.Background()

	procurement := models.Principal{ID: "u-proc", Roles: []string{models.RoleProcurement}}
	operator := models.Principal{ID: "u-wh", Roles: []string{models.RoleWarehouseOperator}}
	analyst := models.Principal{ID: "u-an", Roles: []string{models.RoleQCAnalyst}}

	po, err := sys.po.Create(ctx, procurement, purchaseorder.CreateRequest{
		SupplierID:   "sup-1",
		ExpectedDate: time.Now().AddDate(0, 0, 7),
		Items:        []purchaseorder.CreateItemRequest{{MaterialID: "mat-1", Quantity: 50, UnitPrice: 3}},
	})
	require.NoError(t, err)
	require.NoError(t, sys.po.Submit(ctx, procurement, po.ID))
	require.NoError(t, sys.po.Approve(ctx, procurement, po.ID))

	grn, err := sys.grn.Create(ctx, operator, goodsreceipt.CreateRequest{
		PurchaseOrderID: po.ID,
		ReceivedDate:    time.Now(),
		Items: []goodsreceipt.CreateItemRequest{
			{POItemID: po.Items[0].ID, ReceivedQuantity: 50, AcceptedQuantity: 50, BatchNumber: "B-X"},
		},
	})
	require.NoError(t, err)
	grn, err = sys.grn.Verify(ctx, operator, grn.ID)
	require.NoError(t, err)

	phTest, err := sys.qctest.Create(ctx, analyst, qctest.CreateRequest{
		Name: "pH determination",
		Code: "PH-001",
		Specifications: []qctest.SpecificationRequest{
			{Parameter: "pH", MinValue: fptr(6.5), MaxValue: fptr(7.5), Unit: "pH"},
		},
	})
	require.NoError(t, err)

	sample, err := sys.sample.Create(ctx, analyst, qcsample.CreateRequest{
		SourceType:         models.SourceGoodsReceipt,
		SourceID:           grn.ID,
		GoodsReceiptItemID: grn.Items[0].ID,
		MaterialID:         "mat-1",
		BatchNumber:        "B-X",
		Quantity:           5,
		Unit:               "g",
	})
	require.NoError(t, err)
	require.NoError(t, sys.sample.MarkReceived(ctx, analyst, sample.ID))
	require.NoError(t, sys.sample.Assign(ctx, analyst, sample.ID, analyst.ID))

	result, err := sys.result.Create(ctx, analyst, qcresult.CreateRequest{SampleID: sample.ID, TestID: phTest.ID})
	require.NoError(t, err)

	result, err = sys.result.Update(ctx, analyst, result.ID, qcresult.UpdateRequest{ResultValue: "9.1", Unit: "pH"})
	require.NoError(t, err)
	assert.Equal(t, models.ResultFailed, result.Status)
	assert.False(t, result.Passed)

	// A Failed result cannot be part of the QA handover.
	err = sys.result.SubmitToQA(ctx, analyst, qcresult.SubmitToQARequest{
		SampleID:  sample.ID,
		ResultIDs: []string{result.ID},
	})
	require.Error(t, err)
}
