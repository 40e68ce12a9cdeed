package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleStatusOrdering(t *testing.T) {
	pipeline := []SampleStatus{
		SamplePending,
		SampleReceived,
		SampleTestsAssigned,
		SampleTestingInProgress,
		SampleResultsEntered,
		SampleSubmittedToQA,
		SampleQCComplete,
	}

	for i, status := range pipeline {
		assert.Equal(t, i, status.Index())
	}
	for i := 1; i < len(pipeline); i++ {
		assert.True(t, pipeline[i-1].Before(pipeline[i]))
		assert.False(t, pipeline[i].Before(pipeline[i-1]))
	}
	assert.False(t, SamplePending.Before(SamplePending))

	assert.Equal(t, -1, SampleStatus("Bogus").Index())
	assert.False(t, SampleStatus("Bogus").Before(SampleQCComplete))
}

func TestChecklistState(t *testing.T) {
	tests := []struct {
		name       string
		items      []ChecklistItem
		anyChecked bool
		allChecked bool
	}{
		{"empty", nil, false, false},
		{"none checked", []ChecklistItem{{Item: "a"}, {Item: "b"}}, false, false},
		{"partially checked", []ChecklistItem{{Item: "a", Checked: true}, {Item: "b"}}, true, false},
		{"all checked", []ChecklistItem{{Item: "a", Checked: true}, {Item: "b", Checked: true}}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anyChecked, allChecked := ChecklistState(tt.items)
			assert.Equal(t, tt.anyChecked, anyChecked)
			assert.Equal(t, tt.allChecked, allChecked)
		})
	}
}

func TestPrincipalRoles(t *testing.T) {
	p := Principal{ID: "u1", Roles: []string{RoleQCAnalyst, RoleQCSupervisor}}

	assert.True(t, p.HasRole(RoleQCAnalyst))
	assert.False(t, p.HasRole(RoleAdmin))
	assert.True(t, p.HasAnyRole(RoleQAManager, RoleQCSupervisor))
	assert.False(t, p.HasAnyRole(RoleQAManager, RoleProcurement))
}

func TestPurchaseOrderItemLookup(t *testing.T) {
	po := PurchaseOrder{Items: []PurchaseOrderItem{{ID: "i1"}, {ID: "i2"}}}

	assert.NotNil(t, po.Item("i2"))
	assert.Nil(t, po.Item("missing"))
}

func TestGoodsReceiptItemLookup(t *testing.T) {
	grn := GoodsReceipt{Items: []GoodsReceiptItem{{ID: "g1"}}}

	assert.NotNil(t, grn.Item("g1"))
	assert.Nil(t, grn.Item("other"))
}
