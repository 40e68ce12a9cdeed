package models

import "time"

// ReleaseStatus enumerates the QA release workflow.
type ReleaseStatus string

const (
	ReleasePending             ReleaseStatus = "Pending"
	ReleaseChecklistInProgress ReleaseStatus = "ChecklistInProgress"
	ReleaseUnderReview         ReleaseStatus = "UnderReview"
	ReleaseReleased            ReleaseStatus = "Released"
	ReleaseHeld                ReleaseStatus = "Held"
	ReleaseRejected            ReleaseStatus = "Rejected"
)

// ReleaseDecision is the QA disposition. Release and Reject are final; Hold
// may be revisited with a second review pass.
type ReleaseDecision string

const (
	DecisionRelease ReleaseDecision = "Release"
	DecisionHold    ReleaseDecision = "Hold"
	DecisionReject  ReleaseDecision = "Reject"
)

// ChecklistItem is one review point on the release checklist.
type ChecklistItem struct {
	Item    string `json:"item" bson:"item"`
	Checked bool   `json:"checked" bson:"checked"`
	Remarks string `json:"remarks,omitempty" bson:"remarks,omitempty"`
}

// QARelease aggregates a sample's submitted result set into the disposition
// decision that gates inventory usability.
type QARelease struct {
	ID                   string          `json:"id" bson:"_id"`
	ReleaseNumber        string          `json:"releaseNumber" bson:"releaseNumber"`
	SampleID             string          `json:"sampleId" bson:"sampleId"`
	GoodsReceiptItemID   string          `json:"goodsReceiptItemId" bson:"goodsReceiptItemId"`
	MaterialID           string          `json:"materialId" bson:"materialId"`
	BatchNumber          string          `json:"batchNumber" bson:"batchNumber"`
	Quantity             float64         `json:"quantity" bson:"quantity"`
	Unit                 string          `json:"unit,omitempty" bson:"unit,omitempty"`
	Status               ReleaseStatus   `json:"status" bson:"status"`
	Decision             ReleaseDecision `json:"decision,omitempty" bson:"decision,omitempty"`
	DecisionReason       string          `json:"decisionReason,omitempty" bson:"decisionReason,omitempty"`
	ChecklistItems       []ChecklistItem `json:"checklistItems" bson:"checklistItems"`
	QCResultIDs          []string        `json:"qcResultIds" bson:"qcResultIds"`
	SubmittedBy          string          `json:"submittedBy" bson:"submittedBy"`
	SubmittedAt          time.Time       `json:"submittedAt" bson:"submittedAt"`
	DecidedBy            string          `json:"decidedBy,omitempty" bson:"decidedBy,omitempty"`
	DecidedAt            *time.Time      `json:"decidedAt,omitempty" bson:"decidedAt,omitempty"`
	ESignature           string          `json:"eSignature,omitempty" bson:"eSignature,omitempty"`
	WarehouseNotified    bool            `json:"warehouseNotified" bson:"warehouseNotified"`
	WarehouseNotifiedAt  *time.Time      `json:"warehouseNotifiedAt,omitempty" bson:"warehouseNotifiedAt,omitempty"`
	CreatedAt            time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// ChecklistState summarizes checklist progress: anyChecked drives the move to
// ChecklistInProgress, allChecked the move to UnderReview.
func ChecklistState(items []ChecklistItem) (anyChecked, allChecked bool) {
	if len(items) == 0 {
		return false, false
	}
	allChecked = true
	for _, it := range items {
		if it.Checked {
			anyChecked = true
		} else {
			allChecked = false
		}
	}
	return anyChecked, allChecked
}
