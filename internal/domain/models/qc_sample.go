package models

import "time"

// SampleStatus enumerates the QC sample pipeline. The order below is the
// monotonic status index: a sample never moves back to an earlier state.
type SampleStatus string

const (
	SamplePending           SampleStatus = "Pending"
	SampleReceived          SampleStatus = "SampleReceived"
	SampleTestsAssigned     SampleStatus = "TestsAssigned"
	SampleTestingInProgress SampleStatus = "TestingInProgress"
	SampleResultsEntered    SampleStatus = "ResultsEntered"
	SampleSubmittedToQA     SampleStatus = "SubmittedToQA"
	SampleQCComplete        SampleStatus = "QCComplete"
)

var sampleStatusIndex = map[SampleStatus]int{
	SamplePending:           0,
	SampleReceived:          1,
	SampleTestsAssigned:     2,
	SampleTestingInProgress: 3,
	SampleResultsEntered:    4,
	SampleSubmittedToQA:     5,
	SampleQCComplete:        6,
}

// Index returns the position of the status in the pipeline, -1 when unknown.
func (s SampleStatus) Index() int {
	if i, ok := sampleStatusIndex[s]; ok {
		return i
	}
	return -1
}

// Before reports whether s comes strictly earlier in the pipeline than other.
func (s SampleStatus) Before(other SampleStatus) bool {
	return s.Index() >= 0 && other.Index() >= 0 && s.Index() < other.Index()
}

// SamplePriority enumerates processing urgency.
type SamplePriority string

const (
	PriorityLow    SamplePriority = "Low"
	PriorityNormal SamplePriority = "Normal"
	PriorityHigh   SamplePriority = "High"
	PriorityUrgent SamplePriority = "Urgent"
)

// QCSample is a physical sample drawn from a goods receipt item or a
// manufacturing batch, tracked through testing.
type QCSample struct {
	ID                 string         `json:"id" bson:"_id"`
	SampleNumber       string         `json:"sampleNumber" bson:"sampleNumber"`
	Source             EntityRef      `json:"source" bson:"source"`
	GoodsReceiptItemID string         `json:"goodsReceiptItemId,omitempty" bson:"goodsReceiptItemId,omitempty"`
	MaterialID         string         `json:"materialId" bson:"materialId"`
	BatchNumber        string         `json:"batchNumber" bson:"batchNumber"`
	Quantity           float64        `json:"quantity" bson:"quantity"`
	Unit               string         `json:"unit" bson:"unit"`
	Priority           SamplePriority `json:"priority" bson:"priority"`
	Status             SampleStatus   `json:"status" bson:"status"`
	TestIDs            []string       `json:"testIds,omitempty" bson:"testIds,omitempty"`
	AssignedTo         string         `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
	RequestedBy        string         `json:"requestedBy" bson:"requestedBy"`
	DueDate            *time.Time     `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	CreatedAt          time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt" bson:"updatedAt"`
}
