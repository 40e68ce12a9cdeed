package models

import "time"

// ResultStatus enumerates the test result lifecycle. Failed means the
// recorded value is out of specification, not that execution errored.
type ResultStatus string

const (
	ResultPending    ResultStatus = "Pending"
	ResultInProgress ResultStatus = "InProgress"
	ResultCompleted  ResultStatus = "Completed"
	ResultFailed     ResultStatus = "Failed"
)

// QCResult is one test outcome against a sample+test pair.
// SubmittedToQA is reachable exactly once and never unset.
type QCResult struct {
	ID               string       `json:"id" bson:"_id"`
	SampleID         string       `json:"sampleId" bson:"sampleId"`
	TestID           string       `json:"testId" bson:"testId"`
	Parameter        string       `json:"parameter,omitempty" bson:"parameter,omitempty"`
	ResultValue      string       `json:"resultValue,omitempty" bson:"resultValue,omitempty"`
	Unit             string       `json:"unit,omitempty" bson:"unit,omitempty"`
	Passed           bool         `json:"passed" bson:"passed"`
	PassedOverridden bool         `json:"passedOverridden,omitempty" bson:"passedOverridden,omitempty"`
	Status           ResultStatus `json:"status" bson:"status"`
	PerformedBy      string       `json:"performedBy,omitempty" bson:"performedBy,omitempty"`
	PerformedAt      *time.Time   `json:"performedAt,omitempty" bson:"performedAt,omitempty"`
	SubmittedToQA    bool         `json:"submittedToQA" bson:"submittedToQA"`
	SubmittedAt      *time.Time   `json:"submittedAt,omitempty" bson:"submittedAt,omitempty"`
	CreatedAt        time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt" bson:"updatedAt"`
}
