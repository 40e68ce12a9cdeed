package models

import "time"

// QCTestStatus enumerates registry states for a test method.
type QCTestStatus string

const (
	QCTestActive   QCTestStatus = "Active"
	QCTestInactive QCTestStatus = "Inactive"
)

// QCTest is a registered test method with its acceptance specifications.
// Read-mostly reference data feeding result evaluation.
type QCTest struct {
	ID             string            `json:"id" bson:"_id"`
	Name           string            `json:"name" bson:"name"`
	Code           string            `json:"code,omitempty" bson:"code,omitempty"`
	Specifications []QCSpecification `json:"specifications" bson:"specifications"`
	Status         QCTestStatus      `json:"status" bson:"status"`
	CreatedAt      time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// QCSpecification is one acceptance criterion of a test method. A numeric
// range uses MinValue/MaxValue; a point specification uses TargetValue.
type QCSpecification struct {
	Parameter   string   `json:"parameter" bson:"parameter"`
	MinValue    *float64 `json:"minValue,omitempty" bson:"minValue,omitempty"`
	MaxValue    *float64 `json:"maxValue,omitempty" bson:"maxValue,omitempty"`
	TargetValue *string  `json:"targetValue,omitempty" bson:"targetValue,omitempty"`
	Unit        string   `json:"unit" bson:"unit"`
	Method      string   `json:"method,omitempty" bson:"method,omitempty"`
}
