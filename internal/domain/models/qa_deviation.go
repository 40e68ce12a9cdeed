package models

import "time"

// DeviationStatus enumerates the nonconformance investigation lifecycle.
type DeviationStatus string

const (
	DeviationOpen          DeviationStatus = "Open"
	DeviationInvestigating DeviationStatus = "Investigating"
	DeviationResolved      DeviationStatus = "Resolved"
	DeviationClosed        DeviationStatus = "Closed"
)

// DeviationSeverity grades the impact of a nonconformance.
type DeviationSeverity string

const (
	SeverityLow      DeviationSeverity = "Low"
	SeverityMedium   DeviationSeverity = "Medium"
	SeverityHigh     DeviationSeverity = "High"
	SeverityCritical DeviationSeverity = "Critical"
)

// QADeviation records a nonconformance opened when a result fails or an
// inspection finds an anomaly. Investigated independently of the release
// decision.
type QADeviation struct {
	ID               string            `json:"id" bson:"_id"`
	DeviationNumber  string            `json:"deviationNumber" bson:"deviationNumber"`
	Title            string            `json:"title" bson:"title"`
	Description      string            `json:"description" bson:"description"`
	Severity         DeviationSeverity `json:"severity" bson:"severity"`
	Category         string            `json:"category" bson:"category"`
	Status           DeviationStatus   `json:"status" bson:"status"`
	Source           EntityRef         `json:"source" bson:"source"`
	AssignedTo       string            `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
	RootCause        string            `json:"rootCause,omitempty" bson:"rootCause,omitempty"`
	CorrectiveAction string            `json:"correctiveAction,omitempty" bson:"correctiveAction,omitempty"`
	PreventiveAction string            `json:"preventiveAction,omitempty" bson:"preventiveAction,omitempty"`
	ClosedAt         *time.Time        `json:"closedAt,omitempty" bson:"closedAt,omitempty"`
	CreatedAt        time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt" bson:"updatedAt"`
}
