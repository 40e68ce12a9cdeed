package models

import "time"

// PutawayStatus enumerates the inventory intake lifecycle.
type PutawayStatus string

const (
	PutawayPending PutawayStatus = "PutawayPending"
	PutawayStored  PutawayStatus = "Stored"
)

// PutawayRecord is the warehouse-side inventory intake created when QA
// notifies a Released decision. Exactly one record exists per release id.
type PutawayRecord struct {
	ID            string        `json:"id" bson:"_id"`
	ReleaseID     string        `json:"releaseId" bson:"releaseId"`
	ReleaseNumber string        `json:"releaseNumber" bson:"releaseNumber"`
	MaterialID    string        `json:"materialId" bson:"materialId"`
	BatchNumber   string        `json:"batchNumber" bson:"batchNumber"`
	Quantity      float64       `json:"quantity" bson:"quantity"`
	Unit          string        `json:"unit,omitempty" bson:"unit,omitempty"`
	Status        PutawayStatus `json:"status" bson:"status"`
	Location      string        `json:"location,omitempty" bson:"location,omitempty"`
	StoredBy      string        `json:"storedBy,omitempty" bson:"storedBy,omitempty"`
	StoredAt      *time.Time    `json:"storedAt,omitempty" bson:"storedAt,omitempty"`
	CreatedAt     time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt" bson:"updatedAt"`
}
