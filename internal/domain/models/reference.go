package models

// SourceType identifies which kind of upstream entity a record points at.
type SourceType string

const (
	SourceGoodsReceipt SourceType = "GoodsReceipt"
	SourceBatch        SourceType = "Batch"
	SourceQCResult     SourceType = "QCResult"
	SourceInspection   SourceType = "Inspection"
)

// EntityRef replaces a cross-database foreign key with an explicit reference
// value: the foreign id plus a denormalized human-readable snapshot taken at
// creation time. The referenced row lives in another service's store, so the
// reference is validated by an existence-check call, never by a constraint.
type EntityRef struct {
	Type      SourceType `json:"type" bson:"type"`
	ID        string     `json:"id" bson:"id"`
	Reference string     `json:"reference" bson:"reference"`
}
