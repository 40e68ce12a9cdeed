package models

import "time"

// GRNStatus enumerates the goods receipt lifecycle.
type GRNStatus string

const (
	GRNDraft     GRNStatus = "Draft"
	GRNVerified  GRNStatus = "Verified"
	GRNCompleted GRNStatus = "Completed"
)

// GoodsReceipt records materials physically received against a purchase
// order. Soft-deleted rather than removed, preserving audit history.
type GoodsReceipt struct {
	ID              string             `json:"id" bson:"_id"`
	GRNNumber       string             `json:"grnNumber" bson:"grnNumber"`
	PurchaseOrderID string             `json:"purchaseOrderId" bson:"purchaseOrderId"`
	ReceivedDate    time.Time          `json:"receivedDate" bson:"receivedDate"`
	Status          GRNStatus          `json:"status" bson:"status"`
	Remarks         string             `json:"remarks,omitempty" bson:"remarks,omitempty"`
	Items           []GoodsReceiptItem `json:"items" bson:"items"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
	DeletedAt       *time.Time         `json:"deletedAt,omitempty" bson:"deletedAt,omitempty"`
}

// GoodsReceiptItem is one received line against a purchase order item.
// Invariant: AcceptedQuantity + RejectedQuantity <= ReceivedQuantity.
type GoodsReceiptItem struct {
	ID               string     `json:"id" bson:"id"`
	POItemID         string     `json:"poItemId" bson:"poItemId"`
	ReceivedQuantity float64    `json:"receivedQuantity" bson:"receivedQuantity"`
	AcceptedQuantity float64    `json:"acceptedQuantity" bson:"acceptedQuantity"`
	RejectedQuantity float64    `json:"rejectedQuantity" bson:"rejectedQuantity"`
	BatchNumber      string     `json:"batchNumber,omitempty" bson:"batchNumber,omitempty"`
	ExpiryDate       *time.Time `json:"expiryDate,omitempty" bson:"expiryDate,omitempty"`
}

// Item returns the item with the given id, nil when absent.
func (g *GoodsReceipt) Item(itemID string) *GoodsReceiptItem {
	for i := range g.Items {
		if g.Items[i].ID == itemID {
			return &g.Items[i]
		}
	}
	return nil
}
