package models

import "time"

// POStatus enumerates the purchase order lifecycle.
type POStatus string

const (
	PODraft     POStatus = "Draft"
	POPending   POStatus = "Pending"
	POApproved  POStatus = "Approved"
	POReceived  POStatus = "Received"
	POCancelled POStatus = "Cancelled"
)

// PurchaseOrder is the procurement record a goods receipt is posted against.
type PurchaseOrder struct {
	ID           string              `json:"id" bson:"_id"`
	PONumber     string              `json:"poNumber" bson:"poNumber"`
	SupplierID   string              `json:"supplierId" bson:"supplierId"`
	SiteID       string              `json:"siteId,omitempty" bson:"siteId,omitempty"`
	ExpectedDate time.Time           `json:"expectedDate" bson:"expectedDate"`
	Status       POStatus            `json:"status" bson:"status"`
	TotalAmount  float64             `json:"totalAmount" bson:"totalAmount"`
	Items        []PurchaseOrderItem `json:"items" bson:"items"`
	CreatedAt    time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// PurchaseOrderItem is one ordered material line.
type PurchaseOrderItem struct {
	ID         string  `json:"id" bson:"id"`
	MaterialID string  `json:"materialId" bson:"materialId"`
	Quantity   float64 `json:"quantity" bson:"quantity"`
	UnitPrice  float64 `json:"unitPrice" bson:"unitPrice"`
	TotalPrice float64 `json:"totalPrice" bson:"totalPrice"`
}

// Item returns the item with the given id, nil when absent.
func (po *PurchaseOrder) Item(itemID string) *PurchaseOrderItem {
	for i := range po.Items {
		if po.Items[i].ID == itemID {
			return &po.Items[i]
		}
	}
	return nil
}
