package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order is the slice of an order document the messaging core needs: enough to
// decide who the parties of an order-scoped conversation are.
type Order struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrderID    string             `json:"orderId" bson:"order_id"`
	CustomerID string             `json:"customerId" bson:"customer_id"`
	VendorID   string             `json:"vendorId" bson:"vendor_id"`
	Status     string             `json:"status" bson:"status"`
	CreatedAt  time.Time          `json:"createdAt" bson:"created_at"`
}

// Party reports whether userID is the order's customer or vendor.
func (o *Order) Party(userID string) bool {
	return o.CustomerID == userID || o.VendorID == userID
}
