package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message kinds identify the directed role pair and scoping of a message.
// They select notification copy and authorization rules; the storage shape
// is identical for all kinds.
const (
	KindCustomerToVendor = "customer-to-vendor"
	KindVendorToCustomer = "vendor-to-customer"
	KindCustomerToAdmin  = "customer-to-admin"
	KindAdminToCustomer  = "admin-to-customer"
	KindVendorToDelivery = "vendor-to-delivery"
	KindDeliveryToVendor = "delivery-to-vendor"
	KindVendorToAdmin    = "vendor-to-admin"
	KindDeliveryToAdmin  = "delivery-to-admin"
	KindAdminToAdmin     = "admin-to-admin"
	KindGeneral          = "general"
)

// Message represents a chat message in MongoDB. Exactly one of ReceiverID or
// Recipients is populated: direct messages carry a single receiver, broadcast
// messages carry the full recipient set captured at send time.
type Message struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SenderID     string             `json:"senderId" bson:"sender_id"`
	ReceiverID   string             `json:"receiverId,omitempty" bson:"receiver_id,omitempty"`
	Recipients   []string           `json:"recipients,omitempty" bson:"recipients,omitempty"`
	Content      string             `json:"content" bson:"content"`
	OrderID      string             `json:"orderId,omitempty" bson:"order_id,omitempty"`
	Kind         string             `json:"kind" bson:"kind"`
	IsRead       bool               `json:"isRead" bson:"is_read"`
	ReadAt       *time.Time         `json:"readAt,omitempty" bson:"read_at,omitempty"`
	ReadReceipts []ReadReceipt      `json:"readReceipts,omitempty" bson:"read_receipts,omitempty"`
	CreatedAt    time.Time          `json:"createdAt" bson:"created_at"`
}

// ReadReceipt records one recipient's acknowledgment of a broadcast message.
type ReadReceipt struct {
	RecipientID string    `json:"recipientId" bson:"recipient_id"`
	ReadAt      time.Time `json:"readAt" bson:"read_at"`
}

// IsBroadcast reports whether the message is addressed to a recipient set
// rather than a single receiver.
func (m *Message) IsBroadcast() bool {
	return len(m.Recipients) > 0
}

// AddressedTo reports whether userID is an intended recipient of the message.
func (m *Message) AddressedTo(userID string) bool {
	if m.ReceiverID != "" && m.ReceiverID == userID {
		return true
	}
	for _, r := range m.Recipients {
		if r == userID {
			return true
		}
	}
	return false
}

// ReadBy reports whether userID has acknowledged the message. For direct
// messages this is the single IsRead flag; for broadcasts it is the presence
// of a matching read receipt.
func (m *Message) ReadBy(userID string) bool {
	if m.IsBroadcast() {
		for _, rr := range m.ReadReceipts {
			if rr.RecipientID == userID {
				return true
			}
		}
		return false
	}
	return m.ReceiverID == userID && m.IsRead
}

// UnreadFor reports whether the message counts toward userID's unread total.
func (m *Message) UnreadFor(userID string) bool {
	return m.AddressedTo(userID) && !m.ReadBy(userID)
}
