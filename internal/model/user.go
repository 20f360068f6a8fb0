package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles in the marketplace.
const (
	RoleCustomer = "customer"
	RoleVendor   = "vendor"
	RoleDelivery = "delivery"
	RoleAdmin    = "admin"
)

// User represents a user document in MongoDB.
type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID       string             `json:"userId" bson:"user_id"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	Role         string             `json:"role" bson:"role"`
	Avatar       string             `json:"avatar" bson:"avatar"`
	BusinessName string             `json:"businessName,omitempty" bson:"business_name,omitempty"`
	IsActive     bool               `json:"isActive" bson:"is_active"`
	PushToken    string             `json:"-" bson:"push_token,omitempty"`
	CreatedAt    time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt    *time.Time         `json:"updatedAt" bson:"updated_at"`
}

// ValidRole reports whether role is one of the four marketplace roles.
func ValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleVendor, RoleDelivery, RoleAdmin:
		return true
	}
	return false
}
