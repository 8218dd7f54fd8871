package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Seller is a registered seller profile for the product side of the
// marketplace. Listing products requires an approved seller record.
type Seller struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email"`
	StoreName string             `bson:"storeName" json:"storeName"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Approved  bool               `bson:"approved" json:"approved"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
