package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WishlistItem points from a requester's wishlist to a donation. Entries are
// added and removed, never edited.
type WishlistItem struct {
	ID         string             `bson:"id" json:"id"`
	DonationID primitive.ObjectID `bson:"donationId" json:"donationId"`
	AddedAt    time.Time          `bson:"addedAt" json:"addedAt"`
}

// Wishlist is the per-requester wishlist document, keyed by requester email.
type Wishlist struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email string             `bson:"email" json:"email"`
	Items []WishlistItem     `bson:"items" json:"items"`
}
