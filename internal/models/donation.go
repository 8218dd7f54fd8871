package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Publication lifecycle of a donation bundle.
const (
	DonationPending  = "pending"
	DonationApproved = "approved"
	DonationTaken    = "taken"
)

// Donation is a reusable-item bundle offered by a donor. Items are bundled
// together: one donation, one pickup, one weight declaration.
type Donation struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DonorEmail        string             `bson:"donorEmail" json:"donorEmail"`
	Items             StringList         `bson:"items" json:"items"`
	Category          string             `bson:"category" json:"category"`
	WeightKg          Weight             `bson:"weightKg" json:"weightKg"`
	Location          string             `bson:"location" json:"location"`
	Photo             string             `bson:"photo,omitempty" json:"photo,omitempty"`
	SubPhotos         StringList         `bson:"subPhotos" json:"subPhotos"`
	PublicationStatus string             `bson:"publicationStatus" json:"publicationStatus"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
}

// Available reports whether the donation can still be targeted by a new
// request or wishlist entry.
func (d Donation) Available() bool {
	return d.PublicationStatus == DonationApproved
}
