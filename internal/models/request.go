package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Request status lifecycle.
const (
	RequestPending   = "Pending"
	RequestApproved  = "Approved"
	RequestReceiving = "Receiving"
	RequestCompleted = "Completed"
	RequestDeclined  = "Declined"
	RequestCancelled = "Cancelled"
)

// Delivery sub-state, meaningful from Receiving onwards.
const (
	DeliveryProcessing = "Processing"
	DeliveryWaiting    = "Waiting"
	DeliveryConfirmed  = "Confirmed"
)

// DonorDetail references one donation included in a request, together with
// the donor it belongs to.
type DonorDetail struct {
	DonationID primitive.ObjectID `bson:"donationId" json:"donationId"`
	DonorEmail string             `bson:"donorEmail" json:"donorEmail"`
}

// Request is a requester's claim against one or more donations. It is the
// unit the fulfillment state machine operates on; terminal requests are kept
// as history and never deleted.
type Request struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RequesterEmail  string             `bson:"requesterEmail" json:"requesterEmail"`
	Address         string             `bson:"address" json:"address"`
	DonorDetails    []DonorDetail      `bson:"donorDetails" json:"donorDetails"`
	PaymentMethod   string             `bson:"paymentMethod" json:"paymentMethod"`
	DeliveryFee     float64            `bson:"deliveryFee" json:"deliveryFee"`
	DisposalFee     float64            `bson:"disposalFee" json:"disposalFee"`
	Status          string             `bson:"status" json:"status"`
	DeliveredStatus string             `bson:"deliveredStatus,omitempty" json:"deliveredStatus,omitempty"`
	DateRequested   time.Time          `bson:"dateRequested" json:"dateRequested"`
	DeliveryStart   *time.Time         `bson:"deliveryStart,omitempty" json:"deliveryStart,omitempty"`
	DeliveryEnd     *time.Time         `bson:"deliveryEnd,omitempty" json:"deliveryEnd,omitempty"`
	DateDelivered   *time.Time         `bson:"dateDelivered,omitempty" json:"dateDelivered,omitempty"`
	DateReceived    *time.Time         `bson:"dateReceived,omitempty" json:"dateReceived,omitempty"`
	ReceivedPhoto   string             `bson:"receivedPhoto,omitempty" json:"receivedPhoto,omitempty"`
}

// Terminal reports whether the request has reached a final state.
func (r Request) Terminal() bool {
	switch r.Status {
	case RequestCompleted, RequestDeclined, RequestCancelled:
		return true
	}
	return false
}

// DonationIDs returns every donation referenced by the request.
func (r Request) DonationIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(r.DonorDetails))
	for _, d := range r.DonorDetails {
		ids = append(ids, d.DonationID)
	}
	return ids
}

// DonorEmails returns the distinct donors referenced by the request, in
// first-occurrence order.
func (r Request) DonorEmails() []string {
	seen := make(map[string]struct{}, len(r.DonorDetails))
	emails := make([]string, 0, len(r.DonorDetails))
	for _, d := range r.DonorDetails {
		if _, ok := seen[d.DonorEmail]; ok {
			continue
		}
		seen[d.DonorEmail] = struct{}{}
		emails = append(emails, d.DonorEmail)
	}
	return emails
}
