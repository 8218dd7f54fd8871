package handlers

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/checkout"
	"backend/internal/models"
)

func TestBuildRequestFromSectionsAggregatesFees(t *testing.T) {
	aliceDonation := models.Donation{ID: primitive.NewObjectID(), DonorEmail: "alice@example.com"}
	bobDonation1 := models.Donation{ID: primitive.NewObjectID(), DonorEmail: "bob@example.com"}
	bobDonation2 := models.Donation{ID: primitive.NewObjectID(), DonorEmail: "bob@example.com"}

	sections := []checkout.RequestSection{
		{
			DonorEmail:  "bob@example.com",
			Donations:   []models.Donation{bobDonation1, bobDonation2},
			DeliveryFee: 25,
			DisposalFee: 33,
		},
		{
			DonorEmail:  "alice@example.com",
			Donations:   []models.Donation{aliceDonation},
			DeliveryFee: 15,
			DisposalFee: 15,
		},
	}

	now := time.Now()
	request := buildRequestFromSections("requester@example.com", "12 Reuse Road", "card", sections, now)

	if request.Status != models.RequestPending {
		t.Fatalf("expected Pending, got %s", request.Status)
	}
	if request.DeliveryFee != 40 || request.DisposalFee != 48 {
		t.Fatalf("fees not aggregated: delivery %v, disposal %v", request.DeliveryFee, request.DisposalFee)
	}
	if len(request.DonorDetails) != 3 {
		t.Fatalf("expected 3 donor details, got %d", len(request.DonorDetails))
	}
	if request.DonorDetails[0].DonorEmail != "bob@example.com" {
		t.Fatalf("donor details out of section order: %s", request.DonorDetails[0].DonorEmail)
	}
	if !request.DateRequested.Equal(now) {
		t.Fatal("expected dateRequested to be the checkout instant")
	}
}

func TestBuildRequestDefaultsPaymentMethod(t *testing.T) {
	request := buildRequestFromSections("requester@example.com", "12 Reuse Road", "  ", nil, time.Now())
	if request.PaymentMethod != "cash" {
		t.Fatalf("expected default payment method cash, got %q", request.PaymentMethod)
	}
}

func TestRequestPartyCoversBothSides(t *testing.T) {
	request := models.Request{
		RequesterEmail: "requester@example.com",
		DonorDetails: []models.DonorDetail{
			{DonationID: primitive.NewObjectID(), DonorEmail: "donor@example.com"},
		},
	}

	if !requestParty(request, "requester@example.com") {
		t.Fatal("requester must be a party to the request")
	}
	if !requestParty(request, "donor@example.com") {
		t.Fatal("donor must be a party to the request")
	}
	if requestParty(request, "stranger@example.com") {
		t.Fatal("strangers are not parties to the request")
	}
}
