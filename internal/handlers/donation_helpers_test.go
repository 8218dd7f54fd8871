package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"backend/internal/models"
)

func TestNormalizeDonationDocumentLegacyFields(t *testing.T) {
	donation, err := normalizeDonationDocument(bson.M{
		"donorEmail": "donor@example.com",
		"items":      "old kettle",
		"subPhotos":  "uploads/donations/one.jpg",
		"weightKg":   "3.5",
	})
	if err != nil {
		t.Fatalf("normalizeDonationDocument returned error: %v", err)
	}
	if len(donation.Items) != 1 || donation.Items[0] != "old kettle" {
		t.Fatalf("expected single-item list, got %v", donation.Items)
	}
	if len(donation.SubPhotos) != 1 {
		t.Fatalf("expected single sub-photo, got %v", donation.SubPhotos)
	}
	if donation.WeightKg.Kg() != 3.5 {
		t.Fatalf("expected weight 3.5, got %v", donation.WeightKg.Kg())
	}
	if donation.PublicationStatus != models.DonationPending {
		t.Fatalf("expected missing status to default to pending, got %s", donation.PublicationStatus)
	}
}

func TestNormalizeDonationDocumentGarbageWeight(t *testing.T) {
	donation, err := normalizeDonationDocument(bson.M{
		"donorEmail": "donor@example.com",
		"items":      []string{"a", "b"},
		"weightKg":   "very heavy",
	})
	if err != nil {
		t.Fatalf("normalizeDonationDocument returned error: %v", err)
	}
	if donation.WeightKg.Kg() != 0 {
		t.Fatalf("expected unparseable weight to decode as 0, got %v", donation.WeightKg.Kg())
	}
}

func TestParseMultipartDonationRequestWeightFallsBackToZero(t *testing.T) {
	gin.SetMode(gin.TestMode)
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	_ = writer.WriteField("item", "winter coat")
	_ = writer.WriteField("item", "  ")
	_ = writer.WriteField("category", "clothing")
	_ = writer.WriteField("location", "14 Depot Lane")
	_ = writer.WriteField("weightKg", "about two")
	_ = writer.Close()

	req := httptest.NewRequest("POST", "/donations", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req

	parsed, err := parseMultipartDonationRequest(c)
	if err != nil {
		t.Fatalf("parseMultipartDonationRequest returned error: %v", err)
	}
	if !parsed.WeightSet || parsed.WeightKg != 0 {
		t.Fatalf("expected non-numeric weight to parse as 0, got %+v", parsed)
	}
	if len(parsed.Items) != 1 || parsed.Items[0] != "winter coat" {
		t.Fatalf("expected blank items filtered, got %v", parsed.Items)
	}
	if parsed.Location != "14 Depot Lane" {
		t.Fatalf("expected trimmed location, got %q", parsed.Location)
	}
}
