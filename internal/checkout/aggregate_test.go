package checkout

import (
	"context"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

type fakeDirectory struct {
	profiles map[string]DonorProfile
}

func (d fakeDirectory) DonorByEmail(ctx context.Context, email string) (DonorProfile, error) {
	profile, ok := d.profiles[email]
	if !ok {
		return DonorProfile{}, fmt.Errorf("donor %s not found", email)
	}
	return profile, nil
}

type fakeResolver struct {
	meters map[string]float64
}

func (r fakeResolver) DistanceMeters(ctx context.Context, origin, destination string) (float64, error) {
	return r.meters[origin], nil
}

func donation(donor string, weightKg float64) models.Donation {
	return models.Donation{
		ID:                primitive.NewObjectID(),
		DonorEmail:        donor,
		WeightKg:          models.Weight(weightKg),
		PublicationStatus: models.DonationApproved,
	}
}

func TestGroupByDonorBucketsInFirstOccurrenceOrder(t *testing.T) {
	selected := []models.Donation{
		donation("bob@example.com", 2),
		donation("alice@example.com", 1),
		donation("bob@example.com", 3),
	}
	directory := fakeDirectory{profiles: map[string]DonorProfile{
		"alice@example.com": {Email: "alice@example.com", Name: "Alice", Address: "alice st"},
		"bob@example.com":   {Email: "bob@example.com", Name: "Bob", Address: "bob st"},
	}}

	sections := GroupByDonor(context.Background(), selected, "req st", directory, fakeResolver{})
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].DonorEmail != "bob@example.com" || sections[1].DonorEmail != "alice@example.com" {
		t.Fatalf("sections out of insertion order: %s, %s", sections[0].DonorEmail, sections[1].DonorEmail)
	}
	if sections[0].TotalWeightKg != 5 {
		t.Fatalf("expected bob's weight 5, got %v", sections[0].TotalWeightKg)
	}
	if len(sections[0].Donations) != 2 || len(sections[1].Donations) != 1 {
		t.Fatalf("donations split wrong: %d, %d", len(sections[0].Donations), len(sections[1].Donations))
	}
}

func TestGroupByDonorConservesWeight(t *testing.T) {
	selected := []models.Donation{
		donation("a@example.com", 1.5),
		donation("b@example.com", 2.25),
		donation("a@example.com", 0),
		donation("c@example.com", 4),
	}
	directory := fakeDirectory{profiles: map[string]DonorProfile{}}

	sections := GroupByDonor(context.Background(), selected, "req st", directory, fakeResolver{})

	var inputTotal, sectionTotal float64
	for _, d := range selected {
		inputTotal += d.WeightKg.Kg()
	}
	for _, s := range sections {
		sectionTotal += s.TotalWeightKg
	}
	if inputTotal != sectionTotal {
		t.Fatalf("weight not conserved: input %v, sections %v", inputTotal, sectionTotal)
	}
}

func TestGroupByDonorUnresolvableDonorStillIncluded(t *testing.T) {
	selected := []models.Donation{donation("ghost@example.com", 3)}
	directory := fakeDirectory{profiles: map[string]DonorProfile{}}

	sections := GroupByDonor(context.Background(), selected, "req st", directory, fakeResolver{meters: map[string]float64{"": 9000}})
	if len(sections) != 1 {
		t.Fatalf("expected section for unresolvable donor, got %d", len(sections))
	}
	if sections[0].DeliveryFee != 0 {
		t.Fatalf("expected delivery fee 0 without donor address, got %v", sections[0].DeliveryFee)
	}
	if sections[0].DisposalFee != 15 {
		t.Fatalf("expected base disposal fee, got %v", sections[0].DisposalFee)
	}
}

func TestTotalsAggregateAcrossSections(t *testing.T) {
	sections := []RequestSection{
		{DeliveryFee: 25, DisposalFee: 15},
		{DeliveryFee: 15, DisposalFee: 33},
	}
	deliveryFee, disposalFee := Totals(sections)
	if deliveryFee != 40 || disposalFee != 48 {
		t.Fatalf("unexpected totals: delivery %v, disposal %v", deliveryFee, disposalFee)
	}
}
