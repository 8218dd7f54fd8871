package checkout

import (
	"context"
	"log"

	"backend/internal/fees"
	"backend/internal/models"
)

// DonorProfile is the slice of a user record the aggregator needs.
type DonorProfile struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// DonorDirectory looks up donor profiles. Backed by the users collection in
// production, faked in tests.
type DonorDirectory interface {
	DonorByEmail(ctx context.Context, email string) (DonorProfile, error)
}

// RequestSection groups the donations of one donor inside a checkout attempt,
// with that donor's weight and fee subtotals. Sections are derived fresh per
// checkout and never persisted.
type RequestSection struct {
	DonorEmail    string            `json:"donorEmail"`
	DonorName     string            `json:"donorName,omitempty"`
	Donations     []models.Donation `json:"donations"`
	TotalWeightKg float64           `json:"totalWeightKg"`
	DeliveryFee   float64           `json:"deliveryFee"`
	DisposalFee   float64           `json:"disposalFee"`
}

// GroupByDonor buckets the selected donations by donor, in first-occurrence
// order, and computes per-donor fee subtotals against the requester's
// address. A donor whose profile or address cannot be resolved still gets a
// section; only the delivery fee degrades to 0.
func GroupByDonor(ctx context.Context, selected []models.Donation, requesterAddress string, directory DonorDirectory, resolver fees.DistanceResolver) []RequestSection {
	sections := make([]RequestSection, 0)
	index := make(map[string]int)

	for _, donation := range selected {
		i, ok := index[donation.DonorEmail]
		if !ok {
			i = len(sections)
			index[donation.DonorEmail] = i
			sections = append(sections, RequestSection{
				DonorEmail: donation.DonorEmail,
				Donations:  make([]models.Donation, 0, 1),
			})
		}
		sections[i].Donations = append(sections[i].Donations, donation)
		sections[i].TotalWeightKg += donation.WeightKg.Kg()
	}

	for i := range sections {
		profile, err := directory.DonorByEmail(ctx, sections[i].DonorEmail)
		if err != nil {
			log.Println("[CHECKOUT] [WARN] donor lookup failed for", sections[i].DonorEmail, ":", err)
			profile = DonorProfile{Email: sections[i].DonorEmail}
		}
		sections[i].DonorName = profile.Name
		sections[i].DeliveryFee = fees.ComputeDeliveryFee(ctx, resolver, profile.Address, requesterAddress)
		sections[i].DisposalFee = fees.ComputeDisposalFee(sections[i].TotalWeightKg)
	}

	return sections
}

// Totals sums the fee subtotals across all sections, the aggregate stored on
// the request at creation time.
func Totals(sections []RequestSection) (deliveryFee, disposalFee float64) {
	for _, s := range sections {
		deliveryFee += s.DeliveryFee
		disposalFee += s.DisposalFee
	}
	return deliveryFee, disposalFee
}
