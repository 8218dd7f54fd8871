package fees

import (
	"context"
	"errors"
	"log"
	"math"
)

// ErrNoRoute is returned by a DistanceResolver when no route exists between
// the two addresses.
var ErrNoRoute = errors.New("no route between addresses")

// DistanceResolver resolves the distance in meters between two free-text
// addresses. The production implementation calls the external distance
// service; tests inject a fake.
type DistanceResolver interface {
	DistanceMeters(ctx context.Context, origin, destination string) (float64, error)
}

const (
	deliveryBaseFee = 15.0
	deliveryStepKm  = 0.5
	deliveryStepFee = 5.0

	disposalBaseFee  = 15.0
	disposalFreeKg   = 5.0
	disposalPerKgFee = 6.0 // 30% of the nominal 20/kg disposal rate
)

// DeliveryFeeForKm applies the distance tariff: a flat base plus a step fee
// for every full half kilometer.
func DeliveryFeeForKm(distanceKm float64) float64 {
	if distanceKm < 0 {
		distanceKm = 0
	}
	return deliveryBaseFee + math.Floor(distanceKm/deliveryStepKm)*deliveryStepFee
}

// ComputeDeliveryFee resolves the distance between the two addresses and
// applies the tariff. Lookup failures fail open to a zero fee: a request must
// not be blocked because the routing service is down or the addresses do not
// resolve.
func ComputeDeliveryFee(ctx context.Context, resolver DistanceResolver, origin, destination string) float64 {
	if origin == "" || destination == "" {
		log.Println("[FEES] [WARN] missing address, delivery fee set to 0")
		return 0
	}

	meters, err := resolver.DistanceMeters(ctx, origin, destination)
	if err != nil {
		log.Println("[FEES] [WARN] distance lookup failed, delivery fee set to 0:", err)
		return 0
	}

	return DeliveryFeeForKm(meters / 1000)
}

// ComputeDisposalFee applies the weight tariff to the combined weight of all
// donations from one donor. Weight at or under the free threshold pays only
// the base fee; beyond it a reduced per-kg rate applies.
func ComputeDisposalFee(totalWeightKg float64) float64 {
	if totalWeightKg <= disposalFreeKg {
		return disposalBaseFee
	}
	return disposalBaseFee + (totalWeightKg-disposalFreeKg)*disposalPerKgFee
}
