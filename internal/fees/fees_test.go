package fees

import (
	"context"
	"testing"
)

type fixedResolver struct {
	meters float64
	err    error
}

func (r fixedResolver) DistanceMeters(ctx context.Context, origin, destination string) (float64, error) {
	return r.meters, r.err
}

func TestDeliveryFeeForKmScenario(t *testing.T) {
	// 1.3 km contains two full half-kilometer steps.
	if got := DeliveryFeeForKm(1.3); got != 25 {
		t.Fatalf("expected fee 25 for 1.3km, got %v", got)
	}
}

func TestDeliveryFeeBaseForShortDistances(t *testing.T) {
	for _, km := range []float64{0, 0.1, 0.49} {
		if got := DeliveryFeeForKm(km); got != 15 {
			t.Fatalf("expected base fee 15 for %vkm, got %v", km, got)
		}
	}
}

func TestDeliveryFeeMonotonic(t *testing.T) {
	prev := DeliveryFeeForKm(0)
	for km := 0.1; km <= 20; km += 0.1 {
		fee := DeliveryFeeForKm(km)
		if fee < prev {
			t.Fatalf("fee decreased from %v to %v at %vkm", prev, fee, km)
		}
		prev = fee
	}
}

func TestComputeDeliveryFeeUsesResolver(t *testing.T) {
	resolver := fixedResolver{meters: 1300}
	if got := ComputeDeliveryFee(context.Background(), resolver, "origin", "destination"); got != 25 {
		t.Fatalf("expected fee 25, got %v", got)
	}
}

func TestComputeDeliveryFeeFailsOpen(t *testing.T) {
	resolver := fixedResolver{err: ErrNoRoute}
	if got := ComputeDeliveryFee(context.Background(), resolver, "origin", "destination"); got != 0 {
		t.Fatalf("expected fee 0 when no route, got %v", got)
	}
}

func TestComputeDeliveryFeeMissingAddress(t *testing.T) {
	resolver := fixedResolver{meters: 1300}
	if got := ComputeDeliveryFee(context.Background(), resolver, "", "destination"); got != 0 {
		t.Fatalf("expected fee 0 for missing origin, got %v", got)
	}
}

func TestComputeDisposalFeeThresholds(t *testing.T) {
	tests := []struct {
		weightKg float64
		want     float64
	}{
		{0, 15},
		{5, 15},
		{6, 21},
		{8, 33},
	}
	for _, tt := range tests {
		if got := ComputeDisposalFee(tt.weightKg); got != tt.want {
			t.Fatalf("expected disposal fee %v for %vkg, got %v", tt.want, tt.weightKg, got)
		}
	}
}
