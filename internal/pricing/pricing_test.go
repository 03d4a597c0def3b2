package pricing

import (
	"testing"

	"github.com/example/rolo/internal/models"
)

func TestEstimate(t *testing.T) {
	cases := []struct {
		name  string
		rates VehicleRates
		dist  float64
		want  float64
	}{
		{"integer rates", VehicleRates{BasePrice: 5, PricePerKm: 1}, 10, 15},
		{"half rounds to even", VehicleRates{BasePrice: 2, PricePerKm: 0.5}, 5, 4},
		{"half rounds to even upward", VehicleRates{BasePrice: 3, PricePerKm: 0.5}, 5, 6},
		{"rounded down", VehicleRates{BasePrice: 2, PricePerKm: 0.4}, 5, 4},
		{"zero distance", VehicleRates{BasePrice: 7, PricePerKm: 3}, 0, 7},
		{"tiny mock rates", VehicleRates{BasePrice: 0.005, PricePerKm: 0.0025}, AssumedDistanceKm, 0},
	}
	for _, tc := range cases {
		if got := Estimate(tc.rates, tc.dist); got != tc.want {
			t.Errorf("%s: Estimate = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestEstimateNonNegative(t *testing.T) {
	for base := 0.0; base < 20; base += 3.3 {
		for rate := 0.0; rate < 5; rate += 0.7 {
			if got := Estimate(VehicleRates{BasePrice: base, PricePerKm: rate}, AssumedDistanceKm); got < 0 {
				t.Fatalf("negative estimate for base=%v rate=%v", base, rate)
			}
		}
	}
}

func TestBreakdownOf(t *testing.T) {
	b := BreakdownOf(45)
	if b.BaseFare != 36 || b.ServiceCharge != 5 || b.Taxes != 5 || b.Total != 45 {
		t.Fatalf("unexpected breakdown %+v", b)
	}
}

func TestMinorUnits(t *testing.T) {
	if got := MinorUnits(15); got != 1500 {
		t.Fatalf("MinorUnits(15) = %d", got)
	}
	if got := MinorUnits(12.5); got != 1250 {
		t.Fatalf("MinorUnits(12.5) = %d", got)
	}
}

func TestSelection(t *testing.T) {
	v := models.Vehicle{ID: "v1", Type: "suv", Name: "BMW X5", BasePrice: 5, PricePerKm: 1, ImageURL: "/x5.png", Description: "roomy"}
	s := Selection(v, AssumedDistanceKm)
	if s.Price != 15 || s.ETA != DefaultETA || s.Image != "/x5.png" || s.Type != "suv" {
		t.Fatalf("unexpected selection %+v", s)
	}
}
