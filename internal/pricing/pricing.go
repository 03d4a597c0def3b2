// Package pricing computes the fixed-distance fare estimate shown during booking.
package pricing

import (
	"math"

	"github.com/example/rolo/internal/models"
	"github.com/example/rolo/internal/storage"
)

// AssumedDistanceKm stands in for a real trip distance. No routing is done;
// every estimate assumes this distance unless configured otherwise.
const AssumedDistanceKm = 10.0

// DefaultETA is the display ETA for vehicles that do not carry one.
const DefaultETA = "5 min"

// VehicleRates are the two price columns of a vehicle record.
type VehicleRates struct {
	BasePrice  float64
	PricePerKm float64
}

func RatesOf(v models.Vehicle) VehicleRates {
	return VehicleRates{BasePrice: v.BasePrice, PricePerKm: v.PricePerKm}
}

// Estimate returns base + perKm*distance rounded to a whole currency unit.
// Halves round to even, so {2, 0.5} over 5km quotes 4.
func Estimate(r VehicleRates, distanceKm float64) float64 {
	return math.RoundToEven(r.BasePrice + r.PricePerKm*distanceKm)
}

// Breakdown splits a fare the way the confirmation screen shows it.
type Breakdown struct {
	BaseFare      float64 `json:"base_fare"`
	ServiceCharge float64 `json:"service_charge"`
	Taxes         float64 `json:"taxes"`
	Total         float64 `json:"total"`
}

func BreakdownOf(price float64) Breakdown {
	return Breakdown{
		BaseFare:      math.Round(price * 0.8),
		ServiceCharge: math.Round(price * 0.1),
		Taxes:         math.Round(price * 0.1),
		Total:         price,
	}
}

// MinorUnits converts a fare to the smallest currency unit for the payment widget.
func MinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

// Selection decorates a backend vehicle with its estimated price and display ETA.
func Selection(v models.Vehicle, distanceKm float64) models.VehicleSelection {
	return storage.SelectionFromVehicle(v, Estimate(RatesOf(v), distanceKm), DefaultETA)
}
