package booking

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/rolo/internal/models"
	"github.com/example/rolo/internal/pricing"
)

var ErrUnknownVehicle = errors.New("unknown vehicle")

// FallbackVehicles is the local catalog offered when the backend has no
// available vehicles. Their ids are not backend ids; booking one goes through
// vehicle reconciliation.
var FallbackVehicles = []models.Vehicle{
	{ID: "1", Type: "sedan", Name: "Audi A4", Description: "Premium comfort and performance for up to 4 passengers",
		BasePrice: 5, PricePerKm: 1, ImageURL: "/assets/audi-a4.png", IsAvailable: true},
	{ID: "2", Type: "suv", Name: "BMW 3 Series", Description: "Luxury sedan with advanced technology and comfort",
		BasePrice: 8, PricePerKm: 1.5, ImageURL: "/assets/bmw-3-series.png", IsAvailable: true},
	{ID: "3", Type: "luxury_sedan", Name: "Mercedes C-Class", Description: "Executive luxury with premium amenities",
		BasePrice: 10, PricePerKm: 2, ImageURL: "/assets/mercedes-c-class.png", IsAvailable: true},
}

type VehicleLister interface {
	ListVehicles(ctx context.Context) ([]models.Vehicle, error)
}

// Catalog lists the vehicles a rider can choose, priced at the assumed distance.
type Catalog struct {
	lister     VehicleLister
	distanceKm float64
	logger     *slog.Logger
}

func NewCatalog(lister VehicleLister, distanceKm float64, logger *slog.Logger) *Catalog {
	if distanceKm <= 0 {
		distanceKm = pricing.AssumedDistanceKm
	}
	return &Catalog{lister: lister, distanceKm: distanceKm, logger: logger}
}

func (c *Catalog) DistanceKm() float64 { return c.distanceKm }

// Vehicles returns the available backend vehicles, or the fallback catalog
// when the backend fails or has none.
func (c *Catalog) Vehicles(ctx context.Context) []models.Vehicle {
	vs, err := c.lister.ListVehicles(ctx)
	if err != nil && c.logger != nil {
		c.logger.Warn("list vehicles failed, using fallback catalog", "error", err)
	}
	if err != nil || len(vs) == 0 {
		return FallbackVehicles
	}
	return vs
}

func (c *Catalog) Selections(ctx context.Context) []models.VehicleSelection {
	vs := c.Vehicles(ctx)
	out := make([]models.VehicleSelection, 0, len(vs))
	for _, v := range vs {
		out = append(out, pricing.Selection(v, c.distanceKm))
	}
	return out
}

// Select prices the catalog vehicle with the given id.
func (c *Catalog) Select(ctx context.Context, id string) (models.VehicleSelection, error) {
	for _, v := range c.Vehicles(ctx) {
		if v.ID == id {
			return pricing.Selection(v, c.distanceKm), nil
		}
	}
	return models.VehicleSelection{}, ErrUnknownVehicle
}
