package storage

import (
	"testing"
	"time"

	"github.com/example/rolo/internal/models"
)

func TestStatusRoundTrip(t *testing.T) {
	for _, s := range []models.RideStatus{models.StatusUpcoming, models.StatusInProgress, models.StatusCompleted, models.StatusCancelled} {
		if got := StatusFromBackend(StatusToBackend(s)); got != s {
			t.Errorf("round trip %s -> %s", s, got)
		}
	}
}

func TestStatusFromBackendCollapsesPreTripStates(t *testing.T) {
	for _, s := range []string{RideStatusPending, RideStatusConfirmed, RideStatusDriverAssigned, "unknown"} {
		if got := StatusFromBackend(s); got != models.StatusUpcoming {
			t.Errorf("StatusFromBackend(%q) = %s, want upcoming", s, got)
		}
	}
}

func TestToDomainRide(t *testing.T) {
	created := time.Date(2024, 1, 20, 9, 30, 0, 0, time.UTC)
	rating := 5
	row := RideRow{
		ID:              "r1",
		UserID:          "u1",
		VehicleID:       "v1",
		PickupLocation:  "Downtown Office",
		DropoffLocation: "International Airport",
		EstimatedPrice:  45,
		Status:          RideStatusCompleted,
		Rating:          &rating,
		CreatedAt:       created,
		Vehicle:         &models.Vehicle{ID: "v1", Type: "sedan", Name: "Audi A4", ImageURL: "/a4.png"},
		Driver:          &models.DriverRecord{ID: "d1", Name: "James Wilson", CarModel: "Mercedes C-Class", PlateNumber: "LUX-001", Rating: 4.9},
	}
	r := ToDomainRide(row)
	if r.Pickup != "Downtown Office" || r.Dropoff != "International Airport" {
		t.Fatalf("locations not mapped: %+v", r)
	}
	if r.Status != models.StatusCompleted || r.Date != "2024-01-20" {
		t.Fatalf("status/date = %s/%s", r.Status, r.Date)
	}
	if r.Vehicle.Name != "Audi A4" || r.Vehicle.Price != 45 || r.Vehicle.Image != "/a4.png" {
		t.Fatalf("vehicle not mapped: %+v", r.Vehicle)
	}
	if r.Driver == nil || r.Driver.Car != "Mercedes C-Class" || r.Driver.PlateNumber != "LUX-001" {
		t.Fatalf("driver not mapped: %+v", r.Driver)
	}
	if r.Rating == nil || *r.Rating != 5 {
		t.Fatalf("rating not mapped")
	}
}

func TestToDomainRideWithoutJoins(t *testing.T) {
	r := ToDomainRide(RideRow{ID: "r1", VehicleID: "v9", EstimatedPrice: 15, Status: RideStatusConfirmed})
	if r.Vehicle.ID != "v9" || r.Vehicle.Price != 15 {
		t.Fatalf("vehicle fallback = %+v", r.Vehicle)
	}
	if r.Driver != nil {
		t.Fatalf("unexpected driver")
	}
}

func TestNewRideFrom(t *testing.T) {
	price := 15.0
	nr := NewRideFrom("u1", models.BookingFlow{Pickup: "A", Dropoff: "B", EstimatedPrice: &price}, "v1")
	if nr.PickupLocation != "A" || nr.DropoffLocation != "B" || nr.VehicleID != "v1" || nr.EstimatedPrice != 15 || nr.UserID != "u1" {
		t.Fatalf("unexpected request %+v", nr)
	}
}
