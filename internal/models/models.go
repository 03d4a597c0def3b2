package models

import (
	"errors"
	"time"
)

// Session is the authenticated identity attached to every request.
type Session struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Contact     string `json:"contact"`
}

// VehicleSelection is the UI-facing copy of a vehicle, decorated with a
// computed price and display ETA. It only lives inside a BookingFlow or Ride.
type VehicleSelection struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	ETA         string  `json:"eta"`
	Image       string  `json:"image"`
	Description string  `json:"description"`
}

// BookingFlow holds the not-yet-persisted selections of a booking.
type BookingFlow struct {
	Pickup          string            `json:"pickup"`
	Dropoff         string            `json:"dropoff"`
	SelectedVehicle *VehicleSelection `json:"selected_vehicle,omitempty"`
	EstimatedPrice  *float64          `json:"estimated_price,omitempty"`
}

// Vehicle is a backend vehicle record.
type Vehicle struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	PricePerKm  float64 `json:"price_per_km"`
	BasePrice   float64 `json:"base_price"`
	ImageURL    string  `json:"image_url"`
	IsAvailable bool    `json:"is_available"`
}

// Driver is the rider-facing view of the driver attached to a ride.
type Driver struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Rating      float64 `json:"rating"`
	Car         string  `json:"car"`
	PlateNumber string  `json:"plate_number"`
	Photo       string  `json:"photo"`
}

// DriverRecord is a backend driver row.
type DriverRecord struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Phone       string  `json:"phone"`
	CarModel    string  `json:"car_model"`
	PlateNumber string  `json:"plate_number"`
	Rating      float64 `json:"rating"`
	PhotoURL    string  `json:"photo_url"`
	IsAvailable bool    `json:"is_available"`
}

type RideStatus string

const (
	StatusUpcoming   RideStatus = "upcoming"
	StatusInProgress RideStatus = "in-progress"
	StatusCompleted  RideStatus = "completed"
	// StatusCancelled only appears in history for rides cancelled outside the app.
	StatusCancelled RideStatus = "cancelled"
)

// Ride is the canonical ride record held as the current booking and listed in history.
type Ride struct {
	ID      string           `json:"id"`
	UserID  string           `json:"user_id"`
	Pickup  string           `json:"pickup"`
	Dropoff string           `json:"dropoff"`
	Vehicle VehicleSelection `json:"vehicle"`
	Driver  *Driver          `json:"driver,omitempty"`
	Price   float64          `json:"price"`
	Status  RideStatus       `json:"status"`
	Date    string           `json:"date"`
	Rating  *int             `json:"rating,omitempty"`
}

var ErrDriverInvariant = errors.New("ride has a driver iff it is in progress or completed")

// Validate checks the driver/status invariant. It holds for the current
// booking; history rows served by the mock driver carry no driver.
func (r *Ride) Validate() error {
	hasDriver := r.Driver != nil
	needsDriver := r.Status == StatusInProgress || r.Status == StatusCompleted
	if hasDriver != needsDriver {
		return ErrDriverInvariant
	}
	return nil
}

// RideDate formats t the way ride dates are shown to riders.
func RideDate(t time.Time) string {
	return t.Format("2006-01-02")
}

type Profile struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// RideEvent records one lifecycle transition of a ride.
type RideEvent struct {
	RideID string     `json:"ride_id"`
	UserID string     `json:"user_id"`
	From   RideStatus `json:"from"`
	To     RideStatus `json:"to"`
	At     time.Time  `json:"at"`
}
