package storage

import (
	"context"
	"errors"
	"time"

	"github.com/example/rolo/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// Backend ride statuses as defined by the rides table.
const (
	RideStatusPending        = "pending"
	RideStatusConfirmed      = "confirmed"
	RideStatusDriverAssigned = "driver_assigned"
	RideStatusInProgress     = "in_progress"
	RideStatusCompleted      = "completed"
	RideStatusCancelled      = "cancelled"
)

// RideRow is a rides row joined with its vehicle and driver.
type RideRow struct {
	ID              string
	UserID          string
	VehicleID       string
	DriverID        *string
	PickupLocation  string
	DropoffLocation string
	EstimatedPrice  float64
	FinalPrice      *float64
	Status          string
	Rating          *int
	CreatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time

	Vehicle *models.Vehicle
	Driver  *models.DriverRecord
}

// NewRide carries the fields of a create-ride request.
type NewRide struct {
	UserID          string
	PickupLocation  string
	DropoffLocation string
	VehicleID       string
	EstimatedPrice  float64
}

// RidePatch lists the ride columns the client may update. Nil fields are left alone.
type RidePatch struct {
	Status      *string
	DriverID    *string
	FinalPrice  *float64
	Rating      *int
	StartedAt   *time.Time
	CompletedAt *time.Time
}

type ProfilePatch struct {
	FullName *string
	Phone    *string
}

// NewVehicle carries the fields of the fallback create-vehicle call.
type NewVehicle struct {
	Name        string
	Type        string
	Description string
	PricePerKm  float64
	BasePrice   float64
	ImageURL    string
}

// User is an auth account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	CreatedAt    time.Time
}

// DataService is the backend the app orchestrates over.
type DataService interface {
	ListVehicles(ctx context.Context) ([]models.Vehicle, error)
	ListDrivers(ctx context.Context) ([]models.DriverRecord, error)
	ListRides(ctx context.Context, userID string) ([]RideRow, error)
	GetRide(ctx context.Context, id string) (RideRow, error)
	CreateRide(ctx context.Context, r NewRide) (RideRow, error)
	UpdateRide(ctx context.Context, id string, p RidePatch) (RideRow, error)
	CreateVehicle(ctx context.Context, v NewVehicle) (models.Vehicle, error)

	GetProfile(ctx context.Context, userID string) (models.Profile, error)
	CreateProfile(ctx context.Context, userID, fullName, phone string) (models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, p ProfilePatch) (models.Profile, error)

	CreateUser(ctx context.Context, u User) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
}
