package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/rolo/internal/models"
)

func TestMemoryStoreRideLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.SeedVehicles(models.Vehicle{Type: "sedan", Name: "Audi A4", BasePrice: 5, PricePerKm: 1, IsAvailable: true})
	vs, _ := m.ListVehicles(ctx)
	if len(vs) != 1 || vs[0].ID == "" {
		t.Fatalf("expected one seeded vehicle with id, got %+v", vs)
	}

	row, err := m.CreateRide(ctx, NewRide{UserID: "u1", PickupLocation: "A", DropoffLocation: "B", VehicleID: vs[0].ID, EstimatedPrice: 15})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if row.Status != RideStatusConfirmed || row.Vehicle == nil || row.Vehicle.Name != "Audi A4" {
		t.Fatalf("unexpected row %+v", row)
	}

	status := RideStatusInProgress
	now := time.Now()
	row, err = m.UpdateRide(ctx, row.ID, RidePatch{Status: &status, StartedAt: &now})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if row.Status != RideStatusInProgress || row.StartedAt == nil {
		t.Fatalf("patch not applied: %+v", row)
	}

	rides, _ := m.ListRides(ctx, "u1")
	if len(rides) != 1 {
		t.Fatalf("expected 1 ride, got %d", len(rides))
	}
	if rides, _ := m.ListRides(ctx, "someone-else"); len(rides) != 0 {
		t.Fatalf("rides leaked across users")
	}
}

func TestMemoryStoreCreateRideRejectsUnknownVehicle(t *testing.T) {
	m := NewMemoryStore()
	_, err := m.CreateRide(context.Background(), NewRide{UserID: "u1", VehicleID: "1"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreListRidesNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.SeedVehicles(models.Vehicle{Type: "suv", Name: "X5", IsAvailable: true})
	vs, _ := m.ListVehicles(ctx)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	m.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Hour) }
	first, _ := m.CreateRide(ctx, NewRide{UserID: "u1", VehicleID: vs[0].ID})
	second, _ := m.CreateRide(ctx, NewRide{UserID: "u1", VehicleID: vs[0].ID})
	rides, _ := m.ListRides(ctx, "u1")
	if rides[0].ID != second.ID || rides[1].ID != first.ID {
		t.Fatalf("expected newest first")
	}
}

func TestMemoryStoreUsersAndProfiles(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	u, err := m.CreateUser(ctx, User{Email: "Ada@Example.com", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := m.CreateUser(ctx, User{Email: "ada@example.com"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	got, err := m.GetUserByEmail(ctx, "ADA@example.com")
	if err != nil || got.ID != u.ID {
		t.Fatalf("lookup by email: %v %+v", err, got)
	}

	if _, err := m.GetProfile(ctx, u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected no profile yet")
	}
	if _, err := m.CreateProfile(ctx, u.ID, "Ada", ""); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	phone := "+1 555"
	p, err := m.UpdateProfile(ctx, u.ID, ProfilePatch{Phone: &phone})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if p.FullName != "Ada" || p.Phone != "+1 555" {
		t.Fatalf("unexpected profile %+v", p)
	}
}
