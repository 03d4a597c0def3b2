package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/rolo/internal/models"
)

// MemoryStore is a DataService kept in process memory. It backs local runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	vehicles []models.Vehicle
	drivers  []models.DriverRecord
	rides    map[string]*RideRow
	profiles map[string]models.Profile
	users    map[string]User

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rides:    make(map[string]*RideRow),
		profiles: make(map[string]models.Profile),
		users:    make(map[string]User),
		now:      time.Now,
	}
}

// SeedVehicles adds vehicles, assigning ids to those without one.
func (m *MemoryStore) SeedVehicles(vs ...models.Vehicle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range vs {
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		m.vehicles = append(m.vehicles, v)
	}
}

func (m *MemoryStore) SeedDrivers(ds ...models.DriverRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range ds {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		m.drivers = append(m.drivers, d)
	}
}

func (m *MemoryStore) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Vehicle, 0, len(m.vehicles))
	for _, v := range m.vehicles {
		if v.IsAvailable {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *MemoryStore) ListDrivers(ctx context.Context) ([]models.DriverRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.DriverRecord, 0, len(m.drivers))
	for _, d := range m.drivers {
		if d.IsAvailable {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MemoryStore) ListRides(ctx context.Context, userID string) ([]RideRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RideRow, 0)
	for _, r := range m.rides {
		if r.UserID == userID {
			out = append(out, m.joined(*r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) GetRide(ctx context.Context, id string) (RideRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rides[id]
	if !ok {
		return RideRow{}, ErrNotFound
	}
	return m.joined(*r), nil
}

func (m *MemoryStore) CreateRide(ctx context.Context, nr NewRide) (RideRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vehicleByID(nr.VehicleID) == nil {
		return RideRow{}, ErrNotFound
	}
	r := &RideRow{
		ID:              uuid.NewString(),
		UserID:          nr.UserID,
		VehicleID:       nr.VehicleID,
		PickupLocation:  nr.PickupLocation,
		DropoffLocation: nr.DropoffLocation,
		EstimatedPrice:  nr.EstimatedPrice,
		Status:          RideStatusConfirmed,
		CreatedAt:       m.now(),
	}
	m.rides[r.ID] = r
	return m.joined(*r), nil
}

func (m *MemoryStore) UpdateRide(ctx context.Context, id string, p RidePatch) (RideRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok {
		return RideRow{}, ErrNotFound
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.DriverID != nil {
		d := *p.DriverID
		r.DriverID = &d
	}
	if p.FinalPrice != nil {
		f := *p.FinalPrice
		r.FinalPrice = &f
	}
	if p.Rating != nil {
		v := *p.Rating
		r.Rating = &v
	}
	if p.StartedAt != nil {
		t := *p.StartedAt
		r.StartedAt = &t
	}
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		r.CompletedAt = &t
	}
	return m.joined(*r), nil
}

func (m *MemoryStore) CreateVehicle(ctx context.Context, nv NewVehicle) (models.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := models.Vehicle{
		ID:          uuid.NewString(),
		Type:        nv.Type,
		Name:        nv.Name,
		Description: nv.Description,
		PricePerKm:  nv.PricePerKm,
		BasePrice:   nv.BasePrice,
		ImageURL:    nv.ImageURL,
		IsAvailable: true,
	}
	m.vehicles = append(m.vehicles, v)
	return v, nil
}

func (m *MemoryStore) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[userID]
	if !ok {
		return models.Profile{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryStore) CreateProfile(ctx context.Context, userID, fullName, phone string) (models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[userID]; ok {
		return models.Profile{}, ErrConflict
	}
	p := models.Profile{ID: uuid.NewString(), UserID: userID, FullName: fullName, Phone: phone}
	m.profiles[userID] = p
	return p, nil
}

func (m *MemoryStore) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return models.Profile{}, ErrNotFound
	}
	if patch.FullName != nil {
		p.FullName = *patch.FullName
	}
	if patch.Phone != nil {
		p.Phone = *patch.Phone
	}
	m.profiles[userID] = p
	return p, nil
}

func (m *MemoryStore) CreateUser(ctx context.Context, u User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := m.users[key]; ok {
		return User{}, ErrConflict
	}
	u.ID = uuid.NewString()
	u.CreatedAt = m.now()
	m.users[key] = u
	return u, nil
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

// joined expects m.mu to be held.
func (m *MemoryStore) joined(r RideRow) RideRow {
	if v := m.vehicleByID(r.VehicleID); v != nil {
		vc := *v
		r.Vehicle = &vc
	}
	if r.DriverID != nil {
		for _, d := range m.drivers {
			if d.ID == *r.DriverID {
				dc := d
				r.Driver = &dc
				break
			}
		}
	}
	return r
}

func (m *MemoryStore) vehicleByID(id string) *models.Vehicle {
	for i := range m.vehicles {
		if m.vehicles[i].ID == id {
			return &m.vehicles[i]
		}
	}
	return nil
}
