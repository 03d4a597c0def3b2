package dispatch

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/example/rolo/internal/models"
	"github.com/example/rolo/internal/storage"
)

// MockDriver is assigned when no backend driver is available.
var MockDriver = models.Driver{
	ID:          "1",
	Name:        "Michael Chen",
	Rating:      4.9,
	Car:         "Mercedes S-Class",
	PlateNumber: "LUX 001",
	Photo:       "/placeholder.svg",
}

// ProgressFunc receives search progress as a percentage.
type ProgressFunc func(percent int)

// DriverSearch finds a driver for a confirmed ride.
type DriverSearch interface {
	FindDriver(ctx context.Context, ride models.Ride, progress ProgressFunc) (models.Driver, error)
}

// TripTracker returns once the ride has reached its destination.
type TripTracker interface {
	Track(ctx context.Context, ride models.Ride) error
}

type DriverLister interface {
	ListDrivers(ctx context.Context) ([]models.DriverRecord, error)
}

// Simulator fakes the search and the trip with timers.
type Simulator struct {
	Tick        time.Duration
	Ticks       int
	AssignDelay time.Duration
	TripDwell   time.Duration
	// Drivers, when set, supplies a real available driver ahead of MockDriver.
	Drivers DriverLister
	Logger  *slog.Logger
}

func NewSimulator() *Simulator {
	return &Simulator{
		Tick:        300 * time.Millisecond,
		Ticks:       10,
		AssignDelay: 2 * time.Second,
		TripDwell:   10 * time.Second,
	}
}

func (s *Simulator) FindDriver(ctx context.Context, ride models.Ride, progress ProgressFunc) (models.Driver, error) {
	ticks := s.Ticks
	if ticks <= 0 {
		ticks = 1
	}
	if s.Tick > 0 {
		t := time.NewTicker(s.Tick)
		defer t.Stop()
		for i := 1; i <= ticks; i++ {
			select {
			case <-ctx.Done():
				return models.Driver{}, ctx.Err()
			case <-t.C:
			}
			if progress != nil {
				progress(i * 100 / ticks)
			}
		}
	} else if progress != nil {
		progress(100)
	}
	if err := sleep(ctx, s.AssignDelay); err != nil {
		return models.Driver{}, err
	}
	return s.pick(ctx), nil
}

func (s *Simulator) Track(ctx context.Context, ride models.Ride) error {
	return sleep(ctx, s.TripDwell)
}

func (s *Simulator) pick(ctx context.Context) models.Driver {
	if s.Drivers == nil {
		return MockDriver
	}
	ds, err := s.Drivers.ListDrivers(ctx)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("list drivers failed, assigning mock driver", "error", err)
		}
		return MockDriver
	}
	best, ok := bestRated(ds)
	if !ok {
		return MockDriver
	}
	return storage.DriverFromRecord(best)
}

// bestRated picks the available driver with the highest rating; ties keep list order.
func bestRated(ds []models.DriverRecord) (models.DriverRecord, bool) {
	avail := make([]models.DriverRecord, 0, len(ds))
	for _, d := range ds {
		if d.IsAvailable {
			avail = append(avail, d)
		}
	}
	if len(avail) == 0 {
		return models.DriverRecord{}, false
	}
	sort.SliceStable(avail, func(i, j int) bool { return avail[i].Rating > avail[j].Rating })
	return avail[0], true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
