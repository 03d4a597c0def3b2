package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/rolo/internal/models"
)

func fastSim() *Simulator {
	return &Simulator{Tick: time.Millisecond, Ticks: 10, AssignDelay: time.Millisecond, TripDwell: time.Millisecond}
}

func TestFindDriverReportsProgressAndAssignsMock(t *testing.T) {
	var got []int
	d, err := fastSim().FindDriver(context.Background(), models.Ride{ID: "r1"}, func(p int) { got = append(got, p) })
	if err != nil {
		t.Fatal(err)
	}
	if d != MockDriver {
		t.Fatalf("driver = %+v", d)
	}
	if len(got) != 10 || got[0] != 10 || got[9] != 100 {
		t.Fatalf("progress = %v", got)
	}
}

func TestFindDriverStopsOnCancel(t *testing.T) {
	s := &Simulator{Tick: time.Hour, Ticks: 10}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.FindDriver(ctx, models.Ride{}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTrackStopsOnCancel(t *testing.T) {
	s := &Simulator{TripDwell: time.Hour}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if err := s.Track(ctx, models.Ride{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
}

type fakeDrivers struct {
	ds  []models.DriverRecord
	err error
}

func (f fakeDrivers) ListDrivers(context.Context) ([]models.DriverRecord, error) { return f.ds, f.err }

func TestFindDriverPrefersBackendDriver(t *testing.T) {
	s := fastSim()
	s.Drivers = fakeDrivers{ds: []models.DriverRecord{
		{ID: "d0", Name: "Busy", Rating: 5, IsAvailable: false},
		{ID: "d2", Name: "David Wilson", CarModel: "Audi A8", PlateNumber: "LUX-004", Rating: 4.6, IsAvailable: true},
		{ID: "d1", Name: "Sarah Johnson", CarModel: "BMW 7", PlateNumber: "LUX-002", Rating: 4.8, IsAvailable: true},
	}}
	d, err := s.FindDriver(context.Background(), models.Ride{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if d.ID != "d1" || d.Car != "BMW 7" {
		t.Fatalf("driver = %+v", d)
	}

	s.Drivers = fakeDrivers{err: errors.New("down")}
	if d, _ := s.FindDriver(context.Background(), models.Ride{}, nil); d != MockDriver {
		t.Fatalf("expected mock on error, got %+v", d)
	}
}

type fakeConn struct {
	mu     sync.Mutex
	got    []Event
	fail   bool
	closed bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.got = append(c.got, v.(Event))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func TestHubNotifiesOnlyTheUser(t *testing.T) {
	h := NewHub(nil)
	a1, a2, b := &fakeConn{}, &fakeConn{}, &fakeConn{}
	h.Add("alice", a1)
	h.Add("alice", a2)
	h.Add("bob", b)

	h.Notify("alice", Event{Type: EventSearchProgress, Progress: 50})
	if len(a1.got) != 1 || len(a2.got) != 1 || len(b.got) != 0 {
		t.Fatalf("fan-out wrong: %d %d %d", len(a1.got), len(a2.got), len(b.got))
	}
}

func TestHubDropsFailingConnections(t *testing.T) {
	h := NewHub(nil)
	bad := &fakeConn{fail: true}
	h.Add("alice", bad)
	h.Notify("alice", Event{Type: EventRideUpdated})
	if h.Connections("alice") != 0 || !bad.closed {
		t.Fatal("failing connection should be removed and closed")
	}
}

func TestHubRemove(t *testing.T) {
	h := NewHub(nil)
	c := &fakeConn{}
	remove := h.Add("alice", c)
	remove()
	remove()
	if h.Connections("alice") != 0 {
		t.Fatal("connection not removed")
	}
	h.Notify("alice", Event{})
	if len(c.got) != 0 {
		t.Fatal("removed connection got an event")
	}
}
