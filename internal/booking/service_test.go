package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/example/rolo/internal/models"
)

func strp(s string) *string { return &s }
func f64p(v float64) *float64 { return &v }

func TestUpdateBookingFlowMerges(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStateStore())

	if _, err := svc.UpdateBookingFlow(ctx, "u1", FlowPatch{Pickup: strp("A"), Dropoff: strp("B")}); err != nil {
		t.Fatal(err)
	}
	st, err := svc.UpdateBookingFlow(ctx, "u1", FlowPatch{
		SelectedVehicle: &models.VehicleSelection{ID: "1", Name: "Audi A4", Price: 15},
		EstimatedPrice:  f64p(15),
	})
	if err != nil {
		t.Fatal(err)
	}
	if st.Flow.Pickup != "A" || st.Flow.Dropoff != "B" {
		t.Fatalf("locations lost on merge: %+v", st.Flow)
	}
	if st.Flow.SelectedVehicle == nil || st.Flow.SelectedVehicle.Name != "Audi A4" || *st.Flow.EstimatedPrice != 15 {
		t.Fatalf("vehicle not merged: %+v", st.Flow)
	}

	st, _ = svc.UpdateBookingFlow(ctx, "u1", FlowPatch{Dropoff: strp("C")})
	if st.Flow.Pickup != "A" || st.Flow.Dropoff != "C" || st.Flow.SelectedVehicle == nil {
		t.Fatalf("partial update clobbered fields: %+v", st.Flow)
	}
}

func TestUpdateBookingFlowDoesNotValidate(t *testing.T) {
	svc := NewService(NewMemoryStateStore())
	st, err := svc.UpdateBookingFlow(context.Background(), "u1", FlowPatch{SelectedVehicle: &models.VehicleSelection{ID: "1"}})
	if err != nil {
		t.Fatal(err)
	}
	if st.Flow.SelectedVehicle == nil || st.Flow.Pickup != "" {
		t.Fatalf("store must accept out-of-order updates: %+v", st.Flow)
	}
}

func TestResetBookingFlowAlwaysYieldsEmptyFlow(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStateStore())
	patches := []FlowPatch{
		{},
		{Pickup: strp("A")},
		{Pickup: strp("A"), Dropoff: strp("B"), SelectedVehicle: &models.VehicleSelection{ID: "1"}, EstimatedPrice: f64p(20)},
	}
	for i, p := range patches {
		user := string(rune('a' + i))
		_, _ = svc.UpdateBookingFlow(ctx, user, p)
		st, err := svc.ResetBookingFlow(ctx, user)
		if err != nil {
			t.Fatal(err)
		}
		f := st.Flow
		if f.Pickup != "" || f.Dropoff != "" || f.SelectedVehicle != nil || f.EstimatedPrice != nil {
			t.Fatalf("reset left %+v", f)
		}
	}
}

func TestResetKeepsCurrentBooking(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStateStore())
	_, _ = svc.SetCurrentBooking(ctx, "u1", &models.Ride{ID: "r1", Status: models.StatusCompleted})
	st, _ := svc.ResetBookingFlow(ctx, "u1")
	if st.CurrentBooking == nil || st.CurrentBooking.ID != "r1" {
		t.Fatal("reset must not touch the current booking")
	}
}

func TestSetCurrentBookingNilClearsPayment(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStateStore())
	_, _ = svc.Update(ctx, "u1", func(s *State) error {
		s.CurrentBooking = &models.Ride{ID: "r1"}
		s.PaymentRef = "pi_1"
		return nil
	})
	st, _ := svc.SetCurrentBooking(ctx, "u1", nil)
	if st.CurrentBooking != nil || st.PaymentRef != "" {
		t.Fatalf("expected cleared booking, got %+v", st)
	}
}

func TestUpdateErrorLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStateStore())
	_, _ = svc.UpdateBookingFlow(ctx, "u1", FlowPatch{Pickup: strp("A")})
	boom := errors.New("boom")
	_, err := svc.Update(ctx, "u1", func(s *State) error {
		s.Flow.Pickup = "Z"
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	st, _ := svc.Get(ctx, "u1")
	if st.Flow.Pickup != "A" {
		t.Fatalf("failed update was committed: %+v", st.Flow)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStateStore())
	_, _ = svc.UpdateBookingFlow(ctx, "u1", FlowPatch{Pickup: strp("A")})
	_, _ = svc.SetCurrentBooking(ctx, "u1", &models.Ride{ID: "r1"})
	if err := svc.Clear(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	st, _ := svc.Get(ctx, "u1")
	if st.Flow.Pickup != "" || st.CurrentBooking != nil {
		t.Fatalf("clear left %+v", st)
	}
}

func TestMemoryStateStoreIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStateStore()
	_ = m.Save(ctx, "u1", State{Flow: models.BookingFlow{SelectedVehicle: &models.VehicleSelection{Name: "A4"}}})
	st, _ := m.Load(ctx, "u1")
	st.Flow.SelectedVehicle.Name = "mutated"
	again, _ := m.Load(ctx, "u1")
	if again.Flow.SelectedVehicle.Name != "A4" {
		t.Fatal("stored state mutated through loaded copy")
	}
}

func TestSetPaymentRef(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStateStore())
	_, _ = svc.SetCurrentBooking(ctx, "u1", &models.Ride{ID: "r1"})
	st, err := svc.SetPaymentRef(ctx, "u1", "pi_123")
	if err != nil {
		t.Fatal(err)
	}
	if st.PaymentRef != "pi_123" || st.CurrentBooking == nil {
		t.Fatalf("unexpected state %+v", st)
	}
}
