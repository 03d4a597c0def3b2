// Package guard derives the booking step a rider should be on and blocks
// entry to steps that come after it.
package guard

import "github.com/example/rolo/internal/models"

type Step string

const (
	StepLocation     Step = "location"
	StepVehicle      Step = "vehicle"
	StepConfirmation Step = "confirmation"
	StepSearching    Step = "searching"
	StepInProgress   Step = "in-progress"
	StepCompleted    Step = "completed"
)

// Steps lists the booking steps in their required order.
var Steps = []Step{StepLocation, StepVehicle, StepConfirmation, StepSearching, StepInProgress, StepCompleted}

// Order is the 1-based position of s in the flow; unknown steps are 0.
func (s Step) Order() int {
	for i, st := range Steps {
		if st == s {
			return i + 1
		}
	}
	return 0
}

func ParseStep(v string) (Step, bool) {
	s := Step(v)
	return s, s.Order() > 0
}

// Path is the client route of the step's screen.
func (s Step) Path() string { return "/booking/" + string(s) }

// Canonical derives the step from the booking flow alone.
//
// Once a vehicle is selected every later step collapses to confirmation: the
// flow carries no trace of searching, in-progress or completed, so a guard on
// any of those steps always shows the recovery card.
func Canonical(f models.BookingFlow) Step {
	if f.Pickup == "" || f.Dropoff == "" {
		return StepLocation
	}
	if f.SelectedVehicle == nil {
		return StepVehicle
	}
	return StepConfirmation
}

type ActionKind string

const (
	ActionContinue  ActionKind = "continue"
	ActionRestart   ActionKind = "restart"
	ActionDashboard ActionKind = "dashboard"
)

// Action is one button on the recovery card.
type Action struct {
	Kind  ActionKind `json:"kind"`
	Label string     `json:"label"`
	Path  string     `json:"path"`
	// Reset asks the caller to reset the booking flow before navigating.
	Reset bool `json:"reset,omitempty"`
}

const RecoveryMessage = "Please complete the previous steps to continue with your booking."

// Decision is the outcome of entering a guarded step.
type Decision struct {
	Allowed   bool     `json:"allowed"`
	Required  Step     `json:"required"`
	Canonical Step     `json:"canonical"`
	Message   string   `json:"message,omitempty"`
	Actions   []Action `json:"actions,omitempty"`
}

// Check decides whether the screen for required may render given the flow.
func Check(f models.BookingFlow, required Step) Decision {
	c := Canonical(f)
	d := Decision{Allowed: c.Order() >= required.Order(), Required: required, Canonical: c}
	if d.Allowed {
		return d
	}
	d.Message = RecoveryMessage
	d.Actions = []Action{
		{Kind: ActionContinue, Label: "Continue Booking", Path: c.Path()},
		{Kind: ActionDashboard, Label: "Back to Dashboard", Path: "/dashboard"},
		{Kind: ActionRestart, Label: "Start New Booking", Path: StepLocation.Path(), Reset: true},
	}
	return d
}

// Routes is every client-visible route of the app.
var Routes = []string{
	"/",
	"/auth",
	"/dashboard",
	"/profile",
	"/rides",
	"/settings",
	"/contact",
	StepLocation.Path(),
	StepVehicle.Path(),
	StepConfirmation.Path(),
	StepSearching.Path(),
	StepInProgress.Path(),
	StepCompleted.Path(),
}
