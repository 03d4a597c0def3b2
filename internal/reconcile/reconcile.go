// Package reconcile maps a UI vehicle selection onto a backend vehicle record
// whose id can be used as the rides.vehicle_id foreign key.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/example/rolo/internal/models"
	"github.com/example/rolo/internal/storage"
)

// AllowedTypes are the vehicle types accepted by the vehicles table.
var AllowedTypes = map[string]struct{}{
	"sedan":        {},
	"suv":          {},
	"limousine":    {},
	"luxury_sedan": {},
}

const (
	defaultType       = "sedan"
	defaultName       = "Sedan"
	defaultBasePrice  = 5.0
	defaultPricePerKm = 1.0
)

// VehicleCreator is the fallback create-vehicle call.
type VehicleCreator interface {
	CreateVehicle(ctx context.Context, v storage.NewVehicle) (models.Vehicle, error)
}

// NoValidVehicleError means no backend vehicle with a valid id could be matched or created.
type NoValidVehicleError struct {
	Selection string
	Reason    string
	Err       error
}

func (e *NoValidVehicleError) Error() string {
	msg := fmt.Sprintf("no valid vehicle for %q: %s", e.Selection, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NoValidVehicleError) Unwrap() error { return e.Err }

// IsValidID reports whether id is a hyphenated UUID.
func IsValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// NormalizeType lowercases t and falls back to sedan when it is not an allowed type.
func NormalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if _, ok := AllowedTypes[t]; ok {
		return t
	}
	return defaultType
}

// Reconciler runs the matching policy. A nil Logger discards warnings.
type Reconciler struct {
	Creator VehicleCreator
	Logger  *slog.Logger
}

func New(creator VehicleCreator, logger *slog.Logger) *Reconciler {
	return &Reconciler{Creator: creator, Logger: logger}
}

// Reconcile returns the backend vehicle to book for sel. First match wins:
// exact id, then type or name, then the first known vehicle, then a newly
// created record. The result always carries a valid id.
func (r *Reconciler) Reconcile(ctx context.Context, sel models.VehicleSelection, known []models.Vehicle) (models.Vehicle, error) {
	v, ok := match(sel, known)
	if !ok && len(known) > 0 {
		v, ok = known[0], true
		r.warn("vehicle reconciliation fell back to first available vehicle",
			"selection_id", sel.ID, "selection_name", sel.Name, "vehicle_id", v.ID)
	}
	if !ok {
		created, err := r.create(ctx, sel)
		if err != nil {
			return models.Vehicle{}, &NoValidVehicleError{Selection: sel.Name, Reason: "create vehicle failed", Err: err}
		}
		v = created
	}
	if !IsValidID(v.ID) {
		return models.Vehicle{}, &NoValidVehicleError{Selection: sel.Name, Reason: fmt.Sprintf("vehicle id %q is not a valid identifier", v.ID)}
	}
	return v, nil
}

func match(sel models.VehicleSelection, known []models.Vehicle) (models.Vehicle, bool) {
	if IsValidID(sel.ID) {
		for _, v := range known {
			if v.ID == sel.ID {
				return v, true
			}
		}
	}
	selName := strings.ToLower(sel.Name)
	for _, v := range known {
		if sel.Type != "" && strings.EqualFold(v.Type, sel.Type) {
			return v, true
		}
		if selName != "" && strings.Contains(strings.ToLower(v.Name), selName) {
			return v, true
		}
	}
	return models.Vehicle{}, false
}

func (r *Reconciler) create(ctx context.Context, sel models.VehicleSelection) (models.Vehicle, error) {
	if r.Creator == nil {
		return models.Vehicle{}, fmt.Errorf("no vehicle creator configured")
	}
	name := sel.Name
	if name == "" {
		name = defaultName
	}
	return r.Creator.CreateVehicle(ctx, storage.NewVehicle{
		Name:        name,
		Type:        NormalizeType(sel.Type),
		Description: sel.Description,
		PricePerKm:  defaultPricePerKm,
		BasePrice:   defaultBasePrice,
		ImageURL:    sel.Image,
	})
}

func (r *Reconciler) warn(msg string, args ...any) {
	if r.Logger != nil {
		r.Logger.Warn(msg, args...)
	}
}
