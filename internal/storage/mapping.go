package storage

import "github.com/example/rolo/internal/models"

// StatusToBackend maps a client ride status to the rides.status column.
// Rides are only created after payment, so upcoming is stored as confirmed.
func StatusToBackend(s models.RideStatus) string {
	switch s {
	case models.StatusInProgress:
		return RideStatusInProgress
	case models.StatusCompleted:
		return RideStatusCompleted
	case models.StatusCancelled:
		return RideStatusCancelled
	default:
		return RideStatusConfirmed
	}
}

// StatusFromBackend collapses the backend statuses onto the client state machine.
func StatusFromBackend(s string) models.RideStatus {
	switch s {
	case RideStatusInProgress:
		return models.StatusInProgress
	case RideStatusCompleted:
		return models.StatusCompleted
	case RideStatusCancelled:
		return models.StatusCancelled
	default:
		return models.StatusUpcoming
	}
}

// DriverFromRecord converts a backend driver row to the rider-facing view.
func DriverFromRecord(d models.DriverRecord) models.Driver {
	return models.Driver{
		ID:          d.ID,
		Name:        d.Name,
		Rating:      d.Rating,
		Car:         d.CarModel,
		PlateNumber: d.PlateNumber,
		Photo:       d.PhotoURL,
	}
}

// SelectionFromVehicle builds the UI copy of a backend vehicle with the given price and eta.
func SelectionFromVehicle(v models.Vehicle, price float64, eta string) models.VehicleSelection {
	typ := v.Type
	if typ == "" {
		typ = "sedan"
	}
	return models.VehicleSelection{
		ID:          v.ID,
		Type:        typ,
		Name:        v.Name,
		Price:       price,
		ETA:         eta,
		Image:       v.ImageURL,
		Description: v.Description,
	}
}

// ToDomainRide maps a joined rides row to the canonical Ride.
func ToDomainRide(row RideRow) models.Ride {
	r := models.Ride{
		ID:      row.ID,
		UserID:  row.UserID,
		Pickup:  row.PickupLocation,
		Dropoff: row.DropoffLocation,
		Price:   row.EstimatedPrice,
		Status:  StatusFromBackend(row.Status),
		Date:    models.RideDate(row.CreatedAt),
		Rating:  row.Rating,
	}
	if row.Vehicle != nil {
		r.Vehicle = SelectionFromVehicle(*row.Vehicle, row.EstimatedPrice, "")
	} else {
		r.Vehicle = models.VehicleSelection{ID: row.VehicleID, Price: row.EstimatedPrice}
	}
	if row.Driver != nil {
		d := DriverFromRecord(*row.Driver)
		r.Driver = &d
	}
	return r
}

// NewRideFrom builds the create-ride request for a booking flow and a reconciled vehicle id.
func NewRideFrom(userID string, flow models.BookingFlow, vehicleID string) NewRide {
	var price float64
	if flow.EstimatedPrice != nil {
		price = *flow.EstimatedPrice
	}
	return NewRide{
		UserID:          userID,
		PickupLocation:  flow.Pickup,
		DropoffLocation: flow.Dropoff,
		VehicleID:       vehicleID,
		EstimatedPrice:  price,
	}
}
