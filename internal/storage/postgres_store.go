package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/example/rolo/internal/models"
)

// PostgresStore implements DataService over the vehicles/drivers/rides/profiles tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// quick ping
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) DB() *sql.DB { return p.db }

func (p *PostgresStore) Close() error { return p.db.Close() }

func (p *PostgresStore) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, type, name, COALESCE(description, ''), price_per_km, base_price, COALESCE(image_url, ''), is_available
		FROM vehicles WHERE is_available = true ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Vehicle
	for rows.Next() {
		var v models.Vehicle
		if err := rows.Scan(&v.ID, &v.Type, &v.Name, &v.Description, &v.PricePerKm, &v.BasePrice, &v.ImageURL, &v.IsAvailable); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (p *PostgresStore) ListDrivers(ctx context.Context) ([]models.DriverRecord, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, name, phone, car_model, plate_number, rating, COALESCE(photo_url, ''), is_available
		FROM drivers WHERE is_available = true`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.DriverRecord
	for rows.Next() {
		var d models.DriverRecord
		if err := rows.Scan(&d.ID, &d.Name, &d.Phone, &d.CarModel, &d.PlateNumber, &d.Rating, &d.PhotoURL, &d.IsAvailable); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

const rideSelect = `SELECT r.id, r.user_id, r.vehicle_id, r.driver_id, r.pickup_location, r.dropoff_location,
	r.estimated_price, r.final_price, r.status, r.rating, r.created_at, r.started_at, r.completed_at,
	v.id, v.type, v.name, v.description, v.price_per_km, v.base_price, v.image_url, v.is_available,
	d.id, d.name, d.phone, d.car_model, d.plate_number, d.rating, d.photo_url, d.is_available
	FROM rides r
	LEFT JOIN vehicles v ON v.id = r.vehicle_id
	LEFT JOIN drivers d ON d.id = r.driver_id`

func (p *PostgresStore) ListRides(ctx context.Context, userID string) ([]RideRow, error) {
	rows, err := p.db.QueryContext(ctx, rideSelect+` WHERE r.user_id = $1 ORDER BY r.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RideRow
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *PostgresStore) GetRide(ctx context.Context, id string) (RideRow, error) {
	r, err := scanRide(p.db.QueryRowContext(ctx, rideSelect+` WHERE r.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return RideRow{}, ErrNotFound
	}
	return r, err
}

func (p *PostgresStore) CreateRide(ctx context.Context, nr NewRide) (RideRow, error) {
	var id string
	err := p.db.QueryRowContext(ctx, `INSERT INTO rides(user_id, vehicle_id, pickup_location, dropoff_location, estimated_price, status)
		VALUES($1,$2,$3,$4,$5,$6) RETURNING id`,
		nr.UserID, nr.VehicleID, nr.PickupLocation, nr.DropoffLocation, nr.EstimatedPrice, RideStatusConfirmed).Scan(&id)
	if err != nil {
		return RideRow{}, translate(err)
	}
	return p.GetRide(ctx, id)
}

func (p *PostgresStore) UpdateRide(ctx context.Context, id string, patch RidePatch) (RideRow, error) {
	var sets []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.DriverID != nil {
		add("driver_id", *patch.DriverID)
	}
	if patch.FinalPrice != nil {
		add("final_price", *patch.FinalPrice)
	}
	if patch.Rating != nil {
		add("rating", *patch.Rating)
	}
	if patch.StartedAt != nil {
		add("started_at", *patch.StartedAt)
	}
	if patch.CompletedAt != nil {
		add("completed_at", *patch.CompletedAt)
	}
	if len(sets) == 0 {
		return p.GetRide(ctx, id)
	}
	args = append(args, id)
	q := fmt.Sprintf(`UPDATE rides SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	res, err := p.db.ExecContext(ctx, q, args...)
	if err != nil {
		return RideRow{}, translate(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return RideRow{}, ErrNotFound
	}
	return p.GetRide(ctx, id)
}

func (p *PostgresStore) CreateVehicle(ctx context.Context, nv NewVehicle) (models.Vehicle, error) {
	v := models.Vehicle{
		Type: nv.Type, Name: nv.Name, Description: nv.Description,
		PricePerKm: nv.PricePerKm, BasePrice: nv.BasePrice, ImageURL: nv.ImageURL, IsAvailable: true,
	}
	err := p.db.QueryRowContext(ctx, `INSERT INTO vehicles(type, name, description, price_per_km, base_price, image_url, is_available)
		VALUES($1,$2,NULLIF($3,''),$4,$5,NULLIF($6,''),true) RETURNING id`,
		nv.Type, nv.Name, nv.Description, nv.PricePerKm, nv.BasePrice, nv.ImageURL).Scan(&v.ID)
	if err != nil {
		return models.Vehicle{}, translate(err)
	}
	return v, nil
}

func (p *PostgresStore) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	var pr models.Profile
	err := p.db.QueryRowContext(ctx, `SELECT id, user_id, COALESCE(full_name, ''), COALESCE(phone, '') FROM profiles WHERE user_id = $1`, userID).
		Scan(&pr.ID, &pr.UserID, &pr.FullName, &pr.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrNotFound
	}
	return pr, err
}

func (p *PostgresStore) CreateProfile(ctx context.Context, userID, fullName, phone string) (models.Profile, error) {
	pr := models.Profile{UserID: userID, FullName: fullName, Phone: phone}
	err := p.db.QueryRowContext(ctx, `INSERT INTO profiles(user_id, full_name, phone) VALUES($1, NULLIF($2,''), NULLIF($3,'')) RETURNING id`,
		userID, fullName, phone).Scan(&pr.ID)
	if err != nil {
		return models.Profile{}, translate(err)
	}
	return pr, nil
}

func (p *PostgresStore) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (models.Profile, error) {
	var pr models.Profile
	err := p.db.QueryRowContext(ctx, `UPDATE profiles
		SET full_name = COALESCE($1, full_name), phone = COALESCE($2, phone), updated_at = now()
		WHERE user_id = $3
		RETURNING id, user_id, COALESCE(full_name, ''), COALESCE(phone, '')`,
		nullString(patch.FullName), nullString(patch.Phone), userID).
		Scan(&pr.ID, &pr.UserID, &pr.FullName, &pr.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrNotFound
	}
	return pr, err
}

func (p *PostgresStore) CreateUser(ctx context.Context, u User) (User, error) {
	err := p.db.QueryRowContext(ctx, `INSERT INTO users(email, password_hash, full_name) VALUES(lower($1),$2,$3) RETURNING id, created_at`,
		u.Email, u.PasswordHash, u.FullName).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return User{}, translate(err)
	}
	return u, nil
}

func (p *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := p.db.QueryRowContext(ctx, `SELECT id, email, password_hash, full_name, created_at FROM users WHERE email = lower($1)`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRide(s scanner) (RideRow, error) {
	var r RideRow
	var driverID sql.NullString
	var finalPrice sql.NullFloat64
	var rating sql.NullInt64
	var startedAt, completedAt sql.NullTime

	var vID, vType, vName, vDesc, vImage sql.NullString
	var vPerKm, vBase sql.NullFloat64
	var vAvail sql.NullBool

	var dID, dName, dPhone, dCar, dPlate, dPhoto sql.NullString
	var dRating sql.NullFloat64
	var dAvail sql.NullBool

	err := s.Scan(
		&r.ID, &r.UserID, &r.VehicleID, &driverID, &r.PickupLocation, &r.DropoffLocation,
		&r.EstimatedPrice, &finalPrice, &r.Status, &rating, &r.CreatedAt, &startedAt, &completedAt,
		&vID, &vType, &vName, &vDesc, &vPerKm, &vBase, &vImage, &vAvail,
		&dID, &dName, &dPhone, &dCar, &dPlate, &dRating, &dPhoto, &dAvail,
	)
	if err != nil {
		return RideRow{}, err
	}
	if driverID.Valid {
		r.DriverID = &driverID.String
	}
	if finalPrice.Valid {
		r.FinalPrice = &finalPrice.Float64
	}
	if rating.Valid {
		v := int(rating.Int64)
		r.Rating = &v
	}
	r.StartedAt = toTimePtr(startedAt)
	r.CompletedAt = toTimePtr(completedAt)
	if vID.Valid {
		r.Vehicle = &models.Vehicle{
			ID: vID.String, Type: vType.String, Name: vName.String, Description: vDesc.String,
			PricePerKm: vPerKm.Float64, BasePrice: vBase.Float64, ImageURL: vImage.String, IsAvailable: vAvail.Bool,
		}
	}
	if dID.Valid {
		r.Driver = &models.DriverRecord{
			ID: dID.String, Name: dName.String, Phone: dPhone.String, CarModel: dCar.String,
			PlateNumber: dPlate.String, Rating: dRating.Float64, PhotoURL: dPhoto.String, IsAvailable: dAvail.Bool,
		}
	}
	return r, nil
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return ErrConflict
		case "23503":
			return fmt.Errorf("%w: %s", ErrNotFound, pqErr.Constraint)
		}
	}
	return err
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
