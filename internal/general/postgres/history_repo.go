package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"driverhub/internal/domain/booking"
	"driverhub/internal/domain/geo"
)

// HistoryRepo persists completed trips using pgx and plain SQL.
type HistoryRepo struct {
	pool *pgxpool.Pool
}

// NewHistoryRepo constructs a new HistoryRepo.
func NewHistoryRepo(pool *pgxpool.Pool) *HistoryRepo {
	return &HistoryRepo{pool: pool}
}

// Archive inserts one completed trip. Re-archiving the same booking is a
// no-op so a replayed completion never duplicates a row.
func (repo *HistoryRepo) Archive(ctx context.Context, driverID string, trip *booking.Booking) error {
	if err := trip.Validate(); err != nil {
		return err
	}

	var pickupLat, pickupLng, dropLat, dropLng *float64
	if trip.Pickup != nil {
		pickupLat, pickupLng = &trip.Pickup.Lat, &trip.Pickup.Lng
	}
	if trip.Drop != nil {
		dropLat, dropLng = &trip.Drop.Lat, &trip.Drop.Lng
	}

	_, err := repo.pool.Exec(ctx, `
		INSERT INTO trip_history (
			booking_id, driver_id, status,
			pickup_lat, pickup_lng, drop_lat, drop_lng,
			distance, duration, service, fare, completed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (booking_id) DO NOTHING
	`,
		trip.ID,
		driverID,
		trip.Status.String(),
		pickupLat, pickupLng,
		dropLat, dropLng,
		trip.Distance,
		trip.Duration,
		trip.Service,
		trip.Fare(),
	)
	return err
}

// Recent returns the driver's most recently completed trips, newest first.
func (repo *HistoryRepo) Recent(ctx context.Context, driverID string, limit int) ([]booking.Booking, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := repo.pool.Query(ctx, `
		SELECT booking_id, status,
		       pickup_lat, pickup_lng, drop_lat, drop_lng,
		       distance, duration, service, completed_at
		FROM trip_history
		WHERE driver_id = $1
		ORDER BY completed_at DESC
		LIMIT $2
	`, driverID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []booking.Booking
	for rows.Next() {
		var (
			trip                 booking.Booking
			status               string
			pickupLat, pickupLng *float64
			dropLat, dropLng     *float64
		)
		if err := rows.Scan(
			&trip.ID, &status,
			&pickupLat, &pickupLng, &dropLat, &dropLng,
			&trip.Distance, &trip.Duration, &trip.Service, &trip.CreatedAt,
		); err != nil {
			return nil, err
		}

		parsed, err := booking.ParseStatus(status)
		if err != nil {
			continue // unknown status rows are skipped, not fatal
		}
		trip.Status = parsed

		if pickupLat != nil && pickupLng != nil {
			trip.Pickup = &geo.LatLng{Lat: *pickupLat, Lng: *pickupLng}
		}
		if dropLat != nil && dropLng != nil {
			trip.Drop = &geo.LatLng{Lat: *dropLat, Lng: *dropLng}
		}

		trips = append(trips, trip)
	}
	return trips, rows.Err()
}
