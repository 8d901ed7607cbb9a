package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"venuebooking/entity"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

func CreateVenuesTables(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS venues (
		venue_id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		address VARCHAR(255) NOT NULL,
		city VARCHAR(255) NOT NULL,
		venue_type VARCHAR(64) NOT NULL,
		price_per_hour BIGINT NOT NULL,
		capacity INTEGER NOT NULL,
		manager_id UUID NOT NULL,
		facilities TEXT[] NOT NULL DEFAULT '{}',
		images TEXT[] NOT NULL DEFAULT '{}'
	);`)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS venue_schedules (
		venue_id UUID NOT NULL,
		day_of_week SMALLINT NOT NULL,
		open_hour SMALLINT NOT NULL,
		close_hour SMALLINT NOT NULL,
		is_available BOOLEAN NOT NULL,
		PRIMARY KEY (venue_id, day_of_week)
	);`)
	return err
}

type VenueRepo struct {
	db *sqlx.DB
}

func NewVenueRepo(db *sqlx.DB) VenueRepo {
	return VenueRepo{
		db: db,
	}
}

func (r VenueRepo) Add(ctx context.Context, venue entity.Venue) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := addVenue(ctx, tx, venue); err != nil {
		return errors.Join(err, tx.Rollback())
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func addVenue(ctx context.Context, tx *sql.Tx, venue entity.Venue) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO venues
		(venue_id, name, address, city, venue_type, price_per_hour, capacity, manager_id, facilities, images)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`,
		venue.ID, venue.Name, venue.Address, venue.City, venue.Type, venue.PricePerHour,
		venue.Capacity, venue.ManagerID, pq.Array(venue.Facilities), pq.Array(venue.Images))
	if err != nil {
		return fmt.Errorf("inserting venue: %w", err)
	}

	for _, s := range venue.Schedule {
		_, err := tx.ExecContext(ctx, `INSERT INTO venue_schedules
			(venue_id, day_of_week, open_hour, close_hour, is_available)
			VALUES ($1, $2, $3, $4, $5);`,
			venue.ID, s.DayOfWeek, s.OpenHour, s.CloseHour, s.IsAvailable)
		if err != nil {
			return fmt.Errorf("inserting schedule for day %d: %w", s.DayOfWeek, err)
		}
	}

	return nil
}

func (r VenueRepo) Get(ctx context.Context, venueID string) (entity.Venue, error) {
	var v entity.Venue
	row := r.db.QueryRowxContext(ctx, `SELECT venue_id, name, address, city, venue_type,
		price_per_hour, capacity, manager_id, facilities, images
		FROM venues WHERE venue_id = $1`, venueID)
	err := row.Scan(&v.ID, &v.Name, &v.Address, &v.City, &v.Type,
		&v.PricePerHour, &v.Capacity, &v.ManagerID, pq.Array(&v.Facilities), pq.Array(&v.Images))
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Venue{}, fmt.Errorf("%w: %s", entity.ErrVenueNotFound, venueID)
	}
	if err != nil {
		return entity.Venue{}, fmt.Errorf("scanning venue: %w", err)
	}

	v.Schedule, err = r.schedule(ctx, venueID)
	if err != nil {
		return entity.Venue{}, err
	}

	return v, nil
}

func (r VenueRepo) schedule(ctx context.Context, venueID string) ([]entity.ScheduleEntry, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT day_of_week, open_hour, close_hour, is_available
		FROM venue_schedules WHERE venue_id = $1 ORDER BY day_of_week`, venueID)
	if err != nil {
		return nil, fmt.Errorf("querying schedule: %w", err)
	}
	defer rows.Close()

	var schedule []entity.ScheduleEntry
	for rows.Next() {
		var s entity.ScheduleEntry
		if err := rows.Scan(&s.DayOfWeek, &s.OpenHour, &s.CloseHour, &s.IsAvailable); err != nil {
			return nil, fmt.Errorf("scanning schedule row: %w", err)
		}
		schedule = append(schedule, s)
	}

	return schedule, rows.Err()
}

func (r VenueRepo) List(ctx context.Context) ([]entity.Venue, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT venue_id, name, address, city, venue_type,
		price_per_hour, capacity, manager_id, facilities, images FROM venues ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying venues: %w", err)
	}
	defer rows.Close()

	var venues []entity.Venue
	for rows.Next() {
		var v entity.Venue
		err := rows.Scan(&v.ID, &v.Name, &v.Address, &v.City, &v.Type,
			&v.PricePerHour, &v.Capacity, &v.ManagerID, pq.Array(&v.Facilities), pq.Array(&v.Images))
		if err != nil {
			return nil, fmt.Errorf("scanning venue: %w", err)
		}
		venues = append(venues, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range venues {
		venues[i].Schedule, err = r.schedule(ctx, venues[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return venues, nil
}
