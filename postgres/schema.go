package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func InitialiseDB(ctx context.Context, db *sqlx.DB) error {
	if err := CreateVenuesTables(ctx, db); err != nil {
		return fmt.Errorf("creating venues tables: %w", err)
	}

	if err := CreateBookingsTables(ctx, db); err != nil {
		return fmt.Errorf("creating bookings tables: %w", err)
	}

	return nil
}
