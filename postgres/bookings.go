package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"venuebooking/entity"
	"venuebooking/event"
	"venuebooking/message"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

func CreateBookingsTables(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS bookings (
		booking_id UUID PRIMARY KEY,
		venue_id UUID NOT NULL,
		booking_date DATE NOT NULL,
		start_hour SMALLINT NOT NULL,
		end_hour SMALLINT NOT NULL,
		status VARCHAR(16) NOT NULL,
		total_price BIGINT NOT NULL,
		is_joinable BOOLEAN NOT NULL,
		max_slots INTEGER NOT NULL CHECK (max_slots >= 1),
		filled_slots INTEGER NOT NULL CHECK (filled_slots >= 0 AND filled_slots <= max_slots),
		organizer_id UUID NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL
	);`)
	if err != nil {
		return err
	}

	// One row per reserved hour of a non-cancelled booking. The primary key
	// is the storage-level guarantee of slot exclusivity: two concurrent
	// submissions for the same venue/date/hour cannot both insert.
	_, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS booking_hours (
		venue_id UUID NOT NULL,
		booking_date DATE NOT NULL,
		hour SMALLINT NOT NULL,
		booking_id UUID NOT NULL,
		PRIMARY KEY (venue_id, booking_date, hour)
	);`)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS booking_participants (
		booking_id UUID NOT NULL,
		user_id UUID NOT NULL,
		status VARCHAR(16) NOT NULL,
		joined_at TIMESTAMP WITH TIME ZONE NOT NULL,
		PRIMARY KEY (booking_id, user_id)
	);`)
	return err
}

type BookingRepo struct {
	db     *sqlx.DB
	logger watermill.LoggerAdapter
}

func NewBookingRepo(db *sqlx.DB, logger watermill.LoggerAdapter) BookingRepo {
	return BookingRepo{
		db:     db,
		logger: logger,
	}
}

// inTx runs fn in a read committed transaction. Mutations serialise on the
// booking's FOR UPDATE row lock instead of a stricter isolation level: a
// transaction that blocked on the lock re-reads the winner's committed state
// once it acquires it, so losers fail with the domain error rather than a
// serialization abort.
func (r BookingRepo) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// Create persists a new booking and claims its hours. The insert, the hour
// reservations and the BookingMade event share one transaction, so a lost
// slot race leaves nothing behind.
func (r BookingRepo) Create(ctx context.Context, booking entity.Booking) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO bookings
			(booking_id, venue_id, booking_date, start_hour, end_hour, status, total_price,
			 is_joinable, max_slots, filled_slots, organizer_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`,
			booking.ID, booking.VenueID, booking.Date, booking.StartHour, booking.EndHour,
			booking.Status, booking.TotalPrice, booking.IsJoinable, booking.MaxSlots,
			booking.FilledSlots, booking.OrganizerID, booking.CreatedAt)
		if err != nil {
			return fmt.Errorf("inserting booking: %w", err)
		}

		for _, hour := range booking.Hours() {
			_, err := tx.ExecContext(ctx, `INSERT INTO booking_hours
				(venue_id, booking_date, hour, booking_id)
				VALUES ($1, $2, $3, $4);`,
				booking.VenueID, booking.Date, hour, booking.ID)
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s %s", entity.ErrSlotUnavailable, booking.Date, entity.FormatHour(hour))
			}
			if err != nil {
				return fmt.Errorf("reserving hour %s: %w", entity.FormatHour(hour), err)
			}
		}

		e := event.NewBookingMade(uuid.NewString(), booking)
		if err := message.PublishInTx(ctx, e, tx, r.logger); err != nil {
			return fmt.Errorf("publishing event in transaction: %w", err)
		}

		return nil
	})
}

func (r BookingRepo) Get(ctx context.Context, bookingID string) (entity.Booking, error) {
	booking, err := scanBooking(r.db.QueryRowContext(ctx, `SELECT booking_id, venue_id,
		booking_date, start_hour, end_hour, status, total_price, is_joinable, max_slots,
		filled_slots, organizer_id, created_at
		FROM bookings WHERE booking_id = $1`, bookingID))
	if err != nil {
		return entity.Booking{}, err
	}

	booking.Participants, err = r.participants(ctx, r.db, bookingID)
	if err != nil {
		return entity.Booking{}, err
	}

	return booking, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func scanBooking(row rowScanner) (entity.Booking, error) {
	var b entity.Booking
	var date time.Time
	err := row.Scan(&b.ID, &b.VenueID, &date, &b.StartHour, &b.EndHour, &b.Status,
		&b.TotalPrice, &b.IsJoinable, &b.MaxSlots, &b.FilledSlots, &b.OrganizerID, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Booking{}, entity.ErrBookingNotFound
	}
	if err != nil {
		return entity.Booking{}, fmt.Errorf("scanning booking: %w", err)
	}

	b.Date = date.Format(entity.DateFormat)
	return b, nil
}

func (r BookingRepo) participants(ctx context.Context, q querier, bookingID string) ([]entity.Participant, error) {
	rows, err := q.QueryContext(ctx, `SELECT user_id, status, joined_at
		FROM booking_participants WHERE booking_id = $1 ORDER BY joined_at`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("querying participants: %w", err)
	}
	defer rows.Close()

	var participants []entity.Participant
	for rows.Next() {
		var p entity.Participant
		if err := rows.Scan(&p.UserID, &p.Status, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scanning participant: %w", err)
		}
		participants = append(participants, p)
	}

	return participants, rows.Err()
}

// getForUpdate locks the booking row so concurrent joins, leaves and status
// changes for the same booking serialise on it.
func (r BookingRepo) getForUpdate(ctx context.Context, tx *sql.Tx, bookingID string) (entity.Booking, error) {
	booking, err := scanBooking(tx.QueryRowContext(ctx, `SELECT booking_id, venue_id,
		booking_date, start_hour, end_hour, status, total_price, is_joinable, max_slots,
		filled_slots, organizer_id, created_at
		FROM bookings WHERE booking_id = $1 FOR UPDATE`, bookingID))
	if err != nil {
		return entity.Booking{}, err
	}

	booking.Participants, err = r.participants(ctx, tx, bookingID)
	if err != nil {
		return entity.Booking{}, err
	}

	return booking, nil
}

func updateSlots(ctx context.Context, tx *sql.Tx, b entity.Booking) error {
	_, err := tx.ExecContext(ctx, `UPDATE bookings SET status = $2, filled_slots = $3
		WHERE booking_id = $1`, b.ID, b.Status, b.FilledSlots)
	if err != nil {
		return fmt.Errorf("updating booking: %w", err)
	}
	return nil
}

// Join atomically takes one slot of a joinable booking. Racing calls for the
// last slot serialise on the row lock: exactly one increments to capacity,
// the rest fail with ErrSlotsFull.
func (r BookingRepo) Join(ctx context.Context, bookingID, userID string, now time.Time) (entity.Booking, error) {
	var booking entity.Booking
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		b, err := r.getForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		wasConfirmed := b.Status == entity.StatusConfirmed
		if err := b.Join(userID, now); err != nil {
			return err
		}

		if err := updateSlots(ctx, tx, b); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO booking_participants
			(booking_id, user_id, status, joined_at)
			VALUES ($1, $2, $3, $4);`,
			b.ID, userID, entity.ParticipantStatusConfirmed, now.UTC())
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user %s", entity.ErrAlreadyJoined, userID)
		}
		if err != nil {
			return fmt.Errorf("inserting participant: %w", err)
		}

		idempotencyKey := uuid.NewString()
		if err := message.PublishInTx(ctx, event.NewParticipantJoined(idempotencyKey, b, userID), tx, r.logger); err != nil {
			return fmt.Errorf("publishing event in transaction: %w", err)
		}

		if !wasConfirmed && b.Status == entity.StatusConfirmed {
			if err := message.PublishInTx(ctx, event.NewBookingConfirmed(idempotencyKey, b), tx, r.logger); err != nil {
				return fmt.Errorf("publishing event in transaction: %w", err)
			}
		}

		booking = b
		return nil
	})
	return booking, err
}

func (r BookingRepo) Leave(ctx context.Context, bookingID, userID string) (entity.Booking, error) {
	var booking entity.Booking
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		b, err := r.getForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		if err := b.Leave(userID); err != nil {
			return err
		}

		if err := updateSlots(ctx, tx, b); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM booking_participants
			WHERE booking_id = $1 AND user_id = $2`, b.ID, userID)
		if err != nil {
			return fmt.Errorf("deleting participant: %w", err)
		}

		e := event.NewParticipantLeft(uuid.NewString(), b, userID)
		if err := message.PublishInTx(ctx, e, tx, r.logger); err != nil {
			return fmt.Errorf("publishing event in transaction: %w", err)
		}

		booking = b
		return nil
	})
	return booking, err
}

// Cancel moves the booking to cancelled and releases its hours, so they show
// as available again immediately.
func (r BookingRepo) Cancel(ctx context.Context, bookingID, actorID string) (entity.Booking, error) {
	var booking entity.Booking
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		b, err := r.getForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		b, err = r.cancelInTx(ctx, tx, b, actorID)
		if err != nil {
			return err
		}

		booking = b
		return nil
	})
	return booking, err
}

func (r BookingRepo) cancelInTx(ctx context.Context, tx *sql.Tx, b entity.Booking, actorID string) (entity.Booking, error) {
	paid := b.Status == entity.StatusOpen || b.Status == entity.StatusConfirmed
	if err := b.Cancel(); err != nil {
		return entity.Booking{}, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE bookings SET status = $2 WHERE booking_id = $1`, b.ID, b.Status); err != nil {
		return entity.Booking{}, fmt.Errorf("updating booking: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM booking_hours WHERE booking_id = $1`, b.ID); err != nil {
		return entity.Booking{}, fmt.Errorf("releasing hours: %w", err)
	}

	e := event.NewBookingCancelled(uuid.NewString(), b, actorID, paid)
	if err := message.PublishInTx(ctx, e, tx, r.logger); err != nil {
		return entity.Booking{}, fmt.Errorf("publishing event in transaction: %w", err)
	}

	return b, nil
}

// MarkPaid applies the payment webhook: a pending booking opens for
// participants or confirms outright.
func (r BookingRepo) MarkPaid(ctx context.Context, bookingID string) (entity.Booking, error) {
	var booking entity.Booking
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		b, err := r.getForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		if err := b.MarkPaid(); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `UPDATE bookings SET status = $2 WHERE booking_id = $1`, b.ID, b.Status); err != nil {
			return fmt.Errorf("updating booking: %w", err)
		}

		if b.Status == entity.StatusConfirmed {
			e := event.NewBookingConfirmed(uuid.NewString(), b)
			if err := message.PublishInTx(ctx, e, tx, r.logger); err != nil {
				return fmt.Errorf("publishing event in transaction: %w", err)
			}
		}

		booking = b
		return nil
	})
	return booking, err
}

func (r BookingRepo) Complete(ctx context.Context, bookingID string, now time.Time) (entity.Booking, error) {
	var booking entity.Booking
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		b, err := r.getForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		b, err = r.completeInTx(ctx, tx, b, now)
		if err != nil {
			return err
		}

		booking = b
		return nil
	})
	return booking, err
}

func (r BookingRepo) completeInTx(ctx context.Context, tx *sql.Tx, b entity.Booking, now time.Time) (entity.Booking, error) {
	wasCompleted := b.Status == entity.StatusCompleted
	if err := b.Complete(now); err != nil {
		return entity.Booking{}, err
	}
	if wasCompleted {
		return b, nil
	}

	if _, err := tx.ExecContext(ctx, `UPDATE bookings SET status = $2 WHERE booking_id = $1`, b.ID, b.Status); err != nil {
		return entity.Booking{}, fmt.Errorf("updating booking: %w", err)
	}

	e := event.NewBookingCompleted(uuid.NewString(), b)
	if err := message.PublishInTx(ctx, e, tx, r.logger); err != nil {
		return entity.Booking{}, fmt.Errorf("publishing event in transaction: %w", err)
	}

	return b, nil
}

// BookedHours returns the hours claimed by active bookings for a venue and
// date. Cancelled bookings have no rows here.
func (r BookingRepo) BookedHours(ctx context.Context, venueID, date string) (map[int]bool, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT hour FROM booking_hours
		WHERE venue_id = $1 AND booking_date = $2`, venueID, date)
	if err != nil {
		return nil, fmt.Errorf("querying booked hours: %w", err)
	}
	defer rows.Close()

	booked := map[int]bool{}
	for rows.Next() {
		var hour int
		if err := rows.Scan(&hour); err != nil {
			return nil, fmt.Errorf("scanning hour: %w", err)
		}
		booked[hour] = true
	}

	return booked, rows.Err()
}

// ListForVenueDate lists a venue's bookings on a date, skipping cancelled
// ones unless asked for.
func (r BookingRepo) ListForVenueDate(ctx context.Context, venueID, date string, includeCancelled bool) ([]entity.Booking, error) {
	query := `SELECT booking_id, venue_id, booking_date, start_hour, end_hour, status,
		total_price, is_joinable, max_slots, filled_slots, organizer_id, created_at
		FROM bookings WHERE venue_id = $1 AND booking_date = $2`
	if !includeCancelled {
		query += ` AND status != 'cancelled'`
	}
	query += ` ORDER BY start_hour`

	rows, err := r.db.QueryContext(ctx, query, venueID, date)
	if err != nil {
		return nil, fmt.Errorf("querying bookings: %w", err)
	}
	defer rows.Close()

	var bookings []entity.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}

// ExpirePending cancels pending bookings whose payment did not arrive within
// ttl. Invoked by the external scheduler through the jobs endpoint.
func (r BookingRepo) ExpirePending(ctx context.Context, now time.Time, ttl time.Duration) (int, error) {
	expired := 0
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		ids, err := lockIDs(ctx, tx, `SELECT booking_id FROM bookings
			WHERE status = 'pending' AND created_at <= $1 FOR UPDATE`, now.Add(-ttl))
		if err != nil {
			return err
		}

		for _, id := range ids {
			b, err := r.getForUpdate(ctx, tx, id)
			if err != nil {
				return err
			}
			if _, err := r.cancelInTx(ctx, tx, b, "system"); err != nil {
				return err
			}
			expired++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}
	return expired, nil
}

// CompleteElapsed completes confirmed bookings whose window has passed.
// Invoked by the external scheduler through the jobs endpoint.
func (r BookingRepo) CompleteElapsed(ctx context.Context, now time.Time) (int, error) {
	completed := 0
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		ids, err := lockIDs(ctx, tx, `SELECT booking_id FROM bookings
			WHERE status = 'confirmed'
			AND booking_date::timestamp + make_interval(hours => end_hour) <= $1
			FOR UPDATE`, now)
		if err != nil {
			return err
		}

		for _, id := range ids {
			b, err := r.getForUpdate(ctx, tx, id)
			if err != nil {
				return err
			}
			if _, err := r.completeInTx(ctx, tx, b, now); err != nil {
				return err
			}
			completed++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}
	return completed, nil
}

func lockIDs(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying booking ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning booking id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
