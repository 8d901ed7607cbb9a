package entity

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusOpen      Status = "open"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// transitions is the closed set of legal status changes. Anything outside
// the table fails with ErrInvalidTransition.
var transitions = map[Status][]Status{
	StatusPending:   {StatusOpen, StatusConfirmed, StatusCancelled},
	StatusOpen:      {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

func (s Status) CanTransitionTo(to Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

const ParticipantStatusConfirmed = "confirmed"

type Participant struct {
	UserID   string    `json:"user_id"`
	Status   string    `json:"status"`
	JoinedAt time.Time `json:"joined_at"`
}

// Booking is a reservation of one or more contiguous hours of a venue on a
// single date. A joinable booking ("joinan") carries a capacity pool that
// independent participants fill; a solo booking always has MaxSlots 1.
type Booking struct {
	ID           string        `json:"booking_id"`
	VenueID      string        `json:"venue_id"`
	Date         string        `json:"date"`
	StartHour    int           `json:"start_hour"`
	EndHour      int           `json:"end_hour"`
	Status       Status        `json:"status"`
	TotalPrice   int64         `json:"total_price"`
	IsJoinable   bool          `json:"is_joinable"`
	MaxSlots     int           `json:"max_slots"`
	FilledSlots  int           `json:"filled_slots"`
	OrganizerID  string        `json:"organizer_id"`
	Participants []Participant `json:"participants,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// NewBooking creates a pending booking. The total price is fixed here from
// the venue's current hourly rate and is never recomputed, so later rate
// changes do not affect existing bookings.
func NewBooking(id, venueID, date string, startHour, endHour int, pricePerHour int64, isJoinable bool, maxSlots int, organizerID string, now time.Time) (Booking, error) {
	if _, err := ParseDate(date); err != nil {
		return Booking{}, err
	}
	if startHour < 0 || endHour > 24 || startHour >= endHour {
		return Booking{}, fmt.Errorf("%w: range %02d:00-%02d:00", ErrInvalidHour, startHour, endHour)
	}
	if !isJoinable {
		maxSlots = 1
	} else if maxSlots < 1 {
		return Booking{}, fmt.Errorf("%w: max slots must be at least 1, got %d", ErrInvalidSlots, maxSlots)
	}

	return Booking{
		ID:          id,
		VenueID:     venueID,
		Date:        date,
		StartHour:   startHour,
		EndHour:     endHour,
		Status:      StatusPending,
		TotalPrice:  int64(endHour-startHour) * pricePerHour,
		IsJoinable:  isJoinable,
		MaxSlots:    maxSlots,
		FilledSlots: 0,
		OrganizerID: organizerID,
		CreatedAt:   now.UTC(),
	}, nil
}

// Hours lists the hour numbers the booking claims.
func (b Booking) Hours() []int {
	hours := make([]int, 0, b.EndHour-b.StartHour)
	for h := b.StartHour; h < b.EndHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

func (b Booking) Price() Money {
	return Money{Amount: b.TotalPrice, Currency: CurrencyIDR}
}

func (b Booking) RemainingSlots() int {
	return b.MaxSlots - b.FilledSlots
}

func (b Booking) IsFull() bool {
	return b.RemainingSlots() == 0
}

// EndsAt is the moment the reserved window elapses.
func (b Booking) EndsAt() (time.Time, error) {
	day, err := ParseDate(b.Date)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(b.EndHour) * time.Hour), nil
}

func (b Booking) participant(userID string) (int, bool) {
	for i, p := range b.Participants {
		if p.UserID == userID {
			return i, true
		}
	}
	return 0, false
}

func (b *Booking) transition(to Status) error {
	if !b.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, b.Status, to)
	}
	b.Status = to
	return nil
}

func (b *Booking) checkSlots() error {
	if b.FilledSlots < 0 || b.FilledSlots > b.MaxSlots {
		return fmt.Errorf("filled slots %d out of range [0, %d]", b.FilledSlots, b.MaxSlots)
	}
	return nil
}

// MarkPaid records the organizer's successful payment. A joinable booking
// with slots remaining opens for participants; anything else confirms
// immediately.
func (b *Booking) MarkPaid() error {
	if b.Status != StatusPending {
		return fmt.Errorf("%w: booking is %s, payment applies to pending bookings", ErrInvalidTransition, b.Status)
	}
	if b.IsJoinable && !b.IsFull() {
		return b.transition(StatusOpen)
	}
	return b.transition(StatusConfirmed)
}

// Join adds a participant to the capacity pool. Only open bookings accept
// participants; filling the last slot confirms the booking.
func (b *Booking) Join(userID string, now time.Time) error {
	switch b.Status {
	case StatusCancelled, StatusCompleted:
		return fmt.Errorf("%w: booking is %s", ErrInvalidTransition, b.Status)
	case StatusPending:
		return fmt.Errorf("%w: booking is awaiting the organizer's payment", ErrNotReady)
	}

	if _, ok := b.participant(userID); ok {
		return fmt.Errorf("%w: user %s", ErrAlreadyJoined, userID)
	}
	if b.IsFull() {
		return fmt.Errorf("%w: %d of %d slots taken", ErrSlotsFull, b.FilledSlots, b.MaxSlots)
	}
	if b.Status != StatusOpen {
		return fmt.Errorf("%w: booking is %s", ErrInvalidTransition, b.Status)
	}

	b.Participants = append(b.Participants, Participant{
		UserID:   userID,
		Status:   ParticipantStatusConfirmed,
		JoinedAt: now.UTC(),
	})
	b.FilledSlots++
	if err := b.checkSlots(); err != nil {
		return err
	}

	if b.IsFull() {
		return b.transition(StatusConfirmed)
	}
	return nil
}

// Leave removes a participant and frees their slot. The organizer is not a
// participant; their way out is cancelling the whole booking.
func (b *Booking) Leave(userID string) error {
	i, ok := b.participant(userID)
	if !ok {
		return fmt.Errorf("%w: user %s", ErrNotAParticipant, userID)
	}
	if b.Status != StatusOpen {
		return fmt.Errorf("%w: booking is %s, leaving is only possible while open", ErrInvalidTransition, b.Status)
	}

	b.Participants = append(b.Participants[:i], b.Participants[i+1:]...)
	b.FilledSlots--
	return b.checkSlots()
}

// Cancel moves the booking to its cancelled terminal state. The caller is
// responsible for releasing the booking's hours back to availability.
func (b *Booking) Cancel() error {
	return b.transition(StatusCancelled)
}

// Complete marks a confirmed booking whose window has elapsed as completed.
// Completing an already-completed booking is an idempotent no-op, so the
// scheduled sweep can safely re-run.
func (b *Booking) Complete(now time.Time) error {
	switch b.Status {
	case StatusCompleted:
		return nil
	case StatusConfirmed:
		endsAt, err := b.EndsAt()
		if err != nil {
			return err
		}
		if now.Before(endsAt) {
			return fmt.Errorf("%w: booking ends at %s", ErrNotReady, endsAt.Format(time.RFC3339))
		}
		return b.transition(StatusCompleted)
	default:
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, b.Status, StatusCompleted)
	}
}
