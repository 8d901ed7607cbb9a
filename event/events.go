package event

import (
	"time"
	"venuebooking/entity"

	"github.com/ThreeDotsLabs/watermill"
)

type header struct {
	ID             string    `json:"id"`
	PublishedAt    time.Time `json:"published_at"`
	IdempotencyKey string    `json:"idempotency_key"`
}

func newHeader(idempotencyKey string) header {
	return header{
		ID:             watermill.NewUUID(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: idempotencyKey,
	}
}

type BookingMade struct {
	Header      header `json:"header"`
	BookingID   string `json:"booking_id"`
	VenueID     string `json:"venue_id"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	TotalPrice  int64  `json:"total_price"`
	IsJoinable  bool   `json:"is_joinable"`
	MaxSlots    int    `json:"max_slots"`
	OrganizerID string `json:"organizer_id"`
}

func NewBookingMade(idempotencyKey string, b entity.Booking) BookingMade {
	return BookingMade{
		Header:      newHeader(idempotencyKey),
		BookingID:   b.ID,
		VenueID:     b.VenueID,
		Date:        b.Date,
		StartTime:   entity.FormatHour(b.StartHour),
		EndTime:     entity.FormatHour(b.EndHour),
		TotalPrice:  b.TotalPrice,
		IsJoinable:  b.IsJoinable,
		MaxSlots:    b.MaxSlots,
		OrganizerID: b.OrganizerID,
	}
}

type BookingConfirmed struct {
	Header      header       `json:"header"`
	BookingID   string       `json:"booking_id"`
	VenueID     string       `json:"venue_id"`
	Date        string       `json:"date"`
	OrganizerID string       `json:"organizer_id"`
	Price       entity.Money `json:"price"`
}

func NewBookingConfirmed(idempotencyKey string, b entity.Booking) BookingConfirmed {
	return BookingConfirmed{
		Header:      newHeader(idempotencyKey),
		BookingID:   b.ID,
		VenueID:     b.VenueID,
		Date:        b.Date,
		OrganizerID: b.OrganizerID,
		Price:       b.Price(),
	}
}

type BookingCancelled struct {
	Header      header       `json:"header"`
	BookingID   string       `json:"booking_id"`
	VenueID     string       `json:"venue_id"`
	Date        string       `json:"date"`
	OrganizerID string       `json:"organizer_id"`
	ActorID     string       `json:"actor_id"`
	Paid        bool         `json:"paid"`
	Price       entity.Money `json:"price"`
}

// NewBookingCancelled captures whether the booking had already been paid so
// the refund handler can decide without another lookup.
func NewBookingCancelled(idempotencyKey string, b entity.Booking, actorID string, paid bool) BookingCancelled {
	return BookingCancelled{
		Header:      newHeader(idempotencyKey),
		BookingID:   b.ID,
		VenueID:     b.VenueID,
		Date:        b.Date,
		OrganizerID: b.OrganizerID,
		ActorID:     actorID,
		Paid:        paid,
		Price:       b.Price(),
	}
}

type ParticipantJoined struct {
	Header      header `json:"header"`
	BookingID   string `json:"booking_id"`
	UserID      string `json:"user_id"`
	OrganizerID string `json:"organizer_id"`
	FilledSlots int    `json:"filled_slots"`
	MaxSlots    int    `json:"max_slots"`
}

func NewParticipantJoined(idempotencyKey string, b entity.Booking, userID string) ParticipantJoined {
	return ParticipantJoined{
		Header:      newHeader(idempotencyKey),
		BookingID:   b.ID,
		UserID:      userID,
		OrganizerID: b.OrganizerID,
		FilledSlots: b.FilledSlots,
		MaxSlots:    b.MaxSlots,
	}
}

type ParticipantLeft struct {
	Header      header `json:"header"`
	BookingID   string `json:"booking_id"`
	UserID      string `json:"user_id"`
	OrganizerID string `json:"organizer_id"`
	FilledSlots int    `json:"filled_slots"`
	MaxSlots    int    `json:"max_slots"`
}

func NewParticipantLeft(idempotencyKey string, b entity.Booking, userID string) ParticipantLeft {
	return ParticipantLeft{
		Header:      newHeader(idempotencyKey),
		BookingID:   b.ID,
		UserID:      userID,
		OrganizerID: b.OrganizerID,
		FilledSlots: b.FilledSlots,
		MaxSlots:    b.MaxSlots,
	}
}

type BookingCompleted struct {
	Header      header `json:"header"`
	BookingID   string `json:"booking_id"`
	VenueID     string `json:"venue_id"`
	Date        string `json:"date"`
	OrganizerID string `json:"organizer_id"`
}

func NewBookingCompleted(idempotencyKey string, b entity.Booking) BookingCompleted {
	return BookingCompleted{
		Header:      newHeader(idempotencyKey),
		BookingID:   b.ID,
		VenueID:     b.VenueID,
		Date:        b.Date,
		OrganizerID: b.OrganizerID,
	}
}
