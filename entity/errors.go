package entity

import "errors"

// Domain failures returned to the API layer as typed results. Callers match
// with errors.Is; the HTTP layer maps each kind to a status code.
var (
	ErrVenueNotFound     = errors.New("venue not found")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidHour       = errors.New("invalid hour")
	ErrInvalidSlots      = errors.New("invalid slot count")
	ErrSlotUnavailable   = errors.New("slot unavailable")
	ErrSlotsFull         = errors.New("slots full")
	ErrAlreadyJoined     = errors.New("already joined")
	ErrNotAParticipant   = errors.New("not a participant")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotReady          = errors.New("not ready")
	ErrEmptySelection    = errors.New("empty slot selection")
	ErrNonContiguous     = errors.New("selected slots are not contiguous")
)
