package entity

import (
	"fmt"
	"sort"
)

// SlotSelection accumulates a user's chosen hour slots for one venue and
// date before submission. It is a plain value object: toggling is local
// state, nothing is reserved until the booking is created.
//
// With StrictContiguous unset the computed range spans min(start) to
// max(start)+1h and silently includes any unselected hour in between,
// matching the original selection behaviour; the price still covers only
// the selected slots. With StrictContiguous set a gapped selection is
// rejected instead.
type SlotSelection struct {
	VenueID          string `json:"venue_id"`
	Date             string `json:"date"`
	PricePerHour     int64  `json:"price_per_hour"`
	StrictContiguous bool   `json:"strict_contiguous"`
	Slots            []int  `json:"slots"`
}

// Toggle adds the hour if absent and removes it if present.
func (s *SlotSelection) Toggle(hour int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("%w: %d", ErrInvalidHour, hour)
	}

	for i, h := range s.Slots {
		if h == hour {
			s.Slots = append(s.Slots[:i], s.Slots[i+1:]...)
			return nil
		}
	}
	s.Slots = append(s.Slots, hour)
	sort.Ints(s.Slots)
	return nil
}

func (s *SlotSelection) Clear() {
	s.Slots = nil
}

func (s SlotSelection) Count() int {
	return len(s.Slots)
}

// Hours returns the selected hours in ascending order.
func (s SlotSelection) Hours() []int {
	hours := make([]int, len(s.Slots))
	copy(hours, s.Slots)
	return hours
}

// Range derives the booking's start and end hours: earliest selected slot
// and one hour past the latest.
func (s SlotSelection) Range() (startHour, endHour int, err error) {
	if len(s.Slots) == 0 {
		return 0, 0, ErrEmptySelection
	}

	startHour = s.Slots[0]
	endHour = s.Slots[len(s.Slots)-1] + 1
	if s.StrictContiguous && endHour-startHour != len(s.Slots) {
		return 0, 0, fmt.Errorf("%w: %d slots span %d hours", ErrNonContiguous, len(s.Slots), endHour-startHour)
	}
	return startHour, endHour, nil
}

// TotalPrice is recomputed on every read: selected slot count times the
// venue's hourly rate.
func (s SlotSelection) TotalPrice() int64 {
	return int64(len(s.Slots)) * s.PricePerHour
}
