package entity

import (
	"fmt"
	"time"
)

const (
	DateFormat = "2006-01-02"
	HourFormat = "15:04"

	CurrencyIDR = "IDR"
)

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type Venue struct {
	ID           string          `json:"venue_id"`
	Name         string          `json:"name"`
	Address      string          `json:"address"`
	City         string          `json:"city"`
	Type         string          `json:"venue_type"`
	PricePerHour int64           `json:"price_per_hour"`
	Capacity     int             `json:"capacity"`
	ManagerID    string          `json:"manager_id"`
	Schedule     []ScheduleEntry `json:"schedule"`
	Facilities   []string        `json:"facilities"`
	Images       []string        `json:"images"`
}

// ScheduleEntry is the operating window for one day of the week.
// DayOfWeek follows time.Weekday: 0 is Sunday.
type ScheduleEntry struct {
	DayOfWeek   int  `json:"day_of_week"`
	OpenHour    int  `json:"open_hour"`
	CloseHour   int  `json:"close_hour"`
	IsAvailable bool `json:"is_available"`
}

func (s ScheduleEntry) Validate() error {
	if s.DayOfWeek < 0 || s.DayOfWeek > 6 {
		return fmt.Errorf("day of week %d out of range", s.DayOfWeek)
	}
	if s.OpenHour < 0 || s.CloseHour > 24 {
		return fmt.Errorf("%w: window %02d:00-%02d:00", ErrInvalidHour, s.OpenHour, s.CloseHour)
	}
	if s.IsAvailable && s.OpenHour >= s.CloseHour {
		return fmt.Errorf("%w: open %02d:00 must be before close %02d:00", ErrInvalidHour, s.OpenHour, s.CloseHour)
	}
	return nil
}

// Covers reports whether the [startHour, endHour) range falls inside the
// entry's open window on a day the venue operates.
func (s ScheduleEntry) Covers(startHour, endHour int) bool {
	return s.IsAvailable && startHour >= s.OpenHour && endHour <= s.CloseHour
}

// ScheduleFor returns the venue's entry for the given day of week.
func (v Venue) ScheduleFor(dayOfWeek int) (ScheduleEntry, bool) {
	for _, s := range v.Schedule {
		if s.DayOfWeek == dayOfWeek {
			return s, true
		}
	}
	return ScheduleEntry{}, false
}

// TimeSlot is one bookable hour on a given date. Derived, never persisted.
type TimeSlot struct {
	Start     string `json:"start"`
	Available bool   `json:"available"`
}

// DaySlots enumerates the hour slots of a schedule entry, flagging hours
// claimed by active bookings as unavailable. A day with IsAvailable=false
// yields no slots: a closed venue is not an error.
func DaySlots(s ScheduleEntry, bookedHours map[int]bool) []TimeSlot {
	if !s.IsAvailable {
		return nil
	}

	slots := make([]TimeSlot, 0, s.CloseHour-s.OpenHour)
	for h := s.OpenHour; h < s.CloseHour; h++ {
		slots = append(slots, TimeSlot{
			Start:     FormatHour(h),
			Available: !bookedHours[h],
		})
	}
	return slots
}

func FormatHour(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// ParseHour parses an "HH:00" slot boundary into an hour number.
func ParseHour(s string) (int, error) {
	t, err := time.Parse(HourFormat, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHour, s)
	}
	if t.Minute() != 0 {
		return 0, fmt.Errorf("%w: %q is not an hour boundary", ErrInvalidHour, s)
	}
	return t.Hour(), nil
}

// ParseDate validates a calendar date and returns it normalised to UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}
