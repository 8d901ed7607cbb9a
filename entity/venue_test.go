package entity_test

import (
	"testing"
	"venuebooking/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaySlots(t *testing.T) {
	monday := entity.ScheduleEntry{DayOfWeek: 1, OpenHour: 18, CloseHour: 22, IsAvailable: true}

	t.Run("no bookings", func(t *testing.T) {
		slots := entity.DaySlots(monday, nil)
		require.Len(t, slots, 4)
		assert.Equal(t, entity.TimeSlot{Start: "18:00", Available: true}, slots[0])
		assert.Equal(t, entity.TimeSlot{Start: "19:00", Available: true}, slots[1])
		assert.Equal(t, entity.TimeSlot{Start: "20:00", Available: true}, slots[2])
		assert.Equal(t, entity.TimeSlot{Start: "21:00", Available: true}, slots[3])
	})

	t.Run("booked hours flagged", func(t *testing.T) {
		slots := entity.DaySlots(monday, map[int]bool{19: true, 20: true})
		require.Len(t, slots, 4)
		assert.True(t, slots[0].Available)
		assert.False(t, slots[1].Available)
		assert.False(t, slots[2].Available)
		assert.True(t, slots[3].Available)
	})

	t.Run("closed day yields no slots", func(t *testing.T) {
		closed := entity.ScheduleEntry{DayOfWeek: 0, IsAvailable: false}
		assert.Empty(t, entity.DaySlots(closed, nil))
	})
}

func TestScheduleEntryValidate(t *testing.T) {
	valid := entity.ScheduleEntry{DayOfWeek: 1, OpenHour: 8, CloseHour: 22, IsAvailable: true}
	require.NoError(t, valid.Validate())

	inverted := entity.ScheduleEntry{DayOfWeek: 1, OpenHour: 22, CloseHour: 8, IsAvailable: true}
	assert.ErrorIs(t, inverted.Validate(), entity.ErrInvalidHour)

	// An inverted window on a closed day is tolerated.
	closed := entity.ScheduleEntry{DayOfWeek: 1, OpenHour: 0, CloseHour: 0, IsAvailable: false}
	assert.NoError(t, closed.Validate())

	badDay := entity.ScheduleEntry{DayOfWeek: 7, OpenHour: 8, CloseHour: 22, IsAvailable: true}
	assert.Error(t, badDay.Validate())
}

func TestScheduleEntryCovers(t *testing.T) {
	s := entity.ScheduleEntry{DayOfWeek: 1, OpenHour: 18, CloseHour: 22, IsAvailable: true}

	assert.True(t, s.Covers(18, 22))
	assert.True(t, s.Covers(19, 21))
	assert.False(t, s.Covers(17, 19))
	assert.False(t, s.Covers(21, 23))

	s.IsAvailable = false
	assert.False(t, s.Covers(19, 21))
}

func TestParseHour(t *testing.T) {
	h, err := entity.ParseHour("18:00")
	require.NoError(t, err)
	assert.Equal(t, 18, h)

	_, err = entity.ParseHour("18:30")
	assert.ErrorIs(t, err, entity.ErrInvalidHour)

	_, err = entity.ParseHour("half past six")
	assert.ErrorIs(t, err, entity.ErrInvalidHour)
}

func TestParseDate(t *testing.T) {
	d, err := entity.ParseDate("2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, 1, int(d.Weekday())) // a Monday

	_, err = entity.ParseDate("02/03/2026")
	assert.ErrorIs(t, err, entity.ErrInvalidDate)
}

func TestVenueScheduleFor(t *testing.T) {
	v := entity.Venue{
		Schedule: []entity.ScheduleEntry{
			{DayOfWeek: 1, OpenHour: 18, CloseHour: 22, IsAvailable: true},
			{DayOfWeek: 2, IsAvailable: false},
		},
	}

	s, ok := v.ScheduleFor(1)
	require.True(t, ok)
	assert.Equal(t, 18, s.OpenHour)

	_, ok = v.ScheduleFor(5)
	assert.False(t, ok)
}
