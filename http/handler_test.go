package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"venuebooking/entity"
	venuehttp "venuebooking/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVenueRepo struct {
	venues map[string]entity.Venue
}

func newFakeVenueRepo() *fakeVenueRepo {
	return &fakeVenueRepo{venues: map[string]entity.Venue{}}
}

func (r *fakeVenueRepo) Add(_ context.Context, venue entity.Venue) error {
	r.venues[venue.ID] = venue
	return nil
}

func (r *fakeVenueRepo) Get(_ context.Context, venueID string) (entity.Venue, error) {
	venue, ok := r.venues[venueID]
	if !ok {
		return entity.Venue{}, entity.ErrVenueNotFound
	}
	return venue, nil
}

func (r *fakeVenueRepo) List(_ context.Context) ([]entity.Venue, error) {
	var venues []entity.Venue
	for _, v := range r.venues {
		venues = append(venues, v)
	}
	return venues, nil
}

type fakeBookingRepo struct {
	bookings map[string]entity.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: map[string]entity.Booking{}}
}

func (r *fakeBookingRepo) Create(ctx context.Context, booking entity.Booking) error {
	booked, err := r.BookedHours(ctx, booking.VenueID, booking.Date)
	if err != nil {
		return err
	}
	for _, h := range booking.Hours() {
		if booked[h] {
			return fmt.Errorf("%w: %02d:00 is taken", entity.ErrSlotUnavailable, h)
		}
	}
	r.bookings[booking.ID] = booking
	return nil
}

func (r *fakeBookingRepo) Get(_ context.Context, bookingID string) (entity.Booking, error) {
	booking, ok := r.bookings[bookingID]
	if !ok {
		return entity.Booking{}, entity.ErrBookingNotFound
	}
	return booking, nil
}

func (r *fakeBookingRepo) BookedHours(_ context.Context, venueID, date string) (map[int]bool, error) {
	booked := map[int]bool{}
	for _, b := range r.bookings {
		if b.VenueID != venueID || b.Date != date || b.Status == entity.StatusCancelled {
			continue
		}
		for _, h := range b.Hours() {
			booked[h] = true
		}
	}
	return booked, nil
}

func (r *fakeBookingRepo) ListForVenueDate(_ context.Context, venueID, date string, includeCancelled bool) ([]entity.Booking, error) {
	var bookings []entity.Booking
	for _, b := range r.bookings {
		if b.VenueID != venueID || b.Date != date {
			continue
		}
		if b.Status == entity.StatusCancelled && !includeCancelled {
			continue
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

func (r *fakeBookingRepo) update(bookingID string, fn func(b *entity.Booking) error) (entity.Booking, error) {
	booking, ok := r.bookings[bookingID]
	if !ok {
		return entity.Booking{}, entity.ErrBookingNotFound
	}
	if err := fn(&booking); err != nil {
		return entity.Booking{}, err
	}
	r.bookings[bookingID] = booking
	return booking, nil
}

func (r *fakeBookingRepo) Join(_ context.Context, bookingID, userID string, now time.Time) (entity.Booking, error) {
	return r.update(bookingID, func(b *entity.Booking) error {
		return b.Join(userID, now)
	})
}

func (r *fakeBookingRepo) Leave(_ context.Context, bookingID, userID string) (entity.Booking, error) {
	return r.update(bookingID, func(b *entity.Booking) error {
		return b.Leave(userID)
	})
}

func (r *fakeBookingRepo) Cancel(_ context.Context, bookingID, _ string) (entity.Booking, error) {
	return r.update(bookingID, func(b *entity.Booking) error {
		return b.Cancel()
	})
}

func (r *fakeBookingRepo) MarkPaid(_ context.Context, bookingID string) (entity.Booking, error) {
	return r.update(bookingID, func(b *entity.Booking) error {
		return b.MarkPaid()
	})
}

func (r *fakeBookingRepo) Complete(_ context.Context, bookingID string, now time.Time) (entity.Booking, error) {
	return r.update(bookingID, func(b *entity.Booking) error {
		return b.Complete(now)
	})
}

func (r *fakeBookingRepo) ExpirePending(_ context.Context, now time.Time, ttl time.Duration) (int, error) {
	expired := 0
	for id, b := range r.bookings {
		if b.Status == entity.StatusPending && now.Sub(b.CreatedAt) >= ttl {
			b.Status = entity.StatusCancelled
			r.bookings[id] = b
			expired++
		}
	}
	return expired, nil
}

func (r *fakeBookingRepo) CompleteElapsed(_ context.Context, now time.Time) (int, error) {
	completed := 0
	for id, b := range r.bookings {
		endsAt, err := b.EndsAt()
		if err != nil {
			return 0, err
		}
		if b.Status == entity.StatusConfirmed && !now.Before(endsAt) {
			b.Status = entity.StatusCompleted
			r.bookings[id] = b
			completed++
		}
	}
	return completed, nil
}

type fixture struct {
	venues   *fakeVenueRepo
	bookings *fakeBookingRepo
	server   http.Handler
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	venues := newFakeVenueRepo()
	bookings := newFakeBookingRepo()

	return fixture{
		venues:   venues,
		bookings: bookings,
		server:   venuehttp.NewRouter(venues, bookings, 30*time.Minute),
	}
}

// futsalVenue is open 08:00-22:00 every day except Monday.
func (f fixture) futsalVenue(t *testing.T) entity.Venue {
	t.Helper()

	venue := entity.Venue{
		ID:           "venue-1",
		Name:         "Arena Futsal Senayan",
		City:         "Jakarta",
		Type:         "futsal",
		PricePerHour: 150_000,
		Capacity:     10,
		ManagerID:    "manager-1",
	}
	for day := 0; day < 7; day++ {
		venue.Schedule = append(venue.Schedule, entity.ScheduleEntry{
			DayOfWeek:   day,
			OpenHour:    8,
			CloseHour:   22,
			IsAvailable: day != 1,
		})
	}

	require.NoError(t, f.venues.Add(context.Background(), venue))
	return venue
}

func (f fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	request := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		request.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	f.server.ServeHTTP(recorder, request)
	return recorder
}

func decode[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()

	var value T
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &value))
	return value
}

func errorKind(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, recorder)["error"]
}

type availabilityResponse struct {
	VenueID string            `json:"venue_id"`
	Date    string            `json:"date"`
	Slots   []entity.TimeSlot `json:"slots"`
}

type quoteResponse struct {
	VenueID    string       `json:"venue_id"`
	Date       string       `json:"date"`
	StartTime  string       `json:"start_time"`
	EndTime    string       `json:"end_time"`
	Hours      int          `json:"hours"`
	TotalPrice entity.Money `json:"total_price"`
}

// 2026-09-02 is a Wednesday.
const testDate = "2026-09-02"

func createBooking(t *testing.T, f fixture, body string) entity.Booking {
	t.Helper()

	recorder := f.do(t, http.MethodPost, "/bookings", body)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	return decode[entity.Booking](t, recorder)
}

func TestCreateVenue(t *testing.T) {
	f := newFixture(t)

	recorder := f.do(t, http.MethodPost, "/venues", `{
		"name": "GOR Badminton Cilandak",
		"city": "Jakarta",
		"venue_type": "badminton",
		"price_per_hour": 80000,
		"manager_id": "manager-7",
		"schedule": [{"day_of_week": 0, "open_hour": 6, "close_hour": 23, "is_available": true}]
	}`)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	venue := decode[entity.Venue](t, recorder)
	assert.NotEmpty(t, venue.ID)
	assert.Equal(t, int64(80_000), venue.PricePerHour)

	recorder = f.do(t, http.MethodGet, "/venues/"+venue.ID, "")
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestCreateVenueRejectsInvalidSchedule(t *testing.T) {
	f := newFixture(t)

	recorder := f.do(t, http.MethodPost, "/venues", `{
		"name": "Broken",
		"price_per_hour": 1000,
		"schedule": [{"day_of_week": 3, "open_hour": 20, "close_hour": 8, "is_available": true}]
	}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "InvalidHour", errorKind(t, recorder))
}

func TestGetAvailability(t *testing.T) {
	f := newFixture(t)
	venue := f.futsalVenue(t)

	createBooking(t, f, fmt.Sprintf(`{
		"venue_id": %q, "date": %q,
		"start_time": "10:00", "end_time": "12:00",
		"organizer_id": "user-1"
	}`, venue.ID, testDate))

	recorder := f.do(t, http.MethodGet, "/venues/"+venue.ID+"/availability?date="+testDate, "")
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	response := decode[availabilityResponse](t, recorder)
	require.Len(t, response.Slots, 14)

	byStart := map[string]bool{}
	for _, slot := range response.Slots {
		byStart[slot.Start] = slot.Available
	}
	assert.True(t, byStart["08:00"])
	assert.False(t, byStart["10:00"])
	assert.False(t, byStart["11:00"])
	assert.True(t, byStart["12:00"])
}

func TestGetAvailabilityClosedDay(t *testing.T) {
	f := newFixture(t)
	venue := f.futsalVenue(t)

	// 2026-08-31 is a Monday, the venue's closed day.
	recorder := f.do(t, http.MethodGet, "/venues/"+venue.ID+"/availability?date=2026-08-31", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	response := decode[availabilityResponse](t, recorder)
	assert.NotNil(t, response.Slots)
	assert.Empty(t, response.Slots)
	assert.Contains(t, recorder.Body.String(), `"slots":[]`)
}

func TestGetAvailabilityBadDate(t *testing.T) {
	f := newFixture(t)
	venue := f.futsalVenue(t)

	recorder := f.do(t, http.MethodGet, "/venues/"+venue.ID+"/availability?date=02-09-2026", "")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "InvalidDate", errorKind(t, recorder))

	recorder = f.do(t, http.MethodGet, "/venues/missing/availability?date="+testDate, "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "VenueNotFound", errorKind(t, recorder))
}

func TestQuoteBooking(t *testing.T) {
	f := newFixture(t)
	venue := f.futsalVenue(t)

	recorder := f.do(t, http.MethodPost, "/bookings/quote", fmt.Sprintf(`{
		"venue_id": %q, "date": %q,
		"slots": ["14:00", "16:00"]
	}`, venue.ID, testDate))
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	quote := decode[quoteResponse](t, recorder)
	assert.Equal(t, "14:00", quote.StartTime)
	assert.Equal(t, "17:00", quote.EndTime)
	assert.Equal(t, 2, quote.Hours)
	assert.Equal(t, int64(300_000), quote.TotalPrice.Amount)
}

func TestQuoteBookingStrictContiguous(t *testing.T) {
	f := newFixture(t)
	venue := f.futsalVenue(t)

	recorder := f.do(t, http.MethodPost, "/bookings/quote", fmt.Sprintf(`{
		"venue_id": %q, "date": %q,
		"slots": ["14:00", "16:00"],
		"strict_contiguous": true
	}`, venue.ID, testDate))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "NonContiguousSelection", errorKind(t, recorder))
}

func TestQuoteBookingEmptySelection(t *testing.T) {
	f := newFixture(t)
	venue := f.futsalVenue(t)

	recorder := f.do(t, http.MethodPost, "/bookings/quote", fmt.Sprintf(`{
		"venue_id": %q, "date": %q, "slots": []
	}`, venue.ID, testDate))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "EmptySelection", errorKind(t, recorder))
}

func TestCreateBooking(t *testing.T) {
	f := newFixture(t)
	venue := f.futsalVenue(t)

	booking := createBooking(t, f, fmt.Sprintf(`{
		"venue_id": %q, "date": %q,
		"start_time": "18:00", "end_time": "20:00",
		"organizer_id": "user-1"
	}`, venue.ID, testDate))

	assert.Equal(t, entity.StatusPending, booking.Status)
	assert.Equal(t, int64(300_000), booking.TotalPrice)
	assert.Equal(t, 1, booking.MaxSlots)
	assert.False(t, booking.IsJoinable)
}

func TestCreateBookingInvalidSlots(t *testing.T) {
	f := newFixture(t)
	venue := f.futsalVenue(t)

	recorder := f.do(t, http.MethodPost, "/bookings", fmt.Sprintf(`{
		"venue_id": %q, "date": %q,
		"start_time": "18:00", "end_time": "20:00",
		"is_joinable": true, "max_slots": 0,
		"organizer_id": "user-1"
	}`, venue.ID, testDate))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "InvalidSlots", errorKind(t, recorder))

	recorder = f.do(t, http.MethodPost, "/bookings", fmt.Sprintf(`{
		"venue_id": %q, "date": %q,
		"start_time": "18:00", "end_time": "20:00",
		"is_joinable": true, "max_slots": -3,
		"organizer_id": "user-1"
	}`, venue.ID, testDate))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "InvalidSlots", errorKind(t, recorder))

	// A solo booking needs no capacity; zero means "default".
	booking := createBooking(t, f, fmt.Sprintf(`{
		"venue_id": %q, "date": %q,
		"start_time": "20:00", "end_time": "21:00",
		"organizer_id": "user-1"
	}`, venue.ID, testDate))
	assert.Equal(t, 1, booking.MaxSlots)
}

func TestCreateBookingConflict(t *testing.T) {
	f := newFixture(t)
	venue := f.futsalVenue(t)

	body := fmt.Sprintf(`{
		"venue_id": %q, "date": %q,
		"start_time": "18:00", "end_time": "20:00",
		"organizer_id": "user-1"
	}`, venue.ID, testDate)
	createBooking(t, f, body)

	recorder := f.do(t, http.MethodPost, "/bookings", body)
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, "SlotUnavailable", errorKind(t, recorder))
}

func TestCreateBookingOutsideOperatingHours(t *testing.T) {
	f := newFixture(t)
	venue := f.futsalVenue(t)

	recorder := f.do(t, http.MethodPost, "/bookings", fmt.Sprintf(`{
		"venue_id": %q, "date": %q,
		"start_time": "06:00", "end_time": "08:00",
		"organizer_id": "user-1"
	}`, venue.ID, testDate))
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, "SlotUnavailable", errorKind(t, recorder))

	// Closed day rejects every range.
	recorder = f.do(t, http.MethodPost, "/bookings", fmt.Sprintf(`{
		"venue_id": %q, "date": "2026-08-31",
		"start_time": "10:00", "end_time": "11:00",
		"organizer_id": "user-1"
	}`, venue.ID))
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestJoinableBookingLifecycle(t *testing.T) {
	f := newFixture(t)
	venue := f.futsalVenue(t)

	booking := createBooking(t, f, fmt.Sprintf(`{
		"venue_id": %q, "date": %q,
		"start_time": "19:00", "end_time": "21:00",
		"is_joinable": true, "max_slots": 2,
		"organizer_id": "user-1"
	}`, venue.ID, testDate))
	require.Equal(t, entity.StatusPending, booking.Status)

	// Joining before payment is refused.
	recorder := f.do(t, http.MethodPost, "/bookings/"+booking.ID+"/join", `{"user_id": "user-2"}`)
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, "NotReady", errorKind(t, recorder))

	recorder = f.do(t, http.MethodPost, "/bookings/"+booking.ID+"/paid", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, entity.StatusOpen, decode[entity.Booking](t, recorder).Status)

	recorder = f.do(t, http.MethodPost, "/bookings/"+booking.ID+"/join", `{"user_id": "user-2"}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, entity.StatusOpen, decode[entity.Booking](t, recorder).Status)

	recorder = f.do(t, http.MethodPost, "/bookings/"+booking.ID+"/join", `{"user_id": "user-2"}`)
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, "AlreadyJoined", errorKind(t, recorder))

	// Last slot confirms the booking.
	recorder = f.do(t, http.MethodPost, "/bookings/"+booking.ID+"/join", `{"user_id": "user-3"}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	confirmed := decode[entity.Booking](t, recorder)
	assert.Equal(t, entity.StatusConfirmed, confirmed.Status)
	assert.Equal(t, 2, confirmed.FilledSlots)

	recorder = f.do(t, http.MethodPost, "/bookings/"+booking.ID+"/join", `{"user_id": "user-4"}`)
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, "SlotsFull", errorKind(t, recorder))
}

func TestLeaveBooking(t *testing.T) {
	f := newFixture(t)
	venue := f.futsalVenue(t)

	booking := createBooking(t, f, fmt.Sprintf(`{
		"venue_id": %q, "date": %q,
		"start_time": "09:00", "end_time": "10:00",
		"is_joinable": true, "max_slots": 3,
		"organizer_id": "user-1"
	}`, venue.ID, testDate))

	f.do(t, http.MethodPost, "/bookings/"+booking.ID+"/paid", "")
	f.do(t, http.MethodPost, "/bookings/"+booking.ID+"/join", `{"user_id": "user-2"}`)

	recorder := f.do(t, http.MethodPost, "/bookings/"+booking.ID+"/leave", `{"user_id": "user-2"}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	left := decode[entity.Booking](t, recorder)
	assert.Equal(t, 0, left.FilledSlots)
	assert.Empty(t, left.Participants)

	recorder = f.do(t, http.MethodPost, "/bookings/"+booking.ID+"/leave", `{"user_id": "user-2"}`)
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, "NotAParticipant", errorKind(t, recorder))
}

func TestCancelBookingFreesSlots(t *testing.T) {
	f := newFixture(t)
	venue := f.futsalVenue(t)

	booking := createBooking(t, f, fmt.Sprintf(`{
		"venue_id": %q, "date": %q,
		"start_time": "13:00", "end_time": "15:00",
		"organizer_id": "user-1"
	}`, venue.ID, testDate))

	recorder := f.do(t, http.MethodPost, "/bookings/"+booking.ID+"/cancel", `{"actor_id": "user-1"}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, entity.StatusCancelled, decode[entity.Booking](t, recorder).Status)

	// Same hours are bookable again.
	createBooking(t, f, fmt.Sprintf(`{
		"venue_id": %q, "date": %q,
		"start_time": "13:00", "end_time": "15:00",
		"organizer_id": "user-5"
	}`, venue.ID, testDate))

	// Cancelling twice is an invalid transition.
	recorder = f.do(t, http.MethodPost, "/bookings/"+booking.ID+"/cancel", `{"actor_id": "user-1"}`)
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, "InvalidTransition", errorKind(t, recorder))
}

func TestCompleteBooking(t *testing.T) {
	f := newFixture(t)
	venue := f.futsalVenue(t)

	// A past date so the window has elapsed.
	booking := createBooking(t, f, fmt.Sprintf(`{
		"venue_id": %q, "date": "2026-08-26",
		"start_time": "10:00", "end_time": "11:00",
		"organizer_id": "user-1"
	}`, venue.ID))

	recorder := f.do(t, http.MethodPost, "/bookings/"+booking.ID+"/complete", "")
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, "InvalidTransition", errorKind(t, recorder))

	f.do(t, http.MethodPost, "/bookings/"+booking.ID+"/paid", "")

	recorder = f.do(t, http.MethodPost, "/bookings/"+booking.ID+"/complete", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, entity.StatusCompleted, decode[entity.Booking](t, recorder).Status)

	// Completing again is a no-op.
	recorder = f.do(t, http.MethodPost, "/bookings/"+booking.ID+"/complete", "")
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestListVenueBookings(t *testing.T) {
	f := newFixture(t)
	venue := f.futsalVenue(t)

	booking := createBooking(t, f, fmt.Sprintf(`{
		"venue_id": %q, "date": %q,
		"start_time": "08:00", "end_time": "09:00",
		"organizer_id": "user-1"
	}`, venue.ID, testDate))
	f.do(t, http.MethodPost, "/bookings/"+booking.ID+"/cancel", `{"actor_id": "user-1"}`)

	recorder := f.do(t, http.MethodGet, "/venues/"+venue.ID+"/bookings?date="+testDate, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, decode[[]entity.Booking](t, recorder))

	recorder = f.do(t, http.MethodGet, "/venues/"+venue.ID+"/bookings?date="+testDate+"&include_cancelled=true", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Len(t, decode[[]entity.Booking](t, recorder), 1)
}

func TestExpirePendingBookings(t *testing.T) {
	f := newFixture(t)
	venue := f.futsalVenue(t)

	booking := createBooking(t, f, fmt.Sprintf(`{
		"venue_id": %q, "date": %q,
		"start_time": "15:00", "end_time": "16:00",
		"organizer_id": "user-1"
	}`, venue.ID, testDate))

	// The fixture's TTL is 30 minutes and the booking was just created,
	// so nothing expires yet.
	recorder := f.do(t, http.MethodPost, "/jobs/expire-pending", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 0, decode[map[string]int](t, recorder)["expired"])

	stale := f.bookings.bookings[booking.ID]
	stale.CreatedAt = time.Now().Add(-time.Hour)
	f.bookings.bookings[booking.ID] = stale

	recorder = f.do(t, http.MethodPost, "/jobs/expire-pending", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 1, decode[map[string]int](t, recorder)["expired"])
}

func TestGetBookingNotFound(t *testing.T) {
	f := newFixture(t)

	recorder := f.do(t, http.MethodGet, "/bookings/missing", "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "BookingNotFound", errorKind(t, recorder))
}
