package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"venuebooking/entity"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type VenueRepo interface {
	Add(ctx context.Context, venue entity.Venue) error
	Get(ctx context.Context, venueID string) (entity.Venue, error)
	List(ctx context.Context) ([]entity.Venue, error)
}

type BookingRepo interface {
	Create(ctx context.Context, booking entity.Booking) error
	Get(ctx context.Context, bookingID string) (entity.Booking, error)
	BookedHours(ctx context.Context, venueID, date string) (map[int]bool, error)
	ListForVenueDate(ctx context.Context, venueID, date string, includeCancelled bool) ([]entity.Booking, error)
	Join(ctx context.Context, bookingID, userID string, now time.Time) (entity.Booking, error)
	Leave(ctx context.Context, bookingID, userID string) (entity.Booking, error)
	Cancel(ctx context.Context, bookingID, actorID string) (entity.Booking, error)
	MarkPaid(ctx context.Context, bookingID string) (entity.Booking, error)
	Complete(ctx context.Context, bookingID string, now time.Time) (entity.Booking, error)
	ExpirePending(ctx context.Context, now time.Time, ttl time.Duration) (int, error)
	CompleteElapsed(ctx context.Context, now time.Time) (int, error)
}

type handler struct {
	venueRepo   VenueRepo
	bookingRepo BookingRepo
	pendingTTL  time.Duration
}

type createVenueRequest struct {
	Name         string                 `json:"name"`
	Address      string                 `json:"address"`
	City         string                 `json:"city"`
	VenueType    string                 `json:"venue_type"`
	PricePerHour int64                  `json:"price_per_hour"`
	Capacity     int                    `json:"capacity"`
	ManagerID    string                 `json:"manager_id"`
	Schedule     []entity.ScheduleEntry `json:"schedule"`
	Facilities   []string               `json:"facilities"`
	Images       []string               `json:"images"`
}

func (h handler) CreateVenue(c echo.Context) error {
	var request createVenueRequest
	if err := c.Bind(&request); err != nil {
		return badRequest("failed to parse request", err)
	}
	if request.Name == "" || request.PricePerHour <= 0 {
		return badRequest("name and a positive price_per_hour are required", nil)
	}

	for _, s := range request.Schedule {
		if err := s.Validate(); err != nil {
			return httpError(err)
		}
	}

	venue := entity.Venue{
		ID:           uuid.NewString(),
		Name:         request.Name,
		Address:      request.Address,
		City:         request.City,
		Type:         request.VenueType,
		PricePerHour: request.PricePerHour,
		Capacity:     request.Capacity,
		ManagerID:    request.ManagerID,
		Schedule:     request.Schedule,
		Facilities:   request.Facilities,
		Images:       request.Images,
	}

	if err := h.venueRepo.Add(c.Request().Context(), venue); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, venue)
}

func (h handler) ListVenues(c echo.Context) error {
	venues, err := h.venueRepo.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	if venues == nil {
		venues = []entity.Venue{}
	}

	return c.JSON(http.StatusOK, venues)
}

func (h handler) GetVenue(c echo.Context) error {
	venue, err := h.venueRepo.Get(c.Request().Context(), c.Param("venue_id"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, venue)
}

type availabilityResponse struct {
	VenueID string            `json:"venue_id"`
	Date    string            `json:"date"`
	Slots   []entity.TimeSlot `json:"slots"`
}

// GetAvailability resolves the bookable hour slots of a venue on a date. A
// closed day is an empty slot list, not an error.
func (h handler) GetAvailability(c echo.Context) error {
	ctx := c.Request().Context()

	venue, err := h.venueRepo.Get(ctx, c.Param("venue_id"))
	if err != nil {
		return httpError(err)
	}

	date := c.QueryParam("date")
	day, err := entity.ParseDate(date)
	if err != nil {
		return httpError(err)
	}

	slots := []entity.TimeSlot{}
	if schedule, ok := venue.ScheduleFor(int(day.Weekday())); ok {
		booked, err := h.bookingRepo.BookedHours(ctx, venue.ID, date)
		if err != nil {
			return httpError(err)
		}
		if s := entity.DaySlots(schedule, booked); s != nil {
			slots = s
		}
	}

	return c.JSON(http.StatusOK, availabilityResponse{
		VenueID: venue.ID,
		Date:    date,
		Slots:   slots,
	})
}

func (h handler) ListVenueBookings(c echo.Context) error {
	ctx := c.Request().Context()

	venue, err := h.venueRepo.Get(ctx, c.Param("venue_id"))
	if err != nil {
		return httpError(err)
	}

	date := c.QueryParam("date")
	if _, err := entity.ParseDate(date); err != nil {
		return httpError(err)
	}

	includeCancelled := c.QueryParam("include_cancelled") == "true"
	bookings, err := h.bookingRepo.ListForVenueDate(ctx, venue.ID, date, includeCancelled)
	if err != nil {
		return httpError(err)
	}
	if bookings == nil {
		bookings = []entity.Booking{}
	}

	return c.JSON(http.StatusOK, bookings)
}

type quoteRequest struct {
	VenueID          string   `json:"venue_id"`
	Date             string   `json:"date"`
	Slots            []string `json:"slots"`
	StrictContiguous bool     `json:"strict_contiguous"`
}

type quoteResponse struct {
	VenueID    string       `json:"venue_id"`
	Date       string       `json:"date"`
	StartTime  string       `json:"start_time"`
	EndTime    string       `json:"end_time"`
	Hours      int          `json:"hours"`
	TotalPrice entity.Money `json:"total_price"`
}

// QuoteBooking prices a slot selection and derives the start/end range to
// submit, without reserving anything.
func (h handler) QuoteBooking(c echo.Context) error {
	var request quoteRequest
	if err := c.Bind(&request); err != nil {
		return badRequest("failed to parse request", err)
	}

	venue, err := h.venueRepo.Get(c.Request().Context(), request.VenueID)
	if err != nil {
		return httpError(err)
	}
	if _, err := entity.ParseDate(request.Date); err != nil {
		return httpError(err)
	}

	selection := entity.SlotSelection{
		VenueID:          venue.ID,
		Date:             request.Date,
		PricePerHour:     venue.PricePerHour,
		StrictContiguous: request.StrictContiguous,
	}
	for _, slot := range request.Slots {
		hour, err := entity.ParseHour(slot)
		if err != nil {
			return httpError(err)
		}
		if err := selection.Toggle(hour); err != nil {
			return httpError(err)
		}
	}

	startHour, endHour, err := selection.Range()
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, quoteResponse{
		VenueID:    venue.ID,
		Date:       request.Date,
		StartTime:  entity.FormatHour(startHour),
		EndTime:    entity.FormatHour(endHour),
		Hours:      selection.Count(),
		TotalPrice: entity.Money{Amount: selection.TotalPrice(), Currency: entity.CurrencyIDR},
	})
}

type createBookingRequest struct {
	VenueID     string `json:"venue_id"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsJoinable  bool   `json:"is_joinable"`
	MaxSlots    int    `json:"max_slots"`
	OrganizerID string `json:"organizer_id"`
}

func (h handler) CreateBooking(c echo.Context) error {
	ctx := c.Request().Context()

	var request createBookingRequest
	if err := c.Bind(&request); err != nil {
		return badRequest("failed to parse request", err)
	}
	if request.OrganizerID == "" {
		return badRequest("organizer_id is required", nil)
	}

	venue, err := h.venueRepo.Get(ctx, request.VenueID)
	if err != nil {
		return httpError(err)
	}

	day, err := entity.ParseDate(request.Date)
	if err != nil {
		return httpError(err)
	}

	startHour, err := entity.ParseHour(request.StartTime)
	if err != nil {
		return httpError(err)
	}
	endHour, err := entity.ParseHour(request.EndTime)
	if err != nil {
		return httpError(err)
	}

	schedule, ok := venue.ScheduleFor(int(day.Weekday()))
	if !ok || !schedule.Covers(startHour, endHour) {
		return httpError(fmt.Errorf("%w: outside the venue's operating hours", entity.ErrSlotUnavailable))
	}

	booking, err := entity.NewBooking(uuid.NewString(), venue.ID, request.Date, startHour, endHour,
		venue.PricePerHour, request.IsJoinable, request.MaxSlots, request.OrganizerID, time.Now())
	if err != nil {
		return httpError(err)
	}

	if err := h.bookingRepo.Create(ctx, booking); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, booking)
}

func (h handler) GetBooking(c echo.Context) error {
	booking, err := h.bookingRepo.Get(c.Request().Context(), c.Param("booking_id"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, booking)
}

type joinRequest struct {
	UserID string `json:"user_id"`
}

func (h handler) JoinBooking(c echo.Context) error {
	var request joinRequest
	if err := c.Bind(&request); err != nil {
		return badRequest("failed to parse request", err)
	}
	if request.UserID == "" {
		return badRequest("user_id is required", nil)
	}

	booking, err := h.bookingRepo.Join(c.Request().Context(), c.Param("booking_id"), request.UserID, time.Now())
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, booking)
}

func (h handler) LeaveBooking(c echo.Context) error {
	var request joinRequest
	if err := c.Bind(&request); err != nil {
		return badRequest("failed to parse request", err)
	}
	if request.UserID == "" {
		return badRequest("user_id is required", nil)
	}

	booking, err := h.bookingRepo.Leave(c.Request().Context(), c.Param("booking_id"), request.UserID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, booking)
}

type cancelRequest struct {
	ActorID string `json:"actor_id"`
}

func (h handler) CancelBooking(c echo.Context) error {
	var request cancelRequest
	if err := c.Bind(&request); err != nil {
		return badRequest("failed to parse request", err)
	}
	if request.ActorID == "" {
		return badRequest("actor_id is required", nil)
	}

	booking, err := h.bookingRepo.Cancel(c.Request().Context(), c.Param("booking_id"), request.ActorID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, booking)
}

func (h handler) MarkBookingPaid(c echo.Context) error {
	booking, err := h.bookingRepo.MarkPaid(c.Request().Context(), c.Param("booking_id"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, booking)
}

func (h handler) CompleteBooking(c echo.Context) error {
	booking, err := h.bookingRepo.Complete(c.Request().Context(), c.Param("booking_id"), time.Now())
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, booking)
}

func (h handler) ExpirePendingBookings(c echo.Context) error {
	expired, err := h.bookingRepo.ExpirePending(c.Request().Context(), time.Now(), h.pendingTTL)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]int{"expired": expired})
}

func (h handler) CompleteElapsedBookings(c echo.Context) error {
	completed, err := h.bookingRepo.CompleteElapsed(c.Request().Context(), time.Now())
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]int{"completed": completed})
}

func badRequest(message string, err error) error {
	return &echo.HTTPError{
		Code:     http.StatusBadRequest,
		Message:  map[string]string{"error": "BadRequest", "message": message},
		Internal: err,
	}
}

// httpError maps domain failures to 4xx responses carrying the error kind.
func httpError(err error) error {
	kinds := []struct {
		target error
		code   int
		kind   string
	}{
		{entity.ErrVenueNotFound, http.StatusNotFound, "VenueNotFound"},
		{entity.ErrBookingNotFound, http.StatusNotFound, "BookingNotFound"},
		{entity.ErrInvalidDate, http.StatusBadRequest, "InvalidDate"},
		{entity.ErrInvalidHour, http.StatusBadRequest, "InvalidHour"},
		{entity.ErrInvalidSlots, http.StatusBadRequest, "InvalidSlots"},
		{entity.ErrEmptySelection, http.StatusBadRequest, "EmptySelection"},
		{entity.ErrNonContiguous, http.StatusBadRequest, "NonContiguousSelection"},
		{entity.ErrSlotUnavailable, http.StatusConflict, "SlotUnavailable"},
		{entity.ErrSlotsFull, http.StatusConflict, "SlotsFull"},
		{entity.ErrAlreadyJoined, http.StatusConflict, "AlreadyJoined"},
		{entity.ErrNotAParticipant, http.StatusConflict, "NotAParticipant"},
		{entity.ErrInvalidTransition, http.StatusConflict, "InvalidTransition"},
		{entity.ErrNotReady, http.StatusConflict, "NotReady"},
	}

	for _, k := range kinds {
		if errors.Is(err, k.target) {
			return &echo.HTTPError{
				Code:     k.code,
				Message:  map[string]string{"error": k.kind, "message": err.Error()},
				Internal: err,
			}
		}
	}

	return &echo.HTTPError{
		Code:     http.StatusInternalServerError,
		Message:  http.StatusText(http.StatusInternalServerError),
		Internal: err,
	}
}
