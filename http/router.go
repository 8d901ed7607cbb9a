package http

import (
	"net/http"
	"time"

	commonHTTP "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v3"
)

var ErrServerClosed = http.ErrServerClosed

const headerKeyCorrelationID = "Correlation-ID"

func NewRouter(venueRepo VenueRepo, bookingRepo BookingRepo, pendingTTL time.Duration) *echo.Echo {
	server := commonHTTP.NewEcho()
	server.Use(correlationIDMiddleware)

	server.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	handler := handler{
		venueRepo:   venueRepo,
		bookingRepo: bookingRepo,
		pendingTTL:  pendingTTL,
	}

	server.POST("/venues", handler.CreateVenue)
	server.GET("/venues", handler.ListVenues)
	server.GET("/venues/:venue_id", handler.GetVenue)
	server.GET("/venues/:venue_id/availability", handler.GetAvailability)
	server.GET("/venues/:venue_id/bookings", handler.ListVenueBookings)

	server.POST("/bookings/quote", handler.QuoteBooking)
	server.POST("/bookings", handler.CreateBooking)
	server.GET("/bookings/:booking_id", handler.GetBooking)
	server.POST("/bookings/:booking_id/join", handler.JoinBooking)
	server.POST("/bookings/:booking_id/leave", handler.LeaveBooking)
	server.POST("/bookings/:booking_id/cancel", handler.CancelBooking)
	server.POST("/bookings/:booking_id/paid", handler.MarkBookingPaid)
	server.POST("/bookings/:booking_id/complete", handler.CompleteBooking)

	// Collaborator surface for the external scheduler.
	server.POST("/jobs/expire-pending", handler.ExpirePendingBookings)
	server.POST("/jobs/complete-elapsed", handler.CompleteElapsedBookings)

	return server
}

func correlationIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		correlationID := c.Request().Header.Get(headerKeyCorrelationID)
		if correlationID == "" {
			correlationID = "gen_" + shortuuid.New()
		}

		ctx := log.ContextWithCorrelationID(c.Request().Context(), correlationID)
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}
