package message

import (
	"context"
	"fmt"
	"strconv"

	"venuebooking/command"
	"venuebooking/entity"
	"venuebooking/event"
)

type ReceiptsClient interface {
	IssueReceipt(ctx context.Context, idempotencyKey, bookingID string, price entity.Money) error
	VoidReceipt(ctx context.Context, idempotencyKey, bookingID string) error
}

type PaymentsClient interface {
	RefundPayment(ctx context.Context, idempotencyKey, bookingID string, price entity.Money) error
}

type NotificationSender interface {
	Send(ctx context.Context, userID, message string) error
}

type SpreadsheetAppender interface {
	AppendRow(ctx context.Context, spreadsheetName string, row []string) error
}

type CommandSender interface {
	Send(ctx context.Context, cmd any) error
}

type Handler struct {
	commandBus   CommandSender
	notifier     NotificationSender
	receipts     ReceiptsClient
	spreadsheets SpreadsheetAppender
}

func NewHandler(
	commandBus CommandSender,
	notifier NotificationSender,
	receipts ReceiptsClient,
	spreadsheets SpreadsheetAppender,
) Handler {
	return Handler{
		commandBus:   commandBus,
		notifier:     notifier,
		receipts:     receipts,
		spreadsheets: spreadsheets,
	}
}

func (h Handler) AppendBookingRow(ctx context.Context, e *event.BookingMade) error {
	row := []string{e.BookingID, e.VenueID, e.Date, e.StartTime, e.EndTime, strconv.FormatInt(e.TotalPrice, 10)}
	if err := h.spreadsheets.AppendRow(ctx, "bookings", row); err != nil {
		return fmt.Errorf("failed to append row to tracker: %w", err)
	}

	return nil
}

func (h Handler) IssueReceipt(ctx context.Context, e *event.BookingConfirmed) error {
	price := e.Price
	if price.Currency == "" {
		price.Currency = entity.CurrencyIDR
	}

	if err := h.receipts.IssueReceipt(ctx, e.Header.IdempotencyKey, e.BookingID, price); err != nil {
		return err
	}

	return nil
}

func (h Handler) NotifyBookingConfirmed(ctx context.Context, e *event.BookingConfirmed) error {
	msg := fmt.Sprintf("Your booking %s on %s is confirmed", e.BookingID, e.Date)
	if err := h.notifier.Send(ctx, e.OrganizerID, msg); err != nil {
		return fmt.Errorf("notifying organizer: %w", err)
	}

	return nil
}

// RefundCancelledBooking turns the cancellation of a paid booking into a
// refund command. Unpaid cancellations have nothing to refund.
func (h Handler) RefundCancelledBooking(ctx context.Context, e *event.BookingCancelled) error {
	if !e.Paid {
		return nil
	}

	cmd := command.NewRefundPayment(e.Header.IdempotencyKey, e.BookingID, e.Price)
	if err := h.commandBus.Send(ctx, cmd); err != nil {
		return fmt.Errorf("sending refund command: %w", err)
	}

	return nil
}

func (h Handler) AppendCancelledRow(ctx context.Context, e *event.BookingCancelled) error {
	row := []string{e.BookingID, e.VenueID, e.Date, e.ActorID, strconv.FormatBool(e.Paid)}
	if err := h.spreadsheets.AppendRow(ctx, "bookings-cancelled", row); err != nil {
		return fmt.Errorf("failed to append row to tracker: %w", err)
	}

	return nil
}

func (h Handler) NotifyParticipantJoined(ctx context.Context, e *event.ParticipantJoined) error {
	msg := fmt.Sprintf("%s joined your booking %s (%d/%d slots filled)", e.UserID, e.BookingID, e.FilledSlots, e.MaxSlots)
	if err := h.notifier.Send(ctx, e.OrganizerID, msg); err != nil {
		return fmt.Errorf("notifying organizer: %w", err)
	}

	return nil
}

func (h Handler) NotifyParticipantLeft(ctx context.Context, e *event.ParticipantLeft) error {
	msg := fmt.Sprintf("%s left your booking %s (%d/%d slots filled)", e.UserID, e.BookingID, e.FilledSlots, e.MaxSlots)
	if err := h.notifier.Send(ctx, e.OrganizerID, msg); err != nil {
		return fmt.Errorf("notifying organizer: %w", err)
	}

	return nil
}

func (h Handler) AppendCompletedRow(ctx context.Context, e *event.BookingCompleted) error {
	row := []string{e.BookingID, e.VenueID, e.Date}
	if err := h.spreadsheets.AppendRow(ctx, "bookings-completed", row); err != nil {
		return fmt.Errorf("failed to append row to tracker: %w", err)
	}

	return nil
}

type CommandHandler struct {
	payments PaymentsClient
	receipts ReceiptsClient
}

func NewCommandHandler(payments PaymentsClient, receipts ReceiptsClient) CommandHandler {
	return CommandHandler{
		payments: payments,
		receipts: receipts,
	}
}

func (h CommandHandler) RefundPayment(ctx context.Context, cmd *command.RefundPayment) error {
	if err := h.payments.RefundPayment(ctx, cmd.Header.IdempotencyKey, cmd.BookingID, cmd.Price); err != nil {
		return fmt.Errorf("refunding payment: %w", err)
	}

	if err := h.receipts.VoidReceipt(ctx, cmd.Header.IdempotencyKey, cmd.BookingID); err != nil {
		return fmt.Errorf("voiding booking receipt: %w", err)
	}

	return nil
}
