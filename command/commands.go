package command

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

type RefundPayment struct {
	Header    header       `json:"header"`
	BookingID string       `json:"booking_id"`
	Price     entity.Money `json:"price"`
}

func NewRefundPayment(idempotencyKey, bookingID string, price entity.Money) RefundPayment {
	return RefundPayment{
		Header:    newHeader(idempotencyKey),
		BookingID: bookingID,
		Price:     price,
	}
}
