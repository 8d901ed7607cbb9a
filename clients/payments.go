package clients

import (
	"context"
	"venuebooking/entity"
)

type PaymentsClient struct {
	client *Client
}

func NewPaymentsClient(client *Client) PaymentsClient {
	return PaymentsClient{
		client: client,
	}
}

type refundPaymentRequest struct {
	IdempotencyKey string       `json:"idempotency_key"`
	BookingID      string       `json:"booking_id"`
	Price          entity.Money `json:"price"`
}

func (c PaymentsClient) RefundPayment(ctx context.Context, idempotencyKey, bookingID string, price entity.Money) error {
	return c.client.post(ctx, "/payments/refund", refundPaymentRequest{
		IdempotencyKey: idempotencyKey,
		BookingID:      bookingID,
		Price:          price,
	})
}
