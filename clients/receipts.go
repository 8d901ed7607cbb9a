package clients

import (
	"context"
	"venuebooking/entity"
)

type ReceiptsClient struct {
	client *Client
}

func NewReceiptsClient(client *Client) ReceiptsClient {
	return ReceiptsClient{
		client: client,
	}
}

type issueReceiptRequest struct {
	IdempotencyKey string       `json:"idempotency_key"`
	BookingID      string       `json:"booking_id"`
	Price          entity.Money `json:"price"`
}

func (c ReceiptsClient) IssueReceipt(ctx context.Context, idempotencyKey, bookingID string, price entity.Money) error {
	return c.client.post(ctx, "/receipts", issueReceiptRequest{
		IdempotencyKey: idempotencyKey,
		BookingID:      bookingID,
		Price:          price,
	})
}

type voidReceiptRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	BookingID      string `json:"booking_id"`
}

func (c ReceiptsClient) VoidReceipt(ctx context.Context, idempotencyKey, bookingID string) error {
	return c.client.post(ctx, "/receipts/void", voidReceiptRequest{
		IdempotencyKey: idempotencyKey,
		BookingID:      bookingID,
	})
}
