package clients

import "context"

type NotificationsClient struct {
	client *Client
}

func NewNotificationsClient(client *Client) NotificationsClient {
	return NotificationsClient{
		client: client,
	}
}

type sendNotificationRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

func (c NotificationsClient) Send(ctx context.Context, userID, message string) error {
	return c.client.post(ctx, "/notifications", sendNotificationRequest{
		UserID:  userID,
		Message: message,
	})
}
