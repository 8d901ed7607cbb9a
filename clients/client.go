package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
)

// Client is a thin JSON client for the external services gateway. Payments,
// receipts and notifications sit behind it; the booking core only ever sees
// these calls succeed or fail.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(gatewayAddress string) (*Client, error) {
	if gatewayAddress == "" {
		return nil, errors.New("gateway address is empty")
	}

	return &Client{
		baseURL: strings.TrimSuffix(gatewayAddress, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshalling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Correlation-ID", log.CorrelationIDFromContext(ctx))

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	return nil
}
