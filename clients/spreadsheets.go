package clients

import (
	"context"
	"fmt"
)

type SpreadsheetsClient struct {
	client *Client
}

func NewSpreadsheetsClient(client *Client) SpreadsheetsClient {
	return SpreadsheetsClient{
		client: client,
	}
}

type appendRowRequest struct {
	Columns []string `json:"columns"`
}

func (c SpreadsheetsClient) AppendRow(ctx context.Context, spreadsheetName string, row []string) error {
	path := fmt.Sprintf("/spreadsheets/%s/rows", spreadsheetName)
	return c.client.post(ctx, path, appendRowRequest{Columns: row})
}
