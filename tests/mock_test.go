package tests_test

import (
	"context"
	"sync"
	"venuebooking/entity"
)

type MockReceiptsClient struct {
	lock           sync.Mutex
	IssuedReceipts []IssueReceiptRequest
	VoidedReceipts []string
}

type IssueReceiptRequest struct {
	bookingID string
	price     entity.Money
}

func (m *MockReceiptsClient) IssueReceipt(_ context.Context, _, bookingID string, price entity.Money) error {
	m.lock.Lock()
	m.IssuedReceipts = append(m.IssuedReceipts, IssueReceiptRequest{bookingID: bookingID, price: price})
	m.lock.Unlock()

	return nil
}

func (m *MockReceiptsClient) VoidReceipt(_ context.Context, _, bookingID string) error {
	m.lock.Lock()
	m.VoidedReceipts = append(m.VoidedReceipts, bookingID)
	m.lock.Unlock()

	return nil
}

type MockPaymentsClient struct {
	lock    sync.Mutex
	Refunds []RefundRequest
}

type RefundRequest struct {
	bookingID string
	price     entity.Money
}

func (m *MockPaymentsClient) RefundPayment(_ context.Context, _, bookingID string, price entity.Money) error {
	m.lock.Lock()
	m.Refunds = append(m.Refunds, RefundRequest{bookingID: bookingID, price: price})
	m.lock.Unlock()

	return nil
}

type MockNotifier struct {
	lock          sync.Mutex
	Notifications []Notification
}

type Notification struct {
	userID  string
	message string
}

func (m *MockNotifier) Send(_ context.Context, userID, message string) error {
	m.lock.Lock()
	m.Notifications = append(m.Notifications, Notification{userID: userID, message: message})
	m.lock.Unlock()

	return nil
}

type MockSpreadsheetAppender struct {
	lock         sync.Mutex
	RowsAppended []AppendRowRequest
}

type AppendRowRequest struct {
	spreadsheetName string
	row             []string
}

func (m *MockSpreadsheetAppender) AppendRow(_ context.Context, spreadsheetName string, row []string) error {
	m.lock.Lock()
	m.RowsAppended = append(m.RowsAppended, AppendRowRequest{spreadsheetName: spreadsheetName, row: row})
	m.lock.Unlock()

	return nil
}
