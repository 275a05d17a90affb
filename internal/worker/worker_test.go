package worker

import (
	"context"
	"testing"

	"streamcart/internal/mailer"
	"streamcart/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []mailer.Message
}

func (f *fakeSender) Send(ctx context.Context, msg mailer.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

type fakeWorkerStore struct {
	processed        map[string]bool
	purchaseStatuses map[int64]string
	auditionStatuses map[int64]string
}

func newFakeWorkerStore() *fakeWorkerStore {
	return &fakeWorkerStore{
		processed:        make(map[string]bool),
		purchaseStatuses: make(map[int64]string),
		auditionStatuses: make(map[int64]string),
	}
}

func (f *fakeWorkerStore) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	return f.processed[eventID], nil
}

func (f *fakeWorkerStore) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	f.processed[eventID] = true
	return nil
}

func (f *fakeWorkerStore) UpdatePurchaseStatus(ctx context.Context, id int64, status string) error {
	f.purchaseStatuses[id] = status
	return nil
}

func (f *fakeWorkerStore) UpdateAuditionStatus(ctx context.Context, id int64, status string) error {
	f.auditionStatuses[id] = status
	return nil
}

func purchaseEvent(eventID string) *models.PurchaseCompletedEvent {
	return &models.PurchaseCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   eventID,
			EventType: models.EventTypePurchaseCompleted,
		},
		PurchaseID:    7,
		OrderID:       "order_1",
		CustomerEmail: "fan@example.com",
		ProductTitle:  "Episode 1",
	}
}

func TestHandlePurchaseCompletedSendsConfirmation(t *testing.T) {
	sender := &fakeSender{}
	store := newFakeWorkerStore()
	w := NewMailWorker(nil, store, sender, "casting@example.com")

	err := w.handlePurchaseCompleted(context.Background(), purchaseEvent("ev_1"))
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "fan@example.com", sender.sent[0].To)
	assert.Equal(t, models.PurchaseStatusNotified, store.purchaseStatuses[7])
	assert.True(t, store.processed["ev_1"])
}

func TestHandlePurchaseCompletedIsIdempotent(t *testing.T) {
	sender := &fakeSender{}
	store := newFakeWorkerStore()
	w := NewMailWorker(nil, store, sender, "casting@example.com")

	require.NoError(t, w.handlePurchaseCompleted(context.Background(), purchaseEvent("ev_1")))
	require.NoError(t, w.handlePurchaseCompleted(context.Background(), purchaseEvent("ev_1")))

	assert.Len(t, sender.sent, 1)
}

func TestHandleAuditionSubmittedSendsBothEmails(t *testing.T) {
	sender := &fakeSender{}
	store := newFakeWorkerStore()
	w := NewMailWorker(nil, store, sender, "casting@example.com")

	event := &models.AuditionSubmittedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "ev_2",
			EventType: models.EventTypeAuditionSubmitted,
		},
		SubmissionID: 3,
		Name:         "Sam",
		Email:        "sam@example.com",
		Role:         "lead",
	}

	err := w.handleAuditionSubmitted(context.Background(), event)
	require.NoError(t, err)

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "casting@example.com", sender.sent[0].To)
	assert.Equal(t, "sam@example.com", sender.sent[1].To)
	assert.Equal(t, models.AuditionStatusEmailed, store.auditionStatuses[3])
}
