package worker

import (
	"context"
	"fmt"
	"log"

	"streamcart/internal/broker"
	"streamcart/internal/mailer"
	"streamcart/internal/models"
	"streamcart/internal/util"

	"go.uber.org/zap"
)

// EmailSender delivers a transactional email.
type EmailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Store is the slice of the local store the worker needs.
type Store interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
	UpdatePurchaseStatus(ctx context.Context, purchaseID int64, status string) error
	UpdateAuditionStatus(ctx context.Context, auditionID int64, status string) error
}

// MailWorker consumes purchase lifecycle events and sends the transactional
// emails off the request path: purchase confirmations and audition
// submission notifications.
type MailWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        Store
	sender       EmailSender
	auditionDest string
	logger       *zap.Logger
}

// NewMailWorker creates a new mail worker
func NewMailWorker(consumer *broker.Consumer, store Store, sender EmailSender, auditionDest string) *MailWorker {
	w := &MailWorker{
		consumer:     consumer,
		store:        store,
		sender:       sender,
		auditionDest: auditionDest,
		logger:       util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnPurchaseCompleted(w.handlePurchaseCompleted)
	eventHandler.OnAuditionSubmitted(w.handleAuditionSubmitted)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *MailWorker) Start(ctx context.Context) error {
	log.Println("Starting mail worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *MailWorker) Stop() error {
	log.Println("Stopping mail worker...")
	return w.consumer.Close()
}

func (w *MailWorker) handlePurchaseCompleted(ctx context.Context, event *models.PurchaseCompletedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		w.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	if event.CustomerEmail == "" {
		w.logger.Warn("Purchase event without customer email, skipping confirmation",
			zap.String("order_id", event.OrderID))
		return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
	}

	msg := mailer.Message{
		To:      event.CustomerEmail,
		Subject: "Your purchase is ready to stream",
		Body: fmt.Sprintf("Thanks for your purchase!\n\nOrder: %s\nTitle: %s\n\nYour content is now unlocked in your library.",
			event.OrderID, event.ProductTitle),
	}
	if err := w.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send purchase confirmation: %w", err)
	}

	util.EmailsSentTotal.WithLabelValues("purchase_confirmation").Inc()

	if err := w.store.UpdatePurchaseStatus(ctx, event.PurchaseID, models.PurchaseStatusNotified); err != nil {
		w.logger.Error("Failed to update purchase status", zap.Error(err))
	}

	if err := w.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		w.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	w.logger.Info("Purchase confirmation sent",
		zap.String("order_id", event.OrderID),
		zap.String("to", event.CustomerEmail))
	return nil
}

func (w *MailWorker) handleAuditionSubmitted(ctx context.Context, event *models.AuditionSubmittedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		w.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	notify := mailer.Message{
		To:      w.auditionDest,
		Subject: fmt.Sprintf("New audition submission: %s", event.Name),
		Body:    fmt.Sprintf("Name: %s\nEmail: %s\nRole: %s", event.Name, event.Email, event.Role),
	}
	if err := w.sender.Send(ctx, notify); err != nil {
		return fmt.Errorf("failed to send audition notification: %w", err)
	}

	confirm := mailer.Message{
		To:      event.Email,
		Subject: "We received your audition",
		Body:    fmt.Sprintf("Hi %s,\n\nThanks for auditioning. We'll be in touch.", event.Name),
	}
	if err := w.sender.Send(ctx, confirm); err != nil {
		// Notification already went out; log and continue so the event is
		// not redelivered and the casting inbox emailed twice.
		w.logger.Error("Failed to send audition confirmation",
			zap.Int64("submission_id", event.SubmissionID),
			zap.Error(err))
	}

	util.EmailsSentTotal.WithLabelValues("audition").Inc()

	if err := w.store.UpdateAuditionStatus(ctx, event.SubmissionID, models.AuditionStatusEmailed); err != nil {
		w.logger.Error("Failed to update audition status", zap.Error(err))
	}

	if err := w.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		w.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	return nil
}
