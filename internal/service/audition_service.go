package service

import (
	"context"
	"fmt"

	"streamcart/internal/models"
	"streamcart/internal/util"

	"go.uber.org/zap"
)

// AuditionStore persists audition form submissions.
type AuditionStore interface {
	CreateAudition(ctx context.Context, a *models.AuditionSubmission) error
}

// AuditionPublisher publishes audition events for the email worker.
type AuditionPublisher interface {
	PublishAuditionSubmitted(ctx context.Context, event *models.AuditionSubmittedEvent) error
}

// AuditionService stores audition submissions and hands them to the email
// worker via the broker.
type AuditionService struct {
	store     AuditionStore
	publisher AuditionPublisher
	logger    *zap.Logger
}

// NewAuditionService creates a new audition service
func NewAuditionService(store AuditionStore, publisher AuditionPublisher) *AuditionService {
	return &AuditionService{
		store:     store,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// Submit validates and stores an audition submission, then publishes an
// event so confirmation email delivery happens off the request path.
func (s *AuditionService) Submit(ctx context.Context, sub *models.AuditionSubmission) error {
	if sub.Name == "" || sub.Email == "" {
		return fmt.Errorf("name and email are required")
	}

	sub.Status = models.AuditionStatusReceived
	if err := s.store.CreateAudition(ctx, sub); err != nil {
		return fmt.Errorf("failed to store audition: %w", err)
	}

	event := &models.AuditionSubmittedEvent{
		BaseEvent:    newBaseEvent(models.EventTypeAuditionSubmitted),
		SubmissionID: sub.ID,
		Name:         sub.Name,
		Email:        sub.Email,
		Role:         sub.Role,
	}
	if err := s.publisher.PublishAuditionSubmitted(ctx, event); err != nil {
		s.logger.Error("Failed to publish AuditionSubmitted event",
			zap.Int64("submission_id", sub.ID),
			zap.Error(err))
	}

	return nil
}
