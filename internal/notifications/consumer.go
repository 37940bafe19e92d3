package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/roomscout/roomscout-backend/pkg/db/models"
	"github.com/roomscout/roomscout-backend/pkg/enums"
	"github.com/roomscout/roomscout-backend/pkg/logger"
	"github.com/roomscout/roomscout-backend/pkg/outbox"
	"github.com/roomscout/roomscout-backend/pkg/outbox/idempotency"
	"github.com/roomscout/roomscout-backend/pkg/outbox/payloads"
)

const listingNotificationConsumer = "listing-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer watches domain events and turns review decisions into owner notifications.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds a listing notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	if eventType != enums.OutboxEventListingVerified && eventType != enums.OutboxEventListingRejected {
		c.logg.Info(logCtx, "skipping non-decision event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, listingNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handleDecision(ctx, eventType, envelope.Data, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, listingNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func (c *Consumer) handleDecision(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage, logCtx context.Context) error {
	if eventType == enums.OutboxEventListingVerified {
		var payload payloads.ListingVerifiedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse verified payload: %w", err)
		}
		return c.createOwnerNotification(ctx, ownerNotification{
			listingID: payload.ListingID,
			ownerID:   payload.OwnerID,
			notifType: enums.NotificationTypeListingVerified,
			title:     "Listing approved",
			message:   fmt.Sprintf("Your listing %q has been verified and is now live.", payload.TitlePreview),
		}, logCtx)
	}

	var payload payloads.ListingRejectedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse rejected payload: %w", err)
	}
	message := fmt.Sprintf("Your listing %q was rejected.", payload.TitlePreview)
	if payload.Reason != "" {
		message = fmt.Sprintf("Your listing %q was rejected. Reason: %s", payload.TitlePreview, payload.Reason)
	}
	return c.createOwnerNotification(ctx, ownerNotification{
		listingID: payload.ListingID,
		ownerID:   payload.OwnerID,
		notifType: enums.NotificationTypeListingRejected,
		title:     "Listing rejected",
		message:   message,
	}, logCtx)
}

type ownerNotification struct {
	listingID uuid.UUID
	ownerID   uuid.UUID
	notifType enums.NotificationType
	title     string
	message   string
}

func (c *Consumer) createOwnerNotification(ctx context.Context, n ownerNotification, logCtx context.Context) error {
	if n.ownerID == uuid.Nil {
		return fmt.Errorf("owner id missing")
	}
	if n.listingID == uuid.Nil {
		return fmt.Errorf("listing id missing")
	}
	link := fmt.Sprintf("/listings/%s", n.listingID)
	ownerID := n.ownerID
	notification := &models.Notification{
		RecipientID: &ownerID,
		ListingID:   n.listingID,
		Type:        n.notifType,
		Title:       n.title,
		Message:     strings.TrimSpace(n.message),
		Link:        &link,
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "owner notified of review decision")
	return nil
}
