package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/threadline/threadline-backend/pkg/events"
	"github.com/threadline/threadline-backend/pkg/logger"
)

const assignmentConsumer = "assignment-notifications"

// dispatcher is the slice of the notification service the consumer needs.
type dispatcher interface {
	Dispatch(ctx context.Context, recipient, title, message string, data map[string]string) (*DispatchResult, error)
}

type idempotencyManager interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer watches assignment events and turns each one into a notification
// for the worker the item landed on.
type Consumer struct {
	dispatcher   dispatcher
	subscription *pubsub.Subscriber
	idempotency  idempotencyManager
	logg         *logger.Logger
}

// NewConsumer builds an assignment notification consumer.
func NewConsumer(d dispatcher, subscription *pubsub.Subscriber, manager idempotencyManager, logg *logger.Logger) (*Consumer, error) {
	if d == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("assignments subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		dispatcher:   d,
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
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(events.EventTaskAssigned) {
		c.logg.Info(logCtx, "skipping non-assignment event")
		return processResult{ack: true}
	}

	var envelope events.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, assignmentConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var payload events.TaskAssignedPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, assignmentConsumer, eventID)
		return processResult{nack: true}
	}
	if payload.AssignedTo == "" {
		c.logg.Info(logCtx, "event carries no assignee")
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"item_id":  payload.ItemID,
		"assignee": payload.AssignedTo,
	})

	message := fmt.Sprintf("Item %s (%s) assigned for %s",
		payload.BillNumber, payload.ClothType, payload.Status)
	data := map[string]string{
		"itemId": payload.ItemID,
		"status": payload.Status.String(),
	}

	if _, err := c.dispatcher.Dispatch(ctx, payload.AssignedTo, "New Task Assigned", message, data); err != nil {
		c.logg.Error(logCtx, "notification dispatch failed", err)
		_ = c.idempotency.Delete(ctx, assignmentConsumer, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "worker notified of assignment")
	return processResult{ack: true}
}
