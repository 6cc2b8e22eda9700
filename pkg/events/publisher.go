package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/threadline/threadline-backend/pkg/logger"
)

// Publisher hands assignment events to the event bus. Implementations are
// best-effort from the engine's point of view: a failed publish is logged by
// the caller, never rolled into the originating write.
type Publisher interface {
	PublishTaskAssigned(ctx context.Context, payload TaskAssignedPayload) error
}

type pubsubPublisher struct {
	topic *pubsub.Publisher
	logg  *logger.Logger
}

// NewPubSubPublisher wraps a Pub/Sub topic publisher for assignment events.
func NewPubSubPublisher(topic *pubsub.Publisher, logg *logger.Logger) (Publisher, error) {
	if topic == nil {
		return nil, errors.New("assignments topic publisher required")
	}
	return &pubsubPublisher{topic: topic, logg: logg}, nil
}

func (p *pubsubPublisher) PublishTaskAssigned(ctx context.Context, payload TaskAssignedPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	envelope := PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       body,
		Attributes: map[string]string{attributeEventType: string(EventTaskAssigned)},
	})
	if _, err := result.Get(ctx); err != nil {
		return err
	}

	if p.logg != nil {
		logCtx := p.logg.WithFields(ctx, map[string]any{
			"event_id": envelope.EventID,
			"item_id":  payload.ItemID,
			"worker":   payload.AssignedTo,
		})
		p.logg.Info(logCtx, "task assignment event published")
	}
	return nil
}
