package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
)

// Envelope is the wire form of one queued notification. The bot process pops
// envelopes off the queue and performs the actual chat delivery.
type Envelope struct {
	ID             string    `json:"id"`
	ExternalUserID int64     `json:"user_id"`
	Message        string    `json:"message"`
	QueuedAt       time.Time `json:"queued_at"`
}

// RedisSink pushes notification envelopes onto a redis list. The repository
// side only ever produces; consuming is the Dispatcher's job.
type RedisSink struct {
	client *redis.Client
	queue  string
}

func NewRedisSink(client *redis.Client, queue string) *RedisSink {
	return &RedisSink{client: client, queue: queue}
}

func (s *RedisSink) Notify(ctx context.Context, externalUserID int64, message string) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("failed to generate envelope ID: %w", err)
	}

	envelope := Envelope{
		ID:             id.String(),
		ExternalUserID: externalUserID,
		Message:        message,
		QueuedAt:       time.Now(),
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	if err := s.client.LPush(ctx, s.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}

	return nil
}
