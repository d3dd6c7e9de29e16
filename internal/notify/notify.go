// Package notify publishes seating notifications to a Redis stream so that
// downstream workers (for example the email sender) can tell a bumped bidder
// about their new number.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Notification types.
const (
	TypeBidderNumberBumped = "bidder_number.bumped"
	TypeSeatingAutoAssign  = "seating.auto_assigned"
)

// Notification is a single message on the stream.
type Notification struct {
	Type    string
	EventID string
	Data    any
}

// BidderBumped is the payload of TypeBidderNumberBumped.
type BidderBumped struct {
	GuestID        string `json:"guest_id"`
	PreviousNumber int    `json:"previous_number"`
	NewNumber      int    `json:"new_number"`
	TakenByGuestID string `json:"taken_by_guest_id"`
}

// AutoAssigned is the payload of TypeSeatingAutoAssign.
type AutoAssigned struct {
	AssignedCount   int `json:"assigned_count"`
	UnassignedCount int `json:"unassigned_count"`
	Warnings        int `json:"warnings"`
}

// Publisher delivers notifications.
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Publish(context.Context, Notification) error { return nil }

// RedisStreamPublisher appends notifications to a Redis stream with XADD.
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStreamPublisher constructs a publisher. The stream is trimmed
// approximately to maxLen entries; 0 disables trimming.
func NewRedisStreamPublisher(client *redis.Client, stream string, maxLen int64) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

// Publish writes n as fields type, event_id, data (JSON) and timestamp.
func (p *RedisStreamPublisher) Publish(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return fmt.Errorf("marshal %s notification: %w", n.Type, err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"type":      n.Type,
			"event_id":  n.EventID,
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}
