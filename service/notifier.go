package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event names pushed to review sessions.
const (
	EventAnalysisCompleted = "analysis_completed"
	EventAnalysisFailed    = "analysis_failed"
	EventSuggestionUpdated = "suggestion_updated"
	EventCommentAdded      = "comment_added"
	EventRedlineCreated    = "redline_created"
)

// Notifier pushes events to connected review sessions. Rooms are keyed by
// contract id; connection management lives with the transport, not here.
type Notifier interface {
	Broadcast(ctx context.Context, event string, roomID string, payload any)
}

const channelPrefix = "contractreview:contract:"

type broadcastMessage struct {
	Event     string    `json:"event"`
	RoomID    string    `json:"room_id"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RedisNotifier publishes events on redis pub/sub channels, one channel per
// contract room. Delivery is best-effort: a publish failure is logged, never
// propagated into the pipeline.
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) Broadcast(ctx context.Context, event string, roomID string, payload any) {
	msg := broadcastMessage{
		Event:     event,
		RoomID:    roomID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to encode broadcast", "event", event, "room", roomID, "error", err)
		return
	}
	if err := n.client.Publish(ctx, channelPrefix+roomID, data).Err(); err != nil {
		slog.Error("failed to publish broadcast", "event", event, "room", roomID, "error", err)
	}
}

// Channel returns the pub/sub channel name for a contract room, for
// subscribers on the transport side.
func Channel(roomID string) string {
	return fmt.Sprintf("%s%s", channelPrefix, roomID)
}

// NopNotifier drops every event. Used in tests and redis-less deployments.
type NopNotifier struct{}

func (NopNotifier) Broadcast(context.Context, string, string, any) {}
