package chat

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Relay mirrors room-wide frames across instances through a redis pub/sub
// channel so several servers can share one room. Each frame is wrapped in an
// envelope tagged with the publishing instance's id; a subscriber discards
// its own envelopes so nothing echoes. Best-effort like everything else:
// a publish failure is logged and forgotten.
type Relay struct {
	client  *redis.Client
	channel string
	origin  string
	logger  *slog.Logger
}

type relayEnvelope struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

// NewRelay verifies the redis connection and returns a relay identified by
// origin on the given pub/sub channel.
func NewRelay(ctx context.Context, client *redis.Client, channel, origin string, logger *slog.Logger) (*Relay, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Relay{client: client, channel: channel, origin: origin, logger: logger}, nil
}

// Publish mirrors one outbound frame to the other instances.
func (r *Relay) Publish(ctx context.Context, payload []byte) {
	data, err := json.Marshal(relayEnvelope{Origin: r.origin, Payload: payload})
	if err != nil {
		r.logger.Error("relay encode failed", slog.Any("error", err))
		return
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		r.logger.Warn("relay publish failed", slog.Any("error", err))
	}
}

// Subscribe feeds foreign-origin payloads into sink until ctx is done.
func (r *Relay) Subscribe(ctx context.Context, sink chan<- []byte) {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			payload, ok := r.unwrap([]byte(msg.Payload))
			if !ok {
				continue
			}
			select {
			case sink <- payload:
			case <-ctx.Done():
				return
			}
		}
	}
}

// unwrap validates an envelope and filters out our own traffic.
func (r *Relay) unwrap(data []byte) ([]byte, bool) {
	var envelope relayEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		r.logger.Warn("relay received malformed envelope", slog.Any("error", err))
		return nil, false
	}
	if envelope.Origin == r.origin {
		return nil, false
	}
	return envelope.Payload, true
}
