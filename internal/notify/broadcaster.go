package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/brightsmile-ai/receptionist/internal/events"
	"github.com/brightsmile-ai/receptionist/pkg/logging"
)

// FirehoseChannel carries every booking event regardless of clinic.
const FirehoseChannel = "bookings:all"

// ChannelFor returns the per-clinic booking channel name. Ephemeral demo
// bookings without a clinic scope land on a shared demo channel.
func ChannelFor(clinicID string) string {
	if clinicID == "" {
		return "bookings:demo"
	}
	return fmt.Sprintf("bookings:%s", clinicID)
}

// RedisBroadcaster publishes booking events over Redis pub/sub. Delivery is
// best effort: no acknowledgement, no replay. Callers treat publish failure
// as degraded delivery, never as a booking failure.
type RedisBroadcaster struct {
	redis  *redis.Client
	logger *logging.Logger
}

// NewRedisBroadcaster creates a broadcaster on the given Redis client.
func NewRedisBroadcaster(client *redis.Client, logger *logging.Logger) *RedisBroadcaster {
	if client == nil {
		panic("notify: redis client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisBroadcaster{redis: client, logger: logger}
}

// PublishBooking sends the event to the clinic channel and the firehose.
func (b *RedisBroadcaster) PublishBooking(ctx context.Context, evt events.BookingCreatedV1) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("notify: marshal booking event: %w", err)
	}

	channel := ChannelFor(evt.ClinicID)
	if err := b.redis.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("notify: publish to %s: %w", channel, err)
	}
	if err := b.redis.Publish(ctx, FirehoseChannel, data).Err(); err != nil {
		// The clinic channel already got the event; log and move on.
		b.logger.Warn("firehose publish failed", "error", err, "event_id", evt.EventID)
	}

	b.logger.Debug("booking event published", "channel", channel, "event_id", evt.EventID)
	return nil
}
