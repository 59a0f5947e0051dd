package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/brightsmile-ai/receptionist/internal/events"
	"github.com/brightsmile-ai/receptionist/pkg/logging"
)

func newTestBroadcaster(t *testing.T) (*RedisBroadcaster, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisBroadcaster(client, logging.New("error")), client
}

func waitForMessage(t *testing.T, sub *redis.PubSub) *redis.Message {
	t.Helper()
	select {
	case msg := <-sub.Channel():
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pub/sub message")
		return nil
	}
}

func TestPublishBookingReachesClinicChannel(t *testing.T) {
	b, client := newTestBroadcaster(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, ChannelFor("clinic-1"))
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	evt := events.BookingCreatedV1{
		EventID:         "evt-1",
		ClinicID:        "clinic-1",
		AppointmentID:   "appt-1",
		PatientName:     "Jane Doe",
		PhoneNumber:     "555-1234",
		AppointmentTime: "2024-06-01T14:00:00",
		Status:          "confirmed",
	}
	if err := b.PublishBooking(ctx, evt); err != nil {
		t.Fatalf("PublishBooking: %v", err)
	}

	msg := waitForMessage(t, sub)
	var got events.BookingCreatedV1
	if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got.AppointmentID != "appt-1" || got.PatientName != "Jane Doe" {
		t.Fatalf("unexpected event %+v", got)
	}
}

func TestPublishBookingReachesFirehose(t *testing.T) {
	b, client := newTestBroadcaster(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, FirehoseChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	evt := events.BookingCreatedV1{EventID: "evt-2", ClinicID: "clinic-9", AppointmentID: "appt-2"}
	if err := b.PublishBooking(ctx, evt); err != nil {
		t.Fatalf("PublishBooking: %v", err)
	}

	msg := waitForMessage(t, sub)
	var got events.BookingCreatedV1
	if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got.EventID != "evt-2" {
		t.Fatalf("unexpected event %+v", got)
	}
}

func TestChannelForDemoFallback(t *testing.T) {
	if got := ChannelFor(""); got != "bookings:demo" {
		t.Fatalf("expected demo channel, got %q", got)
	}
	if got := ChannelFor("clinic-1"); got != "bookings:clinic-1" {
		t.Fatalf("unexpected channel %q", got)
	}
}
