package appointments

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/brightsmile-ai/receptionist/internal/events"
	"github.com/brightsmile-ai/receptionist/internal/schedule"
	"github.com/brightsmile-ai/receptionist/pkg/logging"
)

// stubBroadcaster records published events.
type stubBroadcaster struct {
	mu     sync.Mutex
	events []events.BookingCreatedV1
	err    error
}

func (s *stubBroadcaster) PublishBooking(ctx context.Context, evt events.BookingCreatedV1) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, evt)
	return nil
}

// stubNotifier records staff notifications.
type stubNotifier struct {
	notified []*Appointment
	err      error
}

func (s *stubNotifier) NotifyBooking(ctx context.Context, appt *Appointment) error {
	if s.err != nil {
		return s.err
	}
	s.notified = append(s.notified, appt)
	return nil
}

func newTestBooker(repo Repository, bc Broadcaster) *Booker {
	return NewBooker(BookerConfig{
		Repo:        repo,
		Broadcaster: bc,
		Logger:      logging.New("error"),
	})
}

func TestBookPersistsAndPublishes(t *testing.T) {
	repo := NewInMemoryRepository()
	bc := &stubBroadcaster{}
	booker := newTestBooker(repo, bc)

	res := booker.Book(context.Background(), BookingRequest{
		ClinicID: "clinic-1",
		Name:     "Jane Doe",
		Phone:    "555-1234",
		Date:     "2024-06-01",
		Time:     "14:00",
	})
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Message != "Booked for 14:00" {
		t.Fatalf("unexpected message %q", res.Message)
	}

	slot, _ := schedule.Slot("2024-06-01", "14:00")
	appts, err := repo.FindBySlot(context.Background(), "clinic-1", slot)
	if err != nil {
		t.Fatalf("FindBySlot: %v", err)
	}
	if len(appts) != 1 {
		t.Fatalf("expected exactly one persisted appointment, got %d", len(appts))
	}
	appt := appts[0]
	if appt.Status != StatusConfirmed {
		t.Errorf("expected confirmed status, got %s", appt.Status)
	}
	if appt.PatientName != "Jane Doe" || appt.PhoneNumber != "555-1234" {
		t.Errorf("unexpected patient fields: %+v", appt)
	}
	if appt.IssueDescription != DefaultIssueDescription {
		t.Errorf("expected issue placeholder, got %q", appt.IssueDescription)
	}

	if len(bc.events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(bc.events))
	}
	evt := bc.events[0]
	if evt.AppointmentTime != "2024-06-01T14:00:00" {
		t.Errorf("unexpected event timestamp %q", evt.AppointmentTime)
	}
	if evt.AppointmentID != appt.ID || evt.PatientName != "Jane Doe" || evt.Status != "confirmed" {
		t.Errorf("event does not mirror appointment: %+v", evt)
	}
	if evt.EventID == "" {
		t.Errorf("expected event id to be set")
	}
}

func TestBookKeepsProvidedIssue(t *testing.T) {
	repo := NewInMemoryRepository()
	booker := newTestBooker(repo, nil)

	res := booker.Book(context.Background(), BookingRequest{
		ClinicID: "clinic-1",
		Name:     "Jane Doe",
		Phone:    "555-1234",
		Issue:    "Toothache",
		Date:     "2024-06-01",
		Time:     "15:00",
	})
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}

	slot, _ := schedule.Slot("2024-06-01", "15:00")
	appts, _ := repo.FindBySlot(context.Background(), "clinic-1", slot)
	if len(appts) != 1 || appts[0].IssueDescription != "Toothache" {
		t.Fatalf("expected issue to be preserved, got %+v", appts)
	}
}

func TestBookMissingFields(t *testing.T) {
	booker := newTestBooker(NewInMemoryRepository(), nil)

	cases := []struct {
		req     BookingRequest
		message string
	}{
		{BookingRequest{Phone: "555", Date: "2024-06-01", Time: "10:00"}, promptForContactDetails},
		{BookingRequest{Name: "Jane", Date: "2024-06-01", Time: "10:00"}, promptForContactDetails},
		{BookingRequest{Name: "Jane", Phone: "555", Time: "10:00"}, promptForBookingSlot},
		{BookingRequest{Name: "Jane", Phone: "555", Date: "2024-06-01"}, promptForBookingSlot},
		{BookingRequest{Name: "Jane", Phone: "555", Date: "soon", Time: "10:00"}, promptForBookingSlot},
	}
	for i, tc := range cases {
		res := booker.Book(context.Background(), tc.req)
		if res.Success {
			t.Errorf("case %d: expected failure", i)
		}
		if res.Message != tc.message {
			t.Errorf("case %d: message %q, want %q", i, res.Message, tc.message)
		}
	}
}

func TestBookSlotConflict(t *testing.T) {
	repo := NewInMemoryRepository()
	booker := newTestBooker(repo, nil)

	req := BookingRequest{
		ClinicID: "clinic-1",
		Name:     "Jane Doe",
		Phone:    "555-1234",
		Date:     "2024-06-01",
		Time:     "10:00",
	}
	if res := booker.Book(context.Background(), req); !res.Success {
		t.Fatalf("first booking should succeed, got %+v", res)
	}

	req.Name = "John Roe"
	res := booker.Book(context.Background(), req)
	if res.Success || res.Message != msgSlotTaken {
		t.Fatalf("expected slot conflict, got %+v", res)
	}
}

// Two concurrent bookings for the identical slot must not both succeed: the
// uniqueness guarantee lives in the store, not in the advisory pre-check.
func TestBookConcurrentSameSlot(t *testing.T) {
	repo := NewInMemoryRepository()
	booker := newTestBooker(repo, nil)

	const attempts = 16
	results := make([]BookingResult, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = booker.Book(context.Background(), BookingRequest{
				ClinicID: "clinic-1",
				Name:     "Jane Doe",
				Phone:    "555-1234",
				Date:     "2024-06-01",
				Time:     "10:00",
			})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, res := range results {
		if res.Success {
			successes++
		} else if res.Message != msgSlotTaken {
			t.Errorf("loser should see slot taken, got %+v", res)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one winner, got %d", successes)
	}
}

func TestBookStoreFailure(t *testing.T) {
	booker := newTestBooker(&errorRepo{err: errors.New("connection refused")}, nil)

	res := booker.Book(context.Background(), BookingRequest{
		ClinicID: "clinic-1",
		Name:     "Jane Doe",
		Phone:    "555-1234",
		Date:     "2024-06-01",
		Time:     "10:00",
	})
	if res.Success || res.Message != msgBookingFailed {
		t.Fatalf("expected generic failure, got %+v", res)
	}
}

func TestBookStoreTimeout(t *testing.T) {
	booker := newTestBooker(&errorRepo{err: context.DeadlineExceeded}, nil)

	res := booker.Book(context.Background(), BookingRequest{
		ClinicID: "clinic-1",
		Name:     "Jane Doe",
		Phone:    "555-1234",
		Date:     "2024-06-01",
		Time:     "10:00",
	})
	if res.Success || res.Message != msgBookingTimeout {
		t.Fatalf("expected timeout message, got %+v", res)
	}
}

func TestBookPublishFailureIsNonFatal(t *testing.T) {
	repo := NewInMemoryRepository()
	bc := &stubBroadcaster{err: errors.New("redis down")}
	booker := newTestBooker(repo, bc)

	res := booker.Book(context.Background(), BookingRequest{
		ClinicID: "clinic-1",
		Name:     "Jane Doe",
		Phone:    "555-1234",
		Date:     "2024-06-01",
		Time:     "10:00",
	})
	if !res.Success {
		t.Fatalf("publish failure must not fail the booking, got %+v", res)
	}

	slot, _ := schedule.Slot("2024-06-01", "10:00")
	appts, _ := repo.FindBySlot(context.Background(), "clinic-1", slot)
	if len(appts) != 1 {
		t.Fatalf("appointment should be durable despite publish failure")
	}
}

func TestBookNotifierFailureIsNonFatal(t *testing.T) {
	booker := NewBooker(BookerConfig{
		Repo:     NewInMemoryRepository(),
		Notifier: &stubNotifier{err: errors.New("smtp down")},
		Logger:   logging.New("error"),
	})

	res := booker.Book(context.Background(), BookingRequest{
		ClinicID: "clinic-1",
		Name:     "Jane Doe",
		Phone:    "555-1234",
		Date:     "2024-06-01",
		Time:     "10:00",
	})
	if !res.Success {
		t.Fatalf("notifier failure must not fail the booking, got %+v", res)
	}
}

func TestBookEphemeralSkipsPersistence(t *testing.T) {
	repo := NewInMemoryRepository()
	bc := &stubBroadcaster{}
	booker := NewBooker(BookerConfig{
		Repo:        repo,
		Broadcaster: bc,
		Logger:      logging.New("error"),
		Ephemeral:   true,
	})

	res := booker.Book(context.Background(), BookingRequest{
		ClinicID: "clinic-1",
		Name:     "Jane Doe",
		Phone:    "555-1234",
		Date:     "2024-06-01",
		Time:     "10:00",
	})
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}

	slot, _ := schedule.Slot("2024-06-01", "10:00")
	appts, _ := repo.FindBySlot(context.Background(), "clinic-1", slot)
	if len(appts) != 0 {
		t.Fatalf("ephemeral mode must not persist, found %d appointments", len(appts))
	}
	if len(bc.events) != 1 {
		t.Fatalf("expected one broadcast event, got %d", len(bc.events))
	}
	if !strings.HasPrefix(bc.events[0].AppointmentID, "demo-") {
		t.Fatalf("expected synthesized demo id, got %q", bc.events[0].AppointmentID)
	}
}
