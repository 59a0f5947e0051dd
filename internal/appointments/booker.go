package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/brightsmile-ai/receptionist/internal/events"
	"github.com/brightsmile-ai/receptionist/internal/observability/metrics"
	"github.com/brightsmile-ai/receptionist/internal/schedule"
	"github.com/brightsmile-ai/receptionist/pkg/logging"
)

var bookingTracer = otel.Tracer("receptionist.internal.appointments")

// Conversational messages returned to voice agents on failed bookings.
const (
	promptForBookingSlot    = "I need a specific date and time to book."
	promptForContactDetails = "I need the patient's name and phone number to book."
	msgSlotTaken            = "Slot taken"
	msgBookingFailed        = "Booking failed, please try again."
	msgBookingTimeout       = "Booking timed out, please try again."
)

// BookingResult is the discriminated outcome of a booking attempt.
type BookingResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Broadcaster publishes booking events to live observers.
type Broadcaster interface {
	PublishBooking(ctx context.Context, evt events.BookingCreatedV1) error
}

// StaffNotifier alerts clinic staff about a new booking, e.g. by email.
type StaffNotifier interface {
	NotifyBooking(ctx context.Context, appt *Appointment) error
}

// Booker records confirmed appointments and fans out booking events.
type Booker struct {
	repo        Repository
	broadcaster Broadcaster
	notifier    StaffNotifier
	timeout     time.Duration
	logger      *logging.Logger
	metrics     *metrics.BookingMetrics

	// ephemeral skips persistence entirely: the booking only exists as a
	// broadcast event. Used for live demos against a throwaway dashboard.
	ephemeral bool
}

// BookerConfig configures the Booker.
type BookerConfig struct {
	Repo        Repository
	Broadcaster Broadcaster
	Notifier    StaffNotifier
	Timeout     time.Duration
	Logger      *logging.Logger
	Metrics     *metrics.BookingMetrics
	Ephemeral   bool
}

// NewBooker creates a booking recorder.
func NewBooker(cfg BookerConfig) *Booker {
	if cfg.Repo == nil && !cfg.Ephemeral {
		panic("appointments: repository required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Booker{
		repo:        cfg.Repo,
		broadcaster: cfg.Broadcaster,
		notifier:    cfg.Notifier,
		timeout:     cfg.Timeout,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
		ephemeral:   cfg.Ephemeral,
	}
}

// Book validates the request, records the appointment, and broadcasts a
// booking event. It never returns an error across its public boundary; every
// failure path collapses into a BookingResult the voice agent can speak.
func (b *Booker) Book(ctx context.Context, req BookingRequest) BookingResult {
	ctx, span := bookingTracer.Start(ctx, "appointments.book")
	defer span.End()
	span.SetAttributes(attribute.String("receptionist.clinic_id", req.ClinicID))

	if err := req.Validate(); err != nil {
		b.metrics.ObserveBooking("invalid_input")
		return BookingResult{Success: false, Message: validationMessage(err)}
	}

	slot, err := schedule.Slot(req.Date, req.Time)
	if err != nil {
		b.metrics.ObserveBooking("invalid_input")
		return BookingResult{Success: false, Message: promptForBookingSlot}
	}

	appt := &Appointment{
		ID:               uuid.NewString(),
		ClinicID:         req.ClinicID,
		PatientName:      req.Name,
		PhoneNumber:      req.Phone,
		IssueDescription: req.IssueOrDefault(),
		AppointmentTime:  slot,
		Status:           StatusConfirmed,
	}

	if b.ephemeral {
		appt.ID = fmt.Sprintf("demo-%d", time.Now().UnixMilli())
		appt.CreatedAt = time.Now().UTC()
		b.publish(ctx, appt)
		b.metrics.ObserveBooking("booked_ephemeral")
		b.logger.Info("ephemeral booking broadcast",
			"clinic_id", req.ClinicID, "slot", schedule.Key(slot))
		return BookingResult{Success: true, Message: "Booked for " + req.Time}
	}

	insertCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if _, err := b.repo.Create(insertCtx, appt); err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, ErrSlotTaken):
			b.metrics.ObserveBooking("slot_taken")
			return BookingResult{Success: false, Message: msgSlotTaken}
		case errors.Is(err, context.DeadlineExceeded):
			b.logger.Error("booking insert timed out",
				"clinic_id", req.ClinicID, "slot", schedule.Key(slot))
			b.metrics.ObserveBooking("timeout")
			return BookingResult{Success: false, Message: msgBookingTimeout}
		default:
			b.logger.Error("booking insert failed",
				"error", err, "clinic_id", req.ClinicID, "slot", schedule.Key(slot))
			b.metrics.ObserveBooking("store_error")
			return BookingResult{Success: false, Message: msgBookingFailed}
		}
	}

	b.logger.Info("booking recorded",
		"appointment_id", appt.ID,
		"clinic_id", appt.ClinicID,
		"slot", schedule.Key(slot),
	)
	b.metrics.ObserveBooking("booked")

	// The appointment is durable at this point. Event publication and staff
	// notification are best effort and must not change the outcome.
	b.publish(ctx, appt)
	b.notify(ctx, appt)

	return BookingResult{Success: true, Message: "Booked for " + req.Time}
}

func (b *Booker) publish(ctx context.Context, appt *Appointment) {
	if b.broadcaster == nil {
		return
	}
	evt := events.BookingCreatedV1{
		EventID:          uuid.NewString(),
		ClinicID:         appt.ClinicID,
		AppointmentID:    appt.ID,
		PatientName:      appt.PatientName,
		PhoneNumber:      appt.PhoneNumber,
		IssueDescription: appt.IssueDescription,
		AppointmentTime:  schedule.Key(appt.AppointmentTime),
		Status:           string(appt.Status),
		CreatedAt:        time.Now().UTC(),
	}

	pubCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if err := b.broadcaster.PublishBooking(pubCtx, evt); err != nil {
		b.logger.Warn("booking event delivery degraded",
			"error", err, "appointment_id", appt.ID, "clinic_id", appt.ClinicID)
		b.metrics.ObserveEventPublish("dropped")
		return
	}
	b.metrics.ObserveEventPublish("published")
}

func (b *Booker) notify(ctx context.Context, appt *Appointment) {
	if b.notifier == nil {
		return
	}
	notifyCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if err := b.notifier.NotifyBooking(notifyCtx, appt); err != nil {
		b.logger.Warn("staff booking notification failed",
			"error", err, "appointment_id", appt.ID, "clinic_id", appt.ClinicID)
	}
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingSlot):
		return promptForBookingSlot
	default:
		return promptForContactDetails
	}
}
