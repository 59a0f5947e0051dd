package notify

import (
	"context"
	"fmt"

	"github.com/brightsmile-ai/receptionist/internal/appointments"
	"github.com/brightsmile-ai/receptionist/pkg/logging"
)

// BookingEmailNotifier emails the clinic's staff inbox when a new booking
// lands. It satisfies the booker's StaffNotifier interface.
type BookingEmailNotifier struct {
	sender EmailSender
	to     string
	logger *logging.Logger
}

// NewBookingEmailNotifier creates a notifier that sends to the given staff
// address. A nil sender or empty address disables notification.
func NewBookingEmailNotifier(sender EmailSender, to string, logger *logging.Logger) *BookingEmailNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingEmailNotifier{sender: sender, to: to, logger: logger}
}

// NotifyBooking sends a plain-text summary of the new appointment.
func (n *BookingEmailNotifier) NotifyBooking(ctx context.Context, appt *appointments.Appointment) error {
	if n == nil || n.sender == nil || n.to == "" {
		return nil
	}

	when := appt.AppointmentTime.Format("Monday, January 2 at 3:04 PM")
	msg := EmailMessage{
		To:      n.to,
		ToName:  "Front Desk",
		Subject: fmt.Sprintf("New booking: %s on %s", appt.PatientName, when),
		Body: fmt.Sprintf(
			"A new appointment was booked by the AI receptionist.\n\n"+
				"Patient: %s\nPhone: %s\nReason: %s\nTime: %s\nStatus: %s\n",
			appt.PatientName, appt.PhoneNumber, appt.IssueDescription, when, appt.Status),
	}

	if err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: booking email: %w", err)
	}
	n.logger.Info("booking notification sent", "to", n.to, "appointment_id", appt.ID)
	return nil
}
