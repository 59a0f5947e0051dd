package appointments

import (
	"strings"
	"time"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether the status is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// DefaultIssueDescription substitutes for a missing issue on voice bookings.
const DefaultIssueDescription = "General Consultation"

// Appointment is the persistent booking record, scoped to a clinic.
type Appointment struct {
	ID               string    `json:"id"`
	ClinicID         string    `json:"clinic_id,omitempty"`
	PatientName      string    `json:"patient_name"`
	PhoneNumber      string    `json:"phone_number"`
	IssueDescription string    `json:"issue_description"`
	AppointmentTime  time.Time `json:"appointment_time"`
	Status           Status    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// BookingRequest carries the fields a voice agent collects before booking.
type BookingRequest struct {
	ClinicID string `json:"-"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Issue    string `json:"issue"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}

// Validate checks the required booking fields.
func (r *BookingRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrMissingPatientName
	}
	if strings.TrimSpace(r.Phone) == "" {
		return ErrMissingPhoneNumber
	}
	if strings.TrimSpace(r.Date) == "" || strings.TrimSpace(r.Time) == "" {
		return ErrMissingSlot
	}
	return nil
}

// IssueOrDefault returns the issue description, substituting the generic
// placeholder when the caller did not volunteer one.
func (r *BookingRequest) IssueOrDefault() string {
	if issue := strings.TrimSpace(r.Issue); issue != "" {
		return issue
	}
	return DefaultIssueDescription
}
