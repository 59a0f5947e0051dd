package events

import "time"

// BookingCreatedV1 is broadcast to live observers after a booking is
// recorded. Delivery is best effort and at most once; there is no replay, so
// dashboards treat the event as a hint and reconcile against the store.
//
// Field names mirror the appointments table so the dashboard can render the
// payload directly.
type BookingCreatedV1 struct {
	EventID          string    `json:"event_id"`
	ClinicID         string    `json:"clinic_id,omitempty"`
	AppointmentID    string    `json:"id"`
	PatientName      string    `json:"patient_name"`
	PhoneNumber      string    `json:"phone_number"`
	IssueDescription string    `json:"issue_description"`
	AppointmentTime  string    `json:"appointment_time"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}
