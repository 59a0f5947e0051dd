package appointments

import "errors"

var (
	// ErrSlotTaken means another non-cancelled appointment already holds the
	// slot. The Postgres repository maps the unique-index violation to this
	// error, which is what makes concurrent booking of the same slot safe.
	ErrSlotTaken = errors.New("appointments: slot already booked")

	// ErrNotFound means no appointment matched the id within the clinic scope.
	ErrNotFound = errors.New("appointments: not found")

	ErrMissingPatientName = errors.New("appointments: patient name is required")
	ErrMissingPhoneNumber = errors.New("appointments: phone number is required")
	ErrMissingSlot        = errors.New("appointments: date and time are required")
	ErrInvalidStatus      = errors.New("appointments: invalid status")
)
