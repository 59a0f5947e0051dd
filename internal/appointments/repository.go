package appointments

import (
	"context"
	"time"
)

// ListFilter narrows ListByClinic results.
type ListFilter struct {
	Limit  int
	Offset int
	// From drops appointments scheduled before the given instant.
	From *time.Time
}

// Repository is the persistence boundary for appointments.
//
// Create must be atomic with respect to the slot-uniqueness invariant: two
// concurrent inserts for the same clinic and slot may not both succeed; the
// loser receives ErrSlotTaken. The availability pre-check is advisory only.
type Repository interface {
	Create(ctx context.Context, appt *Appointment) (*Appointment, error)
	FindBySlot(ctx context.Context, clinicID string, slot time.Time) ([]*Appointment, error)
	GetByID(ctx context.Context, clinicID, id string) (*Appointment, error)
	ListByClinic(ctx context.Context, clinicID string, filter ListFilter) ([]*Appointment, error)
	Update(ctx context.Context, appt *Appointment) error
	Delete(ctx context.Context, clinicID, id string) error
}
