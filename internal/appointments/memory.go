package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository keeps appointments in process memory. It backs tests
// and database-less demo deployments, and enforces the same slot-uniqueness
// guarantee as the Postgres unique index.
type InMemoryRepository struct {
	mu    sync.Mutex
	byID  map[string]*Appointment
	slots map[slotRef]string // occupied slot -> appointment id
}

type slotRef struct {
	clinicID string
	slot     int64
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:  make(map[string]*Appointment),
		slots: make(map[slotRef]string),
	}
}

func ref(clinicID string, slot time.Time) slotRef {
	return slotRef{clinicID: clinicID, slot: slot.UTC().Unix()}
}

// Create inserts the appointment, failing with ErrSlotTaken if a
// non-cancelled appointment already occupies the slot. The check and the
// insert happen under one lock, so concurrent bookings cannot both win.
func (r *InMemoryRepository) Create(ctx context.Context, appt *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if appt.Status == "" {
		appt.Status = StatusConfirmed
	}

	key := ref(appt.ClinicID, appt.AppointmentTime)
	if appt.Status != StatusCancelled {
		if _, taken := r.slots[key]; taken {
			return nil, ErrSlotTaken
		}
		r.slots[key] = appt.ID
	}

	now := time.Now().UTC()
	appt.CreatedAt = now
	appt.UpdatedAt = now
	stored := *appt
	r.byID[appt.ID] = &stored
	return appt, nil
}

// FindBySlot returns every appointment at the exact slot, regardless of
// status. An empty clinicID matches all clinics.
func (r *InMemoryRepository) FindBySlot(ctx context.Context, clinicID string, slot time.Time) ([]*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Appointment
	for _, appt := range r.byID {
		if !appt.AppointmentTime.Equal(slot) {
			continue
		}
		if clinicID != "" && appt.ClinicID != clinicID {
			continue
		}
		cp := *appt
		out = append(out, &cp)
	}
	return out, nil
}

// GetByID fetches an appointment scoped to the clinic.
func (r *InMemoryRepository) GetByID(ctx context.Context, clinicID, id string) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.byID[id]
	if !ok || appt.ClinicID != clinicID {
		return nil, ErrNotFound
	}
	cp := *appt
	return &cp, nil
}

// ListByClinic returns the clinic's appointments ordered by slot time.
func (r *InMemoryRepository) ListByClinic(ctx context.Context, clinicID string, filter ListFilter) ([]*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Appointment
	for _, appt := range r.byID {
		if appt.ClinicID != clinicID {
			continue
		}
		if filter.From != nil && appt.AppointmentTime.Before(*filter.From) {
			continue
		}
		cp := *appt
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AppointmentTime.Before(out[j].AppointmentTime)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Update rewrites the mutable fields, re-checking slot uniqueness when the
// appointment moves or changes status.
func (r *InMemoryRepository) Update(ctx context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[appt.ID]
	if !ok || existing.ClinicID != appt.ClinicID {
		return ErrNotFound
	}

	oldKey := ref(existing.ClinicID, existing.AppointmentTime)
	newKey := ref(appt.ClinicID, appt.AppointmentTime)

	if appt.Status != StatusCancelled {
		if holder, taken := r.slots[newKey]; taken && holder != appt.ID {
			return ErrSlotTaken
		}
	}

	if holder := r.slots[oldKey]; holder == appt.ID {
		delete(r.slots, oldKey)
	}
	if appt.Status != StatusCancelled {
		r.slots[newKey] = appt.ID
	}

	appt.CreatedAt = existing.CreatedAt
	appt.UpdatedAt = time.Now().UTC()
	stored := *appt
	r.byID[appt.ID] = &stored
	return nil
}

// Delete removes an appointment scoped to the clinic.
func (r *InMemoryRepository) Delete(ctx context.Context, clinicID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.byID[id]
	if !ok || appt.ClinicID != clinicID {
		return ErrNotFound
	}
	key := ref(appt.ClinicID, appt.AppointmentTime)
	if holder := r.slots[key]; holder == id {
		delete(r.slots, key)
	}
	delete(r.byID, id)
	return nil
}
