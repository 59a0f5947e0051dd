package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	db querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting mocks for tests.
func NewPostgresRepositoryWithDB(db querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const uniqueViolation = "23505"

// Create inserts a new row. A conflict on the partial unique index over
// (clinic_id, appointment_time) surfaces as ErrSlotTaken.
func (r *PostgresRepository) Create(ctx context.Context, appt *Appointment) (*Appointment, error) {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if appt.Status == "" {
		appt.Status = StatusConfirmed
	}

	query := `
		INSERT INTO appointments (id, clinic_id, patient_name, phone_number, issue_description, appointment_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	if err := r.db.QueryRow(ctx, query,
		appt.ID,
		appt.ClinicID,
		appt.PatientName,
		appt.PhoneNumber,
		appt.IssueDescription,
		appt.AppointmentTime,
		appt.Status,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("appointments: insert failed: %w", err)
	}
	return appt, nil
}

// FindBySlot returns every appointment at the exact slot, regardless of
// status. An empty clinicID matches all clinics.
func (r *PostgresRepository) FindBySlot(ctx context.Context, clinicID string, slot time.Time) ([]*Appointment, error) {
	query := `
		SELECT id, clinic_id, patient_name, phone_number, issue_description, appointment_time, status, created_at, updated_at
		FROM appointments
		WHERE appointment_time = $1 AND ($2 = '' OR clinic_id = $2)
	`
	rows, err := r.db.Query(ctx, query, slot, clinicID)
	if err != nil {
		return nil, fmt.Errorf("appointments: slot lookup failed: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// GetByID fetches an appointment scoped to the clinic.
func (r *PostgresRepository) GetByID(ctx context.Context, clinicID, id string) (*Appointment, error) {
	query := `
		SELECT id, clinic_id, patient_name, phone_number, issue_description, appointment_time, status, created_at, updated_at
		FROM appointments
		WHERE id = $1 AND clinic_id = $2
	`
	row := r.db.QueryRow(ctx, query, id, clinicID)
	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	return appt, nil
}

// ListByClinic returns the clinic's appointments ordered by slot time.
func (r *PostgresRepository) ListByClinic(ctx context.Context, clinicID string, filter ListFilter) ([]*Appointment, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	from := time.Time{}
	if filter.From != nil {
		from = *filter.From
	}

	query := `
		SELECT id, clinic_id, patient_name, phone_number, issue_description, appointment_time, status, created_at, updated_at
		FROM appointments
		WHERE clinic_id = $1 AND appointment_time >= $2
		ORDER BY appointment_time ASC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, clinicID, from, limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// Update rewrites the mutable fields of an appointment. Moving it onto an
// occupied slot surfaces as ErrSlotTaken.
func (r *PostgresRepository) Update(ctx context.Context, appt *Appointment) error {
	query := `
		UPDATE appointments
		SET patient_name = $3, phone_number = $4, issue_description = $5, appointment_time = $6, status = $7, updated_at = now()
		WHERE id = $1 AND clinic_id = $2
	`
	tag, err := r.db.Exec(ctx, query,
		appt.ID,
		appt.ClinicID,
		appt.PatientName,
		appt.PhoneNumber,
		appt.IssueDescription,
		appt.AppointmentTime,
		appt.Status,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("appointments: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an appointment scoped to the clinic.
func (r *PostgresRepository) Delete(ctx context.Context, clinicID, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1 AND clinic_id = $2`, id, clinicID)
	if err != nil {
		return fmt.Errorf("appointments: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*Appointment, error) {
	var appt Appointment
	if err := row.Scan(
		&appt.ID,
		&appt.ClinicID,
		&appt.PatientName,
		&appt.PhoneNumber,
		&appt.IssueDescription,
		&appt.AppointmentTime,
		&appt.Status,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &appt, nil
}

func scanAppointments(rows pgx.Rows) ([]*Appointment, error) {
	var appts []*Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		appts = append(appts, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: rows failed: %w", err)
	}
	return appts, nil
}
