package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/brightsmile-ai/receptionist/internal/schedule"
	"github.com/brightsmile-ai/receptionist/pkg/logging"
)

// Handler serves the staff dashboard's appointment management endpoints.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates an appointments handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListResponse is the response for listing appointments.
type ListResponse struct {
	Appointments []*Appointment `json:"appointments"`
	Count        int            `json:"count"`
	Offset       int            `json:"offset"`
	Limit        int            `json:"limit"`
}

// List handles GET /api/clinics/{clinicID}/appointments requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	clinicID := chi.URLParam(r, "clinicID")
	if clinicID == "" {
		http.Error(w, "missing clinic_id", http.StatusBadRequest)
		return
	}

	filter := ListFilter{Limit: 50, Offset: 0}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}
	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		if from, err := time.Parse(schedule.KeyLayout, fromStr); err == nil {
			from = from.UTC()
			filter.From = &from
		}
	}

	appts, err := h.repo.ListByClinic(r.Context(), clinicID, filter)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err, "clinic_id", clinicID)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	if appts == nil {
		appts = []*Appointment{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListResponse{
		Appointments: appts,
		Count:        len(appts),
		Offset:       filter.Offset,
		Limit:        filter.Limit,
	})
}

// Get handles GET /api/clinics/{clinicID}/appointments/{appointmentID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	clinicID := chi.URLParam(r, "clinicID")
	apptID := chi.URLParam(r, "appointmentID")

	appt, err := h.repo.GetByID(r.Context(), clinicID, apptID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load appointment", "error", err, "appointment_id", apptID)
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appt)
}

// UpdateRequest carries the staff edit operations: reschedule, reassign
// patient details, or change status. Omitted fields are left unchanged.
type UpdateRequest struct {
	PatientName      *string `json:"patient_name,omitempty"`
	PhoneNumber      *string `json:"phone_number,omitempty"`
	IssueDescription *string `json:"issue_description,omitempty"`
	Date             *string `json:"date,omitempty"`
	Time             *string `json:"time,omitempty"`
	Status           *string `json:"status,omitempty"`
}

// Update handles PATCH /api/clinics/{clinicID}/appointments/{appointmentID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	clinicID := chi.URLParam(r, "clinicID")
	apptID := chi.URLParam(r, "appointmentID")

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.repo.GetByID(r.Context(), clinicID, apptID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load appointment", "error", err, "appointment_id", apptID)
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	if req.PatientName != nil {
		appt.PatientName = *req.PatientName
	}
	if req.PhoneNumber != nil {
		appt.PhoneNumber = *req.PhoneNumber
	}
	if req.IssueDescription != nil {
		appt.IssueDescription = *req.IssueDescription
	}
	if req.Status != nil {
		status := Status(*req.Status)
		if !status.Valid() {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}
		appt.Status = status
	}
	if req.Date != nil || req.Time != nil {
		date := appt.AppointmentTime.Format("2006-01-02")
		tod := appt.AppointmentTime.Format("15:04")
		if req.Date != nil {
			date = *req.Date
		}
		if req.Time != nil {
			tod = *req.Time
		}
		slot, err := schedule.Slot(date, tod)
		if err != nil {
			http.Error(w, "invalid date or time", http.StatusBadRequest)
			return
		}
		appt.AppointmentTime = slot
	}

	if err := h.repo.Update(r.Context(), appt); err != nil {
		switch {
		case errors.Is(err, ErrSlotTaken):
			http.Error(w, "slot already booked", http.StatusConflict)
		case errors.Is(err, ErrNotFound):
			http.Error(w, "appointment not found", http.StatusNotFound)
		default:
			h.logger.Error("failed to update appointment", "error", err, "appointment_id", apptID)
			http.Error(w, "failed to update appointment", http.StatusInternalServerError)
		}
		return
	}

	h.logger.Info("appointment updated", "appointment_id", apptID, "clinic_id", clinicID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appt)
}

// Delete handles DELETE /api/clinics/{clinicID}/appointments/{appointmentID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	clinicID := chi.URLParam(r, "clinicID")
	apptID := chi.URLParam(r, "appointmentID")

	if err := h.repo.Delete(r.Context(), clinicID, apptID); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete appointment", "error", err, "appointment_id", apptID)
		http.Error(w, "failed to delete appointment", http.StatusInternalServerError)
		return
	}

	h.logger.Info("appointment deleted", "appointment_id", apptID, "clinic_id", clinicID)
	w.WriteHeader(http.StatusNoContent)
}
