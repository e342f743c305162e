package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/tutorrec/internal/application"
)

type appointmentService interface {
	AddAppointment(ctx context.Context, personID, slot string) (application.Person, error)
	UpdateAppointment(ctx context.Context, params application.UpdateAppointmentParams) (application.Person, error)
	DeleteAppointment(ctx context.Context, personID, slot string) (application.Person, error)
	ListAppointments(ctx context.Context) ([]application.AppointmentEntry, error)
	CheckAppointment(ctx context.Context, slot string) (application.CheckResult, error)
}

type AppointmentHandler struct {
	service   appointmentService
	responder responder
	logger    *slog.Logger
}

func NewAppointmentHandler(service appointmentService, logger *slog.Logger) *AppointmentHandler {
	base := defaultLogger(logger)
	return &AppointmentHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AppointmentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AppointmentHandler", operation, attrs...)
}

func (h *AppointmentHandler) Add(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	personID, ok := PersonIDFromContext(r.Context())
	if !ok || strings.TrimSpace(personID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPersonID)
		return
	}

	var req slotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Add", "person_id", personID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode slot request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Add", "person_id", personID, "slot", req.Slot)
	person, err := h.service.AddAppointment(r.Context(), personID, req.Slot)
	if err != nil {
		logger.ErrorContext(r.Context(), "appointment booking failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "appointment booked")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, personResponse{Person: toPersonDTO(person)})
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	personID, slot, ok := h.pathParams(w, r, "Update")
	if !ok {
		return
	}

	var req slotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "person_id", personID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode slot update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "person_id", personID, "slot", slot, "edited", req.Slot)
	person, err := h.service.UpdateAppointment(r.Context(), application.UpdateAppointmentParams{
		PersonID: personID,
		Current:  slot,
		Edited:   req.Slot,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "appointment update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "appointment updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, personResponse{Person: toPersonDTO(person)})
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	personID, slot, ok := h.pathParams(w, r, "Delete")
	if !ok {
		return
	}

	logger := h.log(r.Context(), "Delete", "person_id", personID, "slot", slot)
	person, err := h.service.DeleteAppointment(r.Context(), personID, slot)
	if err != nil {
		logger.ErrorContext(r.Context(), "appointment release failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "appointment released")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, personResponse{Person: toPersonDTO(person)})
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "List")
	entries, err := h.service.ListAppointments(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "appointment list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(entries)).InfoContext(r.Context(), "appointments listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listAppointmentsResponse{Appointments: toAppointmentDTOs(entries)})
}

func (h *AppointmentHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req slotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Check", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode slot check", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.CheckAppointment(r.Context(), req.Slot)
	if err != nil {
		h.log(r.Context(), "Check", "slot", req.Slot).ErrorContext(r.Context(), "appointment check failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := checkResponse{Slot: result.Slot, Available: result.Available}
	if result.Conflict != nil {
		dto := toAppointmentDTO(*result.Conflict)
		resp.Conflict = &dto
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func (h *AppointmentHandler) pathParams(w http.ResponseWriter, r *http.Request, operation string) (string, string, bool) {
	personID, ok := PersonIDFromContext(r.Context())
	if !ok || strings.TrimSpace(personID) == "" {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "missing person id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPersonID)
		return "", "", false
	}
	slot, ok := SlotFromContext(r.Context())
	if !ok || strings.TrimSpace(slot) == "" {
		h.log(r.Context(), operation, "person_id", personID, "error_kind", "bad_request").ErrorContext(r.Context(), "missing slot")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSlot)
		return "", "", false
	}
	return personID, slot, true
}

type slotRequest struct {
	Slot string `json:"slot"`
}

type checkResponse struct {
	Slot      string          `json:"slot"`
	Available bool            `json:"available"`
	Conflict  *appointmentDTO `json:"conflict,omitempty"`
}

type listAppointmentsResponse struct {
	Appointments []appointmentDTO `json:"appointments"`
}

type appointmentDTO struct {
	Slot       string `json:"slot"`
	Day        string `json:"day"`
	Start      string `json:"start"`
	End        string `json:"end"`
	PersonID   string `json:"person_id"`
	PersonName string `json:"person_name"`
}

func toAppointmentDTO(entry application.AppointmentEntry) appointmentDTO {
	return appointmentDTO{
		Slot:       entry.Slot,
		Day:        entry.Day,
		Start:      entry.Start,
		End:        entry.End,
		PersonID:   entry.PersonID,
		PersonName: entry.PersonName,
	}
}

func toAppointmentDTOs(entries []application.AppointmentEntry) []appointmentDTO {
	out := make([]appointmentDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toAppointmentDTO(entry))
	}
	return out
}
