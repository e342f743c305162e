package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/tutorrec/internal/application"
)

type personService interface {
	ListPersons(ctx context.Context) ([]application.Person, error)
	GetPerson(ctx context.Context, id string) (application.Person, error)
	AddPerson(ctx context.Context, input application.PersonInput) (application.AddPersonResult, error)
	UpdatePerson(ctx context.Context, params application.UpdatePersonParams) (application.Person, error)
	DeletePerson(ctx context.Context, id string) error
}

type PersonHandler struct {
	service   personService
	responder responder
	logger    *slog.Logger
}

func NewPersonHandler(service personService, logger *slog.Logger) *PersonHandler {
	base := defaultLogger(logger)
	return &PersonHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *PersonHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "PersonHandler", operation, attrs...)
}

func (h *PersonHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "List")
	persons, err := h.service.ListPersons(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "person list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(persons)).InfoContext(r.Context(), "persons listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listPersonsResponse{Persons: toPersonDTOs(persons)})
}

func (h *PersonHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	personID, ok := PersonIDFromContext(r.Context())
	if !ok || strings.TrimSpace(personID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPersonID)
		return
	}

	person, err := h.service.GetPerson(r.Context(), personID)
	if err != nil {
		h.log(r.Context(), "Get", "person_id", personID).ErrorContext(r.Context(), "person lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, personResponse{Person: toPersonDTO(person)})
}

func (h *PersonHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req personRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode person request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")

	result, err := h.service.AddPerson(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "person creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("person_id", result.Person.ID).InfoContext(r.Context(), "person created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, personResponse{
		Person:         toPersonDTO(result.Person),
		NearDuplicates: result.NearDuplicates,
	})
}

func (h *PersonHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	personID, ok := PersonIDFromContext(r.Context())
	if !ok || strings.TrimSpace(personID) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing person id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPersonID)
		return
	}

	var req personRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "person_id", personID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode person update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "person_id", personID)

	person, err := h.service.UpdatePerson(r.Context(), application.UpdatePersonParams{
		PersonID: personID,
		Input:    req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "person update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "person updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, personResponse{Person: toPersonDTO(person)})
}

func (h *PersonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	personID, ok := PersonIDFromContext(r.Context())
	if !ok || strings.TrimSpace(personID) == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing person id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPersonID)
		return
	}

	logger := h.log(r.Context(), "Delete", "person_id", personID)
	if err := h.service.DeletePerson(r.Context(), personID); err != nil {
		logger.ErrorContext(r.Context(), "person delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "person deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type personRequest struct {
	Name         string   `json:"name"`
	Phone        string   `json:"phone"`
	Email        string   `json:"email"`
	Address      string   `json:"address"`
	Note         string   `json:"note"`
	Tags         []string `json:"tags"`
	Appointments []string `json:"appointments"`
}

func (r personRequest) toInput() application.PersonInput {
	return application.PersonInput{
		Name:         strings.TrimSpace(r.Name),
		Phone:        r.Phone,
		Email:        r.Email,
		Address:      r.Address,
		Note:         r.Note,
		Tags:         r.Tags,
		Appointments: r.Appointments,
	}
}

type personResponse struct {
	Person         personDTO `json:"person"`
	NearDuplicates []string  `json:"near_duplicates,omitempty"`
}

type listPersonsResponse struct {
	Persons []personDTO `json:"persons"`
}

type personDTO struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Phone        string   `json:"phone,omitempty"`
	Email        string   `json:"email,omitempty"`
	Address      string   `json:"address,omitempty"`
	Note         string   `json:"note,omitempty"`
	Tags         []string `json:"tags"`
	Appointments []string `json:"appointments"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

func toPersonDTO(person application.Person) personDTO {
	tags := person.Tags
	if tags == nil {
		tags = []string{}
	}
	appointments := person.Appointments
	if appointments == nil {
		appointments = []string{}
	}
	return personDTO{
		ID:           person.ID,
		Name:         person.Name,
		Phone:        person.Phone,
		Email:        person.Email,
		Address:      person.Address,
		Note:         person.Note,
		Tags:         tags,
		Appointments: appointments,
		CreatedAt:    person.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    person.UpdatedAt.Format(time.RFC3339),
	}
}

func toPersonDTOs(persons []application.Person) []personDTO {
	out := make([]personDTO, 0, len(persons))
	for _, person := range persons {
		out = append(out, toPersonDTO(person))
	}
	return out
}
