package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
)

type calendarService interface {
	ExportCalendar(ctx context.Context, w io.Writer, name string) error
}

type CalendarHandler struct {
	service   calendarService
	name      string
	responder responder
	logger    *slog.Logger
}

// NewCalendarHandler serves the timetable feed under the display name name.
func NewCalendarHandler(service calendarService, name string, logger *slog.Logger) *CalendarHandler {
	base := defaultLogger(logger)
	return &CalendarHandler{service: service, name: name, responder: newResponder(base), logger: base}
}

func (h *CalendarHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := handlerLogger(r.Context(), h.logger, "CalendarHandler", "Export")

	// Rendered up front so a failure can still answer with a JSON error.
	var buf bytes.Buffer
	if err := h.service.ExportCalendar(r.Context(), &buf, h.name); err != nil {
		logger.ErrorContext(r.Context(), "calendar export failed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="tutorrec.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.ErrorContext(r.Context(), "failed to write calendar", "error", err)
	}
}
