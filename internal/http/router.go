package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Persons      *PersonHandler
	Appointments *AppointmentHandler
	Calendar     *CalendarHandler
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Persons != nil {
		mux.HandleFunc("/persons", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Persons.List(w, r)
			case http.MethodPost:
				cfg.Persons.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/persons/", func(w http.ResponseWriter, r *http.Request) {
			id, rest, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/persons/"), "/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithPersonID(r.Context(), id))

			if rest == "" {
				switch r.Method {
				case http.MethodGet:
					cfg.Persons.Get(w, r)
				case http.MethodPut:
					cfg.Persons.Update(w, r)
				case http.MethodDelete:
					cfg.Persons.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
				return
			}

			if cfg.Appointments == nil {
				http.NotFound(w, r)
				return
			}
			if rest == "appointments" {
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Appointments.Add(w, r)
				return
			}

			slot, ok := strings.CutPrefix(rest, "appointments/")
			if !ok || slot == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithSlot(r.Context(), slot))
			switch r.Method {
			case http.MethodPut:
				cfg.Appointments.Update(w, r)
			case http.MethodDelete:
				cfg.Appointments.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Appointments != nil {
		mux.HandleFunc("/appointments", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Appointments.List(w, r)
		})
		mux.HandleFunc("/appointments/check", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Appointments.Check(w, r)
		})
	}

	if cfg.Calendar != nil {
		mux.HandleFunc("/calendar.ics", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Calendar.Export(w, r)
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
