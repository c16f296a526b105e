package actions

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wikinews-agent/pkg/logger"
)

const maxRequestBody = 1 << 20

// NewRouter exposes the action handler over HTTP
func NewRouter(h *Handler, log *logger.Logger) http.Handler {
	log = log.WithComponent("http")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, h.Handle(r.Context(), Request{Action: ActionGetConfig}))
		})

		r.Post("/actions", func(w http.ResponseWriter, r *http.Request) {
			var req Request
			if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
				writeJSON(w, http.StatusBadRequest, Response{Error: "invalid request body: " + err.Error()})
				return
			}

			resp := h.Handle(r.Context(), req)
			status := http.StatusOK
			if !resp.Success {
				status = http.StatusUnprocessableEntity
			}
			writeJSON(w, status, resp)
		})
	})

	return r
}

func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			log.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("HTTP request")
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
