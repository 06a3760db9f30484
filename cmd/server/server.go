package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Simplici0/invoice-roi/internal/logger"
	"github.com/Simplici0/invoice-roi/internal/mailer"
	"github.com/Simplici0/invoice-roi/internal/metrics"
	"github.com/Simplici0/invoice-roi/internal/roi"
	"github.com/Simplici0/invoice-roi/internal/storage"
)

const maxBodyBytes = 1 << 20

type reportRenderer interface {
	Render(in roi.Inputs, res roi.Results) ([]byte, error)
	Summary(res roi.Results) string
}

type mailDispatcher interface {
	Dispatch(msg mailer.Message)
}

type server struct {
	repo       storage.Repository
	renderer   reportRenderer
	dispatcher mailDispatcher
	log        logger.Logger
	metrics    *metrics.Metrics
	mailFrom   string
	publicURL  string
}

type errorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/simulate", s.handleSimulate)

		r.Get("/scenarios", s.handleScenariosList)
		r.Post("/scenarios", s.handleScenariosCreate)
		r.Get("/scenarios/{id}", s.handleScenarioGet)
		r.Delete("/scenarios/{id}", s.handleScenarioDelete)

		r.Post("/report/generate", s.handleReportGenerate)
	})

	return r
}

// instrument logs every request and records it in the HTTP metrics.
func (s *server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		s.metrics.ObserveRequest(route, r.Method, status, elapsed)
		s.log.Info("http request", map[string]interface{}{
			"request_id":  middleware.GetReqID(r.Context()),
			"method":      r.Method,
			"path":        r.URL.Path,
			"route":       route,
			"status":      status,
			"bytes":       ww.BytesWritten(),
			"duration_ms": elapsed.Milliseconds(),
		})
	})
}

// decodeObject reads a body holding exactly one JSON object, with numbers
// kept as json.Number.
// On failure it writes the 400 response and returns false.
func (s *server) decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body", Message: err.Error()})
		return nil, false
	}
	if raw == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body", Message: "body must be a JSON object"})
		return nil, false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body", Message: "body must contain a single JSON object"})
		return nil, false
	}
	return raw, true
}

func (s *server) writeValidationFailed(w http.ResponseWriter, endpoint string, details []string) {
	s.metrics.ValidationFailed(endpoint)
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Validation failed", Details: details})
}

func violations(err error) []string {
	var verr *roi.ValidationError
	if errors.As(err, &verr) {
		return verr.Violations
	}
	return []string{err.Error()}
}

func (s *server) writeInternal(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.log.WithError(err).Error(msg, map[string]interface{}{
		"request_id": middleware.GetReqID(r.Context()),
		"path":       r.URL.Path,
	})
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msg, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
