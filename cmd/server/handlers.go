package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Simplici0/invoice-roi/internal/mailer"
	"github.com/Simplici0/invoice-roi/internal/report"
	"github.com/Simplici0/invoice-roi/internal/roi"
	"github.com/Simplici0/invoice-roi/internal/storage"
)

const maxScenarioNameLength = 50

type simulateResponse struct {
	Results   roi.Results   `json:"results"`
	Inputs    roi.Inputs    `json:"inputs"`
	Constants roi.Constants `json:"constants"`
}

func (s *server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.decodeObject(w, r)
	if !ok {
		return
	}

	in, err := roi.Validate(raw)
	if err != nil {
		s.writeValidationFailed(w, "simulate", violations(err))
		return
	}

	results := roi.Calculate(in)
	s.metrics.SimulationComputed()

	writeJSON(w, http.StatusOK, simulateResponse{
		Results:   results,
		Inputs:    in,
		Constants: roi.DefaultConstants(),
	})
}

func (s *server) handleScenariosList(w http.ResponseWriter, r *http.Request) {
	scenarios, err := s.repo.List(r.Context())
	if err != nil {
		s.writeInternal(w, r, "Failed to fetch scenarios", err)
		return
	}
	writeJSON(w, http.StatusOK, scenarios)
}

func (s *server) handleScenariosCreate(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.decodeObject(w, r)
	if !ok {
		return
	}

	details, err := checkEnvelope(scenarioCreateSchema, raw)
	if err != nil {
		s.writeInternal(w, r, "Failed to create scenario", err)
		return
	}
	if len(details) > 0 {
		s.writeValidationFailed(w, "scenarios", details)
		return
	}

	name := strings.TrimSpace(raw["name"].(string))
	if n := utf8.RuneCountInString(name); n < 1 || n > maxScenarioNameLength {
		details = append(details, "name must be between 1 and 50 characters")
	}

	in, err := roi.Validate(raw["data"].(map[string]any))
	if err != nil {
		details = append(details, violations(err)...)
	}
	if len(details) > 0 {
		s.writeValidationFailed(w, "scenarios", details)
		return
	}

	results := roi.Calculate(in)
	s.metrics.SimulationComputed()

	sc, err := s.repo.Create(r.Context(), name, in, results)
	if errors.Is(err, storage.ErrDuplicateName) {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "Scenario name already exists"})
		return
	}
	if err != nil {
		s.writeInternal(w, r, "Failed to create scenario", err)
		return
	}

	s.log.Info("scenario created", map[string]interface{}{"scenario_id": sc.ID, "name": sc.Name})
	writeJSON(w, http.StatusCreated, sc)
}

// scenarioID writes a 400 and returns false when the path id is not a UUID.
func scenarioID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid scenario id"})
		return "", false
	}
	return id.String(), true
}

func (s *server) handleScenarioGet(w http.ResponseWriter, r *http.Request) {
	id, ok := scenarioID(w, r)
	if !ok {
		return
	}

	sc, err := s.repo.Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Scenario not found"})
		return
	}
	if err != nil {
		s.writeInternal(w, r, "Failed to fetch scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, sc)
}

func (s *server) handleScenarioDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := scenarioID(w, r)
	if !ok {
		return
	}

	err := s.repo.Delete(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Scenario not found"})
		return
	}
	if err != nil {
		s.writeInternal(w, r, "Failed to delete scenario", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleReportGenerate(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.decodeObject(w, r)
	if !ok {
		return
	}

	details, err := checkEnvelope(reportRequestSchema, raw)
	if err != nil {
		s.writeInternal(w, r, "Failed to generate report", err)
		return
	}
	if len(details) > 0 {
		s.writeValidationFailed(w, "report", details)
		return
	}

	email := raw["email"].(string)
	if !mailer.ValidAddress(email) {
		details = append(details, "email must be a valid email address")
	}

	in, err := roi.Validate(raw["scenario_data"].(map[string]any))
	if err != nil {
		details = append(details, violations(err)...)
	}
	if len(details) > 0 {
		s.writeValidationFailed(w, "report", details)
		return
	}

	results := roi.Calculate(in)
	s.metrics.SimulationComputed()

	if _, err := s.repo.CaptureEmail(r.Context(), email); err != nil {
		s.writeInternal(w, r, "Failed to record email", err)
		return
	}

	pdf, err := s.renderer.Render(in, results)
	if err != nil {
		s.writeInternal(w, r, "Failed to generate report", err)
		return
	}
	s.metrics.ReportRendered()

	s.dispatcher.Dispatch(mailer.NewReportMessage(s.mailFrom, email, s.renderer.Summary(results), s.publicURL, pdf, report.Filename))

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+report.Filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.repo.Ping(ctx); err != nil {
		s.log.WithError(err).Warn("readiness check failed", nil)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
