package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/knowbase/knowbase/internal/agent"
	"github.com/knowbase/knowbase/internal/kb"
)

const maxRequestBody = 1 << 20 // 1MB

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	})
}

// TurnRequest is the POST /v1/turn payload.
type TurnRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// handleTurn runs one router turn. A blank session id starts a new
// session; the response carries the id to use on the next turn.
func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sid, state, err := s.deps.Sessions.GetOrCreate(req.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session_error", err.Error())
		return
	}

	res, err := s.deps.Router.HandleTurn(r.Context(), req.Message, state, sid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "turn_failed", err.Error())
		return
	}
	if err := s.applyDelta(sid, res.StateDelta); err != nil {
		writeError(w, http.StatusInternalServerError, "session_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// IntakeHTTPRequest is the POST /v1/intake payload.
type IntakeHTTPRequest struct {
	SessionID       string             `json:"session_id"`
	RawText         string             `json:"raw_text,omitempty"`
	SelectedFactIDs []string           `json:"selected_fact_ids,omitempty"`
	FactsPayload    []kb.CandidateFact `json:"facts_payload,omitempty"`
}

func (s *Server) handleIntake(w http.ResponseWriter, r *http.Request) {
	var req IntakeHTTPRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "session_id is required")
		return
	}

	state, err := s.deps.Sessions.Get(req.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session_error", err.Error())
		return
	}

	res, err := s.deps.Intake.Handle(r.Context(), agent.IntakeRequest{
		SessionID:       req.SessionID,
		RawText:         req.RawText,
		SelectedFactIDs: req.SelectedFactIDs,
		FactsPayload:    req.FactsPayload,
	}, state)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "intake_failed", err.Error())
		return
	}
	if err := s.applyDelta(req.SessionID, res.StateDelta); err != nil {
		writeError(w, http.StatusInternalServerError, "session_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// LifecycleHTTPRequest is the POST /v1/lifecycle payload.
type LifecycleHTTPRequest struct {
	SessionID          string `json:"session_id"`
	OperationType      string `json:"operation_type"`
	UserInput          string `json:"user_input"`
	DomainID           string `json:"domain_id,omitempty"`
	ConfirmationStatus bool   `json:"confirmation_status"`
}

func (s *Server) handleLifecycle(w http.ResponseWriter, r *http.Request) {
	var req LifecycleHTTPRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "session_id is required")
		return
	}

	state, err := s.deps.Sessions.Get(req.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session_error", err.Error())
		return
	}

	res, err := s.deps.Lifecycle.Handle(r.Context(), agent.LifecycleRequest{
		SessionID:          req.SessionID,
		OperationType:      req.OperationType,
		UserInput:          req.UserInput,
		DomainID:           req.DomainID,
		ConfirmationStatus: req.ConfirmationStatus,
	}, state)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lifecycle_failed", err.Error())
		return
	}
	if err := s.applyDelta(req.SessionID, res.StateDelta); err != nil {
		writeError(w, http.StatusInternalServerError, "session_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) applyDelta(sid string, delta map[string]any) error {
	if len(delta) == 0 {
		return nil
	}
	return s.deps.Sessions.Apply(sid, delta)
}

// ErrorResponse is the JSON error body for all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// decodeBody parses the JSON body into target, writing a 400 on
// failure. Returns false when the request was rejected.
func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body: "+err.Error())
		return false
	}
	return true
}
