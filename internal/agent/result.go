// Package agent implements the conversational core: the turn router,
// the document intake pipeline, and the domain lifecycle machine. Each
// entry point processes one turn against a working copy of the session
// state and reports changes as a minimal state delta.
package agent

import (
	"errors"

	"github.com/knowbase/knowbase/internal/kb"
)

// ErrStateRequired is returned when an entry point is invoked without
// a session state record. This is a caller contract violation, not a
// business error; there is no fallback state source.
var ErrStateRequired = errors.New("session state is required")

// Router statuses.
const (
	StatusAuthRequired = "AUTH_REQUIRED"
	StatusSuccess      = "SUCCESS"
	StatusDelegate     = "DELEGATE"
)

// Intake statuses (lower case on the wire, matching the adapters).
const (
	StatusIntakeOK       = "success"
	StatusIntakeError    = "error"
	StatusNoRelevance    = "no_relevance"
	StatusReviewRequired = "review_required"
)

// Lifecycle statuses.
const (
	StatusAwaitingReview = "AWAITING_USER_REVIEW"
	StatusReadError      = "READ_ERROR"
	StatusWriteError     = "WRITE_ERROR"
)

// Delegation targets named in DELEGATE results.
const (
	TargetDocumentIntake  = "document-intake"
	TargetDomainLifecycle = "domain-lifecycle"
)

// Lifecycle operation types.
const (
	OperationCreate = "CREATE"
	OperationUpdate = "UPDATE"
)

// TurnResult is the router's response for one user turn.
type TurnResult struct {
	Status              string         `json:"status"`
	Reasoning           string         `json:"reasoning,omitempty"`
	ResponseMessage     string         `json:"response_message,omitempty"`
	SessionID           string         `json:"session_id"`
	NameAttempts        *int           `json:"name_attempts,omitempty"`
	AuthenticatedUserID string         `json:"authenticated_user_id,omitempty"`
	DelegationTarget    string         `json:"delegation_target,omitempty"`
	DelegationPayload   any            `json:"delegation_payload,omitempty"`
	StateDelta          map[string]any `json:"state_delta,omitempty"`
}

// IntakeRequest is the document intake entry payload. Supplying both
// SelectedFactIDs and FactsPayload selects save mode; anything else is
// discovery mode.
type IntakeRequest struct {
	SessionID       string             `json:"session_id"`
	RawText         string             `json:"raw_text,omitempty"`
	SelectedFactIDs []string           `json:"selected_fact_ids,omitempty"`
	FactsPayload    []kb.CandidateFact `json:"facts_payload,omitempty"`
}

// IntakeResult is the intake pipeline's response.
type IntakeResult struct {
	Status          string             `json:"status"`
	Reasoning       string             `json:"reasoning,omitempty"`
	ResponseMessage string             `json:"response_message,omitempty"`
	ErrorDetail     string             `json:"error_detail,omitempty"`
	SavedCount      int                `json:"saved_count,omitempty"`
	CandidateFacts  []kb.CandidateFact `json:"candidate_facts,omitempty"`
	SessionID       string             `json:"session_id"`
	StateDelta      map[string]any     `json:"state_delta,omitempty"`
}

// LifecycleRequest is the domain lifecycle entry payload.
type LifecycleRequest struct {
	SessionID          string `json:"session_id"`
	OperationType      string `json:"operation_type"`
	UserInput          string `json:"user_input"`
	DomainID           string `json:"domain_id,omitempty"`
	ConfirmationStatus bool   `json:"confirmation_status"`
}

// LifecycleResult is the lifecycle machine's response.
type LifecycleResult struct {
	Status        string         `json:"status"`
	Reasoning     string         `json:"reasoning,omitempty"`
	MessageToUser string         `json:"message_to_user,omitempty"`
	DomainDraft   *kb.Draft      `json:"domain_draft,omitempty"`
	SessionID     string         `json:"session_id"`
	StateDelta    map[string]any `json:"state_delta,omitempty"`
}

func intPtr(v int) *int { return &v }
