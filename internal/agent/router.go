package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/knowbase/knowbase/internal/capability"
	"github.com/knowbase/knowbase/internal/kb"
	"github.com/knowbase/knowbase/internal/logging"
	"github.com/knowbase/knowbase/internal/session"
)

// maxNameAttempts is the number of failed name extractions before the
// session is locked out.
const maxNameAttempts = 3

var urlPattern = regexp.MustCompile(`(?i)https?://\S+`)

// Intent labels produced by the classifier.
const (
	intentURL             = "URL"
	intentDomainLifecycle = "DOMAIN_LIFECYCLE"
	intentToggle          = "TOGGLE"
	intentSnapshot        = "SNAPSHOT"
	intentExport          = "EXPORT"
	intentUnknown         = "UNKNOWN"
)

// RouterConfig carries the router's prompts and placeholders.
type RouterConfig struct {
	// GreetingPrompt is shown on the first unauthenticated empty turn.
	GreetingPrompt string

	// PlaceholderDomainID is the fixed domain the direct actions
	// operate on until a real domain-selection UX exists.
	PlaceholderDomainID string
}

const defaultGreeting = "Hello! Please tell me your name to get started."

// Router is the top-level entry point for one user turn. It owns the
// authentication state machine and the keyword intent classifier, and
// either answers directly or emits a delegation instruction.
type Router struct {
	cfg   RouterConfig
	auth  capability.Authenticator
	names capability.NameExtractor
	dirs  capability.DomainDirectory
	log   *logging.Logger
}

// NewRouter creates a turn router.
func NewRouter(
	cfg RouterConfig,
	auth capability.Authenticator,
	names capability.NameExtractor,
	dirs capability.DomainDirectory,
	log *logging.Logger,
) *Router {
	if cfg.GreetingPrompt == "" {
		cfg.GreetingPrompt = defaultGreeting
	}
	if cfg.PlaceholderDomainID == "" {
		cfg.PlaceholderDomainID = "dom_ai"
	}
	return &Router{
		cfg:   cfg,
		auth:  auth,
		names: names,
		dirs:  dirs,
		log:   log.Sub("agent.router"),
	}
}

// HandleTurn processes one user turn: authenticate-or-continue, then
// classify-and-act-or-delegate. The caller must supply the session
// state; a nil state is a contract violation and fails the call.
func (r *Router) HandleTurn(ctx context.Context, message string, state session.State, sessionID string) (*TurnResult, error) {
	if state == nil {
		return nil, ErrStateRequired
	}
	_, endSpan := logging.Span(r.log, "turn", sessionID)
	defer endSpan()

	work := state.Clone()
	finalize := func(res *TurnResult) *TurnResult {
		if delta := session.Diff(state, work); len(delta) > 0 {
			res.StateDelta = delta
		}
		res.SessionID = sessionID
		return res
	}

	if work.GetString(session.KeyUserID) == "" {
		return finalize(r.authenticate(ctx, message, work, sessionID)), nil
	}
	return finalize(r.route(ctx, message, work, sessionID)), nil
}

// authenticate drives the unauthenticated side of the state machine.
func (r *Router) authenticate(ctx context.Context, message string, work session.State, sessionID string) *TurnResult {
	attempts := work.GetInt(session.KeyNameAttempts)

	if strings.TrimSpace(message) == "" && attempts == 0 {
		return &TurnResult{
			Status:          StatusAuthRequired,
			Reasoning:       "User not authenticated; request introduction.",
			ResponseMessage: r.cfg.GreetingPrompt,
			NameAttempts:    intPtr(0),
		}
	}

	attempts++
	work.Set(session.KeyNameAttempts, attempts)

	nameRes, err := r.names.ExtractName(ctx, capability.NameRequest{UserInput: message})
	r.log.Event("NAME_EXTRACTION_RESULT").
		Bool("detected", err == nil && nameRes.Detected).
		Str("name", nameRes.Name).
		Float64("confidence", nameRes.Confidence).
		Str("sessionId", sessionID).
		Send()

	if err != nil || nameRes.Status != capability.StatusSuccess || !nameRes.Detected || nameRes.Name == "" {
		if attempts >= maxNameAttempts {
			return &TurnResult{
				Status:          StatusAuthRequired,
				Reasoning:       "Name not detected after max attempts.",
				ResponseMessage: "Access denied. Please request a new session.",
				NameAttempts:    intPtr(attempts),
			}
		}
		return &TurnResult{
			Status:          StatusAuthRequired,
			Reasoning:       "Name not detected; ask user to retry.",
			ResponseMessage: "I could not catch your name. Please enter it again.",
			NameAttempts:    intPtr(attempts),
		}
	}

	authRes, err := r.auth.Auth(ctx, capability.AuthRequest{Username: nameRes.Name})
	if err != nil || authRes.Status != capability.StatusSuccess || authRes.Data == nil {
		return &TurnResult{
			Status:          StatusAuthRequired,
			Reasoning:       "Authentication capability failed.",
			ResponseMessage: "I could not verify you. Please try again or check credentials.",
			NameAttempts:    intPtr(attempts),
		}
	}

	userID := authRes.Data.UserID
	work.Set(session.KeyUserID, userID)
	work.Set(session.KeyUserName, nameRes.Name)

	// Directory fetch failures degrade to an empty summary rather
	// than failing the freshly authenticated turn.
	domains, _ := r.dirs.FetchDomains(ctx, capability.FetchDomainsRequest{
		UserID:       userID,
		StatusFilter: kb.FilterAll,
		ViewMode:     kb.ViewDetailed,
	})

	return &TurnResult{
		Status:              StatusSuccess,
		Reasoning:           "Authenticated user via extracted name and fetched domains.",
		ResponseMessage:     fmt.Sprintf("Welcome, %s! Here are your domains: %s", nameRes.Name, formatDomainSummary(domains.Data)),
		AuthenticatedUserID: userID,
		NameAttempts:        intPtr(attempts),
	}
}

// route classifies an authenticated message and acts or delegates.
func (r *Router) route(ctx context.Context, message string, work session.State, sessionID string) *TurnResult {
	userID := work.GetString(session.KeyUserID)

	switch classifyIntent(message) {
	case intentURL:
		targetURL := urlPattern.FindString(message)
		work.Set(session.KeyIntent, session.IntentDocProcess)
		work.Set(session.KeyURL, targetURL)
		r.log.Event("HANDOFF").
			Str("source", "router").
			Str("target", TargetDocumentIntake).
			Str("reason", "URL detected").
			Str("url", targetURL).
			Str("sessionId", sessionID).
			Send()
		return &TurnResult{
			Status:           StatusDelegate,
			Reasoning:        fmt.Sprintf("Detected URL; delegating to document intake for %s.", targetURL),
			DelegationTarget: TargetDocumentIntake,
			DelegationPayload: &IntakeRequest{
				SessionID: sessionID,
				RawText:   message,
			},
		}

	case intentDomainLifecycle:
		lowered := strings.ToLower(message)
		operation := OperationUpdate
		if strings.Contains(lowered, "create") || strings.Contains(lowered, "new") {
			operation = OperationCreate
		}
		work.Set(session.KeyIntent, session.IntentDomainLifecycle)
		work.Clear(session.KeyDomainID)
		r.log.Event("HANDOFF").
			Str("source", "router").
			Str("target", TargetDomainLifecycle).
			Str("reason", "Domain lifecycle intent").
			Str("operationType", operation).
			Str("sessionId", sessionID).
			Send()
		return &TurnResult{
			Status:           StatusDelegate,
			Reasoning:        "Domain lifecycle intent detected; deferring to the lifecycle machine.",
			DelegationTarget: TargetDomainLifecycle,
			DelegationPayload: &LifecycleRequest{
				SessionID:     sessionID,
				OperationType: operation,
				UserInput:     message,
			},
		}

	case intentToggle:
		res, err := r.dirs.ToggleDomain(ctx, capability.ToggleDomainRequest{
			UserID:   userID,
			DomainID: r.cfg.PlaceholderDomainID,
		})
		if err != nil || res.Status != capability.StatusSuccess || res.Data == nil {
			return directActionFailure("toggle the domain")
		}
		return &TurnResult{
			Status:    StatusSuccess,
			Reasoning: "Toggle intent detected; executed status toggle.",
			ResponseMessage: fmt.Sprintf("Toggled domain %s: %s -> %s",
				res.Data.DomainID, res.Data.PreviousStatus, res.Data.NewStatus),
		}

	case intentSnapshot:
		res, err := r.dirs.GenerateSnapshot(ctx, capability.SnapshotRequest{
			UserID:   userID,
			DomainID: r.cfg.PlaceholderDomainID,
		})
		if err != nil || res.Status != capability.StatusSuccess || res.Data == nil {
			return directActionFailure("generate the snapshot")
		}
		return &TurnResult{
			Status:          StatusSuccess,
			Reasoning:       "Snapshot intent detected; generated snapshot.",
			ResponseMessage: res.Data.SuperSummary,
		}

	case intentExport:
		res, err := r.dirs.ExportSnapshot(ctx, capability.ExportRequest{
			UserID:   userID,
			DomainID: r.cfg.PlaceholderDomainID,
		})
		if err != nil || res.Status != capability.StatusSuccess || res.Data == nil {
			return directActionFailure("export the report")
		}
		return &TurnResult{
			Status:          StatusSuccess,
			Reasoning:       "Export intent detected; generated export link.",
			ResponseMessage: "Download: " + res.Data.DownloadURL,
		}
	}

	return &TurnResult{
		Status:          StatusSuccess,
		Reasoning:       "No matching intent; requesting clarification.",
		ResponseMessage: helpMessage,
	}
}

const helpMessage = `How can I help with your domains or links? Type:
- create domain (describe)
- or new topic (describe)
- or edit domain
- or update domain
- or enable domain
- or disable domain
- or snapshot
- or summary
- or export
- or provide valid url`

func directActionFailure(action string) *TurnResult {
	return &TurnResult{
		Status:          StatusIntakeError,
		Reasoning:       "Domain directory capability failed.",
		ResponseMessage: fmt.Sprintf("Could not %s. Please try again later.", action),
	}
}

// classifyIntent scans the lowered message for intent markers. The
// checks run in a fixed priority order; a message matching several
// categories resolves to the earliest one.
func classifyIntent(message string) string {
	if urlPattern.MatchString(message) {
		return intentURL
	}
	lowered := strings.ToLower(message)
	if containsAny(lowered, "create domain", "new topic", "edit domain", "change description", "update domain") {
		return intentDomainLifecycle
	}
	if containsAny(lowered, "enable", "disable", "activate", "turn off") {
		return intentToggle
	}
	if containsAny(lowered, "snapshot", "summary", "what do i know") {
		return intentSnapshot
	}
	if containsAny(lowered, "export", "download", "detailed report") {
		return intentExport
	}
	return intentUnknown
}

func containsAny(s string, markers ...string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// formatDomainSummary renders the two-group domain overview shown
// after authentication. Display names fall back to the domain id, and
// empty groups render as "none".
func formatDomainSummary(domains []kb.Domain) string {
	var active, inactive []string
	for _, d := range domains {
		name := d.Name
		if name == "" {
			name = d.DomainID
		}
		switch strings.ToLower(d.Status) {
		case string(kb.DomainActive):
			active = append(active, name)
		case string(kb.DomainInactive):
			inactive = append(inactive, name)
		}
	}
	return fmt.Sprintf("🟢 Active: %s | ⚪ Inactive: %s", joinOrNone(active), joinOrNone(inactive))
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
