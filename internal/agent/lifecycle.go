package agent

import (
	"context"
	"crypto/rand"
	"strings"

	"github.com/knowbase/knowbase/internal/capability"
	"github.com/knowbase/knowbase/internal/kb"
	"github.com/knowbase/knowbase/internal/logging"
	"github.com/knowbase/knowbase/internal/session"
)

// Lifecycle drives the two-phase domain draft/confirm machine: Phase A
// turns a raw description into a structured draft and parks its id in
// the session; Phase B persists the draft once the user confirms.
type Lifecycle struct {
	prettifier capability.Prettifier
	persister  capability.DraftPersister
	persist    bool
	log        *logging.Logger
}

// NewLifecycle creates a domain lifecycle machine. When persist is
// false, confirmed drafts succeed without touching storage.
func NewLifecycle(prettifier capability.Prettifier, persister capability.DraftPersister, persist bool, log *logging.Logger) *Lifecycle {
	return &Lifecycle{
		prettifier: prettifier,
		persister:  persister,
		persist:    persist,
		log:        log.Sub("agent.lifecycle"),
	}
}

// Handle processes one lifecycle request against the session state.
func (lc *Lifecycle) Handle(ctx context.Context, req LifecycleRequest, state session.State) (*LifecycleResult, error) {
	if state == nil {
		return nil, ErrStateRequired
	}
	_, endSpan := logging.Span(lc.log, "lifecycle", req.SessionID)
	defer endSpan()

	work := state.Clone()
	finalize := func(res *LifecycleResult) *LifecycleResult {
		if delta := session.Diff(state, work); len(delta) > 0 {
			res.StateDelta = delta
		}
		res.SessionID = req.SessionID
		return res
	}

	userID := work.GetString(session.KeyUserID)
	if req.OperationType == "" || userID == "" || strings.TrimSpace(req.UserInput) == "" {
		return finalize(&LifecycleResult{
			Status:        StatusReadError,
			Reasoning:     "Missing required lifecycle inputs.",
			MessageToUser: "operation_type, user_id, and user_input are required.",
		}), nil
	}

	pretty, err := lc.prettifier.PrettifyDomain(ctx, capability.PrettifyRequest{RawInputText: req.UserInput})
	if err != nil || pretty.Status != capability.StatusPrettifyOK || pretty.Data == nil {
		detail := pretty.ErrorDetails
		if err != nil {
			detail = err.Error()
		}
		lc.log.ErrorEvent("PRETTIFY_FAILED").
			Str("detail", detail).
			Str("sessionId", req.SessionID).
			Send()
		return finalize(&LifecycleResult{
			Status:        StatusReadError,
			Reasoning:     "Draft structuring failed.",
			MessageToUser: "Could not draft domain. Please retry.",
		}), nil
	}

	// The draft id survives across turns so confirm resolves to the
	// same draft the user reviewed.
	domainID := work.GetString(session.KeyDomainID)
	if domainID == "" {
		domainID = req.DomainID
	}
	if domainID == "" {
		domainID = newDomainID()
	}

	draft := &kb.Draft{
		DomainID:    domainID,
		Name:        pretty.Data.Name,
		Description: pretty.Data.Description,
		Keywords:    pretty.Data.Keywords,
	}

	if !req.ConfirmationStatus {
		work.Set(session.KeyDomainID, domainID)
		work.Set(session.KeyIntent, session.IntentDomainLifecycle)
		return finalize(&LifecycleResult{
			Status:        StatusAwaitingReview,
			Reasoning:     "Draft prepared; awaiting user confirmation.",
			MessageToUser: "Review this draft and confirm to save.",
			DomainDraft:   draft,
		}), nil
	}

	if lc.persist {
		if err := lc.persister.PersistDraft(ctx, userID, *draft); err != nil {
			lc.log.ErrorEvent("DOMAIN_WRITE_FAILED").
				Str("domainId", domainID).
				Err(err).
				Str("sessionId", req.SessionID).
				Send()
			return finalize(&LifecycleResult{
				Status:        StatusWriteError,
				Reasoning:     "Persisting the confirmed draft failed.",
				MessageToUser: "Could not save the domain. Please retry later.",
				DomainDraft:   draft,
			}), nil
		}
	}

	work.Clear(session.KeyIntent)
	work.Clear(session.KeyDomainID)
	return finalize(&LifecycleResult{
		Status:        StatusSuccess,
		Reasoning:     "Draft confirmed and saved.",
		MessageToUser: "Domain " + draft.Name + " saved.",
		DomainDraft:   draft,
	}), nil
}

const domainIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// newDomainID returns a random 6-character lower-case alphanumeric id.
func newDomainID() string {
	buf := make([]byte, 6)
	rand.Read(buf)
	for i, b := range buf {
		buf[i] = domainIDAlphabet[int(b)%len(domainIDAlphabet)]
	}
	return string(buf)
}
