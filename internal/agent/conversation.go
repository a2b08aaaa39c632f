package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/knowbase/knowbase/internal/kb"
	"github.com/knowbase/knowbase/internal/session"
)

// Reply is one conversational answer, shaped for a chat surface.
type Reply struct {
	SessionID string             `json:"session_id"`
	Status    string             `json:"status"`
	Message   string             `json:"message"`
	Facts     []kb.CandidateFact `json:"facts,omitempty"`
	Draft     *kb.Draft          `json:"draft,omitempty"`
}

// pending tracks what a session is waiting on between turns: a fact
// selection after review, or a draft confirmation.
type pending struct {
	facts     []kb.CandidateFact
	lifecycle *LifecycleRequest
}

// Conversation stitches the router, the intake pipeline, and the
// lifecycle machine into a single chat loop. It executes delegation
// results immediately and keeps per-session review context so a plain
// "yes" or "1,3" completes the interaction started a turn earlier.
type Conversation struct {
	router    *Router
	intake    *Intake
	lifecycle *Lifecycle
	sessions  session.Store

	mu      sync.Mutex
	waiting map[string]*pending
}

// NewConversation creates a chat loop over the three core modules.
func NewConversation(router *Router, intake *Intake, lifecycle *Lifecycle, sessions session.Store) *Conversation {
	return &Conversation{
		router:    router,
		intake:    intake,
		lifecycle: lifecycle,
		sessions:  sessions,
		waiting:   make(map[string]*pending),
	}
}

// Converse runs one chat turn. An empty sessionID starts a new session;
// the returned reply always carries the id to use next.
func (c *Conversation) Converse(ctx context.Context, sessionID, message string) (*Reply, error) {
	sid, state, err := c.sessions.GetOrCreate(sessionID)
	if err != nil {
		return nil, err
	}

	if p := c.pendingFor(sid); p != nil {
		if reply, handled, err := c.resumePending(ctx, sid, message, state, p); handled || err != nil {
			return reply, err
		}
	}

	res, err := c.router.HandleTurn(ctx, message, state, sid)
	if err != nil {
		return nil, err
	}
	if err := c.apply(sid, res.StateDelta); err != nil {
		return nil, err
	}

	if res.Status != StatusDelegate {
		return &Reply{SessionID: sid, Status: res.Status, Message: res.ResponseMessage}, nil
	}
	return c.runDelegation(ctx, sid, res)
}

// runDelegation executes a DELEGATE result against the named module.
func (c *Conversation) runDelegation(ctx context.Context, sid string, res *TurnResult) (*Reply, error) {
	state, err := c.sessions.Get(sid)
	if err != nil {
		return nil, err
	}

	switch res.DelegationTarget {
	case TargetDocumentIntake:
		req, ok := res.DelegationPayload.(*IntakeRequest)
		if !ok {
			return nil, fmt.Errorf("unexpected intake payload %T", res.DelegationPayload)
		}
		intakeRes, err := c.intake.Handle(ctx, *req, state)
		if err != nil {
			return nil, err
		}
		if err := c.apply(sid, intakeRes.StateDelta); err != nil {
			return nil, err
		}
		if intakeRes.Status == StatusReviewRequired {
			c.setPending(sid, &pending{facts: intakeRes.CandidateFacts})
		}
		return &Reply{
			SessionID: sid,
			Status:    intakeRes.Status,
			Message:   intakeRes.ResponseMessage,
			Facts:     intakeRes.CandidateFacts,
		}, nil

	case TargetDomainLifecycle:
		req, ok := res.DelegationPayload.(*LifecycleRequest)
		if !ok {
			return nil, fmt.Errorf("unexpected lifecycle payload %T", res.DelegationPayload)
		}
		return c.runLifecycle(ctx, sid, *req, state)

	default:
		return nil, fmt.Errorf("unknown delegation target %q", res.DelegationTarget)
	}
}

func (c *Conversation) runLifecycle(ctx context.Context, sid string, req LifecycleRequest, state session.State) (*Reply, error) {
	lcRes, err := c.lifecycle.Handle(ctx, req, state)
	if err != nil {
		return nil, err
	}
	if err := c.apply(sid, lcRes.StateDelta); err != nil {
		return nil, err
	}
	if lcRes.Status == StatusAwaitingReview {
		c.setPending(sid, &pending{lifecycle: &req})
	} else {
		c.clearPending(sid)
	}
	return &Reply{
		SessionID: sid,
		Status:    lcRes.Status,
		Message:   lcRes.MessageToUser,
		Draft:     lcRes.DomainDraft,
	}, nil
}

// resumePending interprets the message in the context of what the
// session is waiting on. Returns handled=false when the message does
// not address the pending interaction, in which case the turn falls
// through to the router and the pending context is dropped.
func (c *Conversation) resumePending(ctx context.Context, sid, message string, state session.State, p *pending) (*Reply, bool, error) {
	lowered := strings.ToLower(strings.TrimSpace(message))

	if p.facts != nil {
		selected, ok := parseSelection(lowered, p.facts)
		switch {
		case lowered == "skip" || lowered == "cancel" || lowered == "none":
			c.clearPending(sid)
			return &Reply{SessionID: sid, Status: StatusIntakeOK, Message: "Okay, nothing saved."}, true, nil
		case ok:
			req := IntakeRequest{SessionID: sid, SelectedFactIDs: selected, FactsPayload: p.facts}
			intakeRes, err := c.intake.Handle(ctx, req, state)
			if err != nil {
				return nil, true, err
			}
			if err := c.apply(sid, intakeRes.StateDelta); err != nil {
				return nil, true, err
			}
			c.clearPending(sid)
			return &Reply{SessionID: sid, Status: intakeRes.Status, Message: intakeRes.ResponseMessage}, true, nil
		default:
			c.clearPending(sid)
			return nil, false, nil
		}
	}

	if p.lifecycle != nil {
		switch lowered {
		case "yes", "confirm", "save", "ok":
			req := *p.lifecycle
			req.ConfirmationStatus = true
			reply, err := c.runLifecycle(ctx, sid, req, state)
			return reply, true, err
		case "no", "cancel":
			c.clearPending(sid)
			return &Reply{SessionID: sid, Status: StatusSuccess, Message: "Draft discarded."}, true, nil
		default:
			// Any other text revises the draft description.
			req := *p.lifecycle
			req.UserInput = message
			reply, err := c.runLifecycle(ctx, sid, req, state)
			return reply, true, err
		}
	}

	return nil, false, nil
}

// parseSelection resolves a user reply into fact ids. Accepted forms:
// "all", comma/space separated 1-based indices, or literal fact ids.
func parseSelection(input string, facts []kb.CandidateFact) ([]string, bool) {
	if input == "all" {
		ids := make([]string, len(facts))
		for i, f := range facts {
			ids[i] = f.FactID
		}
		return ids, true
	}

	known := make(map[string]bool, len(facts))
	for _, f := range facts {
		known[f.FactID] = true
	}

	var ids []string
	for _, token := range strings.FieldsFunc(input, func(r rune) bool { return r == ',' || r == ' ' }) {
		if known[token] {
			ids = append(ids, token)
			continue
		}
		idx, err := strconv.Atoi(token)
		if err != nil || idx < 1 || idx > len(facts) {
			return nil, false
		}
		ids = append(ids, facts[idx-1].FactID)
	}
	return ids, len(ids) > 0
}

func (c *Conversation) apply(sid string, delta map[string]any) error {
	if len(delta) == 0 {
		return nil
	}
	return c.sessions.Apply(sid, delta)
}

func (c *Conversation) pendingFor(sid string) *pending {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiting[sid]
}

func (c *Conversation) setPending(sid string, p *pending) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waiting[sid] = p
}

func (c *Conversation) clearPending(sid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.waiting, sid)
}
