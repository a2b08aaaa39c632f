package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowbase/knowbase/internal/capability"
	"github.com/knowbase/knowbase/internal/kb"
	"github.com/knowbase/knowbase/internal/session"
)

type convoDeps struct {
	saver     *capability.MockFactSaver
	persister *recordingPersister
	sessions  *session.MemoryStore
}

func newTestConversation() (*Conversation, *convoDeps) {
	deps := &convoDeps{
		saver:     &capability.MockFactSaver{},
		persister: &recordingPersister{},
		sessions:  session.NewMemoryStore(),
	}
	dirs := &capability.MockDirectory{
		FetchFunc: func(ctx context.Context, req capability.FetchDomainsRequest) (capability.FetchDomainsResponse, error) {
			return capability.FetchDomainsResponse{
				Status: capability.StatusSuccess,
				Data: []kb.Domain{
					{DomainID: "d1", Name: "Cooking", Status: "active", Description: "recipes", Keywords: []string{"food"}},
				},
			}, nil
		},
	}
	router := NewRouter(RouterConfig{}, &capability.MockAuthenticator{}, &capability.MockNameExtractor{}, dirs, testLogger())
	intake := NewIntake(IntakeConfig{}, &capability.MockFetcher{}, dirs, &capability.MockRelevance{}, &capability.MockExtractor{}, deps.saver, testLogger())
	lifecycle := NewLifecycle(&capability.MockPrettifier{}, deps.persister, true, testLogger())
	return NewConversation(router, intake, lifecycle, deps.sessions), deps
}

func TestConverseGreetsNewSession(t *testing.T) {
	c, _ := newTestConversation()

	reply, err := c.Converse(context.Background(), "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, reply.SessionID)
	assert.Equal(t, StatusAuthRequired, reply.Status)
	assert.Contains(t, reply.Message, "tell me your name")
}

func TestConverseAuthenticates(t *testing.T) {
	c, _ := newTestConversation()

	reply, err := c.Converse(context.Background(), "", "")
	require.NoError(t, err)
	sid := reply.SessionID

	reply, err = c.Converse(context.Background(), sid, "my name is Alice")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, reply.Status)
	assert.Contains(t, reply.Message, "Welcome, Alice!")
}

// authenticate runs the name turn and returns the session id.
func authenticate(t *testing.T, c *Conversation) string {
	t.Helper()
	reply, err := c.Converse(context.Background(), "", "")
	require.NoError(t, err)
	_, err = c.Converse(context.Background(), reply.SessionID, "my name is Alice")
	require.NoError(t, err)
	return reply.SessionID
}

func TestConverseURLThroughSelection(t *testing.T) {
	c, deps := newTestConversation()
	sid := authenticate(t, c)

	reply, err := c.Converse(context.Background(), sid, "read this https://example.com/bread")
	require.NoError(t, err)
	assert.Equal(t, StatusReviewRequired, reply.Status)
	require.Len(t, reply.Facts, 2)

	reply, err = c.Converse(context.Background(), sid, "1")
	require.NoError(t, err)
	assert.Equal(t, StatusIntakeOK, reply.Status)
	require.Len(t, deps.saver.Calls, 1)
	assert.Equal(t, "Mock fact 1", deps.saver.Calls[0].FactText)

	// Selection context is consumed; a second "1" is just a message.
	reply, err = c.Converse(context.Background(), sid, "1")
	require.NoError(t, err)
	assert.Len(t, deps.saver.Calls, 1)
}

func TestConverseSelectionAll(t *testing.T) {
	c, deps := newTestConversation()
	sid := authenticate(t, c)

	_, err := c.Converse(context.Background(), sid, "https://example.com/bread")
	require.NoError(t, err)

	reply, err := c.Converse(context.Background(), sid, "all")
	require.NoError(t, err)
	assert.Equal(t, StatusIntakeOK, reply.Status)
	assert.Len(t, deps.saver.Calls, 2)
}

func TestConverseSelectionSkip(t *testing.T) {
	c, deps := newTestConversation()
	sid := authenticate(t, c)

	_, err := c.Converse(context.Background(), sid, "https://example.com/bread")
	require.NoError(t, err)

	reply, err := c.Converse(context.Background(), sid, "skip")
	require.NoError(t, err)
	assert.Equal(t, StatusIntakeOK, reply.Status)
	assert.Contains(t, reply.Message, "nothing saved")
	assert.Empty(t, deps.saver.Calls)
}

func TestConverseUnrelatedMessageDropsSelection(t *testing.T) {
	c, deps := newTestConversation()
	sid := authenticate(t, c)

	_, err := c.Converse(context.Background(), sid, "https://example.com/bread")
	require.NoError(t, err)

	// Not a selection: falls through to the router as a fresh turn.
	reply, err := c.Converse(context.Background(), sid, "what do i know about cooking")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, reply.Status)
	assert.Empty(t, deps.saver.Calls)
}

func TestConverseDraftConfirm(t *testing.T) {
	c, deps := newTestConversation()
	sid := authenticate(t, c)

	reply, err := c.Converse(context.Background(), sid, "create domain about hiking trails")
	require.NoError(t, err)
	assert.Equal(t, StatusAwaitingReview, reply.Status)
	require.NotNil(t, reply.Draft)
	assert.Equal(t, "Mock Domain", reply.Draft.Name)

	reply, err = c.Converse(context.Background(), sid, "yes")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, reply.Status)
	require.Len(t, deps.persister.calls, 1)
	assert.Equal(t, "Mock Domain", deps.persister.calls[0].Name)

	// Confirmation clears the lifecycle keys from the session.
	st, err := deps.sessions.Get(sid)
	require.NoError(t, err)
	assert.NotContains(t, st, session.KeyIntent)
	assert.NotContains(t, st, session.KeyDomainID)
}

func TestConverseDraftDiscard(t *testing.T) {
	c, deps := newTestConversation()
	sid := authenticate(t, c)

	_, err := c.Converse(context.Background(), sid, "create domain about hiking")
	require.NoError(t, err)

	reply, err := c.Converse(context.Background(), sid, "no")
	require.NoError(t, err)
	assert.Contains(t, reply.Message, "Draft discarded")
	assert.Empty(t, deps.persister.calls)
}

func TestConverseDraftRevision(t *testing.T) {
	c, deps := newTestConversation()
	sid := authenticate(t, c)

	first, err := c.Converse(context.Background(), sid, "create domain about hiking")
	require.NoError(t, err)
	require.NotNil(t, first.Draft)

	// Free text revises the draft and keeps the same domain id.
	second, err := c.Converse(context.Background(), sid, "make it about alpine hiking")
	require.NoError(t, err)
	assert.Equal(t, StatusAwaitingReview, second.Status)
	require.NotNil(t, second.Draft)
	assert.Equal(t, first.Draft.DomainID, second.Draft.DomainID)

	_, err = c.Converse(context.Background(), sid, "confirm")
	require.NoError(t, err)
	require.Len(t, deps.persister.calls, 1)
}

func TestParseSelection(t *testing.T) {
	facts := []kb.CandidateFact{
		{FactID: "d1_0_ab12"},
		{FactID: "d1_1_cd34"},
		{FactID: "d1_2_ef56"},
	}

	ids, ok := parseSelection("all", facts)
	require.True(t, ok)
	assert.Len(t, ids, 3)

	ids, ok = parseSelection("1,3", facts)
	require.True(t, ok)
	assert.Equal(t, []string{"d1_0_ab12", "d1_2_ef56"}, ids)

	ids, ok = parseSelection("2 3", facts)
	require.True(t, ok)
	assert.Equal(t, []string{"d1_1_cd34", "d1_2_ef56"}, ids)

	ids, ok = parseSelection("d1_1_cd34", facts)
	require.True(t, ok)
	assert.Equal(t, []string{"d1_1_cd34"}, ids)

	_, ok = parseSelection("4", facts)
	assert.False(t, ok)

	_, ok = parseSelection("maybe later", facts)
	assert.False(t, ok)

	_, ok = parseSelection("", facts)
	assert.False(t, ok)
}
