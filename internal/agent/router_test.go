package agent

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowbase/knowbase/internal/capability"
	"github.com/knowbase/knowbase/internal/kb"
	"github.com/knowbase/knowbase/internal/logging"
	"github.com/knowbase/knowbase/internal/session"
)

func testLogger() *logging.Logger {
	return logging.New(io.Discard, "silent")
}

func newTestRouter(dirs *capability.MockDirectory) *Router {
	if dirs == nil {
		dirs = &capability.MockDirectory{}
	}
	return NewRouter(
		RouterConfig{},
		&capability.MockAuthenticator{},
		&capability.MockNameExtractor{},
		dirs,
		testLogger(),
	)
}

func TestHandleTurnRequiresState(t *testing.T) {
	r := newTestRouter(nil)
	_, err := r.HandleTurn(context.Background(), "hi", nil, "s1")
	require.ErrorIs(t, err, ErrStateRequired)
}

func TestHandleTurnGreetsOnFirstEmptyTurn(t *testing.T) {
	r := newTestRouter(nil)
	state := session.State{}

	res, err := r.HandleTurn(context.Background(), "", state, "s1")
	require.NoError(t, err)

	assert.Equal(t, StatusAuthRequired, res.Status)
	assert.Equal(t, "Hello! Please tell me your name to get started.", res.ResponseMessage)
	require.NotNil(t, res.NameAttempts)
	assert.Equal(t, 0, *res.NameAttempts)
	assert.Empty(t, res.StateDelta, "greeting must not mutate state")
}

func TestHandleTurnAuthenticatesByName(t *testing.T) {
	dirs := &capability.MockDirectory{
		FetchFunc: func(ctx context.Context, req capability.FetchDomainsRequest) (capability.FetchDomainsResponse, error) {
			assert.Equal(t, kb.FilterAll, req.StatusFilter)
			assert.Equal(t, kb.ViewDetailed, req.ViewMode)
			return capability.FetchDomainsResponse{
				Status: capability.StatusSuccess,
				Data: []kb.Domain{
					{DomainID: "d1", Name: "Cooking", Status: "active"},
					{DomainID: "d2", Name: "", Status: "inactive"},
				},
			}, nil
		},
	}
	r := newTestRouter(dirs)
	state := session.State{}

	res, err := r.HandleTurn(context.Background(), "my name is Alice", state, "s1")
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "user_mock", res.AuthenticatedUserID)
	assert.Equal(t, "Welcome, Alice! Here are your domains: 🟢 Active: Cooking | ⚪ Inactive: d2", res.ResponseMessage)
	assert.Equal(t, "user_mock", res.StateDelta[session.KeyUserID])
	assert.Equal(t, "Alice", res.StateDelta[session.KeyUserName])
	assert.Equal(t, 1, res.StateDelta[session.KeyNameAttempts])
}

func TestHandleTurnWelcomeWithNoDomains(t *testing.T) {
	r := newTestRouter(nil)
	state := session.State{}

	res, err := r.HandleTurn(context.Background(), "Bob", state, "s1")
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Contains(t, res.ResponseMessage, "🟢 Active: none | ⚪ Inactive: none")
}

func TestHandleTurnRetriesOnUndetectedName(t *testing.T) {
	r := newTestRouter(nil)
	state := session.State{}

	res, err := r.HandleTurn(context.Background(), "what is the weather like", state, "s1")
	require.NoError(t, err)

	assert.Equal(t, StatusAuthRequired, res.Status)
	assert.Equal(t, "I could not catch your name. Please enter it again.", res.ResponseMessage)
	require.NotNil(t, res.NameAttempts)
	assert.Equal(t, 1, *res.NameAttempts)
	assert.Equal(t, 1, res.StateDelta[session.KeyNameAttempts])
}

func TestHandleTurnLocksOutAfterThreeFailures(t *testing.T) {
	r := newTestRouter(nil)
	state := session.State{session.KeyNameAttempts: 2}

	res, err := r.HandleTurn(context.Background(), "12345", state, "s1")
	require.NoError(t, err)

	assert.Equal(t, StatusAuthRequired, res.Status)
	assert.Equal(t, "Access denied. Please request a new session.", res.ResponseMessage)
	require.NotNil(t, res.NameAttempts)
	assert.Equal(t, 3, *res.NameAttempts)
}

func TestHandleTurnAuthFailureMessage(t *testing.T) {
	r := NewRouter(
		RouterConfig{},
		&capability.MockAuthenticator{
			AuthFunc: func(ctx context.Context, req capability.AuthRequest) (capability.AuthResponse, error) {
				return capability.AuthResponse{}, errors.New("db down")
			},
		},
		&capability.MockNameExtractor{},
		&capability.MockDirectory{},
		testLogger(),
	)
	state := session.State{}

	res, err := r.HandleTurn(context.Background(), "Alice", state, "s1")
	require.NoError(t, err)

	assert.Equal(t, StatusAuthRequired, res.Status)
	assert.Equal(t, "I could not verify you. Please try again or check credentials.", res.ResponseMessage)
}

func authedState() session.State {
	return session.State{
		session.KeyUserID:       "u1",
		session.KeyUserName:     "Alice",
		session.KeyNameAttempts: 1,
	}
}

func TestHandleTurnDelegatesURL(t *testing.T) {
	r := newTestRouter(nil)
	state := authedState()

	res, err := r.HandleTurn(context.Background(), "please read https://example.com/post", state, "s1")
	require.NoError(t, err)

	assert.Equal(t, StatusDelegate, res.Status)
	assert.Equal(t, TargetDocumentIntake, res.DelegationTarget)
	payload, ok := res.DelegationPayload.(*IntakeRequest)
	require.True(t, ok)
	assert.Equal(t, "s1", payload.SessionID)
	assert.Equal(t, "please read https://example.com/post", payload.RawText)
	assert.Equal(t, session.IntentDocProcess, res.StateDelta[session.KeyIntent])
	assert.Equal(t, "https://example.com/post", res.StateDelta[session.KeyURL])
}

func TestHandleTurnURLBeatsOtherIntents(t *testing.T) {
	r := newTestRouter(nil)
	state := authedState()

	res, err := r.HandleTurn(context.Background(), "enable https://example.com", state, "s1")
	require.NoError(t, err)

	assert.Equal(t, StatusDelegate, res.Status)
	assert.Equal(t, TargetDocumentIntake, res.DelegationTarget)
}

func TestHandleTurnDelegatesLifecycle(t *testing.T) {
	tests := []struct {
		message string
		op      string
	}{
		{"create domain about cooking", OperationCreate},
		{"new topic: astronomy", OperationCreate},
		{"edit domain description", OperationUpdate},
		{"update domain keywords", OperationUpdate},
	}
	for _, tc := range tests {
		t.Run(tc.message, func(t *testing.T) {
			r := newTestRouter(nil)
			state := authedState()
			state.Set(session.KeyDomainID, "stale0")

			res, err := r.HandleTurn(context.Background(), tc.message, state, "s1")
			require.NoError(t, err)

			assert.Equal(t, StatusDelegate, res.Status)
			assert.Equal(t, TargetDomainLifecycle, res.DelegationTarget)
			payload, ok := res.DelegationPayload.(*LifecycleRequest)
			require.True(t, ok)
			assert.Equal(t, tc.op, payload.OperationType)
			assert.Equal(t, tc.message, payload.UserInput)
			assert.Equal(t, session.IntentDomainLifecycle, res.StateDelta[session.KeyIntent])
			domainDelta, present := res.StateDelta[session.KeyDomainID]
			assert.True(t, present, "stale draft id must be cleared")
			assert.Nil(t, domainDelta)
		})
	}
}

func TestHandleTurnTogglesDomain(t *testing.T) {
	var gotReq capability.ToggleDomainRequest
	dirs := &capability.MockDirectory{
		ToggleFunc: func(ctx context.Context, req capability.ToggleDomainRequest) (capability.ToggleDomainResponse, error) {
			gotReq = req
			return capability.ToggleDomainResponse{
				Status: capability.StatusSuccess,
				Data:   &capability.ToggleDomainData{DomainID: req.DomainID, PreviousStatus: "active", NewStatus: "inactive"},
			}, nil
		},
	}
	r := newTestRouter(dirs)

	res, err := r.HandleTurn(context.Background(), "disable the news feed", authedState(), "s1")
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "u1", gotReq.UserID)
	assert.Equal(t, "dom_ai", gotReq.DomainID)
	assert.Contains(t, res.ResponseMessage, "active -> inactive")
}

func TestHandleTurnSnapshot(t *testing.T) {
	r := newTestRouter(nil)

	res, err := r.HandleTurn(context.Background(), "what do i know so far", authedState(), "s1")
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "Mock snapshot summary.", res.ResponseMessage)
}

func TestHandleTurnExport(t *testing.T) {
	r := newTestRouter(nil)

	res, err := r.HandleTurn(context.Background(), "export a detailed report", authedState(), "s1")
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Contains(t, res.ResponseMessage, "Download: ")
}

func TestHandleTurnDirectActionFailure(t *testing.T) {
	dirs := &capability.MockDirectory{
		SnapshotFunc: func(ctx context.Context, req capability.SnapshotRequest) (capability.SnapshotResponse, error) {
			return capability.SnapshotResponse{Status: capability.StatusError, Error: "NO_FACTS"}, nil
		},
	}
	r := newTestRouter(dirs)

	res, err := r.HandleTurn(context.Background(), "snapshot please", authedState(), "s1")
	require.NoError(t, err)

	assert.Equal(t, StatusIntakeError, res.Status)
	assert.Contains(t, res.ResponseMessage, "Could not generate the snapshot.")
}

func TestHandleTurnUnknownIntent(t *testing.T) {
	r := newTestRouter(nil)

	res, err := r.HandleTurn(context.Background(), "good morning", authedState(), "s1")
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Contains(t, res.ResponseMessage, "How can I help with your domains or links?")
	assert.Empty(t, res.StateDelta)
}

func TestClassifyIntentPriority(t *testing.T) {
	assert.Equal(t, intentURL, classifyIntent("check https://example.com"))
	assert.Equal(t, intentURL, classifyIntent("HTTPS://EXAMPLE.COM/x"))
	assert.Equal(t, intentDomainLifecycle, classifyIntent("update domain and take a snapshot"))
	assert.Equal(t, intentToggle, classifyIntent("disable it and export"))
	assert.Equal(t, intentSnapshot, classifyIntent("summary then download"))
	assert.Equal(t, intentExport, classifyIntent("download everything"))
	assert.Equal(t, intentUnknown, classifyIntent("hello there"))
}
