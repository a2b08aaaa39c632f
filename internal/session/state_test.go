package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneIsIndependent(t *testing.T) {
	orig := State{"user_id": "u1"}
	copy := orig.Clone()
	copy["user_id"] = "u2"
	copy["extra"] = true

	assert.Equal(t, "u1", orig["user_id"])
	assert.NotContains(t, orig, "extra")
}

func TestGetString(t *testing.T) {
	st := State{"user_name": "Alice", "name_attempts": 2}

	assert.Equal(t, "Alice", st.GetString("user_name"))
	assert.Empty(t, st.GetString("name_attempts"))
	assert.Empty(t, st.GetString("missing"))
}

func TestGetIntNumericTypes(t *testing.T) {
	st := State{
		"a": 3,
		"b": int64(4),
		"c": float64(5),
		"d": "six",
	}

	assert.Equal(t, 3, st.GetInt("a"))
	assert.Equal(t, 4, st.GetInt("b"))
	assert.Equal(t, 5, st.GetInt("c"))
	assert.Equal(t, 0, st.GetInt("d"))
	assert.Equal(t, 0, st.GetInt("missing"))
}

func TestDiffOnlyChangedKeys(t *testing.T) {
	before := State{"user_id": "u1", "intent": "DOC_PROCESS", "url": "https://a"}
	after := State{"user_id": "u1", "intent": "DOMAIN_LIFECYCLE"}

	delta := Diff(before, after)
	require.Len(t, delta, 2)
	assert.Equal(t, "DOMAIN_LIFECYCLE", delta["intent"])
	assert.Nil(t, delta["url"])
	assert.NotContains(t, delta, "user_id")
}

func TestDiffEmptyWhenEqual(t *testing.T) {
	before := State{"user_id": "u1", "name_attempts": 1}
	after := before.Clone()

	assert.Empty(t, Diff(before, after))
}

func TestDiffNumericEquivalence(t *testing.T) {
	// A state loaded from JSON carries float64 where the agent wrote int.
	before := State{"name_attempts": float64(2)}
	after := State{"name_attempts": 2}

	assert.Empty(t, Diff(before, after))
}

func TestDiffAddedKey(t *testing.T) {
	delta := Diff(State{}, State{"user_name": "Alice"})
	require.Len(t, delta, 1)
	assert.Equal(t, "Alice", delta["user_name"])
}

func TestApplyMergesAndDeletes(t *testing.T) {
	st := State{"user_id": "u1", "url": "https://a", "intent": "DOC_PROCESS"}
	Apply(st, map[string]any{"url": nil, "domain_id": "cook01"})

	assert.NotContains(t, st, "url")
	assert.Equal(t, "cook01", st["domain_id"])
	assert.Equal(t, "u1", st["user_id"])
}

func TestDiffApplyRoundTrip(t *testing.T) {
	before := State{"user_id": "u1", "url": "https://a", "name_attempts": 1}
	after := State{"user_id": "u1", "intent": "DOC_PROCESS", "name_attempts": 2}

	st := before.Clone()
	Apply(st, Diff(before, after))
	assert.Empty(t, Diff(after, st))
}

func TestMemoryStoreGetOrCreate(t *testing.T) {
	store := NewMemoryStore()

	id, st, err := store.GetOrCreate("")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Empty(t, st)

	again, _, err := store.GetOrCreate(id)
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestMemoryStoreApplyAndGet(t *testing.T) {
	store := NewMemoryStore()

	require.NoError(t, store.Apply("sess-1", map[string]any{"user_id": "u1", "intent": "DOC_PROCESS"}))
	require.NoError(t, store.Apply("sess-1", map[string]any{"intent": nil}))

	st, err := store.Get("sess-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", st["user_id"])
	assert.NotContains(t, st, "intent")
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Apply("sess-1", map[string]any{"user_id": "u1"}))

	st, err := store.Get("sess-1")
	require.NoError(t, err)
	st["user_id"] = "tampered"

	fresh, err := store.Get("sess-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", fresh["user_id"])
}

func TestMemoryStoreUnknownSession(t *testing.T) {
	store := NewMemoryStore()

	st, err := store.Get("nonexistent")
	require.NoError(t, err)
	assert.Empty(t, st)
}
