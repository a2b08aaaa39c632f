// Package session holds the per-conversation state record and the
// delta protocol shared by every agent entry point: read the full
// state, work on a copy, diff against the original, and hand the
// caller only the changed keys.
package session

import "reflect"

// State keys written or read by the agent core.
const (
	KeyUserID       = "user_id"
	KeyUserName     = "user_name"
	KeyNameAttempts = "name_attempts"
	KeyIntent       = "intent"
	KeyURL          = "url"
	KeyURLType      = "url_type"
	KeyDomainID     = "domain_id"
)

// Intent values stored under KeyIntent for multi-turn flows.
const (
	IntentDocProcess      = "DOC_PROCESS"
	IntentDomainLifecycle = "DOMAIN_LIFECYCLE"
)

// State is a string-keyed session record. An absent key and a key set
// to nil are equivalent.
type State map[string]any

// Clone returns a shallow copy safe to mutate per turn.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// GetString returns the value under key if it is a non-empty string.
func (s State) GetString(key string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return ""
}

// GetInt returns the value under key as an int, tolerating the numeric
// types a JSON round trip through the session store can produce.
func (s State) GetInt(key string) int {
	switch v := s[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Set stores a value under key.
func (s State) Set(key string, value any) {
	s[key] = value
}

// Clear removes key from the state.
func (s State) Clear(key string) {
	delete(s, key)
}

// Diff computes the minimal delta transforming before into after.
// A key maps to nil when it was removed; unchanged keys never appear.
func Diff(before, after State) map[string]any {
	delta := make(map[string]any)
	seen := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		seen[k] = struct{}{}
	}
	for k := range after {
		seen[k] = struct{}{}
	}
	for k := range seen {
		if !equalValue(before[k], after[k]) {
			delta[k] = after[k]
		}
	}
	return delta
}

// Apply merges a delta into the state in place. A nil value deletes
// the key, mirroring Diff's removal encoding.
func Apply(s State, delta map[string]any) {
	for k, v := range delta {
		if v == nil {
			delete(s, k)
			continue
		}
		s[k] = v
	}
}

// equalValue compares state values, treating numerically equal values
// of different Go types as the same. Session stores that round-trip
// through JSON turn ints into float64; that must not produce deltas.
func equalValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
