package gate

import (
	"strings"
	"time"
)

const (
	// DefaultSecret is the key sequence that reveals the credential prompt.
	DefaultSecret = ")&("
	// DefaultWindow is the longest gap allowed between two keys of a sequence.
	DefaultWindow = 2 * time.Second

	maxBufferedKeys = 32
)

// SequenceMatcher detects a trailing key sequence typed without pauses.
// It is not safe for concurrent use.
type SequenceMatcher struct {
	secret string
	window time.Duration
	keys   []string
	last   time.Time
}

// NewSequenceMatcher returns a matcher for secret. Empty secret or
// non-positive window fall back to the defaults.
func NewSequenceMatcher(secret string, window time.Duration) *SequenceMatcher {
	if secret == "" {
		secret = DefaultSecret
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &SequenceMatcher{secret: secret, window: window}
}

// Feed records key pressed at at and reports whether the buffered keys now
// end with the secret. A gap longer than the window discards earlier keys.
// The buffer is cleared after a match.
func (m *SequenceMatcher) Feed(key string, at time.Time) bool {
	if !m.last.IsZero() && at.Sub(m.last) > m.window {
		m.keys = m.keys[:0]
	}
	m.last = at

	m.keys = append(m.keys, key)
	if len(m.keys) > maxBufferedKeys {
		m.keys = append(m.keys[:0], m.keys[len(m.keys)-maxBufferedKeys:]...)
	}

	if strings.HasSuffix(strings.Join(m.keys, ""), m.secret) {
		m.Reset()
		return true
	}
	return false
}

// Reset clears the buffered keys.
func (m *SequenceMatcher) Reset() {
	m.keys = m.keys[:0]
	m.last = time.Time{}
}
