// Package tracking issues the external identifiers that follow a
// contribution through its whole lifecycle.
package tracking

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Prefix marks retex tracking IDs so they are recognizable in logs and
// support tickets.
const Prefix = "RTX-"

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a fresh tracking ID: the RTX prefix followed by a
// ULID. The ULID embeds a millisecond timestamp (so IDs sort by
// creation time for debugging) and 80 bits of crypto randomness (so
// IDs cannot be enumerated). Collisions are treated as effectively
// impossible, but callers must still confirm uniqueness against the
// store before relying on the ID as a lookup key.
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return Prefix + ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// IsValid reports whether s has the tracking ID shape.
func IsValid(s string) bool {
	if !strings.HasPrefix(s, Prefix) {
		return false
	}
	_, err := ulid.ParseStrict(strings.TrimPrefix(s, Prefix))
	return err == nil
}

// CreatedAt extracts the creation timestamp embedded in a tracking ID.
func CreatedAt(s string) (time.Time, bool) {
	id, err := ulid.ParseStrict(strings.TrimPrefix(s, Prefix))
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(id.Time())).UTC(), true
}
