// Package session owns the authenticated session: the upstream bearer token
// and the cached user snapshot, persisted together behind an opaque gateway
// token. Storage and the remote API are injected so the service tests without
// a browser or a live backend.
package session

import (
	"time"

	"github.com/google/uuid"

	"healthgate/internal/upstream"
)

// Record is one stored session. The upstream token and the user snapshot
// live in the same record so they are always committed and cleared together.
type Record struct {
	ID            uuid.UUID
	UpstreamToken string
	User          upstream.User
	ExpiresAt     time.Time
	CreatedAt     time.Time
	UserAgent     string
	IPAddress     string
}

// Expired reports whether the gateway session has outlived its TTL.
func (r Record) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
