// internal/app/system/limits/limits.go
package limits

import "time"

// Request body size limits.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBody is the maximum size of a household API request body.
	MaxJSONBody = 16 << 10 // 16 KB
)

// Invite acceptance limits. Invite tokens are bearer secrets, so repeated
// guesses are throttled per actor and per client IP.
const (
	InviteAcceptPerActor    = 10
	InviteAcceptActorWindow = 5 * time.Minute
	InviteAcceptPerIP       = 30
	InviteAcceptIPWindow    = time.Minute
)
