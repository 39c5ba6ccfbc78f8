// Package slot implements the pending-response handoff between the inbound
// message webhook and the external platform's fetchresponse poll. A slot is
// one AI reply parked under a correlation key until the platform collects it.
package slot

import (
	"context"
	"time"
)

// DefaultTTL bounds how long an uncollected reply may linger. Abandoned
// conversations self-clean; no reaper process is needed.
const DefaultTTL = 10 * time.Minute

// Store is the shared contract of both backends.
//
// Put and Get never surface backend failures: a store outage degrades to
// "reply dropped" on write and "still processing" on read, because the
// webhook cycle must answer the platform no matter what.
type Store interface {
	// Put parks value under key with the store's TTL. Last write wins.
	Put(ctx context.Context, key, value string)

	// Get returns the value for key and removes it in the same call
	// (consume-once). The second return is false when no value is held,
	// which is the normal state while a reply is still being generated.
	Get(ctx context.Context, key string) (string, bool)

	// PendingKeys lists currently held keys. Diagnostics only; liveness
	// and ordering are not guaranteed under concurrent mutation.
	PendingKeys(ctx context.Context) []string
}
