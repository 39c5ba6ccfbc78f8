package model

import "context"

// Responder produces a reply for an inbound end-user message. The webhook
// layer treats it as an opaque, potentially slow operation.
type Responder interface {
	Respond(ctx context.Context, conversationID string, query string) (string, error)
}
