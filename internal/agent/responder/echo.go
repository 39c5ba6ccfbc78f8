package responder

import (
	"context"
	"fmt"

	"github.com/convobridge/server/internal/agent/model"
)

// Echo answers with the inbound text. It stands in for the real model when
// no API key is configured, so the webhook round-trip still works locally.
type Echo struct{}

func (Echo) Respond(_ context.Context, _ string, query string) (string, error) {
	return fmt.Sprintf("You said: %s", query), nil
}

var _ model.Responder = Echo{}
