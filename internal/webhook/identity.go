package webhook

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// AnonymousSender is the sentinel sender ID used when a payload carries no
// recognized identifier. Distinct unidentifiable senders collide on it; the
// degenerate case is accepted over failing the request.
const AnonymousSender = "anonymous"

// identifierFields is the fixed precedence for extracting the end-user ID
// from an inbound payload. Field names differ per integration (CRM contact,
// chat subscriber, SMS sender). Order is the tie-break when a payload
// carries several candidates; changing it changes correlation keys.
var identifierFields = []string{
	"contactId",
	"user_id",
	"subscriber_id",
	"From",
	"from",
}

// DeriveKey builds the correlation key linking a reply to the poll that
// collects it. It must produce the same key on the inbound message and on
// every fetchresponse poll of the same conversation turn.
func DeriveKey(webhookID string, payload map[string]any) string {
	return webhookID + "_" + senderID(payload)
}

func senderID(payload map[string]any) string {
	for _, field := range identifierFields {
		v, ok := payload[field]
		if !ok {
			continue
		}
		if s := stringifyID(v); s != "" {
			return s
		}
	}
	return AnonymousSender
}

// stringifyID normalises the identifier value; senders deliver both strings
// and bare JSON numbers.
func stringifyID(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}
