package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

const maxPayloadBytes = 1 << 20

var errUnsupportedPayload = errors.New("unsupported payload")

// messageFields is the precedence for the inbound message text, mirroring
// the identifier precedence in identity.go.
var messageFields = []string{"text", "message", "query"}

// parsePayload extracts the webhook body into a flat map. Senders deliver
// JSON, form-encoded bodies, or GET polls with query parameters only; an
// unknown or missing content-type is attempted as JSON. A body that parses
// as none of these yields errUnsupportedPayload, which handlers answer with
// a structured body rather than an HTTP error.
func parsePayload(r *http.Request) (map[string]any, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.Contains(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return nil, errUnsupportedPayload
		}
		payload := make(map[string]any, len(r.Form))
		for field, values := range r.Form {
			if len(values) > 0 {
				payload[field] = values[0]
			}
		}
		return payload, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		return nil, errUnsupportedPayload
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		// GET polls carry identifiers as query parameters, not a body
		payload := make(map[string]any, len(r.URL.Query()))
		for field, values := range r.URL.Query() {
			if len(values) > 0 {
				payload[field] = values[0]
			}
		}
		return payload, nil
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errUnsupportedPayload
	}
	return payload, nil
}

// messageText pulls the end-user message out of an inbound payload.
func messageText(payload map[string]any) string {
	for _, field := range messageFields {
		if v, ok := payload[field]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
