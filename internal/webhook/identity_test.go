package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveKeyDeterministic(t *testing.T) {
	payload := map[string]any{"contactId": "user42"}

	first := DeriveKey("wh1", payload)
	second := DeriveKey("wh1", payload)

	assert.Equal(t, "wh1_user42", first)
	assert.Equal(t, first, second)
}

func TestDeriveKeyPrecedence(t *testing.T) {
	// when several candidate fields are present, the higher-precedence
	// field must always win
	tests := []struct {
		name    string
		payload map[string]any
		want    string
	}{
		{
			name: "contactId beats everything",
			payload: map[string]any{
				"contactId":     "c1",
				"user_id":       "u1",
				"subscriber_id": "s1",
				"From":          "f1",
				"from":          "f2",
			},
			want: "wh1_c1",
		},
		{
			name: "user_id beats subscriber_id and From",
			payload: map[string]any{
				"user_id":       "u1",
				"subscriber_id": "s1",
				"From":          "f1",
			},
			want: "wh1_u1",
		},
		{
			name:    "subscriber_id beats From",
			payload: map[string]any{"subscriber_id": "s1", "From": "f1", "from": "f2"},
			want:    "wh1_s1",
		},
		{
			name:    "From beats from",
			payload: map[string]any{"From": "f1", "from": "f2"},
			want:    "wh1_f1",
		},
		{
			name:    "from alone",
			payload: map[string]any{"from": "f2"},
			want:    "wh1_f2",
		},
		{
			name:    "empty higher-precedence field falls through",
			payload: map[string]any{"contactId": "  ", "user_id": "u1"},
			want:    "wh1_u1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveKey("wh1", tt.payload))
		})
	}
}

func TestDeriveKeyAnonymousFallback(t *testing.T) {
	assert.Equal(t, "wh1_anonymous", DeriveKey("wh1", map[string]any{}))
	assert.Equal(t, "wh1_anonymous", DeriveKey("wh1", map[string]any{"unrelated": "x"}))
	assert.Equal(t, "wh1_anonymous", DeriveKey("wh1", nil))
}

func TestDeriveKeyNumericIdentifier(t *testing.T) {
	// JSON numbers decode as float64
	assert.Equal(t, "wh1_123456", DeriveKey("wh1", map[string]any{"contactId": float64(123456)}))
	assert.Equal(t, "wh1_anonymous", DeriveKey("wh1", map[string]any{"contactId": true}))
}
