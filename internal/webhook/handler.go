package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/convobridge/server/internal/agent/model"
	"github.com/convobridge/server/internal/slot"
	logx "github.com/convobridge/server/pkg/logger"
)

const (
	StatusCompleted  = "completed"
	StatusProcessing = "processing"
	StatusError      = "error"
)

const (
	ackText     = "Message received"
	pendingText = "I'm still working on your request, please check back in a moment."
	apologyText = "Sorry, something went wrong while preparing a reply. Please try again."

	// respondTimeout caps the async completion; a turn that exceeds it is
	// surfaced to the user as the apology reply.
	respondTimeout = 60 * time.Second
)

// PollResponse is the envelope for every webhook answer. The external
// platform keys its retry behavior off the body, so the HTTP status is
// always 200 and errors live in the fields below.
type PollResponse struct {
	Text     string `json:"text"`
	Success  bool   `json:"success"`
	Status   string `json:"status"`
	Response string `json:"response,omitempty"`
	Pending  bool   `json:"pending,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Handler serves the inbound message webhook (producer side) and the
// platform's fetchresponse poll (consumer side).
type Handler struct {
	store     slot.Store
	responder model.Responder

	// retryWait is the single bounded in-request retry of the consumer
	// path, absorbing the race where the reply lands just after the first
	// lookup. Zero disables it; the in-process deployment runs without it.
	retryWait time.Duration
}

func NewHandler(store slot.Store, responder model.Responder, retryWait time.Duration) *Handler {
	return &Handler{
		store:     store,
		responder: responder,
		retryWait: retryWait,
	}
}

// Routes builds the HTTP surface of the service.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/healthz", h.healthz)
	r.Route("/webhook/{channel}/{webhookID}", func(wr chi.Router) {
		wr.Post("/", h.handleInbound)
		wr.Post("/fetchresponse", h.handleFetchResponse)
		// compatibility alias: some integrations poll with GET
		wr.Get("/fetchresponse", h.handleFetchResponse)
	})
	return r
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleInbound accepts an end-user message, acks immediately, and kicks off
// reply generation in the background. The reply is parked in the slot store
// for the platform's later fetchresponse poll; the two HTTP cycles are only
// connected through the correlation key.
func (h *Handler) handleInbound(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "channel")
	webhookID := chi.URLParam(r, "webhookID")

	payload, err := parsePayload(r)
	if err != nil {
		logx.Warn().Err(err).Str("channel", channel).Str("webhookID", webhookID).Msg("unparseable inbound payload")
		writeJSON(w, PollResponse{Success: false, Status: StatusError, Error: "unsupported payload"})
		return
	}

	key := DeriveKey(webhookID, payload)
	query := messageText(payload)
	if query == "" {
		logx.Warn().Str("key", key).Msg("inbound payload carries no message text")
		writeJSON(w, PollResponse{Success: false, Status: StatusError, Error: "missing message text"})
		return
	}

	logx.Info().Str("channel", channel).Str("key", key).Msg("inbound message accepted")

	// The webhook response cannot wait on the model; the platform collects
	// the reply through its own poll. Detach from the request context so
	// generation survives this handler returning.
	go h.produce(key, query)

	writeJSON(w, PollResponse{Text: ackText, Success: true, Status: StatusProcessing, Pending: true})
}

// produce resolves the AI reply and parks it under key. Exactly one Put per
// inbound message; failures are encoded as the apology text because the
// consumer path has no separate error signal.
func (h *Handler) produce(key, query string) {
	ctx, cancel := context.WithTimeout(context.Background(), respondTimeout)
	defer cancel()

	reply, err := h.responder.Respond(ctx, key, query)
	if err != nil || reply == "" {
		logx.Error().Err(err).Str("key", key).Msg("reply generation failed, storing apology")
		reply = apologyText
	}
	h.store.Put(ctx, key, reply)
}

// handleFetchResponse serves the platform's poll for a pending reply. A
// missing slot is the expected state while generation is in flight, so the
// answer is a soft "processing" body, never an HTTP error.
func (h *Handler) handleFetchResponse(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "channel")
	webhookID := chi.URLParam(r, "webhookID")

	payload, err := parsePayload(r)
	if err != nil {
		logx.Warn().Err(err).Str("channel", channel).Str("webhookID", webhookID).Msg("unparseable poll payload")
		writeJSON(w, PollResponse{Success: false, Status: StatusError, Error: "unsupported payload"})
		return
	}

	key := DeriveKey(webhookID, payload)

	text, ok := h.store.Get(r.Context(), key)
	if !ok && h.retryWait > 0 {
		// one bounded retry: the reply may land while the platform's poll
		// is already in flight, saving a full poll round-trip
		select {
		case <-time.After(h.retryWait):
			text, ok = h.store.Get(r.Context(), key)
		case <-r.Context().Done():
		}
	}

	if !ok {
		logx.Debug().
			Str("key", key).
			Strs("pendingKeys", h.store.PendingKeys(r.Context())).
			Msg("no reply ready for poll")
		writeJSON(w, PollResponse{Text: pendingText, Success: false, Status: StatusProcessing, Pending: true})
		return
	}

	logx.Info().Str("channel", channel).Str("key", key).Msg("reply delivered to poll")
	writeJSON(w, PollResponse{Text: text, Success: true, Status: StatusCompleted, Response: text})
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logx.Error().Err(err).Msg("failed to encode response body")
	}
}
