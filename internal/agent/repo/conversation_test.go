package repo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getTestClient connects to a local Redis, skipping when none is reachable.
func getTestClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       15, // separate DB for tests
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}
	return client
}

func TestConversationRoundTrip(t *testing.T) {
	client := getTestClient(t)
	defer client.Close()

	ctx := context.Background()
	r := NewRedisConversationRepository(client, time.Hour)
	conversationID := "test-conversation-roundtrip"

	require.NoError(t, r.ClearHistory(ctx, conversationID))
	defer r.ClearHistory(ctx, conversationID)

	require.NoError(t, r.AddMessage(ctx, conversationID, schema.UserMessage("hello")))
	require.NoError(t, r.AddMessage(ctx, conversationID, schema.AssistantMessage("hi, how can I help?", nil)))

	history, err := r.LoadHistory(ctx, conversationID)
	require.NoError(t, err)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, schema.User, history.Messages[0].Role)
	assert.Equal(t, "hello", history.Messages[0].Content)
	assert.Equal(t, schema.Assistant, history.Messages[1].Role)

	n, err := r.GetMessageCount(ctx, conversationID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestConversationClearHistory(t *testing.T) {
	client := getTestClient(t)
	defer client.Close()

	ctx := context.Background()
	r := NewRedisConversationRepository(client, time.Hour)
	conversationID := "test-conversation-clear"

	require.NoError(t, r.AddMessage(ctx, conversationID, schema.UserMessage("hello")))
	require.NoError(t, r.ClearHistory(ctx, conversationID))

	history, err := r.LoadHistory(ctx, conversationID)
	require.NoError(t, err)
	assert.Empty(t, history.Messages)

	n, err := r.GetMessageCount(ctx, conversationID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestConversationHistoryTTL(t *testing.T) {
	client := getTestClient(t)
	defer client.Close()

	ctx := context.Background()
	r := NewRedisConversationRepository(client, time.Hour)
	conversationID := "test-conversation-ttl"

	require.NoError(t, r.ClearHistory(ctx, conversationID))
	defer r.ClearHistory(ctx, conversationID)

	require.NoError(t, r.AddMessage(ctx, conversationID, schema.UserMessage("hello")))

	ttl, err := client.TTL(ctx, r.historyKey(conversationID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestLoadHistoryEmptyConversation(t *testing.T) {
	client := getTestClient(t)
	defer client.Close()

	ctx := context.Background()
	r := NewRedisConversationRepository(client, time.Hour)

	history, err := r.LoadHistory(ctx, "never-seen-conversation")
	require.NoError(t, err)
	assert.Empty(t, history.Messages)
}
