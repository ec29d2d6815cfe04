package bot

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/val3riia/languagemirror-bot/adapters/llm"
	"github.com/val3riia/languagemirror-bot/internal/errors"
	"github.com/val3riia/languagemirror-bot/internal/session"
	"github.com/val3riia/languagemirror-bot/models"
)

func newTestEngine(t *testing.T, client *llm.MockLLMClient) (*Engine, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore(30 * time.Minute)
	return NewEngine(store, client, 4, 20), store
}

func TestReplyUsesCompletionService(t *testing.T) {
	client := &llm.MockLLMClient{Response: "Tell me more about your trip!"}
	engine, store := newTestEngine(t, client)
	ctx := context.Background()

	_, err := store.Start(ctx, 42, models.LevelB1)
	require.NoError(t, err)

	reply, err := engine.Reply(ctx, 42, "I visited Lisbon last week")
	require.NoError(t, err)
	assert.Equal(t, "Tell me more about your trip!", reply.Text)
	assert.False(t, reply.Fallback)
	assert.Equal(t, 1, client.Calls)

	sess, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 2, sess.MessageCount, "both turns recorded")
	assert.Equal(t, models.RoleAssistant, sess.Messages[1].Role)
}

func TestReplyWithoutSession(t *testing.T) {
	engine, _ := newTestEngine(t, &llm.MockLLMClient{})

	_, err := engine.Reply(context.Background(), 42, "hello?")
	require.Error(t, err)
	assert.Equal(t, errors.CodeNoActiveSession, errors.GetCode(err))
}

func TestReplyFallsBackWhenUpstreamFails(t *testing.T) {
	client := &llm.MockLLMClient{Error: errors.UpstreamUnavailable(fmt.Errorf("connection refused"))}
	engine, store := newTestEngine(t, client)
	ctx := context.Background()

	_, err := store.Start(ctx, 42, models.LevelB1)
	require.NoError(t, err)

	reply, err := engine.Reply(ctx, 42, "I like reading science fiction")
	require.NoError(t, err, "completion failures never surface to the user")
	assert.True(t, reply.Fallback)
	assert.NotEmpty(t, reply.Text)
}

func TestReplyFallsBackWhenRateLimited(t *testing.T) {
	client := &llm.MockLLMClient{Error: errors.RateLimited(fmt.Errorf("429"))}
	engine, store := newTestEngine(t, client)
	ctx := context.Background()

	_, err := store.Start(ctx, 42, models.LevelA2)
	require.NoError(t, err)

	reply, err := engine.Reply(ctx, 42, "hello")
	require.NoError(t, err)
	assert.True(t, reply.Fallback)
}

func TestFallbackIncludesCorrection(t *testing.T) {
	client := &llm.MockLLMClient{Error: errors.UpstreamUnavailable(fmt.Errorf("down"))}
	engine, store := newTestEngine(t, client)
	ctx := context.Background()

	_, err := store.Start(ctx, 42, models.LevelB1)
	require.NoError(t, err)

	reply, err := engine.Reply(ctx, 42, "Yesterday I goed to school")
	require.NoError(t, err)
	assert.True(t, reply.Fallback)
	assert.Contains(t, reply.Text, "'I went'", "fallback still corrects known mistakes")
}

func TestFallbackIsDeterministicPerInput(t *testing.T) {
	client := &llm.MockLLMClient{Error: errors.UpstreamUnavailable(fmt.Errorf("down"))}
	engine, store := newTestEngine(t, client)
	ctx := context.Background()

	_, err := store.Start(ctx, 1, models.LevelB2)
	require.NoError(t, err)
	_, err = store.Start(ctx, 2, models.LevelB2)
	require.NoError(t, err)

	first, err := engine.Reply(ctx, 1, "I enjoy cooking pasta")
	require.NoError(t, err)
	second, err := engine.Reply(ctx, 2, "I enjoy cooking pasta")
	require.NoError(t, err)
	assert.Equal(t, first.Text, second.Text)
}

func TestReplyRecordsFallbackTurn(t *testing.T) {
	client := &llm.MockLLMClient{Error: errors.UpstreamUnavailable(fmt.Errorf("down"))}
	engine, store := newTestEngine(t, client)
	ctx := context.Background()

	_, err := store.Start(ctx, 42, models.LevelB1)
	require.NoError(t, err)

	reply, err := engine.Reply(ctx, 42, "my day was long")
	require.NoError(t, err)

	sess, err := store.Get(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, 2, sess.MessageCount)
	assert.Equal(t, reply.Text, sess.Messages[1].Content, "fallback turns land in the transcript too")
}
