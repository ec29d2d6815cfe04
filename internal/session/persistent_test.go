package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/val3riia/languagemirror-bot/models"
)

type recordingRepo struct {
	created  int
	appended []models.ChatMessage
	closed   int
	fail     bool
}

func (r *recordingRepo) CreateSession(ctx context.Context, session *models.Session) error {
	if r.fail {
		return fmt.Errorf("db down")
	}
	r.created++
	return nil
}

func (r *recordingRepo) AppendMessage(ctx context.Context, session *models.Session, msg models.ChatMessage) error {
	if r.fail {
		return fmt.Errorf("db down")
	}
	r.appended = append(r.appended, msg)
	return nil
}

func (r *recordingRepo) CloseSession(ctx context.Context, session *models.Session) error {
	if r.fail {
		return fmt.Errorf("db down")
	}
	r.closed++
	return nil
}

func TestPersistentStoreWritesThrough(t *testing.T) {
	repo := &recordingRepo{}
	store := NewPersistentStore(NewMemoryStore(30*time.Minute), repo)
	ctx := context.Background()

	_, err := store.Start(ctx, 42, models.LevelB1)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.created)

	_, err = store.AppendTurn(ctx, 42, models.RoleUser, "hello")
	require.NoError(t, err)
	require.Len(t, repo.appended, 1)
	assert.Equal(t, "hello", repo.appended[0].Content)

	_, err = store.End(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.closed)
}

func TestPersistentStoreSurvivesStorageFailure(t *testing.T) {
	repo := &recordingRepo{fail: true}
	store := NewPersistentStore(NewMemoryStore(30*time.Minute), repo)
	ctx := context.Background()

	_, err := store.Start(ctx, 42, models.LevelB1)
	require.NoError(t, err, "chat continues when the database is down")

	sess, err := store.AppendTurn(ctx, 42, models.RoleUser, "hello")
	require.NoError(t, err)
	assert.Equal(t, 1, sess.MessageCount)

	_, err = store.End(ctx, 42)
	assert.NoError(t, err)
}

func TestPersistentStorePropagatesSessionErrors(t *testing.T) {
	repo := &recordingRepo{}
	store := NewPersistentStore(NewMemoryStore(30*time.Minute), repo)

	_, err := store.AppendTurn(context.Background(), 42, models.RoleUser, "hello")
	assert.Error(t, err)
	assert.Zero(t, len(repo.appended))
}
