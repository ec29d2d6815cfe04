package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/val3riia/languagemirror-bot/adapters/llm"
	"github.com/val3riia/languagemirror-bot/adapters/telegram"
	"github.com/val3riia/languagemirror-bot/internal/errors"
	"github.com/val3riia/languagemirror-bot/internal/feedback"
	"github.com/val3riia/languagemirror-bot/internal/report"
	"github.com/val3riia/languagemirror-bot/internal/session"
	"github.com/val3riia/languagemirror-bot/internal/usage"
	"github.com/val3riia/languagemirror-bot/models"
	"github.com/val3riia/languagemirror-bot/ports"
)

// recorderMessenger captures outbound messages for assertions.
type recorderMessenger struct {
	mu       sync.Mutex
	texts    []string
	keyboard [][]ports.Button
	typing   int
	answered []string
}

func (m *recorderMessenger) SendText(ctx context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	return nil
}

func (m *recorderMessenger) SendButtons(ctx context.Context, chatID int64, text string, rows [][]ports.Button) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	m.keyboard = rows
	return nil
}

func (m *recorderMessenger) EditText(ctx context.Context, chatID int64, messageID int64, text string) error {
	return nil
}

func (m *recorderMessenger) AnswerCallback(ctx context.Context, callbackID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answered = append(m.answered, callbackID)
	return nil
}

func (m *recorderMessenger) SendTyping(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typing++
	return nil
}

func (m *recorderMessenger) lastText(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.texts, "expected at least one outbound message")
	return m.texts[len(m.texts)-1]
}

// memUserRepo is a map-backed user repository for handler tests.
type memUserRepo struct {
	mu    sync.Mutex
	users map[int64]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[int64]*models.User)}
}

func (r *memUserRepo) GetOrCreate(ctx context.Context, telegramID int64, username, firstName, lastName string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[telegramID]; ok {
		cp := *u
		return &cp, nil
	}
	u := &models.User{ID: uuid.New(), TelegramID: telegramID, Username: username, FirstName: firstName, LastName: lastName, CreatedAt: time.Now()}
	r.users[telegramID] = u
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) UpdateLanguageLevel(ctx context.Context, telegramID int64, level models.LanguageLevel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[telegramID]; ok {
		u.LanguageLevel = level
	}
	return nil
}

func (r *memUserRepo) MarkFeedbackBonusUsed(ctx context.Context, telegramID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[telegramID]; ok {
		u.FeedbackBonusUsed = true
	}
	return nil
}

type harness struct {
	handler   *Handler
	messenger *recorderMessenger
	store     *session.MemoryStore
	users     *memUserRepo
	feedback  *feedback.MemoryRepository
	limiter   *usage.Limiter
}

func newHarness(t *testing.T, maxDaily int, client ports.LLMClient, adminID int64) *harness {
	t.Helper()
	messenger := &recorderMessenger{}
	users := newMemUserRepo()
	store := session.NewMemoryStore(30 * time.Minute)
	fbRepo := feedback.NewMemoryRepository()
	isAdmin := func(id int64) bool { return adminID != 0 && id == adminID }
	limiter := usage.NewLimiter(usage.NewMemoryRepository(), maxDaily, isAdmin)
	collector := feedback.NewCollector(fbRepo, users, 3, limiter.GrantBonus)
	reports := report.NewGenerator(fbRepo)
	engine := NewEngine(store, client, 4, 20)
	handler := NewHandler(users, store, engine, limiter, collector, reports, messenger, isAdmin)
	return &harness{handler: handler, messenger: messenger, store: store, users: users, feedback: fbRepo, limiter: limiter}
}

func msgUpdate(userID int64, text string) telegram.Update {
	return telegram.Update{
		Message: &telegram.Message{
			From: &telegram.TgUser{ID: userID, Username: "val", FirstName: "Valeriia"},
			Chat: telegram.Chat{ID: userID},
			Text: text,
		},
	}
}

func callbackUpdate(userID int64, data string) telegram.Update {
	return telegram.Update{
		CallbackQuery: &telegram.CallbackQuery{
			ID:      "cb-1",
			From:    telegram.TgUser{ID: userID, Username: "val", FirstName: "Valeriia"},
			Message: &telegram.Message{Chat: telegram.Chat{ID: userID}},
			Data:    data,
		},
	}
}

func setLevel(t *testing.T, h *harness, userID int64, lvl models.LanguageLevel) {
	t.Helper()
	h.handler.HandleUpdate(context.Background(), callbackUpdate(userID, "level_"+string(lvl)))
	u, err := h.users.GetOrCreate(context.Background(), userID, "val", "Valeriia", "")
	require.NoError(t, err)
	require.Equal(t, lvl, u.LanguageLevel)
}

func TestStartShowsLevelKeyboard(t *testing.T) {
	h := newHarness(t, 5, &llm.MockLLMClient{}, 0)

	h.handler.HandleUpdate(context.Background(), msgUpdate(42, "/start"))

	assert.Contains(t, h.messenger.lastText(t), "English level")
	require.Len(t, h.messenger.keyboard, 6, "one row per CEFR level")
	assert.Equal(t, "level_A1", h.messenger.keyboard[0][0].Data)
	assert.Equal(t, "level_C2", h.messenger.keyboard[5][0].Data)
}

func TestLevelCallbackStoresLevel(t *testing.T) {
	h := newHarness(t, 5, &llm.MockLLMClient{}, 0)

	setLevel(t, h, 42, models.LevelB1)
	assert.Contains(t, h.messenger.lastText(t), "B1")
	assert.Equal(t, []string{"cb-1"}, h.messenger.answered)
}

func TestDiscussionRequiresLevel(t *testing.T) {
	h := newHarness(t, 5, &llm.MockLLMClient{}, 0)

	h.handler.HandleUpdate(context.Background(), msgUpdate(42, "/discussion"))

	assert.Contains(t, h.messenger.lastText(t), "level")
	assert.Len(t, h.messenger.keyboard, 6)
	_, err := h.store.Get(context.Background(), 42)
	assert.Error(t, err, "no session starts without a level")
}

func TestDiscussionStartsSessionWithTopic(t *testing.T) {
	h := newHarness(t, 5, &llm.MockLLMClient{}, 0)
	setLevel(t, h, 42, models.LevelB1)

	h.handler.HandleUpdate(context.Background(), msgUpdate(42, "/discussion"))

	assert.Contains(t, h.messenger.lastText(t), "Let's talk")
	sess, err := h.store.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, models.LevelB1, sess.Level)
}

func TestDiscussionWhileActive(t *testing.T) {
	h := newHarness(t, 5, &llm.MockLLMClient{}, 0)
	setLevel(t, h, 42, models.LevelB1)
	ctx := context.Background()

	h.handler.HandleUpdate(ctx, msgUpdate(42, "/discussion"))
	h.handler.HandleUpdate(ctx, msgUpdate(42, "/discussion"))

	assert.Contains(t, h.messenger.lastText(t), "already")
}

func TestDailyCapBlocksDiscussion(t *testing.T) {
	h := newHarness(t, 2, &llm.MockLLMClient{}, 0)
	setLevel(t, h, 42, models.LevelB1)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		h.handler.HandleUpdate(ctx, msgUpdate(42, "/discussion"))
		h.handler.HandleUpdate(ctx, msgUpdate(42, "/stop_discussion"))
	}

	h.handler.HandleUpdate(ctx, msgUpdate(42, "/discussion"))
	last := h.messenger.lastText(t)
	assert.Contains(t, last, "tomorrow")
	assert.Contains(t, last, "feedback", "cap message advertises the comment bonus")
	_, err := h.store.Get(ctx, 42)
	assert.Error(t, err)
}

func TestAdminExemptFromDailyCap(t *testing.T) {
	h := newHarness(t, 1, &llm.MockLLMClient{}, 99)
	setLevel(t, h, 99, models.LevelC1)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		h.handler.HandleUpdate(ctx, msgUpdate(99, "/discussion"))
		h.handler.HandleUpdate(ctx, msgUpdate(99, "/stop_discussion"))
	}

	h.handler.HandleUpdate(ctx, msgUpdate(99, "/discussion"))
	assert.Contains(t, h.messenger.lastText(t), "Let's talk")
}

func TestFreeTextConversation(t *testing.T) {
	client := &llm.MockLLMClient{Response: "Lisbon sounds lovely! What did you see there?"}
	h := newHarness(t, 5, client, 0)
	setLevel(t, h, 42, models.LevelB1)
	ctx := context.Background()

	h.handler.HandleUpdate(ctx, msgUpdate(42, "/discussion"))
	h.handler.HandleUpdate(ctx, msgUpdate(42, "I visited Lisbon last week"))

	assert.Equal(t, "Lisbon sounds lovely! What did you see there?", h.messenger.lastText(t))
	assert.Equal(t, 1, h.messenger.typing, "typing action precedes the reply")
}

func TestFreeTextWithoutSession(t *testing.T) {
	h := newHarness(t, 5, &llm.MockLLMClient{}, 0)

	h.handler.HandleUpdate(context.Background(), msgUpdate(42, "just chatting"))

	assert.Contains(t, h.messenger.lastText(t), "/discussion")
}

func TestFreeTextOnExpiredSession(t *testing.T) {
	h := newHarness(t, 5, &llm.MockLLMClient{}, 0)
	setLevel(t, h, 42, models.LevelB1)
	ctx := context.Background()

	h.handler.HandleUpdate(ctx, msgUpdate(42, "/discussion"))

	now := time.Now()
	h.store.SetNowFunc(func() time.Time { return now.Add(time.Hour) })

	h.handler.HandleUpdate(ctx, msgUpdate(42, "are you there?"))
	assert.Contains(t, h.messenger.lastText(t), "timed out")
}

func TestFallbackConversationWithCorrection(t *testing.T) {
	client := &llm.MockLLMClient{Error: errors.UpstreamUnavailable(fmt.Errorf("down"))}
	h := newHarness(t, 5, client, 0)
	setLevel(t, h, 42, models.LevelB1)
	ctx := context.Background()

	h.handler.HandleUpdate(ctx, msgUpdate(42, "/discussion"))
	h.handler.HandleUpdate(ctx, msgUpdate(42, "Yesterday I goed to school"))

	assert.Contains(t, h.messenger.lastText(t), "'I went'")
}

func TestStopDiscussionAsksForFeedback(t *testing.T) {
	h := newHarness(t, 5, &llm.MockLLMClient{}, 0)
	setLevel(t, h, 42, models.LevelB1)
	ctx := context.Background()

	h.handler.HandleUpdate(ctx, msgUpdate(42, "/discussion"))
	h.handler.HandleUpdate(ctx, msgUpdate(42, "hello there"))
	h.handler.HandleUpdate(ctx, msgUpdate(42, "/stop_discussion"))

	assert.Contains(t, h.messenger.lastText(t), "How was our conversation?")
	require.Len(t, h.messenger.keyboard, 1)
	require.Len(t, h.messenger.keyboard[0], 3)
	assert.Equal(t, "feedback_helpful", h.messenger.keyboard[0][0].Data)
	assert.Equal(t, "feedback_not_helpful", h.messenger.keyboard[0][2].Data)
}

func TestStopWithoutSession(t *testing.T) {
	h := newHarness(t, 5, &llm.MockLLMClient{}, 0)

	h.handler.HandleUpdate(context.Background(), msgUpdate(42, "/stop_discussion"))

	assert.Contains(t, h.messenger.lastText(t), "no discussion")
}

func TestFeedbackFlowWithCommentGrantsBonus(t *testing.T) {
	h := newHarness(t, 1, &llm.MockLLMClient{}, 0)
	setLevel(t, h, 42, models.LevelB1)
	ctx := context.Background()

	h.handler.HandleUpdate(ctx, msgUpdate(42, "/discussion"))
	h.handler.HandleUpdate(ctx, msgUpdate(42, "/stop_discussion"))
	h.handler.HandleUpdate(ctx, callbackUpdate(42, "feedback_helpful"))
	assert.Contains(t, h.messenger.lastText(t), "comment")

	h.handler.HandleUpdate(ctx, msgUpdate(42, "the corrections really helped me"))
	assert.Contains(t, h.messenger.lastText(t), "extra discussion")

	records, err := h.feedback.List(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.RatingHelpful, records[0].Rating)
	assert.Equal(t, "the corrections really helped me", records[0].Comment)
	assert.False(t, records[0].Flagged)

	// The bonus slot allows one more discussion past the cap of 1.
	h.handler.HandleUpdate(ctx, msgUpdate(42, "/discussion"))
	assert.Contains(t, h.messenger.lastText(t), "Let's talk")
}

func TestFeedbackSkipRecordsWithoutComment(t *testing.T) {
	h := newHarness(t, 5, &llm.MockLLMClient{}, 0)
	setLevel(t, h, 42, models.LevelB1)
	ctx := context.Background()

	h.handler.HandleUpdate(ctx, msgUpdate(42, "/discussion"))
	h.handler.HandleUpdate(ctx, msgUpdate(42, "/stop_discussion"))
	h.handler.HandleUpdate(ctx, callbackUpdate(42, "feedback_okay"))
	h.handler.HandleUpdate(ctx, msgUpdate(42, "/skip"))

	records, err := h.feedback.List(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.RatingOkay, records[0].Rating)
	assert.Empty(t, records[0].Comment)
}

func TestSkipSuggestsNewTopic(t *testing.T) {
	h := newHarness(t, 5, &llm.MockLLMClient{}, 0)
	setLevel(t, h, 42, models.LevelB1)
	ctx := context.Background()

	h.handler.HandleUpdate(ctx, msgUpdate(42, "/discussion"))
	h.handler.HandleUpdate(ctx, msgUpdate(42, "/skip"))

	assert.Contains(t, h.messenger.lastText(t), "switch it up")
}

func TestAdminFeedbackDeniedForRegularUser(t *testing.T) {
	h := newHarness(t, 5, &llm.MockLLMClient{}, 99)

	h.handler.HandleUpdate(context.Background(), msgUpdate(42, "/admin_feedback"))

	last := h.messenger.lastText(t)
	assert.Contains(t, last, "don't know that command", "denial is indistinguishable from an unknown command")
	assert.False(t, strings.Contains(last, "Feedback Report"))
}

func TestAdminFeedbackSummary(t *testing.T) {
	h := newHarness(t, 5, &llm.MockLLMClient{}, 99)
	ctx := context.Background()

	require.NoError(t, h.feedback.Append(ctx, &models.FeedbackRecord{
		ID: uuid.New(), TelegramID: 1, Username: "anna",
		Rating: models.RatingHelpful, Comment: "loved the topics", Timestamp: time.Now(),
	}))

	h.handler.HandleUpdate(ctx, msgUpdate(99, "/admin_feedback"))

	last := h.messenger.lastText(t)
	assert.Contains(t, last, "Total responses: 1")
	assert.Contains(t, last, "loved the topics")
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t, 5, &llm.MockLLMClient{}, 0)

	h.handler.HandleUpdate(context.Background(), msgUpdate(42, "/help"))

	assert.Contains(t, h.messenger.lastText(t), "don't know that command")
}

func TestBotMessagesIgnored(t *testing.T) {
	h := newHarness(t, 5, &llm.MockLLMClient{}, 0)

	h.handler.HandleUpdate(context.Background(), telegram.Update{
		Message: &telegram.Message{
			From: &telegram.TgUser{ID: 7, IsBot: true},
			Chat: telegram.Chat{ID: 7},
			Text: "/start",
		},
	})

	assert.Empty(t, h.messenger.texts)
}

func TestCommandWithBotSuffix(t *testing.T) {
	h := newHarness(t, 5, &llm.MockLLMClient{}, 0)

	h.handler.HandleUpdate(context.Background(), msgUpdate(42, "/start@LanguageMirrorBot"))

	assert.Contains(t, h.messenger.lastText(t), "English level")
}
