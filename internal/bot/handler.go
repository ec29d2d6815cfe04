package bot

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/val3riia/languagemirror-bot/adapters/telegram"
	"github.com/val3riia/languagemirror-bot/domain/level"
	"github.com/val3riia/languagemirror-bot/internal/errors"
	"github.com/val3riia/languagemirror-bot/internal/feedback"
	"github.com/val3riia/languagemirror-bot/internal/report"
	"github.com/val3riia/languagemirror-bot/internal/usage"
	"github.com/val3riia/languagemirror-bot/models"
	"github.com/val3riia/languagemirror-bot/ports"
)

const (
	levelCallbackPrefix    = "level_"
	feedbackCallbackPrefix = "feedback_"

	// A rating waits this long for its optional comment before the
	// next free-text message is treated as conversation again.
	pendingFeedbackTTL = 10 * time.Minute
)

// pendingFeedback is a rating waiting for its optional comment.
type pendingFeedback struct {
	rating  models.Rating
	askedAt time.Time
}

// Handler routes Telegram updates to the session, conversation,
// feedback and reporting services. One instance serves all users.
type Handler struct {
	users     ports.UserRepository
	sessions  ports.SessionStore
	engine    *Engine
	limiter   *usage.Limiter
	collector *feedback.Collector
	reports   *report.Generator
	messenger ports.Messenger
	isAdmin   func(int64) bool

	mu      sync.Mutex
	pending map[int64]pendingFeedback
	rng     *rand.Rand
}

// NewHandler wires the update router.
func NewHandler(
	users ports.UserRepository,
	sessions ports.SessionStore,
	engine *Engine,
	limiter *usage.Limiter,
	collector *feedback.Collector,
	reports *report.Generator,
	messenger ports.Messenger,
	isAdmin func(int64) bool,
) *Handler {
	return &Handler{
		users:     users,
		sessions:  sessions,
		engine:    engine,
		limiter:   limiter,
		collector: collector,
		reports:   reports,
		messenger: messenger,
		isAdmin:   isAdmin,
		pending:   make(map[int64]pendingFeedback),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// HandleUpdate dispatches one inbound update. Errors never escape:
// every failure turns into a chat message or a log line.
func (h *Handler) HandleUpdate(ctx context.Context, upd telegram.Update) {
	switch {
	case upd.CallbackQuery != nil:
		h.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil && upd.Message.From != nil && !upd.Message.From.IsBot:
		h.handleMessage(ctx, upd.Message)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *telegram.Message) {
	user, err := h.users.GetOrCreate(ctx, msg.From.ID, msg.From.Username, msg.From.FirstName, msg.From.LastName)
	if err != nil {
		log.Printf("[BotHandler] Failed to load user %d: %v", msg.From.ID, err)
		h.send(ctx, msg.Chat.ID, "Something went wrong on my side. Please try again in a moment.")
		return
	}

	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "/") {
		h.handleCommand(ctx, msg.Chat.ID, user, text)
		return
	}
	h.handleFreeText(ctx, msg.Chat.ID, user, text)
}

func (h *Handler) handleCommand(ctx context.Context, chatID int64, user *models.User, text string) {
	cmd := strings.Fields(text)[0]
	// Commands in groups arrive as /cmd@BotName.
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}

	switch cmd {
	case "/start":
		h.cmdStart(ctx, chatID, user)
	case "/discussion":
		h.cmdDiscussion(ctx, chatID, user)
	case "/stop_discussion":
		h.cmdStop(ctx, chatID, user)
	case "/skip":
		h.cmdSkip(ctx, chatID, user)
	case "/admin_feedback":
		h.cmdAdminFeedback(ctx, chatID, user)
	default:
		h.send(ctx, chatID, "I don't know that command. Try /discussion to start practicing, or /stop_discussion to finish.")
	}
}

func (h *Handler) cmdStart(ctx context.Context, chatID int64, user *models.User) {
	greeting := fmt.Sprintf(
		"Hey %s! I'm your English practice buddy. We can chat about anything you like, and I'll casually help with your vocabulary along the way.\n\nFirst, what's your English level?",
		user.DisplayName(),
	)
	h.sendLevelKeyboard(ctx, chatID, greeting)
}

func (h *Handler) cmdDiscussion(ctx context.Context, chatID int64, user *models.User) {
	if user.LanguageLevel == "" {
		h.sendLevelKeyboard(ctx, chatID, "Before we start, tell me your English level so I can match my vocabulary to yours.")
		return
	}

	if err := h.limiter.Reserve(ctx, user); err != nil {
		if errors.HasCode(err, errors.CodeDailyLimitReached) {
			reply := "You've used all your discussions for today. Come back tomorrow!"
			if !user.FeedbackBonusUsed {
				reply += " Tip: leave feedback with a comment after a session and you'll get one extra discussion."
			}
			h.send(ctx, chatID, reply)
			return
		}
		log.Printf("[BotHandler] Failed to reserve discussion for user %d: %v", user.TelegramID, err)
		h.send(ctx, chatID, "I couldn't start a discussion right now. Please try again in a moment.")
		return
	}

	session, err := h.sessions.Start(ctx, user.TelegramID, user.LanguageLevel)
	if err != nil {
		if errors.HasCode(err, errors.CodeAlreadyActive) {
			h.send(ctx, chatID, "We're already in the middle of a discussion. Send /stop_discussion first if you want a fresh start.")
		} else {
			log.Printf("[BotHandler] Failed to start session for user %d: %v", user.TelegramID, err)
			h.send(ctx, chatID, "I couldn't start a discussion right now. Please try again in a moment.")
		}
		// The reserved slot goes back when the session never started.
		if bErr := h.limiter.Refund(ctx, user.TelegramID); bErr != nil {
			log.Printf("[BotHandler] Failed to refund slot for user %d: %v", user.TelegramID, bErr)
		}
		return
	}

	topic := h.suggestTopic(session.Level)
	log.Printf("[BotHandler] Started %s session %s for user %d", session.Level, session.ID, user.TelegramID)
	h.send(ctx, chatID, fmt.Sprintf(
		"Let's talk! Here's an idea to get us going:\n\n%s\n\nOr bring up anything else you'd like. Send /skip for a different topic, /stop_discussion when you're done.",
		topic,
	))
}

func (h *Handler) cmdStop(ctx context.Context, chatID int64, user *models.User) {
	session, err := h.sessions.End(ctx, user.TelegramID)
	if err != nil {
		if errors.HasCode(err, errors.CodeNoActiveSession) {
			h.send(ctx, chatID, "There's no discussion going on right now. Send /discussion to start one.")
		} else {
			log.Printf("[BotHandler] Failed to end session for user %d: %v", user.TelegramID, err)
			h.send(ctx, chatID, "Something went wrong while wrapping up. Please try again.")
		}
		return
	}

	duration := session.LastActive.Sub(session.StartedAt).Round(time.Minute)
	summary := fmt.Sprintf("Nice work! We exchanged %d messages over %s.", session.MessageCount, durationText(duration))
	h.send(ctx, chatID, summary)

	rows := [][]ports.Button{{
		{Text: models.RatingHelpful.Display(), Data: feedbackCallbackPrefix + string(models.RatingHelpful)},
		{Text: models.RatingOkay.Display(), Data: feedbackCallbackPrefix + string(models.RatingOkay)},
		{Text: models.RatingNotHelpful.Display(), Data: feedbackCallbackPrefix + string(models.RatingNotHelpful)},
	}}
	if err := h.messenger.SendButtons(ctx, chatID, "How was our conversation?", rows); err != nil {
		log.Printf("[BotHandler] Failed to send feedback keyboard to chat %d: %v", chatID, err)
	}
}

func (h *Handler) cmdSkip(ctx context.Context, chatID int64, user *models.User) {
	// A pending rating means /skip declines the optional comment.
	if rating, ok := h.takePending(user.TelegramID); ok {
		h.finalizeFeedback(ctx, chatID, user, rating, "")
		return
	}

	session, err := h.sessions.Get(ctx, user.TelegramID)
	if err != nil {
		h.send(ctx, chatID, "There's no discussion going on right now. Send /discussion to start one.")
		return
	}
	h.send(ctx, chatID, fmt.Sprintf("Sure, let's switch it up:\n\n%s", h.suggestTopic(session.Level)))
}

func (h *Handler) cmdAdminFeedback(ctx context.Context, chatID int64, user *models.User) {
	if h.isAdmin == nil || !h.isAdmin(user.TelegramID) {
		log.Printf("[BotHandler] User %d denied /admin_feedback", user.TelegramID)
		h.send(ctx, chatID, "I don't know that command. Try /discussion to start practicing, or /stop_discussion to finish.")
		return
	}

	rep, err := h.reports.Export(ctx, nil, nil)
	if err != nil {
		log.Printf("[BotHandler] Failed to build feedback report: %v", err)
		h.send(ctx, chatID, "Couldn't build the feedback report right now.")
		return
	}
	h.send(ctx, chatID, rep.SummaryText())
}

func (h *Handler) handleFreeText(ctx context.Context, chatID int64, user *models.User, text string) {
	if text == "" {
		return
	}

	if rating, ok := h.takePending(user.TelegramID); ok {
		h.finalizeFeedback(ctx, chatID, user, rating, text)
		return
	}

	if err := h.messenger.SendTyping(ctx, chatID); err != nil {
		log.Printf("[BotHandler] Failed to send typing action to chat %d: %v", chatID, err)
	}

	reply, err := h.engine.Reply(ctx, user.TelegramID, text)
	if err != nil {
		switch errors.GetCode(err) {
		case errors.CodeNoActiveSession:
			h.send(ctx, chatID, "We're not in a discussion right now. Send /discussion and let's talk!")
		case errors.CodeSessionExpired:
			h.send(ctx, chatID, "Our last discussion timed out while you were away. Send /discussion to start a fresh one!")
		default:
			log.Printf("[BotHandler] Reply failed for user %d: %v", user.TelegramID, err)
			h.send(ctx, chatID, "Sorry, I lost my train of thought. Could you say that again?")
		}
		return
	}

	if reply.Fallback {
		log.Printf("[BotHandler] Served fallback reply to user %d", user.TelegramID)
	}
	h.send(ctx, chatID, reply.Text)
}

func (h *Handler) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	if err := h.messenger.AnswerCallback(ctx, cb.ID); err != nil {
		log.Printf("[BotHandler] Failed to answer callback %s: %v", cb.ID, err)
	}
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	user, err := h.users.GetOrCreate(ctx, cb.From.ID, cb.From.Username, cb.From.FirstName, cb.From.LastName)
	if err != nil {
		log.Printf("[BotHandler] Failed to load user %d: %v", cb.From.ID, err)
		return
	}

	switch {
	case strings.HasPrefix(cb.Data, levelCallbackPrefix):
		h.callbackLevel(ctx, chatID, user, strings.TrimPrefix(cb.Data, levelCallbackPrefix))
	case strings.HasPrefix(cb.Data, feedbackCallbackPrefix):
		h.callbackFeedback(ctx, chatID, cb.Message.MessageID, user, strings.TrimPrefix(cb.Data, feedbackCallbackPrefix))
	default:
		log.Printf("[BotHandler] Unknown callback data %q from user %d", cb.Data, user.TelegramID)
	}
}

func (h *Handler) callbackLevel(ctx context.Context, chatID int64, user *models.User, raw string) {
	lvl := models.LanguageLevel(raw)
	cfg := level.Configure(lvl)
	if cfg.NeedsClarification {
		h.sendLevelKeyboard(ctx, chatID, "Hmm, that level didn't look right. Pick one from the keyboard:")
		return
	}

	if err := h.users.UpdateLanguageLevel(ctx, user.TelegramID, lvl); err != nil {
		log.Printf("[BotHandler] Failed to store level for user %d: %v", user.TelegramID, err)
		h.send(ctx, chatID, "I couldn't save that. Please pick your level again.")
		return
	}
	user.LanguageLevel = lvl

	log.Printf("[BotHandler] User %d set level %s", user.TelegramID, lvl)
	h.send(ctx, chatID, fmt.Sprintf(
		"Got it, %s it is! Send /discussion whenever you're ready to practice.",
		lvl,
	))
}

func (h *Handler) callbackFeedback(ctx context.Context, chatID int64, messageID int64, user *models.User, raw string) {
	rating := models.Rating(raw)
	if err := rating.Validate(); err != nil {
		log.Printf("[BotHandler] Invalid feedback rating %q from user %d", raw, user.TelegramID)
		return
	}

	// Replace the keyboard message so the chosen rating stays visible
	// and the buttons cannot be pressed twice.
	if err := h.messenger.EditText(ctx, chatID, messageID, "How was our conversation? "+rating.Display()); err != nil {
		log.Printf("[BotHandler] Failed to edit feedback prompt in chat %d: %v", chatID, err)
	}

	h.setPending(user.TelegramID, rating)
	prompt := "Thanks! Want to add a short comment about what worked or didn't? Send it now, or /skip to finish."
	if !user.FeedbackBonusUsed {
		prompt += " A comment earns you one extra discussion today."
	}
	h.send(ctx, chatID, prompt)
}

// finalizeFeedback records the rating with its optional comment and
// acknowledges, mentioning the bonus when this comment earned it.
func (h *Handler) finalizeFeedback(ctx context.Context, chatID int64, user *models.User, rating models.Rating, comment string) {
	hadBonus := user.FeedbackBonusUsed
	rec, err := h.collector.Record(ctx, user, rating, comment)
	if err != nil {
		log.Printf("[BotHandler] Failed to record feedback from user %d: %v", user.TelegramID, err)
		h.send(ctx, chatID, "I couldn't save your feedback, sorry. It's still appreciated!")
		return
	}

	reply := "Thanks for the feedback! See you next time."
	if !hadBonus && user.FeedbackBonusUsed {
		reply = "Thanks for the detailed feedback! I've added one extra discussion to your day."
	} else if rec.Flagged {
		reply = "Thanks! Next time a few more words would help me improve, but every bit counts."
	}
	h.send(ctx, chatID, reply)
}

func (h *Handler) sendLevelKeyboard(ctx context.Context, chatID int64, text string) {
	var rows [][]ports.Button
	for _, l := range models.Levels() {
		rows = append(rows, []ports.Button{{
			Text: fmt.Sprintf("%s - %s", l, l.Description()),
			Data: levelCallbackPrefix + string(l),
		}})
	}
	if err := h.messenger.SendButtons(ctx, chatID, text, rows); err != nil {
		log.Printf("[BotHandler] Failed to send level keyboard to chat %d: %v", chatID, err)
	}
}

func (h *Handler) send(ctx context.Context, chatID int64, text string) {
	if err := h.messenger.SendText(ctx, chatID, text); err != nil {
		log.Printf("[BotHandler] Failed to send message to chat %d: %v", chatID, err)
	}
}

func (h *Handler) suggestTopic(lvl models.LanguageLevel) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return level.SuggestTopic(lvl, h.rng)
}

func (h *Handler) setPending(telegramID int64, rating models.Rating) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending[telegramID] = pendingFeedback{rating: rating, askedAt: time.Now()}
}

// takePending removes and returns the user's awaiting rating, if any.
// Stale entries past the TTL are dropped silently.
func (h *Handler) takePending(telegramID int64) (models.Rating, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.pending[telegramID]
	if !ok {
		return "", false
	}
	delete(h.pending, telegramID)
	if time.Since(p.askedAt) > pendingFeedbackTTL {
		return "", false
	}
	return p.rating, true
}

func durationText(d time.Duration) string {
	if d < time.Minute {
		return "less than a minute"
	}
	mins := int(d.Minutes())
	if mins == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", mins)
}
