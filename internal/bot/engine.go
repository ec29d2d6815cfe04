package bot

import (
	"context"
	"log"

	"golang.org/x/sync/semaphore"

	"github.com/val3riia/languagemirror-bot/domain/conversation"
	"github.com/val3riia/languagemirror-bot/domain/level"
	"github.com/val3riia/languagemirror-bot/internal/errors"
	"github.com/val3riia/languagemirror-bot/models"
	"github.com/val3riia/languagemirror-bot/ports"
)

// BotReply is one assistant turn produced by the engine.
type BotReply struct {
	Text string
	// Fallback marks replies produced locally because the completion
	// service was unavailable or rate limited.
	Fallback bool
}

// Engine produces assistant replies for active practice sessions. It
// prefers the completion service and degrades to deterministic
// level-aware replies when the service fails, so a conversation never
// dies mid-session.
type Engine struct {
	sessions      ports.SessionStore
	llm           ports.LLMClient
	sem           *semaphore.Weighted
	historyWindow int
}

// NewEngine creates a conversation engine. maxConcurrent bounds the
// number of in-flight completion calls across all users.
func NewEngine(sessions ports.SessionStore, llm ports.LLMClient, maxConcurrent int64, historyWindow int) *Engine {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Engine{
		sessions:      sessions,
		llm:           llm,
		sem:           semaphore.NewWeighted(maxConcurrent),
		historyWindow: historyWindow,
	}
}

// Reply records the user's turn and produces the assistant's reply.
// NO_ACTIVE_SESSION and SESSION_EXPIRED propagate to the caller so the
// handler can prompt the user to start a new discussion. Completion
// failures do not: they select the fallback path instead.
func (e *Engine) Reply(ctx context.Context, telegramID int64, userText string) (*BotReply, error) {
	session, err := e.sessions.AppendTurn(ctx, telegramID, models.RoleUser, userText)
	if err != nil {
		return nil, err
	}

	text, usedFallback := e.complete(ctx, session, userText)

	if _, err := e.sessions.AppendTurn(ctx, telegramID, models.RoleAssistant, text); err != nil {
		// The session expired between the two appends. The reply is
		// still worth delivering; only the transcript loses the turn.
		log.Printf("[Engine] Failed to record assistant turn for user %d: %v", telegramID, err)
	}

	return &BotReply{Text: text, Fallback: usedFallback}, nil
}

// complete calls the completion service, falling back to a local reply
// on UPSTREAM_UNAVAILABLE or RATE_LIMITED.
func (e *Engine) complete(ctx context.Context, session *models.Session, userText string) (string, bool) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		log.Printf("[Engine] Completion slot unavailable for user %d: %v", session.TelegramID, err)
		return e.fallback(session.Level, userText), true
	}
	defer e.sem.Release(1)

	cfg := level.Configure(session.Level)
	reply, err := e.llm.ChatCompletion(ctx, cfg.SystemInstruction, session.History(e.historyWindow))
	if err != nil {
		code := errors.GetCode(err)
		if code == errors.CodeRateLimited {
			log.Printf("[Engine] Completion rate limited for user %d, using fallback", session.TelegramID)
		} else {
			log.Printf("[Engine] Completion failed for user %d (%s): %v", session.TelegramID, code, err)
		}
		return e.fallback(session.Level, userText), true
	}
	return reply, false
}

// fallback builds the deterministic reply, prefixed with a casual
// grammar correction when one of the known patterns matches.
func (e *Engine) fallback(lvl models.LanguageLevel, userText string) string {
	reply := conversation.Fallback(lvl, userText)
	if fix := conversation.Correction(lvl, userText); fix != "" {
		reply = fix + " " + reply
	}
	return reply
}
