package container

import (
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/val3riia/languagemirror-bot/adapters/excel"
	"github.com/val3riia/languagemirror-bot/adapters/llm"
	"github.com/val3riia/languagemirror-bot/adapters/postgres"
	"github.com/val3riia/languagemirror-bot/adapters/telegram"
	"github.com/val3riia/languagemirror-bot/internal/api"
	"github.com/val3riia/languagemirror-bot/internal/bot"
	"github.com/val3riia/languagemirror-bot/internal/config"
	"github.com/val3riia/languagemirror-bot/internal/feedback"
	"github.com/val3riia/languagemirror-bot/internal/report"
	"github.com/val3riia/languagemirror-bot/internal/session"
	"github.com/val3riia/languagemirror-bot/internal/usage"
	"github.com/val3riia/languagemirror-bot/ports"
)

// Container wires the application's services. With a database handle
// the repositories are PostgreSQL-backed; without one everything runs
// in memory, which loses state on restart but needs no infrastructure.
type Container struct {
	Config *config.Config

	Users    ports.UserRepository
	Sessions ports.SessionStore
	Feedback ports.FeedbackRepository
	Usage    ports.UsageRepository

	Limiter   *usage.Limiter
	Collector *feedback.Collector
	Reports   *report.Generator
	Engine    *bot.Engine
	Handler   *bot.Handler

	Telegram *telegram.Client
	API      *api.Server
}

// New builds the full dependency graph. db may be nil for in-memory mode.
func New(cfg *config.Config, db *sqlx.DB) *Container {
	c := &Container{Config: cfg}

	if db != nil {
		log.Printf("[Container] Using PostgreSQL repositories")
		c.Users = postgres.NewUserRepository(db)
		c.Feedback = postgres.NewFeedbackRepository(db)
		c.Usage = postgres.NewUsageRepository(db)
		memStore := session.NewMemoryStore(cfg.Limits.SessionTimeout)
		c.Sessions = session.NewPersistentStore(memStore, postgres.NewSessionRepository(db))
	} else {
		log.Printf("[Container] No DATABASE_URL set, using in-memory repositories")
		c.Users = NewMemoryUserRepository()
		c.Feedback = feedback.NewMemoryRepository()
		c.Usage = usage.NewMemoryRepository()
		c.Sessions = session.NewMemoryStore(cfg.Limits.SessionTimeout)
	}

	var completions ports.LLMClient
	if cfg.AI.APIKey == "" {
		log.Printf("[Container] WARNING: no OPENROUTER_API_KEY set, conversations use fallback replies only")
		completions = llm.UnavailableClient{}
	} else {
		client, err := llm.NewOpenRouterClient(cfg.AI)
		if err != nil {
			log.Printf("[Container] WARNING: completion client init failed (%v), using fallback replies", err)
			completions = llm.UnavailableClient{}
		} else {
			completions = client
		}
	}

	c.Telegram = telegram.NewClient(cfg.Telegram.Token)
	c.Limiter = usage.NewLimiter(c.Usage, cfg.Limits.MaxDailyDiscussions, cfg.IsAdmin)
	c.Collector = feedback.NewCollector(c.Feedback, c.Users, cfg.Limits.MinFeedbackWords, c.Limiter.GrantBonus)
	c.Reports = report.NewGenerator(c.Feedback)
	c.Engine = bot.NewEngine(c.Sessions, completions, cfg.AI.MaxConcurrent, cfg.Limits.HistoryWindow)
	c.Handler = bot.NewHandler(c.Users, c.Sessions, c.Engine, c.Limiter, c.Collector, c.Reports, c.Telegram, cfg.IsAdmin)

	var webhook *telegram.WebhookHandler
	if cfg.Telegram.Mode == config.ModeWebhook {
		webhook = telegram.NewWebhookHandler(c.Handler)
	}
	writer := excel.NewReportWriter(cfg.Reports.Dir)
	if webhook != nil {
		c.API = api.NewServer(c.Feedback, c.Reports, writer, webhook)
	} else {
		c.API = api.NewServer(c.Feedback, c.Reports, writer, nil)
	}

	return c
}
