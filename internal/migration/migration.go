package migration

import (
	"log"

	"github.com/jmoiron/sqlx"
)

// statements run in order on every startup. All DDL is idempotent so
// re-running against an existing database is safe.
var statements = []struct {
	name string
	sql  string
}{
	{
		name: "create_users",
		sql: `CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			telegram_id BIGINT NOT NULL UNIQUE,
			username TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			language_level TEXT NOT NULL DEFAULT '',
			feedback_bonus_used BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_activity TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	},
	{
		name: "create_sessions",
		sql: `CREATE TABLE IF NOT EXISTS sessions (
			id UUID PRIMARY KEY,
			telegram_id BIGINT NOT NULL,
			language_level TEXT NOT NULL,
			topic TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT 'active',
			messages_count INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMPTZ NOT NULL,
			last_active TIMESTAMPTZ NOT NULL,
			ended_at TIMESTAMPTZ
		)`,
	},
	{
		name: "create_sessions_telegram_id_idx",
		sql:  `CREATE INDEX IF NOT EXISTS idx_sessions_telegram_id ON sessions (telegram_id)`,
	},
	{
		name: "create_messages",
		sql: `CREATE TABLE IF NOT EXISTS messages (
			id BIGSERIAL PRIMARY KEY,
			session_id UUID NOT NULL REFERENCES sessions (id),
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL
		)`,
	},
	{
		name: "create_messages_session_id_idx",
		sql:  `CREATE INDEX IF NOT EXISTS idx_messages_session_id ON messages (session_id)`,
	},
	{
		name: "create_feedback",
		sql: `CREATE TABLE IF NOT EXISTS feedback (
			id UUID PRIMARY KEY,
			telegram_id BIGINT NOT NULL,
			username TEXT NOT NULL DEFAULT '',
			rating TEXT NOT NULL,
			comment TEXT NOT NULL DEFAULT '',
			flagged BOOLEAN NOT NULL DEFAULT FALSE,
			timestamp TIMESTAMPTZ NOT NULL
		)`,
	},
	{
		name: "create_feedback_timestamp_idx",
		sql:  `CREATE INDEX IF NOT EXISTS idx_feedback_timestamp ON feedback (timestamp)`,
	},
	{
		name: "create_daily_usage",
		sql: `CREATE TABLE IF NOT EXISTS daily_usage (
			telegram_id BIGINT NOT NULL,
			day TEXT NOT NULL,
			discussion_count INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (telegram_id, day)
		)`,
	},
}

// Run applies all migrations in order.
func Run(db *sqlx.DB) error {
	log.Printf("[Migration] Running %d migrations", len(statements))
	for _, m := range statements {
		if _, err := db.Exec(m.sql); err != nil {
			log.Printf("[Migration] FAILED %s: %v", m.name, err)
			return err
		}
		log.Printf("[Migration] Applied %s", m.name)
	}
	log.Printf("[Migration] All migrations complete")
	return nil
}
