// Command report exports the feedback spreadsheet from the command
// line without going through the admin HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/val3riia/languagemirror-bot/adapters/excel"
	"github.com/val3riia/languagemirror-bot/adapters/postgres"
	"github.com/val3riia/languagemirror-bot/internal/report"
)

func main() {
	var (
		dir  = flag.String("dir", "reports", "output directory for the XLSX file")
		from = flag.String("from", "", "start of the time range (RFC 3339, inclusive)")
		to   = flag.String("to", "", "end of the time range (RFC 3339, exclusive)")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("[Report] No .env file found, using environment variables")
	}

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		log.Fatalf("[Report] DATABASE_URL is required")
	}

	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		log.Fatalf("[Report] Database connection failed: %v", err)
	}
	defer db.Close()

	fromT, err := parseTime(*from)
	if err != nil {
		log.Fatalf("[Report] Invalid -from: %v", err)
	}
	toT, err := parseTime(*to)
	if err != nil {
		log.Fatalf("[Report] Invalid -to: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	gen := report.NewGenerator(postgres.NewFeedbackRepository(db))
	rep, err := gen.Export(ctx, fromT, toT)
	if err != nil {
		log.Fatalf("[Report] Export failed: %v", err)
	}

	path, err := excel.NewReportWriter(*dir).Write(rep)
	if err != nil {
		log.Fatalf("[Report] Failed to write spreadsheet: %v", err)
	}

	fmt.Printf("Wrote %d feedback records to %s\n", rep.Total, path)
}

func parseTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
