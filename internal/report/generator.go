package report

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/montanaflynn/stats"

	"github.com/val3riia/languagemirror-bot/internal/errors"
	"github.com/val3riia/languagemirror-bot/models"
	"github.com/val3riia/languagemirror-bot/ports"
)

// Report is the tabular feedback export: raw rows ordered by timestamp
// ascending plus aggregate counts.
type Report struct {
	Rows            []*models.FeedbackRecord
	Counts          map[models.Rating]int
	Total           int
	FlaggedCount    int
	MeanWordCount   float64
	MedianWordCount float64
	GeneratedAt     time.Time
	From, To        *time.Time
}

// Generator builds feedback reports from the append-only log.
type Generator struct {
	repo ports.FeedbackRepository
}

// NewGenerator creates a report generator.
func NewGenerator(repo ports.FeedbackRepository) *Generator {
	return &Generator{repo: repo}
}

// Export reads feedback within [from, to) and aggregates it. Storage
// read failures propagate as STORAGE_UNAVAILABLE.
func (g *Generator) Export(ctx context.Context, from, to *time.Time) (*Report, error) {
	rows, err := g.repo.List(ctx, from, to)
	if err != nil {
		return nil, errors.StorageUnavailable(err)
	}

	rep := &Report{
		Rows:        rows,
		Counts:      make(map[models.Rating]int),
		Total:       len(rows),
		GeneratedAt: time.Now(),
		From:        from,
		To:          to,
	}

	var wordCounts []float64
	for _, rec := range rows {
		rep.Counts[rec.Rating]++
		if rec.Flagged {
			rep.FlaggedCount++
		}
		if rec.Comment != "" {
			wordCounts = append(wordCounts, float64(rec.CommentWordCount()))
		}
	}
	if len(wordCounts) > 0 {
		if mean, err := stats.Mean(wordCounts); err == nil {
			rep.MeanWordCount = mean
		}
		if median, err := stats.Median(wordCounts); err == nil {
			rep.MedianWordCount = median
		}
	}

	log.Printf("[ReportGenerator] Exported %d feedback rows (%d helpful, %d okay, %d not helpful)",
		rep.Total, rep.Counts[models.RatingHelpful], rep.Counts[models.RatingOkay], rep.Counts[models.RatingNotHelpful])
	return rep, nil
}

// SummaryMarkdown renders the aggregate section used for the admin
// chat reply and the admin HTML page.
func (r *Report) SummaryMarkdown() string {
	var b strings.Builder
	b.WriteString("# Feedback Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", r.GeneratedAt.Format("02.01.2006 15:04"))

	if r.Total == 0 {
		b.WriteString("No feedback recorded yet.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Total responses: **%d**\n\n", r.Total)
	for _, rating := range models.Ratings() {
		count := r.Counts[rating]
		pct := float64(count) / float64(r.Total) * 100
		fmt.Fprintf(&b, "- %s: %d (%.0f%%)\n", rating.Display(), count, pct)
	}
	if r.FlaggedCount > 0 {
		fmt.Fprintf(&b, "\nFlagged short comments: %d\n", r.FlaggedCount)
	}
	if r.MeanWordCount > 0 {
		fmt.Fprintf(&b, "\nAverage comment length: %.1f words (median %.0f)\n", r.MeanWordCount, r.MedianWordCount)
	}

	// Most recent comments, newest last to match row ordering.
	var commented []*models.FeedbackRecord
	for _, rec := range r.Rows {
		if rec.Comment != "" {
			commented = append(commented, rec)
		}
	}
	if len(commented) > 0 {
		b.WriteString("\n## Recent comments\n\n")
		start := 0
		if len(commented) > 5 {
			start = len(commented) - 5
		}
		for _, rec := range commented[start:] {
			fmt.Fprintf(&b, "- %s (%s): %s\n", rec.Username, rec.Rating.Display(), rec.Comment)
		}
	}
	return b.String()
}

// SummaryHTML renders the markdown summary as an HTML page body.
func (r *Report) SummaryHTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(r.SummaryMarkdown()), p, renderer)
}

// SummaryText is the plain-text variant for chat replies, which do not
// render markdown headings well.
func (r *Report) SummaryText() string {
	text := r.SummaryMarkdown()
	text = strings.ReplaceAll(text, "## ", "")
	text = strings.ReplaceAll(text, "# ", "")
	text = strings.ReplaceAll(text, "**", "")
	return text
}
