package excel

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/val3riia/languagemirror-bot/internal/report"
	"github.com/val3riia/languagemirror-bot/models"
)

const feedbackSheet = "Feedback"

var feedbackHeaders = []string{"ID", "User", "Telegram ID", "Rating", "Comment", "Flagged", "Date"}

// ReportWriter renders feedback reports to XLSX files.
type ReportWriter struct {
	dir string
}

// NewReportWriter creates a writer that saves reports under dir.
func NewReportWriter(dir string) *ReportWriter {
	return &ReportWriter{dir: dir}
}

// Write saves the report as a timestamped XLSX file and returns its path.
func (w *ReportWriter) Write(rep *report.Report) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create reports dir: %w", err)
	}
	filename := fmt.Sprintf("feedback_report_%s.xlsx", time.Now().Format("20060102_150405"))
	path := filepath.Join(w.dir, filename)

	if err := w.writeFile(path, rep); err != nil {
		return "", err
	}
	log.Printf("[ReportWriter] Wrote %d feedback rows to %s", len(rep.Rows), path)
	return path, nil
}

func (w *ReportWriter) writeFile(path string, rep *report.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(feedbackSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9EAD3"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	widths := make([]int, len(feedbackHeaders))
	for i, h := range feedbackHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(feedbackSheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(feedbackSheet, cell, cell, headerStyle); err != nil {
			return err
		}
		widths[i] = len(h)
	}

	for r, rec := range rep.Rows {
		values := []interface{}{
			rec.ID.String(),
			rec.Username,
			rec.TelegramID,
			rec.Rating.Display(),
			rec.Comment,
			rec.Flagged,
			rec.Timestamp.Format("02.01.2006 15:04"),
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(feedbackSheet, cell, v); err != nil {
				return err
			}
			if n := len(fmt.Sprint(v)); n > widths[c] {
				widths[c] = n
			}
		}
	}

	// Aggregate block two rows below the table.
	aggRow := len(rep.Rows) + 3
	cell, _ := excelize.CoordinatesToCellName(1, aggRow)
	if err := f.SetCellValue(feedbackSheet, cell, "Totals"); err != nil {
		return err
	}
	for i, rating := range models.Ratings() {
		labelCell, _ := excelize.CoordinatesToCellName(1, aggRow+1+i)
		countCell, _ := excelize.CoordinatesToCellName(2, aggRow+1+i)
		if err := f.SetCellValue(feedbackSheet, labelCell, rating.Display()); err != nil {
			return err
		}
		if err := f.SetCellValue(feedbackSheet, countCell, rep.Counts[rating]); err != nil {
			return err
		}
	}

	// Auto column width with a small padding.
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(feedbackSheet, col, col, float64(width+2)); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}
