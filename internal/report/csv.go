// Package report writes the per-run CSV artifact.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"linkscout/internal/analysis"
)

var header = []string{"channel", "link", "count", "videos", "titles", "dates"}

// Writer persists report rows under Dir. Filenames are qualified by
// schedule id and timestamp, so concurrent runs never collide.
type Writer struct {
	Dir string
}

func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "./reports"
	}
	return &Writer{Dir: dir}
}

// Write creates Dir if needed and writes one CSV per run:
// report_{scheduleID}_{YYYYMMDD_HHMMSS}.csv. Returns the file path.
func (w *Writer) Write(ctx context.Context, scheduleID string, rows []analysis.ReportRow, at time.Time) (string, error) {
	_ = ctx
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}

	name := fmt.Sprintf("report_%s_%s.csv", scheduleID, at.Format("20060102_150405"))
	path := filepath.Join(w.Dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		_ = f.Close()
		return "", err
	}
	for _, r := range rows {
		rec := []string{r.Channel, r.Link, strconv.Itoa(r.Count), r.Videos, r.Titles, r.Dates}
		if err := cw.Write(rec); err != nil {
			_ = f.Close()
			return "", err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
