package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"linkscout/internal/store"
	logx "linkscout/pkg/logx"
)

// Runner executes one full analysis for a schedule: every channel,
// flattened into report rows, written as an artifact and announced to
// the recipient.
type Runner struct {
	store    store.Store
	analyzer *Analyzer
	reports  ReportWriter
	notifier Notifier
	log      logx.Logger

	now func() time.Time
}

func NewRunner(st store.Store, analyzer *Analyzer, reports ReportWriter, notifier Notifier, log logx.Logger) *Runner {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Runner{
		store:    st,
		analyzer: analyzer,
		reports:  reports,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Run analyzes every channel of the identified schedule.
//
// A missing or inactive schedule is a logged no-op. A run that finds
// zero links is a successful no-op: no artifact, no notification. The
// returned error exists for the trigger loop's log line only; callers
// must never let it take the scheduler down.
func (r *Runner) Run(ctx context.Context, scheduleID string) error {
	log := r.log.With(logx.String("schedule", scheduleID))
	started := r.now()

	sch, err := r.store.Get(ctx, scheduleID)
	if errors.Is(err, store.ErrNotFound) {
		log.Info("schedule missing, skipping run")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}
	if !sch.Active {
		log.Info("schedule inactive, skipping run")
		return nil
	}

	var rows []ReportRow
	for _, channel := range sch.Channels {
		title, stats := r.analyzer.Channel(ctx, channel, sch.LookbackMonths, sch.APIKey)
		if title == "" || len(stats) == 0 {
			continue
		}
		rows = append(rows, flatten(title, stats)...)
	}

	if len(rows) == 0 {
		log.Info("run finished with no links, skipping report", logx.Duration("took", time.Since(started)))
		return nil
	}

	path, err := r.reports.Write(ctx, sch.ID, rows, r.now())
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	log.Info("report written", logx.String("path", path), logx.Int("rows", len(rows)))

	err = r.notifier.Notify(ctx, Notification{
		Recipient:    sch.Email,
		ScheduleName: sch.Name,
		ArtifactPath: path,
		RowCount:     len(rows),
	})
	if err != nil {
		// The artifact is already on disk; a failed delivery does not
		// undo the run.
		log.Warn("notification failed", logx.Err(err))
	}

	log.Info("run finished", logx.Int("rows", len(rows)), logx.Duration("took", time.Since(started)))
	return nil
}

// flatten turns one channel's stat map into report rows, ordered by
// link for stable artifacts.
func flatten(channelTitle string, stats map[string]*LinkStat) []ReportRow {
	links := make([]string, 0, len(stats))
	for link := range stats {
		links = append(links, link)
	}
	sort.Strings(links)

	rows := make([]ReportRow, 0, len(links))
	for _, link := range links {
		st := stats[link]
		rows = append(rows, ReportRow{
			Channel: channelTitle,
			Link:    st.Link,
			Count:   st.Count,
			Videos:  strings.Join(st.VideoIDs, ","),
			Titles:  strings.Join(st.Titles, " | "),
			Dates:   strings.Join(st.Dates, " | "),
		})
	}
	return rows
}
