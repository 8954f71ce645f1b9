// Package scheduler owns the mapping from schedule id to a live
// recurring trigger, plus one-shot "run now" executions.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"linkscout/internal/store"
	logx "linkscout/pkg/logx"
)

// RunFunc executes one analysis run for a schedule id. Errors are
// logged by the trigger loop and go nowhere else.
type RunFunc func(ctx context.Context, scheduleID string) error

// Scheduler maps schedule ids to cron entries. At most one recurring
// trigger exists per id (install replaces); one-shot executions are
// keyed independently and never disturb the recurring trigger.
type Scheduler struct {
	log logx.Logger
	run RunFunc

	mu      sync.Mutex
	c       *cron.Cron
	entries map[string]cron.EntryID

	runCtx    context.Context
	runCancel context.CancelFunc
	onceWG    sync.WaitGroup
}

// TriggerInfo describes one live recurring trigger.
type TriggerInfo struct {
	ScheduleID string
	Next       time.Time
	Prev       time.Time
}

func New(run RunFunc, log logx.Logger) *Scheduler {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Scheduler{
		log:     log,
		run:     run,
		c:       cron.New(),
		entries: map[string]cron.EntryID{},
	}
}

// Start begins firing triggers. ctx bounds every run started from here
// on; cancelling it is the only way to interrupt an in-flight run.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runCtx != nil {
		return
	}
	s.runCtx, s.runCancel = context.WithCancel(ctx)
	s.c.Start()
	s.log.Info("scheduler started", logx.Int("triggers", len(s.entries)))
}

// Stop halts trigger firing and waits for in-flight runs to drain,
// bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if s.runCtx == nil {
		s.mu.Unlock()
		return
	}
	cancel := s.runCancel
	s.runCtx = nil
	s.runCancel = nil
	s.mu.Unlock()

	cronDone := s.c.Stop().Done()
	onceDone := make(chan struct{})
	go func() {
		s.onceWG.Wait()
		close(onceDone)
	}()

	for _, ch := range []<-chan struct{}{cronDone, onceDone} {
		select {
		case <-ch:
		case <-ctx.Done():
			// Give up waiting; cancel whatever is still running.
			cancel()
			s.log.Warn("scheduler stop timed out, cancelling runs")
			return
		}
	}
	cancel()
	s.log.Info("scheduler stopped")
}

// InstallRecurring binds a recurring trigger for the schedule, derived
// from its frequency and send time. Installing over an existing trigger
// replaces it: the old rule is gone and the new one live before this
// returns, with no window of double firing.
func (s *Scheduler) InstallRecurring(sch store.Schedule) error {
	spec, err := CronSpec(sch.Frequency, sch.SendTime)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := sch.ID
	entryID, err := s.c.AddFunc(spec, func() { s.fire(id, "recurring") })
	if err != nil {
		return fmt.Errorf("install trigger for %s: %w", id, err)
	}
	if old, ok := s.entries[id]; ok {
		s.c.Remove(old)
	}
	s.entries[id] = entryID
	s.log.Info("recurring trigger installed",
		logx.String("schedule", id),
		logx.String("spec", spec))
	return nil
}

// RemoveRecurring drops the recurring trigger for the schedule id.
// Removing an absent trigger is a no-op, not an error.
func (s *Scheduler) RemoveRecurring(scheduleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entryID, ok := s.entries[scheduleID]
	if !ok {
		return
	}
	s.c.Remove(entryID)
	delete(s.entries, scheduleID)
	s.log.Info("recurring trigger removed", logx.String("schedule", scheduleID))
}

// HasRecurring reports whether a recurring trigger is live for the id.
func (s *Scheduler) HasRecurring(scheduleID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[scheduleID]
	return ok
}

// FireOnce launches one immediate, independent run for the schedule id
// off the caller's path. It does not touch the recurring trigger and
// may overlap with a recurring run for the same id; each run writes its
// own timestamp-qualified artifact, so they never corrupt each other.
func (s *Scheduler) FireOnce(scheduleID string) {
	s.onceWG.Add(1)
	go func() {
		defer s.onceWG.Done()
		s.fire(scheduleID, "once")
	}()
}

// Repopulate reinstalls a recurring trigger for every persisted active
// schedule. Called once at process start.
func (s *Scheduler) Repopulate(ctx context.Context, st store.Store) error {
	schedules, err := st.List(ctx)
	if err != nil {
		return fmt.Errorf("list schedules: %w", err)
	}
	installed := 0
	for _, sch := range schedules {
		if !sch.Active {
			continue
		}
		if err := s.InstallRecurring(sch); err != nil {
			s.log.Warn("trigger install failed on startup",
				logx.String("schedule", sch.ID), logx.Err(err))
			continue
		}
		installed++
	}
	s.log.Info("schedules loaded",
		logx.Int("total", len(schedules)),
		logx.Int("installed", installed))
	return nil
}

// Snapshot lists the live recurring triggers.
func (s *Scheduler) Snapshot() []TriggerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TriggerInfo, 0, len(s.entries))
	for id, entryID := range s.entries {
		e := s.c.Entry(entryID)
		out = append(out, TriggerInfo{ScheduleID: id, Next: e.Next, Prev: e.Prev})
	}
	return out
}

// fire runs the analysis for one schedule. Nothing a run does, error or
// panic, is allowed to take the trigger loop down.
func (s *Scheduler) fire(scheduleID, kind string) {
	s.mu.Lock()
	ctx := s.runCtx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("run panicked",
				logx.String("schedule", scheduleID),
				logx.Any("panic", r),
				logx.String("stack", string(debug.Stack())))
		}
	}()

	s.log.Info("run triggered", logx.String("schedule", scheduleID), logx.String("kind", kind))
	if err := s.run(ctx, scheduleID); err != nil {
		s.log.Error("run failed", logx.String("schedule", scheduleID), logx.Err(err))
	}
}

// CronSpec derives the cron rule for a frequency and "HH:MM" send time:
// daily at the given time, weekly on Monday, monthly on the 1st.
func CronSpec(freq store.Frequency, sendTime string) (string, error) {
	h, m, err := store.ParseSendTime(sendTime)
	if err != nil {
		return "", err
	}
	switch freq {
	case store.FreqDaily:
		return fmt.Sprintf("%d %d * * *", m, h), nil
	case store.FreqWeekly:
		return fmt.Sprintf("%d %d * * 1", m, h), nil
	case store.FreqMonthly:
		return fmt.Sprintf("%d %d 1 * *", m, h), nil
	default:
		return "", fmt.Errorf("invalid frequency %q", freq)
	}
}
