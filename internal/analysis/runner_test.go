package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkscout/internal/store"
	"linkscout/internal/youtube"
	logx "linkscout/pkg/logx"
)

type fakeStore struct {
	schedules map[string]store.Schedule
}

func (s *fakeStore) List(_ context.Context) ([]store.Schedule, error) {
	out := make([]store.Schedule, 0, len(s.schedules))
	for _, sch := range s.schedules {
		out = append(out, sch)
	}
	return out, nil
}

func (s *fakeStore) Get(_ context.Context, id string) (store.Schedule, error) {
	sch, ok := s.schedules[id]
	if !ok {
		return store.Schedule{}, store.ErrNotFound
	}
	return sch, nil
}

func (s *fakeStore) Put(_ context.Context, sch store.Schedule) error { s.schedules[sch.ID] = sch; return nil }
func (s *fakeStore) Delete(_ context.Context, id string) error       { delete(s.schedules, id); return nil }
func (s *fakeStore) Close() error                                    { return nil }

type fakeWriter struct {
	calls int
	rows  []ReportRow
	path  string
	err   error
}

func (w *fakeWriter) Write(_ context.Context, _ string, rows []ReportRow, _ time.Time) (string, error) {
	w.calls++
	w.rows = rows
	return w.path, w.err
}

type fakeNotifier struct {
	calls int
	last  Notification
	err   error
}

func (n *fakeNotifier) Notify(_ context.Context, msg Notification) error {
	n.calls++
	n.last = msg
	return n.err
}

func runnerFixture(api API) (*Runner, *fakeStore, *fakeWriter, *fakeNotifier) {
	st := &fakeStore{schedules: map[string]store.Schedule{
		"s1": {
			ID:             "s1",
			Name:           "weekly digest",
			APIKey:         "k",
			Channels:       []string{"Maker Channel"},
			LookbackMonths: 6,
			Frequency:      store.FreqWeekly,
			SendTime:       "09:00",
			Email:          "ops@example.com",
			Active:         true,
		},
	}}
	w := &fakeWriter{path: "/tmp/report_s1.csv"}
	n := &fakeNotifier{}
	analyzer := NewAnalyzer(api, logx.Nop())
	r := NewRunner(st, analyzer, w, n, logx.Nop())
	return r, st, w, n
}

func linkAPI() *fakeAPI {
	now := time.Now().UTC()
	return &fakeAPI{
		channel:    youtube.ChannelRef{ID: "UC1", Title: "Maker Channel"},
		playlistID: "UU1",
		pages: []youtube.PlaylistPage{{
			Items: []youtube.PlaylistItem{{VideoID: "v1", PublishedAt: now.Add(-time.Hour)}},
		}},
		videos: map[string]youtube.VideoInfo{"v1": {Title: "T", Description: "https://x.example"}},
	}
}

func TestRunWritesReportAndNotifies(t *testing.T) {
	t.Parallel()
	r, _, w, n := runnerFixture(linkAPI())

	require.NoError(t, r.Run(context.Background(), "s1"))
	require.Equal(t, 1, w.calls)
	require.Len(t, w.rows, 1)
	assert.Equal(t, "Maker Channel", w.rows[0].Channel)
	assert.Equal(t, "https://x.example", w.rows[0].Link)

	require.Equal(t, 1, n.calls)
	assert.Equal(t, "ops@example.com", n.last.Recipient)
	assert.Equal(t, "weekly digest", n.last.ScheduleName)
	assert.Equal(t, "/tmp/report_s1.csv", n.last.ArtifactPath)
	assert.Equal(t, 1, n.last.RowCount)
}

func TestRunZeroRowsSkipsArtifacts(t *testing.T) {
	t.Parallel()
	// Channel resolves but no videos fall in the window.
	api := &fakeAPI{channel: youtube.ChannelRef{ID: "UC1", Title: "Quiet"}, playlistID: "UU1"}
	r, _, w, n := runnerFixture(api)

	require.NoError(t, r.Run(context.Background(), "s1"))
	assert.Zero(t, w.calls, "no rows means no artifact")
	assert.Zero(t, n.calls, "no artifact means no notification")
}

func TestRunMissingScheduleIsNoop(t *testing.T) {
	t.Parallel()
	r, _, w, n := runnerFixture(linkAPI())

	require.NoError(t, r.Run(context.Background(), "vanished"))
	assert.Zero(t, w.calls)
	assert.Zero(t, n.calls)
}

func TestRunInactiveScheduleIsNoop(t *testing.T) {
	t.Parallel()
	r, st, w, n := runnerFixture(linkAPI())
	sch := st.schedules["s1"]
	sch.Active = false
	st.schedules["s1"] = sch

	require.NoError(t, r.Run(context.Background(), "s1"))
	assert.Zero(t, w.calls)
	assert.Zero(t, n.calls)
}

func TestRunWriterFailurePropagates(t *testing.T) {
	t.Parallel()
	r, _, w, n := runnerFixture(linkAPI())
	w.err = errors.New("disk full")

	err := r.Run(context.Background(), "s1")
	require.Error(t, err)
	assert.Zero(t, n.calls, "no artifact to announce")
}

func TestRunNotifierFailureIsNotFatal(t *testing.T) {
	t.Parallel()
	r, _, w, n := runnerFixture(linkAPI())
	n.err = errors.New("smtp down")

	require.NoError(t, r.Run(context.Background(), "s1"))
	assert.Equal(t, 1, w.calls, "artifact stays written")
	assert.Equal(t, 1, n.calls)
}

func TestFlattenOrdersByLink(t *testing.T) {
	t.Parallel()
	rows := flatten("C", map[string]*LinkStat{
		"https://b.example": {Link: "https://b.example", Count: 1, VideoIDs: []string{"v2"}, Titles: []string{"B"}, Dates: []string{"2026-08-02"}},
		"https://a.example": {Link: "https://a.example", Count: 2, VideoIDs: []string{"v1", "v3"}, Titles: []string{"A", "C"}, Dates: []string{"2026-08-01", "2026-08-03"}},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "https://a.example", rows[0].Link)
	assert.Equal(t, "v1,v3", rows[0].Videos)
	assert.Equal(t, "A | C", rows[0].Titles)
	assert.Equal(t, "2026-08-01 | 2026-08-03", rows[0].Dates)
	assert.Equal(t, "https://b.example", rows[1].Link)
}
