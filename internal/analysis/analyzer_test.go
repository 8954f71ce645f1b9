package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkscout/internal/youtube"
	logx "linkscout/pkg/logx"
)

// fakeAPI scripts the platform responses for one channel. Zero-value
// fields mean "succeed with nothing".
type fakeAPI struct {
	channel    youtube.ChannelRef
	resolveErr error

	playlistID  string
	playlistErr error

	pages    []youtube.PlaylistPage
	pageErrs map[int]error
	pageGot  []string // page tokens seen, in order

	videos    map[string]youtube.VideoInfo
	videoErrs map[string]error

	comments    map[string][]youtube.Comment
	commentErrs map[string]error
}

func (f *fakeAPI) ResolveChannel(_ context.Context, _, _ string) (youtube.ChannelRef, error) {
	return f.channel, f.resolveErr
}

func (f *fakeAPI) UploadsPlaylist(_ context.Context, _, _ string) (string, error) {
	return f.playlistID, f.playlistErr
}

func (f *fakeAPI) PlaylistPage(_ context.Context, _, _, pageToken string) (youtube.PlaylistPage, error) {
	idx := len(f.pageGot)
	f.pageGot = append(f.pageGot, pageToken)
	if err, ok := f.pageErrs[idx]; ok {
		return youtube.PlaylistPage{}, err
	}
	if idx >= len(f.pages) {
		return youtube.PlaylistPage{}, nil
	}
	return f.pages[idx], nil
}

func (f *fakeAPI) VideoInfo(_ context.Context, _, videoID string) (youtube.VideoInfo, error) {
	if err, ok := f.videoErrs[videoID]; ok {
		return youtube.VideoInfo{}, err
	}
	return f.videos[videoID], nil
}

func (f *fakeAPI) CommentThreads(_ context.Context, _, videoID string, _ int) ([]youtube.Comment, error) {
	if err, ok := f.commentErrs[videoID]; ok {
		return nil, err
	}
	return f.comments[videoID], nil
}

func testAnalyzer(api API, at time.Time) *Analyzer {
	a := NewAnalyzer(api, logx.Nop())
	a.now = func() time.Time { return at }
	return a
}

func TestChannelAggregatesDescriptionAndPinnedLinks(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		channel:    youtube.ChannelRef{ID: "UC1", Title: "Maker Channel"},
		playlistID: "UU1",
		pages: []youtube.PlaylistPage{{
			Items: []youtube.PlaylistItem{
				{VideoID: "v1", PublishedAt: now.Add(-24 * time.Hour)},
				{VideoID: "v2", PublishedAt: now.Add(-48 * time.Hour)},
			},
		}},
		videos: map[string]youtube.VideoInfo{
			"v1": {Title: "First", Description: "store at https://shop.example/a plus https://other.example"},
			"v2": {Title: "Second", Description: "nothing here"},
		},
		comments: map[string][]youtube.Comment{
			"v2": {
				{AuthorIsOwner: true, Text: "pinned: https://shop.example/a,"},
				{AuthorIsOwner: false, Text: "fan https://spam.example"},
			},
		},
	}

	title, stats := testAnalyzer(api, now).Channel(context.Background(), "Maker Channel", 6, "k")
	require.Equal(t, "Maker Channel", title)
	require.Len(t, stats, 2)

	st := stats["https://shop.example/a"]
	require.NotNil(t, st, "trailing comma should normalize away")
	assert.Equal(t, 2, st.Count)
	assert.Equal(t, []string{"v1", "v2"}, st.VideoIDs)
	assert.Equal(t, []string{"First", "Second"}, st.Titles)
	assert.Equal(t, []string{now.Add(-24 * time.Hour).Format("2006-01-02"), now.Add(-48 * time.Hour).Format("2006-01-02")}, st.Dates)

	other := stats["https://other.example"]
	require.NotNil(t, other)
	assert.Equal(t, 1, other.Count)

	_, spam := stats["https://spam.example"]
	assert.False(t, spam, "non-owner comments must not contribute links")
}

func TestChannelStatInvariant(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		channel:    youtube.ChannelRef{ID: "UC1", Title: "C"},
		playlistID: "UU1",
		pages: []youtube.PlaylistPage{{
			Items: []youtube.PlaylistItem{
				{VideoID: "v1", PublishedAt: now.Add(-time.Hour)},
				{VideoID: "v2", PublishedAt: now.Add(-2 * time.Hour)},
				{VideoID: "v3", PublishedAt: now.Add(-3 * time.Hour)},
			},
		}},
		videos: map[string]youtube.VideoInfo{
			"v1": {Title: "a", Description: "https://x.example https://y.example"},
			"v2": {Title: "b", Description: "https://x.example"},
			"v3": {Title: "c", Description: "https://x.example"},
		},
	}

	_, stats := testAnalyzer(api, now).Channel(context.Background(), "C", 6, "k")
	for link, st := range stats {
		assert.Equal(t, st.Count, len(st.VideoIDs), "link %s", link)
		assert.Equal(t, st.Count, len(st.Titles), "link %s", link)
		assert.Equal(t, st.Count, len(st.Dates), "link %s", link)
	}
	assert.Equal(t, 3, stats["https://x.example"].Count)
}

func TestChannelResolveFailure(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{resolveErr: youtube.ErrNotFound}
	title, stats := testAnalyzer(api, time.Now()).Channel(context.Background(), "ghost", 6, "k")
	assert.Empty(t, title)
	assert.Nil(t, stats)
}

func TestChannelNoVideosInWindow(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		channel:    youtube.ChannelRef{ID: "UC1", Title: "Quiet"},
		playlistID: "UU1",
		pages: []youtube.PlaylistPage{{
			Items: []youtube.PlaylistItem{{VideoID: "old", PublishedAt: now.Add(-lookbackWindow(6) - time.Hour)}},
		}},
	}

	title, stats := testAnalyzer(api, now).Channel(context.Background(), "Quiet", 6, "k")
	assert.Equal(t, "Quiet", title)
	require.NotNil(t, stats)
	assert.Empty(t, stats)
}

func TestEnumerateScansAllPages(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	old := now.Add(-lookbackWindow(6) - time.Hour)
	// First page entirely out of window; the recent video sits on the
	// last page and must still be found.
	api := &fakeAPI{
		channel:    youtube.ChannelRef{ID: "UC1", Title: "C"},
		playlistID: "UU1",
		pages: []youtube.PlaylistPage{
			{Items: []youtube.PlaylistItem{{VideoID: "old1", PublishedAt: old}, {VideoID: "old2", PublishedAt: old}}, NextPageToken: "p2"},
			{Items: []youtube.PlaylistItem{{VideoID: "old3", PublishedAt: old}}, NextPageToken: "p3"},
			{Items: []youtube.PlaylistItem{{VideoID: "fresh", PublishedAt: now.Add(-time.Hour)}}},
		},
	}
	a := testAnalyzer(api, now)

	kept := a.enumerate(context.Background(), logx.Nop(), "k", "UU1", 6)
	require.Len(t, kept, 1)
	assert.Equal(t, "fresh", kept[0].VideoID)
	assert.Equal(t, []string{"", "p2", "p3"}, api.pageGot)
}

func TestEnumerateKeepsPartialOnPageError(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		pages: []youtube.PlaylistPage{
			{Items: []youtube.PlaylistItem{{VideoID: "v1", PublishedAt: now.Add(-time.Hour)}}, NextPageToken: "p2"},
		},
		pageErrs: map[int]error{1: errors.New("quota exceeded")},
	}
	a := testAnalyzer(api, now)

	kept := a.enumerate(context.Background(), logx.Nop(), "k", "UU1", 6)
	require.Len(t, kept, 1)
	assert.Equal(t, "v1", kept[0].VideoID)
}

func TestChannelSkipsUnreadableVideo(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		channel:    youtube.ChannelRef{ID: "UC1", Title: "C"},
		playlistID: "UU1",
		pages: []youtube.PlaylistPage{{
			Items: []youtube.PlaylistItem{
				{VideoID: "broken", PublishedAt: now.Add(-time.Hour)},
				{VideoID: "ok", PublishedAt: now.Add(-2 * time.Hour)},
			},
		}},
		videos:    map[string]youtube.VideoInfo{"ok": {Title: "OK", Description: "https://x.example"}},
		videoErrs: map[string]error{"broken": errors.New("backend error")},
	}

	title, stats := testAnalyzer(api, now).Channel(context.Background(), "C", 6, "k")
	assert.Equal(t, "C", title)
	require.Len(t, stats, 1)
	assert.Equal(t, []string{"ok"}, stats["https://x.example"].VideoIDs)
}

func TestChannelSurvivesCommentFailure(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		channel:    youtube.ChannelRef{ID: "UC1", Title: "C"},
		playlistID: "UU1",
		pages: []youtube.PlaylistPage{{
			Items: []youtube.PlaylistItem{{VideoID: "v1", PublishedAt: now.Add(-time.Hour)}},
		}},
		videos:      map[string]youtube.VideoInfo{"v1": {Title: "T", Description: "https://x.example"}},
		commentErrs: map[string]error{"v1": errors.New("comments disabled")},
	}

	_, stats := testAnalyzer(api, now).Channel(context.Background(), "C", 6, "k")
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats["https://x.example"].Count)
}
