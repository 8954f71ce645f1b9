// Package analysis implements the per-channel link aggregation and the
// per-schedule run that stitches channels into one report.
package analysis

import (
	"context"
	"time"

	"linkscout/internal/linkextract"
	"linkscout/internal/youtube"
	logx "linkscout/pkg/logx"
)

const maxCommentThreads = 20

// lookbackWindow approximates months as 30-day blocks. This matches the
// report consumers' expectations; do not "fix" it to calendar months,
// that silently changes which videos are in-window.
func lookbackWindow(months int) time.Duration {
	return time.Duration(months) * 30 * 24 * time.Hour
}

// Analyzer turns one channel name into per-link statistics.
type Analyzer struct {
	api API
	log logx.Logger

	// now is swappable for tests; defaults to time.Now.
	now func() time.Time
}

func NewAnalyzer(api API, log logx.Logger) *Analyzer {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Analyzer{api: api, log: log, now: time.Now}
}

// Channel resolves a channel by name and aggregates every link found in
// the descriptions and owner-pinned comments of its in-window uploads.
//
// Failures never propagate: a channel that cannot be resolved yields an
// empty result, a channel with no in-window videos yields its title and
// an empty map. Both are valid terminal states, not errors.
func (a *Analyzer) Channel(ctx context.Context, name string, months int, apiKey string) (string, map[string]*LinkStat) {
	log := a.log.With(logx.String("channel", name))

	ref, err := a.api.ResolveChannel(ctx, apiKey, name)
	if err != nil {
		// Transport errors and "no such channel" are the same thing at
		// this layer: no data for this channel.
		log.Warn("channel resolve failed", logx.Err(err))
		return "", nil
	}

	playlistID, err := a.api.UploadsPlaylist(ctx, apiKey, ref.ID)
	if err != nil {
		log.Warn("uploads playlist lookup failed", logx.Err(err))
		return "", nil
	}

	videos := a.enumerate(ctx, log, apiKey, playlistID, months)
	if len(videos) == 0 {
		log.Info("no videos in window")
		return ref.Title, map[string]*LinkStat{}
	}

	stats := map[string]*LinkStat{}
	for _, v := range videos {
		info, err := a.api.VideoInfo(ctx, apiKey, v.VideoID)
		if err != nil {
			// Best-effort: one unreadable video must not sink the channel.
			log.Debug("video info fetch failed", logx.String("video", v.VideoID), logx.Err(err))
			continue
		}

		links := linkextract.Links(info.Description)
		links = append(links, a.pinnedLinks(ctx, log, apiKey, v.VideoID)...)

		date := v.PublishedAt.UTC().Format("2006-01-02")
		for _, raw := range links {
			link := linkextract.Normalize(raw)
			st, ok := stats[link]
			if !ok {
				st = &LinkStat{Link: link}
				stats[link] = st
			}
			st.Count++
			st.VideoIDs = append(st.VideoIDs, v.VideoID)
			st.Titles = append(st.Titles, info.Title)
			st.Dates = append(st.Dates, date)
		}
	}

	log.Info("channel analyzed",
		logx.String("title", ref.Title),
		logx.Int("videos", len(videos)),
		logx.Int("links", len(stats)))
	return ref.Title, stats
}

// enumerate pages through the uploads playlist and keeps every item
// published on or after the cutoff. The cutoff is computed once, before
// paging begins, so the window stays stable however long paging takes.
//
// Pages are always consumed to the end: upstream ordering is not
// guaranteed to be reverse-chronological, so an early page full of
// out-of-window items says nothing about later pages.
func (a *Analyzer) enumerate(ctx context.Context, log logx.Logger, apiKey, playlistID string, months int) []youtube.PlaylistItem {
	cutoff := a.now().UTC().Add(-lookbackWindow(months))

	var kept []youtube.PlaylistItem
	token := ""
	for {
		page, err := a.api.PlaylistPage(ctx, apiKey, playlistID, token)
		if err != nil {
			// Keep whatever was collected; a partial window is still data.
			log.Warn("playlist page fetch failed", logx.Err(err))
			return kept
		}
		for _, it := range page.Items {
			if !it.PublishedAt.Before(cutoff) {
				kept = append(kept, it)
			}
		}
		if page.NextPageToken == "" {
			return kept
		}
		token = page.NextPageToken
	}
}

// pinnedLinks extracts URLs from top-level comments authored by the
// channel owner. Entirely best-effort: comments may be disabled or the
// call may fail, and the analysis of the video proceeds without them.
func (a *Analyzer) pinnedLinks(ctx context.Context, log logx.Logger, apiKey, videoID string) []string {
	comments, err := a.api.CommentThreads(ctx, apiKey, videoID, maxCommentThreads)
	if err != nil {
		log.Debug("comment threads fetch failed", logx.String("video", videoID), logx.Err(err))
		return nil
	}
	var links []string
	for _, cm := range comments {
		if !cm.AuthorIsOwner {
			continue
		}
		links = append(links, linkextract.Links(cm.Text)...)
	}
	return links
}
