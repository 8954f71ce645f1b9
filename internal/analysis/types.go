package analysis

import (
	"context"
	"time"

	"linkscout/internal/youtube"
)

// API is the slice of the platform client the analyzer depends on.
// *youtube.Client satisfies it; tests substitute fakes.
type API interface {
	ResolveChannel(ctx context.Context, apiKey, name string) (youtube.ChannelRef, error)
	UploadsPlaylist(ctx context.Context, apiKey, channelID string) (string, error)
	PlaylistPage(ctx context.Context, apiKey, playlistID, pageToken string) (youtube.PlaylistPage, error)
	VideoInfo(ctx context.Context, apiKey, videoID string) (youtube.VideoInfo, error)
	CommentThreads(ctx context.Context, apiKey, videoID string, maxResults int) ([]youtube.Comment, error)
}

// LinkStat aggregates the occurrences of one normalized link within a
// single channel analysis. VideoIDs, Titles and Dates are parallel:
// index i of each belongs to the same occurrence, and Count always
// equals their length.
type LinkStat struct {
	Link     string
	Count    int
	VideoIDs []string
	Titles   []string
	Dates    []string
}

// ReportRow is one flattened (channel, link) line of the final report.
type ReportRow struct {
	Channel string
	Link    string
	Count   int
	Videos  string // video ids joined by ","
	Titles  string // titles joined by " | "
	Dates   string // dates joined by " | "
}

// Notification carries what the delivery collaborators need after a
// report artifact has been written.
type Notification struct {
	Recipient    string
	ScheduleName string
	ArtifactPath string
	RowCount     int
}

// ReportWriter persists the flattened rows of one run and returns the
// artifact location.
type ReportWriter interface {
	Write(ctx context.Context, scheduleID string, rows []ReportRow, at time.Time) (string, error)
}

// Notifier delivers the "report is ready" message. Failures are logged
// by the runner and never invalidate the written artifact.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
