// Package youtube is a thin client for the YouTube Data API v3.
//
// Only the five endpoints the analysis pipeline needs are wrapped, and
// each call is keyed by a per-schedule API key rather than a client-wide
// credential. Policy decisions (what counts as fatal, what is
// best-effort) belong to the caller; this package just reports errors.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// ErrNotFound means the API answered but had no matching item.
var ErrNotFound = errors.New("youtube: not found")

type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	baseURL string
}

type Option func(*Client)

// WithBaseURL overrides the API endpoint (tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func New(opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 5),
		baseURL: defaultBaseURL,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ChannelRef identifies a resolved channel.
type ChannelRef struct {
	ID    string
	Title string
}

// PlaylistItem is one entry of an uploads playlist page.
type PlaylistItem struct {
	VideoID     string
	PublishedAt time.Time
}

// PlaylistPage is one page of playlist items plus the continuation
// cursor; an empty NextPageToken marks the last page.
type PlaylistPage struct {
	Items         []PlaylistItem
	NextPageToken string
}

// VideoInfo is a video's snippet subset.
type VideoInfo struct {
	Title       string
	Description string
}

// Comment is one top-level comment thread entry.
type Comment struct {
	AuthorIsOwner bool
	Text          string
}

// ResolveChannel looks up a channel by human-entered name and returns
// the first search result.
func (c *Client) ResolveChannel(ctx context.Context, apiKey, name string) (ChannelRef, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("type", "channel")
	q.Set("q", name)
	q.Set("maxResults", "1")

	var resp struct {
		Items []struct {
			Snippet struct {
				ChannelID string `json:"channelId"`
				Title     string `json:"title"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := c.get(ctx, apiKey, "/search", q, &resp); err != nil {
		return ChannelRef{}, err
	}
	if len(resp.Items) == 0 {
		return ChannelRef{}, ErrNotFound
	}
	return ChannelRef{ID: resp.Items[0].Snippet.ChannelID, Title: resp.Items[0].Snippet.Title}, nil
}

// UploadsPlaylist returns the id of the channel's uploads playlist.
func (c *Client) UploadsPlaylist(ctx context.Context, apiKey, channelID string) (string, error) {
	q := url.Values{}
	q.Set("part", "contentDetails")
	q.Set("id", channelID)

	var resp struct {
		Items []struct {
			ContentDetails struct {
				RelatedPlaylists struct {
					Uploads string `json:"uploads"`
				} `json:"relatedPlaylists"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	if err := c.get(ctx, apiKey, "/channels", q, &resp); err != nil {
		return "", err
	}
	if len(resp.Items) == 0 || resp.Items[0].ContentDetails.RelatedPlaylists.Uploads == "" {
		return "", ErrNotFound
	}
	return resp.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

// PlaylistPage fetches one page of playlist items. Pass an empty
// pageToken for the first page.
func (c *Client) PlaylistPage(ctx context.Context, apiKey, playlistID, pageToken string) (PlaylistPage, error) {
	q := url.Values{}
	q.Set("part", "contentDetails")
	q.Set("playlistId", playlistID)
	q.Set("maxResults", "50")
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}

	var resp struct {
		Items []struct {
			ContentDetails struct {
				VideoID          string `json:"videoId"`
				VideoPublishedAt string `json:"videoPublishedAt"`
			} `json:"contentDetails"`
		} `json:"items"`
		NextPageToken string `json:"nextPageToken"`
	}
	if err := c.get(ctx, apiKey, "/playlistItems", q, &resp); err != nil {
		return PlaylistPage{}, err
	}

	page := PlaylistPage{NextPageToken: resp.NextPageToken}
	for _, it := range resp.Items {
		ts, err := time.Parse(time.RFC3339, it.ContentDetails.VideoPublishedAt)
		if err != nil {
			// Items without a parseable publish time (private/deleted
			// videos) carry no usable window information; skip them.
			continue
		}
		page.Items = append(page.Items, PlaylistItem{VideoID: it.ContentDetails.VideoID, PublishedAt: ts})
	}
	return page, nil
}

// VideoInfo fetches a video's title and description.
func (c *Client) VideoInfo(ctx context.Context, apiKey, videoID string) (VideoInfo, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("id", videoID)

	var resp struct {
		Items []struct {
			Snippet struct {
				Title       string `json:"title"`
				Description string `json:"description"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := c.get(ctx, apiKey, "/videos", q, &resp); err != nil {
		return VideoInfo{}, err
	}
	if len(resp.Items) == 0 {
		return VideoInfo{}, ErrNotFound
	}
	return VideoInfo{Title: resp.Items[0].Snippet.Title, Description: resp.Items[0].Snippet.Description}, nil
}

// CommentThreads fetches up to maxResults top-level comment threads for
// a video, in API order.
func (c *Client) CommentThreads(ctx context.Context, apiKey, videoID string, maxResults int) ([]Comment, error) {
	if maxResults <= 0 {
		maxResults = 20
	}
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("videoId", videoID)
	q.Set("maxResults", strconv.Itoa(maxResults))

	var resp struct {
		Items []struct {
			Snippet struct {
				TopLevelComment struct {
					Snippet struct {
						AuthorIsChannelOwner bool   `json:"authorIsChannelOwner"`
						TextDisplay          string `json:"textDisplay"`
					} `json:"snippet"`
				} `json:"topLevelComment"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := c.get(ctx, apiKey, "/commentThreads", q, &resp); err != nil {
		return nil, err
	}

	out := make([]Comment, 0, len(resp.Items))
	for _, it := range resp.Items {
		sn := it.Snippet.TopLevelComment.Snippet
		out = append(out, Comment{AuthorIsOwner: sn.AuthorIsChannelOwner, Text: sn.TextDisplay})
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, apiKey, path string, q url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	q.Set("key", apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("youtube: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("youtube: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("youtube: %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("youtube: %s: decode: %w", path, err)
	}
	return nil
}
