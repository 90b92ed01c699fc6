package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const ytAPIBase = "https://www.googleapis.com/youtube/v3"

// YouTube collects topic videos from a whitelist of channels by listing
// each channel's uploads playlist and keeping keyword-matching entries.
type YouTube struct {
	client   *http.Client
	apiKey   string
	channels []string
	keywords []string
	perChan  int
}

// NewYouTube creates a YouTube fetcher over the given channel IDs.
func NewYouTube(apiKey string, channels, keywords []string, perChannel int) *YouTube {
	if perChannel <= 0 {
		perChannel = 3
	}
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}
	return &YouTube{
		client:   &http.Client{Timeout: 30 * time.Second},
		apiKey:   apiKey,
		channels: channels,
		keywords: lowered,
		perChan:  perChannel,
	}
}

func (y *YouTube) Name() string { return "youtube" }

func (y *YouTube) Fetch(ctx context.Context) ([]Document, error) {
	if y.apiKey == "" {
		return nil, fmt.Errorf("youtube: API key required (set YOUTUBE_API_KEY)")
	}

	var all []Document
	for _, channelID := range y.channels {
		docs, err := y.fetchChannel(ctx, channelID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  youtube channel %s error: %v\n", channelID, err)
			continue
		}
		all = append(all, docs...)
	}
	return all, nil
}

func (y *YouTube) fetchChannel(ctx context.Context, channelID string) ([]Document, error) {
	uploadsID, err := y.uploadsPlaylist(ctx, channelID)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("playlistId", uploadsID)
	params.Set("maxResults", "10")
	params.Set("key", y.apiKey)

	var result ytPlaylistResult
	if err := y.getJSON(ctx, ytAPIBase+"/playlistItems?"+params.Encode(), &result); err != nil {
		return nil, fmt.Errorf("list uploads %s: %w", channelID, err)
	}

	var docs []Document
	for _, item := range result.Items {
		sn := item.Snippet
		text := strings.ToLower(sn.Title + " " + sn.Description)
		if !y.matches(text) {
			continue
		}

		videoID := sn.ResourceID.VideoID
		if videoID == "" {
			continue
		}

		docs = append(docs, Document{
			URL:         "https://www.youtube.com/watch?v=" + videoID,
			Title:       sn.Title,
			Summary:     truncate(sn.Description, 300),
			PublishedAt: sn.PublishedAt,
			SourceName:  sn.ChannelTitle,
			SourceURL:   "https://www.youtube.com/channel/" + channelID,
			Kind:        KindVideo,
		})
		if len(docs) >= y.perChan {
			break
		}
	}
	return docs, nil
}

func (y *YouTube) uploadsPlaylist(ctx context.Context, channelID string) (string, error) {
	params := url.Values{}
	params.Set("part", "contentDetails")
	params.Set("id", channelID)
	params.Set("key", y.apiKey)

	var result struct {
		Items []struct {
			ContentDetails struct {
				RelatedPlaylists struct {
					Uploads string `json:"uploads"`
				} `json:"relatedPlaylists"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	if err := y.getJSON(ctx, ytAPIBase+"/channels?"+params.Encode(), &result); err != nil {
		return "", fmt.Errorf("lookup channel %s: %w", channelID, err)
	}
	if len(result.Items) == 0 {
		return "", fmt.Errorf("channel %s not found", channelID)
	}
	return result.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

func (y *YouTube) matches(lowerText string) bool {
	if len(y.keywords) == 0 {
		return true
	}
	for _, k := range y.keywords {
		if strings.Contains(lowerText, k) {
			return true
		}
	}
	return false
}

func (y *YouTube) getJSON(ctx context.Context, reqURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create youtube request: %w", err)
	}

	resp, err := y.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch youtube: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("youtube status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

type ytPlaylistResult struct {
	Items []struct {
		Snippet struct {
			Title        string    `json:"title"`
			Description  string    `json:"description"`
			ChannelTitle string    `json:"channelTitle"`
			PublishedAt  time.Time `json:"publishedAt"`
			ResourceID   struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
