package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"finshorts/common"
	"finshorts/config"
)

// PexelsClient searches stock footage on Pexels.
type PexelsClient struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

func NewPexelsClient(baseURL, apiKey string) *PexelsClient {
	if baseURL == "" {
		baseURL = "https://api.pexels.com"
	}
	return &PexelsClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		client:  &http.Client{Timeout: config.DefaultHTTPTimeout},
	}
}

// Search returns portrait videos matching query.
func (p *PexelsClient) Search(ctx context.Context, query string) ([]PexelsVideo, error) {
	if p.APIKey == "" {
		return nil, common.Permanent(errors.New("pexels: PEXELS_API_KEY not configured"))
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", strconv.Itoa(config.BrollPerPage))
	q.Set("orientation", "portrait")
	q.Set("size", "large")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/videos/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", p.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pexels API error: %w", err)
	}
	defer resp.Body.Close()
	if err := common.CheckResponse("pexels", resp); err != nil {
		return nil, err
	}

	var result struct {
		Videos []PexelsVideo `json:"videos"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding pexels response: %w", err)
	}
	return result.Videos, nil
}

// SelectClips keeps 10 to 60 second videos closest to target, at most five,
// without repeating a video id.
func SelectClips(videos []PexelsVideo, target float64) []PexelsVideo {
	var out []PexelsVideo
	seen := make(map[int]struct{})
	for _, v := range videos {
		if v.Duration < config.BrollMinClipSeconds || v.Duration > config.BrollMaxClipSeconds {
			continue
		}
		if _, dup := seen[v.ID]; dup {
			continue
		}
		seen[v.ID] = struct{}{}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return absf(float64(out[i].Duration)-target) < absf(float64(out[j].Duration)-target)
	})
	if len(out) > config.BrollMaxClips {
		out = out[:config.BrollMaxClips]
	}
	return out
}

// BestFile picks the tallest portrait encoding, else the largest one.
func BestFile(v PexelsVideo) (PexelsFile, bool) {
	var best PexelsFile
	found := false
	for _, f := range v.VideoFiles {
		if f.Link == "" || f.Height <= f.Width {
			continue
		}
		if !found || f.Height > best.Height {
			best, found = f, true
		}
	}
	if found {
		return best, true
	}
	for _, f := range v.VideoFiles {
		if f.Link == "" {
			continue
		}
		if !found || f.Width*f.Height > best.Width*best.Height {
			best, found = f, true
		}
	}
	return best, found
}

// BrollFetcher searches and downloads clips for a set of keywords.
type BrollFetcher struct {
	Pexels   *PexelsClient
	Download *http.Client
	Retry    common.RetryPolicy
	Logger   *slog.Logger
}

// Fetch downloads up to five clips into dir. Search and download failures are
// logged and skipped, so an empty result is not an error.
func (b *BrollFetcher) Fetch(ctx context.Context, keywords []string, target float64, dir string) []Clip {
	logger := b.Logger.With("component", "broll")

	queries := keywords
	if len(queries) > config.BrollSearchKeywords {
		queries = queries[:config.BrollSearchKeywords]
	}
	if len(queries) == 0 {
		queries = []string{config.BrollFallbackQuery}
	}

	var candidates []PexelsVideo
	for _, q := range queries {
		var videos []PexelsVideo
		err := common.Retry(ctx, b.Retry, logger, "pexels search", func(ctx context.Context) error {
			var serr error
			videos, serr = b.Pexels.Search(ctx, q)
			return serr
		})
		if err != nil {
			logger.Warn("b-roll search failed", "query", q, "error", err)
			if common.IsPermanent(err) {
				break
			}
			continue
		}
		candidates = append(candidates, videos...)
	}

	client := b.Download
	if client == nil {
		client = &http.Client{Timeout: config.DownloadHTTPTimeout}
	}

	var clips []Clip
	for _, v := range SelectClips(candidates, target) {
		file, ok := BestFile(v)
		if !ok {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("broll_%d.mp4", v.ID))
		err := common.Retry(ctx, b.Retry, logger, "b-roll download", func(ctx context.Context) error {
			return common.DownloadFile(client, file.Link, path)
		})
		if err != nil {
			logger.Warn("b-roll download failed", "video", v.ID, "error", err)
			os.Remove(path)
			continue
		}
		clips = append(clips, Clip{Path: path, Duration: float64(v.Duration)})
	}
	logger.Info("b-roll fetched", "queries", len(queries), "candidates", len(candidates), "clips", len(clips))
	return clips
}

// PlanTimeline cycles through clips in order until duration is covered,
// trimming the last entry to fit.
func PlanTimeline(clips []Clip, duration float64) []TimelineEntry {
	var usable []Clip
	for _, c := range clips {
		if c.Duration > 0 {
			usable = append(usable, c)
		}
	}
	if len(usable) == 0 || duration <= 0 {
		return nil
	}
	var plan []TimelineEntry
	covered := 0.0
	for i := 0; covered < duration; i++ {
		c := usable[i%len(usable)]
		use := c.Duration
		if left := duration - covered; use > left {
			use = left
		}
		plan = append(plan, TimelineEntry{Path: c.Path, Duration: use})
		covered += use
	}
	return plan
}

func absf(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
