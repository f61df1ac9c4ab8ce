package types

import (
	"fmt"
	"time"
)

// Stage is the last completed pipeline step of a WorkItem.
type Stage string

const (
	StageIngested    Stage = "ingested"
	StageScripted    Stage = "scripted"
	StageVoiced      Stage = "voiced"
	StageComposed    Stage = "composed"
	StageThumbnailed Stage = "thumbnailed"
	StagePublished   Stage = "published"
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{StageIngested, StageScripted, StageVoiced, StageComposed, StageThumbnailed, StagePublished}

// Index is the position of s in Stages, or -1.
func (s Stage) Index() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the stage after s. The second result is false for the final
// stage and for unknown values.
func (s Stage) Next() (Stage, bool) {
	i := s.Index()
	if i < 0 || i == len(Stages)-1 {
		return "", false
	}
	return Stages[i+1], true
}

func (s Stage) Valid() bool { return s.Index() >= 0 }

// WorkItem is one news story on its way to becoming a published short.
type WorkItem struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Category    string    `json:"category,omitempty"`
	Title       string    `json:"title"`
	URL         string    `json:"url,omitempty"`
	Summary     string    `json:"summary"`
	Keywords    []string  `json:"keywords"`
	ContentHash string    `json:"content_hash"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Stage Stage `json:"stage"`

	// OutputDate pins the Daily Output Set (YYYY-MM-DD) once an artifact exists.
	OutputDate string `json:"output_date,omitempty"`

	Script        *Script `json:"script,omitempty"`
	AudioPath     string  `json:"audio_path,omitempty"`
	AudioDuration float64 `json:"audio_duration,omitempty"`
	VideoPath     string  `json:"video_path,omitempty"`
	SubtitlePath  string  `json:"subtitle_path,omitempty"`
	ThumbnailPath string  `json:"thumbnail_path,omitempty"`
	MetadataPath  string  `json:"metadata_path,omitempty"`
	VideoID       string  `json:"video_id,omitempty"`
	VideoURL      string  `json:"video_url,omitempty"`

	Attempts  int    `json:"attempts,omitempty"`
	LastError string `json:"last_error,omitempty"`
	Rejected  string `json:"rejected,omitempty"`
}

// NewWorkItem builds an ingested WorkItem from a cleaned news entry.
func NewWorkItem(n *NewsItem, now time.Time) *WorkItem {
	return &WorkItem{
		ID:          WorkItemID(now, n.ContentHash),
		Source:      n.Source,
		Category:    n.Category,
		Title:       n.Title,
		URL:         n.URL,
		Summary:     n.Summary,
		Keywords:    append([]string(nil), n.Keywords...),
		ContentHash: n.ContentHash,
		PublishedAt: n.PublishedAt,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
		Stage:       StageIngested,
	}
}

// WorkItemID combines the creation timestamp with a content hash prefix.
func WorkItemID(now time.Time, contentHash string) string {
	short := contentHash
	if len(short) > 12 {
		short = short[:12]
	}
	return fmt.Sprintf("%s_%s", now.UTC().Format("20060102T150405"), short)
}

// Done reports whether the item needs no further processing.
func (w *WorkItem) Done() bool {
	return w.Stage == StagePublished || w.Rejected != ""
}

// Script is the narration drafted for a WorkItem.
type Script struct {
	Hook      string    `json:"hook"`
	Body      string    `json:"body"`
	CTA       string    `json:"cta"`
	Narration string    `json:"narration"`
	Keywords  []string  `json:"keywords"`
	Duration  int       `json:"duration_seconds"`
	Segments  []Segment `json:"segments"`
	Hash      string    `json:"hash"`
}

// FullText is hook, body and call-to-action joined in speaking order.
func (s *Script) FullText() string {
	return joinNonEmpty(s.Hook, s.Body, s.CTA)
}

// Segment is one subtitle line with its timing in seconds.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}
