package types

import "time"

// VideoMetadata is what the publisher sends to the video platform and keeps
// alongside the artifacts.
type VideoMetadata struct {
	WorkItemID    string    `json:"work_item_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Tags          []string  `json:"tags"`
	CategoryID    string    `json:"category_id"`
	PrivacyStatus string    `json:"privacy_status"`
	Language      string    `json:"language,omitempty"`
	VideoPath     string    `json:"video_path"`
	ThumbnailPath string    `json:"thumbnail_path,omitempty"`
	Fingerprint   string    `json:"fingerprint"`
	VideoID       string    `json:"video_id,omitempty"`
	VideoURL      string    `json:"video_url,omitempty"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// StageEvent reports a WorkItem transition or failure.
type StageEvent struct {
	RunID      string    `json:"run_id"`
	WorkItemID string    `json:"work_item_id"`
	Stage      Stage     `json:"stage"`
	Status     string    `json:"status"` // "completed", "failed", "rejected"
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

const (
	EventCompleted = "completed"
	EventFailed    = "failed"
	EventRejected  = "rejected"
)
