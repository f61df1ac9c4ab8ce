package video

// PexelsVideo is one search hit from the Pexels video API.
type PexelsVideo struct {
	ID         int          `json:"id"`
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	Duration   int          `json:"duration"`
	URL        string       `json:"url"`
	VideoFiles []PexelsFile `json:"video_files"`
}

// PexelsFile is one encoding of a PexelsVideo.
type PexelsFile struct {
	ID       int    `json:"id"`
	Quality  string `json:"quality"`
	FileType string `json:"file_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Link     string `json:"link"`
}

// Clip is a downloaded B-roll file.
type Clip struct {
	Path     string
	Duration float64
}

// TimelineEntry places Duration seconds of a clip's start on the timeline.
type TimelineEntry struct {
	Path     string
	Duration float64
}

// RenderJob is everything the renderer needs to produce the final short.
type RenderJob struct {
	AudioPath    string
	SubtitlePath string // ASS file burned into the picture; empty for none
	OutputPath   string
	Duration     float64
	Timeline     []TimelineEntry // empty renders a solid background
	Width        int
	Height       int
	FPS          int
	Background   string
}
