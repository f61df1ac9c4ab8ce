package config

import "time"

// Video output constants
const (
	// VideoWidth is the output width for vertical shorts (9:16)
	VideoWidth = 1080

	// VideoHeight is the output height for vertical shorts (9:16)
	VideoHeight = 1920

	VideoCodec   = "libx264"
	AudioCodec   = "aac"
	AudioBitrate = "192k"

	// VideoPreset is the ffmpeg encoding speed preset
	VideoPreset = "fast"

	PixelFormat = "yuv420p"
)

// B-roll selection constants
const (
	BrollMinClipSeconds = 10
	BrollMaxClipSeconds = 60
	BrollMaxClips       = 5
	BrollSearchKeywords = 3
	BrollPerPage        = 10
	BrollFallbackQuery  = "finance"
)

// Text and timing constants
const (
	// WordsPerMinute is the narration rate used to estimate subtitle timings
	WordsPerMinute = 200

	// MinSummaryLength is the shortest feed summary accepted without full-text extraction
	MinSummaryLength = 50

	// MaxExtractedSummary caps summaries taken from readability extraction
	MaxExtractedSummary = 1000

	// ExtractorTimeout bounds a single readability fetch
	ExtractorTimeout = 30 * time.Second
)

// Title and metadata constants
const (
	MaxTitleLength        = 100
	MaxDescriptionBody    = 1000
	MaxHashtags           = 5
	YouTubeWatchURL       = "https://youtube.com/shorts/"
	DescriptionDisclaimer = "This video is for informational purposes only and is not financial advice."
)

// Filesystem layout constants
const (
	AudioDir      = "audio"
	VideoDir      = "video"
	ThumbnailsDir = "thumbnails"
	MetadataDir   = "metadata"

	ArchiveDir  = "archive"
	RejectedDir = "rejected"

	OutputDateLayout = "2006-01-02"

	ContentHashPrefix = "content_hashes_"
	ScriptHashFile    = "script_hashes.txt"
	UploadRecordFile  = "youtube_uploads.txt"
	PipelineLogFile   = "pipeline.log"
	RecordsDBFile     = "records.db"
	LockFile          = ".finshorts.lock"

	ClientSecretFile = "client_secret.json"
	TokenFile        = "token.json"
)

// HTTP client constants
const (
	DefaultHTTPTimeout  = 60 * time.Second
	DownloadHTTPTimeout = 5 * time.Minute
)
