package domain

// SubtitleType records which caption source the transcript came from.
const (
	SubtitleTypeManual = "manual"
	SubtitleTypeAuto   = "auto"
)

// VideoMetadata holds the descriptive fields extracted during download.
// Written once by the download stage and read-only afterward.
type VideoMetadata struct {
	Title        string `json:"title"`
	Duration     int64  `json:"duration"`
	Uploader     string `json:"uploader"`
	UploadDate   string `json:"upload_date"`
	ViewCount    int64  `json:"view_count"`
	SubtitleType string `json:"subtitle_type"`
}

// Transcript is the full plain-text transcript of a job's video.
// One per job, written once, immutable afterward.
type Transcript struct {
	ID   string `json:"id"`
	Text string `json:"transcript"`
}
