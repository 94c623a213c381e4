package types

import (
	"strings"
	"time"
)

// Job is the persisted record of one video's walk through the pipeline.
// It is mutated exclusively by the runner; progress and error only change
// together with a stage transition.
type Job struct {
	ID           string    `json:"id"`
	SourceURL    string    `json:"source_url"`
	Title        string    `json:"title,omitempty"`
	DurationSec  int       `json:"duration_sec,omitempty"`
	Stage        Stage     `json:"stage"`
	Progress     int       `json:"progress"`
	Error        string    `json:"error,omitempty"`
	Quality      string    `json:"quality"`
	AspectRatio  string    `json:"aspect_ratio"`
	AccountEmail string    `json:"account_email,omitempty"`
	AutoUpload   bool      `json:"auto_upload,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Paths to stage artifacts; kept around after failure for inspection.
	VideoPath      string `json:"video_path,omitempty"`
	AudioPath      string `json:"audio_path,omitempty"`
	TranscriptPath string `json:"transcript_path,omitempty"`

	SourceInfo *SourceInfo `json:"source_info,omitempty"`
}

// SourceInfo carries metadata reported by the fetcher.
type SourceInfo struct {
	Uploader  string  `json:"uploader,omitempty"`
	ViewCount int64   `json:"view_count,omitempty"`
	Width     int     `json:"width,omitempty"`
	Height    int     `json:"height,omitempty"`
	FPS       float64 `json:"fps,omitempty"`
}

// Segment is a time-bounded span of transcript text with attached scores.
// Overall is always the weighted combination of the four raw scores and is
// recomputed whenever they change, never set directly.
type Segment struct {
	ID    string  `json:"id"`
	JobID string  `json:"job_id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`

	Engagement     float64 `json:"engagement_score"`
	Emotion        float64 `json:"emotion_score"`
	ViralPotential float64 `json:"viral_potential"`
	Quotability    float64 `json:"quotability"`
	Overall        float64 `json:"overall_score"`

	Emotions  []string `json:"emotions,omitempty"`
	Keywords  []string `json:"keywords,omitempty"`
	Rationale string   `json:"rationale,omitempty"`
}

func (s Segment) Duration() float64 { return s.End - s.Start }

func (s Segment) WordCount() int { return len(strings.Fields(s.Text)) }

// ClipSpec is one generated short derived from a selected segment.
type ClipSpec struct {
	ID    string  `json:"id"`
	JobID string  `json:"job_id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`

	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Duration    float64  `json:"duration"`

	OutputPath    string `json:"output_path,omitempty"`
	SubtitlePath  string `json:"subtitle_path,omitempty"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`
	FileSize      int64  `json:"file_size,omitempty"`

	EngagementScore float64 `json:"engagement_score"`
	ViralPotential  float64 `json:"viral_potential"`
	Rationale       string  `json:"rationale,omitempty"`

	UploadStatus UploadStatus `json:"upload_status"`
	PlatformID   string       `json:"platform_id,omitempty"`
	PlatformURL  string       `json:"platform_url,omitempty"`
	UploadError  string       `json:"upload_error,omitempty"`
	UploadedAt   *time.Time   `json:"uploaded_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Credential is one external account identity with its upload defaults.
// Owned independently of jobs and keyed by account email.
type Credential struct {
	AccountEmail string    `json:"account_email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry"`
	Scope        string    `json:"scope,omitempty"`

	ChannelID        string `json:"channel_id,omitempty"`
	ChannelTitle     string `json:"channel_title,omitempty"`
	ChannelThumbnail string `json:"channel_thumbnail,omitempty"`

	DefaultPrivacy  string `json:"default_privacy"`
	DefaultCategory int    `json:"default_category"`
	AutoHashtags    bool   `json:"auto_hashtags"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Expired reports whether the access token has lapsed. Both sides of the
// comparison are normalized to UTC so credentials stored with a bare
// timestamp do not read as permanently fresh.
func (c Credential) Expired(now time.Time) bool {
	return !c.Expiry.UTC().After(now.UTC())
}

// FetchResult is what the external fetcher hands back.
type FetchResult struct {
	LocalPath   string
	Title       string
	DurationSec int
	Info        SourceInfo
}

// Transcript is the transcriber's output.
type Transcript struct {
	Segments    []TranscriptSegment `json:"segments"`
	Language    string              `json:"language,omitempty"`
	DurationSec float64             `json:"duration_sec,omitempty"`
}

type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// ScoreResult is the structured record returned by segment analysis,
// validated and clamped at the adapter boundary.
type ScoreResult struct {
	Engagement     float64  `json:"engagement_score"`
	Emotion        float64  `json:"emotion_score"`
	ViralPotential float64  `json:"viral_potential"`
	Quotability    float64  `json:"quotability"`
	Emotions       []string `json:"emotions"`
	Keywords       []string `json:"keywords"`
	Reason         string   `json:"reason"`
}

// MetadataResult is the structured record returned by metadata generation.
type MetadataResult struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}
