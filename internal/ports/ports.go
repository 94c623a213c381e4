package ports

import (
	"context"

	"github.com/vgrishin/shortreel/internal/types"
)

// Fetcher pulls the source video to local disk and reports its metadata.
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL, quality, destDir string) (types.FetchResult, error)
}

// Transcriber turns a local media file into time-stamped text segments.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath, workDir string) (types.Transcript, error)
}

// ScoringOracle scores one transcript span for engagement potential. Oracle
// failures never propagate past the scoring adapter; it falls back to the
// deterministic heuristic.
type ScoringOracle interface {
	AnalyzeSegment(ctx context.Context, text string) (types.ScoreResult, error)
}

// MetadataOracle generates title/description/tags for one clip.
type MetadataOracle interface {
	GenerateMetadata(ctx context.Context, segmentText, originalTitle string) (types.MetadataResult, error)
}

// Transcoder crops/scales/encodes a clip for the given time window.
// Each invocation reads a distinct window of the source and writes a
// distinct output path, so calls for sibling clips may run concurrently.
type Transcoder interface {
	MakeClip(ctx context.Context, inPath string, startSec, endSec float64, aspectRatio, outPath string) error
}

// UploadMetadata is what the upload transport sends alongside the file.
type UploadMetadata struct {
	Title         string
	Description   string
	Tags          []string
	CategoryID    string
	PrivacyStatus string
}

// UploadReceipt identifies the published video on the platform.
type UploadReceipt struct {
	PlatformID  string
	PlatformURL string
}

// UploadTransport pushes one clip file to the video platform. The progress
// callback, when non-nil, receives percent values during chunked upload.
type UploadTransport interface {
	Upload(ctx context.Context, filePath string, meta UploadMetadata, cred types.Credential, progress func(pct int)) (UploadReceipt, error)
}

// CredentialRefresher exchanges a refresh token for a fresh access token.
type CredentialRefresher interface {
	Refresh(ctx context.Context, cred types.Credential) (types.Credential, error)
}
