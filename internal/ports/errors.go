package ports

import "fmt"

// Collaborator error taxonomy. Stage-fatal errors (fetch, transcribe, and
// editing when no clip survives) abort the job and surface via Job.Error.
// Per-item errors (a single transcode or upload) skip only that clip.
// Score errors are always resolved by the deterministic fallback and never
// reach a caller outside the scoring adapter.

type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.URL, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

type TranscribeError struct {
	Path string
	Err  error
}

func (e *TranscribeError) Error() string { return fmt.Sprintf("transcribe %s: %v", e.Path, e.Err) }
func (e *TranscribeError) Unwrap() error { return e.Err }

type ScoreError struct {
	Err error
}

func (e *ScoreError) Error() string { return fmt.Sprintf("score: %v", e.Err) }
func (e *ScoreError) Unwrap() error { return e.Err }

type TranscodeError struct {
	Path string
	Err  error
}

func (e *TranscodeError) Error() string { return fmt.Sprintf("transcode %s: %v", e.Path, e.Err) }
func (e *TranscodeError) Unwrap() error { return e.Err }

type UploadError struct {
	ClipID string
	Err    error
}

func (e *UploadError) Error() string { return fmt.Sprintf("upload clip %s: %v", e.ClipID, e.Err) }
func (e *UploadError) Unwrap() error { return e.Err }

type CredentialError struct {
	Account string
	Err     error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credentials for %s: %v", e.Account, e.Err)
}
func (e *CredentialError) Unwrap() error { return e.Err }
