package types

import "fmt"

// UploadStatus is the per-clip upload state machine:
// NotUploaded -> UploadPending -> Uploading -> {Uploaded | UploadFailed}.
type UploadStatus string

const (
	UploadNotUploaded UploadStatus = "not_uploaded"
	UploadPending     UploadStatus = "pending"
	Uploading         UploadStatus = "uploading"
	Uploaded          UploadStatus = "uploaded"
	UploadFailed      UploadStatus = "failed"
)

var uploadTransitions = map[UploadStatus]map[UploadStatus]bool{
	UploadNotUploaded: {
		UploadPending: true,
		UploadFailed:  true, // rejected before any attempt (e.g. no output file)
	},
	// pending and uploading are transient; a crash can park a clip in
	// either, so both may restart the attempt from pending.
	UploadPending: {
		UploadPending: true,
		Uploading:     true,
		UploadFailed:  true,
	},
	Uploading: {
		UploadPending: true,
		Uploaded:      true,
		UploadFailed:  true,
	},
	// A failed upload may be retried from scratch.
	UploadFailed: {
		UploadPending: true,
	},
	Uploaded: {},
}

func CanTransitionUpload(from, to UploadStatus) bool {
	next, ok := uploadTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

func TransitionUpload(clip *ClipSpec, to UploadStatus) error {
	if !CanTransitionUpload(clip.UploadStatus, to) {
		return fmt.Errorf("invalid upload transition: %q -> %q (clip_id=%s)", clip.UploadStatus, to, clip.ID)
	}
	clip.UploadStatus = to
	return nil
}
