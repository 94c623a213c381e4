package store

import (
	"context"
	"errors"

	"github.com/vgrishin/shortreel/internal/types"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// JobStore persists job records. Jobs are mutated exclusively by the runner;
// deletion is an administrative action that cascades to segments and clips.
type JobStore interface {
	CreateJob(ctx context.Context, job *types.Job) error
	GetJob(ctx context.Context, id string) (*types.Job, error)
	UpdateJob(ctx context.Context, job *types.Job) error
	DeleteJob(ctx context.Context, id string) error
	ListJobs(ctx context.Context) ([]*types.Job, error)
}

// SegmentStore holds transcript segments per job, created incrementally as
// transcription discovers time windows.
type SegmentStore interface {
	AppendSegment(ctx context.Context, seg *types.Segment) error
	// ListSegments returns all segments of a job in chronological start order.
	ListSegments(ctx context.Context, jobID string) ([]*types.Segment, error)
	// UpdateScores persists a batch of score updates for one job as a unit:
	// either all updates land or the call reports failure with no partial
	// corruption of that batch.
	UpdateScores(ctx context.Context, jobID string, segs []*types.Segment) error
	// DeleteSegments removes all of a job's segments. Called when a job
	// restarts so a retry does not reselect the previous attempt's records.
	DeleteSegments(ctx context.Context, jobID string) error
}

// ClipStore persists generated clip records.
type ClipStore interface {
	AddClip(ctx context.Context, clip *types.ClipSpec) error
	GetClip(ctx context.Context, id string) (*types.ClipSpec, error)
	UpdateClip(ctx context.Context, clip *types.ClipSpec) error
	ListClips(ctx context.Context, jobID string) ([]*types.ClipSpec, error)
	// DeleteClips removes all of a job's clips, mirroring DeleteSegments
	// for job restarts.
	DeleteClips(ctx context.Context, jobID string) error
}

// CredentialStore keeps per-account platform credentials, keyed by email.
type CredentialStore interface {
	GetCredential(ctx context.Context, accountEmail string) (*types.Credential, error)
	PutCredential(ctx context.Context, cred *types.Credential) error
}

// Store is the durable state surface the pipeline synchronizes on. Workers
// for distinct jobs share no mutable state beyond this.
type Store interface {
	JobStore
	SegmentStore
	ClipStore
	CredentialStore
}
