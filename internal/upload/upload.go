package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vgrishin/shortreel/internal/ports"
	"github.com/vgrishin/shortreel/internal/store"
	"github.com/vgrishin/shortreel/internal/types"
)

// Platform tag limits: entry count and comma-joined length.
const (
	maxTagEntries    = 15
	maxTagsJoinedLen = 500
)

var defaultHashtags = []string{"shorts", "viral", "trending", "entertainment"}

// Uploader drives the per-clip upload state machine. Each state change is
// persisted before the next step so a crash leaves the clip parkable.
type Uploader struct {
	Transport ports.UploadTransport
	Refresher ports.CredentialRefresher
	Creds     store.CredentialStore
	Clips     store.ClipStore

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func (u *Uploader) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now()
}

// UploadClip pushes one clip to the platform under the job's account
// identity. Failures are recorded on the clip (status + error text) and
// returned; the caller decides whether to continue with siblings.
func (u *Uploader) UploadClip(ctx context.Context, job *types.Job, clip *types.ClipSpec) error {
	if clip.OutputPath == "" {
		return u.failClip(ctx, clip, &ports.UploadError{ClipID: clip.ID, Err: errors.New("clip has no output file")})
	}
	if err := u.transitionClip(ctx, clip, types.UploadPending); err != nil {
		return err
	}

	cred, err := u.validCredential(ctx, job.AccountEmail)
	if err != nil {
		return u.failClip(ctx, clip, err)
	}

	meta := PrepareMetadata(clip, cred)

	if err := u.transitionClip(ctx, clip, types.Uploading); err != nil {
		return err
	}

	receipt, err := u.Transport.Upload(ctx, clip.OutputPath, meta, *cred, func(pct int) {
		slog.Debug("upload progress", "clip_id", clip.ID, "pct", pct)
	})
	if err != nil {
		return u.failClip(ctx, clip, err)
	}

	uploadedAt := u.now().UTC()
	clip.PlatformID = receipt.PlatformID
	clip.PlatformURL = receipt.PlatformURL
	clip.UploadedAt = &uploadedAt
	clip.UploadError = ""
	if err := types.TransitionUpload(clip, types.Uploaded); err != nil {
		return err
	}
	return u.Clips.UpdateClip(ctx, clip)
}

// validCredential returns a usable credential for the account, refreshing
// at most once when the stored token has expired. A refresh failure is a
// hard failure of the upload, not retried.
func (u *Uploader) validCredential(ctx context.Context, accountEmail string) (*types.Credential, error) {
	if accountEmail == "" {
		return nil, &ports.CredentialError{Account: accountEmail, Err: errors.New("job has no account identity")}
	}
	cred, err := u.Creds.GetCredential(ctx, accountEmail)
	if err != nil {
		return nil, &ports.CredentialError{Account: accountEmail, Err: err}
	}
	if !cred.Expired(u.now()) {
		return cred, nil
	}
	if u.Refresher == nil {
		return nil, &ports.CredentialError{Account: accountEmail, Err: errors.New("token expired and no refresher configured")}
	}
	fresh, err := u.Refresher.Refresh(ctx, *cred)
	if err != nil {
		return nil, &ports.CredentialError{Account: accountEmail, Err: fmt.Errorf("refresh: %w", err)}
	}
	fresh.UpdatedAt = u.now().UTC()
	if err := u.Creds.PutCredential(ctx, &fresh); err != nil {
		return nil, &ports.CredentialError{Account: accountEmail, Err: err}
	}
	return &fresh, nil
}

func (u *Uploader) transitionClip(ctx context.Context, clip *types.ClipSpec, to types.UploadStatus) error {
	if err := types.TransitionUpload(clip, to); err != nil {
		return err
	}
	return u.Clips.UpdateClip(ctx, clip)
}

func (u *Uploader) failClip(ctx context.Context, clip *types.ClipSpec, cause error) error {
	clip.UploadError = truncate(cause.Error(), 500)
	if err := types.TransitionUpload(clip, types.UploadFailed); err != nil {
		slog.Error("record clip failure", "clip_id", clip.ID, "err", err)
	}
	if err := u.Clips.UpdateClip(ctx, clip); err != nil {
		slog.Error("persist clip upload failure", "clip_id", clip.ID, "err", err)
	}
	return cause
}

// PrepareMetadata builds the platform payload for one clip, applying the
// account's upload defaults and the platform field limits.
func PrepareMetadata(clip *types.ClipSpec, cred *types.Credential) ports.UploadMetadata {
	privacy := "private"
	category := 24 // Entertainment
	tags := append([]string{}, clip.Tags...)

	if cred != nil {
		if cred.DefaultPrivacy != "" {
			privacy = cred.DefaultPrivacy
		}
		if cred.DefaultCategory != 0 {
			category = cred.DefaultCategory
		}
		if cred.AutoHashtags {
			tags = mergeTags(tags, defaultHashtags)
		}
	}
	// Merging can push a full tag list past the entry cap.
	if len(tags) > maxTagEntries {
		tags = tags[:maxTagEntries]
	}

	return ports.UploadMetadata{
		Title:         truncate(clip.Title, 100),
		Description:   truncate(clip.Description, 5000),
		Tags:          TruncateTags(tags, maxTagsJoinedLen),
		CategoryID:    fmt.Sprintf("%d", category),
		PrivacyStatus: privacy,
	}
}

// TruncateTags keeps the longest prefix of tags whose comma-joined length
// fits the limit, preserving original order.
func TruncateTags(tags []string, limit int) []string {
	if len(strings.Join(tags, ",")) <= limit {
		return tags
	}
	total := 0
	var out []string
	for _, tag := range tags {
		cost := len(tag)
		if len(out) > 0 {
			cost++ // comma
		}
		if total+cost > limit {
			break
		}
		out = append(out, tag)
		total += cost
	}
	return out
}

// mergeTags appends extras not already present, keeping first-seen order.
func mergeTags(tags, extras []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags)+len(extras))
	for _, t := range tags {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, t := range extras {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
