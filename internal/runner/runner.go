package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vgrishin/shortreel/internal/domain/scoring"
	"github.com/vgrishin/shortreel/internal/domain/selection"
	"github.com/vgrishin/shortreel/internal/domain/subtitles"
	"github.com/vgrishin/shortreel/internal/ports"
	"github.com/vgrishin/shortreel/internal/store"
	"github.com/vgrishin/shortreel/internal/types"
	"github.com/vgrishin/shortreel/internal/upload"
)

// Segments shorter than this many characters carry too little text to score.
const minSegmentTextLen = 10

// Deps are the collaborators the runner sequences. Everything long-running
// sits behind a port; the store is the only shared state between jobs.
type Deps struct {
	Store      store.Store
	Fetcher    ports.Fetcher
	Transcribe ports.Transcriber
	Scoring    scoring.Adapter
	Transcoder ports.Transcoder
	Uploader   *upload.Uploader

	// WorkDir holds per-job downloads and transcripts; OutDir per-job clips.
	WorkDir string
	OutDir  string
}

type Runner struct{ d Deps }

func New(d Deps) Runner { return Runner{d: d} }

// Run drives one job through the pipeline stages in order. Each transition
// is persisted before the stage's work starts; any stage failure marks the
// job Failed with progress 0 and a sanitized error, leaving earlier stage
// artifacts in place for inspection. A Failed job restarts from Pending and
// re-runs every stage; outputs are keyed by job id and overwritten.
func (r Runner) Run(ctx context.Context, jobID string) error {
	job, err := r.d.Store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Stage == types.StageCompleted {
		return fmt.Errorf("job %s already completed", jobID)
	}
	if job.Stage != types.StagePending {
		// Retry or crash recovery: restart from scratch.
		if job.Stage == types.StageFailed {
			if err := types.TransitionStage(job, types.StagePending); err != nil {
				return err
			}
		} else {
			job.Stage = types.StagePending
			job.Progress = types.StageProgress(types.StagePending)
			job.Error = ""
		}
		// The previous attempt's segment and clip records must not survive
		// into reselection; transcription appends, it does not replace.
		if err := r.d.Store.DeleteSegments(ctx, job.ID); err != nil {
			return err
		}
		if err := r.d.Store.DeleteClips(ctx, job.ID); err != nil {
			return err
		}
		if err := r.persist(ctx, job); err != nil {
			return err
		}
		slog.Info("restarting job from pending", "job_id", job.ID)
	}

	if err := r.transition(ctx, job, types.StageDownloading); err != nil {
		return err
	}
	videoPath, err := r.download(ctx, job)
	if err != nil {
		return r.fail(ctx, job, err)
	}

	if err := r.transition(ctx, job, types.StageTranscribing); err != nil {
		return err
	}
	if err := r.transcribe(ctx, job, videoPath); err != nil {
		return r.fail(ctx, job, err)
	}

	if err := r.transition(ctx, job, types.StageAnalyzing); err != nil {
		return err
	}
	selected, err := r.analyze(ctx, job)
	if err != nil {
		return r.fail(ctx, job, err)
	}

	if err := r.transition(ctx, job, types.StageEditing); err != nil {
		return err
	}
	clips, err := r.edit(ctx, job, videoPath, selected)
	if err != nil {
		return r.fail(ctx, job, err)
	}

	if job.AutoUpload && job.AccountEmail != "" && r.d.Uploader != nil {
		if err := r.transition(ctx, job, types.StageUploading); err != nil {
			return err
		}
		r.uploadClips(ctx, job, clips)
	}

	if err := r.transition(ctx, job, types.StageCompleted); err != nil {
		return err
	}
	slog.Info("job completed", "job_id", job.ID, "clips", len(clips))
	return nil
}

func (r Runner) download(ctx context.Context, job *types.Job) (string, error) {
	destDir := filepath.Join(r.d.WorkDir, job.ID)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	res, err := r.d.Fetcher.Fetch(ctx, job.SourceURL, job.Quality, destDir)
	if err != nil {
		return "", err
	}
	job.Title = truncate(res.Title, 200)
	job.DurationSec = res.DurationSec
	job.VideoPath = res.LocalPath
	job.SourceInfo = &res.Info
	if err := r.persist(ctx, job); err != nil {
		return "", err
	}
	slog.Info("downloaded source", "job_id", job.ID, "path", res.LocalPath, "duration_sec", res.DurationSec)
	return res.LocalPath, nil
}

func (r Runner) transcribe(ctx context.Context, job *types.Job, videoPath string) error {
	workDir := filepath.Join(r.d.WorkDir, job.ID)
	tr, err := r.d.Transcribe.Transcribe(ctx, videoPath, workDir)
	if err != nil {
		return err
	}

	transcriptPath := filepath.Join(workDir, "transcript.json")
	b, err := json.MarshalIndent(tr, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(transcriptPath, b, 0o644); err != nil {
		return err
	}
	job.TranscriptPath = transcriptPath
	if wav := filepath.Join(workDir, "audio.wav"); fileExists(wav) {
		job.AudioPath = wav
	}
	if err := r.persist(ctx, job); err != nil {
		return err
	}

	stored := 0
	for _, ts := range tr.Segments {
		text := strings.TrimSpace(ts.Text)
		if len(text) <= minSegmentTextLen {
			continue
		}
		if ts.End <= ts.Start || ts.Start < 0 {
			continue
		}
		seg := &types.Segment{
			ID:    uuid.NewString(),
			JobID: job.ID,
			Start: ts.Start,
			End:   ts.End,
			Text:  text,
		}
		if err := r.d.Store.AppendSegment(ctx, seg); err != nil {
			return err
		}
		stored++
	}
	if stored == 0 {
		return &ports.TranscribeError{Path: videoPath, Err: errors.New("transcript has no usable segments")}
	}
	slog.Info("transcript stored", "job_id", job.ID, "segments", stored)
	return nil
}

func (r Runner) analyze(ctx context.Context, job *types.Job) ([]*types.Segment, error) {
	segs, err := r.d.Store.ListSegments(ctx, job.ID)
	if err != nil {
		return nil, err
	}

	selected, scoreErr := r.scoreAndSelect(ctx, job, segs)
	if scoreErr != nil {
		// Scoring is unusable: degrade to the duration-only rescue tier
		// rather than failing the job with segments still on hand.
		slog.Error("content analysis failed, selecting by duration only", "job_id", job.ID, "err", scoreErr)
		selected = selection.Select(segs, true)
		if len(selected) == 0 {
			return nil, scoreErr
		}
	}
	if len(selected) == 0 {
		return nil, errors.New("no segment satisfies even relaxed selection constraints")
	}
	// Relaxed tiers force placeholder scores; persist them so the stored
	// records match what downstream stages carry over.
	if err := r.d.Store.UpdateScores(ctx, job.ID, selected); err != nil {
		return nil, err
	}
	slog.Info("segments selected", "job_id", job.ID, "selected", len(selected), "scored", len(segs))
	return selected, nil
}

func (r Runner) scoreAndSelect(ctx context.Context, job *types.Job, segs []*types.Segment) ([]*types.Segment, error) {
	for _, seg := range segs {
		res := r.d.Scoring.Analyze(ctx, seg.Text)
		scoring.Apply(seg, res)
	}
	if err := r.d.Store.UpdateScores(ctx, job.ID, segs); err != nil {
		return nil, err
	}
	return selection.Select(segs, false), nil
}

// edit generates one clip per selected segment. Generation is independent
// per segment (distinct time windows, distinct output paths) and runs
// concurrently; aggregation of results is mutex-guarded. One clip failing
// is logged and skipped; all clips failing fails the stage.
func (r Runner) edit(ctx context.Context, job *types.Job, videoPath string, selected []*types.Segment) ([]*types.ClipSpec, error) {
	outDir := filepath.Join(r.d.OutDir, job.ID)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}

	// Subtitle sidecars draw on the whole transcript, not just the
	// selected windows.
	all, err := r.d.Store.ListSegments(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	transcript := make([]types.TranscriptSegment, len(all))
	for i, s := range all {
		transcript[i] = types.TranscriptSegment{Start: s.Start, End: s.End, Text: s.Text}
	}

	var (
		mu    sync.Mutex
		clips []*types.ClipSpec
		wg    sync.WaitGroup
	)
	for i, seg := range selected {
		wg.Add(1)
		go func(num int, seg *types.Segment) {
			defer wg.Done()
			clip, err := r.makeClip(ctx, job, videoPath, outDir, num, seg, transcript)
			if err != nil {
				slog.Error("clip generation skipped", "job_id", job.ID, "clip_num", num, "err", err)
				return
			}
			mu.Lock()
			clips = append(clips, clip)
			mu.Unlock()
		}(i+1, seg)
	}
	wg.Wait()

	if len(clips) == 0 {
		return nil, &ports.TranscodeError{Path: videoPath, Err: errors.New("all clip generations failed")}
	}
	for _, clip := range clips {
		if err := r.d.Store.AddClip(ctx, clip); err != nil {
			return nil, err
		}
	}
	slog.Info("clips generated", "job_id", job.ID, "ok", len(clips), "selected", len(selected))
	return clips, nil
}

func (r Runner) makeClip(ctx context.Context, job *types.Job, videoPath, outDir string, num int, seg *types.Segment, transcript []types.TranscriptSegment) (*types.ClipSpec, error) {
	meta := r.d.Scoring.GenerateMetadata(ctx, seg.Text, job.Title)

	outPath := filepath.Join(outDir, fmt.Sprintf("short_%d.mp4", num))
	if err := r.d.Transcoder.MakeClip(ctx, videoPath, seg.Start, seg.End, job.AspectRatio, outPath); err != nil {
		return nil, err
	}

	subPath := filepath.Join(outDir, fmt.Sprintf("short_%d.ass", num))
	if err := os.WriteFile(subPath, []byte(subtitles.Render(transcript, seg.Start, seg.End)), 0o644); err != nil {
		slog.Error("subtitle sidecar not written", "job_id", job.ID, "clip_num", num, "err", err)
		subPath = ""
	}

	var fileSize int64
	if fi, err := os.Stat(outPath); err == nil {
		fileSize = fi.Size()
	}

	return &types.ClipSpec{
		ID:              uuid.NewString(),
		JobID:           job.ID,
		Start:           seg.Start,
		End:             seg.End,
		Title:           meta.Title,
		Description:     meta.Description,
		Tags:            meta.Tags,
		Duration:        seg.Duration(),
		OutputPath:      outPath,
		SubtitlePath:    subPath,
		FileSize:        fileSize,
		EngagementScore: seg.Overall,
		ViralPotential:  seg.ViralPotential,
		Rationale:       seg.Rationale,
		UploadStatus:    types.UploadNotUploaded,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// uploadClips attempts each clip independently; a failed upload is recorded
// on that clip and does not abort siblings or the job.
func (r Runner) uploadClips(ctx context.Context, job *types.Job, clips []*types.ClipSpec) {
	for _, clip := range clips {
		if err := r.d.Uploader.UploadClip(ctx, job, clip); err != nil {
			slog.Error("clip upload failed", "job_id", job.ID, "clip_id", clip.ID, "err", err)
		}
	}
}

func (r Runner) transition(ctx context.Context, job *types.Job, to types.Stage) error {
	if err := types.TransitionStage(job, to); err != nil {
		return err
	}
	if err := r.persist(ctx, job); err != nil {
		return err
	}
	slog.Info("stage transition", "job_id", job.ID, "stage", to, "progress", job.Progress)
	return nil
}

// fail marks the job Failed with progress 0 and sanitized error text in one
// persisted mutation, then surfaces the original cause.
func (r Runner) fail(ctx context.Context, job *types.Job, cause error) error {
	if terr := types.TransitionStage(job, types.StageFailed); terr != nil {
		slog.Error("cannot mark job failed", "job_id", job.ID, "err", terr)
		return cause
	}
	job.Error = sanitizeErrorText(cause.Error())
	if err := r.persist(ctx, job); err != nil {
		slog.Error("persist job failure state", "job_id", job.ID, "err", err)
	}
	slog.Error("job failed", "job_id", job.ID, "err", cause)
	return cause
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func (r Runner) persist(ctx context.Context, job *types.Job) error {
	job.UpdatedAt = time.Now().UTC()
	return r.d.Store.UpdateJob(ctx, job)
}
