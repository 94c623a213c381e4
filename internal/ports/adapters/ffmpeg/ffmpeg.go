package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/vgrishin/shortreel/internal/ports"
)

// Ceiling for a single clip encode.
const clipTimeout = 300 * time.Second

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// MakeClip cuts the [startSec,endSec) window out of the source and re-frames
// it to the fixed vertical dimensions for the aspect ratio: scale up to
// cover, then center-crop.
func (a *Adapter) MakeClip(ctx context.Context, inPath string, startSec, endSec float64, aspectRatio, outPath string) error {
	if endSec <= startSec {
		return &ports.TranscodeError{Path: inPath, Err: fmt.Errorf("invalid window [%.3f,%.3f]", startSec, endSec)}
	}
	w, h := TargetDims(aspectRatio)

	ctx, cancel := context.WithTimeout(ctx, clipTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", inPath,
		"-ss", fmtSeconds(startSec),
		"-t", fmtSeconds(endSec-startSec),
		"-vf", fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d", w, h, w, h),
		"-c:v", "libx264",
		"-c:a", "aac",
		"-preset", "fast",
		"-crf", "23",
		"-movflags", "+faststart",
		outPath,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return &ports.TranscodeError{Path: inPath, Err: fmt.Errorf("timed out after %s", clipTimeout)}
		}
		return &ports.TranscodeError{Path: inPath, Err: fmt.Errorf("%w\n%s", err, string(b))}
	}
	return nil
}

// ExtractAudioMono16k pulls a mono 16 kHz WAV track out of the source, the
// sample format speech recognizers expect.
func (a *Adapter) ExtractAudioMono16k(ctx context.Context, inPath, outWav string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", inPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		outWav,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) ProbeDuration(ctx context.Context, inPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		inPath,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return sec, nil
}

// TargetDims maps an aspect-ratio preference to fixed output pixel
// dimensions. Unknown ratios default to vertical 9:16.
func TargetDims(aspectRatio string) (int, int) {
	switch aspectRatio {
	case "9:16":
		return 1080, 1920
	case "1:1":
		return 1080, 1080
	case "4:5":
		return 1080, 1350
	default:
		return 1080, 1920
	}
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
