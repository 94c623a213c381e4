package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/vgrishin/shortreel/internal/ports"
	"github.com/vgrishin/shortreel/internal/types"
)

// AudioExtractor prepares the mono 16 kHz track whisper.cpp consumes.
type AudioExtractor interface {
	ExtractAudioMono16k(ctx context.Context, inPath, outWav string) error
}

type Adapter struct {
	bin   string
	model string
	audio AudioExtractor
}

func New(binPath, modelPath string, audio AudioExtractor) *Adapter {
	return &Adapter{bin: binPath, model: modelPath, audio: audio}
}

func (a *Adapter) Transcribe(ctx context.Context, mediaPath, workDir string) (types.Transcript, error) {
	wav := filepath.Join(workDir, "audio.wav")
	if err := a.audio.ExtractAudioMono16k(ctx, mediaPath, wav); err != nil {
		return types.Transcript{}, &ports.TranscribeError{Path: mediaPath, Err: err}
	}

	outPrefix := filepath.Join(workDir, "whisper")
	cmd := exec.CommandContext(ctx, a.bin,
		"-m", a.model,
		"-f", wav,
		"-oj",
		"-of", outPrefix,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.Transcript{}, &ports.TranscribeError{Path: mediaPath, Err: fmt.Errorf("whisper.cpp: %w\n%s", err, string(b))}
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return types.Transcript{}, &ports.TranscribeError{Path: mediaPath, Err: err}
	}

	var raw struct {
		Segments []struct {
			Start float64 `json:"start"`
			End   float64 `json:"end"`
			Text  string  `json:"text"`
		} `json:"segments"`
		Language string `json:"language"`
	}
	if err := json.Unmarshal(jb, &raw); err != nil {
		return types.Transcript{}, &ports.TranscribeError{Path: mediaPath, Err: err}
	}

	tr := types.Transcript{Language: raw.Language}
	for _, s := range raw.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		tr.Segments = append(tr.Segments, types.TranscriptSegment{Start: s.Start, End: s.End, Text: text})
		if s.End > tr.DurationSec {
			tr.DurationSec = s.End
		}
	}
	return tr, nil
}
