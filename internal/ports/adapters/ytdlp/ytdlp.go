package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/vgrishin/shortreel/internal/ports"
	"github.com/vgrishin/shortreel/internal/types"
)

// Format selectors per quality preference. 1080p is pinned hard because
// vertical reframing crops into the image; lower source resolution shows.
var qualityFormats = map[string]string{
	"1080p": "137+140/bestvideo[height=1080]+bestaudio[ext=m4a]/bestvideo[height>=1080]+bestaudio/best[height>=1080]/best",
	"720p":  "136+140/bestvideo[height=720]+bestaudio[ext=m4a]/bestvideo[height>=720]+bestaudio/best[height>=720]/best",
	"480p":  "bestvideo[height=480]+bestaudio[ext=m4a]/bestvideo[height>=480]+bestaudio/best[height>=480]/best",
	"best":  "137+140/bestvideo[height=1080]+bestaudio[ext=m4a]/bestvideo[height>=1080]+bestaudio/best",
}

type Adapter struct {
	bin string
}

func New(binPath string) *Adapter {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &Adapter{bin: binPath}
}

// Fetch probes the source for metadata, then downloads it into destDir as
// mp4. Output files are named source.<ext> so a retried job overwrites its
// previous download.
func (a *Adapter) Fetch(ctx context.Context, sourceURL, quality, destDir string) (types.FetchResult, error) {
	info, err := a.probe(ctx, sourceURL)
	if err != nil {
		return types.FetchResult{}, &ports.FetchError{URL: sourceURL, Err: err}
	}

	format, ok := qualityFormats[quality]
	if !ok {
		format = qualityFormats["1080p"]
	}

	outTemplate := filepath.Join(destDir, "source.%(ext)s")
	cmd := exec.CommandContext(ctx, a.bin,
		"-f", format,
		"-o", outTemplate,
		"--no-playlist",
		"--merge-output-format", "mp4",
		sourceURL,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.FetchResult{}, &ports.FetchError{URL: sourceURL, Err: fmt.Errorf("%w\n%s", err, tail(string(b), 400))}
	}

	localPath, err := findDownloaded(destDir)
	if err != nil {
		return types.FetchResult{}, &ports.FetchError{URL: sourceURL, Err: err}
	}

	info.LocalPath = localPath
	return info, nil
}

func (a *Adapter) probe(ctx context.Context, sourceURL string) (types.FetchResult, error) {
	cmd := exec.CommandContext(ctx, a.bin, "-J", "--no-playlist", sourceURL)
	b, err := cmd.Output()
	if err != nil {
		return types.FetchResult{}, fmt.Errorf("probe: %w", err)
	}
	doc := string(b)
	if !gjson.Valid(doc) {
		return types.FetchResult{}, errors.New("probe: invalid metadata JSON")
	}
	title := gjson.Get(doc, "title").String()
	if title == "" {
		title = "Unknown Title"
	}
	return types.FetchResult{
		Title:       title,
		DurationSec: int(gjson.Get(doc, "duration").Int()),
		Info: types.SourceInfo{
			Uploader:  gjson.Get(doc, "uploader").String(),
			ViewCount: gjson.Get(doc, "view_count").Int(),
			Width:     int(gjson.Get(doc, "width").Int()),
			Height:    int(gjson.Get(doc, "height").Int()),
			FPS:       gjson.Get(doc, "fps").Float(),
		},
	}, nil
}

func findDownloaded(destDir string) (string, error) {
	entries, err := os.ReadDir(destDir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "source.") {
			switch filepath.Ext(name) {
			case ".mp4", ".webm", ".mkv", ".avi":
				return filepath.Join(destDir, name), nil
			}
		}
	}
	return "", errors.New("downloaded video file not found")
}

func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
