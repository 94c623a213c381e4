package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"github.com/vgrishin/shortreel/internal/domain/scoring"
	"github.com/vgrishin/shortreel/internal/ports"
	"github.com/vgrishin/shortreel/internal/ports/adapters/ffmpeg"
	"github.com/vgrishin/shortreel/internal/ports/adapters/oracle"
	"github.com/vgrishin/shortreel/internal/ports/adapters/whispercpp"
	"github.com/vgrishin/shortreel/internal/ports/adapters/ytdlp"
	"github.com/vgrishin/shortreel/internal/ports/adapters/youtube"
	"github.com/vgrishin/shortreel/internal/runner"
	"github.com/vgrishin/shortreel/internal/store"
	"github.com/vgrishin/shortreel/internal/types"
	"github.com/vgrishin/shortreel/internal/upload"
)

type Config struct {
	// WorkDir holds per-job downloads, audio and transcripts; OutDir clips.
	// If empty they default to ".work" and "out".
	WorkDir string
	OutDir  string

	// Redis connection; empty addr selects the in-memory store.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OracleAPIKey  string
	OracleModel   string
	OracleBaseURL string

	YtDlpPath   string
	FFmpegPath  string
	FFprobePath string

	WhisperBin   string
	WhisperModel string

	YouTubeClientID     string
	YouTubeClientSecret string
}

func (c Config) Validate() error {
	if c.WhisperBin == "" {
		return errors.New("whisper binary path is required")
	}
	if c.WhisperModel == "" {
		return errors.New("whisper model path is required")
	}
	if c.OracleBaseURL != "" {
		u, err := url.Parse(c.OracleBaseURL)
		if err != nil {
			return fmt.Errorf("invalid oracle base URL: %w", err)
		}
		if !u.IsAbs() || u.Host == "" {
			return fmt.Errorf("invalid oracle base URL %q: absolute URL with host is required", c.OracleBaseURL)
		}
		if strings.ToLower(u.Scheme) != "https" {
			return fmt.Errorf("invalid oracle base URL %q: https is required", c.OracleBaseURL)
		}
	}
	return nil
}

// SubmitOptions are the caller's processing preferences for one job.
type SubmitOptions struct {
	Quality      string
	AspectRatio  string
	AccountEmail string
	AutoUpload   bool
}

// App is the wired pipeline: store, runner and uploader share one set of
// adapters built from Config.
type App struct {
	Store    store.Store
	Runner   runner.Runner
	Uploader *upload.Uploader
}

func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = ".work"
	}
	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}

	var st store.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		st = store.NewRedis(client)
	} else {
		st = store.NewMemory()
	}

	video := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath)
	fetcher := ytdlp.New(cfg.YtDlpPath)
	transcriber := whispercpp.New(cfg.WhisperBin, cfg.WhisperModel, video)

	var scoreAdapter scoring.Adapter
	if cfg.OracleAPIKey != "" {
		llm := oracle.New(cfg.OracleAPIKey, cfg.OracleModel, cfg.OracleBaseURL)
		scoreAdapter = scoring.New(llm, llm)
	} else {
		// No oracle configured: the deterministic heuristic carries scoring.
		scoreAdapter = scoring.New(nil, nil)
	}

	uploader := &upload.Uploader{
		Transport: youtube.NewTransport(""),
		Refresher: youtube.NewRefresher(cfg.YouTubeClientID, cfg.YouTubeClientSecret, ""),
		Creds:     st,
		Clips:     st,
	}

	run := runner.New(runner.Deps{
		Store:      st,
		Fetcher:    fetcher,
		Transcribe: transcriber,
		Scoring:    scoreAdapter,
		Transcoder: video,
		Uploader:   uploader,
		WorkDir:    workDir,
		OutDir:     outDir,
	})

	return &App{Store: st, Runner: run, Uploader: uploader}, nil
}

// Submit creates a new job in Pending and persists it. The caller decides
// when to run it.
func (a *App) Submit(ctx context.Context, sourceURL string, opts SubmitOptions) (*types.Job, error) {
	if strings.TrimSpace(sourceURL) == "" {
		return nil, errors.New("source URL is empty")
	}
	quality := opts.Quality
	if quality == "" {
		quality = "1080p"
	}
	aspect := opts.AspectRatio
	if aspect == "" {
		aspect = "9:16"
	}
	now := time.Now().UTC()
	job := &types.Job{
		ID:           uuid.NewString(),
		SourceURL:    sourceURL,
		Stage:        types.StagePending,
		Progress:     types.StageProgress(types.StagePending),
		Quality:      quality,
		AspectRatio:  aspect,
		AccountEmail: opts.AccountEmail,
		AutoUpload:   opts.AutoUpload,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.Store.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// ensure adapters implement ports
var _ ports.Fetcher = (*ytdlp.Adapter)(nil)
var _ ports.Transcriber = (*whispercpp.Adapter)(nil)
var _ ports.Transcoder = (*ffmpeg.Adapter)(nil)
var _ ports.ScoringOracle = (*oracle.Adapter)(nil)
var _ ports.MetadataOracle = (*oracle.Adapter)(nil)
var _ ports.UploadTransport = (*youtube.Transport)(nil)
var _ ports.CredentialRefresher = (*youtube.Refresher)(nil)
