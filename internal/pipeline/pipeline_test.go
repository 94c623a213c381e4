package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/vgrishin/shortreel/internal/types"
)

func validConfig() Config {
	return Config{
		WhisperBin:   "/opt/whisper/main",
		WhisperModel: "/opt/whisper/ggml-base.bin",
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"missing whisper bin", func(c *Config) { c.WhisperBin = "" }, "whisper binary"},
		{"missing whisper model", func(c *Config) { c.WhisperModel = "" }, "whisper model"},
		{"ok oracle url", func(c *Config) { c.OracleBaseURL = "https://gateway.example.com/v1" }, ""},
		{"relative oracle url", func(c *Config) { c.OracleBaseURL = "/v1" }, "absolute"},
		{"http oracle url", func(c *Config) { c.OracleBaseURL = "http://gateway.example.com/v1" }, "https"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := validConfig()
			c.mutate(&cfg)
			err := cfg.Validate()
			if c.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), c.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, c.wantErr)
			}
		})
	}
}

func TestSubmit(t *testing.T) {
	app, err := New(validConfig())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	job, err := app.Submit(ctx, "https://example.com/watch?v=1", SubmitOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if job.ID == "" {
		t.Fatal("job has no id")
	}
	if job.Stage != types.StagePending || job.Progress != 0 {
		t.Fatalf("new job state %s/%d", job.Stage, job.Progress)
	}
	if job.Quality != "1080p" || job.AspectRatio != "9:16" {
		t.Fatalf("defaults not applied: %q/%q", job.Quality, job.AspectRatio)
	}

	stored, err := app.Store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("submitted job not persisted: %v", err)
	}
	if stored.SourceURL != job.SourceURL {
		t.Fatalf("stored url %q", stored.SourceURL)
	}

	if _, err := app.Submit(ctx, "   ", SubmitOptions{}); err == nil {
		t.Fatal("blank url accepted")
	}
}

func TestSubmit_PreferencesKept(t *testing.T) {
	app, err := New(validConfig())
	if err != nil {
		t.Fatal(err)
	}
	job, err := app.Submit(context.Background(), "https://example.com/v", SubmitOptions{
		Quality: "720p", AspectRatio: "1:1", AccountEmail: "a@b.c", AutoUpload: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if job.Quality != "720p" || job.AspectRatio != "1:1" || job.AccountEmail != "a@b.c" || !job.AutoUpload {
		t.Fatalf("preferences lost: %+v", job)
	}
}
