package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/vgrishin/shortreel/internal/pipeline"
	"github.com/vgrishin/shortreel/internal/types"
)

const jobTimeout = 3 * time.Hour

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <url>",
		Short: "Download, analyze and cut one video into shorts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			quality, _ := cmd.Flags().GetString("quality")
			aspect, _ := cmd.Flags().GetString("aspect")
			account, _ := cmd.Flags().GetString("account")
			autoUpload, _ := cmd.Flags().GetBool("upload")

			app, err := newApp()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), jobTimeout)
			defer cancel()

			job, err := app.Submit(ctx, args[0], pipeline.SubmitOptions{
				Quality:      quality,
				AspectRatio:  aspect,
				AccountEmail: account,
				AutoUpload:   autoUpload,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "job %s created\n", job.ID)

			if err := app.Runner.Run(ctx, job.ID); err != nil {
				return fmt.Errorf("job %s: %w", job.ID, err)
			}
			return printStatus(ctx, cmd, app, job.ID)
		},
	}
	cmd.Flags().String("quality", "1080p", "Source quality preference (1080p, 720p, 480p, best)")
	cmd.Flags().String("aspect", "9:16", "Output aspect ratio (9:16, 1:1, 4:5)")
	cmd.Flags().String("account", "", "Account email whose credentials upload the clips")
	cmd.Flags().Bool("upload", false, "Upload generated clips after editing")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show a job's stage, progress and clips",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			return printStatus(ctx, cmd, app, args[0])
		},
	}
}

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <job-id>",
		Short: "Upload (or re-upload) a completed job's clips",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), jobTimeout)
			defer cancel()

			job, err := app.Store.GetJob(ctx, args[0])
			if err != nil {
				return err
			}
			clips, err := app.Store.ListClips(ctx, job.ID)
			if err != nil {
				return err
			}
			uploaded := 0
			for _, clip := range clips {
				if clip.UploadStatus == types.Uploaded {
					continue
				}
				if err := app.Uploader.UploadClip(ctx, job, clip); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "clip %s: %v\n", clip.ID, err)
					continue
				}
				uploaded++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %d of %d clips\n", uploaded, len(clips))
			return nil
		},
	}
}

func printStatus(ctx context.Context, cmd *cobra.Command, app *pipeline.App, jobID string) error {
	job, err := app.Store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "job %s  stage=%s  progress=%d%%\n", job.ID, job.Stage, job.Progress)
	if job.Title != "" {
		fmt.Fprintf(out, "  title: %s\n", job.Title)
	}
	if job.Error != "" {
		fmt.Fprintf(out, "  error: %s\n", job.Error)
	}
	clips, err := app.Store.ListClips(ctx, jobID)
	if err != nil {
		return err
	}
	for _, clip := range clips {
		fmt.Fprintf(out, "  clip %s  [%.1fs-%.1fs]  %s  upload=%s", clip.ID, clip.Start, clip.End, clip.Title, clip.UploadStatus)
		if clip.PlatformURL != "" {
			fmt.Fprintf(out, "  %s", clip.PlatformURL)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func newApp() (*pipeline.App, error) {
	cfg := pipeline.Config{
		WorkDir: getenvDefault("SHORTREEL_WORK_DIR", ".work"),
		OutDir:  getenvDefault("SHORTREEL_OUT_DIR", "out"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       atoiDefault(os.Getenv("REDIS_DB"), 0),

		OracleAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OracleModel:   os.Getenv("SHORTREEL_ORACLE_MODEL"),
		OracleBaseURL: os.Getenv("SHORTREEL_ORACLE_BASE_URL"),

		YtDlpPath:   getenvDefault("YTDLP_PATH", "yt-dlp"),
		FFmpegPath:  getenvDefault("FFMPEG_PATH", "ffmpeg"),
		FFprobePath: getenvDefault("FFPROBE_PATH", "ffprobe"),

		WhisperBin:   getenvDefault("WHISPER_BIN", ".cache/bin/whisper.cpp"),
		WhisperModel: getenvDefault("WHISPER_MODEL", ".cache/models/ggml-base.bin"),

		YouTubeClientID:     os.Getenv("YOUTUBE_CLIENT_ID"),
		YouTubeClientSecret: os.Getenv("YOUTUBE_CLIENT_SECRET"),
	}
	app, err := pipeline.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return app, nil
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
