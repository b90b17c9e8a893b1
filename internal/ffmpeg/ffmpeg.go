// Package ffmpeg binds the render core to the external media engine.
// The contract is deliberately narrow: paths, time ranges, and filter
// descriptions in; an encoded artifact or a diagnostic-carrying error
// out. Nothing here inspects media beyond what ffprobe reports.
package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/naki0227/nue/internal/config"
)

// diagLines is how much trailing engine output an error carries.
const diagLines = 20

// Executor handles all ffmpeg operations.
type Executor struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
	threads     int
	preset      string
	crf         int
}

// New creates an executor, resolving both binaries up front so a missing
// install fails at startup rather than mid-job.
func New(logger zerolog.Logger, cfg config.FFmpegConfig) (*Executor, error) {
	ffmpegPath, err := exec.LookPath(cfg.BinaryPath)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	ffprobePath, err := exec.LookPath(cfg.ProbePath)
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found: %w", err)
	}

	return &Executor{
		logger:      logger.With().Str("component", "ffmpeg").Logger(),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		threads:     cfg.Threads,
		preset:      cfg.Preset,
		crf:         cfg.CRF,
	}, nil
}

// Run executes ffmpeg with the given arguments. On failure the returned
// error carries the tail of the engine's stderr, which is where ffmpeg
// puts its diagnostics.
func (e *Executor) Run(ctx context.Context, args []string) error {
	baseArgs := []string{"-y", "-hide_banner", "-loglevel", "error"}
	if e.threads > 0 {
		baseArgs = append(baseArgs, "-threads", fmt.Sprintf("%d", e.threads))
	}
	args = append(baseArgs, args...)

	e.logger.Debug().Strs("args", args).Msg("executing ffmpeg")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	var tail []string
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		e.logger.Debug().Str("ffmpeg", line).Msg("engine output")
		tail = append(tail, line)
		if len(tail) > diagLines {
			tail = tail[1:]
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, strings.Join(tail, "\n"))
	}

	return nil
}

func (e *Executor) codecArgs() []string {
	return []string{
		"-c:v", "libx264",
		"-preset", e.preset,
		"-crf", fmt.Sprintf("%d", e.crf),
		"-c:a", "aac",
	}
}
