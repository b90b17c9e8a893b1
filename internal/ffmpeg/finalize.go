package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/naki0227/nue/internal/timeline"
)

// FinalizeJob concatenates rendered segments and applies the audio mix.
type FinalizeJob struct {
	Segments []string
	Mix      *timeline.MixPlan
	// ListDir receives the concat list file; callers pass the job's
	// scratch dir so the list is cleaned up with everything else.
	ListDir string
	Output  string
}

// Finalize runs the single concatenate + mix + remux invocation.
// Segments were fully re-encoded already, so the video stream is
// copied; only the mixed audio is encoded. Output duration is clamped
// to the planned total to protect against audio-layer drift.
func (e *Executor) Finalize(ctx context.Context, job FinalizeJob) error {
	if len(job.Segments) == 0 {
		return fmt.Errorf("no segments to concatenate")
	}

	listPath, err := writeConcatList(job.ListDir, job.Segments)
	if err != nil {
		return fmt.Errorf("failed to write concat list: %w", err)
	}

	e.logger.Info().
		Int("segments", len(job.Segments)).
		Str("output", job.Output).
		Bool("mix", job.Mix.HasMix()).
		Msg("finalizing")

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
	}

	for _, extra := range job.Mix.ExtraInputs {
		args = append(args, "-i", extra)
	}

	if job.Mix.HasMix() {
		args = append(args,
			"-filter_complex", job.Mix.FilterGraph,
			"-map", "0:v",
			"-map", "[aout]",
			"-c:v", "copy",
			"-c:a", "aac",
		)
	} else {
		// No layers to mix: the main track passes through unmodified.
		args = append(args, "-c", "copy")
	}

	args = append(args,
		"-t", timeline.FormatSeconds(job.Mix.Total),
		"-movflags", "+faststart",
		job.Output,
	)

	return e.Run(ctx, args)
}

// writeConcatList generates the file list the concat demuxer reads.
func writeConcatList(dir string, segments []string) (string, error) {
	f, err := os.CreateTemp(dir, "concat-*.txt")
	if err != nil {
		return "", err
	}
	defer f.Close()

	for _, seg := range segments {
		absPath, err := filepath.Abs(seg)
		if err != nil {
			return "", err
		}
		if _, err := fmt.Fprintf(f, "file '%s'\n", absPath); err != nil {
			return "", err
		}
	}

	return f.Name(), nil
}
