package ffmpeg

import (
	"context"
	"strings"

	"github.com/naki0227/nue/internal/timeline"
)

// RenderSegment renders one independent clip with its filters baked in.
// The -ss is placed before -i: input seeking jumps to the nearest
// keyframe and decodes forward from there, instead of frame-walking the
// whole file the way output seeking does.
func (e *Executor) RenderSegment(ctx context.Context, job timeline.SegmentJob) error {
	e.logger.Info().
		Int("segment", job.Index).
		Str("output", job.Output).
		Float64("start", job.Start).
		Float64("duration", job.Duration).
		Msg("rendering segment")

	args := []string{
		"-ss", timeline.FormatSeconds(job.Start),
		"-i", job.Source,
		"-t", timeline.FormatSeconds(job.Duration),
	}

	if len(job.Filters) > 0 {
		args = append(args, "-vf", strings.Join(job.Filters, ","))
	}

	// Filters are burned in, so the segment is always re-encoded.
	args = append(args, e.codecArgs()...)
	args = append(args, job.Output)

	return e.Run(ctx, args)
}
