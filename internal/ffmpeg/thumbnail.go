package ffmpeg

import (
	"context"
	"fmt"

	"github.com/naki0227/nue/internal/timeline"
)

// ThumbnailJob extracts one still from the original source video.
type ThumbnailJob struct {
	Source    string
	Timestamp float64
	Text      string
	Color     string
	Output    string
}

// Thumbnail seeks into the source, boosts saturation and contrast, lays
// a large centered title over the frame, and writes exactly one image.
func (e *Executor) Thumbnail(ctx context.Context, job ThumbnailJob) error {
	e.logger.Info().
		Str("source", job.Source).
		Str("output", job.Output).
		Float64("timestamp", job.Timestamp).
		Msg("extracting thumbnail")

	filters := "eq=saturation=1.4:contrast=1.1"
	if job.Text != "" {
		filters += fmt.Sprintf(
			",drawtext=text='%s':font='DejaVu Sans':fontsize=120:fontcolor=%s:borderw=6:bordercolor=black:x=(w-text_w)/2:y=(h-text_h)/2",
			timeline.EscapeText(job.Text), thumbnailColor(job.Color),
		)
	}

	args := []string{
		"-ss", timeline.FormatSeconds(job.Timestamp),
		"-i", job.Source,
		"-vf", filters,
		"-frames:v", "1",
		job.Output,
	}

	return e.Run(ctx, args)
}

// thumbnailColor resolves the title color from the small fixed palette.
func thumbnailColor(name string) string {
	switch name {
	case "red", "yellow", "white":
		return name
	default:
		return "white"
	}
}
