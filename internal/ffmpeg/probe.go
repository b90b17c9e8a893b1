package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
)

// HasAudio reports whether the file contains at least one audio stream.
func (e *Executor) HasAudio(ctx context.Context, path string) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("file path is required")
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a",
		path,
	}

	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe struct {
		Streams []struct {
			CodecType string `json:"codec_type"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(output, &probe); err != nil {
		return false, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	return len(probe.Streams) > 0, nil
}
