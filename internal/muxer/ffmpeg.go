// Package muxer merges downloaded video and audio tracks with ffmpeg.
package muxer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/famomatic/nicov1/internal/types"
)

// Muxer defines the interface for media muxing operations.
type Muxer interface {
	Available() bool
	Merge(ctx context.Context, videoPath, audioPath, outputPath string, meta types.Metadata) error
}

// FFmpegMuxer implements Muxer using the ffmpeg command line tool.
type FFmpegMuxer struct {
	Path string
}

// NewFFmpegMuxer returns a new FFmpegMuxer.
// If path is empty, it looks for "ffmpeg" in PATH.
func NewFFmpegMuxer(path string) *FFmpegMuxer {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpegMuxer{Path: path}
}

// Available checks if ffmpeg is executable.
func (f *FFmpegMuxer) Available() bool {
	_, err := exec.LookPath(f.Path)
	return err == nil
}

// Merge remuxes the video and audio tracks into outputPath without
// re-encoding, tagging the result with meta. The input files are left in
// place; the caller decides whether to remove them.
func (f *FFmpegMuxer) Merge(ctx context.Context, videoPath, audioPath, outputPath string, meta types.Metadata) error {
	args := buildMergeArgs(videoPath, audioPath, outputPath, meta)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.Path, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := lastLine(stderr.String()); msg != "" {
			return fmt.Errorf("ffmpeg merge failed: %w: %s", err, msg)
		}
		return fmt.Errorf("ffmpeg merge failed: %w", err)
	}
	return nil
}

// buildMergeArgs assembles the ffmpeg invocation:
// ffmpeg -i video -i audio -c:v copy -c:a copy -metadata ... -y output
func buildMergeArgs(videoPath, audioPath, outputPath string, meta types.Metadata) []string {
	args := []string{
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "copy",
	}
	if meta.Title != "" {
		args = append(args, "-metadata", "title="+meta.Title)
	}
	if meta.Artist != "" {
		args = append(args, "-metadata", "artist="+meta.Artist)
	}
	if meta.Date != "" {
		args = append(args, "-metadata", "date="+meta.Date)
	}
	if meta.Description != "" {
		args = append(args, "-metadata", "comment="+meta.Description)
	}
	return append(args, "-y", outputPath)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
