package client

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/famomatic/nicov1/internal/downloader"
	"github.com/famomatic/nicov1/internal/hls"
	"github.com/famomatic/nicov1/internal/types"
	"github.com/famomatic/nicov1/internal/watch"
)

// DownloadOptions controls a Download call.
type DownloadOptions struct {
	// Quality is the video quality preference, in the same form
	// ResolveStream accepts. Empty selects the best available.
	Quality string

	// OutputPath is the merged output file. Empty writes "<videoID>.mp4"
	// in the working directory; a path without an extension gets ".mp4"
	// appended. Parent directories are created as needed.
	OutputPath string

	// KeepIntermediateFiles leaves the per-track files on disk after a
	// successful merge instead of deleting them.
	KeepIntermediateFiles bool
}

// Download fetches the selected video and audio tracks, merges them with
// ffmpeg and writes the result to the output path. The merge tool is
// checked before any network traffic so a missing ffmpeg fails fast, and
// intermediates are removed unless callers ask to keep them.
func (c *Client) Download(ctx context.Context, input string, options DownloadOptions) (*DownloadResult, error) {
	ctx, cancel := withDefaultTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	videoID, err := normalizeVideoID(input)
	if err != nil {
		return nil, err
	}
	if !c.mux.Available() {
		return nil, &ExternalToolError{Tool: "ffmpeg", Path: c.config.ffmpegPath()}
	}

	rs, err := c.resolveStream(ctx, videoID, options.Quality)
	if err != nil {
		return nil, err
	}

	outputPath, err := prepareOutputPath(options.OutputPath, videoID)
	if err != nil {
		return nil, err
	}
	c.emitDownloadEvent("download", "destination", videoID, outputPath, "")

	keepIntermediates := options.KeepIntermediateFiles || c.config.KeepIntermediateFiles

	videoPath := fmt.Sprintf("%s.%s.m4s", outputPath, rs.Manifest.VideoQuality.Label)
	if err := c.downloadTrack(ctx, videoID, videoPath, rs.Video); err != nil {
		return nil, err
	}
	defer c.cleanupIntermediateFile(videoID, videoPath, keepIntermediates)

	audioPath := fmt.Sprintf("%s.%s.m4s", outputPath, rs.Manifest.AudioQuality.Label)
	if err := c.downloadTrack(ctx, videoID, audioPath, rs.Audio); err != nil {
		return nil, err
	}
	defer c.cleanupIntermediateFile(videoID, audioPath, keepIntermediates)

	c.emitDownloadEvent("merge", "start", videoID, outputPath, "")
	if err := c.mux.Merge(ctx, videoPath, audioPath, outputPath, mergeMetadata(rs.Watch)); err != nil {
		c.emitDownloadEvent("merge", "failure", videoID, outputPath, err.Error())
		return nil, fmt.Errorf("merging tracks for video=%s: %w", videoID, err)
	}
	c.emitDownloadEvent("merge", "complete", videoID, outputPath, "")

	return &DownloadResult{
		VideoID:    videoID,
		OutputPath: outputPath,
		Bytes:      getFileSize(outputPath),
		VideoLabel: rs.Manifest.VideoQuality.Label,
		AudioLabel: rs.Manifest.AudioQuality.Label,
	}, nil
}

// downloadTrack writes one media playlist to path, emitting download
// events around the transfer.
func (c *Client) downloadTrack(ctx context.Context, videoID, path string, pl *hls.MediaPlaylist) error {
	c.emitDownloadEvent("download", "start", videoID, path, "")

	f, err := os.Create(path)
	if err != nil {
		wrapped := wrapIOError("create", path, err)
		c.emitDownloadEvent("download", "failure", videoID, path, wrapped.Error())
		return wrapped
	}

	dl := downloader.NewHLS(c.httpClient, mediaRequestHeaders(c.config.userAgent(), videoID), c.config.DownloadTransport)
	n, err := dl.Download(ctx, pl, f)
	closeErr := f.Close()
	if err != nil {
		mapped := trackDownloadError(videoID, path, err)
		c.emitDownloadEvent("download", "failure", videoID, path, mapped.Error())
		return mapped
	}
	if closeErr != nil {
		wrapped := wrapIOError("close", path, closeErr)
		c.emitDownloadEvent("download", "failure", videoID, path, wrapped.Error())
		return wrapped
	}

	c.emitDownloadEvent("download", "complete", videoID, path, fmt.Sprintf("bytes=%d", n))
	return nil
}

// trackDownloadError classifies a failed track transfer: local filesystem
// errors are IO failures, everything else that is not a cancellation is a
// delivery-side failure.
func trackDownloadError(videoID, path string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return wrapIOError("write", path, err)
	}
	return fmt.Errorf("%w: video=%s: %v", ErrUpstream, videoID, err)
}

// prepareOutputPath applies the default name and extension and makes sure
// the parent directory exists.
func prepareOutputPath(path, videoID string) (string, error) {
	if path == "" {
		path = videoID + ".mp4"
	}
	if filepath.Ext(path) == "" {
		path += ".mp4"
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", wrapIOError("create directory", dir, err)
		}
	}
	return path, nil
}

// mergeMetadata builds the tags written into the muxed file from the
// watch data the resolve rode on.
func mergeMetadata(wd *watch.WatchData) types.Metadata {
	if wd == nil {
		return types.Metadata{}
	}
	meta := types.Metadata{
		Title:       wd.Video.Title,
		Artist:      wd.Owner.Nickname,
		Description: wd.Video.Description,
		Duration:    wd.Video.Duration,
	}
	if t, err := time.Parse(time.RFC3339, wd.Video.RegisteredAt); err == nil {
		meta.Date = t.Format("2006-01-02")
	}
	return meta
}

func getFileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// cleanupIntermediateFile removes a per-track file after the merge, or
// reports that it was kept on request. Failures are surfaced as events
// only; they never fail the download.
func (c *Client) cleanupIntermediateFile(videoID, path string, keep bool) {
	if keep {
		c.emitDownloadEvent("cleanup", "skip", videoID, path, "keep_intermediate=true")
		return
	}
	c.emitDownloadEvent("cleanup", "delete", videoID, path, "")
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.emitDownloadEvent("cleanup", "failure", videoID, path, err.Error())
		return
	}
	c.emitDownloadEvent("cleanup", "complete", videoID, path, "")
}
