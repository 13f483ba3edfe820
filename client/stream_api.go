package client

import (
	"context"
	"io"

	"github.com/famomatic/nicov1/internal/downloader"
	"github.com/famomatic/nicov1/internal/hls"
)

// OpenVideoStream resolves the video track for the preference and streams
// its init section and segments as one reader, without touching disk.
// Closing the reader stops the transfer.
func (c *Client) OpenVideoStream(ctx context.Context, input, preference string) (io.ReadCloser, VideoQuality, error) {
	rs, err := c.resolveForStreaming(ctx, input, preference)
	if err != nil {
		return nil, VideoQuality{}, err
	}
	return c.openTrack(ctx, rs.Manifest.VideoID, rs.Video), rs.Manifest.VideoQuality, nil
}

// OpenAudioStream is OpenVideoStream for the audio track paired with the
// preferred video quality.
func (c *Client) OpenAudioStream(ctx context.Context, input, preference string) (io.ReadCloser, AudioQuality, error) {
	rs, err := c.resolveForStreaming(ctx, input, preference)
	if err != nil {
		return nil, AudioQuality{}, err
	}
	return c.openTrack(ctx, rs.Manifest.VideoID, rs.Audio), rs.Manifest.AudioQuality, nil
}

// resolveForStreaming runs the resolve under the default request timeout
// but leaves the caller's context untouched for the transfer itself, which
// can outlive any sensible request timeout.
func (c *Client) resolveForStreaming(ctx context.Context, input, preference string) (*resolvedStream, error) {
	resolveCtx, cancel := withDefaultTimeout(ctx, c.config.RequestTimeout)
	defer cancel()
	return c.resolveStream(resolveCtx, input, preference)
}

func (c *Client) openTrack(ctx context.Context, videoID string, pl *hls.MediaPlaylist) io.ReadCloser {
	ctx, cancel := context.WithCancel(ctx)
	pr, pw := io.Pipe()
	dl := downloader.NewHLS(c.httpClient, mediaRequestHeaders(c.config.userAgent(), videoID), c.config.DownloadTransport)
	go func() {
		_, err := dl.Download(ctx, pl, pw)
		pw.CloseWithError(err)
	}()
	return &trackStream{PipeReader: pr, cancel: cancel}
}

// trackStream cancels the transfer context when the consumer closes the
// reader, so a half-read stream does not keep fetching segments.
type trackStream struct {
	*io.PipeReader
	cancel context.CancelFunc
}

func (s *trackStream) Close() error {
	s.cancel()
	return s.PipeReader.Close()
}
