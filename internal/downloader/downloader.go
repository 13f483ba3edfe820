// Package downloader fetches HLS media playlists segment by segment,
// decrypting and concatenating them into a single stream.
package downloader

import (
	"context"
	"io"

	"github.com/famomatic/nicov1/internal/hls"
)

// Downloader is the interface for downloading a parsed media playlist.
type Downloader interface {
	// Download writes every segment of the playlist to w in order.
	// It returns the number of bytes written and any error encountered.
	Download(ctx context.Context, playlist *hls.MediaPlaylist, w io.Writer) (int64, error)
}

// ProgressReporter receives progress updates as segments complete.
// Total byte counts are unknown for HLS, so progress is reported as
// segments finished out of the playlist total.
type ProgressReporter interface {
	OnProgress(bytesWritten int64, segmentsDone, segmentsTotal int)
}
