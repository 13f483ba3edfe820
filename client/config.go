package client

import (
	"net/http"
	"os"
	"time"

	"github.com/famomatic/nicov1/internal/downloader"
	"github.com/famomatic/nicov1/internal/muxer"
	"github.com/famomatic/nicov1/internal/nvapi"
)

// ffmpegPathEnv overrides the ffmpeg location when Config.FFmpegPath is
// unset, mirroring the --ffmpeg-location CLI flag.
const ffmpegPathEnv = "NICOV1_FFMPEG"

// Config holds configuration for the client.
type Config struct {
	// HTTPClient is the client used for making requests. If nil, a client
	// is built (honoring ProxyURL). Either way the managed session cookie
	// jar replaces the client's jar; transports and timeouts are kept.
	HTTPClient *http.Client

	// ProxyURL is the optional proxy URL to use for requests.
	// If HTTPClient is provided, this field is ignored.
	ProxyURL string

	// UserAgent overrides the User-Agent header on every request.
	// If empty, a desktop browser value is used.
	UserAgent string

	// Language selects the response language, e.g. "ja-jp" or "en-us".
	// Default is "ja-jp".
	Language string

	// RequestTimeout bounds each API call when the caller's context has no
	// deadline of its own. Zero means no default timeout.
	RequestTimeout time.Duration

	// DownloadTransport tunes retry/backoff and concurrency for segment
	// downloads.
	DownloadTransport downloader.TransportConfig

	// Muxer merges downloaded video and audio tracks. If nil, an ffmpeg
	// muxer is built from FFmpegPath.
	Muxer muxer.Muxer

	// FFmpegPath locates the ffmpeg binary. If empty, the NICOV1_FFMPEG
	// environment variable and then PATH are consulted.
	FFmpegPath string

	// Logger receives non-fatal warnings. If nil, warnings are dropped.
	Logger Logger

	// WatchCacheTTL bounds how long fetched watch data is reused.
	// Zero disables expiry.
	WatchCacheTTL time.Duration

	// WatchCacheMaxEntries caps the watch data cache size.
	// Zero disables the cap.
	WatchCacheMaxEntries int

	// KeepIntermediateFiles leaves the per-track files on disk after a merge.
	KeepIntermediateFiles bool

	// OnDownloadEvent observes download lifecycle events.
	OnDownloadEvent func(DownloadEvent)
}

func (c Config) userAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return nvapi.DefaultUserAgent
}

func (c Config) language() string {
	if c.Language != "" {
		return c.Language
	}
	return nvapi.DefaultLanguage
}

func (c Config) ffmpegPath() string {
	if c.FFmpegPath != "" {
		return c.FFmpegPath
	}
	return os.Getenv(ffmpegPathEnv)
}
