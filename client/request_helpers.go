package client

import (
	"context"
	"net/http"
	"time"

	"github.com/famomatic/nicov1/internal/nvapi"
)

func withDefaultTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// mediaRequestHeaders builds the headers segment and playlist fetches are
// sent with. Delivery servers expect the watch page as the referrer.
func mediaRequestHeaders(userAgent, videoID string) http.Header {
	h := http.Header{}
	if userAgent == "" {
		userAgent = nvapi.DefaultUserAgent
	}
	h.Set("User-Agent", userAgent)
	h.Set("Origin", "https://www.nicovideo.jp")
	if videoID != "" {
		h.Set("Referer", "https://www.nicovideo.jp/watch/"+videoID)
	} else {
		h.Set("Referer", "https://www.nicovideo.jp/")
	}
	return h
}
