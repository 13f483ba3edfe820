package nvapi

import "net/http"

const (
	// FrontendID identifies the desktop web frontend to the nvapi surface.
	FrontendID = "6"
	// FrontendVersion is pinned to the value the web player sends.
	FrontendVersion = "0"
	// RequestWith marks requests as originating from the watch page.
	RequestWith = "https://www.nicovideo.jp"

	// DefaultUserAgent mimics a desktop browser. Several endpoints reject the
	// Go default agent outright.
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/96.0.4664.110 Safari/537.36 Edg/96.0.1054.62"

	// DefaultLanguage is sent as X-Niconico-Language.
	DefaultLanguage = "ja-jp"
)

// ApplyFrontendHeaders sets the header set every nvapi call carries.
func ApplyFrontendHeaders(h http.Header, userAgent, language string) {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if language == "" {
		language = DefaultLanguage
	}
	h.Set("User-Agent", userAgent)
	h.Set("X-Frontend-Id", FrontendID)
	h.Set("X-Frontend-Version", FrontendVersion)
	h.Set("X-Niconico-Language", language)
	h.Set("X-Request-With", RequestWith)
}
