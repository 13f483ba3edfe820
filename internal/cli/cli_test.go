package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/famomatic/nicov1/client"
	"github.com/famomatic/nicov1/internal/muxer"
	"github.com/famomatic/nicov1/internal/types"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

// RoundTrip upholds the net/http.Transport guarantee that a response obtained
// through an http.Client carries the request that produced it; session login
// reads resp.Request.URL to see where the redirect chain landed.
func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	resp, err := f(r)
	if resp != nil && resp.Request == nil {
		resp.Request = r
	}
	return resp, err
}

func response(status int, contentType, body string) *http.Response {
	h := make(http.Header)
	h.Set("Content-Type", contentType)
	return &http.Response{
		StatusCode: status,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

const (
	videosBody = `{"meta":{"status":200},"data":{"items":[{"watchId":"sm9","video":{
		"id":"sm9","title":"Example Title","duration":120,
		"registeredAt":"2007-03-06T00:33:00+09:00",
		"count":{"view":20000000,"comment":5000000,"mylist":180000,"like":30000},
		"owner":{"id":"4","name":"nakano"}}}]}}`

	tagsBody = `{"meta":{"status":200},"data":{"tags":[
		{"name":"陰陽師","isLocked":true},{"name":"音楽","isCategory":true}]}}`

	watchBody = `{"meta":{"status":200},"data":{"response":{
		"client":{"watchId":"sm9","watchTrackId":"track_1"},
		"video":{"id":"sm9","title":"Example Title","duration":120,"registeredAt":"2007-03-06T00:33:00+09:00"},
		"owner":{"id":4,"nickname":"nakano"},
		"media":{"domand":{
			"videos":[{"id":"v720","isAvailable":true,"label":"video-h264-720p","bitRate":2000000,"width":1280,"height":720,"qualityLevel":4,"recommendedHighestAudioQualityLevel":1}],
			"audios":[{"id":"a64","isAvailable":true,"label":"audio-aac-64kbps","bitRate":64000,"samplingRate":44100,"qualityLevel":1}],
			"accessRightKey":"ark-sm9"}},
		"okReason":"PLAYABLE"}}}`

	rightsBody = `{"meta":{"status":200},"data":{"contentUrl":"https://delivery.example/master.m3u8","expireTime":"2026-08-26T10:00:00+09:00"}}`

	masterBody = "#EXTM3U\n#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID=\"aac\",NAME=\"Audio\",DEFAULT=YES,URI=\"audio.m3u8\"\n#EXT-X-STREAM-INF:BANDWIDTH=2064000,RESOLUTION=1280x720,AUDIO=\"aac\"\nvideo.m3u8\n"

	mediaBody = "#EXTM3U\n#EXT-X-TARGETDURATION:60\n#EXT-X-MAP:URI=\"init.mp4\"\n#EXTINF:60.000,\nseg0.m4s\n#EXTINF:60.000,\nseg1.m4s\n#EXT-X-ENDLIST\n"
)

// serviceTransport answers the fixture surface the commands touch.
func serviceTransport(t *testing.T) roundTripFunc {
	return func(r *http.Request) (*http.Response, error) {
		host, path := r.URL.Host, r.URL.Path
		switch {
		case host == "nvapi.nicovideo.jp" && path == "/v1/videos":
			return response(http.StatusOK, "application/json", videosBody), nil
		case host == "nvapi.nicovideo.jp" && strings.HasSuffix(path, "/tags"):
			return response(http.StatusOK, "application/json", tagsBody), nil
		case host == "nvapi.nicovideo.jp" && path == "/v1/users/4":
			return response(http.StatusOK, "application/json",
				`{"meta":{"status":200},"data":{"user":{"id":4,"nickname":"nakano","followerCount":20,"followeeCount":10}}}`), nil
		case host == "nvapi.nicovideo.jp" && path == "/v2/search/video":
			return response(http.StatusOK, "application/json",
				`{"meta":{"status":200},"data":{"totalCount":1,"hasNext":false,"items":[{"id":"sm9","title":"Example Title","duration":120,"owner":{"name":"nakano"}}]}}`), nil
		case host == "nvapi.nicovideo.jp" && strings.HasSuffix(path, "/access-rights/hls"):
			return response(http.StatusOK, "application/json", rightsBody), nil
		case host == "www.nicovideo.jp" && strings.HasPrefix(path, "/watch/"):
			return response(http.StatusOK, "application/json", watchBody), nil
		case host == "www.nicovideo.jp" && path == "/":
			resp := response(http.StatusOK, "text/html", "top page")
			resp.Header.Set("x-niconico-authflag", "1")
			return resp, nil
		case host == "delivery.example" && path == "/master.m3u8":
			return response(http.StatusOK, "application/vnd.apple.mpegurl", masterBody), nil
		case host == "delivery.example" && (path == "/video.m3u8" || path == "/audio.m3u8"):
			return response(http.StatusOK, "application/vnd.apple.mpegurl", mediaBody), nil
		case host == "delivery.example" && (strings.HasSuffix(path, ".m4s") || strings.HasSuffix(path, ".mp4")):
			return response(http.StatusOK, "video/mp4", "DATA;"), nil
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.String())
			return nil, nil
		}
	}
}

type cliMuxer struct{ unavailable bool }

func (m *cliMuxer) Available() bool { return !m.unavailable }

func (m *cliMuxer) Merge(ctx context.Context, videoPath, audioPath, outputPath string, meta types.Metadata) error {
	return os.WriteFile(outputPath, []byte("MERGED"), 0644)
}

var _ muxer.Muxer = (*cliMuxer)(nil)

func newTestApp(t *testing.T, rt roundTripFunc, mux muxer.Muxer) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	app := &App{
		Stdout: stdout,
		Stderr: stderr,
		NewClient: func(cfg client.Config) (*client.Client, error) {
			if rt != nil {
				cfg.HTTPClient = &http.Client{Transport: rt}
			}
			if mux != nil {
				cfg.Muxer = mux
			}
			return client.New(cfg)
		},
	}
	return app, stdout, stderr
}

func TestRunWithoutCommand(t *testing.T) {
	app, _, stderr := newTestApp(t, nil, nil)
	if code := app.Run(context.Background(), nil); code != 2 {
		t.Fatalf("Run() = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "Usage:") {
		t.Fatalf("stderr = %q, want usage text", stderr.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	app, _, stderr := newTestApp(t, nil, nil)
	if code := app.Run(context.Background(), []string{"frobnicate"}); code != 2 {
		t.Fatalf("Run() = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), `unknown command "frobnicate"`) {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestRunHelp(t *testing.T) {
	app, _, stderr := newTestApp(t, nil, nil)
	if code := app.Run(context.Background(), []string{"help"}); code != 0 {
		t.Fatalf("Run() = %d, want 0", code)
	}
	if !strings.Contains(stderr.String(), "download <id-or-url>") {
		t.Fatalf("stderr = %q, want command list", stderr.String())
	}
}

func TestInfoPrintsMetadata(t *testing.T) {
	app, stdout, _ := newTestApp(t, serviceTransport(t), nil)
	if code := app.Run(context.Background(), []string{"info", "sm9"}); code != 0 {
		t.Fatalf("Run() = %d, want 0", code)
	}
	out := stdout.String()
	if !strings.Contains(out, "sm9  Example Title") {
		t.Fatalf("stdout = %q, want title line", out)
	}
	if !strings.Contains(out, "duration:   2:00") {
		t.Fatalf("stdout = %q, want duration line", out)
	}
	if !strings.Contains(out, "views: 20000000") {
		t.Fatalf("stdout = %q, want counts line", out)
	}
	if !strings.Contains(out, "陰陽師") {
		t.Fatalf("stdout = %q, want tag names", out)
	}
}

func TestInfoJSONOutput(t *testing.T) {
	app, stdout, _ := newTestApp(t, serviceTransport(t), nil)
	if code := app.Run(context.Background(), []string{"--json", "info", "sm9"}); code != 0 {
		t.Fatalf("Run() = %d, want 0", code)
	}
	var info struct {
		ID          string
		Title       string
		DurationSec int64
	}
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		t.Fatalf("stdout not JSON: %v\n%s", err, stdout.String())
	}
	if info.ID != "sm9" || info.Title != "Example Title" || info.DurationSec != 120 {
		t.Fatalf("record = %+v", info)
	}
}

func TestInfoUnknownVideo(t *testing.T) {
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return response(http.StatusOK, "application/json", `{"meta":{"status":200},"data":{"items":[]}}`), nil
	})
	app, _, stderr := newTestApp(t, rt, nil)
	if code := app.Run(context.Background(), []string{"info", "sm999999999"}); code != 1 {
		t.Fatalf("Run() = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "error: not_found:") {
		t.Fatalf("stderr = %q, want not_found error line", stderr.String())
	}
}

func TestInfoInvalidInput(t *testing.T) {
	app, _, stderr := newTestApp(t, nil, nil)
	if code := app.Run(context.Background(), []string{"info", "not a video"}); code != 1 {
		t.Fatalf("Run() = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "error: invalid_input:") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestInfoMissingArgument(t *testing.T) {
	app, _, stderr := newTestApp(t, nil, nil)
	if code := app.Run(context.Background(), []string{"info"}); code != 2 {
		t.Fatalf("Run() = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "error: invalid_input: usage:") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestTagsPlainOutput(t *testing.T) {
	app, stdout, _ := newTestApp(t, serviceTransport(t), nil)
	if code := app.Run(context.Background(), []string{"tags", "sm9"}); code != 0 {
		t.Fatalf("Run() = %d, want 0", code)
	}
	out := stdout.String()
	if !strings.Contains(out, "陰陽師 (locked)") {
		t.Fatalf("stdout = %q, want locked marker", out)
	}
	if !strings.Contains(out, "音楽 (category)") {
		t.Fatalf("stdout = %q, want category marker", out)
	}
}

func TestDownloadMissingFfmpeg(t *testing.T) {
	app, _, stderr := newTestApp(t, serviceTransport(t), nil)
	missing := filepath.Join(t.TempDir(), "no-ffmpeg")
	code := app.Run(context.Background(), []string{"download", "-ffmpeg-location", missing, "sm9"})
	if code != 1 {
		t.Fatalf("Run() = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "error: tool_missing:") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestDownloadWritesOutput(t *testing.T) {
	app, stdout, _ := newTestApp(t, serviceTransport(t), &cliMuxer{})
	output := filepath.Join(t.TempDir(), "out.mp4")
	code := app.Run(context.Background(), []string{"download", "-o", output, "sm9"})
	if code != 0 {
		t.Fatalf("Run() = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), fmt.Sprintf("saved %s (video-h264-720p + audio-aac-64kbps, 6 bytes)", output)) {
		t.Fatalf("stdout = %q", stdout.String())
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("output file missing: %v", err)
	}
}

func TestUserPrintsProfile(t *testing.T) {
	app, stdout, _ := newTestApp(t, serviceTransport(t), nil)
	if code := app.Run(context.Background(), []string{"user", "4"}); code != 0 {
		t.Fatalf("Run() = %d, want 0", code)
	}
	out := stdout.String()
	if !strings.Contains(out, "4  nakano") {
		t.Fatalf("stdout = %q", out)
	}
	if !strings.Contains(out, "followers: 20  following: 10") {
		t.Fatalf("stdout = %q", out)
	}
}

func TestSearchPrintsSummaries(t *testing.T) {
	app, stdout, _ := newTestApp(t, serviceTransport(t), nil)
	if code := app.Run(context.Background(), []string{"search", "example"}); code != 0 {
		t.Fatalf("Run() = %d, want 0", code)
	}
	out := stdout.String()
	if !strings.Contains(out, "1 results") {
		t.Fatalf("stdout = %q", out)
	}
	if !strings.Contains(out, "Example Title") {
		t.Fatalf("stdout = %q", out)
	}
}

func TestLoginWithSessionSavesCookies(t *testing.T) {
	app, stdout, _ := newTestApp(t, serviceTransport(t), nil)
	cookiesPath := filepath.Join(t.TempDir(), "cookies.txt")
	code := app.Run(context.Background(), []string{"--cookies", cookiesPath, "login", "-session", "tok123"})
	if code != 0 {
		t.Fatalf("Run() = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "logged in") {
		t.Fatalf("stdout = %q", stdout.String())
	}
	raw, err := os.ReadFile(cookiesPath)
	if err != nil {
		t.Fatalf("cookies file not written: %v", err)
	}
	if !strings.Contains(string(raw), "user_session") {
		t.Fatalf("cookies file = %q, want user_session entry", raw)
	}
}

func TestLoginRequiresMailOrSession(t *testing.T) {
	app, _, stderr := newTestApp(t, nil, nil)
	if code := app.Run(context.Background(), []string{"login"}); code != 2 {
		t.Fatalf("Run() = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "login needs -mail or -session") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestLoginPromptsForPassword(t *testing.T) {
	// Password login: the redirector accepts the prompted password and
	// lands on the top page with the auth flag set.
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		switch {
		case r.Method == http.MethodPost && r.URL.Host == "account.nicovideo.jp":
			if err := r.ParseForm(); err != nil {
				t.Fatalf("parsing form: %v", err)
			}
			if got := r.PostForm.Get("password"); got != "hunter2" {
				t.Fatalf("posted password = %q, want prompted value", got)
			}
			resp := response(http.StatusFound, "text/html", "")
			resp.Header.Set("Location", "https://www.nicovideo.jp/")
			return resp, nil
		case r.URL.Host == "www.nicovideo.jp" && r.URL.Path == "/":
			resp := response(http.StatusOK, "text/html", "top page")
			resp.Header.Set("x-niconico-authflag", "3")
			return resp, nil
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.String())
			return nil, nil
		}
	})
	app, stdout, _ := newTestApp(t, rt, nil)
	prompted := false
	app.ReadPassword = func(prompt string) (string, error) {
		prompted = true
		if !strings.Contains(prompt, "user@example.com") {
			t.Fatalf("prompt = %q, want mail address", prompt)
		}
		return "hunter2", nil
	}

	code := app.Run(context.Background(), []string{"login", "-mail", "user@example.com"})
	if code != 0 {
		t.Fatalf("Run() = %d, want 0", code)
	}
	if !prompted {
		t.Fatalf("password prompt not used")
	}
	if !strings.Contains(stdout.String(), "logged in (premium)") {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestLoginMFAPromptRetries(t *testing.T) {
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		switch {
		case r.Method == http.MethodPost && r.URL.Host == "account.nicovideo.jp" && strings.Contains(r.URL.Path, "/login"):
			resp := response(http.StatusFound, "text/html", "")
			resp.Header.Set("Location", "https://account.nicovideo.jp/mfa?site=niconico")
			return resp, nil
		case r.Method == http.MethodGet && r.URL.Host == "account.nicovideo.jp" && strings.Contains(r.URL.Path, "/mfa"):
			return response(http.StatusOK, "text/html", "enter the code"), nil
		case r.Method == http.MethodPost && r.URL.Host == "account.nicovideo.jp" && strings.Contains(r.URL.Path, "/mfa"):
			if err := r.ParseForm(); err != nil {
				t.Fatalf("parsing form: %v", err)
			}
			if got := r.PostForm.Get("otp"); got != "123456" {
				t.Fatalf("posted otp = %q, want prompted value", got)
			}
			resp := response(http.StatusFound, "text/html", "")
			resp.Header.Set("Location", "https://www.nicovideo.jp/")
			return resp, nil
		case r.URL.Host == "www.nicovideo.jp" && r.URL.Path == "/":
			resp := response(http.StatusOK, "text/html", "top page")
			resp.Header.Set("x-niconico-authflag", "1")
			return resp, nil
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.String())
			return nil, nil
		}
	})
	app, stdout, _ := newTestApp(t, rt, nil)
	app.ReadPassword = func(string) (string, error) { return "hunter2", nil }
	app.Stdin = strings.NewReader("123456\n")

	code := app.Run(context.Background(), []string{"login", "-mail", "user@example.com"})
	if code != 0 {
		t.Fatalf("Run() = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "logged in") {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{context.Canceled, "interrupted"},
		{fmt.Errorf("wrap: %w", context.DeadlineExceeded), "interrupted"},
		{client.ErrInvalidInput, "invalid_input"},
		{client.ErrExternalToolMissing, "tool_missing"},
		{client.ErrNoStreamAvailable, "no_stream"},
		{client.ErrSessionExpired, "session_expired"},
		{client.ErrMFARequired, "auth_failed"},
		{client.ErrAuthFailed, "auth_failed"},
		{client.ErrLoginRequired, "login_required"},
		{client.ErrPaymentRequired, "payment_required"},
		{client.ErrRateLimited, "rate_limited"},
		{fmt.Errorf("%w: video=sm9", client.ErrNotFound), "not_found"},
		{client.ErrUnavailable, "unavailable"},
		{client.ErrIO, "io"},
		{errors.New("socket reset"), "upstream"},
	}
	for _, tt := range tests {
		if got := errorKind(tt.err); got != tt.want {
			t.Fatalf("errorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		sec  int64
		want string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{120, "2:00"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{7325, "2:02:05"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.sec); got != tt.want {
			t.Fatalf("formatDuration(%d) = %q, want %q", tt.sec, got, tt.want)
		}
	}
}

func TestFormatVpos(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0:00.000"},
		{1500, "0:01.500"},
		{61250, "1:01.250"},
	}
	for _, tt := range tests {
		if got := formatVpos(tt.ms); got != tt.want {
			t.Fatalf("formatVpos(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestSplitList(t *testing.T) {
	if got := splitList(""); got != nil {
		t.Fatalf("splitList(\"\") = %v, want nil", got)
	}
	got := splitList("owner, main ,easy,")
	want := []string{"owner", "main", "easy"}
	if len(got) != len(want) {
		t.Fatalf("splitList() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("splitList()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
