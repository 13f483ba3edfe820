package client

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/famomatic/nicov1/internal/types"
)

// fakeMuxer records the merge call and writes a fixed payload so Bytes
// can be asserted without a real ffmpeg.
type fakeMuxer struct {
	available  bool
	mergeErr   error
	mergeCalls int
	videoPath  string
	audioPath  string
	outputPath string
	meta       types.Metadata
}

func (m *fakeMuxer) Available() bool { return m.available }

func (m *fakeMuxer) Merge(ctx context.Context, videoPath, audioPath, outputPath string, meta types.Metadata) error {
	m.mergeCalls++
	m.videoPath, m.audioPath, m.outputPath, m.meta = videoPath, audioPath, outputPath, meta
	if m.mergeErr != nil {
		return m.mergeErr
	}
	return os.WriteFile(outputPath, []byte("MERGED"), 0644)
}

func TestDownloadMissingToolFailsBeforeNetwork(t *testing.T) {
	cfg := Config{
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			t.Fatalf("unexpected network request: %s %s", r.Method, r.URL)
			return nil, nil
		})},
		FFmpegPath: filepath.Join(t.TempDir(), "no-such-ffmpeg"),
	}
	c, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}

	_, err = c.Download(context.Background(), "sm9", DownloadOptions{
		OutputPath: filepath.Join(t.TempDir(), "out.mp4"),
	})
	if !errors.Is(err, ErrExternalToolMissing) {
		t.Fatalf("Download() error = %v, want ErrExternalToolMissing", err)
	}
	var toolErr *ExternalToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("Download() error = %T, want *ExternalToolError", err)
	}
	if toolErr.Tool != "ffmpeg" {
		t.Fatalf("Tool = %q, want %q", toolErr.Tool, "ffmpeg")
	}
}

func TestDownloadFFmpegEnvOverride(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "env-ffmpeg")
	t.Setenv(ffmpegPathEnv, missing)

	cfg := Config{
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			t.Fatalf("unexpected network request: %s %s", r.Method, r.URL)
			return nil, nil
		})},
	}
	c, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}

	_, err = c.Download(context.Background(), "sm9", DownloadOptions{})
	var toolErr *ExternalToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("Download() error = %v, want *ExternalToolError", err)
	}
	if toolErr.Path != missing {
		t.Fatalf("Path = %q, want %q", toolErr.Path, missing)
	}
}

func TestDownloadMergesTracksAndCleansUp(t *testing.T) {
	stub := &niconicoStub{t: t}
	mux := &fakeMuxer{available: true}
	c := newStubClient(t, stub, Config{Muxer: mux})

	outputPath := filepath.Join(t.TempDir(), "out.mp4")
	result, err := c.Download(context.Background(), "sm9", DownloadOptions{OutputPath: outputPath})
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}

	if result.VideoID != "sm9" {
		t.Fatalf("VideoID = %q, want %q", result.VideoID, "sm9")
	}
	if result.OutputPath != outputPath {
		t.Fatalf("OutputPath = %q, want %q", result.OutputPath, outputPath)
	}
	if result.Bytes != int64(len("MERGED")) {
		t.Fatalf("Bytes = %d, want %d", result.Bytes, len("MERGED"))
	}
	if result.VideoLabel != "video-h264-1080p" || result.AudioLabel != "audio-aac-192kbps" {
		t.Fatalf("labels = %s/%s, want video-h264-1080p/audio-aac-192kbps", result.VideoLabel, result.AudioLabel)
	}

	if mux.mergeCalls != 1 {
		t.Fatalf("merge calls = %d, want 1", mux.mergeCalls)
	}
	if mux.videoPath != outputPath+".video-h264-1080p.m4s" {
		t.Fatalf("merge video path = %q", mux.videoPath)
	}
	if mux.audioPath != outputPath+".audio-aac-192kbps.m4s" {
		t.Fatalf("merge audio path = %q", mux.audioPath)
	}
	if mux.meta.Title != "Example Title" || mux.meta.Artist != "nakano" {
		t.Fatalf("merge metadata = %+v", mux.meta)
	}
	if mux.meta.Date != "2007-03-06" || mux.meta.Duration != 120 {
		t.Fatalf("merge metadata = %+v", mux.meta)
	}

	// Intermediates are removed after a successful merge.
	if _, err := os.Stat(mux.videoPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("video intermediate still present: %v", err)
	}
	if _, err := os.Stat(mux.audioPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("audio intermediate still present: %v", err)
	}
}

func TestDownloadKeepIntermediateFiles(t *testing.T) {
	stub := &niconicoStub{t: t}
	mux := &fakeMuxer{available: true}
	c := newStubClient(t, stub, Config{Muxer: mux})

	outputPath := filepath.Join(t.TempDir(), "out.mp4")
	_, err := c.Download(context.Background(), "sm9", DownloadOptions{
		OutputPath:            outputPath,
		KeepIntermediateFiles: true,
	})
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}

	video, err := os.ReadFile(outputPath + ".video-h264-1080p.m4s")
	if err != nil {
		t.Fatalf("reading video intermediate: %v", err)
	}
	wantVideo := "INIT:/video/init.mp4;SEG:/video/seg0.m4s;SEG:/video/seg1.m4s;SEG:/video/seg2.m4s;SEG:/video/seg3.m4s;"
	if string(video) != wantVideo {
		t.Fatalf("video intermediate = %q, want %q", video, wantVideo)
	}
	audio, err := os.ReadFile(outputPath + ".audio-aac-192kbps.m4s")
	if err != nil {
		t.Fatalf("reading audio intermediate: %v", err)
	}
	if !strings.HasPrefix(string(audio), "INIT:/audio/init.mp4;SEG:/audio/seg0.m4s;") {
		t.Fatalf("audio intermediate = %q", audio)
	}
}

func TestDownloadAppendsOutputExtension(t *testing.T) {
	stub := &niconicoStub{t: t}
	c := newStubClient(t, stub, Config{Muxer: &fakeMuxer{available: true}})

	base := filepath.Join(t.TempDir(), "named")
	result, err := c.Download(context.Background(), "sm9", DownloadOptions{OutputPath: base})
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	if result.OutputPath != base+".mp4" {
		t.Fatalf("OutputPath = %q, want %q", result.OutputPath, base+".mp4")
	}
}

func TestDownloadMergeFailure(t *testing.T) {
	stub := &niconicoStub{t: t}
	mux := &fakeMuxer{available: true, mergeErr: errors.New("exit status 1")}
	c := newStubClient(t, stub, Config{Muxer: mux})

	outputPath := filepath.Join(t.TempDir(), "out.mp4")
	_, err := c.Download(context.Background(), "sm9", DownloadOptions{OutputPath: outputPath})
	if err == nil || !strings.Contains(err.Error(), "merging tracks") {
		t.Fatalf("Download() error = %v, want merge failure", err)
	}

	// Intermediates do not outlive a failed merge either.
	if _, err := os.Stat(outputPath + ".video-h264-1080p.m4s"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("video intermediate still present: %v", err)
	}
}

func TestDownloadEmitsLifecycleEvents(t *testing.T) {
	var events []DownloadEvent
	stub := &niconicoStub{t: t}
	c := newStubClient(t, stub, Config{
		Muxer:           &fakeMuxer{available: true},
		OnDownloadEvent: func(e DownloadEvent) { events = append(events, e) },
	})

	outputPath := filepath.Join(t.TempDir(), "out.mp4")
	if _, err := c.Download(context.Background(), "sm9", DownloadOptions{OutputPath: outputPath}); err != nil {
		t.Fatalf("Download() error: %v", err)
	}

	var got []string
	for _, e := range events {
		got = append(got, e.Stage+"/"+e.Phase)
		if e.VideoID != "sm9" {
			t.Fatalf("event %s/%s VideoID = %q, want sm9", e.Stage, e.Phase, e.VideoID)
		}
	}
	want := []string{
		"download/destination",
		"download/start", "download/complete",
		"download/start", "download/complete",
		"merge/start", "merge/complete",
		"cleanup/delete", "cleanup/complete",
		"cleanup/delete", "cleanup/complete",
	}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestDownloadSkipEventsWhenKeeping(t *testing.T) {
	var events []DownloadEvent
	stub := &niconicoStub{t: t}
	c := newStubClient(t, stub, Config{
		Muxer:                 &fakeMuxer{available: true},
		KeepIntermediateFiles: true,
		OnDownloadEvent:       func(e DownloadEvent) { events = append(events, e) },
	})

	outputPath := filepath.Join(t.TempDir(), "out.mp4")
	if _, err := c.Download(context.Background(), "sm9", DownloadOptions{OutputPath: outputPath}); err != nil {
		t.Fatalf("Download() error: %v", err)
	}

	skips := 0
	for _, e := range events {
		if e.Stage == "cleanup" {
			if e.Phase != "skip" {
				t.Fatalf("cleanup phase = %q, want skip", e.Phase)
			}
			skips++
		}
	}
	if skips != 2 {
		t.Fatalf("skip events = %d, want 2", skips)
	}
}
