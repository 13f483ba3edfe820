package client

import (
	"io"
	"net/http"
	"strings"
	"testing"
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

func jsonResponse(status int, body string) *http.Response {
	resp := &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp
}

func textResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// Fixture surface of one known video. Four video qualities (the lowest
// marked unavailable), two audio qualities, four 30 second segments per
// track.
const (
	fixtureVideosJSON = `{"meta":{"status":200},"data":{"items":[{"watchId":"sm9","video":{
		"type":"essential","id":"sm9","title":"Example Title",
		"registeredAt":"2007-03-06T00:33:00+09:00",
		"count":{"view":20000000,"comment":5000000,"mylist":180000,"like":30000},
		"thumbnail":{"url":"https://img.example/sm9.jpg","largeUrl":"https://img.example/sm9.L.jpg"},
		"duration":120,"shortDescription":"The first video.",
		"isChannelVideo":false,"isPaymentRequired":false,
		"owner":{"ownerType":"user","id":"4","name":"nakano","iconUrl":"https://img.example/u4.png"}
	}}]}}`

	fixtureTagsJSON = `{"meta":{"status":200},"data":{"tags":[
		{"name":"陰陽師","isCategory":false,"isLocked":true,"isNicodicArticleExists":true},
		{"name":"音楽","isCategory":true,"isLocked":false,"isNicodicArticleExists":true}
	]}}`

	fixtureWatchJSON = `{"meta":{"status":200},"data":{"response":{
		"client":{"watchId":"sm9","watchTrackId":"track_1"},
		"video":{"id":"sm9","title":"Example Title","description":"The first video.","duration":120,
			"registeredAt":"2007-03-06T00:33:00+09:00",
			"count":{"view":20000000,"comment":5000000,"mylist":180000,"like":30000}},
		"owner":{"id":4,"nickname":"nakano"},
		"tag":{"items":[{"name":"陰陽師","isLocked":true}]},
		"media":{"domand":{
			"videos":[
				{"id":"v1080","isAvailable":true,"label":"video-h264-1080p","bitRate":4000000,"width":1920,"height":1080,"qualityLevel":5,"recommendedHighestAudioQualityLevel":2},
				{"id":"v720","isAvailable":true,"label":"video-h264-720p","bitRate":2000000,"width":1280,"height":720,"qualityLevel":4,"recommendedHighestAudioQualityLevel":2},
				{"id":"v480","isAvailable":true,"label":"video-h264-480p","bitRate":1000000,"width":854,"height":480,"qualityLevel":3,"recommendedHighestAudioQualityLevel":1},
				{"id":"v360","isAvailable":false,"label":"video-h264-360p","bitRate":600000,"width":640,"height":360,"qualityLevel":2,"recommendedHighestAudioQualityLevel":1}
			],
			"audios":[
				{"id":"a192","isAvailable":true,"label":"audio-aac-192kbps","bitRate":192000,"samplingRate":48000,"qualityLevel":2},
				{"id":"a64","isAvailable":true,"label":"audio-aac-64kbps","bitRate":64000,"samplingRate":44100,"qualityLevel":1}
			],
			"accessRightKey":"ark-sm9"}},
		"comment":{"nvComment":{"threadKey":"tk-1","server":"https://mr.example",
			"params":{"targets":[{"id":"100","fork":"main"}]}}},
		"payment":{"video":{}},
		"okReason":"PLAYABLE"
	}}}`

	fixtureThreadKeyJSON = `{"meta":{"status":200},"data":{"threadKey":"tk-2"}}`

	fixtureRightsJSON = `{"meta":{"status":200},"data":{
		"contentUrl":"https://delivery.example/master.m3u8",
		"createTime":"2026-08-25T10:00:00+09:00",
		"expireTime":"2026-08-26T10:00:00+09:00"}}`

	fixtureMasterM3U8 = `#EXTM3U
#EXT-X-VERSION:6
#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID="audio-aac",NAME="Main Audio",DEFAULT=YES,AUTOSELECT=YES,URI="audio/playlist.m3u8"
#EXT-X-STREAM-INF:BANDWIDTH=4192000,AVERAGE-BANDWIDTH=4000000,RESOLUTION=1920x1080,FRAME-RATE=30.000,CODECS="avc1.640028,mp4a.40.2",AUDIO="audio-aac"
video/playlist.m3u8
`

	fixtureVideoM3U8 = `#EXTM3U
#EXT-X-VERSION:6
#EXT-X-TARGETDURATION:30
#EXT-X-MEDIA-SEQUENCE:0
#EXT-X-MAP:URI="init.mp4"
#EXTINF:30.000,
seg0.m4s
#EXTINF:30.000,
seg1.m4s
#EXTINF:30.000,
seg2.m4s
#EXTINF:30.000,
seg3.m4s
#EXT-X-ENDLIST
`

	fixtureAudioM3U8 = `#EXTM3U
#EXT-X-VERSION:6
#EXT-X-TARGETDURATION:30
#EXT-X-MEDIA-SEQUENCE:0
#EXT-X-MAP:URI="init.mp4"
#EXTINF:30.000,
seg0.m4s
#EXTINF:30.000,
seg1.m4s
#EXTINF:30.000,
seg2.m4s
#EXTINF:30.000,
seg3.m4s
#EXT-X-ENDLIST
`
)

// niconicoStub answers the fixture surface over a fake transport: listing
// record, tags, watch data, access rights, playlists, segments and the
// comment server. Zero-value fields fall back to the fixtures above.
type niconicoStub struct {
	t *testing.T

	videosJSON    string
	tagsJSON      string
	watchJSON     string
	rightsJSON    string
	threadKeyJSON string

	// threads answers POST /v1/threads on the comment server; nil fails
	// the test when one arrives.
	threads func(callNo int, body []byte) *http.Response

	// extra answers requests none of the fixtures above cover.
	extra func(r *http.Request) (*http.Response, bool)

	requests    []string
	watchCalls  int
	threadCalls int
}

func newNiconicoStub(t *testing.T) *niconicoStub {
	return &niconicoStub{t: t}
}

func (s *niconicoStub) orFixture(v, fixture string) string {
	if v != "" {
		return v
	}
	return fixture
}

func (s *niconicoStub) roundTrip(r *http.Request) (*http.Response, error) {
	s.requests = append(s.requests, r.Method+" "+r.URL.Host+r.URL.Path)
	switch {
	case r.Method == http.MethodGet && r.URL.Host == "nvapi.nicovideo.jp" && r.URL.Path == "/v1/videos":
		return jsonResponse(http.StatusOK, s.orFixture(s.videosJSON, fixtureVideosJSON)), nil

	case r.Method == http.MethodGet && r.URL.Host == "nvapi.nicovideo.jp" && strings.HasSuffix(r.URL.Path, "/tags"):
		return jsonResponse(http.StatusOK, s.orFixture(s.tagsJSON, fixtureTagsJSON)), nil

	case r.Method == http.MethodGet && r.URL.Host == "www.nicovideo.jp" && strings.HasPrefix(r.URL.Path, "/watch/"):
		s.watchCalls++
		return jsonResponse(http.StatusOK, s.orFixture(s.watchJSON, fixtureWatchJSON)), nil

	case r.Method == http.MethodPost && r.URL.Host == "nvapi.nicovideo.jp" && strings.HasSuffix(r.URL.Path, "/access-rights/hls"):
		return jsonResponse(http.StatusOK, s.orFixture(s.rightsJSON, fixtureRightsJSON)), nil

	case r.Method == http.MethodGet && r.URL.Host == "delivery.example" && r.URL.Path == "/master.m3u8":
		return textResponse(http.StatusOK, fixtureMasterM3U8), nil

	case r.Method == http.MethodGet && r.URL.Host == "delivery.example" && r.URL.Path == "/video/playlist.m3u8":
		return textResponse(http.StatusOK, fixtureVideoM3U8), nil

	case r.Method == http.MethodGet && r.URL.Host == "delivery.example" && r.URL.Path == "/audio/playlist.m3u8":
		return textResponse(http.StatusOK, fixtureAudioM3U8), nil

	case r.Method == http.MethodGet && r.URL.Host == "delivery.example" && strings.HasSuffix(r.URL.Path, "init.mp4"):
		return textResponse(http.StatusOK, "INIT:"+r.URL.Path+";"), nil

	case r.Method == http.MethodGet && r.URL.Host == "delivery.example" && strings.HasSuffix(r.URL.Path, ".m4s"):
		return textResponse(http.StatusOK, "SEG:"+r.URL.Path+";"), nil

	case r.Method == http.MethodGet && r.URL.Host == "nvapi.nicovideo.jp" && r.URL.Path == "/v1/comment/keys/thread":
		return jsonResponse(http.StatusOK, s.orFixture(s.threadKeyJSON, fixtureThreadKeyJSON)), nil

	case r.Method == http.MethodPost && r.URL.Host == "mr.example" && r.URL.Path == "/v1/threads":
		if s.threads == nil {
			s.t.Fatalf("unexpected comment server request")
		}
		s.threadCalls++
		body, err := io.ReadAll(r.Body)
		if err != nil {
			s.t.Fatalf("reading threads request: %v", err)
		}
		return s.threads(s.threadCalls, body), nil

	default:
		if s.extra != nil {
			if resp, ok := s.extra(r); ok {
				return resp, nil
			}
		}
		s.t.Fatalf("unexpected request: %s %s", r.Method, r.URL.String())
		return nil, nil
	}
}

// newStubClient builds a Client whose transport answers from the stub.
func newStubClient(t *testing.T, stub *niconicoStub, cfg Config) *Client {
	t.Helper()
	cfg.HTTPClient = &http.Client{Transport: roundTripFunc(stub.roundTrip)}
	c, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return c
}
