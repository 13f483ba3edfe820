package client

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/famomatic/nicov1/internal/hls"
	"github.com/famomatic/nicov1/internal/quality"
	"github.com/famomatic/nicov1/internal/watch"
)

// resolvedStream is the internal product of a resolve: the public manifest
// plus the parsed playlists the downloader walks and the watch data the
// resolve rode on.
type resolvedStream struct {
	Manifest *StreamManifest
	Video    *hls.MediaPlaylist
	Audio    *hls.MediaPlaylist
	Watch    *watch.WatchData
}

// ResolveStream negotiates stream access for the video and returns the
// chosen quality pair with both media tracks. preference is a quality
// preference string such as "best", "720p" or "1080p/720p/best"; empty
// means best available. The manifest is time-limited; resolve again after
// ExpiresAt.
func (c *Client) ResolveStream(ctx context.Context, input, preference string) (*StreamManifest, error) {
	ctx, cancel := withDefaultTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	rs, err := c.resolveStream(ctx, input, preference)
	if err != nil {
		return nil, err
	}
	return rs.Manifest, nil
}

func (c *Client) resolveStream(ctx context.Context, input, preference string) (*resolvedStream, error) {
	if err := c.auth.Ensure(ctx); err != nil {
		return nil, mapError(err)
	}
	wd, videoID, err := c.ensureWatch(ctx, input)
	if err != nil {
		return nil, err
	}

	pref, err := quality.Parse(preference)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	videoPick, ok := quality.PickVideo(videoCandidates(wd), pref)
	if !ok {
		return nil, fmt.Errorf("%w: video=%s preference=%q", ErrNoStreamAvailable, videoID, preference)
	}
	audioPick, ok := quality.PickAudio(audioCandidates(wd), recommendedAudioLevel(wd, videoPick.Label))
	if !ok {
		return nil, fmt.Errorf("%w: video=%s has no playable audio", ErrNoStreamAvailable, videoID)
	}

	rights, err := c.resolver.ResolveHLS(ctx, wd, videoPick.Label, audioPick.Label)
	if err != nil {
		return nil, mapError(err)
	}

	master, err := c.fetchMaster(ctx, rights.ContentURL, videoID)
	if err != nil {
		return nil, err
	}
	if len(master.Variants) == 0 {
		return nil, fmt.Errorf("%w: video=%s master playlist has no variants", ErrNoStreamAvailable, videoID)
	}
	variant := master.Variants[0]
	audioRendition, ok := master.AudioRendition(variant.AudioGroup)
	if !ok || audioRendition.URI == "" {
		return nil, fmt.Errorf("%w: video=%s master playlist has no audio rendition", ErrNoStreamAvailable, videoID)
	}

	videoPlaylist, err := c.fetchMedia(ctx, variant.URL, videoID)
	if err != nil {
		return nil, err
	}
	audioPlaylist, err := c.fetchMedia(ctx, audioRendition.URI, videoID)
	if err != nil {
		return nil, err
	}

	manifest := &StreamManifest{
		VideoID: videoID,
		VideoQuality: VideoQuality{
			Label:     videoPick.Label,
			Width:     videoPick.Width,
			Height:    videoPick.Height,
			Bitrate:   videoPick.Bitrate,
			Available: true,
		},
		AudioQuality: audioQualityByLabel(wd, audioPick.Label),
		MasterURL:    rights.ContentURL,
		Video:        mediaTrackFromPlaylist(variant.URL, videoPlaylist),
		Audio:        mediaTrackFromPlaylist(audioRendition.URI, audioPlaylist),
	}
	if expires, err := watch.ParseExpireTime(rights.ExpireTime); err == nil {
		manifest.ExpiresAt = expires
	} else if rights.ExpireTime != "" {
		c.warnf("unparseable stream expire time %q for video=%s", rights.ExpireTime, videoID)
	}

	return &resolvedStream{
		Manifest: manifest,
		Video:    videoPlaylist,
		Audio:    audioPlaylist,
		Watch:    wd,
	}, nil
}

func (c *Client) fetchMaster(ctx context.Context, rawURL, videoID string) (*hls.MasterPlaylist, error) {
	body, err := c.fetchPlaylistText(ctx, rawURL, videoID)
	if err != nil {
		return nil, err
	}
	master, err := hls.ParseMaster(body, rawURL)
	if err != nil {
		return nil, fmt.Errorf("master playlist %s: %w", rawURL, err)
	}
	return master, nil
}

func (c *Client) fetchMedia(ctx context.Context, rawURL, videoID string) (*hls.MediaPlaylist, error) {
	body, err := c.fetchPlaylistText(ctx, rawURL, videoID)
	if err != nil {
		return nil, err
	}
	media, err := hls.ParseMedia(body, rawURL)
	if err != nil {
		return nil, fmt.Errorf("media playlist %s: %w", rawURL, err)
	}
	return media, nil
}

func (c *Client) fetchPlaylistText(ctx context.Context, rawURL, videoID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header = mediaRequestHeaders(c.config.userAgent(), videoID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIStatusError{
			Endpoint:   rawURL,
			StatusCode: resp.StatusCode,
			sentinel:   sentinelForStatus(resp.StatusCode),
		}
	}
	return string(body), nil
}

func mediaTrackFromPlaylist(playlistURL string, pl *hls.MediaPlaylist) MediaTrack {
	track := MediaTrack{
		PlaylistURL:      playlistURL,
		InitSegmentURL:   pl.MapURI,
		TotalDurationSec: pl.TotalDuration(),
	}
	for _, seg := range pl.Segments {
		track.Segments = append(track.Segments, SegmentInfo{
			URL:         seg.URL,
			DurationSec: seg.Duration,
			Seq:         seg.Seq,
		})
	}
	return track
}

func videoCandidates(wd *watch.WatchData) []quality.Candidate {
	out := make([]quality.Candidate, 0, len(wd.Media.Domand.Videos))
	for _, v := range wd.Media.Domand.Videos {
		out = append(out, quality.Candidate{
			Label:        v.Label,
			QualityLevel: v.QualityLevel,
			Bitrate:      v.BitRate,
			Width:        v.Width,
			Height:       v.Height,
			Available:    v.IsAvailable,
		})
	}
	return out
}

func audioCandidates(wd *watch.WatchData) []quality.Candidate {
	out := make([]quality.Candidate, 0, len(wd.Media.Domand.Audios))
	for _, a := range wd.Media.Domand.Audios {
		out = append(out, quality.Candidate{
			Label:        a.Label,
			QualityLevel: a.QualityLevel,
			Bitrate:      a.BitRate,
			Available:    a.IsAvailable,
		})
	}
	return out
}

// recommendedAudioLevel returns the audio pairing ceiling the watch
// response recommends for the chosen video quality. Zero means no
// recommendation.
func recommendedAudioLevel(wd *watch.WatchData, videoLabel string) int {
	for _, v := range wd.Media.Domand.Videos {
		if v.Label == videoLabel {
			return v.RecommendedHighestAudioQualityLevel
		}
	}
	return 0
}

func audioQualityByLabel(wd *watch.WatchData, label string) AudioQuality {
	for _, a := range wd.Media.Domand.Audios {
		if a.Label == label {
			return AudioQuality{
				Label:        a.Label,
				Bitrate:      a.BitRate,
				SamplingRate: a.SamplingRate,
				Available:    a.IsAvailable,
			}
		}
	}
	return AudioQuality{Label: label, Available: true}
}
