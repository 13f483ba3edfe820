// Package hls parses the master and media playlists the streaming backend
// serves. Parsing is pure; fetching keys and segments is the downloader's
// concern.
package hls

import (
	"bufio"
	"encoding/hex"
	"errors"
	"net/url"
	"strconv"
	"strings"
)

var ErrNotPlaylist = errors.New("not an m3u8 playlist")

// Variant is one EXT-X-STREAM-INF entry of a master playlist.
type Variant struct {
	URL              string
	Bandwidth        int
	AverageBandwidth int
	Width            int
	Height           int
	FrameRate        float64
	Codecs           string
	AudioGroup       string
}

// Rendition is one EXT-X-MEDIA entry of a master playlist.
type Rendition struct {
	Type       string
	GroupID    string
	Name       string
	URI        string
	Default    bool
	Autoselect bool
}

// MasterPlaylist is a parsed master playlist.
type MasterPlaylist struct {
	Variants   []Variant
	Renditions []Rendition
}

// AudioRendition returns the audio rendition for the given group id,
// preferring the default entry. Empty group matches any audio rendition.
func (m *MasterPlaylist) AudioRendition(groupID string) (Rendition, bool) {
	var fallback *Rendition
	for i := range m.Renditions {
		r := &m.Renditions[i]
		if !strings.EqualFold(r.Type, "AUDIO") {
			continue
		}
		if groupID != "" && r.GroupID != groupID {
			continue
		}
		if r.Default {
			return *r, true
		}
		if fallback == nil {
			fallback = r
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Rendition{}, false
}

// ParseMaster parses a master playlist. Relative URIs are resolved against
// baseURL.
func ParseMaster(raw, baseURL string) (*MasterPlaylist, error) {
	if !strings.HasPrefix(strings.TrimSpace(raw), "#EXTM3U") {
		return nil, ErrNotPlaylist
	}
	out := &MasterPlaylist{}
	scanner := bufio.NewScanner(strings.NewReader(raw))
	var pending *Variant
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "#EXT-X-STREAM-INF:"):
			attrs := ParseAttrs(line[len("#EXT-X-STREAM-INF:"):])
			v := Variant{
				Codecs:     attrs["CODECS"],
				AudioGroup: attrs["AUDIO"],
			}
			v.Bandwidth, _ = strconv.Atoi(attrs["BANDWIDTH"])
			v.AverageBandwidth, _ = strconv.Atoi(attrs["AVERAGE-BANDWIDTH"])
			v.FrameRate, _ = strconv.ParseFloat(attrs["FRAME-RATE"], 64)
			if res := attrs["RESOLUTION"]; res != "" {
				if x := strings.IndexByte(res, 'x'); x > 0 {
					v.Width, _ = strconv.Atoi(res[:x])
					v.Height, _ = strconv.Atoi(res[x+1:])
				}
			}
			pending = &v
		case strings.HasPrefix(line, "#EXT-X-MEDIA:"):
			attrs := ParseAttrs(line[len("#EXT-X-MEDIA:"):])
			out.Renditions = append(out.Renditions, Rendition{
				Type:       attrs["TYPE"],
				GroupID:    attrs["GROUP-ID"],
				Name:       attrs["NAME"],
				URI:        resolveURL(baseURL, attrs["URI"]),
				Default:    attrs["DEFAULT"] == "YES",
				Autoselect: attrs["AUTOSELECT"] == "YES",
			})
		case strings.HasPrefix(line, "#"):
			// Other tags are irrelevant to variant selection.
		default:
			if pending != nil {
				pending.URL = resolveURL(baseURL, line)
				out.Variants = append(out.Variants, *pending)
				pending = nil
			}
		}
	}
	return out, scanner.Err()
}

// Key describes the encryption of a run of segments.
type Key struct {
	Method string
	URI    string
	IV     []byte
}

// Segment is one EXTINF entry of a media playlist.
type Segment struct {
	URL      string
	Duration float64
	Seq      int
	Key      *Key
}

// MediaPlaylist is a parsed media playlist.
type MediaPlaylist struct {
	TargetDuration float64
	MediaSequence  int
	MapURI         string
	MapKey         *Key
	Segments       []Segment
	Ended          bool
}

// TotalDuration sums the segment durations.
func (m *MediaPlaylist) TotalDuration() float64 {
	var total float64
	for _, seg := range m.Segments {
		total += seg.Duration
	}
	return total
}

// ParseMedia parses a media playlist. Relative URIs are resolved against
// baseURL.
func ParseMedia(raw, baseURL string) (*MediaPlaylist, error) {
	if !strings.HasPrefix(strings.TrimSpace(raw), "#EXTM3U") {
		return nil, ErrNotPlaylist
	}
	out := &MediaPlaylist{}
	scanner := bufio.NewScanner(strings.NewReader(raw))
	var currentKey *Key
	var pendingDuration float64
	havePending := false
	seq := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "#EXT-X-TARGETDURATION:"):
			out.TargetDuration, _ = strconv.ParseFloat(line[len("#EXT-X-TARGETDURATION:"):], 64)
		case strings.HasPrefix(line, "#EXT-X-MEDIA-SEQUENCE:"):
			if v, err := strconv.Atoi(line[len("#EXT-X-MEDIA-SEQUENCE:"):]); err == nil {
				seq = v
				out.MediaSequence = v
			}
		case strings.HasPrefix(line, "#EXT-X-KEY:"):
			currentKey = parseKey(line[len("#EXT-X-KEY:"):], baseURL)
		case strings.HasPrefix(line, "#EXT-X-MAP:"):
			attrs := ParseAttrs(line[len("#EXT-X-MAP:"):])
			out.MapURI = resolveURL(baseURL, attrs["URI"])
			out.MapKey = currentKey
		case strings.HasPrefix(line, "#EXTINF:"):
			spec := line[len("#EXTINF:"):]
			if comma := strings.IndexByte(spec, ','); comma >= 0 {
				spec = spec[:comma]
			}
			pendingDuration, _ = strconv.ParseFloat(spec, 64)
			havePending = true
		case strings.HasPrefix(line, "#EXT-X-ENDLIST"):
			out.Ended = true
		case strings.HasPrefix(line, "#"):
			// Skip tags we do not act on.
		default:
			if !havePending {
				continue
			}
			out.Segments = append(out.Segments, Segment{
				URL:      resolveURL(baseURL, line),
				Duration: pendingDuration,
				Seq:      seq,
				Key:      currentKey,
			})
			seq++
			havePending = false
		}
	}
	return out, scanner.Err()
}

func parseKey(attrList, baseURL string) *Key {
	attrs := ParseAttrs(attrList)
	if strings.EqualFold(attrs["METHOD"], "NONE") {
		return nil
	}
	key := &Key{
		Method: attrs["METHOD"],
		URI:    resolveURL(baseURL, attrs["URI"]),
	}
	if ivHex, ok := attrs["IV"]; ok {
		ivHex = strings.TrimPrefix(strings.TrimPrefix(ivHex, "0x"), "0X")
		if iv, err := hex.DecodeString(ivHex); err == nil {
			key.IV = iv
		}
	}
	return key
}

func resolveURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
