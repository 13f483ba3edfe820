package downloader

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"io"
	"net/http"

	"github.com/famomatic/nicov1/internal/hls"
)

// HLS downloads the segments of a VOD media playlist in order. Segment
// fetches run concurrently up to the transport's MaxConcurrency, but
// writes stay sequential so the output is a valid concatenation.
type HLS struct {
	client   *http.Client
	headers  http.Header
	cfg      TransportConfig
	Progress ProgressReporter

	keys map[string][]byte
}

// NewHLS returns a downloader that fetches segments with client, sending
// headers on every request.
func NewHLS(client *http.Client, headers http.Header, cfg TransportConfig) *HLS {
	return &HLS{
		client:  client,
		headers: cloneHeader(headers),
		cfg:     cfg,
		keys:    make(map[string][]byte),
	}
}

type segmentResult struct {
	data []byte
	err  error
}

// Download writes the playlist's init section and every segment to w.
func (d *HLS) Download(ctx context.Context, pl *hls.MediaPlaylist, w io.Writer) (int64, error) {
	if err := d.loadKeys(ctx, pl); err != nil {
		return 0, err
	}

	var written int64
	total := len(pl.Segments)

	if pl.MapURI != "" {
		data, err := d.fetchPart(ctx, pl.MapURI, pl.MapKey, 0)
		if err != nil {
			return 0, fmt.Errorf("fetching init section: %w", err)
		}
		n, err := w.Write(data)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := normalizeTransportConfig(d.cfg)
	sem := make(chan struct{}, cfg.MaxConcurrency)
	futures := make([]chan segmentResult, total)
	for i := range futures {
		futures[i] = make(chan segmentResult, 1)
	}

	go func() {
		for i, seg := range pl.Segments {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			go func(i int, seg hls.Segment) {
				defer func() { <-sem }()
				data, err := d.fetchPart(ctx, seg.URL, seg.Key, seg.Seq)
				futures[i] <- segmentResult{data: data, err: err}
			}(i, seg)
		}
	}()

	skipped := 0
	for i, seg := range pl.Segments {
		var res segmentResult
		select {
		case res = <-futures[i]:
		case <-ctx.Done():
			return written, ctx.Err()
		}
		if res.err != nil {
			if shouldSkipFragmentError(res.err, d.cfg) && (d.cfg.MaxSkippedFragments <= 0 || skipped < d.cfg.MaxSkippedFragments) {
				skipped++
				continue
			}
			return written, fmt.Errorf("segment seq=%d: %w", seg.Seq, res.err)
		}
		n, err := w.Write(res.data)
		written += int64(n)
		if err != nil {
			return written, err
		}
		if d.Progress != nil {
			d.Progress.OnProgress(written, i+1, total)
		}
	}
	return written, nil
}

// loadKeys fetches every distinct decryption key the playlist references
// before any segment work starts.
func (d *HLS) loadKeys(ctx context.Context, pl *hls.MediaPlaylist) error {
	fetch := func(k *hls.Key) error {
		if k == nil || k.Method != "AES-128" || k.URI == "" {
			return nil
		}
		if _, ok := d.keys[k.URI]; ok {
			return nil
		}
		data, err := doGETBytesWithRetry(ctx, d.client, k.URI, d.headers, d.cfg)
		if err != nil {
			return fmt.Errorf("fetching key %s: %w", k.URI, err)
		}
		if len(data) != 16 {
			return fmt.Errorf("key %s: got %d bytes, want 16", k.URI, len(data))
		}
		d.keys[k.URI] = data
		return nil
	}
	if err := fetch(pl.MapKey); err != nil {
		return err
	}
	for i := range pl.Segments {
		if err := fetch(pl.Segments[i].Key); err != nil {
			return err
		}
	}
	return nil
}

// fetchPart downloads one segment or init section and decrypts it when a
// key applies. seq feeds the IV fallback for keys without an IV attribute.
func (d *HLS) fetchPart(ctx context.Context, url string, key *hls.Key, seq int) ([]byte, error) {
	data, err := doGETBytesWithRetry(ctx, d.client, url, d.headers, d.cfg)
	if err != nil {
		return nil, err
	}
	if key == nil || key.Method != "AES-128" {
		return data, nil
	}
	secret, ok := d.keys[key.URI]
	if !ok {
		return nil, fmt.Errorf("no key loaded for %s", key.URI)
	}
	iv := key.IV
	if len(iv) == 0 {
		iv = sequenceIV(seq)
	}
	return decryptCBC(data, secret, iv)
}

// sequenceIV builds the implicit IV for a key without one: the media
// sequence number as a 16 byte big-endian integer.
func sequenceIV(seq int) []byte {
	iv := make([]byte, aes.BlockSize)
	binary.BigEndian.PutUint64(iv[8:], uint64(seq))
	return iv
}

func decryptCBC(data, key, iv []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	if len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("encrypted data not block aligned")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("iv length %d, want %d", len(iv), aes.BlockSize)
	}
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(data, data)
	padding := int(data[len(data)-1])
	if padding == 0 || padding > aes.BlockSize {
		return nil, fmt.Errorf("invalid padding")
	}
	return data[:len(data)-padding], nil
}

var _ Downloader = (*HLS)(nil)
