package health

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/grafov/m3u8"

	"github.com/snapetech/ytlive-m3u/internal/httpclient"
	"github.com/snapetech/ytlive-m3u/internal/safeurl"
)

// maxManifestBytes bounds how much of a response is decoded. Real live manifests are a few KB.
const maxManifestBytes = 4 << 20

// Manifest summarises a decoded HLS playlist.
type Manifest struct {
	Master   bool // master (variant) playlist; false = media playlist
	Variants int  // master only
	Segments int  // media only
}

func (m Manifest) String() string {
	if m.Master {
		return fmt.Sprintf("master playlist, %d variant(s)", m.Variants)
	}
	return fmt.Sprintf("media playlist, %d segment(s)", m.Segments)
}

// ErrEmptyManifest is returned for a playlist that decodes but references nothing playable.
var ErrEmptyManifest = errors.New("manifest has no variants or segments")

// CheckManifest fetches streamURL and decodes it as HLS. It returns nil error when the response
// is 200 and the body is a master playlist with at least one variant or a media playlist with at
// least one segment. client nil = httpclient.Default().
func CheckManifest(ctx context.Context, client *http.Client, streamURL string) (Manifest, error) {
	var m Manifest
	if !safeurl.IsHTTPOrHTTPS(streamURL) {
		return m, fmt.Errorf("manifest: not an http(s) URL")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return m, err
	}
	resp, err := httpclient.DoWithRetry(ctx, client, req, httpclient.DefaultRetryPolicy)
	if err != nil {
		return m, fmt.Errorf("manifest unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return m, fmt.Errorf("manifest returned HTTP %d", resp.StatusCode)
	}

	pl, listType, err := m3u8.DecodeFrom(bufio.NewReader(io.LimitReader(resp.Body, maxManifestBytes)), false)
	if err != nil {
		return m, fmt.Errorf("manifest decode: %w", err)
	}
	switch listType {
	case m3u8.MASTER:
		m.Master = true
		m.Variants = len(pl.(*m3u8.MasterPlaylist).Variants)
		if m.Variants == 0 {
			return m, ErrEmptyManifest
		}
	case m3u8.MEDIA:
		m.Segments = int(pl.(*m3u8.MediaPlaylist).Count())
		if m.Segments == 0 {
			return m, ErrEmptyManifest
		}
	default:
		return m, fmt.Errorf("manifest decode: unknown playlist type")
	}
	return m, nil
}
