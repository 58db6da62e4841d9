package playlist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/snapetech/ytlive-m3u/internal/catalog"
)

const (
	// Header is the first line of every playlist.
	Header = "#EXTM3U"
	// EntryPrefix starts every entry metadata line.
	EntryPrefix = "#EXTINF:"
)

// Render builds the full playlist for entries: the header, then one metadata line and one URL
// line per entry, joined with "\n" and without a trailing newline.
// Attributes are emitted only when non-empty, always in the order tvg-id, tvg-logo, group-title.
func Render(entries []catalog.Channel) ([]byte, error) {
	lines := make([]string, 0, 1+2*len(entries))
	lines = append(lines, Header)
	for i, e := range entries {
		url := strings.TrimSpace(e.URL)
		if url == "" {
			return nil, fmt.Errorf("entry #%d (%s): no stream URL", i+1, e.Label())
		}
		if strings.ContainsAny(url, "\r\n") {
			return nil, fmt.Errorf("entry #%d (%s): stream URL spans lines", i+1, e.Label())
		}
		lines = append(lines, MetadataLine(e), url)
	}
	return []byte(strings.Join(lines, "\n")), nil
}

// MetadataLine formats the #EXTINF line for one channel.
func MetadataLine(e catalog.Channel) string {
	var sb strings.Builder
	sb.WriteString(EntryPrefix)
	sb.WriteString("-1")
	writeAttr(&sb, "tvg-id", e.ID)
	writeAttr(&sb, "tvg-logo", e.Logo)
	writeAttr(&sb, "group-title", e.Group)
	sb.WriteByte(',')
	sb.WriteString(oneLine(e.Title))
	return sb.String()
}

func writeAttr(sb *strings.Builder, key, value string) {
	value = oneLine(value)
	if value == "" {
		return
	}
	sb.WriteString(" " + key + `="` + value + `"`)
}

func oneLine(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ").Replace(s))
}

// Write replaces the playlist at path with entries, creating parent directories as needed.
// Same input always produces the same bytes.
func Write(path string, entries []catalog.Channel) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("playlist path is empty")
	}
	data, err := Render(entries)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filepath.Clean(path)), 0755); err != nil {
		return fmt.Errorf("create playlist dir: %w", err)
	}
	return writeFileAtomic(path, data, fileMode(path))
}
