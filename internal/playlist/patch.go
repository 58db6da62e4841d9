package playlist

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/snapetech/ytlive-m3u/internal/safeurl"
)

// DefaultBackupSuffix is appended to the playlist path for the backup copy written by Patch.
const DefaultBackupSuffix = ".bak"

// Match selects the entries Patch updates. An entry matches when its metadata line carries
// tvg-id="ID" or its display name equals Name; either one is enough. Empty fields never match.
type Match struct {
	ID   string
	Name string
}

func (m Match) matches(meta string) bool {
	if m.ID != "" && Attr(meta, "tvg-id") == m.ID {
		return true
	}
	name := strings.TrimSpace(m.Name)
	return name != "" && DisplayName(meta) == name
}

// Result reports what Patch did.
type Result struct {
	Matched  int  // metadata lines that matched
	Updated  int  // URL lines replaced
	Inserted int  // URL lines inserted after a metadata line that had none
	Changed  bool // file content differs from what was read
}

// Editor patches playlists in place.
type Editor struct {
	BackupSuffix string // "" = DefaultBackupSuffix
}

// Patch runs Editor{}.Patch.
func Patch(path string, m Match, newURL string) (Result, error) {
	return Editor{}.Patch(path, m, newURL)
}

// Patch replaces the URL line of every entry matching m with newURL and leaves every other line
// byte-for-byte as it was. An entry whose metadata line has no URL line before the next entry
// (or end of file) gets newURL inserted right after it.
//
// Nothing is written when no URL changes. Otherwise the edited content is written to
// path+BackupSuffix and then atomically over path.
func (e Editor) Patch(path string, m Match, newURL string) (Result, error) {
	var res Result
	if m.ID == "" && strings.TrimSpace(m.Name) == "" {
		return res, errors.New("patch: need a tvg-id or a display name to match")
	}
	newURL = strings.TrimSpace(newURL)
	if newURL == "" || strings.ContainsAny(newURL, "\r\n") {
		return res, fmt.Errorf("patch: invalid stream URL %q", newURL)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("patch: %w", err)
	}

	lines, res := patchLines(splitLines(string(data)), m, newURL)
	if !res.Changed {
		return res, nil
	}
	out := []byte(strings.Join(lines, "\n"))

	suffix := e.BackupSuffix
	if suffix == "" {
		suffix = DefaultBackupSuffix
	}
	mode := fileMode(path)
	if err := writeFileAtomic(path+suffix, out, mode); err != nil {
		return res, fmt.Errorf("patch: backup: %w", err)
	}
	if err := writeFileAtomic(path, out, mode); err != nil {
		return res, fmt.Errorf("patch: %w", err)
	}
	return res, nil
}

// splitLines splits on "\n" only. A line keeps its trailing "\r", so CRLF files and a missing or
// present final newline survive a Join with "\n" unchanged.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// patchLines is the single forward pass behind Patch. It edits lines in place where it can.
func patchLines(lines []string, m Match, newURL string) ([]string, Result) {
	var res Result
	eol := lineEnding(lines)
	for i := 0; i < len(lines); i++ {
		if !isMetadata(lines[i]) || !m.matches(strings.TrimSpace(lines[i])) {
			continue
		}
		res.Matched++
		j := streamLineIndex(lines, i+1)
		if j < 0 {
			ins := newURL + eol
			if i == len(lines)-1 {
				// metadata line was the last line: it now gets a line ending and the inserted
				// URL becomes the unterminated last line
				lines[i] = strings.TrimSuffix(lines[i], "\r") + eol
				ins = newURL
			}
			lines = slices.Insert(lines, i+1, ins)
			res.Inserted++
			res.Changed = true
			i++
			continue
		}
		if strings.TrimSpace(lines[j]) == newURL {
			i = j
			continue
		}
		lines[j] = leadingSpace(lines[j]) + newURL + crOf(lines[j])
		res.Updated++
		res.Changed = true
		i = j
	}
	return lines, res
}

// streamLineIndex returns the index of the http(s) URL line belonging to the entry whose metadata
// line precedes from, or -1 when the next entry or end of file comes first. Every other line in
// between (blank, #EXTVLCOPT and other directives, rtmp:// or relative URIs, stray text) is skipped
// and left as it is.
func streamLineIndex(lines []string, from int) int {
	for j := from; j < len(lines); j++ {
		switch {
		case isMetadata(lines[j]):
			return -1
		case safeurl.HasHTTPPrefix(lines[j]):
			return j
		}
	}
	return -1
}

// isMetadata reports whether line starts with the #EXTINF: sentinel. Indented lines do not count.
func isMetadata(line string) bool {
	return strings.HasPrefix(line, EntryPrefix)
}

// lineEnding returns the "\r" to append to an inserted line: CRLF files are detected by any line
// ending in "\r".
func lineEnding(lines []string) string {
	for _, l := range lines {
		if strings.HasSuffix(l, "\r") {
			return "\r"
		}
	}
	return ""
}

func crOf(line string) string {
	if strings.HasSuffix(line, "\r") {
		return "\r"
	}
	return ""
}

func leadingSpace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// DisplayName returns the free-text title of a metadata line: everything after the first comma
// that is not inside a quoted attribute value, trimmed. It returns "" when there is no title.
func DisplayName(meta string) string {
	meta = strings.TrimRight(meta, " \t\r")
	if !isMetadata(meta) {
		return ""
	}
	inQuote := false
	for i := len(EntryPrefix); i < len(meta); i++ {
		switch meta[i] {
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				return strings.TrimSpace(meta[i+1:])
			}
		}
	}
	return ""
}

// Attr returns the value of key="value" on a metadata line, or "".
func Attr(meta, key string) string {
	prefix := key + `="`
	for off := 0; ; {
		i := strings.Index(meta[off:], prefix)
		if i < 0 {
			return ""
		}
		i += off
		// require a word boundary so tvg-id does not match inside xtvg-id
		if i == 0 || meta[i-1] == ' ' || meta[i-1] == '\t' || meta[i-1] == ':' {
			start := i + len(prefix)
			if j := strings.IndexByte(meta[start:], '"'); j >= 0 {
				return meta[start : start+j]
			}
			return ""
		}
		off = i + len(prefix)
	}
}
