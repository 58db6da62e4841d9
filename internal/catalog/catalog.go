package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/snapetech/ytlive-m3u/internal/safeurl"
)

const (
	DefaultTitle = "YouTube"
	DefaultGroup = "YouTube"
)

// Channel is one channel record from the channel file.
// ID is used as tvg-id; Title is the display name and the secondary match key.
// URL is the resolved playable URL and is never read from the file.
type Channel struct {
	ID     string `json:"tvg_id,omitempty" yaml:"tvg_id,omitempty"`
	Title  string `json:"title,omitempty" yaml:"title,omitempty"`
	Source string `json:"youtube" yaml:"youtube"` // watch-page URL handed to the resolver
	Logo   string `json:"logo,omitempty" yaml:"logo,omitempty"`
	Group  string `json:"group,omitempty" yaml:"group,omitempty"`
	URL    string `json:"-" yaml:"-"`
}

// WithDefaults fills title, group and logo the way the playlist writer expects them.
// The logo falls back to the video thumbnail when Source is a watch URL.
func (c Channel) WithDefaults() Channel {
	if strings.TrimSpace(c.Title) == "" {
		c.Title = DefaultTitle
	}
	if strings.TrimSpace(c.Group) == "" {
		c.Group = DefaultGroup
	}
	if c.Logo == "" {
		if id := safeurl.VideoID(c.Source); id != "" {
			c.Logo = "https://i.ytimg.com/vi/" + id + "/maxresdefault.jpg"
		}
	}
	return c
}

// Label is a short human name for log lines.
func (c Channel) Label() string {
	switch {
	case c.ID != "" && c.Title != "":
		return c.Title + " (" + c.ID + ")"
	case c.ID != "":
		return c.ID
	case c.Title != "":
		return c.Title
	}
	return c.Source
}

// Catalog is the ordered set of channels loaded from a channel file.
type Catalog struct {
	Channels []Channel
}

// ErrNotFound is returned by Find when no channel matches.
var ErrNotFound = errors.New("channel not found")

// Load reads a channel file. .yaml/.yml use YAML, everything else is JSON.
// The document is a top-level array of channel objects.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	c, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("channel file %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a channel document; ext selects the format (".yaml", ".yml" or JSON otherwise).
func Parse(data []byte, ext string) (*Catalog, error) {
	var chans []Channel
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &chans); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &chans); err != nil {
			return nil, err
		}
	}
	for i := range chans {
		chans[i].ID = strings.TrimSpace(chans[i].ID)
		chans[i].Title = strings.TrimSpace(chans[i].Title)
		chans[i].Source = strings.TrimSpace(chans[i].Source)
	}
	return &Catalog{Channels: chans}, nil
}

// Validate reports every record without a usable source URL and every duplicate identifier.
func (c *Catalog) Validate() error {
	var errs []error
	seen := make(map[string]int, len(c.Channels))
	for i, ch := range c.Channels {
		if ch.Source == "" {
			errs = append(errs, fmt.Errorf("channel #%d (%s): missing youtube source URL", i+1, ch.Label()))
		} else if !safeurl.IsHTTPOrHTTPS(ch.Source) {
			errs = append(errs, fmt.Errorf("channel #%d (%s): source %q is not http(s)", i+1, ch.Label(), ch.Source))
		}
		if ch.ID == "" {
			continue
		}
		if j, dup := seen[ch.ID]; dup {
			errs = append(errs, fmt.Errorf("channel #%d: tvg_id %q already used by channel #%d", i+1, ch.ID, j+1))
			continue
		}
		seen[ch.ID] = i
	}
	return errors.Join(errs...)
}

// Find returns the channel whose ID equals key, or failing that the first whose Title equals key.
func (c *Catalog) Find(key string) (Channel, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Channel{}, ErrNotFound
	}
	for _, ch := range c.Channels {
		if ch.ID == key {
			return ch, nil
		}
	}
	for _, ch := range c.Channels {
		if ch.Title == key {
			return ch, nil
		}
	}
	return Channel{}, fmt.Errorf("%w: %q", ErrNotFound, key)
}
