package playlist

import (
	"fmt"

	"github.com/jamesnetherton/m3u"
)

// Entry is one channel as found in an existing playlist.
type Entry struct {
	Title string
	ID    string
	Logo  string
	Group string
	URL   string
}

// List parses the playlist at path and returns its entries in file order.
func List(path string) ([]Entry, error) {
	pl, err := m3u.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	entries := make([]Entry, 0, len(pl.Tracks))
	for _, t := range pl.Tracks {
		e := Entry{Title: t.Name, URL: t.URI}
		for _, tag := range t.Tags {
			switch tag.Name {
			case "tvg-id":
				e.ID = tag.Value
			case "tvg-logo":
				e.Logo = tag.Value
			case "group-title":
				e.Group = tag.Value
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}
