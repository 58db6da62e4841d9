package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const channelsJSON = `[
  {"tvg_id": "AsianetNews.in", "title": "Asianet News", "youtube": "https://www.youtube.com/watch?v=tXRuaacO-ZU", "group": "News"},
  {"title": "  Padu Live  ", "youtube": " https://www.youtube.com/@padu/live ", "logo": "https://img.example/padu.png"}
]`

const channelsYAML = `
- tvg_id: AsianetNews.in
  title: Asianet News
  youtube: https://www.youtube.com/watch?v=tXRuaacO-ZU
  group: News
- title: Padu Live
  youtube: https://www.youtube.com/@padu/live
  logo: https://img.example/padu.png
`

func TestLoad_jsonAndYAMLAgree(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "channels.json")
	yamlPath := filepath.Join(dir, "channels.yaml")
	require.NoError(t, os.WriteFile(jsonPath, []byte(channelsJSON), 0644))
	require.NoError(t, os.WriteFile(yamlPath, []byte(channelsYAML), 0644))

	fromJSON, err := Load(jsonPath)
	require.NoError(t, err)
	fromYAML, err := Load(yamlPath)
	require.NoError(t, err)

	require.Len(t, fromJSON.Channels, 2)
	assert.Equal(t, fromJSON.Channels, fromYAML.Channels)
	assert.Equal(t, "AsianetNews.in", fromJSON.Channels[0].ID)
	assert.Equal(t, "Padu Live", fromJSON.Channels[1].Title)
	assert.Equal(t, "https://www.youtube.com/@padu/live", fromJSON.Channels[1].Source)
	assert.Empty(t, fromJSON.Channels[1].URL)
}

func TestLoad_missingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_badJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tvg_id": "x"}`), 0644))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestWithDefaults(t *testing.T) {
	ch := Channel{Source: "https://www.youtube.com/watch?v=tXRuaacO-ZU"}.WithDefaults()
	assert.Equal(t, DefaultTitle, ch.Title)
	assert.Equal(t, DefaultGroup, ch.Group)
	assert.Equal(t, "https://i.ytimg.com/vi/tXRuaacO-ZU/maxresdefault.jpg", ch.Logo)

	kept := Channel{Title: "X", Group: "G", Logo: "https://l/x.png", Source: "https://www.youtube.com/watch?v=abc"}.WithDefaults()
	assert.Equal(t, "X", kept.Title)
	assert.Equal(t, "G", kept.Group)
	assert.Equal(t, "https://l/x.png", kept.Logo)

	noID := Channel{Source: "https://www.youtube.com/@padu/live"}.WithDefaults()
	assert.Empty(t, noID.Logo)
}

func TestValidate(t *testing.T) {
	c := &Catalog{Channels: []Channel{
		{ID: "a", Source: "https://www.youtube.com/watch?v=1"},
		{ID: "b"},
		{ID: "a", Source: "https://www.youtube.com/watch?v=2"},
		{ID: "c", Source: "file:///etc/passwd"},
	}}
	err := c.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "channel #2 (b): missing youtube source URL")
	assert.Contains(t, msg, `tvg_id "a" already used by channel #1`)
	assert.Contains(t, msg, "is not http(s)")

	ok := &Catalog{Channels: []Channel{{Source: "https://www.youtube.com/watch?v=1"}, {Source: "https://www.youtube.com/watch?v=2"}}}
	assert.NoError(t, ok.Validate())
}

func TestFind(t *testing.T) {
	c, err := Parse([]byte(channelsJSON), ".json")
	require.NoError(t, err)

	ch, err := c.Find("AsianetNews.in")
	require.NoError(t, err)
	assert.Equal(t, "Asianet News", ch.Title)

	ch, err = c.Find("Padu Live")
	require.NoError(t, err)
	assert.Empty(t, ch.ID)

	_, err = c.Find("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.Find("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Asianet News (AsianetNews.in)", Channel{ID: "AsianetNews.in", Title: "Asianet News"}.Label())
	assert.Equal(t, "AsianetNews.in", Channel{ID: "AsianetNews.in"}.Label())
	assert.Equal(t, "https://s", Channel{Source: "https://s"}.Label())
}
