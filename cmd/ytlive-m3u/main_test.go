package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapetech/ytlive-m3u/internal/catalog"
	"github.com/snapetech/ytlive-m3u/internal/config"
	"github.com/snapetech/ytlive-m3u/internal/logger"
	"github.com/snapetech/ytlive-m3u/internal/resolver"
)

// fakeYtDlp writes a shell script that prints url for every invocation.
func fakeYtDlp(t *testing.T, url string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\necho '"+url+"'\n"), 0755))
	return path
}

func testConfig(t *testing.T, ytdlp string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	channels := filepath.Join(dir, "channels.yaml")
	require.NoError(t, os.WriteFile(channels, []byte(
		"- tvg_id: AsianetNews.in\n  title: Asianet News\n  youtube: https://www.youtube.com/watch?v=tXRuaacO-ZU\n"), 0644))
	return &config.Config{
		PlaylistPath: filepath.Join(dir, "padulive.m3u"),
		ChannelsPath: channels,
		BackupSuffix: ".bak",
		YtDlpPath:    ytdlp,
		WatchCron:    "@daily",
	}
}

func TestRun_refreshThenPatchThenList(t *testing.T) {
	cfg := testConfig(t, fakeYtDlp(t, "https://manifest.example/a/index.m3u8"))
	ctx := context.Background()

	require.NoError(t, run(ctx, cfg, logger.Nop{}, "refresh", nil, &bytes.Buffer{}))
	b, err := os.ReadFile(cfg.PlaylistPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "https://manifest.example/a/index.m3u8")

	// same URL again: no-op, no backup
	require.NoError(t, run(ctx, cfg, logger.Nop{}, "patch", []string{"-id", "AsianetNews.in"}, &bytes.Buffer{}))
	_, err = os.Stat(cfg.BackupPath())
	assert.True(t, os.IsNotExist(err))

	var out bytes.Buffer
	require.NoError(t, run(ctx, cfg, logger.Nop{}, "list", nil, &out))
	assert.Contains(t, out.String(), "AsianetNews.in")
	assert.Contains(t, out.String(), "Asianet News")
}

func TestRun_patchWithExplicitSource(t *testing.T) {
	cfg := testConfig(t, fakeYtDlp(t, "https://manifest.example/new/index.m3u8"))
	require.NoError(t, os.WriteFile(cfg.PlaylistPath, []byte("#EXTM3U\n#EXTINF:-1 tvg-id=\"X.in\",X\nhttps://old/x.m3u8"), 0644))

	err := run(context.Background(), cfg, logger.Nop{}, "patch",
		[]string{"-id", "X.in", "-source", "https://www.youtube.com/watch?v=abc"}, &bytes.Buffer{})
	require.NoError(t, err)
	b, err := os.ReadFile(cfg.PlaylistPath)
	require.NoError(t, err)
	assert.Equal(t, "#EXTM3U\n#EXTINF:-1 tvg-id=\"X.in\",X\nhttps://manifest.example/new/index.m3u8", string(b))
}

func TestRun_resolvePrintsURL(t *testing.T) {
	cfg := testConfig(t, fakeYtDlp(t, "https://manifest.example/r/index.m3u8"))
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, logger.Nop{}, "resolve", []string{"https://www.youtube.com/watch?v=abc"}, &out))
	assert.Equal(t, "https://manifest.example/r/index.m3u8\n", out.String())

	assert.Error(t, run(context.Background(), cfg, logger.Nop{}, "resolve", nil, &out))
}

func TestRun_resolutionFailure(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "no-such-yt-dlp"))
	err := run(context.Background(), cfg, logger.Nop{}, "refresh", nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, resolver.ErrResolution)
}

func TestRun_unknownCommand(t *testing.T) {
	cfg := testConfig(t, "yt-dlp")
	assert.Error(t, run(context.Background(), cfg, logger.Nop{}, "mount", nil, &bytes.Buffer{}))
}

func TestPatchTarget(t *testing.T) {
	cfg := testConfig(t, "yt-dlp")

	ch, err := patchTarget(cfg.ChannelsPath, "", "Asianet News", "")
	require.NoError(t, err)
	assert.Equal(t, "AsianetNews.in", ch.ID)
	assert.Equal(t, "https://www.youtube.com/watch?v=tXRuaacO-ZU", ch.Source)

	ch, err = patchTarget(cfg.ChannelsPath, "New.in", "New", "https://www.youtube.com/watch?v=n")
	require.NoError(t, err)
	assert.Equal(t, catalog.Channel{ID: "New.in", Title: "New", Source: "https://www.youtube.com/watch?v=n"}, ch)

	_, err = patchTarget(cfg.ChannelsPath, "Missing.in", "", "")
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	_, err = patchTarget(cfg.ChannelsPath, "", "", "")
	assert.Error(t, err)
}
