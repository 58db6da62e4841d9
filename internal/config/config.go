package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds playlist, resolver and scheduling settings.
// Load from env; subcommand flags override individual fields.
type Config struct {
	// Paths
	PlaylistPath string // M3U file maintained by refresh/patch
	ChannelsPath string // channel file (.json, .yaml or .yml)
	BackupSuffix string // appended to PlaylistPath for the patch backup copy

	// Resolver
	YtDlpPath string   // external stream-resolution tool
	YtDlpArgs []string // extra args placed before the source URL (e.g. --cookies file)
	// Minimum spacing between two resolver calls in one run. 0 = no pacing.
	ResolveInterval time.Duration

	// Refresh: when true a channel that fails to resolve is dropped instead of aborting the rewrite.
	SkipFailed bool

	// Manifest check: fetch and decode the resolved HLS manifest before committing it.
	VerifyManifest bool
	VerifyTimeout  time.Duration

	// Watch
	WatchCron    string // robfig/cron 5-field spec
	WatchOnStart bool
	WatchRewrite bool // true = full rewrite from channel file each tick; false = patch each channel

	// Observability
	MetricsFile string // node-exporter textfile path; "" = disabled
	LogLevel    string
	LogJSON     bool
	SafeLogs    bool // redact URLs in log lines
}

// Load reads config from environment. Call LoadEnvFile(".env") before Load() to use a .env file.
func Load() *Config {
	c := &Config{
		PlaylistPath:    getEnv("YTLIVE_PLAYLIST", "padulive.m3u"),
		ChannelsPath:    getEnv("YTLIVE_CHANNELS", "tools/channels.json"),
		BackupSuffix:    getEnv("YTLIVE_BACKUP_SUFFIX", ".bak"),
		YtDlpPath:       getEnv("YTLIVE_YTDLP", "yt-dlp"),
		YtDlpArgs:       strings.Fields(os.Getenv("YTLIVE_YTDLP_ARGS")),
		ResolveInterval: getEnvDuration("YTLIVE_RESOLVE_INTERVAL", 2*time.Second),
		SkipFailed:      getEnvBool("YTLIVE_SKIP_FAILED", false),
		VerifyManifest:  getEnvBool("YTLIVE_VERIFY_MANIFEST", false),
		VerifyTimeout:   getEnvDuration("YTLIVE_VERIFY_TIMEOUT", 15*time.Second),
		WatchCron:       getEnv("YTLIVE_WATCH_CRON", "0 */4 * * *"),
		WatchOnStart:    getEnvBool("YTLIVE_WATCH_ON_START", true),
		WatchRewrite:    getEnvBool("YTLIVE_WATCH_REWRITE", false),
		MetricsFile:     os.Getenv("YTLIVE_METRICS_FILE"),
		LogLevel:        getEnv("YTLIVE_LOG_LEVEL", "info"),
		LogJSON:         getEnvBool("YTLIVE_LOG_JSON", false),
		SafeLogs:        getEnvBool("YTLIVE_SAFE_LOGS", false),
	}
	if c.ResolveInterval < 0 {
		c.ResolveInterval = 0
	}
	if c.VerifyTimeout <= 0 {
		c.VerifyTimeout = 15 * time.Second
	}
	if strings.TrimSpace(c.BackupSuffix) == "" {
		c.BackupSuffix = ".bak"
	}
	return c
}

// BackupPath returns the path the patch backup is written to.
func (c *Config) BackupPath() string {
	return c.PlaylistPath + c.BackupSuffix
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// bare integer = seconds
	if n := getEnvInt(key, -1); n >= 0 {
		return time.Duration(n) * time.Second
	}
	return defaultVal
}
