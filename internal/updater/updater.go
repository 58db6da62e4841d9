// Package updater runs the resolve-then-commit flow: full playlist rewrites, single-channel
// patches and the cron-driven watch loop.
package updater

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/snapetech/ytlive-m3u/internal/catalog"
	"github.com/snapetech/ytlive-m3u/internal/config"
	"github.com/snapetech/ytlive-m3u/internal/health"
	"github.com/snapetech/ytlive-m3u/internal/httpclient"
	"github.com/snapetech/ytlive-m3u/internal/logger"
	"github.com/snapetech/ytlive-m3u/internal/metrics"
	"github.com/snapetech/ytlive-m3u/internal/playlist"
	"github.com/snapetech/ytlive-m3u/internal/resolver"
)

// URLResolver turns a channel source URL into a playable URL. *resolver.Resolver implements it.
type URLResolver interface {
	Resolve(ctx context.Context, source string) (string, error)
}

// Updater holds what one run needs. The zero Limiter and Verify disable pacing and manifest checks.
type Updater struct {
	sync.Mutex // one run at a time

	Config   *config.Config
	Resolver URLResolver
	Log      logger.Logger
	Limiter  *rate.Limiter
	// Verify, when set, is called with each resolved URL before it is committed.
	Verify func(ctx context.Context, streamURL string) error
	Now    func() time.Time
}

// New builds an Updater wired to yt-dlp, metrics and (when enabled) the manifest check.
func New(cfg *config.Config, log logger.Logger) *Updater {
	if log == nil {
		log = logger.Default()
	}
	r := resolver.New(cfg.YtDlpPath, cfg.YtDlpArgs)
	r.Observe = func(a resolver.Attempt) {
		outcome := metrics.OutcomeOK
		switch {
		case a.Err != nil:
			outcome = metrics.OutcomeError
			log.Debugf("resolve %s: strategy %s failed after %s: %v", a.Source, a.Strategy, a.Duration.Round(time.Millisecond), a.Err)
		case a.URL == "":
			outcome = metrics.OutcomeEmpty
			log.Debugf("resolve %s: strategy %s returned no URL", a.Source, a.Strategy)
		default:
			log.Debugf("resolve %s: strategy %s ok in %s", a.Source, a.Strategy, a.Duration.Round(time.Millisecond))
		}
		metrics.RecordResolution(a.Strategy, outcome, a.Duration)
	}
	u := &Updater{
		Config:   cfg,
		Resolver: r,
		Log:      log,
		Limiter:  NewLimiter(cfg.ResolveInterval),
	}
	if cfg.VerifyManifest {
		client := httpclient.WithTimeout(cfg.VerifyTimeout)
		u.Verify = func(ctx context.Context, streamURL string) error {
			m, err := health.CheckManifest(ctx, client, streamURL)
			if err != nil {
				return err
			}
			log.Debugf("manifest ok: %s", m)
			return nil
		}
	}
	return u
}

// NewLimiter allows one resolver call per interval with no burst. interval <= 0 disables pacing.
func NewLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

func (u *Updater) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now()
}

func (u *Updater) log() logger.Logger {
	if u.Log == nil {
		return logger.Nop{}
	}
	return u.Log
}

// resolve paces, resolves and optionally verifies one channel's stream URL.
func (u *Updater) resolve(ctx context.Context, ch catalog.Channel) (string, error) {
	if ch.Source == "" {
		return "", fmt.Errorf("%s: no source URL", ch.Label())
	}
	if u.Limiter != nil {
		if err := u.Limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	streamURL, err := u.Resolver.Resolve(ctx, ch.Source)
	if err != nil {
		return "", err
	}
	if u.Verify != nil {
		if err := u.Verify(ctx, streamURL); err != nil {
			return "", fmt.Errorf("%s: manifest check: %w", ch.Label(), err)
		}
	}
	return streamURL, nil
}

func (u *Updater) loadChannels() ([]catalog.Channel, error) {
	cat, err := catalog.Load(u.Config.ChannelsPath)
	if err != nil {
		return nil, err
	}
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("channels %s: %w", u.Config.ChannelsPath, err)
	}
	return cat.Channels, nil
}

// Refresh resolves every channel in the channel file in order and rewrites the playlist.
// A failed channel aborts the run unless SkipFailed is set, in which case it is left out. When
// every channel fails the playlist is not touched. Returns the number of entries written.
func (u *Updater) Refresh(ctx context.Context) (int, error) {
	u.Lock()
	defer u.Unlock()
	n, err := u.refresh(ctx)
	u.finish(err)
	metrics.RecordRefresh(err, n)
	u.flushMetrics()
	return n, err
}

func (u *Updater) refresh(ctx context.Context) (int, error) {
	channels, err := u.loadChannels()
	if err != nil {
		return 0, err
	}
	entries := make([]catalog.Channel, 0, len(channels))
	for _, ch := range channels {
		ch = ch.WithDefaults()
		streamURL, err := u.resolve(ctx, ch)
		if err != nil {
			if u.Config.SkipFailed && ctx.Err() == nil {
				u.log().Warnf("refresh: skipping %s: %v", ch.Label(), err)
				continue
			}
			return 0, err
		}
		ch.URL = streamURL
		entries = append(entries, ch)
		u.log().Logf("refresh: resolved %s", ch.Label())
	}
	if len(entries) == 0 && len(channels) > 0 {
		return 0, fmt.Errorf("refresh: none of %d channel(s) resolved, keeping %s", len(channels), u.Config.PlaylistPath)
	}
	if err := playlist.Write(u.Config.PlaylistPath, entries); err != nil {
		return 0, err
	}
	u.log().Logf("refresh: wrote %d of %d channel(s) to %s", len(entries), len(channels), u.Config.PlaylistPath)
	return len(entries), nil
}

// PatchOne resolves ch and patches every playlist entry whose tvg-id equals ch.ID or whose
// display name equals ch.Title.
func (u *Updater) PatchOne(ctx context.Context, ch catalog.Channel) (playlist.Result, error) {
	u.Lock()
	defer u.Unlock()
	res, err := u.patchOne(ctx, ch)
	u.finish(err)
	u.flushMetrics()
	return res, err
}

func (u *Updater) patchOne(ctx context.Context, ch catalog.Channel) (playlist.Result, error) {
	streamURL, err := u.resolve(ctx, ch)
	if err != nil {
		metrics.RecordPatch(metrics.OutcomeError)
		return playlist.Result{}, err
	}
	ed := playlist.Editor{BackupSuffix: u.Config.BackupSuffix}
	res, err := ed.Patch(u.Config.PlaylistPath, playlist.Match{ID: ch.ID, Name: ch.Title}, streamURL)
	if err != nil {
		metrics.RecordPatch(metrics.OutcomeError)
		return res, err
	}
	switch {
	case res.Changed:
		metrics.RecordPatch(metrics.OutcomeChanged)
		u.log().Logf("patch: updated %s (%d replaced, %d inserted), backup %s", ch.Label(), res.Updated, res.Inserted, u.Config.BackupPath())
	case res.Matched == 0:
		metrics.RecordPatch(metrics.OutcomeUnchanged)
		u.log().Warnf("patch: no entry for %s in %s", ch.Label(), u.Config.PlaylistPath)
	default:
		metrics.RecordPatch(metrics.OutcomeUnchanged)
		u.log().Logf("patch: %s unchanged", ch.Label())
	}
	return res, nil
}

// PatchAll runs PatchOne for every channel in the channel file, continuing past failures.
// The returned error joins every per-channel error.
func (u *Updater) PatchAll(ctx context.Context) error {
	u.Lock()
	defer u.Unlock()
	err := u.patchAll(ctx)
	u.finish(err)
	u.flushMetrics()
	return err
}

func (u *Updater) patchAll(ctx context.Context) error {
	channels, err := u.loadChannels()
	if err != nil {
		return err
	}
	var errs []error
	for _, ch := range channels {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if _, err := u.patchOne(ctx, ch); err != nil {
			u.log().Errorf("patch: %s: %v", ch.Label(), err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (u *Updater) finish(err error) {
	if err == nil {
		metrics.MarkSuccess(u.now())
	}
}

func (u *Updater) flushMetrics() {
	if err := metrics.WriteTextfile(u.Config.MetricsFile); err != nil {
		u.log().Warnf("%v", err)
	}
}
