package updater

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/snapetech/ytlive-m3u/internal/logger"
)

// Watch runs PatchAll (or Refresh when the config asks for rewrites) on the cron schedule spec
// until ctx is cancelled. A tick that fires while the previous run is still going is skipped.
// Returns after the in-flight run, if any, has finished.
func (u *Updater) Watch(ctx context.Context, spec string) error {
	cl := cronLogger{u.log()}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	if _, err := c.AddFunc(spec, func() { u.tick(ctx) }); err != nil {
		return fmt.Errorf("watch: schedule %q: %w", spec, err)
	}
	u.log().Logf("watch: schedule %q, rewrite=%t", spec, u.Config.WatchRewrite)

	if u.Config.WatchOnStart {
		u.tick(ctx)
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	u.log().Logf("watch: stopped")
	return nil
}

func (u *Updater) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if u.Config.WatchRewrite {
		if _, err := u.Refresh(ctx); err != nil {
			u.log().Errorf("watch: refresh: %v", err)
		}
		return
	}
	if err := u.PatchAll(ctx); err != nil {
		u.log().Errorf("watch: patch: %v", err)
	}
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debugf("cron: %s %v", msg, keysAndValues)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Errorf("cron: %s: %v %v", msg, err, keysAndValues)
}
