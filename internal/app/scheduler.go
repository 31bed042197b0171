package app

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// job is a background task run on a cron schedule. An empty schedule
// disables it.
type job struct {
	name     string
	schedule string
	timeout  time.Duration
	run      func(ctx context.Context) error
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	lg *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.lg.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.lg.Errorw(msg, append(keysAndValues, "error", err)...)
}

// newScheduler registers jobs on a cron scheduler that is not yet started.
// Each run gets its own timeout derived from ctx; overlapping runs of the
// same job are skipped.
func newScheduler(ctx context.Context, lg *zap.Logger, jobs ...job) (*cron.Cron, error) {
	clog := cronLogger{lg: lg.Named("cron").Sugar()}
	c := cron.New(
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)

	for _, j := range jobs {
		if j.schedule == "" {
			lg.Info("Job disabled", zap.String("job", j.name))
			continue
		}
		if _, err := c.AddFunc(j.schedule, func() {
			runCtx, cancel := context.WithTimeout(ctx, j.timeout)
			defer cancel()

			start := time.Now()
			if err := j.run(runCtx); err != nil {
				lg.Warn("Job failed", zap.String("job", j.name), zap.Error(err))
				return
			}
			lg.Debug("Job done", zap.String("job", j.name), zap.Duration("took", time.Since(start)))
		}); err != nil {
			return nil, errors.Wrapf(err, "register job %s", j.name)
		}
	}
	return c, nil
}
