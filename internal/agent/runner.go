package agent

import (
	"context"
	"errors"
	"log/slog"
	"time"

	channerics "github.com/niceyeti/channerics/channels"

	"github.com/holycrab/minerview/internal/telemetry"
)

// DefaultTickDelay is the pause between simulation ticks.
const DefaultTickDelay = time.Second

// Runner is the simulation loop: it ticks Runtime every Delay and sends the
// resulting sample to Channel. It never waits on the consumer.
type Runner struct {
	Runtime Runtime
	Channel *telemetry.Channel
	Delay   time.Duration
	Logger  *slog.Logger
}

// Run loops until ctx is cancelled or the consumer closes the channel, in
// both cases returning nil. The initial state is sent before the first tick.
// A failing tick is logged and the loop carries on.
func (r *Runner) Run(ctx context.Context) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	delay := r.Delay
	if delay <= 0 {
		delay = DefaultTickDelay
	}

	if stop := r.publish(logger); stop {
		return nil
	}

	ticks := channerics.NewTicker(ctx.Done(), delay)
	for {
		select {
		case <-ctx.Done():
			logger.Info("simulation stopped", "reason", context.Cause(ctx))
			return nil
		case _, ok := <-ticks:
			if !ok {
				return nil
			}
		}
		if err := r.Runtime.ProcessTick(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			logger.Warn("agent tick failed", "err", err)
		}
		if stop := r.publish(logger); stop {
			return nil
		}
	}
}

// publish sends the current sample and reports whether the loop must stop.
func (r *Runner) publish(logger *slog.Logger) bool {
	s := SampleOf(r.Runtime)
	if err := r.Channel.Send(s); err != nil {
		if errors.Is(err, telemetry.ErrClosed) {
			logger.Info("visualizer closed telemetry channel, stopping simulation")
		} else {
			logger.Error("send sample", "err", err)
		}
		return true
	}
	return false
}
