// Package loop provides the frame scheduler and the fixed-rate loop that drives it.
package loop

import (
	"context"
	"errors"
	"time"
)

// DefaultFPS is the frame rate used when Options.FPS is unset.
const DefaultFPS = 60

// ErrStopped may be returned by a hook to end Run without an error.
var ErrStopped = errors.New("loop: stopped")

// Options configures Run.
type Options struct {
	FPS int

	// Before runs at the start of every frame (input, resize).
	Before func() error
	// After runs once the frame's callbacks have finished (present).
	After func() error
}

// Run drives the scheduler with the Input → Update → Draw cycle at a fixed
// frame rate until ctx is canceled or a hook fails. A hook returning
// ErrStopped ends the loop cleanly.
func Run(ctx context.Context, s *Scheduler, opts Options) error {
	fps := opts.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	frameTime := time.Second / time.Duration(fps)

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		if ctx.Err() != nil {
			return nil
		}

		frameStart := time.Now()

		// ===== INPUT PHASE =====
		if opts.Before != nil {
			if err := opts.Before(); err != nil {
				return stopErr(err)
			}
		}

		// ===== UPDATE + DRAW PHASE =====
		s.Tick(frameStart)

		// ===== PRESENT PHASE =====
		if opts.After != nil {
			if err := opts.After(); err != nil {
				return stopErr(err)
			}
		}

		// ===== FRAME TIMING =====
		elapsed := time.Since(frameStart)
		if elapsed >= frameTime {
			continue
		}
		timer.Reset(frameTime - elapsed)
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
	}
}

func stopErr(err error) error {
	if errors.Is(err, ErrStopped) {
		return nil
	}
	return err
}
