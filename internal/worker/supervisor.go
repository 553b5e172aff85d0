package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runner is a long-lived task. Run returns nil on clean shutdown and an error
// when it stopped unexpectedly.
type Runner interface {
	Name() string
	Run(ctx context.Context) error
}

// Supervisor keeps runners alive, restarting failed ones with exponential
// backoff until its context ends.
type Supervisor struct {
	logger     *zap.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
	wg         sync.WaitGroup
}

// NewSupervisor uses a 1s to 30s backoff.
func NewSupervisor(logger *zap.Logger) *Supervisor {
	return &Supervisor{logger: logger, minBackoff: time.Second, maxBackoff: 30 * time.Second}
}

// Go starts r in its own goroutine.
func (s *Supervisor) Go(ctx context.Context, r Runner) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.supervise(ctx, r)
	}()
}

// Wait blocks until every runner has returned.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

func (s *Supervisor) supervise(ctx context.Context, r Runner) {
	backoff := s.minBackoff
	for {
		started := time.Now()
		err := r.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			s.logger.Info("worker finished", zap.String("worker", r.Name()))
			return
		}
		// a runner that stayed up for a while gets a fresh backoff
		if time.Since(started) > s.maxBackoff {
			backoff = s.minBackoff
		}
		s.logger.Error("worker stopped, restarting",
			zap.String("worker", r.Name()),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		backoff *= 2
		if backoff > s.maxBackoff {
			backoff = s.maxBackoff
		}
	}
}
