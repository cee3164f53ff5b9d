package authsvc

import (
	"log/slog"
	"sync"
	"time"
)

// sweepInterval is the backstop sweep period for idle deployments.
// Active deployments mostly stay clean through the sweep every Verify
// performs.
const sweepInterval = time.Hour

// Sweeper periodically removes expired sessions in the background.
// It is owned by whoever started it and must be stopped at teardown.
type Sweeper struct {
	svc      *Service
	interval time.Duration
	logger   *slog.Logger
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSweeper starts a background sweep loop over svc. An interval of 0
// uses the hourly default.
func NewSweeper(svc *Service, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = sweepInterval
	}
	s := &Sweeper{
		svc:      svc,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go s.loop()
	return s
}

// Stop terminates the sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	<-s.doneCh
}

func (s *Sweeper) loop() {
	defer close(s.doneCh)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if err := s.svc.SweepExpired(s.svc.now()); err != nil && s.logger != nil {
				s.logger.Warn("session sweep failed", "error", err)
			}
		}
	}
}
