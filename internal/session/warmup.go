package session

import (
	"context"
	"time"
)

const warmupTimeout = 10 * time.Second

// StartWarmup fires the warm-up ping in the background, at most once per
// session. The result never reaches the user; failures go to the log only.
func (s *Session) StartWarmup() {
	s.warmupOnce.Do(func() {
		if s.pinger == nil {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), warmupTimeout)
			defer cancel()
			if err := s.pinger.Ping(ctx); err != nil {
				s.logf("warm-up ping: %v", err)
			}
		}()
	})
}
