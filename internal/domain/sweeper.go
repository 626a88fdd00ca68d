package domain

import (
	"context"
	"errors"
	"log"
	"time"
)

// ExpirySweeper ends active activities whose expiration date has passed. The
// native layer is expected to expire its own presentation; the sweeper keeps
// the repository and event stream in agreement with it.
type ExpirySweeper struct {
	service          *Service
	pollInterval     time.Duration
	shutdownComplete chan struct{}
}

// NewExpirySweeper constructs an ExpirySweeper.
func NewExpirySweeper(service *Service, pollInterval time.Duration) *ExpirySweeper {
	return &ExpirySweeper{
		service:          service,
		pollInterval:     pollInterval,
		shutdownComplete: make(chan struct{}),
	}
}

// Start launches the polling loop. It should be called in a goroutine.
func (s *ExpirySweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer func() {
		ticker.Stop()
		close(s.shutdownComplete)
	}()

	for {
		if err := s.sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("expiry sweeper error: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Wait blocks until the sweeper stops.
func (s *ExpirySweeper) Wait() {
	<-s.shutdownComplete
}

func (s *ExpirySweeper) sweep(ctx context.Context) error {
	active, err := s.service.GetActiveActivities(ctx)
	if err != nil {
		return err
	}

	now := s.service.now().UTC()
	for _, instance := range active {
		expiry := instance.Config.ExpirationDate
		if expiry == nil || expiry.After(now) {
			continue
		}
		if endErr := s.service.EndActivity(ctx, EndRequest{
			ActivityID:      instance.ID,
			DismissalPolicy: DismissalDefault,
		}); endErr != nil {
			log.Printf("expiry sweeper: failed to end %s: %v", instance.ID, endErr)
		}
	}
	return nil
}
