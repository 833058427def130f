package service

import (
	"context"
	"sync"
	"time"

	"activity-giveaway-bot/internal/common/errors"
	"activity-giveaway-bot/internal/common/logger"
)

// ExpirationService is the lifecycle scheduler: a recurring sweep that finds
// expired open giveaways and drives each through close → draw → announce.
type ExpirationService struct {
	ctx      context.Context
	cancel   context.CancelFunc
	svc      *GiveawayService
	interval time.Duration

	// processing guards against the same giveaway being finished by two
	// overlapping sweeps.
	processing sync.Map
	wg         sync.WaitGroup
}

func NewExpirationService(svc *GiveawayService, interval time.Duration) *ExpirationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &ExpirationService{
		ctx:      ctx,
		cancel:   cancel,
		svc:      svc,
		interval: interval,
	}
}

func (s *ExpirationService) Start() {
	logger.Info().Dur("interval", s.interval).Msg("Starting expiration sweep")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.ctx.Done():
				return
			}
		}
	}()
}

func (s *ExpirationService) Stop() {
	logger.Info().Msg("Stopping expiration sweep")
	s.cancel()
	s.wg.Wait()
}

// Sweep runs one pass: every open giveaway past its end time is finished.
func (s *ExpirationService) Sweep() {
	expired, err := s.svc.ListExpired(s.ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list expired giveaways")
		return
	}

	for _, giveaway := range expired {
		if _, loaded := s.processing.LoadOrStore(giveaway.ID, struct{}{}); loaded {
			continue
		}

		s.wg.Add(1)
		go func(id string) {
			defer s.wg.Done()
			defer s.processing.Delete(id)

			_, _, err := s.svc.Finish(s.ctx, id)
			if err != nil {
				// A lost close race (manual /gend won) is expected here.
				if appErr, ok := errors.AsAppError(err); ok && appErr.Code == errors.ErrCodeGiveawayInactive {
					return
				}
				logger.Error().Err(err).Str("giveaway_id", id).Msg("Failed to finish expired giveaway")
			}
		}(giveaway.ID)
	}
}
