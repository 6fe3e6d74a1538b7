package service

import (
	"context"
	"errors"
	"time"

	"github.com/anthanhphan/go-dataset-agent/internal/agent/domain"
	"github.com/anthanhphan/gosdk/logger"
)

// scheduleService repeats iterations. An empty plan sleeps the base interval,
// a plan that did work re-checks at once, and failures back off exponentially.
type scheduleService struct {
	core     *AgentServiceImpl
	failures int
}

func newScheduleService(core *AgentServiceImpl) *scheduleService {
	return &scheduleService{core: core}
}

func (s *scheduleService) run(ctx context.Context) {
	logger.Infow("Convergence loop started",
		"hostname", s.core.cfg.Hostname,
		"interval", s.core.cfg.Interval.String(),
	)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Infow("Convergence loop stopped", "hostname", s.core.cfg.Hostname)
			return
		case <-timer.C:
		}

		// ctx only stops the loop between iterations.
		report, err := s.core.RunOnce(context.WithoutCancel(ctx))
		if ctx.Err() != nil {
			continue
		}
		timer.Reset(s.nextDelay(report, err))
	}
}

// nextDelay picks the pause before the next iteration.
func (s *scheduleService) nextDelay(report domain.IterationReport, err error) time.Duration {
	cfg := s.core.cfg

	if errors.Is(err, ErrIterationInProgress) {
		return cfg.Interval
	}
	if err != nil || !report.Succeeded() {
		s.failures++
		return backoff(cfg.Interval, cfg.MaxBackoff, s.failures)
	}

	s.failures = 0
	if len(report.Outcomes) > 0 {
		return 0
	}
	return cfg.Interval
}

// backoff doubles base once per failure, capped at limit.
func backoff(base, limit time.Duration, failures int) time.Duration {
	delay := base
	for i := 0; i < failures && delay < limit; i++ {
		delay *= 2
	}
	return min(delay, limit)
}
