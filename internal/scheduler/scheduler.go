package scheduler

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/usecase"
	"go.uber.org/zap"
)

// Scheduler drives the two background sweeps: expiring listings past their
// deadline and evaluating saved searches against newly activated listings.
type Scheduler struct {
	lifecycle *usecase.ListingLifecycleUsecase
	alerts    *usecase.AlertMatcherUsecase
	cfg       *config.SweepConfig
	logger    *logger.Logger
}

func NewScheduler(
	lifecycle *usecase.ListingLifecycleUsecase,
	alerts *usecase.AlertMatcherUsecase,
	cfg *config.SweepConfig,
	log *logger.Logger,
) *Scheduler {
	return &Scheduler{
		lifecycle: lifecycle,
		alerts:    alerts,
		cfg:       cfg,
		logger:    log.Named("Scheduler"),
	}
}

// Run blocks until ctx is cancelled. Each sweep runs on its own interval;
// a failed pass is logged and retried on the next tick.
func (s *Scheduler) Run(ctx context.Context) {
	expiry := time.NewTicker(s.cfg.ExpiryInterval)
	defer expiry.Stop()
	alerts := time.NewTicker(s.cfg.AlertInterval)
	defer alerts.Stop()

	s.logger.Info("Scheduler started",
		zap.Duration("expiry_interval", s.cfg.ExpiryInterval),
		zap.Duration("alert_interval", s.cfg.AlertInterval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return
		case <-expiry.C:
			expired, err := s.lifecycle.ExpireDue(ctx, time.Now().UTC(), s.cfg.BatchSize)
			if err != nil {
				s.logger.Error("Expiry sweep failed", zap.Error(err))
				continue
			}
			if expired > 0 {
				s.logger.Info("Expiry sweep completed", zap.Int("expired", expired))
			}
		case <-alerts.C:
			if err := s.alerts.RunSweep(ctx, time.Now().UTC(), s.cfg.BatchSize); err != nil {
				s.logger.Error("Alert sweep failed", zap.Error(err))
			}
		}
	}
}
