package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/firehall-dev/duty-roster/backend/internal/config"
	"github.com/firehall-dev/duty-roster/backend/internal/domain"
	"github.com/firehall-dev/duty-roster/backend/internal/notifier"
	"github.com/firehall-dev/duty-roster/backend/internal/repository"
)

// Sweeper periodically cancels open replacements whose application
// deadline has passed and tells the person who requested cover that
// nobody took the slot.
type Sweeper struct {
	cfg       *config.Config
	repo      *repository.Repository
	publisher *notifier.Publisher
	logger    *slog.Logger
	cron      *cron.Cron
}

func New(cfg *config.Config, repo *repository.Repository, publisher *notifier.Publisher, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		cfg:       cfg,
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		cron:      cron.New(),
	}
}

func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.Sweeper.CronSpec, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) sweep() {
	ctx := context.Background()

	expired, err := s.repo.ExpireOverdueReplacements(ctx, time.Now())
	if err != nil {
		s.logger.Error("failed to expire overdue replacements", "error", err.Error())
		return
	}
	if len(expired) == 0 {
		return
	}

	s.logger.Info("expired overdue replacements", "count", len(expired))

	for _, rep := range expired {
		if rep.OriginalUserID == nil {
			continue
		}

		user, err := s.repo.GetUserByID(*rep.OriginalUserID)
		if err != nil {
			s.logger.Error("failed to load user for expiry notice", "userID", *rep.OriginalUserID, "error", err.Error())
			continue
		}

		data := domain.ReplacementAssignedData{
			FullName:  user.FullName,
			ShiftDate: rep.ShiftDate.Format("2006-01-02"),
			ShiftType: string(rep.ShiftType),
		}
		if err := s.publisher.NotifyUser(user, "replacement_expired", data); err != nil {
			s.logger.Error("failed to publish expiry notice", "replacementID", rep.ID, "error", err.Error())
		}
	}
}
