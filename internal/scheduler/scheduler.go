package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	SessionSweepSpec      = "*/5 * * * *"
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
	sweepSessionsTimeout  = time.Minute
)

// Sweeper drops sessions that have been idle for longer than idle.
type Sweeper interface {
	Sweep(ctx context.Context, idle time.Duration) int
}

// Pruner forgets per-chat send pacing that no longer delays anything.
type Pruner interface {
	PruneRateLimits() int
}

type Scheduler struct {
	ctx     context.Context
	cron    *cron.Cron
	sweeper Sweeper
	pruner  Pruner
	idleTTL time.Duration
	log     *slog.Logger
}

func New(
	ctx context.Context,
	sweeper Sweeper,
	pruner Pruner,
	idleTTL time.Duration,
	log *slog.Logger,
) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	return &Scheduler{
		ctx:     ctx,
		cron:    c,
		sweeper: sweeper,
		pruner:  pruner,
		idleTTL: idleTTL,
		log:     log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(SessionSweepSpec, s.sweepSessions); err != nil {
		return err
	}

	s.cron.Start()

	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sweepSessions() {
	ctx, cancel := context.WithTimeout(s.ctx, sweepSessionsTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	removed := s.sweeper.Sweep(ctx, s.idleTTL)
	pruned := s.pruner.PruneRateLimits()

	s.log.DebugContext(ctx, "Session sweep is finished",
		"removed", removed,
		"prunedRateLimits", pruned,
		"idleTTL", s.idleTTL.String())
}
