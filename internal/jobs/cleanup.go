package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type PresencePruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	PruneHistory(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupJob drops stale student presence rows and old login history.
type CleanupJob struct {
	presence         PresencePruner
	presenceTTL      time.Duration
	historyRetention time.Duration
	interval         time.Duration
	now              func() time.Time
	done             chan struct{}
}

func NewCleanupJob(
	presence PresencePruner,
	presenceTTL time.Duration,
	historyRetention time.Duration,
	interval time.Duration,
) *CleanupJob {
	return &CleanupJob{
		presence:         presence,
		presenceTTL:      presenceTTL,
		historyRetention: historyRetention,
		interval:         interval,
		now:              time.Now,
		done:             make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := j.now()
	j.runCleanup(ctx, "student presence", func(ctx context.Context) (int64, error) {
		return j.presence.DeleteOlderThan(ctx, now.Add(-j.presenceTTL))
	})
	j.runCleanup(ctx, "login history", func(ctx context.Context) (int64, error) {
		return j.presence.PruneHistory(ctx, now.Add(-j.historyRetention))
	})
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}
