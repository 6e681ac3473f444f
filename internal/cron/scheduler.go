package cron

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// PendingPurger removes stale rejected signup requests.
// Satisfied by *repository.PendingRepository.
type PendingPurger interface {
	DeleteRejectedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// StatsWarmer precomputes dashboard aggregates for active users.
// Satisfied by *service.ProjectService.
type StatsWarmer interface {
	WarmStatsCache(ctx context.Context) (int, error)
}

const rejectedRetention = 30 * 24 * time.Hour

type Scheduler struct {
	pending PendingPurger
	warmer  StatsWarmer
	c       *cron.Cron
}

func NewScheduler(pending PendingPurger, warmer StatsWarmer) *Scheduler {
	return &Scheduler{pending: pending, warmer: warmer}
}

// Start registers the nightly jobs and begins the schedule.
func (s *Scheduler) Start() {
	s.c = cron.New(cron.WithSeconds())

	// 12:00 AM
	_, err := s.c.AddFunc("0 0 0 * * *", func() {
		s.runNightlyJobs()
	})
	if err != nil {
		log.Printf("Failed to create cron job: %v", err)
		return
	}

	log.Println("Cron scheduler started (running nightly at 12:00AM)")
	s.c.Start()
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	if s.c != nil {
		<-s.c.Stop().Done()
	}
}

func (s *Scheduler) runNightlyJobs() {
	log.Println("Nightly job started (purge + warm)...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	purged, err := s.pending.DeleteRejectedBefore(ctx, time.Now().Add(-rejectedRetention))
	if err != nil {
		log.Printf("Purge of rejected signups failed: %v", err)
	} else if purged > 0 {
		log.Printf("Purged %d rejected signup requests", purged)
	}

	warmed, err := s.warmer.WarmStatsCache(ctx)
	if err != nil {
		log.Printf("Stats warm failed: %v", err)
		return
	}

	log.Printf("Nightly job completed (warmed %d users) at: %s", warmed, time.Now().Format(time.RFC1123))
}
