package cronjob

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stavlog/stavlog-backend/internal/snapshot"
)

// Scheduler owns the background maintenance jobs: a nightly full resync to
// repair any drift the change feed missed, and a periodic sweep that
// refreshes rooms flagged stale.
type Scheduler struct {
	store  *snapshot.Store
	userID string
	cron   *cron.Cron
}

func NewScheduler(store *snapshot.Store, userID string) *Scheduler {
	return &Scheduler{store: store, userID: userID}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() {
	c := cron.New(cron.WithSeconds())

	// full resync at 3:00 AM, off the working hours of a construction crew
	_, err := c.AddFunc("0 0 3 * * *", func() {
		s.runNightlyResync()
	})
	if err != nil {
		log.Printf("Failed to create resync cron job: %v", err)
		return
	}

	_, err = c.AddFunc("0 */5 * * * *", func() {
		s.runStaleSweep()
	})
	if err != nil {
		log.Printf("Failed to create stale sweep cron job: %v", err)
		return
	}

	log.Println("Cron scheduler started (nightly resync at 3:00AM, stale sweep every 5m)")
	c.Start()
	s.cron = c
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) runNightlyResync() {
	log.Println("Nightly resync started...")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.store.Load(ctx, s.userID); err != nil {
		log.Printf("Nightly resync failed: %v", err)
		return
	}

	log.Println("Nightly resync completed at:", time.Now().Format(time.RFC1123))
}

// runStaleSweep re-fetches rooms that change events marked stale. Only
// projects whose rooms were already loaded carry fresh data worth keeping,
// so the sweep reloads exactly those.
func (s *Scheduler) runStaleSweep() {
	stale := s.store.StaleRooms()
	if len(stale) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for projectID, roomIDs := range stale {
		if _, err := s.store.LoadRooms(ctx, projectID); err != nil {
			log.Printf("Stale sweep: reloading rooms of project %s failed: %v", projectID, err)
			continue
		}
		log.Printf("Stale sweep: refreshed %d room(s) of project %s", len(roomIDs), projectID)
	}
}
