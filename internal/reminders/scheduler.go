package reminders

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler drives the scanner once per minute. A scan that overruns its
// minute is skipped rather than stacked, so a slow store can never pile up
// concurrent scans.
type Scheduler struct {
	scanner *Scanner
	cron    *cron.Cron
}

func NewScheduler(scanner *Scanner, loc *time.Location) (*Scheduler, error) {
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	s := &Scheduler{scanner: scanner, cron: c}
	if _, err := c.AddFunc("* * * * *", s.run); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Second)
	defer cancel()

	sent, err := s.scanner.Scan(ctx, time.Now())
	if err != nil {
		log.Printf("reminders: scan failed: %v", err)
		return
	}
	if sent > 0 {
		log.Printf("reminders: sent %d reminder(s)", sent)
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("reminders: scheduler started")
}

// Stop halts the cron loop and waits for an in-flight scan to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Printf("reminders: scheduler stopped")
}
