// Package maint runs background maintenance against the store. The only
// job today is the orphan-cell sweep: deleting a column in the builder
// leaves that column's values behind in the row data, and the sweep strips
// them out asynchronously.
package maint

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/goabroad-labs/studytables/internal/store"
)

// Sweeper periodically purges orphaned cell values.
type Sweeper struct {
	store store.Store
	cron  *cron.Cron
}

// NewSweeper schedules the sweep with the given cron spec (for example
// "@hourly" or "*/30 * * * *").
func NewSweeper(st store.Store, spec string) (*Sweeper, error) {
	s := &Sweeper{store: st, cron: cron.New()}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid sweep spec %q: %w", spec, err)
	}
	return s, nil
}

// Start begins running the schedule in its own goroutine.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop stops the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.store.PurgeOrphanCells(ctx)
	if err != nil {
		log.Printf("[SWEEP] purge failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[SWEEP] purged %d orphaned cell values", n)
	}
}

// RunOnce triggers a sweep immediately, outside the schedule. Used by the
// serve command at startup so a long-idle database starts clean.
func (s *Sweeper) RunOnce() {
	s.run()
}
