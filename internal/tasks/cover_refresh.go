// Package tasks holds the background jobs run alongside the HTTP server.
package tasks

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/wkxuan/booknotes/internal/entities"
)

// refreshBatchSize caps how many missing covers one run probes, keeping each
// run polite towards the upstream.
const refreshBatchSize = 20

// CoverResolver matches the covers.Resolver probe method.
type CoverResolver interface {
	Resolve(ctx context.Context, scheme, number string) string
}

// CoverRefresher periodically re-probes books that carry an external id but
// no stored cover. A cover that did not exist upstream at save time may
// appear later.
type CoverRefresher struct {
	db       *gorm.DB
	resolver CoverResolver

	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
}

// NewCoverRefresher creates a refresher; call Start to schedule it.
func NewCoverRefresher(db *gorm.DB, resolver CoverResolver) *CoverRefresher {
	return &CoverRefresher{
		db:       db,
		resolver: resolver,
		cron:     cron.New(),
	}
}

// Start schedules the refresh job with the given cron expression.
func (r *CoverRefresher) Start(ctx context.Context, schedule string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRunning {
		return nil
	}

	_, err := r.cron.AddFunc(schedule, func() {
		r.runRefresh(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule cover refresh: %w", err)
	}

	r.cron.Start()
	r.isRunning = true
	log.Printf("Cover refresh scheduler: started with schedule %q", schedule)
	return nil
}

// Stop halts the scheduler. Safe to call when never started.
func (r *CoverRefresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRunning {
		return
	}
	stopCtx := r.cron.Stop()
	<-stopCtx.Done()
	r.isRunning = false
	log.Printf("Cover refresh scheduler: stopped")
}

// runRefresh probes one batch of coverless records and stores any hits.
func (r *CoverRefresher) runRefresh(ctx context.Context) {
	var pending []entities.BookInfo
	err := r.db.
		Where("id_scheme IS NOT NULL AND id_number IS NOT NULL AND (cover_url IS NULL OR cover_url = '')").
		Limit(refreshBatchSize).
		Find(&pending).Error
	if err != nil {
		log.Printf("Cover refresh: query failed: %v", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	found := 0
	for _, info := range pending {
		if ctx.Err() != nil {
			return
		}
		cover := r.resolver.Resolve(ctx, *info.IDScheme, *info.IDNumber)
		if cover == "" {
			continue
		}
		err := r.db.Model(&entities.BookInfo{}).
			Where("id = ?", info.ID).
			Update("cover_url", cover).Error
		if err != nil {
			log.Printf("Cover refresh: update failed for book %d: %v", info.ID, err)
			continue
		}
		found++
	}
	log.Printf("Cover refresh: probed %d records, found %d covers", len(pending), found)
}
