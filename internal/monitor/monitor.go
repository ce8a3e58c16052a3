package monitor

import (
	"context"
	"log"
	"time"

	"wear-and-tear-backend/config"
	"wear-and-tear-backend/internal/metrics"
	"wear-and-tear-backend/internal/notification"
	"wear-and-tear-backend/internal/service"
	"wear-and-tear-backend/internal/store"
	"wear-and-tear-backend/internal/wear"
)

// Service periodically evaluates every item, records its wear level and
// alerts subscribers about escalations.
type Service struct {
	cfg        *config.Config
	store      store.Store
	items      *service.Service
	workerPool *notification.WorkerPool
	metrics    *metrics.Metrics
}

// NewService creates the monitor.
func NewService(cfg *config.Config, s store.Store, items *service.Service, pool *notification.WorkerPool, m *metrics.Metrics) *Service {
	return &Service{
		cfg:        cfg,
		store:      s,
		items:      items,
		workerPool: pool,
		metrics:    m,
	}
}

// Run starts the evaluation loop and blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Monitor.Enabled {
		log.Println("Monitor is disabled. Not starting.")
		return
	}
	log.Println("Starting monitor service...")

	s.workerPool.Start(ctx)

	s.EvaluateOnce(ctx)

	timer := time.NewTimer(s.cfg.Monitor.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Monitor service shutting down.")
			return
		case <-timer.C:
			s.EvaluateOnce(ctx)
			timer.Reset(s.cfg.Monitor.Interval)
		}
	}
}

// EvaluateOnce runs a single evaluation cycle.
func (s *Service) EvaluateOnce(ctx context.Context) {
	log.Println("Executing monitor cycle...")
	started := time.Now()
	now := started.UTC()

	// Step 1: Load every merged item
	items, err := s.items.ItemsForList(ctx)
	if err != nil {
		log.Printf("Monitor cycle aborted, could not load items: %v", err)
		s.metrics.MonitorCycle(time.Since(started), nil, err)
		return
	}

	// Step 2: Evaluate each item against its metric. Items whose query fails
	// are reported as unknown so their stored level is kept.
	statuses := make([]wear.Status, 0, len(items))
	levels := make(map[string]int)
	for _, item := range items {
		status, err := s.items.ItemStatus(ctx, item, now)
		if err != nil {
			log.Printf("Warning: could not evaluate item %s of config %s: %v", item.ID, item.ConfigID, err)
		}
		statuses = append(statuses, status)
		levels[string(status.Level)]++
	}

	// Step 3: Persist levels and collect escalations
	alerts, err := s.store.UpdateItemStatuses(ctx, now, statuses)
	s.metrics.MonitorCycle(time.Since(started), levels, err)
	if err != nil {
		log.Printf("Error updating item statuses: %v", err)
		return
	}

	if len(alerts) > 0 {
		log.Printf("Dispatching notifications for %d items", len(alerts))
		for _, alert := range alerts {
			if !s.workerPool.Dispatch(ctx, alert) {
				return
			}
		}
	}

	log.Printf("Monitor cycle finished: %d items evaluated.", len(items))
}
