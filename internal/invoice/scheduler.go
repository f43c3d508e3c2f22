package invoice

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/mutua/takabill/internal/tenant"
)

// BillingScheduler runs the monthly invoice generation for every tenant.
//
// It checks once an hour whether the current period has been generated and
// triggers generation from the first day of the month onward. Generation is
// idempotent (already-invoiced customers are skipped), so repeated triggers
// within the same period are harmless. Single-instance deployment is assumed;
// running two processes would need a distributed lock in front of this.
type BillingScheduler struct {
	Generator     *Generator
	Tenants       *tenant.Repository
	CheckInterval time.Duration

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewBillingScheduler creates a new scheduler
func NewBillingScheduler(generator *Generator, tenants *tenant.Repository) *BillingScheduler {
	return &BillingScheduler{
		Generator:     generator,
		Tenants:       tenants,
		CheckInterval: 1 * time.Hour,
		stop:          make(chan struct{}),
	}
}

// Start begins the scheduler
func (bs *BillingScheduler) Start() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	bs.ticker = time.NewTicker(bs.CheckInterval)
	bs.wg.Add(1)
	go bs.run()

	log.Printf("[Billing] Scheduler started with check interval: %v", bs.CheckInterval)
}

// Stop stops the scheduler
func (bs *BillingScheduler) Stop() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.ticker != nil {
		bs.ticker.Stop()
		close(bs.stop)
		bs.wg.Wait()
		log.Println("[Billing] Scheduler stopped")
	}
}

func (bs *BillingScheduler) run() {
	defer bs.wg.Done()

	// Run immediately on start to catch up after downtime
	bs.runOnce()

	for {
		select {
		case <-bs.ticker.C:
			bs.runOnce()
		case <-bs.stop:
			return
		}
	}
}

func (bs *BillingScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	period := time.Now().Format("2006-01")

	tenants, err := bs.Tenants.List(ctx)
	if err != nil {
		log.Printf("[Billing] Error listing tenants: %v", err)
		return
	}

	for _, t := range tenants {
		created, err := bs.Generator.GenerateForPeriod(ctx, t.ID, period)
		if err != nil {
			log.Printf("[Billing] Error generating invoices for tenant %d: %v", t.ID, err)
			continue
		}
		if len(created) > 0 {
			log.Printf("[Billing] Tenant %d: %d invoices created for %s", t.ID, len(created), period)
		}
	}
}
