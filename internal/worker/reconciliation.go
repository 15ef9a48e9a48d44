package worker

import (
	"context"
	"log"
	"time"

	"sigilo/internal/repository"
	"sigilo/internal/service"
)

// ReconciliationWorker periodically sweeps pending payments and reconciles
// each against the gateway. It shares no in-memory state with the request
// path; both sides meet only at the record store and the gateway.
type ReconciliationWorker struct {
	payments *repository.PaymentRepository
	svc      *service.CheckoutService
	interval time.Duration
}

func NewReconciliationWorker(
	payments *repository.PaymentRepository,
	svc *service.CheckoutService,
	interval time.Duration,
) *ReconciliationWorker {
	return &ReconciliationWorker{
		payments: payments,
		svc:      svc,
		interval: interval,
	}
}

// Run blocks until ctx is canceled. A tick that finds nothing pending is a
// no-op; per-payment failures are absorbed inside Reconcile, so a sweep
// always visits every pending payment.
func (w *ReconciliationWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.Printf("[Worker] reconciliation started, interval %s", w.interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[Worker] reconciliation stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ReconciliationWorker) sweep(ctx context.Context) {
	pending, err := w.payments.ListPending()
	if err != nil {
		log.Printf("[Worker] listing pending payments failed: %v", err)
		return
	}
	for i := range pending {
		w.svc.Reconcile(ctx, &pending[i])
	}
}
