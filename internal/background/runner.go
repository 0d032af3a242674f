package background

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"team-service/internal/services"
)

// SweepLocker coordinates the periodic sweep across replicas. Optional: with
// no locker every replica sweeps, which is correct but redundant since the
// sweep is idempotent.
type SweepLocker interface {
	AcquireSweepLock(ctx context.Context, ttl time.Duration) (bool, error)
	ReleaseSweepLock(ctx context.Context)
}

// Runner manages the in-process expiry sweep job
type Runner struct {
	invitationSvc *services.InvitationService
	locker        SweepLocker
	interval      time.Duration
	log           *logrus.Logger
	stopCh        chan struct{}
	wg            sync.WaitGroup
	ticker        *time.Ticker
}

// NewRunner creates a new background runner
func NewRunner(invitationSvc *services.InvitationService, interval time.Duration, log *logrus.Logger) *Runner {
	return &Runner{
		invitationSvc: invitationSvc,
		interval:      interval,
		log:           log,
		stopCh:        make(chan struct{}),
	}
}

// SetLocker wires the distributed sweep lock (optional)
func (r *Runner) SetLocker(locker SweepLocker) {
	r.locker = locker
}

// Start begins the periodic expiry sweep
func (r *Runner) Start() {
	r.ticker = time.NewTicker(r.interval)
	r.log.WithField("interval", r.interval.String()).Info("invitation expiry sweep scheduled")

	r.wg.Add(1)
	go r.runSweepJob()
}

// Stop gracefully stops the background runner
func (r *Runner) Stop() {
	close(r.stopCh)
	if r.ticker != nil {
		r.ticker.Stop()
	}
	r.wg.Wait()
	r.log.Info("background runner stopped")
}

func (r *Runner) runSweepJob() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ticker.C:
			r.sweepOnce()
		case <-r.stopCh:
			return
		}
	}
}

func (r *Runner) sweepOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if r.locker != nil {
		acquired, err := r.locker.AcquireSweepLock(ctx, r.interval)
		if err != nil {
			r.log.WithError(err).Warn("sweep lock unavailable, sweeping anyway")
		} else if !acquired {
			return
		} else {
			defer r.locker.ReleaseSweepLock(ctx)
		}
	}

	if _, err := r.invitationSvc.SweepExpired(ctx); err != nil {
		r.log.WithError(err).Error("invitation expiry sweep failed")
	}
}
