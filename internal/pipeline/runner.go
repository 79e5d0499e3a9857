package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RunState represents what the runner is currently doing.
type RunState int

const (
	RunIdle RunState = iota
	RunActive
	RunFailed
)

// RunStatus is the runner's last observed state.
type RunStatus struct {
	State   RunState
	LastRun time.Time
	Error   error
}

// defaultInterval is used when the configured polling interval is not
// positive.
const defaultInterval = 5 * time.Minute

// Runner executes the drafting pipeline on a fixed interval. A run happens
// immediately on start, then on every tick, and can be forced in between
// with Trigger. Reports land on the Results channel; slow consumers drop
// reports rather than stall the loop.
type Runner struct {
	svc      *Service
	opts     Options
	interval time.Duration
	log      *logrus.Entry

	resultCh  chan *RunReport
	triggerCh chan struct{}
	stopCh    chan struct{}

	mu      sync.Mutex
	status  RunStatus
	running bool
}

// NewRunner creates a runner that executes svc with opts every interval.
func NewRunner(svc *Service, opts Options, interval time.Duration, log *logrus.Entry) *Runner {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Runner{
		svc:       svc,
		opts:      opts,
		interval:  interval,
		log:       log,
		resultCh:  make(chan *RunReport, 4),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Results delivers the report of each completed run.
func (r *Runner) Results() <-chan *RunReport {
	return r.resultCh
}

// Start launches the polling loop. Calling Start twice is a no-op.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	go r.loop(ctx)
}

// Stop halts the polling loop.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	close(r.stopCh)
	r.running = false
}

// Trigger forces a run before the next tick. A trigger arriving while one
// is already pending is coalesced.
func (r *Runner) Trigger() {
	select {
	case r.triggerCh <- struct{}{}:
	default:
	}
}

// Status returns the runner's last observed state.
func (r *Runner) Status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Runner) loop(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.runOnce(ctx)
		case <-r.triggerCh:
			r.runOnce(ctx)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) {
	r.setStatus(RunActive, nil)

	report, err := r.svc.Run(ctx, r.opts)
	if err != nil {
		r.setStatus(RunFailed, err)
		r.log.WithError(err).Error("scheduled drafting run failed")
		return
	}

	r.setStatus(RunIdle, nil)
	select {
	case r.resultCh <- report:
	default:
		// Drop the report rather than stall the loop.
	}
}

func (r *Runner) setStatus(state RunState, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.State = state
	r.status.Error = err
	if state == RunIdle && err == nil {
		r.status.LastRun = time.Now()
	}
}
