package runner

import (
	"context"
	"sync"
	"time"

	"github.com/cartwisp/recovery-gateway/pkg/logger"
)

// JobFunc is one execution of a periodic job. The context is cancelled when
// the runner stops; long jobs should honor it.
type JobFunc func(ctx context.Context)

type job struct {
	name     string
	interval time.Duration
	fn       JobFunc
}

// Runner drives named periodic jobs on independent tickers. It replaces an
// external cron system: the cart-scan and coupon-sweep jobs are plain
// functions invoked on a fixed wall-clock cadence, so no timer state is lost
// across process restarts.
type Runner struct {
	jobs   []job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func New() *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{ctx: ctx, cancel: cancel}
}

func (r *Runner) Add(name string, interval time.Duration, fn JobFunc) {
	r.jobs = append(r.jobs, job{name: name, interval: interval, fn: fn})
}

// Start launches every registered job. Each job runs once immediately and
// then on every tick; ticks that arrive while a run is still in flight are
// dropped by the ticker, so runs of the same job never overlap.
func (r *Runner) Start() {
	for _, j := range r.jobs {
		r.wg.Add(1)
		go r.loop(j)
		logger.Info("runner: job started", "job", j.name, "interval", j.interval.String())
	}
}

func (r *Runner) loop(j job) {
	defer r.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.fn(r.ctx)

	for {
		select {
		case <-ticker.C:
			j.fn(r.ctx)
		case <-r.ctx.Done():
			logger.Info("runner: job stopped", "job", j.name)
			return
		}
	}
}

// Stop cancels all jobs and waits for in-flight runs to finish.
func (r *Runner) Stop() {
	r.once.Do(r.cancel)
	r.wg.Wait()
}
