package lifecycle

import (
	"context"
	"log/slog"
	"sync"

	"github.com/example/rolo/internal/models"
	"github.com/example/rolo/internal/observability"
)

type job struct {
	id     uint64
	cancel context.CancelFunc
}

// Runner runs Search and Trip in the background, one job per rider. Starting
// a job or calling Stop cancels whatever that rider had running.
type Runner struct {
	o      *Orchestrator
	base   context.Context
	logger *slog.Logger

	mu   sync.Mutex
	seq  uint64
	jobs map[string]job
	wg   sync.WaitGroup
}

func NewRunner(ctx context.Context, o *Orchestrator, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{o: o, base: ctx, logger: logger, jobs: make(map[string]job)}
}

// StartSearch checks the ride is upcoming and searches for a driver in the background.
func (r *Runner) StartSearch(ctx context.Context, userID string) (models.Ride, error) {
	cur, err := r.o.current(ctx, userID, models.StatusUpcoming)
	if err != nil {
		return models.Ride{}, err
	}
	r.start(userID, "search", func(ctx context.Context) error {
		_, err := r.o.Search(ctx, userID)
		return err
	})
	return cur, nil
}

// StartTrip checks the ride is in progress and completes it in the background.
func (r *Runner) StartTrip(ctx context.Context, userID string) (models.Ride, error) {
	cur, err := r.o.current(ctx, userID, models.StatusInProgress)
	if err != nil {
		return models.Ride{}, err
	}
	r.start(userID, "trip", func(ctx context.Context) error {
		_, err := r.o.Trip(ctx, userID)
		return err
	})
	return cur, nil
}

// Stop cancels the rider's running job, if any.
func (r *Runner) Stop(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[userID]; ok {
		j.cancel()
		delete(r.jobs, userID)
	}
}

// Running reports whether userID has a job in flight.
func (r *Runner) Running(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.jobs[userID]
	return ok
}

// Wait blocks until every started job has returned.
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) start(userID, kind string, fn func(context.Context) error) {
	ctx, cancel := context.WithCancel(r.base)

	r.mu.Lock()
	if prev, ok := r.jobs[userID]; ok {
		prev.cancel()
	}
	r.seq++
	id := r.seq
	r.jobs[userID] = job{id: id, cancel: cancel}
	r.mu.Unlock()

	r.wg.Add(1)
	observability.ActiveJobs.Inc()
	go func() {
		defer r.wg.Done()
		defer observability.ActiveJobs.Dec()
		defer r.finish(userID, id, cancel)

		if err := fn(ctx); err != nil {
			if ctx.Err() != nil {
				r.logger.Debug("ride job cancelled", "kind", kind, "user_id", userID)
				return
			}
			r.logger.Error("ride job failed", "kind", kind, "user_id", userID, "error", err)
		}
	}()
}

func (r *Runner) finish(userID string, id uint64, cancel context.CancelFunc) {
	cancel()
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[userID]; ok && j.id == id {
		delete(r.jobs, userID)
	}
}
