package importer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrQueueFull = errors.New("import queue is full")
	ErrStopped   = errors.New("import dispatcher is stopped")
)

type Job struct {
	UploadID int64
}

type ProcessFunc func(ctx context.Context, job Job)

type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Logger:     logger,
	}
}

// Start registers the worker in the pool after every job. stop ends the
// loop; jobs themselves run with runCtx.
func (w *Worker) Start(stop <-chan struct{}, runCtx context.Context, wg *sync.WaitGroup, delay time.Duration, process ProcessFunc) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-stop:
				w.Logger.Debug("import worker shutting down", "worker_id", w.ID)
				return
			}

			select {
			case job := <-w.JobChannel:
				if delay > 0 {
					select {
					case <-time.After(delay):
					case <-runCtx.Done():
					}
				}
				w.Logger.Debug("worker processing import", "worker_id", w.ID, "upload_id", job.UploadID)
				process(runCtx, job)
			case <-stop:
				w.Logger.Debug("import worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type Config struct {
	MaxWorkers   int
	JobQueueSize int
	StartDelay   time.Duration
}

// Dispatcher is a bounded job queue in front of a fixed worker pool.
type Dispatcher struct {
	logger  *slog.Logger
	process ProcessFunc
	delay   time.Duration

	jobQueue   chan Job
	workerPool chan chan Job
	maxWorkers int

	stop      chan struct{}
	drained   chan struct{}
	runCtx    context.Context
	cancelRun context.CancelFunc
	wg        sync.WaitGroup

	mu      sync.RWMutex
	started bool
	closed  bool
}

func NewDispatcher(cfg Config, process ProcessFunc, logger *slog.Logger) *Dispatcher {
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 2
	}
	jobQueueSize := cfg.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}

	runCtx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		logger:     logger,
		process:    process,
		delay:      cfg.StartDelay,
		jobQueue:   make(chan Job, jobQueueSize),
		workerPool: make(chan chan Job, maxWorkers),
		maxWorkers: maxWorkers,
		stop:       make(chan struct{}),
		drained:    make(chan struct{}),
		runCtx:     runCtx,
		cancelRun:  cancel,
	}
}

func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	for i := 0; i < d.maxWorkers; i++ {
		worker := NewWorker(i, d.workerPool, d.logger)
		worker.Start(d.stop, d.runCtx, &d.wg, d.delay, d.process)
	}
	go d.dispatch()

	d.logger.Info("import worker pool started",
		"max_workers", d.maxWorkers,
		"queue_size", cap(d.jobQueue))
}

// dispatch hands queued jobs to idle workers until the queue is closed and
// empty.
func (d *Dispatcher) dispatch() {
	defer close(d.drained)
	for job := range d.jobQueue {
		jobChannel := <-d.workerPool
		jobChannel <- job
	}
	d.logger.Info("import dispatcher drained")
}

// Submit enqueues without blocking.
func (d *Dispatcher) Submit(uploadID int64) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrStopped
	}

	select {
	case d.jobQueue <- Job{UploadID: uploadID}:
		d.logger.Info("import job queued", "upload_id", uploadID, "queue_length", len(d.jobQueue))
		return nil
	default:
		d.logger.Warn("import queue full, rejecting job", "upload_id", uploadID, "queue_capacity", cap(d.jobQueue))
		return ErrQueueFull
	}
}

// Shutdown stops intake, lets queued and running jobs finish, and returns
// ctx.Err() if they do not finish in time. Running jobs are then cancelled.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.jobQueue)
	started := d.started
	d.mu.Unlock()

	d.logger.Info("shutting down import dispatcher")
	if !started {
		d.cancelRun()
		return nil
	}

	done := make(chan struct{})
	go func() {
		<-d.drained
		close(d.stop)
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancelRun()
		d.logger.Info("import dispatcher shutdown complete")
		return nil
	case <-ctx.Done():
		d.cancelRun()
		d.logger.Warn("import dispatcher shutdown timed out")
		return ctx.Err()
	}
}
