package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/config"
	"github.com/jafarshop/ttsbridge/internal/metrics"
)

// Task is a unit of detached work. It receives the dispatcher's context, not the request's.
type Task func(ctx context.Context) error

type namedTask struct {
	name string
	run  Task
}

type dispatcher struct {
	tasks  chan namedTask
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
}

// NewDispatcher starts the worker goroutines of an in-process task queue
func NewDispatcher(cfg config.DispatchConfig, logger *zap.Logger) *dispatcher {
	size := cfg.QueueSize
	if size < 1 {
		size = 1
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &dispatcher{
		tasks:  make(chan namedTask, size),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.work()
	}

	return d
}

// Submit queues a task without blocking
func (d *dispatcher) Submit(name string, task Task) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		metrics.ObserveDispatchDropped()
		return ErrDispatcherClosed
	}

	select {
	case d.tasks <- namedTask{name: name, run: task}:
		metrics.SetDispatchQueueDepth(len(d.tasks))
		return nil
	default:
		metrics.ObserveDispatchDropped()
		d.logger.Warn("Dispatch queue full, dropping task", zap.String("task", name))
		return ErrQueueFull
	}
}

// Close stops accepting tasks and waits for queued ones. When ctx expires first
// the running tasks are cancelled.
func (d *dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.tasks)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		return fmt.Errorf("dispatcher drain interrupted: %w", ctx.Err())
	}
}

func (d *dispatcher) work() {
	defer d.wg.Done()
	for t := range d.tasks {
		metrics.SetDispatchQueueDepth(len(d.tasks))
		d.run(t)
	}
}

func (d *dispatcher) run(t namedTask) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Dispatched task panicked", zap.String("task", t.name), zap.Any("panic", r))
		}
	}()

	if err := t.run(d.ctx); err != nil {
		d.logger.Error("Dispatched task failed", zap.String("task", t.name), zap.Error(err))
	}
}
