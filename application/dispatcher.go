package application

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Dispatcher fans gateway events into per-source FIFO queues. Events sharing
// a key are handled strictly in submission order; distinct keys run
// concurrently. Queues are bounded and drop the newest event when saturated
// so a stalled source can never block the gateway reader.
type Dispatcher struct {
	queueSize int

	mu     sync.Mutex
	queues map[string]chan func()
	wg     sync.WaitGroup
	done   <-chan struct{}
}

// NewDispatcher sizes the per-source queues.
func NewDispatcher(queueSize int) *Dispatcher {
	return &Dispatcher{
		queueSize: queueSize,
		queues:    make(map[string]chan func()),
	}
}

// Start binds the dispatcher's lifetime to ctx. Must be called before Submit.
func (d *Dispatcher) Start(ctx context.Context) {
	d.done = ctx.Done()
}

// Submit enqueues a task on its source's queue, dropping it when the queue is
// saturated. Tasks submitted with the same key from one goroutine run in
// submission order.
func (d *Dispatcher) Submit(key string, task func()) {
	d.mu.Lock()
	queue, ok := d.queues[key]
	if !ok {
		queue = make(chan func(), d.queueSize)
		d.queues[key] = queue
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for {
				select {
				case <-d.done:
					return
				case t := <-queue:
					t()
				}
			}
		}()
	}
	d.mu.Unlock()

	select {
	case queue <- task:
	default:
		log.WithField("source", key).Warn("relay event queue full, dropping event")
	}
}

// Wait blocks until all queue goroutines have exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// laneRunner serializes tasks per lane key while keeping distinct lanes
// concurrent. The relay engine keys lanes by (source channel, target channel)
// so deliveries into one target stay in source order. Unlike Submit, Run
// blocks when the lane is full; the backpressure stalls only that lane's
// source queue.
type laneRunner struct {
	mu    sync.Mutex
	lanes map[string]chan func()
	wg    sync.WaitGroup
	done  <-chan struct{}
}

func newLaneRunner(ctx context.Context) *laneRunner {
	return &laneRunner{
		lanes: make(map[string]chan func()),
		done:  ctx.Done(),
	}
}

// Run executes task on the lane's goroutine, creating the lane on first use.
// Lanes are kept for the process lifetime; the set is bounded by the number
// of configured channel pairs.
func (r *laneRunner) Run(key string, task func()) {
	r.mu.Lock()
	lane, ok := r.lanes[key]
	if !ok {
		lane = make(chan func(), 32)
		r.lanes[key] = lane
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			for {
				select {
				case <-r.done:
					return
				case t := <-lane:
					t()
				}
			}
		}()
	}
	r.mu.Unlock()

	select {
	case <-r.done:
	case lane <- task:
	}
}

// Wait blocks until all lane goroutines have exited.
func (r *laneRunner) Wait() {
	r.wg.Wait()
}
