package threadpool

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// SharedQueueThreadPool runs n long-lived worker goroutines consuming from a
// single unbounded FIFO queue. A job that panics is caught and logged; the
// worker that ran it immediately resumes consuming the queue, so the pool
// never loses a worker to a misbehaving job. Spawn is non-blocking: jobs
// accumulate in an in-memory queue rather than a fixed-capacity channel.
type SharedQueueThreadPool struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Job
	closed bool
	wg     sync.WaitGroup
	log    *zap.SugaredLogger
}

// NewSharedQueueThreadPool starts n workers. If any worker setup step were
// to fail, construction would unwind the workers already started before
// returning the error; in practice goroutine launch cannot fail, so this
// path exists for symmetry with the pool contract rather than a real
// failure mode.
func NewSharedQueueThreadPool(n uint, log *zap.SugaredLogger) (*SharedQueueThreadPool, error) {
	if n == 0 {
		return nil, fmt.Errorf("threadpool: shared queue pool requires at least one worker")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	p := &SharedQueueThreadPool{log: log}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(int(n))
	for i := uint(0); i < n; i++ {
		go p.worker(i)
	}

	return p, nil
}

func (p *SharedQueueThreadPool) worker(id uint) {
	defer p.wg.Done()

	for {
		job, ok := p.dequeue()
		if !ok {
			return
		}
		p.runJob(id, job)
	}
}

func (p *SharedQueueThreadPool) dequeue() (Job, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 && !p.closed {
		p.cond.Wait()
	}

	if len(p.queue) == 0 {
		return nil, false
	}

	job := p.queue[0]
	p.queue = p.queue[1:]
	return job, true
}

func (p *SharedQueueThreadPool) runJob(id uint, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Errorw("worker job panicked, worker continuing", "workerId", id, "panic", r)
		}
	}()
	job()
}

// Spawn enqueues job and returns immediately; it never blocks waiting for a
// worker to become free.
func (p *SharedQueueThreadPool) Spawn(job Job) {
	p.mu.Lock()
	p.queue = append(p.queue, job)
	p.mu.Unlock()
	p.cond.Signal()
}

// Shutdown stops accepting new work conceptually and waits for every worker
// to drain the remaining queue and exit.
func (p *SharedQueueThreadPool) Shutdown() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()
	p.wg.Wait()
}
