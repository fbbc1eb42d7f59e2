package threadpool

import "sync"

// NaiveThreadPool spawns a fresh goroutine per job and ignores the
// requested worker count. It exists as the simplest possible ThreadPool
// implementation, useful as a baseline and in tests that don't care about
// bounding concurrency.
type NaiveThreadPool struct {
	wg sync.WaitGroup
}

// NewNaiveThreadPool builds a NaiveThreadPool. n is accepted for interface
// symmetry with the other variants but has no effect.
func NewNaiveThreadPool(n uint) (*NaiveThreadPool, error) {
	return &NaiveThreadPool{}, nil
}

// Spawn starts job on a new goroutine.
func (p *NaiveThreadPool) Spawn(job Job) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() { _ = recover() }()
		job()
	}()
}

// Shutdown waits for every goroutine started by Spawn to return.
func (p *NaiveThreadPool) Shutdown() {
	p.wg.Wait()
}
