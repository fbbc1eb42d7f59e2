// Package threadpool provides interchangeable worker pool implementations
// for running request handlers off the accept-loop goroutine.
package threadpool

// Job is a unit of work submitted to a pool. It takes no arguments and
// returns nothing; results are communicated through closures.
type Job func()

// ThreadPool executes submitted jobs on a set of workers (bounded for the
// shared-queue and delegating variants, one goroutine per job for the naive
// variant). Spawn is
// non-blocking and infallible once the pool has been constructed, and a job
// that panics must never reduce the pool's effective worker count.
type ThreadPool interface {
	// Spawn schedules job to run on a worker. It returns immediately.
	Spawn(job Job)

	// Shutdown waits for in-flight and queued jobs to finish before
	// returning. It does not make Spawn reject jobs submitted afterwards.
	Shutdown()
}
