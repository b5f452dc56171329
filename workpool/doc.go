// Package workpool runs tasks on a fixed set of worker goroutines.
//
// Tasks are queued in submission order and picked up by the first idle
// worker. Each submission returns a Future that completes with the task's
// value and error. A task that panics completes with a *PanicError and does
// not affect the worker or the other tasks.
//
// Close stops the pool from accepting tasks, drains everything already
// queued and returns once all workers have exited:
//
//	Running --Close--> ShuttingDown --queue drained--> Terminated
package workpool
