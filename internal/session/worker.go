package session

import "sync"

// worker runs jobs one at a time in submission order on its own goroutine.
// Submitting never blocks on a running job.
type worker struct {
	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

func newWorker() *worker {
	w := &worker{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go w.run()
	return w
}

// dispatch queues fn. It reports false once the worker is closed.
func (w *worker) dispatch(fn func()) bool {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false
	}
	w.queue = append(w.queue, fn)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return true
}

// dispatchWait queues fn and waits for it to finish. It must not be called
// from a job.
func (w *worker) dispatchWait(fn func()) bool {
	finished := make(chan struct{})
	if !w.dispatch(func() {
		defer close(finished)
		fn()
	}) {
		return false
	}
	<-finished
	return true
}

// close stops accepting jobs, runs the ones already queued and waits for
// the goroutine to exit. It must not be called from a job.
func (w *worker) close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	<-w.done
}

func (w *worker) run() {
	defer close(w.done)
	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			closed := w.closed
			w.mu.Unlock()
			if closed {
				return
			}
			<-w.wake
			continue
		}
		fn := w.queue[0]
		w.queue[0] = nil
		w.queue = w.queue[1:]
		w.mu.Unlock()

		fn()
	}
}
