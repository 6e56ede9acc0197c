package session

import (
	"sync"
	"testing"
	"time"
)

func TestWorkerRunsInOrder(t *testing.T) {
	w := newWorker()
	defer w.close()

	var (
		mu  sync.Mutex
		got []int
	)
	for i := range 100 {
		w.dispatch(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	w.dispatchWait(func() {})

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 100 {
		t.Fatalf("ran %d jobs, want 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("job %d ran at position %d", v, i)
		}
	}
}

func TestWorkerDispatchDoesNotBlock(t *testing.T) {
	w := newWorker()
	defer w.close()

	release := make(chan struct{})
	w.dispatch(func() { <-release })

	done := make(chan struct{})
	go func() {
		for range 10 {
			w.dispatch(func() {})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatch blocked behind a running job")
	}
	close(release)
}

func TestWorkerCloseDrainsQueue(t *testing.T) {
	w := newWorker()

	ran := 0
	for range 5 {
		w.dispatch(func() { ran++ })
	}
	w.close()

	if ran != 5 {
		t.Errorf("ran %d queued jobs before exit, want 5", ran)
	}
	if w.dispatch(func() {}) {
		t.Error("dispatch after close should report false")
	}
	if w.dispatchWait(func() {}) {
		t.Error("dispatchWait after close should report false")
	}
	w.close()
}
