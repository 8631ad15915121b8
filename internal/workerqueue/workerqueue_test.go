package workerqueue

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func TestSubmitRunsAllTasks(t *testing.T) {
	log := zerolog.Nop()
	q := New(2, &log)

	var mu sync.Mutex
	var ran int
	const n = 20

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		q.Submit(func() {
			defer wg.Done()
			mu.Lock()
			ran++
			mu.Unlock()
		})
	}
	wg.Wait()
	q.StopWait()

	if ran != n {
		t.Errorf("ran = %d, want %d", ran, n)
	}
}

func TestSubmitRecoversPanics(t *testing.T) {
	log := zerolog.Nop()
	q := New(1, &log)

	done := make(chan struct{})
	q.Submit(func() {
		defer close(done)
		panic("boom")
	})
	<-done
	q.StopWait()
}
