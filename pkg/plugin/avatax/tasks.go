package avatax

import (
	"context"
	"sync"
	"time"
)

// TaskSubmitter runs post-order API submissions outside the request
// cycle, standing in for the host application's background worker.
type TaskSubmitter interface {
	Submit(task func(ctx context.Context))
}

// AsyncSubmitter runs tasks on their own goroutines with a bounded
// timeout. Wait blocks until in-flight tasks finish, for clean shutdown
// and deterministic tests.
type AsyncSubmitter struct {
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsyncSubmitter creates a submitter whose tasks are cancelled after
// the given timeout.
func NewAsyncSubmitter(timeout time.Duration) *AsyncSubmitter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AsyncSubmitter{timeout: timeout}
}

// Submit schedules the task on a new goroutine.
func (s *AsyncSubmitter) Submit(task func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		task(ctx)
	}()
}

// Wait blocks until all submitted tasks have completed.
func (s *AsyncSubmitter) Wait() {
	s.wg.Wait()
}

// Ensure AsyncSubmitter implements TaskSubmitter
var _ TaskSubmitter = (*AsyncSubmitter)(nil)
