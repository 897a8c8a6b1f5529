package avatax

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAsyncSubmitterRunsTasks(t *testing.T) {
	t.Parallel()

	s := NewAsyncSubmitter(time.Second)
	var ran atomic.Int32

	for range 3 {
		s.Submit(func(ctx context.Context) {
			ran.Add(1)
		})
	}
	s.Wait()

	assert.Equal(t, int32(3), ran.Load())
}

func TestAsyncSubmitterCancelsAfterTimeout(t *testing.T) {
	t.Parallel()

	s := NewAsyncSubmitter(10 * time.Millisecond)
	done := make(chan struct{})

	s.Submit(func(ctx context.Context) {
		<-ctx.Done()
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task context was never cancelled")
	}
	s.Wait()
}
