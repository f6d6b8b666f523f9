package llm

import (
	"context"
	"sync"
	"testing"
	"time"

	"focusflow/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// go.opencensus.io (pulled in by google.golang.org/genai) starts a
	// package-level worker goroutine at init that never exits.
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
}

// blockingClient holds calls until released.
type blockingClient struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingClient) Complete(ctx context.Context, prompt string) (string, error) {
	return b.CompleteWithSystem(ctx, "", prompt)
}

func (b *blockingClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	b.started <- struct{}{}
	select {
	case <-b.release:
		return "ok", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestScheduledBusyWhenSaturated(t *testing.T) {
	inner := &blockingClient{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	s := NewScheduled(inner, 1, 50*time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		resp, err := s.Complete(context.Background(), "first")
		assert.NoError(t, err)
		assert.Equal(t, "ok", resp)
	}()

	<-inner.started // first call holds the only slot

	_, err := s.Complete(context.Background(), "second")
	require.ErrorIs(t, err, types.ErrServiceBusy)

	close(inner.release)
	wg.Wait()
}

func TestScheduledPropagatesCancellation(t *testing.T) {
	inner := &blockingClient{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	defer close(inner.release)

	s := NewScheduled(inner, 1, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := s.Complete(ctx, "held")
		errCh <- err
	}()

	<-inner.started
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancellation did not propagate")
	}
}

func TestScheduledReleasesSlots(t *testing.T) {
	stub := &stubClient{response: "done"}
	s := NewScheduled(stub, 2, 50*time.Millisecond)

	// Sequential calls must never exhaust the budget.
	for i := 0; i < 10; i++ {
		resp, err := s.Complete(context.Background(), "go")
		require.NoError(t, err)
		assert.Equal(t, "done", resp)
	}
	assert.Equal(t, 10, stub.calls)
}
