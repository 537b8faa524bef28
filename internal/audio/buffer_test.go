package audio

import (
	"context"
	"testing"
	"time"
)

func collect(ctx context.Context, b *Buffer) <-chan [][]byte {
	out := make(chan [][]byte, 1)
	go func() {
		var chunks [][]byte
		for chunk := range b.Stream(ctx) {
			chunks = append(chunks, chunk)
		}
		out <- chunks
	}()
	return out
}

func TestNewBuffer(t *testing.T) {
	b := NewBuffer(0)

	if b.timeout != DefaultPullTimeout {
		t.Errorf("Expected default timeout %v, got %v", DefaultPullTimeout, b.timeout)
	}

	if b.IsStreaming() {
		t.Error("Buffer should not stream before Start")
	}

	if b.Len() != 0 {
		t.Errorf("Expected empty buffer, got %d chunks", b.Len())
	}
}

func TestBuffer_StreamInOrderUntilSentinel(t *testing.T) {
	b := NewBuffer(50 * time.Millisecond)
	b.Start()

	b.Push([]byte("one"))
	b.Push([]byte("two"))
	b.Push([]byte("three"))
	b.Stop()

	select {
	case chunks := <-collect(context.Background(), b):
		if len(chunks) != 3 {
			t.Fatalf("Expected 3 chunks, got %d", len(chunks))
		}
		for i, want := range []string{"one", "two", "three"} {
			if string(chunks[i]) != want {
				t.Errorf("Chunk %d: expected %q, got %q", i, want, chunks[i])
			}
		}
	case <-time.After(time.Second):
		t.Fatal("Stream did not end after the sentinel")
	}
}

func TestBuffer_TimeoutIsNotAnError(t *testing.T) {
	b := NewBuffer(10 * time.Millisecond)
	b.Start()

	result := collect(context.Background(), b)

	// Let the consumer time out a few times before any data arrives
	time.Sleep(50 * time.Millisecond)
	b.Push([]byte("late"))
	b.Stop()

	select {
	case chunks := <-result:
		if len(chunks) != 1 || string(chunks[0]) != "late" {
			t.Errorf("Expected the late chunk to be delivered, got %q", chunks)
		}
	case <-time.After(time.Second):
		t.Fatal("Stream did not end after Stop")
	}
}

func TestBuffer_StopUnblocksWaitingConsumer(t *testing.T) {
	timeout := 200 * time.Millisecond
	b := NewBuffer(timeout)
	b.Start()

	result := collect(context.Background(), b)
	time.Sleep(20 * time.Millisecond)

	stoppedAt := time.Now()
	b.Stop()

	select {
	case chunks := <-result:
		if len(chunks) != 0 {
			t.Errorf("Expected no chunks, got %d", len(chunks))
		}
		if waited := time.Since(stoppedAt); waited > timeout {
			t.Errorf("Consumer took %v to stop, expected at most one timeout interval (%v)", waited, timeout)
		}
	case <-time.After(time.Second):
		t.Fatal("Consumer stayed blocked after Stop")
	}
}

func TestBuffer_ContextCancelEndsStream(t *testing.T) {
	b := NewBuffer(time.Minute)
	b.Start()

	ctx, cancel := context.WithCancel(context.Background())
	result := collect(ctx, b)
	cancel()

	select {
	case <-result:
	case <-time.After(time.Second):
		t.Fatal("Stream did not end on context cancellation")
	}
}

func TestBuffer_RestartDropsPreviousTurn(t *testing.T) {
	b := NewBuffer(50 * time.Millisecond)
	b.Start()
	b.Push([]byte("stale"))
	b.Stop()

	if b.Len() != 2 {
		t.Fatalf("Expected chunk and sentinel queued, got %d", b.Len())
	}

	b.Start()
	if !b.IsStreaming() {
		t.Error("Buffer should stream after Start")
	}
	if b.Len() != 0 {
		t.Errorf("Expected Start to clear the queue, got %d chunks", b.Len())
	}

	b.Push([]byte("fresh"))
	b.Stop()

	chunks := <-collect(context.Background(), b)
	if len(chunks) != 1 || string(chunks[0]) != "fresh" {
		t.Errorf("Expected only the fresh chunk, got %q", chunks)
	}
}

func TestBuffer_ConsumerBreakLeavesRemainingChunks(t *testing.T) {
	b := NewBuffer(50 * time.Millisecond)
	b.Start()
	b.Push([]byte("a"))
	b.Push([]byte("b"))

	for chunk := range b.Stream(context.Background()) {
		if string(chunk) != "a" {
			t.Errorf("Expected first chunk a, got %q", chunk)
		}
		break
	}

	if b.Len() != 1 {
		t.Errorf("Expected one chunk left, got %d", b.Len())
	}
}
