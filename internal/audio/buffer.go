package audio

import (
	"context"
	"iter"
	"sync"
	"time"
)

// DefaultPullTimeout is how long a consumer waits for the next chunk before re-checking the buffer state
const DefaultPullTimeout = 5 * time.Second

// Chunk is either a slice of audio or the end-of-stream sentinel
type Chunk struct {
	Data []byte
	EOS  bool
}

// EndOfStream is the sentinel that unblocks a waiting consumer
var EndOfStream = Chunk{EOS: true}

// Buffer hands audio from the connection reader to a single transcription consumer.
// Push never blocks; the queue is bounded only by memory. A buffer is reused across
// turns: Start begins a turn and Stop ends it.
type Buffer struct {
	mu        sync.Mutex
	queue     []Chunk
	streaming bool

	// notify has capacity 1 and is signalled after every enqueue
	notify  chan struct{}
	timeout time.Duration
}

// NewBuffer creates a buffer whose consumer waits at most timeout between chunks
func NewBuffer(timeout time.Duration) *Buffer {
	if timeout <= 0 {
		timeout = DefaultPullTimeout
	}
	return &Buffer{
		notify:  make(chan struct{}, 1),
		timeout: timeout,
	}
}

// Start enables streaming for a new turn and drops anything left over from the previous one
func (b *Buffer) Start() {
	b.mu.Lock()
	b.queue = nil
	b.streaming = true
	b.mu.Unlock()

	select {
	case <-b.notify:
	default:
	}
}

// Push enqueues an audio chunk
func (b *Buffer) Push(data []byte) {
	b.enqueue(Chunk{Data: data}, false)
}

// Stop disables streaming and enqueues the sentinel so a blocked consumer returns
func (b *Buffer) Stop() {
	b.enqueue(EndOfStream, true)
}

func (b *Buffer) enqueue(c Chunk, stop bool) {
	b.mu.Lock()
	if stop {
		b.streaming = false
	}
	b.queue = append(b.queue, c)
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// IsStreaming reports whether the current turn is still accepting audio
func (b *Buffer) IsStreaming() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.streaming
}

// Len returns the number of queued chunks, sentinel included
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

func (b *Buffer) pop() (Chunk, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return Chunk{}, false
	}
	c := b.queue[0]
	b.queue[0] = Chunk{}
	b.queue = b.queue[1:]
	return c, true
}

// wait blocks until something is enqueued, the pull timeout elapses or ctx is done
func (b *Buffer) wait(ctx context.Context) error {
	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.notify:
	case <-timer.C:
	}
	return nil
}

// Stream returns the chunks of the current turn in arrival order. The sequence ends
// when the sentinel is reached, when streaming is disabled and nothing is queued, or
// when ctx is done. A pull timeout only means no data yet and the wait is retried.
func (b *Buffer) Stream(ctx context.Context) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for {
			c, ok := b.pop()
			if !ok {
				if !b.IsStreaming() && b.Len() == 0 {
					return
				}
				if err := b.wait(ctx); err != nil {
					return
				}
				continue
			}
			if c.EOS {
				return
			}
			if !yield(c.Data) {
				return
			}
		}
	}
}
