package writer

import (
	"sync"

	"finbooks/internal/audit"
)

// queue is the bounded in-memory buffer behind the writer. Appends and the
// swap-for-flush are serialized by one mutex, so an event arriving during a
// flush lands either in the flushed batch or in the next one, never both.
// When full, the oldest events are dropped to make room for new ones.
type queue struct {
	mu       sync.Mutex
	events   []audit.Event
	capacity int
	dropped  int
}

func newQueue(capacity int) *queue {
	if capacity <= 0 {
		capacity = 10000
	}
	return &queue{capacity: capacity}
}

// append adds an event and returns the queue length after the append.
func (q *queue) append(e audit.Event) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.events = append(q.events, e)
	q.trimLocked()
	return len(q.events)
}

// swap atomically takes the current contents, leaving the queue empty.
// The returned slice is owned by the caller.
func (q *queue) swap() []audit.Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	batch := q.events
	q.events = nil
	return batch
}

// requeue puts a failed batch back at the front so the next flush retries it
// in original order, ahead of anything logged in the meantime.
func (q *queue) requeue(batch []audit.Event) {
	if len(batch) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	q.events = append(batch, q.events...)
	q.trimLocked()
}

// trimLocked enforces the capacity bound by discarding from the oldest end.
func (q *queue) trimLocked() {
	if over := len(q.events) - q.capacity; over > 0 {
		q.events = q.events[over:]
		q.dropped += over
	}
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// takeDropped returns and resets the overflow-drop count since the last call.
func (q *queue) takeDropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.dropped
	q.dropped = 0
	return n
}
