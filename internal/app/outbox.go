package app

import "sync"

// outbox queues worker requests made while the orchestrator holds its lock
// and sends them from its own goroutine, in order. A worker blocked on a full
// response channel never stalls the code that drains it.
type outbox struct {
	mu    sync.Mutex
	sends []func()
	wake  chan struct{}
}

func newOutbox() *outbox {
	return &outbox{wake: make(chan struct{}, 1)}
}

// post queues send without blocking
func (b *outbox) post(send func()) {
	b.mu.Lock()
	b.sends = append(b.sends, send)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// flush runs every queued send, including ones posted meanwhile
func (b *outbox) flush() {
	for {
		b.mu.Lock()
		sends := b.sends
		b.sends = nil
		b.mu.Unlock()
		if len(sends) == 0 {
			return
		}
		for _, send := range sends {
			send()
		}
	}
}

// run flushes on every post until stop closes
func (b *outbox) run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-b.wake:
			b.flush()
		}
	}
}
