package service

import (
	"log/slog"
	"sync"

	"github.com/alexanderramin/loopmode/internal/domain"
)

// broker fans ModeChange events out to subscribers without ever blocking
// the publisher.
type broker struct {
	logger *slog.Logger

	mu     sync.Mutex
	next   int
	subs   map[int]chan domain.ModeChange
	closed bool
}

func newBroker(logger *slog.Logger) *broker {
	return &broker{logger: logger, subs: make(map[int]chan domain.ModeChange)}
}

func (b *broker) subscribe(buffer int) (<-chan domain.ModeChange, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan domain.ModeChange, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

func (b *broker) publish(change domain.ModeChange) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- change:
		default:
			b.logger.Warn("subscriber too slow, dropping mode change",
				"subscriber", id, "mode", string(change.Current.Mode))
		}
	}
}

func (b *broker) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
