package audit

import (
	"sync"
	"time"

	"github.com/approval-hub/approval-hub/internal/domain/audit"
)

// Alert is published whenever a security-relevant audit event is recorded,
// currently EMERGENCY_BYPASS. Consumers (compliance dashboards, pager
// integrations) subscribe on the bus.
type Alert struct {
	Entry      *audit.Entry
	OccurredAt time.Time
}

// AlertBus is an in-process publish-subscribe bus for audit alerts. Publish
// never blocks; a subscriber that falls behind loses alerts rather than
// stalling audit writes.
type AlertBus struct {
	mu     sync.RWMutex
	subs   map[int]chan Alert
	nextID int
	closed bool
}

func NewAlertBus() *AlertBus {
	return &AlertBus{subs: make(map[int]chan Alert)}
}

// Subscribe registers a new subscriber. The returned cancel func removes it.
func (b *AlertBus) Subscribe() (<-chan Alert, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan Alert, 16)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[id] = ch
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
}

// Publish delivers the alert to every subscriber with capacity.
func (b *AlertBus) Publish(a Alert) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- a:
		default:
		}
	}
}

// Close shuts the bus down and closes all subscriber channels.
func (b *AlertBus) Close() {
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
