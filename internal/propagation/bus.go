// Package propagation carries match changes from the writer to every surface
// showing the same court.
package propagation

import (
	"fmt"
	"sync"

	"github.com/abrezinsky/courtboard/internal/logger"
	"github.com/abrezinsky/courtboard/internal/metrics"
	"github.com/abrezinsky/courtboard/internal/models"
)

// StorageEvent mirrors a browser storage-change event: the written key and the
// serialized value now stored under it.
type StorageEvent struct {
	Key      string `json:"key"`
	NewValue string `json:"newValue"`
}

// ChangeListener receives same-process notifications after a local write.
type ChangeListener func(courtID string, state models.MatchState)

// StorageListener receives storage events, i.e. writes observed from another surface.
type StorageListener func(StorageEvent)

// Bus fans local writes out to in-process listeners and storage subscribers.
// Listener panics are recovered so one bad surface cannot stop delivery to the rest.
type Bus struct {
	log     logger.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	nextID  int
	change  map[int]ChangeListener
	storage map[int]StorageListener
}

func NewBus(log logger.Logger, m *metrics.Metrics) *Bus {
	return &Bus{
		log:     log,
		metrics: m,
		change:  make(map[int]ChangeListener),
		storage: make(map[int]StorageListener),
	}
}

// OnChange registers fn and returns its unsubscribe function.
func (b *Bus) OnChange(fn ChangeListener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.change[id] = fn
	return func() {
		b.mu.Lock()
		delete(b.change, id)
		b.mu.Unlock()
	}
}

// OnStorage registers fn and returns its unsubscribe function.
func (b *Bus) OnStorage(fn StorageListener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.storage[id] = fn
	return func() {
		b.mu.Lock()
		delete(b.storage, id)
		b.mu.Unlock()
	}
}

// Notify delivers a completed write. Change listeners get the typed state,
// storage listeners get the key and serialized value.
func (b *Bus) Notify(courtID, key string, state models.MatchState, payload []byte) {
	b.mu.RLock()
	changes := make([]ChangeListener, 0, len(b.change))
	for _, fn := range b.change {
		changes = append(changes, fn)
	}
	storages := make([]StorageListener, 0, len(b.storage))
	for _, fn := range b.storage {
		storages = append(storages, fn)
	}
	b.mu.RUnlock()

	for _, fn := range changes {
		b.deliver(metrics.ChannelLocal, courtID, func() { fn(courtID, state) })
	}
	event := StorageEvent{Key: key, NewValue: string(payload)}
	for _, fn := range storages {
		b.deliver(metrics.ChannelStorage, courtID, func() { fn(event) })
	}
}

// Listeners reports how many listeners are registered.
func (b *Bus) Listeners() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.change) + len(b.storage)
}

func (b *Bus) deliver(channel, courtID string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("Listener panicked", "channel", channel, "court_id", courtID, "error", fmt.Sprint(r))
			b.metrics.PropagationDropped(channel)
		}
	}()
	fn()
}
