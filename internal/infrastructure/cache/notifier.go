package cache

import (
	"sync"

	"github.com/shopsmart/backend/internal/domain"
)

// subscriberBuffer is how many undelivered changes a subscriber may hold
const subscriberBuffer = 16

// notifier fans store changes out to per-key subscribers
type notifier struct {
	mutex       sync.Mutex
	subscribers map[string]map[chan domain.StoreChange]struct{}
}

func newNotifier() *notifier {
	return &notifier{subscribers: make(map[string]map[chan domain.StoreChange]struct{})}
}

// subscribe registers a buffered channel for key
func (n *notifier) subscribe(key string) (<-chan domain.StoreChange, func()) {
	ch := make(chan domain.StoreChange, subscriberBuffer)

	n.mutex.Lock()
	if n.subscribers[key] == nil {
		n.subscribers[key] = make(map[chan domain.StoreChange]struct{})
	}
	n.subscribers[key][ch] = struct{}{}
	n.mutex.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mutex.Lock()
			defer n.mutex.Unlock()
			subs, ok := n.subscribers[key]
			if !ok {
				return
			}
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			if len(subs) == 0 {
				delete(n.subscribers, key)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// publish delivers change without blocking; full subscribers miss it
func (n *notifier) publish(change domain.StoreChange) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	for ch := range n.subscribers[change.Key] {
		select {
		case ch <- change:
		default:
		}
	}
}

// closeAll ends every subscription
func (n *notifier) closeAll() {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	for key, subs := range n.subscribers {
		for ch := range subs {
			close(ch)
		}
		delete(n.subscribers, key)
	}
}
