package account

import (
	"sync"
)

const subscriberBuffer = 10

// NotificationHub fans balance updates out to per-user subscribers. Slow
// subscribers miss updates rather than block the sender.
type NotificationHub struct {
	mu          sync.RWMutex
	subscribers map[string][]chan BalanceUpdate
}

func NewNotificationHub() *NotificationHub {
	return &NotificationHub{
		subscribers: make(map[string][]chan BalanceUpdate),
	}
}

// Subscribe registers a channel for userID. The returned func removes and
// closes it; calling it more than once is safe.
func (h *NotificationHub) Subscribe(userID string) (<-chan BalanceUpdate, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan BalanceUpdate, subscriberBuffer)
	h.subscribers[userID] = append(h.subscribers[userID], ch)

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.unsubscribe(userID, ch) })
	}
}

func (h *NotificationHub) unsubscribe(userID string, ch chan BalanceUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[userID]
	for i, c := range subs {
		if c == ch {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(h.subscribers, userID)
	} else {
		h.subscribers[userID] = subs
	}
	close(ch)
}

func (h *NotificationHub) Notify(userID string, update BalanceUpdate) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subscribers[userID] {
		select {
		case ch <- update:
		default:
			// full, drop
		}
	}
}

func (h *NotificationHub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}
