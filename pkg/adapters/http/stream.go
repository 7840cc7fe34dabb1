package http

import (
	"sync"
)

// StreamManager fans out messages to the event streams of each client.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan string]struct{}
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan string]struct{}),
	}
}

// Subscribe registers a buffered channel for clientID. The returned function
// unregisters and closes it.
func (sm *StreamManager) Subscribe(clientID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[clientID]; !ok {
		sm.subscribers[clientID] = make(map[chan string]struct{})
	}
	sm.subscribers[clientID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[clientID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, clientID)
				}
			}
		})
	}
}

// Broadcast delivers msg to every subscriber of clientID. Slow subscribers
// miss messages rather than block the sender.
func (sm *StreamManager) Broadcast(clientID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[clientID] {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Subscribers returns the number of open streams for clientID.
func (sm *StreamManager) Subscribers(clientID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[clientID])
}
