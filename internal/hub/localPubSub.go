package hub

import (
	"sync"
)

// LocalPubSub maps topics to the sessions subscribed to them when no redis is used.
type LocalPubSub struct {
	mutex   sync.RWMutex
	hashMap map[string][]int64
}

func NewLocalPubSub() *LocalPubSub {
	return &LocalPubSub{hashMap: make(map[string][]int64)}
}

func (ps *LocalPubSub) unsubscribe(topic string, sessionID int64) {
	sessionIDs := ps.hashMap[topic]

	// this won't run in case topic doesn't exist since length will be 0
	for i := range sessionIDs {
		if sessionIDs[i] == sessionID {
			sessionIDs[i] = sessionIDs[len(sessionIDs)-1]
			ps.hashMap[topic] = sessionIDs[:len(sessionIDs)-1]
			break
		}
	}

	// delete topic from map if no session is subscribed to it
	if len(ps.hashMap[topic]) == 0 {
		delete(ps.hashMap, topic)
	}
}

func (ps *LocalPubSub) Unsubscribe(topic string, sessionID int64) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	ps.unsubscribe(topic, sessionID)
}

func (ps *LocalPubSub) UnsubscribeFromAll(sessionID int64) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	for topic := range ps.hashMap {
		ps.unsubscribe(topic, sessionID)
	}
}

func (ps *LocalPubSub) Subscribe(topic string, sessionID int64) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	for _, existing := range ps.hashMap[topic] {
		if existing == sessionID {
			return
		}
	}
	ps.hashMap[topic] = append(ps.hashMap[topic], sessionID)
}

// Subscribers returns a copy of the sessions subscribed to topic.
func (ps *LocalPubSub) Subscribers(topic string) []int64 {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()

	sessionIDs := make([]int64, len(ps.hashMap[topic]))
	copy(sessionIDs, ps.hashMap[topic])
	return sessionIDs
}
