package events

import "sync"

// maxQueued bounds the events waiting for a slow subscriber. Past it the
// oldest queued event is dropped.
const maxQueued = 64

// Subscription is one subscriber's queue of pending events. Events published
// under a key replace the queued event with the same key, so a slow reader
// always ends up with the latest snapshot.
type Subscription struct {
	ready chan struct{}

	mu     sync.Mutex
	queue  []queued
	closed bool
}

type queued struct {
	key string
	evt string
}

// Ready is signalled when events are waiting. It is closed on Unsubscribe.
func (s *Subscription) Ready() <-chan struct{} {
	return s.ready
}

// Drain returns the pending events in publish order and empties the queue
func (s *Subscription) Drain() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.queue))
	for i, q := range s.queue {
		out[i] = q.evt
	}
	s.queue = s.queue[:0]
	return out
}

func (s *Subscription) push(key, evt string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if key != "" {
		for i := range s.queue {
			if s.queue[i].key == key {
				// the newer event moves to the back to keep publish order
				s.queue = append(s.queue[:i], s.queue[i+1:]...)
				break
			}
		}
	}
	if len(s.queue) >= maxQueued {
		s.queue = s.queue[1:]
	}
	s.queue = append(s.queue, queued{key: key, evt: evt})
	s.mu.Unlock()

	select {
	case s.ready <- struct{}{}:
	default:
	}
}

func (s *Subscription) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	s.queue = nil
	close(s.ready)
	return true
}

// Hub delivers events to the subscribers of a topic. A topic is a workflow
// session id.
type Hub struct {
	mu     sync.Mutex
	topics map[string]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[*Subscription]struct{})}
}

func (h *Hub) Subscribe(topic string) *Subscription {
	sub := &Subscription{ready: make(chan struct{}, 1)}
	h.mu.Lock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) Unsubscribe(topic string, sub *Subscription) {
	h.mu.Lock()
	subs := h.topics[topic]
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
	h.mu.Unlock()
	sub.close()
}

// Publish queues evt for every subscriber of topic
func (h *Hub) Publish(topic, evt string) {
	h.PublishLatest(topic, "", evt)
}

// PublishLatest queues evt and drops any event still queued under the same
// key. Whole-state events such as snapshots are published this way.
func (h *Hub) PublishLatest(topic, key, evt string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.topics[topic] {
		sub.push(key, evt)
	}
}

// Subscribers returns the number of subscribers of topic
func (h *Hub) Subscribers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[topic])
}

// URLOpener asks the browser tabs subscribed to a session to open a URL
type URLOpener struct {
	hub   *Hub
	topic string
}

// Opener returns the URL opener of a session
func (h *Hub) Opener(topic string) URLOpener {
	return URLOpener{hub: h, topic: topic}
}

func (o URLOpener) OpenURL(url string) {
	o.hub.Publish(o.topic, MakeEvent(TypeOpenURL, OpenURLData{URL: url}))
}
