package service

import (
	"sync"

	"github.com/croftbox/vidpipe/internal/domain"
)

// Event describes one processing transition, published per video id.
type Event struct {
	VideoID string             `json:"video_id"`
	Status  domain.VideoStatus `json:"status"`
	Stage   domain.Stage       `json:"stage,omitempty"`
	Message string             `json:"message,omitempty"`
}

// EventPublisher receives pipeline transitions. Publishing is
// fire-and-forget: implementations must never block or fail the pipeline.
type EventPublisher interface {
	Publish(videoID string, event Event)
}

// MultiPublisher fans one event out to several publishers.
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(videoID string, event Event) {
	for _, p := range m {
		p.Publish(videoID, event)
	}
}

type EventBus struct {
	subscribers map[string][]chan Event
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string][]chan Event),
	}
}

func (eb *EventBus) Subscribe(videoID string) chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(chan Event, 16)
	eb.subscribers[videoID] = append(eb.subscribers[videoID], ch)
	return ch
}

func (eb *EventBus) Unsubscribe(videoID string, ch chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	subs := eb.subscribers[videoID]
	for i, sub := range subs {
		if sub == ch {
			eb.subscribers[videoID] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}

	if len(eb.subscribers[videoID]) == 0 {
		delete(eb.subscribers, videoID)
	}
}

func (eb *EventBus) Publish(videoID string, event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for _, ch := range eb.subscribers[videoID] {
		select {
		case ch <- event:
		default:
			// Drop event if subscriber is slow
		}
	}
}
