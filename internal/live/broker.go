// Package live provides a topic-based publish/subscribe broker that keeps
// only the latest undelivered value per subscriber.
package live

import (
	"context"
	"sync"
)

// AnyTopic subscribes to every topic.
const AnyTopic = ""

type Subscriber[T any] struct {
	msg   chan T
	topic string
}

// C returns the delivery channel. It is closed on Unsubscribe.
func (s *Subscriber[T]) C() <-chan T {
	return s.msg
}

type Broker[T any] struct {
	subscribers map[*Subscriber[T]]bool
	mu          sync.Mutex
}

func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{
		subscribers: make(map[*Subscriber[T]]bool),
	}
}

func (b *Broker[T]) Subscribe(topic string) *Subscriber[T] {
	s := &Subscriber[T]{
		msg:   make(chan T, 1),
		topic: topic,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[s] = true
	return s
}

// SubscribeContext subscribes and unsubscribes once ctx is done.
func (b *Broker[T]) SubscribeContext(ctx context.Context, topic string) *Subscriber[T] {
	s := b.Subscribe(topic)
	go func() {
		<-ctx.Done()
		b.Unsubscribe(s)
	}()
	return s
}

func (b *Broker[T]) Unsubscribe(s *Subscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.subscribers[s] {
		return
	}
	delete(b.subscribers, s)
	close(s.msg)
}

// Publish never blocks. A subscriber that has not consumed its previous
// value gets it replaced by v.
func (b *Broker[T]) Publish(topic string, v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subscribers {
		if s.topic != AnyTopic && s.topic != topic {
			continue
		}
		select {
		case s.msg <- v:
		default:
			select {
			case <-s.msg:
			default:
			}
			select {
			case s.msg <- v:
			default:
			}
		}
	}
}

func (b *Broker[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Offer sends v on ch, first discarding an unread value if ch is full. The
// caller must be the only sender on ch.
func Offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
