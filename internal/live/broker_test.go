package live

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestBrokerDeliversToTopic(t *testing.T) {
	b := NewBroker[string]()
	draftA := b.Subscribe("a")
	draftB := b.Subscribe("b")
	all := b.Subscribe(AnyTopic)

	b.Publish("a", "saved")

	select {
	case msg := <-draftA.C():
		if msg != "saved" {
			t.Errorf("Expected %q, got %q", "saved", msg)
		}
	default:
		t.Error("Expected subscriber of topic a to receive the message")
	}

	select {
	case msg := <-draftB.C():
		t.Errorf("Subscriber of topic b should not receive %q", msg)
	default:
	}

	select {
	case <-all.C():
	default:
		t.Error("AnyTopic subscriber should receive every message")
	}
}

func TestBrokerKeepsLatestValue(t *testing.T) {
	b := NewBroker[int]()
	s := b.Subscribe("drafts")

	for i := 1; i <= 5; i++ {
		b.Publish("drafts", i)
	}

	if got := <-s.C(); got != 5 {
		t.Errorf("Expected latest value 5, got %d", got)
	}

	select {
	case v := <-s.C():
		t.Errorf("Expected no further values, got %d", v)
	default:
	}
}

func TestBrokerUnsubscribe(t *testing.T) {
	b := NewBroker[int]()
	s := b.Subscribe("x")

	b.Unsubscribe(s)
	b.Unsubscribe(s) // second call is a no-op

	if _, ok := <-s.C(); ok {
		t.Error("Expected channel to be closed")
	}
	if b.Len() != 0 {
		t.Errorf("Expected no subscribers, got %d", b.Len())
	}

	// Publishing after unsubscribe must not panic on the closed channel.
	b.Publish("x", 1)
}

func TestBrokerSubscribeContext(t *testing.T) {
	b := NewBroker[int]()
	ctx, cancel := context.WithCancel(context.Background())
	s := b.SubscribeContext(ctx, "x")

	cancel()

	select {
	case _, ok := <-s.C():
		if ok {
			t.Error("Expected closed channel after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("Subscriber was not removed after context cancel")
	}
}

func TestBrokerConcurrentPublish(t *testing.T) {
	b := NewBroker[int]()
	s := b.Subscribe(AnyTopic)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b.Publish("t", i)
		}(i)
	}
	wg.Wait()

	select {
	case <-s.C():
	default:
		t.Error("Expected at least one value after concurrent publishes")
	}
}

func TestOfferKeepsLatest(t *testing.T) {
	ch := make(chan int, 1)
	Offer(ch, 1)
	Offer(ch, 2)
	Offer(ch, 3)

	if got := <-ch; got != 3 {
		t.Errorf("Expected latest value 3, got %d", got)
	}
	select {
	case v := <-ch:
		t.Errorf("Expected channel to be empty, got %d", v)
	default:
	}
}
