package bus

import (
	"context"
	"testing"
	"time"
)

func TestSubscribeJoinsAtLiveEdge(t *testing.T) {
	b := New[int](4)
	b.Publish(1)
	b.Publish(2)

	sub := b.Subscribe()
	b.Publish(3)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	v, lagged, ok := b.Recv(ctx, sub)
	if !ok || lagged != 0 || v != 3 {
		t.Fatalf("got v=%d lagged=%d ok=%v, want v=3 lagged=0 ok=true", v, lagged, ok)
	}
}

func TestPublishWithNoSubscribersIsNoop(t *testing.T) {
	b := New[int](4)
	b.Publish(1) // must not panic or block
	if b.ActiveSubscribers() != 0 {
		t.Fatalf("expected 0 subscribers")
	}
}

func TestSlowSubscriberLagsAndResumesAtLiveEdge(t *testing.T) {
	b := New[int](2)
	sub := b.Subscribe()

	for i := 0; i < 5; i++ {
		b.Publish(i)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, lagged, ok := b.Recv(ctx, sub)
	if !ok || lagged == 0 {
		t.Fatalf("expected a lag signal, got lagged=%d ok=%v", lagged, ok)
	}

	v, lagged2, ok := b.Recv(ctx, sub)
	if !ok || lagged2 != 0 {
		t.Fatalf("expected a clean item after the lag signal, got lagged=%d", lagged2)
	}
	if v != 4 {
		t.Fatalf("expected to resume at the newest retained item (4), got %d", v)
	}
}

func TestUnsubscribeClosesSubscription(t *testing.T) {
	b := New[int](4)
	sub := b.Subscribe()
	b.Unsubscribe(sub)
	// Unsubscribing twice must not panic.
	b.Unsubscribe(sub)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, _, ok := b.Recv(ctx, sub)
	if ok {
		t.Fatalf("expected Recv to report closed after Unsubscribe")
	}
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	b := New[int](1)
	_ = b.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			b.Publish(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}
