package station

import (
	"sync"
	"testing"
)

func TestCounterIncDec(t *testing.T) {
	c := &Counter{}
	c.Inc()
	c.Inc()
	c.Dec()
	if got := c.Load(); got != 1 {
		t.Fatalf("got %d, want 1", got)
	}
}

func TestCounterConcurrentIncDec(t *testing.T) {
	c := &Counter{}
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc()
			c.Dec()
		}()
	}
	wg.Wait()
	if got := c.Load(); got != 0 {
		t.Fatalf("got %d, want 0 after equal inc/dec", got)
	}
}
