package rate

import (
	"sync"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	lim := New(Config{
		PromptsPerSecond: 10,
		Burst:            5,
	})

	// Should allow up to burst count immediately
	allowed := 0
	for i := 0; i < 10; i++ {
		if lim.Allow() {
			allowed++
		}
	}

	if allowed != 5 {
		t.Errorf("expected 5 allowed from burst, got %d", allowed)
	}
}

func TestLimiter_Refill(t *testing.T) {
	lim := New(Config{
		PromptsPerSecond: 100, // refills fast
		Burst:            2,
	})

	// Drain the bucket
	for lim.Allow() {
	}

	// Wait for tokens to refill
	time.Sleep(50 * time.Millisecond)

	if !lim.Allow() {
		t.Error("expected token to be available after refill period")
	}
}

func TestLimiter_BurstCap(t *testing.T) {
	lim := New(Config{
		PromptsPerSecond: 1000,
		Burst:            3,
	})

	// Even after a long sleep, tokens should not exceed burst
	time.Sleep(100 * time.Millisecond)

	allowed := 0
	for i := 0; i < 10; i++ {
		if lim.Allow() {
			allowed++
		}
	}

	if allowed > 3 {
		t.Errorf("burst cap exceeded: got %d allowed, want <= 3", allowed)
	}
}

func TestManager_PerPhoneIsolation(t *testing.T) {
	mgr := NewManager(Config{
		PromptsPerSecond: 1,
		Burst:            1,
	})

	if !mgr.Allow("0712345678") {
		t.Fatal("first prompt to a number should be allowed")
	}
	if mgr.Allow("0712345678") {
		t.Error("second immediate prompt to the same number should be throttled")
	}
	// A different number has its own bucket
	if !mgr.Allow("0722000111") {
		t.Error("prompt to a different number should be allowed")
	}
}

func TestManager_ConcurrentGetLimiter(t *testing.T) {
	mgr := NewManager(Config{
		PromptsPerSecond: 10,
		Burst:            5,
	})

	var wg sync.WaitGroup
	limiters := make([]*Limiter, 20)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			limiters[idx] = mgr.GetLimiter("0712345678")
		}(i)
	}
	wg.Wait()

	// All should be the same instance
	for i := 1; i < 20; i++ {
		if limiters[i] != limiters[0] {
			t.Fatalf("limiter at index %d differs from index 0", i)
		}
	}
}
