package rate

import (
	"sync"
	"time"
)

// Config defines throttling parameters for payment prompt delivery.
type Config struct {
	PromptsPerSecond int
	Burst            int
}

// Limiter implements a token bucket rate limiter.
type Limiter struct {
	mu     sync.Mutex
	tokens float64
	last   time.Time
	rate   float64
	burst  float64
}

// New creates a new limiter.
func New(cfg Config) *Limiter {
	return &Limiter{
		tokens: float64(cfg.Burst),
		last:   time.Now(),
		rate:   float64(cfg.PromptsPerSecond),
		burst:  float64(cfg.Burst),
	}
}

func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(l.last).Seconds()
	l.last = now

	l.tokens += elapsed * l.rate
	if l.tokens > l.burst {
		l.tokens = l.burst
	}

	if l.tokens >= 1 {
		l.tokens -= 1
		return true
	}
	return false
}

// Manager holds one limiter per phone number, so a buyer hammering the
// checkout button cannot flood a device with payment prompts.
type Manager struct {
	mu       sync.RWMutex
	limiters map[string]*Limiter
	defaults Config
}

func NewManager(defaults Config) *Manager {
	return &Manager{
		limiters: make(map[string]*Limiter),
		defaults: defaults,
	}
}

func (m *Manager) GetLimiter(phone string) *Limiter {
	m.mu.RLock()
	if lim, ok := m.limiters[phone]; ok {
		m.mu.RUnlock()
		return lim
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if lim, ok := m.limiters[phone]; ok {
		return lim
	}
	lim := New(m.defaults)
	m.limiters[phone] = lim
	return lim
}

// Allow reports whether one more prompt may go to the given number.
func (m *Manager) Allow(phone string) bool {
	return m.GetLimiter(phone).Allow()
}
