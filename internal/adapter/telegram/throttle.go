package telegram

import (
	"sync"
	"time"
)

// Throttle ограничивает частоту событий по ключу. Ключом служит имя задачи:
// задача, падающая каждую минуту, не должна заваливать чат алертами.
type Throttle struct {
	mu    sync.Mutex
	last  map[string]time.Time
	every time.Duration
	now   func() time.Time
}

// NewThrottle создает ограничитель с минимальным интервалом every между
// событиями одного ключа. every <= 0 отключает ограничение.
func NewThrottle(every time.Duration) *Throttle {
	return &Throttle{last: make(map[string]time.Time), every: every, now: time.Now}
}

// Allow возвращает false, если ключ уже срабатывал за последние every.
func (t *Throttle) Allow(key string) bool {
	if t == nil || t.every <= 0 {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if prev, ok := t.last[key]; ok && now.Sub(prev) < t.every {
		return false
	}
	t.last[key] = now
	return true
}

// Reset забывает ключ, следующее событие пройдет сразу.
func (t *Throttle) Reset(key string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	delete(t.last, key)
	t.mu.Unlock()
}
