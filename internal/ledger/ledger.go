// internal/ledger/ledger.go
package ledger

import "sync"

// Ledger is the process-wide record of media URLs already delivered to the
// output channel. It is shared across chat sessions: the same media is never
// redelivered regardless of which session or seed URL rediscovers it.
// Implementations must tolerate concurrent use from multiple session
// goroutines.
type Ledger interface {
	// Contains reports whether the URL was already delivered.
	Contains(url string) bool

	// MarkDelivered records the URL as delivered. Marking is idempotent.
	MarkDelivered(url string)
}

// Memory is the in-process ledger: a mutex-guarded set with process lifetime
// and no eviction.
type Memory struct {
	mu   sync.RWMutex
	urls map[string]struct{}
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{urls: make(map[string]struct{})}
}

// Contains reports whether the URL was already delivered.
func (m *Memory) Contains(url string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.urls[url]
	return ok
}

// MarkDelivered records the URL as delivered.
func (m *Memory) MarkDelivered(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls[url] = struct{}{}
}

// Len returns the number of recorded URLs.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.urls)
}

// FilterNew returns the URLs not yet present in the ledger, preserving order.
func FilterNew(l Ledger, urls []string) []string {
	var out []string
	for _, u := range urls {
		if !l.Contains(u) {
			out = append(out, u)
		}
	}
	return out
}
