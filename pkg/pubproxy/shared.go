package pubproxy

import (
	"sync"

	"pubproxy/pkg/ratelimit"
)

// Shared is the state Fetchers coordinate through: the request clock
// that paces keyless API calls and the set of proxies already handed
// out. Fetchers created with New all use one process-wide instance, so
// independent Fetchers never exceed the API's rate limit or return the
// same proxy twice. Pass a separate instance via NewWithShared to opt a
// group of Fetchers out of that coordination.
type Shared struct {
	limiter *ratelimit.Interval

	mu   sync.Mutex
	used map[string]struct{}
}

// NewShared creates an independent coordination handle
func NewShared() *Shared {
	return &Shared{
		limiter: ratelimit.NewInterval(RequestDelay),
		used:    make(map[string]struct{}),
	}
}

var defaultShared = NewShared()

// DefaultShared returns the process-wide handle used by New
func DefaultShared() *Shared {
	return defaultShared
}

// Claim marks a proxy as handed out. It returns false if the proxy was
// already claimed, atomically, so two Fetchers racing on the same
// candidate cannot both keep it.
func (s *Shared) Claim(proxy string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.used[proxy]; ok {
		return false
	}
	s.used[proxy] = struct{}{}
	return true
}

// UsedCount reports how many distinct proxies have been claimed
func (s *Shared) UsedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.used)
}

// Reset clears the used set and the request clock. Mainly useful in
// tests and in long-lived processes that want to start over.
func (s *Shared) Reset() {
	s.mu.Lock()
	s.used = make(map[string]struct{})
	s.mu.Unlock()

	s.limiter.Reset()
}
