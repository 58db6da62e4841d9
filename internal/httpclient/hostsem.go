package httpclient

import (
	"net/url"
	"sync"
)

// HostSemaphore caps concurrent requests per scheme+host. DoWithRetry holds a slot of
// GlobalHostSem while a request is in flight, so a watch tick overlapping a manual check
// does not open extra connections to the same CDN edge.
type HostSemaphore struct {
	mu    sync.Mutex
	sems  map[string]chan struct{}
	limit int
}

// GlobalHostSem is the shared per-host limiter.
var GlobalHostSem = NewHostSemaphore(MaxIdleConnsPerHost)

func NewHostSemaphore(concurrency int) *HostSemaphore {
	if concurrency < 1 {
		concurrency = 1
	}
	return &HostSemaphore{
		sems:  make(map[string]chan struct{}),
		limit: concurrency,
	}
}

// Acquire blocks until a slot for rawURL's host is free and returns the release func.
func (h *HostSemaphore) Acquire(rawURL string) func() {
	sem := h.semFor(hostKey(rawURL))
	sem <- struct{}{}
	return func() { <-sem }
}

func (h *HostSemaphore) semFor(key string) chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sems[key]
	if !ok {
		s = make(chan struct{}, h.limit)
		h.sems[key] = s
	}
	return s
}

func hostKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Scheme + "://" + u.Host
}
