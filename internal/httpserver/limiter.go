package httpserver

import (
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ipLimiter keeps one token bucket per client IP.
type ipLimiter struct {
	mu    sync.Mutex
	rps   int
	burst int
	byIP  map[string]*rate.Limiter
}

func newIPLimiter(rps, burst int) *ipLimiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &ipLimiter{rps: rps, burst: burst, byIP: make(map[string]*rate.Limiter)}
}

// allow reports whether the client at remoteAddr may proceed now.
func (l *ipLimiter) allow(remoteAddr string) bool {
	return l.get(clientIP(remoteAddr)).Allow()
}

func (l *ipLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.byIP[key]; ok {
		return lim
	}
	lim := rate.NewLimiter(rate.Every(time.Second/time.Duration(l.rps)), l.burst)
	l.byIP[key] = lim
	return lim
}

// clientIP strips the port chi's RealIP leaves on direct connections.
func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
