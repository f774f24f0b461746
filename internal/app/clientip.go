package app

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// proxyMatcher reports whether a peer is one of the configured reverse
// proxies. A nil matcher trusts nobody.
type proxyMatcher struct {
	prefixes []netip.Prefix
}

// newProxyMatcher accepts bare addresses and CIDR ranges. Entries that
// parse as neither are logged and skipped.
func newProxyMatcher(entries []string, logger *slog.Logger) *proxyMatcher {
	if len(entries) == 0 {
		return nil
	}
	m := &proxyMatcher{}
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if p, err := netip.ParsePrefix(entry); err == nil {
			m.prefixes = append(m.prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			logger.Warn("ignoring trusted proxy entry", "entry", entry, "error", err)
			continue
		}
		addr = addr.Unmap()
		m.prefixes = append(m.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return m
}

func (m *proxyMatcher) IsTrusted(addr netip.Addr) bool {
	if m == nil || !addr.IsValid() {
		return false
	}
	addr = addr.Unmap()
	for _, p := range m.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// clientIP resolves the address a request came from. X-Forwarded-For
// is read only when the direct peer is trusted, and then the
// right-most hop that is not itself a trusted proxy wins.
func clientIP(r *http.Request, trusted *proxyMatcher) netip.Addr {
	peer := peerAddr(r.RemoteAddr)
	if !trusted.IsTrusted(peer) {
		return peer
	}
	hops := forwardedHops(r.Header.Get("X-Forwarded-For"))
	if len(hops) == 0 {
		return peer
	}
	for i := len(hops) - 1; i > 0; i-- {
		if !trusted.IsTrusted(hops[i]) {
			return hops[i]
		}
	}
	return hops[0]
}

func peerAddr(remote string) netip.Addr {
	if ap, err := netip.ParseAddrPort(remote); err == nil {
		return ap.Addr().Unmap()
	}
	addr, _ := netip.ParseAddr(strings.Trim(remote, "[]"))
	return addr.Unmap()
}

// forwardedHops parses a comma separated X-Forwarded-For value,
// dropping "unknown" and anything else that is not an address.
func forwardedHops(header string) []netip.Addr {
	var hops []netip.Addr
	for _, field := range strings.Split(header, ",") {
		v := strings.Trim(strings.TrimSpace(field), `"`)
		if v == "" || strings.EqualFold(v, "unknown") {
			continue
		}
		if host, _, err := net.SplitHostPort(v); err == nil {
			v = host
		}
		addr, err := netip.ParseAddr(strings.Trim(v, "[]"))
		if err != nil {
			continue
		}
		hops = append(hops, addr.WithZone("").Unmap())
	}
	return hops
}

// ipLimiter hands out one token bucket per client IP. Buckets idle for
// longer than idleTTL are dropped on the next sweep.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
	lastGC   time.Time
}

type limiterEntry struct {
	limiter *rate.Limiter
	seen    time.Time
}

func newIPLimiter(r rate.Limit, burst int) *ipLimiter {
	return &ipLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     r,
		burst:    burst,
		idleTTL:  10 * time.Minute,
		now:      time.Now,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastGC) > l.idleTTL {
		for key, e := range l.limiters {
			if now.Sub(e.seen) > l.idleTTL {
				delete(l.limiters, key)
			}
		}
		l.lastGC = now
	}

	e, ok := l.limiters[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[ip] = e
	}
	e.seen = now
	return e.limiter.AllowN(now, 1)
}

// rateLimit rejects requests beyond the per-IP budget with 429.
func rateLimit(l *ipLimiter, trusted *proxyMatcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "unknown"
			if ip := clientIP(r, trusted); ip.IsValid() {
				key = ip.String()
			}
			if !l.allow(key) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
