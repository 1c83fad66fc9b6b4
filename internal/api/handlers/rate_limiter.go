package handlers

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
)

// submissionLimiter counts submissions per key in fixed windows. The shared
// cache is used when present so limits hold across instances; the local
// limiter covers a missing or failing cache.
type submissionLimiter struct {
	cache  providers.CacheProvider
	local  *localRateLimiter
	limit  int
	window time.Duration
}

func newSubmissionLimiter(cache providers.CacheProvider, limit int, window time.Duration) *submissionLimiter {
	return &submissionLimiter{
		cache:  cache,
		local:  newLocalRateLimiter(window),
		limit:  limit,
		window: window,
	}
}

func (l *submissionLimiter) allow(ctx context.Context, key string) (bool, time.Duration) {
	if l.cache == nil {
		return l.local.allow(key, l.limit, l.window)
	}

	count, remaining, err := l.cache.Increment(ctx, key, l.window)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("shared rate limit unavailable, counting locally")
		return l.local.allow(key, l.limit, l.window)
	}
	return count <= int64(l.limit), remaining
}

// localRateLimiter keeps per-key counters in go-cache so expired windows are
// swept instead of accumulating.
type localRateLimiter struct {
	mu     sync.Mutex
	counts *gocache.Cache
}

func newLocalRateLimiter(window time.Duration) *localRateLimiter {
	return &localRateLimiter{counts: gocache.New(window, window)}
}

func (l *localRateLimiter) allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	value, expiresAt, found := l.counts.GetWithExpiration(key)
	if !found {
		l.counts.Set(key, 1, window)
		return true, window
	}

	retryAfter := time.Until(expiresAt)
	if retryAfter <= 0 {
		retryAfter = window
	}
	if value.(int) >= limit {
		return false, retryAfter
	}
	// Increment keeps the window's original expiry.
	_ = l.counts.Increment(key, 1)
	return true, retryAfter
}

// trustedProxies lists the networks whose forwarding headers are believed.
type trustedProxies []*net.IPNet

// parseTrustedProxies accepts CIDRs and bare addresses. Unparseable entries
// are logged and skipped.
func parseTrustedProxies(entries []string) trustedProxies {
	var nets trustedProxies
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			if ip := net.ParseIP(entry); ip != nil {
				bits := 32
				if ip.To4() == nil {
					bits = 128
				}
				entry = ip.String() + "/" + strconv.Itoa(bits)
			}
		}
		_, network, err := net.ParseCIDR(entry)
		if err != nil {
			log.Warn().Str("proxy", entry).Msg("ignoring invalid trusted proxy")
			continue
		}
		nets = append(nets, network)
	}
	return nets
}

func (p trustedProxies) contains(ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, network := range p {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// clientIP returns the peer address. X-Forwarded-For is consulted only when
// the peer is a trusted proxy, and then read right to left, skipping trusted
// hops, so a client cannot choose its own key by prepending entries.
func (p trustedProxies) clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !p.contains(net.ParseIP(host)) {
		return host
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		ip := net.ParseIP(hop)
		if ip == nil {
			break
		}
		if !p.contains(ip) {
			return ip.String()
		}
	}
	return host
}
