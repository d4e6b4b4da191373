package redisx

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimit is a fixed-window per-IP limiter: INCR on rate_limit:{ip}, EXPIRE
// on the first hit of the window, reject above the limit. Fails open when
// Redis is unreachable.
func RateLimit(rdb *redis.Client, perMinute int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			key := fmt.Sprintf(KeyRateLimit, ip)

			n, err := rdb.Incr(r.Context(), key).Result()
			if err != nil {
				log.Printf("rate limit: redis unavailable, allowing request: %v", err)
				next.ServeHTTP(w, r)
				return
			}
			if n == 1 {
				_ = rdb.Expire(r.Context(), key, time.Minute).Err()
			}
			if n > int64(perMinute) {
				w.Header().Set("Retry-After", "60")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
