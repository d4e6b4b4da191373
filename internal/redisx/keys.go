package redisx

import "time"

const (
	// Cache isi cart per user: cart:{user_id} -> JSON lines + total
	KeyCart = "cart:%s"

	// Cache status order: order_status:{order_id} -> {"status": "...", "updated_at": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{id} (id = event_id)
	KeyDedup = "dedup:%s:%s"

	// Fixed-window rate limit per client IP: rate_limit:{ip}
	KeyRateLimit = "rate_limit:%s"
)

var (
	TTLCartCache   = 10 * time.Minute
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
