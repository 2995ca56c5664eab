package redisx

import "time"

const (
	// Idempotency place order: idem:order:place:{user_id}:{idempotency_key}
	// -> order_id (PENDING selama request pemilik klaim masih jalan)
	KeyIdemOrderPlace = "idem:order:place:%s:%s"

	// Cache status order: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
