package cache

import "time"

const (
	// lock:callback:{ref_num} -> trace id of the delivery holding it
	KeyCallbackLock = "lock:callback:%s"

	// order_status:{order_id} -> {"status": "...", "updated_at": "..."}
	KeyOrderStatus = "order_status:%s"
)

var (
	TTLCallbackLock = 30 * time.Second
	TTLStatusCache  = 10 * time.Minute
)
