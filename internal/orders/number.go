package orders

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// NewOrderNumber formats ORD-<unix ms>-<0..9999>. Collisions surface as a
// unique violation on orders.order_number.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%d", now.UnixMilli(), rand.IntN(10000))
}
