package redis

import "strings"

const keyNamespace = "lh"

// Key families. Changing any of these orphans live data.
const (
	idempotencyFamily = "idempotency"
	counterFamily     = "counter"
	cartFamily        = "literary_haven_cart"
	checkoutFamily    = "checkout_inflight"
	lockFamily        = "lock"
)

// key joins non-empty parts under the namespace: lh:family:part...
func key(family string, parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range append([]string{family}, parts...) {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}

// IdempotencyKey scopes a client-supplied Idempotency-Key to one route and caller.
func (c *Client) IdempotencyKey(scope, id string) string { return key(idempotencyFamily, scope, id) }

// CounterKey names a sequence such as the daily order-number counter.
func (c *Client) CounterKey(name string) string { return key(counterFamily, name) }

// CartKey holds a cart session's persisted snapshot.
func (c *Client) CartKey(sessionID string) string { return key(cartFamily, sessionID) }

// CheckoutInFlightKey guards a cart session against concurrent placements.
func (c *Client) CheckoutInFlightKey(sessionID string) string { return key(checkoutFamily, sessionID) }

func (c *Client) LockKey(name string) string { return key(lockFamily, name) }
