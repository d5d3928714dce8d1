package redis

import "strings"

// DefaultKeyspace prefixes every key written by the backend.
const DefaultKeyspace Keyspace = "grocery"

const (
	idempotencyPrefix = "idempotency"
	rateLimitPrefix   = "rate_limit"
	lockPrefix        = "lock"
)

// Keyspace builds colon separated redis keys under a fixed root.
type Keyspace string

// Key joins parts under the keyspace root. Blank parts are dropped.
func (k Keyspace) Key(parts ...string) string {
	root := string(k)
	if root == "" {
		root = string(DefaultKeyspace)
	}
	var b strings.Builder
	b.WriteString(root)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}

// IdempotencyKey returns the key holding a stored checkout response.
func (c *Client) IdempotencyKey(scope, id string) string {
	return c.keys.Key(idempotencyPrefix, scope, id)
}

// RateLimitKey returns the counter key for a throttled scope.
func (c *Client) RateLimitKey(scope string) string {
	return c.keys.Key(rateLimitPrefix, scope)
}

// LockKey returns the key guarding a single-leader worker.
func (c *Client) LockKey(parts ...string) string {
	return c.keys.Key(append([]string{lockPrefix}, parts...)...)
}
