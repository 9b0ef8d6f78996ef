package cache

import (
	"time"

	billingdomain "github.com/gramwave/gramwave/internal/billing/domain"
)

// Pricing policies change rarely; a short TTL keeps the meter off the tier
// tables for the common case without making config changes invisible.
const defaultPolicyTTL = 30 * time.Second

// PolicyCache stores resolved billing policies per user.
type PolicyCache struct {
	policies Cache[int64, billingdomain.Policy]
	ttl      time.Duration
}

func NewPolicyCache() *PolicyCache {
	return &PolicyCache{
		policies: NewTTLCache[int64, billingdomain.Policy](),
		ttl:      defaultPolicyTTL,
	}
}

func (c *PolicyCache) Get(userID int64) (billingdomain.Policy, bool) {
	return c.policies.Get(userID)
}

func (c *PolicyCache) Set(userID int64, policy billingdomain.Policy) {
	c.policies.Set(userID, policy, c.ttl)
}
