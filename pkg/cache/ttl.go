package cache

import (
	"strings"
	"time"
)

// DefaultTTL is the fallback validity window for endpoints no rule
// matches.
const DefaultTTL = 2 * time.Minute

// TTLRule maps an endpoint path pattern to a cache validity window.
type TTLRule struct {
	// Pattern is matched as a substring of the endpoint path.
	Pattern string

	// TTL is the validity window for matching endpoints.
	TTL time.Duration
}

// DefaultTTLRules is the ordered endpoint family → TTL table.
// First match wins, so more specific families come first. Cache
// lifetime is tuned independently of request timeouts: near-static
// reference data keeps long windows, the current-user profile a short
// one.
var DefaultTTLRules = []TTLRule{
	{Pattern: "/api/auth", TTL: 1 * time.Minute},
	{Pattern: "/api/resources", TTL: 30 * time.Minute},
	{Pattern: "/api/tags", TTL: 5 * time.Minute},
	{Pattern: "/api/search", TTL: 1 * time.Minute},
	{Pattern: "/api/cards", TTL: 5 * time.Minute},
	{Pattern: "/api/business", TTL: 5 * time.Minute},
}

// TTLPolicy resolves the cache validity window for an endpoint from an
// ordered rule table.
type TTLPolicy struct {
	rules    []TTLRule
	fallback time.Duration
}

// NewTTLPolicy creates a policy with the given ordered rules and
// fallback window.
func NewTTLPolicy(rules []TTLRule, fallback time.Duration) *TTLPolicy {
	return &TTLPolicy{rules: rules, fallback: fallback}
}

// DefaultTTLPolicy returns the policy used by the client.
func DefaultTTLPolicy() *TTLPolicy {
	return NewTTLPolicy(DefaultTTLRules, DefaultTTL)
}

// For returns the validity window for the given endpoint path.
// Evaluation is deterministic: rules are tried in order and the first
// matching pattern wins; the fallback makes the function total.
func (p *TTLPolicy) For(endpoint string) time.Duration {
	for _, rule := range p.rules {
		if strings.Contains(endpoint, rule.Pattern) {
			return rule.TTL
		}
	}
	return p.fallback
}
