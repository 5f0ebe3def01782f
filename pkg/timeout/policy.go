// Package timeout maps endpoints to request-timeout classes and builds
// the cancellation contexts requests run under. How long to wait for a
// response is tuned per endpoint family, independently of how long a
// cached response stays valid (pkg/cache).
package timeout

import (
	"strings"
	"time"
)

// Class is a coarse endpoint category used to select a request timeout.
type Class string

const (
	// ClassAuth covers login, registration, and profile endpoints.
	ClassAuth Class = "auth"

	// ClassRead covers simple listing and detail reads.
	ClassRead Class = "read"

	// ClassComplex covers search and submission endpoints that do real
	// work server-side.
	ClassComplex Class = "complex"

	// ClassUpload covers file uploads.
	ClassUpload Class = "upload"

	// ClassDefault is the fallback for unclassified endpoints.
	ClassDefault Class = "default"
)

// Durations is the class → timeout table. The lookup is total:
// unknown classes resolve to the default entry.
var Durations = map[Class]time.Duration{
	ClassAuth:    10 * time.Second,
	ClassRead:    10 * time.Second,
	ClassComplex: 20 * time.Second,
	ClassUpload:  30 * time.Second,
	ClassDefault: 15 * time.Second,
}

// Rule maps an endpoint path pattern to a timeout class.
type Rule struct {
	// Pattern is matched as a substring of the endpoint path.
	Pattern string

	// Class is the timeout class for matching endpoints.
	Class Class
}

// DefaultRules is the ordered classification table. Order matters:
// several patterns can match one endpoint, and the first match wins.
// Auth comes first, then the expensive endpoints, then plain reads.
var DefaultRules = []Rule{
	{Pattern: "/api/auth", Class: ClassAuth},
	{Pattern: "/api/search", Class: ClassComplex},
	{Pattern: "/api/submissions", Class: ClassComplex},
	{Pattern: "suggest-edit", Class: ClassComplex},
	{Pattern: "/api/upload", Class: ClassUpload},
	{Pattern: "/api/cards", Class: ClassRead},
	{Pattern: "/api/business", Class: ClassRead},
	{Pattern: "/api/tags", Class: ClassRead},
	{Pattern: "/api/resources", Class: ClassRead},
	{Pattern: "/api/forums", Class: ClassRead},
	{Pattern: "/api/reviews", Class: ClassRead},
	{Pattern: "/api/help-wanted", Class: ClassRead},
}

// Policy resolves endpoints to timeout durations from an ordered rule
// table.
type Policy struct {
	rules []Rule
}

// NewPolicy creates a policy with the given ordered rules.
func NewPolicy(rules []Rule) *Policy {
	return &Policy{rules: rules}
}

// DefaultPolicy returns the policy used by the client.
func DefaultPolicy() *Policy {
	return NewPolicy(DefaultRules)
}

// Classify returns the timeout class for an endpoint path.
// Deterministic first-match evaluation over the ordered rule table.
func (p *Policy) Classify(endpoint string) Class {
	for _, rule := range p.rules {
		if strings.Contains(endpoint, rule.Pattern) {
			return rule.Class
		}
	}
	return ClassDefault
}

// DurationFor returns the timeout for a class. Total: unknown classes
// fall back to the default entry.
func DurationFor(class Class) time.Duration {
	if d, ok := Durations[class]; ok {
		return d
	}
	return Durations[ClassDefault]
}

// For returns the timeout for an endpoint path.
func (p *Policy) For(endpoint string) time.Duration {
	return DurationFor(p.Classify(endpoint))
}
