package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Namespace is the fixed prefix for all cache records in storage.
// It keeps cached responses from colliding with unrelated persisted
// application state (tokens, drafts, settings).
const Namespace = "townsq:cache:"

// Key identifies one cached response. Base is included so that
// switching the client to another tenant's API never serves entries
// fetched from a different base target.
type Key struct {
	// Base is the API base target (e.g. "https://api.townsquared.com").
	Base string

	// Endpoint is the endpoint path (e.g. "/api/cards").
	Endpoint string

	// Query are the request query parameters.
	Query url.Values
}

// canonical produces a deterministic serialization of the key.
// Query parameters are emitted in sorted key order (values sorted
// within a key), so two semantically identical requests with
// differently-ordered options map to the same key.
func (k Key) canonical() string {
	parts := []string{strings.TrimSuffix(k.Base, "/"), strings.Trim(k.Endpoint, "/")}

	if len(k.Query) > 0 {
		names := make([]string, 0, len(k.Query))
		for name := range k.Query {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			values := append([]string(nil), k.Query[name]...)
			sort.Strings(values)
			for _, value := range values {
				parts = append(parts, fmt.Sprintf("%s=%s", name, value))
			}
		}
	}

	return strings.Join(parts, ":")
}

// StorageKey returns the namespaced storage key for this cache key.
// Format: townsq:cache:<endpoint>:<digest>, where the digest is the
// xxhash of the canonical serialization. Keeping the endpoint readable
// makes stored records diagnosable; the digest bounds key length and
// carries the base target and query parameters.
func (k Key) StorageKey() string {
	endpoint := strings.ReplaceAll(strings.Trim(k.Endpoint, "/"), "/", ":")
	digest := xxhash.Sum64String(k.canonical())
	return fmt.Sprintf("%s%s:%016x", Namespace, endpoint, digest)
}
