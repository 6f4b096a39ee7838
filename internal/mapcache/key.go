// internal/mapcache/key.go
package mapcache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// normalizeParams canonicalizes a MAP call's mapping parameters into a
// stable string so that equivalent calls (same domain, same knobs) hit
// the same cache slot (spec §4.7: "keyed by (domain, normalized_params)").
func normalizeParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}

// cacheKey derives the spec's hash(domain || mapping_parameters) key,
// used both as the in-memory cache slot and the on-disk CTX blob name.
func cacheKey(domain string, params map[string]string) string {
	return CacheKey(domain, params)
}

// CacheKey exposes the same hash(domain || mapping_parameters)
// derivation to callers outside this package, so the cortex facade can
// use it as the opaque map_path it hands back from MAP (spec §6) —
// the identical key this package uses internally, so a client-supplied
// map_path round-trips straight back into Lookup without a second
// index.
func CacheKey(domain string, params map[string]string) string {
	h := sha256.Sum256([]byte(domain + "||" + normalizeParams(params)))
	return hex.EncodeToString(h[:])
}
