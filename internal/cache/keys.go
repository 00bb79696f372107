package cache

import (
	"fmt"
	"strings"
)

// Key builds a cache key of the form
// {entityType}:{normalizedIdentifier}[:{paramsHash}].
// Identifiers are normalized so equivalent lookups collide on the same key;
// the optional params hash distinguishes queries with the same subject but
// different filter arguments.
func Key(entityType, identifier string, params ...string) string {
	k := entityType + ":" + NormalizeIdentifier(identifier)
	if len(params) > 0 {
		k += ":" + ParamsHash(strings.Join(params, "|"))
	}
	return k
}

// NormalizeIdentifier lower-cases and strips non-alphanumeric characters.
func NormalizeIdentifier(id string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(id) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// ParamsHash renders the sum of character codes as hex. It only needs to
// separate distinct parameter sets, not resist collisions.
func ParamsHash(params string) string {
	var sum int64
	for _, r := range params {
		sum += int64(r)
	}
	return fmt.Sprintf("%x", sum)
}
