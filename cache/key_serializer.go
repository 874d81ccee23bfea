package cache

import (
	"strings"

	"github.com/shopfabrik/catalog/specification"
)

// KeySeparator delimits cache key segments.
const KeySeparator = "::"

// KeySerializer derives cache keys. Ad-hoc specification keys and
// explicit static keys for well-known query shapes share the
// entity-type prefix, so a single prefix sweep invalidates entries
// from either scheme uniformly.
type KeySerializer interface {
	// SpecKey builds a key for a specification-driven read:
	// entity prefix, method name, content-addressed criteria hash,
	// ordering descriptor and paging window.
	SpecKey(entity, method string, spec specification.Specification) string

	// StaticKey builds a key for a known query shape from explicit
	// parts, e.g. StaticKey("product", "id", "42").
	StaticKey(entity string, parts ...string) string

	// Prefix returns the invalidation-scope prefix for an entity type.
	Prefix(entity string) string
}

// defaultKeySerializer implements KeySerializer on top of the
// specification's own canonical cache descriptor.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SpecKey implements KeySerializer. Keys are stable across process
// restarts: the criteria segment hashes a canonical serialization of
// the filter AST rather than any runtime identity.
func (s *defaultKeySerializer) SpecKey(entity, method string, spec specification.Specification) string {
	var b strings.Builder
	b.WriteString(entity)
	b.WriteString(KeySeparator)
	b.WriteString(method)
	b.WriteString(KeySeparator)
	b.WriteString(spec.CacheKey())
	return b.String()
}

// StaticKey implements KeySerializer.
func (s *defaultKeySerializer) StaticKey(entity string, parts ...string) string {
	segments := append([]string{entity}, parts...)
	return strings.Join(segments, KeySeparator)
}

// Prefix implements KeySerializer.
func (s *defaultKeySerializer) Prefix(entity string) string {
	return entity + KeySeparator
}
