// Package specification models a query as immutable data: a filter
// criteria tree, at most one sort key, and an offset/limit paging
// window. Specifications describe what to fetch without prescribing
// how; the storage and memory packages each provide an evaluator.
package specification

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Sort describes a single ordering key. At most one Sort is active per
// specification; setting a new direction replaces the previous one.
type Sort struct {
	Field string
	Desc  bool
}

// Specification is an immutable description of a query. The zero value
// matches everything, unordered and unpaged. Construct via New or a
// domain builder and treat as read-only afterwards.
type Specification struct {
	criteria      Criteria
	sort          *Sort
	skip          int
	take          int
	pagingEnabled bool
	includes      []string
}

// Option configures a Specification during construction.
type Option func(*Specification)

// New builds an immutable specification from the given options.
func New(opts ...Option) Specification {
	var s Specification
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithCriteria sets the filter criteria. Multiple calls AND-compose.
func WithCriteria(c Criteria) Option {
	return func(s *Specification) {
		if c == nil {
			return
		}
		if s.criteria == nil {
			s.criteria = c
			return
		}
		s.criteria = AndAll(s.criteria, c)
	}
}

// WithOrderBy sets an ascending sort key, replacing any previous sort.
func WithOrderBy(field string) Option {
	return func(s *Specification) {
		s.sort = &Sort{Field: field}
	}
}

// WithOrderByDescending sets a descending sort key, replacing any
// previous sort.
func WithOrderByDescending(field string) Option {
	return func(s *Specification) {
		s.sort = &Sort{Field: field, Desc: true}
	}
}

// WithPaging enables offset/limit paging. Page numbers and sizes below
// 1 are clamped to 1 rather than rejected.
func WithPaging(pageNumber, pageSize int) Option {
	return func(s *Specification) {
		if pageNumber < 1 {
			pageNumber = 1
		}
		if pageSize < 1 {
			pageSize = 1
		}
		s.skip = (pageNumber - 1) * pageSize
		s.take = pageSize
		s.pagingEnabled = true
	}
}

// WithIncludes records related-entity loaders by relation name.
// Includes never participate in cache key derivation.
func WithIncludes(relations ...string) Option {
	return func(s *Specification) {
		s.includes = append(s.includes, relations...)
	}
}

// Criteria returns the filter tree, nil meaning match-all.
func (s Specification) Criteria() Criteria { return s.criteria }

// Sort returns the active sort key, nil meaning unordered.
func (s Specification) Sort() *Sort {
	if s.sort == nil {
		return nil
	}
	cp := *s.sort
	return &cp
}

// Skip returns the paging offset. Meaningless unless PagingEnabled.
func (s Specification) Skip() int { return s.skip }

// Take returns the paging limit. Meaningless unless PagingEnabled.
func (s Specification) Take() int { return s.take }

// PagingEnabled reports whether the evaluator should apply skip/take.
func (s Specification) PagingEnabled() bool { return s.pagingEnabled }

// Includes returns the relation names to eager-load.
func (s Specification) Includes() []string {
	return append([]string(nil), s.includes...)
}

// CacheKey derives a deterministic descriptor of the specification:
// a content-addressed hash of the canonical criteria form, the
// ordering descriptor, and the paging window. Includes are excluded:
// they change the shape of the result, not its identity, and keeping
// them out lets eager and lazy reads share entries.
func (s Specification) CacheKey() string {
	var b strings.Builder

	if s.criteria == nil {
		b.WriteString("crit:all")
	} else {
		var cb strings.Builder
		s.criteria.Canonical(&cb)
		b.WriteString("crit:")
		b.WriteString(strconv.FormatUint(xxhash.Sum64String(cb.String()), 16))
	}

	b.WriteString("::order:")
	if s.sort == nil {
		b.WriteString("none")
	} else {
		b.WriteString(s.sort.Field)
		if s.sort.Desc {
			b.WriteString(":desc")
		} else {
			b.WriteString(":asc")
		}
	}

	if s.pagingEnabled {
		b.WriteString("::page:")
		b.WriteString(strconv.Itoa(s.skip))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(s.take))
	}

	return b.String()
}
