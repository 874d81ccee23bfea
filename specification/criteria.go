package specification

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Criteria is the filter half of a specification, expressed as a small
// tagged-union AST. Evaluators interpret the tree against their own
// query layer (SQL, in-memory), and the cache key serializer hashes
// its canonical form. A nil Criteria means "match all".
type Criteria interface {
	// Canonical appends a deterministic, content-addressed textual
	// form of the node. Two trees with the same meaning under
	// AND-commutativity produce the same canonical form.
	Canonical(b *strings.Builder)
}

// FieldEquals matches entities whose field equals the given value.
type FieldEquals struct {
	Field string
	Value any
}

// FieldRange matches entities whose field falls inside the inclusive
// [Min, Max] interval. A nil bound leaves that side open.
type FieldRange struct {
	Field string
	Min   any
	Max   any
}

// FieldContains matches entities whose string field contains Substr.
// Matching is case-sensitive substring containment.
type FieldContains struct {
	Field  string
	Substr string
}

// And matches entities satisfying every term.
type And struct {
	Terms []Criteria
}

// Or matches entities satisfying at least one term.
type Or struct {
	Terms []Criteria
}

// Canonical implements Criteria.
func (c FieldEquals) Canonical(b *strings.Builder) {
	b.WriteString("eq(")
	b.WriteString(c.Field)
	b.WriteByte('=')
	b.WriteString(formatValue(c.Value))
	b.WriteByte(')')
}

// Canonical implements Criteria.
func (c FieldRange) Canonical(b *strings.Builder) {
	b.WriteString("range(")
	b.WriteString(c.Field)
	b.WriteByte(',')
	b.WriteString(formatValue(c.Min))
	b.WriteByte(',')
	b.WriteString(formatValue(c.Max))
	b.WriteByte(')')
}

// Canonical implements Criteria.
func (c FieldContains) Canonical(b *strings.Builder) {
	b.WriteString("contains(")
	b.WriteString(c.Field)
	b.WriteByte(',')
	b.WriteString(c.Substr)
	b.WriteByte(')')
}

// Canonical implements Criteria. AND terms are sorted by their own
// canonical form so that commutative fragment composition yields the
// same cache key regardless of application order.
func (c And) Canonical(b *strings.Builder) {
	forms := make([]string, 0, len(c.Terms))
	for _, t := range c.Terms {
		if t == nil {
			continue
		}
		var tb strings.Builder
		t.Canonical(&tb)
		forms = append(forms, tb.String())
	}
	sort.Strings(forms)

	b.WriteString("and(")
	b.WriteString(strings.Join(forms, ";"))
	b.WriteByte(')')
}

// Canonical implements Criteria. OR keeps term order: the builder emits
// OR groups in a fixed field order, so no sorting is required.
func (c Or) Canonical(b *strings.Builder) {
	b.WriteString("or(")
	for i, t := range c.Terms {
		if i > 0 {
			b.WriteByte(';')
		}
		if t != nil {
			t.Canonical(b)
		}
	}
	b.WriteByte(')')
}

// AndAll flattens the given criteria into a single conjunction,
// dropping nils. Zero survivors yield nil (match all), one survivor is
// returned as-is.
func AndAll(terms ...Criteria) Criteria {
	flat := make([]Criteria, 0, len(terms))
	for _, t := range terms {
		if t == nil {
			continue
		}
		if inner, ok := t.(And); ok {
			flat = append(flat, inner.Terms...)
			continue
		}
		flat = append(flat, t)
	}

	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	default:
		return And{Terms: flat}
	}
}

// formatValue renders a criteria value deterministically. Times use
// RFC 3339 with nanoseconds in UTC, floats use the shortest exact
// representation, everything else falls back to %v.
func formatValue(v any) string {
	switch tv := v.(type) {
	case nil:
		return "nil"
	case string:
		return tv
	case time.Time:
		return tv.UTC().Format(time.RFC3339Nano)
	case float64:
		return strconv.FormatFloat(tv, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(tv), 'g', -1, 32)
	case bool:
		return strconv.FormatBool(tv)
	case int:
		return strconv.Itoa(tv)
	case int64:
		return strconv.FormatInt(tv, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}
