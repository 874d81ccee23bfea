package memory

import (
	"sort"
	"strings"
	"time"

	"github.com/shopfabrik/catalog/product"
	"github.com/shopfabrik/catalog/specification"
)

// fieldValue maps a specification field name to the product's value.
// Unknown fields yield nil and never match.
func fieldValue(p *product.Product, field string) any {
	switch field {
	case product.FieldID:
		return p.ID
	case product.FieldName:
		return p.Name
	case product.FieldDescription:
		return p.Description
	case product.FieldCategory:
		return p.Category
	case product.FieldPrice:
		return p.PriceAmount
	case product.FieldAvailable:
		return p.Available
	case product.FieldCreatedAt:
		return p.CreatedAt
	case product.FieldUpdatedAt:
		return p.UpdatedAt
	default:
		return nil
	}
}

// matches evaluates a criteria tree against a product. A nil criteria
// matches everything.
func matches(p *product.Product, c specification.Criteria) bool {
	switch v := c.(type) {
	case nil:
		return true
	case specification.And:
		for _, t := range v.Terms {
			if !matches(p, t) {
				return false
			}
		}
		return true
	case specification.Or:
		for _, t := range v.Terms {
			if matches(p, t) {
				return true
			}
		}
		return len(v.Terms) == 0
	case specification.FieldEquals:
		cmp, ok := compare(fieldValue(p, v.Field), v.Value)
		return ok && cmp == 0
	case specification.FieldRange:
		fv := fieldValue(p, v.Field)
		if v.Min != nil {
			cmp, ok := compare(fv, v.Min)
			if !ok || cmp < 0 {
				return false
			}
		}
		if v.Max != nil {
			cmp, ok := compare(fv, v.Max)
			if !ok || cmp > 0 {
				return false
			}
		}
		return true
	case specification.FieldContains:
		s, ok := fieldValue(p, v.Field).(string)
		return ok && strings.Contains(s, v.Substr)
	default:
		return false
	}
}

// compare orders two values of compatible types. Numeric kinds are
// coerced so an int literal in a criteria compares against an int64
// identity or a float64 price.
func compare(a, b any) (int, bool) {
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		switch {
		case at.Before(bt):
			return -1, true
		case at.After(bt):
			return 1, true
		default:
			return 0, true
		}
	}
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(as, bs), true
	}
	if ab, ok := a.(bool); ok {
		bb, ok := b.(bool)
		if !ok {
			return 0, false
		}
		if ab == bb {
			return 0, true
		}
		if !ab {
			return -1, true
		}
		return 1, true
	}

	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return 0, false
	}
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	default:
		return 0, true
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// evaluate applies a specification to a snapshot of products in the
// fixed order filter, sort, paging. Paged results always carry an
// ascending identity tie-break so pages are disjoint and exhaustive.
func evaluate(items []*product.Product, spec specification.Specification) []*product.Product {
	var out []*product.Product
	for _, p := range items {
		if matches(p, spec.Criteria()) {
			out = append(out, p)
		}
	}

	if s := spec.Sort(); s != nil {
		sort.SliceStable(out, func(i, j int) bool {
			cmp, ok := compare(fieldValue(out[i], s.Field), fieldValue(out[j], s.Field))
			if !ok || cmp == 0 {
				return out[i].ID < out[j].ID
			}
			if s.Desc {
				return cmp > 0
			}
			return cmp < 0
		})
	} else {
		// Unordered reads still come out in identity order, matching
		// the SQL evaluator's tie-break.
		sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	}

	if spec.PagingEnabled() {
		skip, take := spec.Skip(), spec.Take()
		if skip >= len(out) {
			return nil
		}
		out = out[skip:]
		if take < len(out) {
			out = out[:take]
		}
	}
	return out
}
