package product

import (
	"time"

	"github.com/shopfabrik/catalog/specification"
)

// SpecificationBuilder composes product query specifications from
// filter fragments. Fragments AND-combine and commute: applying
// ByCategory then ByPriceRange yields the same specification identity
// as the reverse order. Ordering is last-write-wins: OrderBy after
// OrderByDescending silently replaces it, and vice versa.
type SpecificationBuilder struct {
	criteria []specification.Criteria
	sortOpt  specification.Option
	pageOpt  specification.Option
	includes []string
}

// NewSpecification starts an empty builder that matches all products.
func NewSpecification() *SpecificationBuilder {
	return &SpecificationBuilder{}
}

// ByCategory keeps products in the exact category.
func (b *SpecificationBuilder) ByCategory(category string) *SpecificationBuilder {
	b.criteria = append(b.criteria, specification.FieldEquals{Field: FieldCategory, Value: category})
	return b
}

// ByName keeps products with the exact name.
func (b *SpecificationBuilder) ByName(name string) *SpecificationBuilder {
	b.criteria = append(b.criteria, specification.FieldEquals{Field: FieldName, Value: name})
	return b
}

// BySearchTerm keeps products whose name, description or category
// contains the term (case-sensitive substring, OR across the three
// fields, AND against every other fragment).
func (b *SpecificationBuilder) BySearchTerm(term string) *SpecificationBuilder {
	b.criteria = append(b.criteria, specification.Or{Terms: []specification.Criteria{
		specification.FieldContains{Field: FieldName, Substr: term},
		specification.FieldContains{Field: FieldDescription, Substr: term},
		specification.FieldContains{Field: FieldCategory, Substr: term},
	}})
	return b
}

// ByPriceRange keeps products priced inside [min, max] inclusive.
func (b *SpecificationBuilder) ByPriceRange(min, max float64) *SpecificationBuilder {
	b.criteria = append(b.criteria, specification.FieldRange{Field: FieldPrice, Min: min, Max: max})
	return b
}

// OnlyAvailable keeps purchasable products.
func (b *SpecificationBuilder) OnlyAvailable() *SpecificationBuilder {
	b.criteria = append(b.criteria, specification.FieldEquals{Field: FieldAvailable, Value: true})
	return b
}

// RecentlyUpdated keeps products mutated at or after the given time.
func (b *SpecificationBuilder) RecentlyUpdated(since time.Time) *SpecificationBuilder {
	b.criteria = append(b.criteria, specification.FieldRange{Field: FieldUpdatedAt, Min: since.UTC()})
	return b
}

// OrderBy sorts ascending by field, discarding any previous ordering.
func (b *SpecificationBuilder) OrderBy(field string) *SpecificationBuilder {
	b.sortOpt = specification.WithOrderBy(field)
	return b
}

// OrderByDescending sorts descending by field, discarding any previous
// ordering.
func (b *SpecificationBuilder) OrderByDescending(field string) *SpecificationBuilder {
	b.sortOpt = specification.WithOrderByDescending(field)
	return b
}

// WithPaging applies an offset/limit window. Non-positive page numbers
// or sizes are clamped to 1.
func (b *SpecificationBuilder) WithPaging(pageNumber, pageSize int) *SpecificationBuilder {
	b.pageOpt = specification.WithPaging(pageNumber, pageSize)
	return b
}

// WithIncludes records relation names for the evaluator to eager-load.
func (b *SpecificationBuilder) WithIncludes(relations ...string) *SpecificationBuilder {
	b.includes = append(b.includes, relations...)
	return b
}

// Build produces the immutable specification. The builder can keep
// accumulating fragments afterwards; the returned value is unaffected.
func (b *SpecificationBuilder) Build() specification.Specification {
	opts := []specification.Option{
		specification.WithCriteria(specification.AndAll(b.criteria...)),
	}
	if b.sortOpt != nil {
		opts = append(opts, b.sortOpt)
	}
	if b.pageOpt != nil {
		opts = append(opts, b.pageOpt)
	}
	if len(b.includes) > 0 {
		opts = append(opts, specification.WithIncludes(b.includes...))
	}
	return specification.New(opts...)
}
