package product

import (
	"testing"
	"time"

	"github.com/shopfabrik/catalog/specification"
)

func TestBuilderFragmentsCommute(t *testing.T) {
	a := NewSpecification().ByCategory("kitchen").OnlyAvailable().Build()
	b := NewSpecification().OnlyAvailable().ByCategory("kitchen").Build()

	if a.CacheKey() != b.CacheKey() {
		t.Fatalf("fragment order changed the specification identity:\n%q\n%q",
			a.CacheKey(), b.CacheKey())
	}
}

func TestBuilderEmptyMatchesAll(t *testing.T) {
	spec := NewSpecification().Build()
	if spec.Criteria() != nil {
		t.Fatalf("empty builder produced criteria %#v", spec.Criteria())
	}
	if spec.PagingEnabled() {
		t.Fatal("empty builder enabled paging")
	}
}

func TestBySearchTermSpansThreeFields(t *testing.T) {
	spec := NewSpecification().BySearchTerm("mill").Build()
	or, ok := spec.Criteria().(specification.Or)
	if !ok {
		t.Fatalf("criteria = %#v, want Or", spec.Criteria())
	}
	if len(or.Terms) != 3 {
		t.Fatalf("search term spans %d fields, want 3", len(or.Terms))
	}
	fields := map[string]bool{}
	for _, term := range or.Terms {
		contains, ok := term.(specification.FieldContains)
		if !ok || contains.Substr != "mill" {
			t.Fatalf("term = %#v, want FieldContains with substr mill", term)
		}
		fields[contains.Field] = true
	}
	for _, f := range []string{FieldName, FieldDescription, FieldCategory} {
		if !fields[f] {
			t.Fatalf("search term does not cover %s", f)
		}
	}
}

func TestBuilderSearchTermAndsWithOtherFragments(t *testing.T) {
	spec := NewSpecification().BySearchTerm("mill").ByCategory("kitchen").Build()
	and, ok := spec.Criteria().(specification.And)
	if !ok || len(and.Terms) != 2 {
		t.Fatalf("criteria = %#v, want a 2-term And", spec.Criteria())
	}
}

func TestBuilderOrderingLastWriteWins(t *testing.T) {
	spec := NewSpecification().OrderBy(FieldName).OrderByDescending(FieldPrice).Build()
	s := spec.Sort()
	if s == nil || s.Field != FieldPrice || !s.Desc {
		t.Fatalf("sort = %+v, want price descending", s)
	}
}

func TestBuilderRecentlyUpdatedIsOpenEnded(t *testing.T) {
	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	spec := NewSpecification().RecentlyUpdated(since).Build()
	rng, ok := spec.Criteria().(specification.FieldRange)
	if !ok {
		t.Fatalf("criteria = %#v, want FieldRange", spec.Criteria())
	}
	if rng.Field != FieldUpdatedAt || rng.Min == nil || rng.Max != nil {
		t.Fatalf("range = %#v, want open-ended updated_at minimum", rng)
	}
}

func TestBuildIsRepeatable(t *testing.T) {
	b := NewSpecification().ByCategory("kitchen")
	first := b.Build()
	b.OnlyAvailable()
	second := b.Build()

	if first.CacheKey() == second.CacheKey() {
		t.Fatal("later fragments leaked into the earlier build")
	}
	if _, ok := first.Criteria().(specification.FieldEquals); !ok {
		t.Fatalf("first build criteria = %#v, want the single category fragment", first.Criteria())
	}
}
