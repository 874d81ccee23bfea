package storage

import (
	"strings"
	"testing"

	"github.com/uptrace/bun"

	"github.com/shopfabrik/catalog/product"
	"github.com/shopfabrik/catalog/specification"
)

// testDB opens a lazily-connected sqlite handle. The tests only render
// SQL strings, so no connection is ever established.
func testDB(t *testing.T) *bun.DB {
	t.Helper()
	db, err := OpenSQLite("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func render(t *testing.T, spec specification.Specification) string {
	t.Helper()
	db := testDB(t)
	q := ApplySpecification(db.NewSelect().Model((*product.Product)(nil)), spec)
	return q.String()
}

func TestEqualsRendersWhere(t *testing.T) {
	sql := render(t, specification.New(
		specification.WithCriteria(specification.FieldEquals{Field: product.FieldCategory, Value: "kitchen"}),
	))
	if !strings.Contains(sql, `"category" = 'kitchen'`) {
		t.Fatalf("sql = %s", sql)
	}
}

func TestRangeRendersInclusiveBounds(t *testing.T) {
	sql := render(t, specification.New(
		specification.WithCriteria(specification.FieldRange{Field: product.FieldPrice, Min: 10.0, Max: 50.0}),
	))
	if !strings.Contains(sql, `"price_amount" >= 10`) || !strings.Contains(sql, `"price_amount" <= 50`) {
		t.Fatalf("sql = %s", sql)
	}
}

func TestRangeOpenBoundOmitsClause(t *testing.T) {
	sql := render(t, specification.New(
		specification.WithCriteria(specification.FieldRange{Field: product.FieldPrice, Min: 10.0}),
	))
	if !strings.Contains(sql, ">=") {
		t.Fatalf("sql = %s", sql)
	}
	if strings.Contains(sql, "<=") {
		t.Fatalf("open max bound rendered a clause: %s", sql)
	}
}

func TestContainsEscapesWildcards(t *testing.T) {
	sql := render(t, specification.New(
		specification.WithCriteria(specification.FieldContains{Field: product.FieldName, Substr: "50%_off"}),
	))
	if !strings.Contains(sql, `LIKE`) {
		t.Fatalf("sql = %s", sql)
	}
	if !strings.Contains(sql, `\%`) || !strings.Contains(sql, `\_`) {
		t.Fatalf("wildcards not escaped: %s", sql)
	}
}

func TestOrRendersGroupedDisjunction(t *testing.T) {
	sql := render(t, specification.New(
		specification.WithCriteria(specification.Or{Terms: []specification.Criteria{
			specification.FieldContains{Field: product.FieldName, Substr: "mill"},
			specification.FieldContains{Field: product.FieldDescription, Substr: "mill"},
		}}),
	))
	if !strings.Contains(sql, " OR ") {
		t.Fatalf("sql = %s", sql)
	}
	// The disjunction must be parenthesized so surrounding AND terms
	// do not capture a single branch.
	if !strings.Contains(sql, "((") {
		t.Fatalf("disjunction not grouped: %s", sql)
	}
}

func TestAndTermsAllRender(t *testing.T) {
	sql := render(t, specification.New(
		specification.WithCriteria(specification.FieldEquals{Field: product.FieldCategory, Value: "kitchen"}),
		specification.WithCriteria(specification.FieldEquals{Field: product.FieldAvailable, Value: true}),
	))
	if !strings.Contains(sql, `"category" = 'kitchen'`) || !strings.Contains(sql, `"available" = `) {
		t.Fatalf("sql = %s", sql)
	}
	if !strings.Contains(sql, " AND ") {
		t.Fatalf("terms not conjoined: %s", sql)
	}
}

func TestOrderingRenders(t *testing.T) {
	asc := render(t, specification.New(specification.WithOrderBy(product.FieldName)))
	if !strings.Contains(asc, `ORDER BY "name" ASC`) {
		t.Fatalf("sql = %s", asc)
	}
	desc := render(t, specification.New(specification.WithOrderByDescending(product.FieldPrice)))
	if !strings.Contains(desc, `ORDER BY "price_amount" DESC`) {
		t.Fatalf("sql = %s", desc)
	}
}

func TestPagingAppendsTieBreak(t *testing.T) {
	sql := render(t, specification.New(
		specification.WithOrderBy(product.FieldPrice),
		specification.WithPaging(2, 10),
	))
	if !strings.Contains(sql, `"price_amount" ASC`) || !strings.Contains(sql, `"id" ASC`) {
		t.Fatalf("tie-break missing: %s", sql)
	}
	if !strings.Contains(sql, "LIMIT 10") || !strings.Contains(sql, "OFFSET 10") {
		t.Fatalf("paging window wrong: %s", sql)
	}
}

func TestPagingWithoutSortOrdersByIdentity(t *testing.T) {
	sql := render(t, specification.New(specification.WithPaging(1, 5)))
	if !strings.Contains(sql, `ORDER BY "id" ASC`) {
		t.Fatalf("identity ordering missing: %s", sql)
	}
	if strings.Count(sql, `"id" ASC`) != 1 {
		t.Fatalf("tie-break duplicated: %s", sql)
	}
}

func TestPagingOnIdentitySortSkipsTieBreak(t *testing.T) {
	sql := render(t, specification.New(
		specification.WithOrderBy(product.FieldID),
		specification.WithPaging(1, 5),
	))
	if strings.Count(sql, `"id" ASC`) != 1 {
		t.Fatalf("identity sort doubled: %s", sql)
	}
}

func TestUnpagedQueryHasNoLimit(t *testing.T) {
	sql := render(t, specification.New(
		specification.WithCriteria(specification.FieldEquals{Field: product.FieldCategory, Value: "kitchen"}),
	))
	if strings.Contains(sql, "LIMIT") || strings.Contains(sql, "OFFSET") {
		t.Fatalf("unpaged query carries a window: %s", sql)
	}
}

func TestApplyCriteriaIgnoresPagingAndSort(t *testing.T) {
	db := testDB(t)
	spec := specification.New(
		specification.WithCriteria(specification.FieldEquals{Field: product.FieldCategory, Value: "kitchen"}),
		specification.WithOrderBy(product.FieldName),
		specification.WithPaging(2, 10),
	)
	sql := ApplyCriteria(db.NewSelect().Model((*product.Product)(nil)), spec).String()
	if !strings.Contains(sql, `"category" = 'kitchen'`) {
		t.Fatalf("filter missing: %s", sql)
	}
	if strings.Contains(sql, "ORDER BY") || strings.Contains(sql, "LIMIT") {
		t.Fatalf("count query carries ordering or paging: %s", sql)
	}
}
