package storage

import (
	"strings"

	"github.com/uptrace/bun"

	"github.com/shopfabrik/catalog/specification"
)

// tieBreakColumn keeps paged result order deterministic when the
// specification itself does not pin one down.
const tieBreakColumn = "id"

// ApplySpecification translates a specification onto a bun select
// query, applying filter, ordering and paging in that fixed order.
// Paging always gets a primary-key tie-break appended so page
// boundaries stay meaningful across repeated calls.
func ApplySpecification(q *bun.SelectQuery, spec specification.Specification) *bun.SelectQuery {
	if c := spec.Criteria(); c != nil {
		q = applyCriteria(q, c)
	}

	for _, rel := range spec.Includes() {
		q = q.Relation(rel)
	}

	sort := spec.Sort()
	if sort != nil {
		dir := "ASC"
		if sort.Desc {
			dir = "DESC"
		}
		q = q.OrderExpr("? ?", bun.Ident(sort.Field), bun.Safe(dir))
	}

	if spec.PagingEnabled() {
		if sort == nil || sort.Field != tieBreakColumn {
			q = q.OrderExpr("? ASC", bun.Ident(tieBreakColumn))
		}
		q = q.Limit(spec.Take()).Offset(spec.Skip())
	}

	return q
}

// ApplyCriteria translates only the filter half of a specification.
// Count queries use this so paging never affects totals.
func ApplyCriteria(q *bun.SelectQuery, spec specification.Specification) *bun.SelectQuery {
	if c := spec.Criteria(); c != nil {
		q = applyCriteria(q, c)
	}
	return q
}

func applyCriteria(q *bun.SelectQuery, c specification.Criteria) *bun.SelectQuery {
	switch cr := c.(type) {
	case specification.And:
		for _, term := range cr.Terms {
			if term != nil {
				q = applyCriteria(q, term)
			}
		}
	case specification.Or:
		q = q.WhereGroup(" AND ", func(group *bun.SelectQuery) *bun.SelectQuery {
			for _, term := range cr.Terms {
				if term == nil {
					continue
				}
				t := term
				group = group.WhereGroup(" OR ", func(inner *bun.SelectQuery) *bun.SelectQuery {
					return applyCriteria(inner, t)
				})
			}
			return group
		})
	case specification.FieldEquals:
		q = q.Where("? = ?", bun.Ident(cr.Field), cr.Value)
	case specification.FieldRange:
		if cr.Min != nil {
			q = q.Where("? >= ?", bun.Ident(cr.Field), cr.Min)
		}
		if cr.Max != nil {
			q = q.Where("? <= ?", bun.Ident(cr.Field), cr.Max)
		}
	case specification.FieldContains:
		// Substring containment compiles to LIKE; case behavior
		// follows the database collation.
		q = q.Where("? LIKE ? ESCAPE '\\'", bun.Ident(cr.Field), "%"+escapeLike(cr.Substr)+"%")
	}
	return q
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
