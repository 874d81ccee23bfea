package repository

import (
	"context"

	"github.com/shopfabrik/catalog/specification"
)

// Page is a paginated result with navigation metadata.
type Page[T any] struct {
	Items           []*T `json:"items"`
	PageNumber      int  `json:"page_number"`
	PageSize        int  `json:"page_size"`
	TotalCount      int  `json:"total_count"`
	TotalPages      int  `json:"total_pages"`
	HasNextPage     bool `json:"has_next_page"`
	HasPreviousPage bool `json:"has_previous_page"`
}

// Paginate runs a paged query: a Count over the bare criteria (paging
// never affects counts) plus a List over the same specification with
// the requested window applied. Non-positive page numbers and sizes
// are clamped to 1, mirroring the specification builder.
func Paginate[T any](
	ctx context.Context,
	repo Repository[T],
	spec specification.Specification,
	pageNumber, pageSize int,
) (*Page[T], error) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}

	total, err := repo.Count(ctx, spec)
	if err != nil {
		return nil, err
	}

	paged := specification.New(
		specification.WithCriteria(spec.Criteria()),
		sortOption(spec),
		specification.WithPaging(pageNumber, pageSize),
	)

	items, err := repo.List(ctx, paged)
	if err != nil {
		return nil, err
	}

	totalPages := (total + pageSize - 1) / pageSize
	return &Page[T]{
		Items:           items,
		PageNumber:      pageNumber,
		PageSize:        pageSize,
		TotalCount:      total,
		TotalPages:      totalPages,
		HasNextPage:     pageNumber < totalPages,
		HasPreviousPage: pageNumber > 1,
	}, nil
}

func sortOption(spec specification.Specification) specification.Option {
	s := spec.Sort()
	switch {
	case s == nil:
		return func(*specification.Specification) {}
	case s.Desc:
		return specification.WithOrderByDescending(s.Field)
	default:
		return specification.WithOrderBy(s.Field)
	}
}
