package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/shopfabrik/catalog/product"
	apperrors "github.com/shopfabrik/catalog/pkg/errors"
	"github.com/shopfabrik/catalog/repository"
	"github.com/shopfabrik/catalog/specification"
)

// Interface assertion: the bun repository satisfies the product contract.
var _ repository.ProductRepository = (*ProductRepository)(nil)

// ProductRepository is the SQL base repository. Reads evaluate
// specifications against the database; writes are staged into the
// shared change tracker and committed by the unit of work.
type ProductRepository struct {
	db      bun.IDB
	tracker *repository.ChangeTracker
	logger  *zap.Logger
}

// NewProductRepository creates the base SQL repository. The tracker is
// shared with the unit of work owning the transaction boundary.
func NewProductRepository(db bun.IDB, tracker *repository.ChangeTracker, logger *zap.Logger) *ProductRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductRepository{
		db:      db,
		tracker: tracker,
		logger:  logger.Named("storage.products"),
	}
}

// GetBySpec returns the first product matching the specification, or
// (nil, nil) when nothing matches.
func (r *ProductRepository) GetBySpec(ctx context.Context, spec specification.Specification) (*product.Product, error) {
	p := new(product.Product)
	q := ApplySpecification(r.db.NewSelect().Model(p), spec)
	if err := q.Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewInternal("query product by specification", err)
	}
	return p, nil
}

// List returns all matching products in specification order.
func (r *ProductRepository) List(ctx context.Context, spec specification.Specification) ([]*product.Product, error) {
	var ps []*product.Product
	q := ApplySpecification(r.db.NewSelect().Model(&ps), spec)
	if err := q.Scan(ctx); err != nil {
		return nil, apperrors.NewInternal("list products by specification", err)
	}
	return ps, nil
}

// Count returns the number of products matching the filter criteria.
// Paging on the specification is ignored.
func (r *ProductRepository) Count(ctx context.Context, spec specification.Specification) (int, error) {
	q := ApplyCriteria(r.db.NewSelect().Model((*product.Product)(nil)), spec)
	n, err := q.Count(ctx)
	if err != nil {
		return 0, apperrors.NewInternal("count products by specification", err)
	}
	return n, nil
}

// GetAll returns every product.
func (r *ProductRepository) GetAll(ctx context.Context) ([]*product.Product, error) {
	return r.List(ctx, specification.New())
}

// GetByID returns the product with the given identity, or (nil, nil).
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	return r.GetBySpec(ctx, specification.New(
		specification.WithCriteria(specification.FieldEquals{Field: product.FieldID, Value: id}),
	))
}

// GetByCategory returns all products in the exact category.
func (r *ProductRepository) GetByCategory(ctx context.Context, category string) ([]*product.Product, error) {
	return r.List(ctx, product.NewSpecification().ByCategory(category).Build())
}

// GetByName returns the product with the exact name, or (nil, nil).
func (r *ProductRepository) GetByName(ctx context.Context, name string) (*product.Product, error) {
	return r.GetBySpec(ctx, product.NewSpecification().ByName(name).Build())
}

// Exists reports whether a product with the given identity exists.
func (r *ProductRepository) Exists(ctx context.Context, id int64) (bool, error) {
	n, err := r.Count(ctx, specification.New(
		specification.WithCriteria(specification.FieldEquals{Field: product.FieldID, Value: id}),
	))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Add stages an insert. The identity is assigned when the unit of work
// commits.
func (r *ProductRepository) Add(ctx context.Context, p *product.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.tracker.Stage(repository.ChangeAdd, p)
	r.logger.Debug("staged insert", zap.String("name", p.Name))
	return nil
}

// Update stages an update of the whole aggregate row.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.ID == 0 {
		return apperrors.NewValidation("cannot update a product without identity")
	}
	r.tracker.Stage(repository.ChangeUpdate, p)
	r.logger.Debug("staged update", zap.Int64("id", p.ID))
	return nil
}

// Delete stages a hard delete.
func (r *ProductRepository) Delete(ctx context.Context, p *product.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.ID == 0 {
		return apperrors.NewValidation("cannot delete a product without identity")
	}
	p.MarkDeleted()
	r.tracker.Stage(repository.ChangeDelete, p)
	r.logger.Debug("staged delete", zap.Int64("id", p.ID))
	return nil
}
