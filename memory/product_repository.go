package memory

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/shopfabrik/catalog/product"
	apperrors "github.com/shopfabrik/catalog/pkg/errors"
	"github.com/shopfabrik/catalog/repository"
	"github.com/shopfabrik/catalog/specification"
)

var _ repository.ProductRepository = (*ProductRepository)(nil)

// Store is an in-memory product table guarded by a mutex. It hands out
// clones so callers never alias stored state, and assigns identities
// the way an autoincrement column would.
type Store struct {
	mu     sync.RWMutex
	items  map[int64]*product.Product
	nextID int64
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{items: make(map[int64]*product.Product), nextID: 1}
}

func (s *Store) snapshot() []*product.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*product.Product, 0, len(s.items))
	for _, p := range s.items {
		out = append(out, p)
	}
	return out
}

func (s *Store) insert(p *product.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.nextID
		s.nextID++
	} else if p.ID >= s.nextID {
		s.nextID = p.ID + 1
	}
	s.items[p.ID] = p.Clone()
}

func (s *Store) update(p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[p.ID]; !ok {
		return apperrors.NewNotFound("product to update does not exist")
	}
	s.items[p.ID] = p.Clone()
	return nil
}

func (s *Store) remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

// ProductRepository evaluates specifications against an in-memory
// store. Writes are staged into the shared change tracker and applied
// by the in-memory unit of work.
type ProductRepository struct {
	store   *Store
	tracker *repository.ChangeTracker
	logger  *zap.Logger
}

// NewProductRepository creates the in-memory base repository over the
// given store.
func NewProductRepository(store *Store, tracker *repository.ChangeTracker, logger *zap.Logger) *ProductRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductRepository{
		store:   store,
		tracker: tracker,
		logger:  logger.Named("memory.products"),
	}
}

// GetBySpec returns the first product matching the specification, or
// (nil, nil) when nothing matches.
func (r *ProductRepository) GetBySpec(ctx context.Context, spec specification.Specification) (*product.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := evaluate(r.store.snapshot(), spec)
	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Clone(), nil
}

// List returns all matching products in specification order.
func (r *ProductRepository) List(ctx context.Context, spec specification.Specification) ([]*product.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matched := evaluate(r.store.snapshot(), spec)
	out := make([]*product.Product, len(matched))
	for i, p := range matched {
		out[i] = p.Clone()
	}
	return out, nil
}

// Count returns the number of products matching the filter criteria.
// Paging on the specification is ignored.
func (r *ProductRepository) Count(ctx context.Context, spec specification.Specification) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n := 0
	for _, p := range r.store.snapshot() {
		if matches(p, spec.Criteria()) {
			n++
		}
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
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return p != nil, nil
}

// Add stages an insert.
func (r *ProductRepository) Add(ctx context.Context, p *product.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.tracker.Stage(repository.ChangeAdd, p)
	return nil
}

// Update stages an update.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.ID == 0 {
		return apperrors.NewValidation("cannot update a product without identity")
	}
	r.tracker.Stage(repository.ChangeUpdate, p)
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
	return nil
}
