// Package service implements the catalog application service: the
// command and query surface callers use instead of touching the
// repositories directly. Commands stage their writes and commit
// through the unit of work; queries run through the cached repository.
// Every operation returns a structured Result envelope.
package service

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	apperrors "github.com/shopfabrik/catalog/pkg/errors"
	"github.com/shopfabrik/catalog/product"
	"github.com/shopfabrik/catalog/repository"
)

// ProductService orchestrates catalog use cases over the cached
// repository and the unit of work.
type ProductService struct {
	products repository.ProductRepository
	uow      repository.UnitOfWork
	logger   *zap.Logger
}

// NewProductService creates the catalog application service.
func NewProductService(products repository.ProductRepository, uow repository.UnitOfWork, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		products: products,
		uow:      uow,
		logger:   logger.Named("service.products"),
	}
}

// Create validates and persists a new product. The name must be unique
// within the catalog.
func (s *ProductService) Create(ctx context.Context, name, description string, priceAmount float64, currency, category string) apperrors.Result[*product.Product] {
	price, err := product.NewMoney(priceAmount, currency)
	if err != nil {
		return apperrors.Fail[*product.Product]("invalid price", err)
	}

	existing, err := s.products.GetByName(ctx, name)
	if err != nil {
		return apperrors.Fail[*product.Product]("could not check name uniqueness", err)
	}
	if existing != nil {
		return apperrors.Fail[*product.Product]("product name already in use",
			apperrors.NewConflict(fmt.Sprintf("a product named %q already exists", name)))
	}

	p, err := product.New(name, description, price, category)
	if err != nil {
		return apperrors.Fail[*product.Product]("invalid product", err)
	}

	if err := s.products.Add(ctx, p); err != nil {
		return apperrors.Fail[*product.Product]("could not stage product", err)
	}
	if err := s.uow.SaveChanges(ctx); err != nil {
		return s.afterCommit(p, err, "product created, event dispatch failed")
	}

	s.logger.Info("product created", zap.Int64("id", p.ID), zap.String("name", p.Name))
	return apperrors.Ok(p)
}

// UpdateDetails changes a product's name, description and category.
func (s *ProductService) UpdateDetails(ctx context.Context, id int64, name, description, category string) apperrors.Result[*product.Product] {
	return s.mutate(ctx, id, "product details updated", func(p *product.Product) error {
		return p.UpdateDetails(name, description, category)
	})
}

// Reprice changes a product's price.
func (s *ProductService) Reprice(ctx context.Context, id int64, amount float64, currency string) apperrors.Result[*product.Product] {
	return s.mutate(ctx, id, "product repriced", func(p *product.Product) error {
		price, err := product.NewMoney(amount, currency)
		if err != nil {
			return err
		}
		return p.Reprice(price)
	})
}

// ChangeImage swaps a product's image reference.
func (s *ProductService) ChangeImage(ctx context.Context, id int64, path string) apperrors.Result[*product.Product] {
	return s.mutate(ctx, id, "product image changed", func(p *product.Product) error {
		p.ChangeImage(path)
		return nil
	})
}

// SetAvailability toggles whether a product is purchasable.
func (s *ProductService) SetAvailability(ctx context.Context, id int64, available bool) apperrors.Result[*product.Product] {
	return s.mutate(ctx, id, "product availability changed", func(p *product.Product) error {
		p.SetAvailability(available)
		return nil
	})
}

// Delete removes a product from the catalog.
func (s *ProductService) Delete(ctx context.Context, id int64) apperrors.Result[bool] {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return apperrors.Fail[bool]("could not load product", err)
	}
	if p == nil {
		return apperrors.Fail[bool]("product not found",
			apperrors.NewNotFound(fmt.Sprintf("no product with id %d", id)))
	}

	if err := s.products.Delete(ctx, p); err != nil {
		return apperrors.Fail[bool]("could not stage delete", err)
	}
	if err := s.uow.SaveChanges(ctx); err != nil {
		if apperrors.IsEventDispatch(err) {
			s.logger.Warn("product deleted, event dispatch failed",
				zap.Int64("id", id), zap.Error(err))
			return apperrors.OkMessage(true, "product deleted, event dispatch failed")
		}
		return apperrors.Fail[bool]("could not commit delete", err)
	}

	s.logger.Info("product deleted", zap.Int64("id", id))
	return apperrors.Ok(true)
}

// Get returns the product with the given identity.
func (s *ProductService) Get(ctx context.Context, id int64) apperrors.Result[*product.Product] {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return apperrors.Fail[*product.Product]("could not load product", err)
	}
	if p == nil {
		return apperrors.Fail[*product.Product]("product not found",
			apperrors.NewNotFound(fmt.Sprintf("no product with id %d", id)))
	}
	return apperrors.Ok(p)
}

// GetByName returns the product with the exact name.
func (s *ProductService) GetByName(ctx context.Context, name string) apperrors.Result[*product.Product] {
	p, err := s.products.GetByName(ctx, name)
	if err != nil {
		return apperrors.Fail[*product.Product]("could not load product", err)
	}
	if p == nil {
		return apperrors.Fail[*product.Product]("product not found",
			apperrors.NewNotFound(fmt.Sprintf("no product named %q", name)))
	}
	return apperrors.Ok(p)
}

// SearchQuery describes a catalog search: optional filter fragments
// AND-composed into one specification.
type SearchQuery struct {
	Term          string
	Category      string
	MinPrice      *float64
	MaxPrice      *float64
	OnlyAvailable bool
	SortBy        string
	SortDesc      bool
}

// Search lists products matching the query, unpaged.
func (s *ProductService) Search(ctx context.Context, q SearchQuery) apperrors.Result[[]*product.Product] {
	ps, err := s.products.List(ctx, buildSearch(q).Build())
	if err != nil {
		return apperrors.Fail[[]*product.Product]("search failed", err)
	}
	return apperrors.Ok(ps)
}

// GetPagedProducts lists products matching the query, one page at a
// time with navigation metadata.
func (s *ProductService) GetPagedProducts(ctx context.Context, q SearchQuery, pageNumber, pageSize int) apperrors.Result[*repository.Page[product.Product]] {
	page, err := repository.Paginate[product.Product](ctx, s.products, buildSearch(q).Build(), pageNumber, pageSize)
	if err != nil {
		return apperrors.Fail[*repository.Page[product.Product]]("paged query failed", err)
	}
	return apperrors.Ok(page)
}

func buildSearch(q SearchQuery) *product.SpecificationBuilder {
	b := product.NewSpecification()
	if q.Term != "" {
		b = b.BySearchTerm(q.Term)
	}
	if q.Category != "" {
		b = b.ByCategory(q.Category)
	}
	if q.MinPrice != nil || q.MaxPrice != nil {
		min, max := 0.0, math.MaxFloat64
		if q.MinPrice != nil {
			min = *q.MinPrice
		}
		if q.MaxPrice != nil {
			max = *q.MaxPrice
		}
		b = b.ByPriceRange(min, max)
	}
	if q.OnlyAvailable {
		b = b.OnlyAvailable()
	}
	if q.SortBy != "" {
		if q.SortDesc {
			b = b.OrderByDescending(q.SortBy)
		} else {
			b = b.OrderBy(q.SortBy)
		}
	}
	return b
}

// mutate loads, mutates and commits a product in one flow shared by
// the command methods.
func (s *ProductService) mutate(ctx context.Context, id int64, done string, fn func(*product.Product) error) apperrors.Result[*product.Product] {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return apperrors.Fail[*product.Product]("could not load product", err)
	}
	if p == nil {
		return apperrors.Fail[*product.Product]("product not found",
			apperrors.NewNotFound(fmt.Sprintf("no product with id %d", id)))
	}

	if err := fn(p); err != nil {
		return apperrors.Fail[*product.Product]("invalid change", err)
	}
	if err := s.products.Update(ctx, p); err != nil {
		return apperrors.Fail[*product.Product]("could not stage change", err)
	}
	if err := s.uow.SaveChanges(ctx); err != nil {
		return s.afterCommit(p, err, done+", event dispatch failed")
	}

	s.logger.Info(done, zap.Int64("id", p.ID))
	return apperrors.Ok(p)
}

// afterCommit disambiguates commit failures from post-commit dispatch
// failures: the latter leave the write in place, so the mutated
// product is still returned with a warning message.
func (s *ProductService) afterCommit(p *product.Product, err error, warn string) apperrors.Result[*product.Product] {
	if apperrors.IsEventDispatch(err) {
		s.logger.Warn(warn, zap.Int64("id", p.ID), zap.Error(err))
		return apperrors.OkMessage(p, warn)
	}
	return apperrors.Fail[*product.Product]("could not commit change", err)
}
