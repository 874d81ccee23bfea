package memory

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shopfabrik/catalog/events"
	apperrors "github.com/shopfabrik/catalog/pkg/errors"
	"github.com/shopfabrik/catalog/product"
	"github.com/shopfabrik/catalog/repository"
)

var _ repository.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWork commits staged changes into the in-memory store. It
// mirrors the SQL unit of work's sequencing so tests exercise the
// same commit, invalidation and dispatch ordering.
type UnitOfWork struct {
	store        *Store
	tracker      *repository.ChangeTracker
	dispatcher   events.Dispatcher
	invalidators []repository.Invalidator
	logger       *zap.Logger
}

// NewUnitOfWork creates a unit of work over the given store.
func NewUnitOfWork(store *Store, tracker *repository.ChangeTracker, dispatcher events.Dispatcher, logger *zap.Logger) *UnitOfWork {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UnitOfWork{
		store:      store,
		tracker:    tracker,
		dispatcher: dispatcher,
		logger:     logger.Named("memory.uow"),
	}
}

// Tracker returns the change tracker shared with the repositories.
func (u *UnitOfWork) Tracker() *repository.ChangeTracker { return u.tracker }

// RegisterInvalidator adds a cache invalidator to run after every
// successful commit.
func (u *UnitOfWork) RegisterInvalidator(inv repository.Invalidator) {
	u.invalidators = append(u.invalidators, inv)
}

// SaveChanges applies all staged changes, clears the staged set, runs
// the registered invalidators concurrently, and dispatches the domain
// events snapshotted before the apply.
func (u *UnitOfWork) SaveChanges(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	changes := u.tracker.Pending()
	if len(changes) == 0 {
		return nil
	}

	var pending []events.DomainEvent
	for _, ch := range changes {
		if rec, ok := ch.Entity.(events.Recorder); ok {
			pending = append(pending, rec.PendingEvents()...)
		}
	}

	for _, ch := range changes {
		p, ok := ch.Entity.(*product.Product)
		if !ok {
			return apperrors.NewInternal("unsupported staged entity", nil)
		}
		switch ch.Kind {
		case repository.ChangeAdd:
			u.store.insert(p)
		case repository.ChangeUpdate:
			if err := u.store.update(p); err != nil {
				return err
			}
		case repository.ChangeDelete:
			u.store.remove(p.ID)
		}
	}

	u.tracker.Clear()
	for _, ch := range changes {
		if rec, ok := ch.Entity.(events.Recorder); ok {
			rec.ClearPendingEvents()
		}
	}

	if len(u.invalidators) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		for _, inv := range u.invalidators {
			inv := inv
			g.Go(func() error {
				return inv.InvalidateCache(gctx)
			})
		}
		if err := g.Wait(); err != nil {
			u.logger.Warn("cache invalidation after commit failed", zap.Error(err))
		}
	}

	if u.dispatcher != nil {
		for _, ev := range pending {
			if err := u.dispatcher.Dispatch(ctx, ev); err != nil {
				return apperrors.Wrap(err, "dispatch committed events")
			}
		}
	}
	return nil
}
