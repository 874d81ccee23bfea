package storage

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shopfabrik/catalog/events"
	apperrors "github.com/shopfabrik/catalog/pkg/errors"
	"github.com/shopfabrik/catalog/repository"
)

var _ repository.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWork owns the transaction boundary for the SQL store. Staged
// changes are applied atomically, then registered cache invalidators
// run, then domain events raised by the committed aggregates are
// dispatched.
type UnitOfWork struct {
	db           *bun.DB
	tracker      *repository.ChangeTracker
	dispatcher   events.Dispatcher
	invalidators []repository.Invalidator
	logger       *zap.Logger
}

// NewUnitOfWork creates a unit of work over the given database. The
// tracker is shared with the repositories that stage writes into it.
func NewUnitOfWork(db *bun.DB, tracker *repository.ChangeTracker, dispatcher events.Dispatcher, logger *zap.Logger) *UnitOfWork {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UnitOfWork{
		db:         db,
		tracker:    tracker,
		dispatcher: dispatcher,
		logger:     logger.Named("storage.uow"),
	}
}

// Tracker returns the change tracker shared with the repositories.
func (u *UnitOfWork) Tracker() *repository.ChangeTracker { return u.tracker }

// RegisterInvalidator adds a cache invalidator to run after every
// successful commit.
func (u *UnitOfWork) RegisterInvalidator(inv repository.Invalidator) {
	u.invalidators = append(u.invalidators, inv)
}

// SaveChanges commits all staged changes in one transaction. On
// success the staged set is cleared, registered invalidators run
// concurrently, and the domain events snapshotted before the commit
// are dispatched. An invalidation failure is logged and does not fail
// the commit; a dispatch failure is reported after the state change
// already took effect.
func (u *UnitOfWork) SaveChanges(ctx context.Context) error {
	changes := u.tracker.Pending()
	if len(changes) == 0 {
		return nil
	}

	pending := snapshotEvents(changes)

	err := u.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, ch := range changes {
			if err := applyChange(ctx, tx, ch); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.NewInternal("commit staged changes", err)
	}

	u.tracker.Clear()
	clearRecorded(changes)
	u.runInvalidators(ctx)

	if derr := u.dispatch(ctx, pending); derr != nil {
		return derr
	}
	return nil
}

func applyChange(ctx context.Context, tx bun.Tx, ch repository.Change) error {
	switch ch.Kind {
	case repository.ChangeAdd:
		_, err := tx.NewInsert().Model(ch.Entity).Exec(ctx)
		return err
	case repository.ChangeUpdate:
		_, err := tx.NewUpdate().Model(ch.Entity).WherePK().Exec(ctx)
		return err
	case repository.ChangeDelete:
		_, err := tx.NewDelete().Model(ch.Entity).WherePK().Exec(ctx)
		return err
	}
	return nil
}

// runInvalidators fans the registered invalidators out concurrently.
// Failures are soft: readers fall back to the store on a stale miss.
func (u *UnitOfWork) runInvalidators(ctx context.Context) {
	if len(u.invalidators) == 0 {
		return
	}
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

func (u *UnitOfWork) dispatch(ctx context.Context, pending []events.DomainEvent) error {
	if u.dispatcher == nil || len(pending) == 0 {
		return nil
	}
	for _, ev := range pending {
		if err := u.dispatcher.Dispatch(ctx, ev); err != nil {
			u.logger.Error("event dispatch after commit failed",
				zap.String("event_type", ev.EventType()),
				zap.Error(err),
			)
			return apperrors.Wrap(err, "dispatch committed events")
		}
	}
	return nil
}

// snapshotEvents collects the pending domain events of every staged
// aggregate before the commit runs.
func snapshotEvents(changes []repository.Change) []events.DomainEvent {
	var out []events.DomainEvent
	for _, ch := range changes {
		if rec, ok := ch.Entity.(events.Recorder); ok {
			out = append(out, rec.PendingEvents()...)
		}
	}
	return out
}

func clearRecorded(changes []repository.Change) {
	for _, ch := range changes {
		if rec, ok := ch.Entity.(events.Recorder); ok {
			rec.ClearPendingEvents()
		}
	}
}
