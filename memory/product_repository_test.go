package memory

import (
	"context"
	"testing"

	"github.com/shopfabrik/catalog/events"
	"github.com/shopfabrik/catalog/pkg/testsupport"
	"github.com/shopfabrik/catalog/product"
	"github.com/shopfabrik/catalog/repository"
	"github.com/shopfabrik/catalog/specification"
)

type seedRow struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	PriceAmount   float64 `json:"price_amount"`
	PriceCurrency string  `json:"price_currency"`
}

func seededRepo(t *testing.T) (*ProductRepository, *UnitOfWork) {
	t.Helper()

	store := NewStore()
	tracker := repository.NewChangeTracker()
	repo := NewProductRepository(store, tracker, nil)
	uow := NewUnitOfWork(store, tracker, events.NewBus(nil), nil)

	var rows []seedRow
	testsupport.LoadFixtureJSON(t, "products.json", &rows)

	seeds := make([]*product.Product, 0, len(rows))
	for _, row := range rows {
		price, err := product.NewMoney(row.PriceAmount, row.PriceCurrency)
		if err != nil {
			t.Fatalf("fixture price %s: %v", row.Name, err)
		}
		p, err := product.New(row.Name, row.Description, price, row.Category)
		if err != nil {
			t.Fatalf("fixture product %s: %v", row.Name, err)
		}
		seeds = append(seeds, p)
	}
	testsupport.Seed(t, repo, uow, seeds...)
	return repo, uow
}

func TestStagedWritesInvisibleUntilCommit(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	tracker := repository.NewChangeTracker()
	repo := NewProductRepository(store, tracker, nil)
	uow := NewUnitOfWork(store, tracker, nil, nil)

	p := testsupport.SampleProduct(t, "Espresso Machine", "kitchen", 249.99)
	if err := repo.Add(ctx, p); err != nil {
		t.Fatalf("Add: %v", err)
	}

	all, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("staged insert visible before commit: %d products", len(all))
	}

	if err := uow.SaveChanges(ctx); err != nil {
		t.Fatalf("SaveChanges: %v", err)
	}
	if p.ID == 0 {
		t.Fatal("commit did not assign an identity")
	}

	all, err = repo.GetAll(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("after commit: %d products, err %v", len(all), err)
	}
}

func TestSaveChangesClearsStagedSet(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	tracker := repository.NewChangeTracker()
	repo := NewProductRepository(store, tracker, nil)
	uow := NewUnitOfWork(store, tracker, nil, nil)

	if err := repo.Add(ctx, testsupport.SampleProduct(t, "Knife", "kitchen", 89.50)); err != nil {
		t.Fatal(err)
	}
	if err := uow.SaveChanges(ctx); err != nil {
		t.Fatal(err)
	}
	if tracker.Len() != 0 {
		t.Fatalf("tracker holds %d changes after commit", tracker.Len())
	}

	// A second commit with nothing staged is a no-op.
	if err := uow.SaveChanges(ctx); err != nil {
		t.Fatalf("empty SaveChanges: %v", err)
	}
	all, _ := repo.GetAll(ctx)
	if len(all) != 1 {
		t.Fatalf("no-op commit changed the store: %d products", len(all))
	}
}

func TestGetBySpecAbsentIsNilNil(t *testing.T) {
	repo, _ := seededRepo(t)
	p, err := repo.GetByName(context.Background(), "No Such Product")
	if err != nil {
		t.Fatalf("err = %v, want nil for absence", err)
	}
	if p != nil {
		t.Fatalf("p = %v, want nil", p)
	}
}

func TestCategoryFilter(t *testing.T) {
	repo, _ := seededRepo(t)
	kitchen, err := repo.GetByCategory(context.Background(), "kitchen")
	if err != nil {
		t.Fatal(err)
	}
	if len(kitchen) != 3 {
		t.Fatalf("kitchen = %d products, want 3", len(kitchen))
	}
	for _, p := range kitchen {
		if p.Category != "kitchen" {
			t.Fatalf("filter leaked %s (%s)", p.Name, p.Category)
		}
	}
}

func TestSearchTermSpansFields(t *testing.T) {
	repo, _ := seededRepo(t)
	spec := product.NewSpecification().BySearchTerm("stove").Build()
	out, err := repo.List(context.Background(), spec)
	if err != nil {
		t.Fatal(err)
	}
	// "stove" appears in the Camping Stove description only.
	if len(out) != 1 || out[0].Name != "Camping Stove" {
		t.Fatalf("search = %v", names(out))
	}
}

func TestPriceRangeInclusive(t *testing.T) {
	repo, _ := seededRepo(t)
	spec := product.NewSpecification().ByPriceRange(45.00, 89.50).OrderBy(product.FieldPrice).Build()
	out, err := repo.List(context.Background(), spec)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Cast Iron Pan", "Notebook Stand", "Camping Stove", "Chef Knife"}
	if got := names(out); !equal(got, want) {
		t.Fatalf("range = %v, want %v", got, want)
	}
}

func TestCountIgnoresPaging(t *testing.T) {
	repo, _ := seededRepo(t)
	ctx := context.Background()

	paged := product.NewSpecification().WithPaging(1, 2).Build()
	n, err := repo.Count(ctx, paged)
	if err != nil {
		t.Fatal(err)
	}
	if n != 7 {
		t.Fatalf("count = %d, want 7 (paging must not affect counts)", n)
	}
}

func TestPagingDisjointAndExhaustive(t *testing.T) {
	repo, _ := seededRepo(t)
	ctx := context.Background()

	seen := map[int64]bool{}
	total := 0
	for page := 1; page <= 4; page++ {
		spec := product.NewSpecification().
			ByCategory("kitchen").
			OrderBy(product.FieldPrice).
			WithPaging(page, 2).
			Build()
		out, err := repo.List(ctx, spec)
		if err != nil {
			t.Fatal(err)
		}
		for _, p := range out {
			if seen[p.ID] {
				t.Fatalf("product %d appeared on two pages", p.ID)
			}
			seen[p.ID] = true
			total++
		}
	}
	if total != 3 {
		t.Fatalf("pages covered %d products, want 3", total)
	}
}

func TestPagingTieBreakIsStable(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	tracker := repository.NewChangeTracker()
	repo := NewProductRepository(store, tracker, nil)
	uow := NewUnitOfWork(store, tracker, nil, nil)

	// Four products sharing one price force the identity tie-break.
	var seeds []*product.Product
	for _, name := range []string{"A", "B", "C", "D"} {
		seeds = append(seeds, testsupport.SampleProduct(t, name, "kitchen", 10.00))
	}
	testsupport.Seed(t, repo, uow, seeds...)

	var got []int64
	for page := 1; page <= 2; page++ {
		spec := product.NewSpecification().
			OrderBy(product.FieldPrice).
			WithPaging(page, 2).
			Build()
		out, err := repo.List(ctx, spec)
		if err != nil {
			t.Fatal(err)
		}
		for _, p := range out {
			got = append(got, p.ID)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("tie-break order broken: %v", got)
		}
	}
	if len(got) != 4 {
		t.Fatalf("pages covered %d products, want 4", len(got))
	}
}

func TestFragmentOrderDoesNotChangeResults(t *testing.T) {
	repo, _ := seededRepo(t)
	ctx := context.Background()

	a := product.NewSpecification().ByCategory("kitchen").ByPriceRange(50, 300).Build()
	b := product.NewSpecification().ByPriceRange(50, 300).ByCategory("kitchen").Build()

	outA, err := repo.List(ctx, a)
	if err != nil {
		t.Fatal(err)
	}
	outB, err := repo.List(ctx, b)
	if err != nil {
		t.Fatal(err)
	}
	if !equal(names(outA), names(outB)) {
		t.Fatalf("fragment order changed results: %v vs %v", names(outA), names(outB))
	}
}

func TestUpdateAndDelete(t *testing.T) {
	repo, uow := seededRepo(t)
	ctx := context.Background()

	p, err := repo.GetByName(ctx, "Desk Lamp")
	if err != nil || p == nil {
		t.Fatalf("lookup: %v %v", p, err)
	}

	price, _ := product.NewMoney(29.99, "USD")
	if err := p.Reprice(price); err != nil {
		t.Fatal(err)
	}
	if err := repo.Update(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := uow.SaveChanges(ctx); err != nil {
		t.Fatal(err)
	}

	fresh, _ := repo.GetByID(ctx, p.ID)
	if fresh == nil || fresh.PriceAmount != 29.99 {
		t.Fatalf("update not applied: %+v", fresh)
	}

	if err := repo.Delete(ctx, fresh); err != nil {
		t.Fatal(err)
	}
	if err := uow.SaveChanges(ctx); err != nil {
		t.Fatal(err)
	}
	gone, err := repo.GetByID(ctx, p.ID)
	if err != nil || gone != nil {
		t.Fatalf("delete not applied: %v %v", gone, err)
	}
	ok, _ := repo.Exists(ctx, p.ID)
	if ok {
		t.Fatal("Exists reports a deleted product")
	}
}

func TestReadsReturnClones(t *testing.T) {
	repo, _ := seededRepo(t)
	ctx := context.Background()

	p, err := repo.GetByName(ctx, "Chef Knife")
	if err != nil || p == nil {
		t.Fatalf("lookup: %v %v", p, err)
	}
	p.Name = "Mutated"

	fresh, _ := repo.GetByID(ctx, p.ID)
	if fresh == nil || fresh.Name != "Chef Knife" {
		t.Fatalf("caller mutation leaked into the store: %+v", fresh)
	}
}

func TestCommitDispatchesEvents(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	tracker := repository.NewChangeTracker()
	bus := events.NewBus(nil)
	repo := NewProductRepository(store, tracker, nil)
	uow := NewUnitOfWork(store, tracker, bus, nil)

	var received []string
	bus.SubscribeAll(func(_ context.Context, ev events.DomainEvent) error {
		received = append(received, ev.EventType())
		return nil
	})

	p := testsupport.SampleProduct(t, "Espresso Machine", "kitchen", 249.99)
	if err := repo.Add(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := uow.SaveChanges(ctx); err != nil {
		t.Fatal(err)
	}

	if len(received) != 1 || received[0] != product.EventCreated {
		t.Fatalf("received = %v, want [%s]", received, product.EventCreated)
	}
	if len(p.PendingEvents()) != 0 {
		t.Fatal("pending events not cleared after dispatch")
	}

	// A second commit must not re-dispatch.
	if err := repo.Update(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := uow.SaveChanges(ctx); err != nil {
		t.Fatal(err)
	}
	if len(received) != 1 {
		t.Fatalf("received = %v, events re-dispatched", received)
	}
}

func TestMatcherUnknownFieldNeverMatches(t *testing.T) {
	repo, _ := seededRepo(t)
	spec := specification.New(
		specification.WithCriteria(specification.FieldEquals{Field: "no_such_field", Value: "x"}),
	)
	out, err := repo.List(context.Background(), spec)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Fatalf("unknown field matched %d products", len(out))
	}
}

func names(ps []*product.Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
