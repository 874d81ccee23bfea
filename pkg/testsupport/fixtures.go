// Package testsupport provides small helpers shared by the package
// test suites: fixture loading and catalog seeding.
package testsupport

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopfabrik/catalog/product"
	"github.com/shopfabrik/catalog/repository"
)

// LoadFixture reads a file from the calling package's testdata
// directory and fails the test on error.
func LoadFixture(t *testing.T, name string) []byte {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("load fixture %s: %v", name, err)
	}
	return data
}

// LoadFixtureJSON reads a JSON fixture into v.
func LoadFixtureJSON(t *testing.T, name string, v any) {
	t.Helper()

	if err := json.Unmarshal(LoadFixture(t, name), v); err != nil {
		t.Fatalf("decode fixture %s: %v", name, err)
	}
}

// SampleProduct constructs a valid product for tests, failing the test
// on a validation error.
func SampleProduct(t *testing.T, name, category string, amount float64) *product.Product {
	t.Helper()

	price, err := product.NewMoney(amount, "USD")
	if err != nil {
		t.Fatalf("sample price: %v", err)
	}
	p, err := product.New(name, "test product "+name, price, category)
	if err != nil {
		t.Fatalf("sample product: %v", err)
	}
	return p
}

// Seed stages the given products on the repository and commits them
// through the unit of work.
func Seed(t *testing.T, repo repository.ProductRepository, uow repository.UnitOfWork, products ...*product.Product) {
	t.Helper()

	ctx := context.Background()
	for _, p := range products {
		if err := repo.Add(ctx, p); err != nil {
			t.Fatalf("stage product %s: %v", p.Name, err)
		}
	}
	if err := uow.SaveChanges(ctx); err != nil {
		t.Fatalf("commit seed: %v", err)
	}
}
