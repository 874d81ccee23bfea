package cache

import (
	"strings"
	"testing"

	"github.com/shopfabrik/catalog/specification"
)

func TestSpecKeyLayout(t *testing.T) {
	ks := NewDefaultKeySerializer()
	spec := specification.New(
		specification.WithCriteria(specification.FieldEquals{Field: "category", Value: "kitchen"}),
		specification.WithOrderBy("name"),
	)

	key := ks.SpecKey("product", "list", spec)
	if !strings.HasPrefix(key, "product::list::crit:") {
		t.Fatalf("key = %q, want product::list::crit: prefix", key)
	}
	if !strings.Contains(key, "::order:name:asc") {
		t.Fatalf("key = %q, missing ordering descriptor", key)
	}
}

func TestSpecKeyStableAcrossCalls(t *testing.T) {
	ks := NewDefaultKeySerializer()
	build := func() specification.Specification {
		return specification.New(
			specification.WithCriteria(specification.FieldEquals{Field: "available", Value: true}),
			specification.WithPaging(2, 10),
		)
	}
	if ks.SpecKey("product", "list", build()) != ks.SpecKey("product", "list", build()) {
		t.Fatal("identical specifications keyed differently")
	}
}

func TestSpecKeySeparatesMethods(t *testing.T) {
	ks := NewDefaultKeySerializer()
	spec := specification.New(
		specification.WithCriteria(specification.FieldEquals{Field: "category", Value: "kitchen"}),
	)
	if ks.SpecKey("product", "list", spec) == ks.SpecKey("product", "count", spec) {
		t.Fatal("list and count collided on one key")
	}
}

func TestStaticKey(t *testing.T) {
	ks := NewDefaultKeySerializer()
	if got := ks.StaticKey("product", "id", "42"); got != "product::id::42" {
		t.Fatalf("static key = %q", got)
	}
	if got := ks.StaticKey("product", "get_all"); got != "product::get_all" {
		t.Fatalf("static key = %q", got)
	}
}

func TestPrefixCoversBothSchemes(t *testing.T) {
	ks := NewDefaultKeySerializer()
	prefix := ks.Prefix("product")
	if prefix != "product::" {
		t.Fatalf("prefix = %q", prefix)
	}

	spec := specification.New(
		specification.WithCriteria(specification.FieldEquals{Field: "category", Value: "kitchen"}),
	)
	if !strings.HasPrefix(ks.SpecKey("product", "list", spec), prefix) {
		t.Fatal("spec key escapes the entity prefix")
	}
	if !strings.HasPrefix(ks.StaticKey("product", "id", "1"), prefix) {
		t.Fatal("static key escapes the entity prefix")
	}
	if strings.HasPrefix(ks.StaticKey("product_review", "id", "1"), prefix) {
		t.Fatal("another entity's key matches the product prefix")
	}
}
