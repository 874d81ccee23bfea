// Package product defines the catalog's cached aggregate: the Product
// entity, its value objects, the domain events it raises, and the
// fluent specification builder for querying it.
package product

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/uptrace/bun"

	"github.com/shopfabrik/catalog/events"
	apperrors "github.com/shopfabrik/catalog/pkg/errors"
)

// Field names recognized by the specification evaluators. They match
// the storage column names one to one.
const (
	FieldID          = "id"
	FieldName        = "name"
	FieldDescription = "description"
	FieldCategory    = "category"
	FieldPrice       = "price_amount"
	FieldAvailable   = "available"
	FieldCreatedAt   = "created_at"
	FieldUpdatedAt   = "updated_at"
)

// Money is a price value object: a non-negative amount in an ISO 4217
// currency.
type Money struct {
	Amount   float64 `json:"amount" msgpack:"amount"`
	Currency string  `json:"currency" msgpack:"currency"`
}

// NewMoney validates and constructs a Money value.
func NewMoney(amount float64, currency string) (Money, error) {
	m := Money{Amount: amount, Currency: currency}
	if err := m.Validate(); err != nil {
		return Money{}, apperrors.NewValidationWrap(err, "invalid price")
	}
	return m, nil
}

// Validate enforces the Money invariants.
func (m Money) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Amount, validation.Min(0.0)),
		validation.Field(&m.Currency, validation.Required, is.CurrencyCode),
	)
}

// Product is the cached aggregate root. Construct via New; mutate only
// through the intention-revealing methods, which validate before
// applying and stamp UpdatedAt.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:p" msgpack:"-" json:"-"`

	ID            int64     `bun:"id,pk,autoincrement" json:"id" msgpack:"id"`
	Name          string    `bun:"name,notnull" json:"name" msgpack:"name"`
	Description   string    `bun:"description" json:"description" msgpack:"description"`
	PriceAmount   float64   `bun:"price_amount,notnull" json:"price_amount" msgpack:"price_amount"`
	PriceCurrency string    `bun:"price_currency,notnull" json:"price_currency" msgpack:"price_currency"`
	Category      string    `bun:"category,notnull" json:"category" msgpack:"category"`
	ImagePath     string    `bun:"image_path,nullzero" json:"image_path,omitempty" msgpack:"image_path"`
	Available     bool      `bun:"available" json:"available" msgpack:"available"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at" msgpack:"created_at"`
	// UpdatedAt is the zero time until the first mutation.
	UpdatedAt time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty" msgpack:"updated_at"`

	pending []events.DomainEvent `bun:"-" msgpack:"-" json:"-"`
}

// New constructs a valid Product or fails without producing a
// partially-valid instance. The identity is assigned by persistence on
// insert.
func New(name, description string, price Money, category string) (*Product, error) {
	p := &Product{
		Name:          name,
		Description:   description,
		PriceAmount:   price.Amount,
		PriceCurrency: price.Currency,
		Category:      category,
		Available:     true,
		CreatedAt:     time.Now().UTC(),
	}
	if err := p.validate(); err != nil {
		return nil, apperrors.NewValidationWrap(err, "invalid product")
	}

	p.record(newProductCreated(p))
	return p, nil
}

func (p *Product) validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&p.Description, validation.Length(0, 500)),
		validation.Field(&p.Category, validation.Required, validation.Length(1, 50)),
		validation.Field(&p.PriceAmount, validation.Min(0.0)),
		validation.Field(&p.PriceCurrency, validation.Required, is.CurrencyCode),
	)
}

// Price returns the price value object.
func (p *Product) Price() Money {
	return Money{Amount: p.PriceAmount, Currency: p.PriceCurrency}
}

// UpdateDetails changes name, description and category atomically:
// either all three pass validation and apply, or the product is left
// untouched.
func (p *Product) UpdateDetails(name, description, category string) error {
	candidate := *p
	candidate.Name = name
	candidate.Description = description
	candidate.Category = category
	if err := candidate.validate(); err != nil {
		return apperrors.NewValidationWrap(err, "invalid product details")
	}

	p.Name = name
	p.Description = description
	p.Category = category
	p.touch()
	p.record(newProductDetailsUpdated(p))
	return nil
}

// Reprice changes the product price.
func (p *Product) Reprice(price Money) error {
	if err := price.Validate(); err != nil {
		return apperrors.NewValidationWrap(err, "invalid price")
	}

	old := p.Price()
	p.PriceAmount = price.Amount
	p.PriceCurrency = price.Currency
	p.touch()
	p.record(newProductRepriced(p, old, price))
	return nil
}

// ChangeImage swaps the opaque image reference. An empty path clears
// the image.
func (p *Product) ChangeImage(path string) {
	p.ImagePath = path
	p.touch()
	p.record(newProductImageChanged(p, path))
}

// SetAvailability toggles whether the product is purchasable.
// Setting the current state again is a no-op and raises no event.
func (p *Product) SetAvailability(available bool) {
	if p.Available == available {
		return
	}
	p.Available = available
	p.touch()
	p.record(newProductAvailabilityChanged(p, available))
}

// Enable marks the product available.
func (p *Product) Enable() { p.SetAvailability(true) }

// Disable marks the product unavailable.
func (p *Product) Disable() { p.SetAvailability(false) }

// MarkDeleted raises the deletion event. The repository performs the
// hard delete; there is no soft-delete flag.
func (p *Product) MarkDeleted() {
	p.record(newProductDeleted(p))
}

// Clone returns a deep copy without pending events. Stores hand out
// clones so cached or staged entities never alias caller state.
func (p *Product) Clone() *Product {
	cp := *p
	cp.pending = nil
	return &cp
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}

func (p *Product) record(ev events.DomainEvent) {
	p.pending = append(p.pending, ev)
}

// PendingEvents implements events.Recorder.
func (p *Product) PendingEvents() []events.DomainEvent {
	return append([]events.DomainEvent(nil), p.pending...)
}

// ClearPendingEvents implements events.Recorder.
func (p *Product) ClearPendingEvents() {
	p.pending = nil
}
