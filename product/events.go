package product

import (
	"strconv"

	"github.com/shopfabrik/catalog/events"
)

// Event type names dispatched by the Product aggregate.
const (
	EventCreated             = "product.created"
	EventDetailsUpdated      = "product.details_updated"
	EventRepriced            = "product.repriced"
	EventImageChanged        = "product.image_changed"
	EventAvailabilityChanged = "product.availability_changed"
	EventDeleted             = "product.deleted"
)

func aggregateID(p *Product) string {
	return strconv.FormatInt(p.ID, 10)
}

// CreatedEvent is raised when a product is constructed. The aggregate
// identity is assigned by persistence, so consumers should key on the
// payload for not-yet-committed products.
type CreatedEvent struct {
	events.BaseEvent
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    Money  `json:"price"`
}

// EventType implements events.DomainEvent.
func (CreatedEvent) EventType() string { return EventCreated }

func newProductCreated(p *Product) CreatedEvent {
	return CreatedEvent{
		BaseEvent: events.NewBaseEvent(aggregateID(p)),
		Name:      p.Name,
		Category:  p.Category,
		Price:     p.Price(),
	}
}

// DetailsUpdatedEvent is raised when name, description or category
// change.
type DetailsUpdatedEvent struct {
	events.BaseEvent
	Name     string `json:"name"`
	Category string `json:"category"`
}

// EventType implements events.DomainEvent.
func (DetailsUpdatedEvent) EventType() string { return EventDetailsUpdated }

func newProductDetailsUpdated(p *Product) DetailsUpdatedEvent {
	return DetailsUpdatedEvent{
		BaseEvent: events.NewBaseEvent(aggregateID(p)),
		Name:      p.Name,
		Category:  p.Category,
	}
}

// RepricedEvent carries both the old and new price.
type RepricedEvent struct {
	events.BaseEvent
	OldPrice Money `json:"old_price"`
	NewPrice Money `json:"new_price"`
}

// EventType implements events.DomainEvent.
func (RepricedEvent) EventType() string { return EventRepriced }

func newProductRepriced(p *Product, old, updated Money) RepricedEvent {
	return RepricedEvent{
		BaseEvent: events.NewBaseEvent(aggregateID(p)),
		OldPrice:  old,
		NewPrice:  updated,
	}
}

// ImageChangedEvent is raised when the image reference is swapped.
type ImageChangedEvent struct {
	events.BaseEvent
	ImagePath string `json:"image_path"`
}

// EventType implements events.DomainEvent.
func (ImageChangedEvent) EventType() string { return EventImageChanged }

func newProductImageChanged(p *Product, path string) ImageChangedEvent {
	return ImageChangedEvent{
		BaseEvent: events.NewBaseEvent(aggregateID(p)),
		ImagePath: path,
	}
}

// AvailabilityChangedEvent is raised when the availability flag flips.
type AvailabilityChangedEvent struct {
	events.BaseEvent
	Available bool `json:"available"`
}

// EventType implements events.DomainEvent.
func (AvailabilityChangedEvent) EventType() string { return EventAvailabilityChanged }

func newProductAvailabilityChanged(p *Product, available bool) AvailabilityChangedEvent {
	return AvailabilityChangedEvent{
		BaseEvent: events.NewBaseEvent(aggregateID(p)),
		Available: available,
	}
}

// DeletedEvent is raised when a product is hard-deleted.
type DeletedEvent struct {
	events.BaseEvent
	Name string `json:"name"`
}

// EventType implements events.DomainEvent.
func (DeletedEvent) EventType() string { return EventDeleted }

func newProductDeleted(p *Product) DeletedEvent {
	return DeletedEvent{
		BaseEvent: events.NewBaseEvent(aggregateID(p)),
		Name:      p.Name,
	}
}
