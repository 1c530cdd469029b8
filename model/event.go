// model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilityEvent describes a change to a book's total or available
// copy count. Timestamp is unix milliseconds.
type AvailabilityEvent struct {
	BookID            uuid.UUID `json:"book_id"`
	Name              string    `json:"name"`
	ISBN              string    `json:"isbn"`
	Quantity          int       `json:"quantity"`
	AvailableQuantity int       `json:"available_quantity"`
	Timestamp         int64     `json:"timestamp"`
}

func NewAvailabilityEvent(b *Book) AvailabilityEvent {
	return AvailabilityEvent{
		BookID:            b.ID,
		Name:              b.Name,
		ISBN:              b.ISBN,
		Quantity:          b.Quantity,
		AvailableQuantity: b.AvailableQuantity,
		Timestamp:         time.Now().UnixMilli(),
	}
}
