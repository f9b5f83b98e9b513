package models

import "time"

// Event carries the capacity ledger: sold only ever moves up, and only via
// the fulfillment consumer's guarded increment.
type Event struct {
	ID          string    `json:"id"`
	OrganizerID string    `json:"organizer_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Price       float64   `json:"price"`
	Capacity    int       `json:"capacity"`
	Sold        int       `json:"sold"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (e *Event) Remaining() int {
	rem := e.Capacity - e.Sold
	if rem < 0 {
		return 0
	}
	return rem
}

func (e *Event) HasCapacity(quantity int) bool {
	return e.Sold+quantity <= e.Capacity
}
