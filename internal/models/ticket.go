package models

import "time"

const (
	MinTicketQuantity = 1
	MaxTicketQuantity = 5
)

// Ticket is written once by the fulfillment consumer and mutated exactly
// once afterwards, by check-in.
type Ticket struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	Quantity    int       `json:"quantity"`
	ScanCode    string    `json:"scan_code"`
	IsCheckedIn bool      `json:"is_checked_in"`
	PurchasedAt time.Time `json:"purchased_at"`
}
