package kafka

import "time"

type AlertKind string

const (
	AlertEventUpdate     AlertKind = "update"
	AlertWaitlistRelease AlertKind = "waitlist-release"
)

// OrderMessage is the queue-resident purchase intent. The scan code is
// generated at admission time so redeliveries stay idempotent downstream.
type OrderMessage struct {
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	Quantity  int       `json:"quantity"`
	ScanCode  string    `json:"scan_code"`
	Timestamp time.Time `json:"timestamp"`
}

type NotificationBatch struct {
	EventTitle  string    `json:"event_title"`
	NewDate     string    `json:"new_date"`
	NewLocation string    `json:"new_location"`
	Emails      []string  `json:"emails"`
	Alert       AlertKind `json:"alert"`
	Timestamp   time.Time `json:"timestamp"`
}
