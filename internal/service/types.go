package service

import (
	"time"

	"github.com/tixlabs/tix-server/internal/models"
)

type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name"`
	Role     string `json:"role" validate:"omitempty,oneof=attendee organizer admin"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthOutput struct {
	User        models.User `json:"user"`
	AccessToken string      `json:"access_token"`
}

// Claims is the identity the HTTP layer passes into the services.
type Claims struct {
	UserID string
	Role   models.Role
}

type PurchaseInput struct {
	EventID  string `json:"event_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gte=1,lte=5"`
	UserID   string `json:"-"`
}

type PurchaseOutput struct {
	Message    string    `json:"message"`
	ScanCode   string    `json:"scan_code"`
	EventTitle string    `json:"event_title"`
	EventDate  time.Time `json:"event_date"`
	Quantity   int       `json:"quantity"`
}

// OrderInput mirrors the queue-resident order message.
type OrderInput struct {
	EventID  string
	UserID   string
	Quantity int
	ScanCode string
}

type NotificationInput struct {
	EventTitle  string
	NewDate     string
	NewLocation string
	Emails      []string
	Alert       string
}

type VerifyOutput struct {
	Valid        bool   `json:"valid"`
	Owner        string `json:"owner"`
	Event        string `json:"event"`
	Date         string `json:"date"`
	Quantity     int    `json:"quantity"`
	PurchaseDate string `json:"purchase_date"`
}

type TicketWithEvent struct {
	models.Ticket
	EventTitle    string    `json:"event_title"`
	EventDate     time.Time `json:"event_date"`
	EventLocation string    `json:"event_location"`
}

type CreateEventInput struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
	Location    string    `json:"location" validate:"required"`
	Price       float64   `json:"price" validate:"gte=0"`
	Capacity    int       `json:"capacity" validate:"required,gt=0"`
	OrganizerID string    `json:"-"`
}

type UpdateEventInput struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
	Location    string    `json:"location" validate:"required"`
	Price       float64   `json:"price" validate:"gte=0"`
	Capacity    int       `json:"capacity" validate:"required,gt=0"`
}

type ListEventsInput struct {
	Search   string
	Location string
	Date     *time.Time
	Page     int
	Limit    int
}

type ListEventsOutput struct {
	Events      []models.Event `json:"events"`
	TotalPages  int            `json:"total_pages"`
	CurrentPage int            `json:"current_page"`
	TotalEvents int            `json:"total_events"`
}

type AnalyticsOutput struct {
	TotalSold         int     `json:"total_sold"`
	Capacity          int     `json:"capacity"`
	SalesPercentage   float64 `json:"sales_percentage"`
	CheckedInCount    int     `json:"checked_in_count"`
	CheckInPercentage float64 `json:"check_in_percentage"`
	TotalAttendees    int     `json:"total_attendees"`
}
