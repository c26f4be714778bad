package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusFailed    OrderStatus = "FAILED"
	StatusExpired   OrderStatus = "EXPIRED"
)

type Order struct {
	ID              uint            `json:"id"`
	UserID          uint            `json:"userId"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Status          OrderStatus     `json:"status"`
	RazorpayOrderID string          `json:"razorpayOrderId"`
	PaymentID       *string         `json:"paymentId"`
	Receipt         string          `json:"receipt"`
	IdempotencyKey  *string         `json:"-"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	Items           []OrderItem     `json:"items"`
}

type OrderItem struct {
	ID          uint            `json:"id"`
	OrderID     uint            `json:"orderId"`
	CourseID    uint            `json:"courseId"`
	CourseTitle string          `json:"courseTitle,omitempty"`
	Price       decimal.Decimal `json:"price"`
	AttemptID   *uint           `json:"attemptId"`
	ModeID      *uint           `json:"modeId"`
}

// LineItem is a priced (course, mode, attempt) tuple destined for an order.
type LineItem struct {
	CourseID  uint
	Title     string
	Price     decimal.Decimal
	AttemptID *uint
	ModeID    *uint
}

type CreateOrderParams struct {
	UserID          uint
	Items           []LineItem
	Currency        string
	RazorpayOrderID string
	Receipt         string
	IdempotencyKey  *string
}

// OrderSummary is the listing view of an order.
type OrderSummary struct {
	ID              uint            `json:"id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Status          OrderStatus     `json:"status"`
	RazorpayOrderID string          `json:"razorpayOrderId"`
	ItemCount       int             `json:"itemCount"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Completion is the outcome of confirming a payment.
type Completion struct {
	Order *Order
	// AlreadyCompleted is set when the order had been confirmed before.
	AlreadyCompleted bool
	Enrolled         int64
}

func (o *Order) CourseIDs() []uint {
	ids := make([]uint, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.CourseID)
	}
	return ids
}
