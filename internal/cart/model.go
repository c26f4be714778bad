package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"userId"`
	CourseID  uint      `json:"courseId"`
	CreatedAt time.Time `json:"createdAt"`
}

// cartRow is a cart entry joined with the course columns needed to price it.
type cartRow struct {
	CartID        uint
	CourseID      uint
	CreatedAt     time.Time
	Title         string
	Slug          string
	Thumbnail     *string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	OnSale        bool
	FacultyNames  []string
}

type CourseSummary struct {
	ID             uint             `json:"id"`
	Title          string           `json:"title"`
	Slug           string           `json:"slug"`
	Price          decimal.Decimal  `json:"price"`
	DiscountPrice  *decimal.Decimal `json:"discountPrice"`
	EffectivePrice decimal.Decimal  `json:"effectivePrice"`
	Thumbnail      *string          `json:"thumbnail"`
	OnSale         bool             `json:"onSale"`
	Faculty        []string         `json:"faculty"`
}

// CartItemSummary is the listing view of one cart entry.
type CartItemSummary struct {
	ID        uint          `json:"id"`
	CreatedAt time.Time     `json:"createdAt"`
	Course    CourseSummary `json:"course"`
}
