package catalog

import (
	"time"

	"coursecart-be/internal/pricing"

	"github.com/shopspring/decimal"
)

type CourseStatus string

const (
	StatusDraft     CourseStatus = "DRAFT"
	StatusPublished CourseStatus = "PUBLISHED"
	StatusArchived  CourseStatus = "ARCHIVED"
)

func (s CourseStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

type Course struct {
	ID            uint
	Title         string
	Slug          string
	Description   string
	Thumbnail     *string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	OnSale        bool
	Status        CourseStatus
	CategoryID    *uint
	FacultyNames  []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (c *Course) Terms() pricing.Terms {
	return pricing.Terms{Price: c.Price, DiscountPrice: c.DiscountPrice, OnSale: c.OnSale}
}

func (c *Course) EffectivePrice() decimal.Decimal {
	return pricing.ResolvePrice(c.Terms())
}

func (c *Course) Purchasable() bool {
	return c.Status == StatusPublished
}

type CourseInput struct {
	Title         string
	Slug          string
	Description   string
	Thumbnail     *string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	OnSale        bool
	Status        CourseStatus
	CategoryID    *uint
	FacultyIDs    []uint
	ModeIDs       []uint
	AttemptIDs    []uint
}

// LookupKind names one of the reference tables attached to courses.
type LookupKind string

const (
	KindCategory LookupKind = "categories"
	KindFaculty  LookupKind = "faculties"
	KindMode     LookupKind = "modes"
	KindAttempt  LookupKind = "attempts"
)

func ParseLookupKind(s string) (LookupKind, bool) {
	k := LookupKind(s)
	switch k {
	case KindCategory, KindFaculty, KindMode, KindAttempt:
		return k, true
	}
	return "", false
}

// Lookup is a Category, Faculty, Mode or Attempt row.
type Lookup struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
}

// CourseView is the public representation of a course.
type CourseView struct {
	ID             uint             `json:"id"`
	Title          string           `json:"title"`
	Slug           string           `json:"slug"`
	Description    string           `json:"description"`
	Thumbnail      *string          `json:"thumbnail"`
	Price          decimal.Decimal  `json:"price"`
	DiscountPrice  *decimal.Decimal `json:"discountPrice"`
	EffectivePrice decimal.Decimal  `json:"effectivePrice"`
	OnSale         bool             `json:"onSale"`
	Status         CourseStatus     `json:"status"`
	CategoryID     *uint            `json:"categoryId"`
	Faculty        []string         `json:"faculty"`
	CreatedAt      time.Time        `json:"createdAt"`
}

func ToCourseView(c *Course) CourseView {
	faculty := c.FacultyNames
	if faculty == nil {
		faculty = []string{}
	}
	return CourseView{
		ID:             c.ID,
		Title:          c.Title,
		Slug:           c.Slug,
		Description:    c.Description,
		Thumbnail:      c.Thumbnail,
		Price:          c.Price,
		DiscountPrice:  c.DiscountPrice,
		EffectivePrice: c.EffectivePrice(),
		OnSale:         c.OnSale,
		Status:         c.Status,
		CategoryID:     c.CategoryID,
		Faculty:        faculty,
		CreatedAt:      c.CreatedAt,
	}
}
