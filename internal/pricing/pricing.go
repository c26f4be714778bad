// Package pricing owns the effective-price rule. Every place that needs a
// chargeable price (cart listing, checkout, buy-now, order totals) goes
// through ResolvePrice.
package pricing

import "github.com/shopspring/decimal"

// Terms are the price inputs of a course.
type Terms struct {
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	OnSale        bool
}

// ResolvePrice returns the discount price when the course is on sale and the
// discount is positive and strictly below the list price, else the list price.
func ResolvePrice(t Terms) decimal.Decimal {
	if t.OnSale && t.DiscountPrice != nil &&
		t.DiscountPrice.IsPositive() && t.DiscountPrice.LessThan(t.Price) {
		return *t.DiscountPrice
	}
	return t.Price
}

// Total sums the resolved price of each entry.
func Total(terms ...Terms) decimal.Decimal {
	total := decimal.Zero
	for _, t := range terms {
		total = total.Add(ResolvePrice(t))
	}
	return total
}
