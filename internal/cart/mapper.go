package cart

import "coursecart-be/internal/pricing"

func toSummary(r *cartRow) CartItemSummary {
	faculty := r.FacultyNames
	if faculty == nil {
		faculty = []string{}
	}

	return CartItemSummary{
		ID:        r.CartID,
		CreatedAt: r.CreatedAt,
		Course: CourseSummary{
			ID:            r.CourseID,
			Title:         r.Title,
			Slug:          r.Slug,
			Price:         r.Price,
			DiscountPrice: r.DiscountPrice,
			EffectivePrice: pricing.ResolvePrice(pricing.Terms{
				Price:         r.Price,
				DiscountPrice: r.DiscountPrice,
				OnSale:        r.OnSale,
			}),
			Thumbnail: r.Thumbnail,
			OnSale:    r.OnSale,
			Faculty:   faculty,
		},
	}
}

