package checkout

import (
	"context"
	"errors"

	"coursecart-be/internal/apperr"
	"coursecart-be/internal/auth"
	"coursecart-be/internal/cart"
	"coursecart-be/internal/catalog"
	"coursecart-be/internal/logger"
	"coursecart-be/internal/metrics"
	"coursecart-be/internal/order"
	"coursecart-be/internal/payment"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CartReader interface {
	ListItems(ctx context.Context, userID uint) ([]cart.CartItemSummary, error)
}

type CourseCatalog interface {
	GetPurchasableCourse(ctx context.Context, courseID uint) (*catalog.Course, error)
	ValidateOptions(ctx context.Context, courseID uint, modeID, attemptID *uint) error
}

type EnrollmentChecker interface {
	IsEnrolled(ctx context.Context, userID, courseID uint) (bool, error)
}

type Orders interface {
	CreateOrder(ctx context.Context, params order.CreateOrderParams) (*order.Order, error)
	FindByIdempotencyKey(ctx context.Context, userID uint, key string) (*order.Order, error)
	GetOrderDetail(ctx context.Context, viewer auth.User, orderID uint) (*order.Order, error)
	ConfirmPayment(ctx context.Context, razorpayOrderID, paymentID string) (*order.Order, error)
}

type Service interface {
	// Checkout buys everything in the caller's cart.
	Checkout(ctx context.Context, req CartCheckoutRequest) (*Result, error)
	// BuyNow buys a single course outside the cart.
	BuyNow(ctx context.Context, req BuyNowRequest) (*Result, error)
	// VerifyPayment confirms a client-side payment callback.
	VerifyPayment(ctx context.Context, req VerifyRequest) (*order.Order, error)
}

type Deps struct {
	Cart        CartReader
	Catalog     CourseCatalog
	Enrollments EnrollmentChecker
	Orders      Orders
	Gateway     payment.Gateway
	Metrics     *metrics.Metrics
	Currency    string
}

type service struct {
	cart        CartReader
	catalog     CourseCatalog
	enrollments EnrollmentChecker
	orders      Orders
	gateway     payment.Gateway
	metrics     *metrics.Metrics
	currency    string
}

func NewService(d Deps) Service {
	currency := d.Currency
	if currency == "" {
		currency = "INR"
	}
	return &service{
		cart:        d.Cart,
		catalog:     d.Catalog,
		enrollments: d.Enrollments,
		orders:      d.Orders,
		gateway:     d.Gateway,
		metrics:     d.Metrics,
		currency:    currency,
	}
}

func (s *service) Checkout(ctx context.Context, req CartCheckoutRequest) (*Result, error) {
	res, err := s.checkoutCart(ctx, req)
	s.metrics.ObserveCheckout(FlowCart, outcome(res, err))
	return res, err
}

func (s *service) checkoutCart(ctx context.Context, req CartCheckoutRequest) (*Result, error) {
	// 1. Authenticate
	u, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Checkout"),
		zap.Uint("user_id", u.ID),
	)

	if res, ok, err := s.replay(ctx, u.ID, req.IdempotencyKey); err != nil || ok {
		return res, err
	}

	// 2. Resolve line items
	entries, err := s.cart.ListItems(ctx, u.ID)
	if err != nil {
		log.Error("failed to load cart", zap.Error(err))
		return nil, err
	}
	if len(entries) == 0 {
		log.Info("checkout of empty cart")
		return &Result{Empty: true}, nil
	}

	items := make([]order.LineItem, 0, len(entries))
	for _, e := range entries {
		li, err := s.resolveCourse(ctx, u.ID, e.Course.ID, nil, nil)
		if err != nil {
			log.Info("cart line rejected", zap.Uint("course_id", e.Course.ID), zap.Error(err))
			return nil, err
		}
		items = append(items, li)
	}

	return s.placeOrder(ctx, log, u.ID, items, req.Amount, req.IdempotencyKey)
}

func (s *service) BuyNow(ctx context.Context, req BuyNowRequest) (*Result, error) {
	res, err := s.buyNow(ctx, req)
	s.metrics.ObserveCheckout(FlowBuyNow, outcome(res, err))
	return res, err
}

func (s *service) buyNow(ctx context.Context, req BuyNowRequest) (*Result, error) {
	// 1. Authenticate
	u, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "BuyNow"),
		zap.Uint("user_id", u.ID),
		zap.Uint("course_id", req.CourseID),
	)

	if res, ok, err := s.replay(ctx, u.ID, req.IdempotencyKey); err != nil || ok {
		return res, err
	}

	// 2. Resolve line item
	li, err := s.resolveCourse(ctx, u.ID, req.CourseID, req.ModeID, req.AttemptID)
	if err != nil {
		log.Info("buy-now rejected", zap.Error(err))
		return nil, err
	}

	return s.placeOrder(ctx, log, u.ID, []order.LineItem{li}, req.Amount, req.IdempotencyKey)
}

// resolveCourse prices one course for userID from the live catalog.
func (s *service) resolveCourse(ctx context.Context, userID, courseID uint, modeID, attemptID *uint) (order.LineItem, error) {
	c, err := s.catalog.GetPurchasableCourse(ctx, courseID)
	if err != nil {
		return order.LineItem{}, err
	}

	enrolled, err := s.enrollments.IsEnrolled(ctx, userID, courseID)
	if err != nil {
		return order.LineItem{}, err
	}
	if enrolled {
		return order.LineItem{}, ErrAlreadyEnrolled
	}

	if err := s.catalog.ValidateOptions(ctx, courseID, modeID, attemptID); err != nil {
		return order.LineItem{}, err
	}

	return order.LineItemFor(c.ID, c.Title, c.Terms(), modeID, attemptID), nil
}

// placeOrder runs steps 3-7: recompute, verify, charge, persist, respond.
// Nothing is sent to the gateway or written locally unless the claimed
// amount equals the recomputed total.
func (s *service) placeOrder(
	ctx context.Context,
	log *zap.Logger,
	userID uint,
	items []order.LineItem,
	claimed decimal.Decimal,
	idempotencyKey string,
) (*Result, error) {
	// 3. Recompute total
	total := order.Total(items)

	// 4. Verify amount
	if !claimed.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !claimed.Equal(total) {
		log.Warn("amount mismatch",
			zap.String("claimed", claimed.String()),
			zap.String("total", total.StringFixed(2)),
		)
		return nil, ErrAmountMismatch
	}

	// 5. Create provider order
	po, err := s.gateway.CreateOrder(ctx, total, s.currency)
	if err != nil {
		log.Error("gateway order failed", zap.Error(err))
		return nil, err
	}

	// 6. Persist local order
	params := order.CreateOrderParams{
		UserID:          userID,
		Items:           items,
		Currency:        s.currency,
		RazorpayOrderID: po.ID,
		Receipt:         po.Receipt,
	}
	if idempotencyKey != "" {
		params.IdempotencyKey = &idempotencyKey
	}

	o, err := s.orders.CreateOrder(ctx, params)
	if err != nil {
		if idempotencyKey != "" && errors.Is(err, order.ErrDuplicateOrder) {
			// lost a race against a concurrent submission with the same key
			if res, ok, rerr := s.replay(ctx, userID, idempotencyKey); rerr == nil && ok {
				return res, nil
			}
		}
		log.Error("order persistence failed",
			zap.String("razorpay_order_id", po.ID),
			zap.Error(err),
		)
		return nil, err
	}

	// 7. Respond
	log.Info("checkout success",
		zap.Uint("order_id", o.ID),
		zap.String("razorpay_order_id", o.RazorpayOrderID),
		zap.Int("items", len(items)),
	)
	return &Result{Response: responseFor(o)}, nil
}

// replay returns the stored result of an earlier submission with key.
func (s *service) replay(ctx context.Context, userID uint, key string) (*Result, bool, error) {
	if key == "" {
		return nil, false, nil
	}

	o, err := s.orders.FindByIdempotencyKey(ctx, userID, key)
	if errors.Is(err, order.ErrOrderNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	logger.FromCtx(ctx).Info("idempotent checkout replayed",
		zap.Uint("user_id", userID),
		zap.Uint("order_id", o.ID),
	)
	return &Result{Response: responseFor(o), Replayed: true}, true, nil
}

func (s *service) VerifyPayment(ctx context.Context, req VerifyRequest) (*order.Order, error) {
	u, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "VerifyPayment"),
		zap.Uint("user_id", u.ID),
		zap.Uint("order_id", req.OrderID),
	)

	o, err := s.orders.GetOrderDetail(ctx, u, req.OrderID)
	if err != nil {
		return nil, err
	}
	if o.RazorpayOrderID != req.RazorpayOrderID {
		log.Warn("provider order does not match local order")
		return nil, order.ErrPaymentOrderMismatch
	}

	if err := s.gateway.VerifyPaymentSignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature); err != nil {
		log.Warn("payment signature rejected")
		return nil, err
	}

	return s.orders.ConfirmPayment(ctx, req.RazorpayOrderID, req.RazorpayPaymentID)
}

func outcome(res *Result, err error) string {
	switch {
	case err != nil:
		return apperr.KindOf(err).String()
	case res.Empty:
		return "empty"
	case res.Replayed:
		return "replayed"
	default:
		return "created"
	}
}
