package order

import (
	"context"
	"time"

	"coursecart-be/internal/auth"
	"coursecart-be/internal/events"
	"coursecart-be/internal/logger"
	"coursecart-be/internal/metrics"
	"coursecart-be/internal/notify"
	"coursecart-be/internal/pricing"
	"coursecart-be/internal/user"
	"coursecart-be/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type UserFinder interface {
	GetByID(ctx context.Context, id uint) (*user.User, error)
}

type Service interface {
	CreateOrder(ctx context.Context, params CreateOrderParams) (*Order, error)
	FindByIdempotencyKey(ctx context.Context, userID uint, key string) (*Order, error)
	GetByProviderOrderID(ctx context.Context, razorpayOrderID string) (*Order, error)
	ConfirmPayment(ctx context.Context, razorpayOrderID, paymentID string) (*Order, error)
	MarkFailed(ctx context.Context, razorpayOrderID string) error
	GetOrderDetail(ctx context.Context, viewer auth.User, orderID uint) (*Order, error)
	ListOrders(ctx context.Context, userID uint, limit, page int) ([]*OrderSummary, error)
	ExpireStale(ctx context.Context, olderThan time.Duration) (int, error)
}

type service struct {
	repo      Repository
	users     UserFinder
	publisher events.Publisher
	mailer    notify.Mailer
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewService(
	repo Repository,
	users UserFinder,
	publisher events.Publisher,
	mailer notify.Mailer,
	m *metrics.Metrics,
) Service {
	return &service{
		repo:      repo,
		users:     users,
		publisher: publisher,
		mailer:    mailer,
		metrics:   m,
		now:       time.Now,
	}
}

// CreateOrder persists a PENDING order whose amount is the sum of the line
// item snapshot prices.
func (s *service) CreateOrder(ctx context.Context, params CreateOrderParams) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateOrder"),
		zap.Uint("user_id", params.UserID),
	)

	if len(params.Items) == 0 {
		return nil, ErrNoLineItems
	}

	items := make([]OrderItem, 0, len(params.Items))
	for _, li := range params.Items {
		items = append(items, OrderItem{
			CourseID:    li.CourseID,
			CourseTitle: li.Title,
			Price:       li.Price,
			AttemptID:   li.AttemptID,
			ModeID:      li.ModeID,
		})
	}

	o := &Order{
		UserID:          params.UserID,
		Amount:          Total(params.Items),
		Currency:        params.Currency,
		Status:          StatusPending,
		RazorpayOrderID: params.RazorpayOrderID,
		Receipt:         params.Receipt,
		IdempotencyKey:  params.IdempotencyKey,
		Items:           items,
	}

	if err := s.repo.CreateOrderTx(ctx, o); err != nil {
		log.Error("failed to persist order", zap.Error(err))
		return nil, err
	}

	s.metrics.ObserveOrderStatus(string(StatusPending), 1)
	s.publish(ctx, events.OrderCreated, o)

	log.Info("CreateOrder success",
		zap.Uint("order_id", o.ID),
		zap.String("amount", o.Amount.StringFixed(2)),
	)
	return o, nil
}

func (s *service) FindByIdempotencyKey(ctx context.Context, userID uint, key string) (*Order, error) {
	return s.repo.FindByIdempotencyKey(ctx, userID, key)
}

func (s *service) GetByProviderOrderID(ctx context.Context, razorpayOrderID string) (*Order, error) {
	return s.repo.GetByProviderOrderID(ctx, razorpayOrderID)
}

// ConfirmPayment completes the order behind a provider order id. Repeated
// confirmations return the completed order without side effects.
func (s *service) ConfirmPayment(ctx context.Context, razorpayOrderID, paymentID string) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ConfirmPayment"),
		zap.String("razorpay_order_id", razorpayOrderID),
	)

	o, err := s.repo.GetByProviderOrderID(ctx, razorpayOrderID)
	if err != nil {
		log.Warn("order lookup failed", zap.Error(err))
		return nil, err
	}
	if o.Status == StatusCompleted {
		log.Info("payment already confirmed", zap.Uint("order_id", o.ID))
		return o, nil
	}

	done, err := s.repo.CompletePaymentTx(ctx, o.ID, paymentID)
	if err != nil {
		log.Error("failed to complete payment", zap.Uint("order_id", o.ID), zap.Error(err))
		return nil, err
	}
	if done.AlreadyCompleted {
		return done.Order, nil
	}

	s.metrics.ObserveOrderStatus(string(StatusCompleted), 1)
	s.publish(ctx, events.OrderCompleted, done.Order)
	s.sendConfirmation(ctx, done.Order)

	log.Info("ConfirmPayment success",
		zap.Uint("order_id", done.Order.ID),
		zap.Int64("enrolled", done.Enrolled),
	)
	return done.Order, nil
}

func (s *service) MarkFailed(ctx context.Context, razorpayOrderID string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "MarkFailed"),
		zap.String("razorpay_order_id", razorpayOrderID),
	)

	o, err := s.repo.GetByProviderOrderID(ctx, razorpayOrderID)
	if err != nil {
		return err
	}
	if o.Status == StatusFailed {
		log.Info("order already failed", zap.Uint("order_id", o.ID))
		return nil
	}

	updated, err := s.repo.UpdateStatus(ctx, o.ID, StatusPending, StatusFailed)
	if err != nil {
		return err
	}
	if !updated {
		log.Warn("order not pending, failure ignored", zap.String("status", string(o.Status)))
		return ErrInvalidTransition
	}

	o.Status = StatusFailed
	s.metrics.ObserveOrderStatus(string(StatusFailed), 1)
	s.publish(ctx, events.OrderFailed, o)
	return nil
}

func (s *service) GetOrderDetail(ctx context.Context, viewer auth.User, orderID uint) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !viewer.IsAdmin() && o.UserID != viewer.ID {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *service) ListOrders(ctx context.Context, userID uint, limit, page int) ([]*OrderSummary, error) {
	limit, offset := utils.Paginate(limit, page)
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// ExpireStale moves PENDING orders older than olderThan to EXPIRED.
func (s *service) ExpireStale(ctx context.Context, olderThan time.Duration) (int, error) {
	expired, err := s.repo.ExpireStale(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}

	for _, o := range expired {
		s.publish(ctx, events.OrderExpired, o)
	}
	s.metrics.ObserveOrderStatus(string(StatusExpired), len(expired))
	return len(expired), nil
}

func (s *service) publish(ctx context.Context, typ string, o *Order) {
	if s.publisher == nil {
		return
	}
	evt := events.NewOrderEvent(typ, o.ID, o.UserID, o.Amount, o.Currency)
	evt.Payload["razorpay_order_id"] = o.RazorpayOrderID
	if err := s.publisher.Publish(ctx, evt); err != nil {
		logger.FromCtx(ctx).Warn("order event dropped",
			zap.String("type", typ),
			zap.Uint("order_id", o.ID),
			zap.Error(err),
		)
	}
}

func (s *service) sendConfirmation(ctx context.Context, o *Order) {
	if s.mailer == nil || s.users == nil {
		return
	}
	log := logger.FromCtx(ctx)

	u, err := s.users.GetByID(ctx, o.UserID)
	if err != nil {
		log.Warn("buyer lookup failed, confirmation not sent", zap.Uint("order_id", o.ID), zap.Error(err))
		return
	}

	titles := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		titles = append(titles, it.CourseTitle)
	}

	receipt := notify.Receipt{
		OrderID:  o.ID,
		Amount:   o.Amount.StringFixed(2),
		Currency: o.Currency,
		Courses:  titles,
	}
	if o.PaymentID != nil {
		receipt.PaymentID = *o.PaymentID
	}

	err = s.mailer.SendEnrollmentConfirmation(ctx, notify.Recipient{Name: u.Name, Email: u.Email}, receipt)
	if err != nil {
		log.Warn("confirmation email failed", zap.Uint("order_id", o.ID), zap.Error(err))
	}
}

// Total is the authoritative amount of a set of line items.
func Total(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, li := range items {
		total = total.Add(li.Price)
	}
	return total
}

// LineItemFor prices a course through the pricing resolver.
func LineItemFor(courseID uint, title string, terms pricing.Terms, modeID, attemptID *uint) LineItem {
	return LineItem{
		CourseID:  courseID,
		Title:     title,
		Price:     pricing.ResolvePrice(terms),
		ModeID:    modeID,
		AttemptID: attemptID,
	}
}
