package webhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"coursecart-be/internal/apperr"
	"coursecart-be/internal/logger"
	"coursecart-be/internal/metrics"
	"coursecart-be/internal/order"
	"coursecart-be/internal/payment"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	HeaderSignature = "X-Razorpay-Signature"
	HeaderEventID   = "X-Razorpay-Event-Id"

	EventPaymentCaptured = "payment.captured"
	EventOrderPaid       = "order.paid"
	EventPaymentFailed   = "payment.failed"

	maxBodyBytes = 1 << 20
)

// OrderUpdater is the slice of the order service a webhook can drive.
type OrderUpdater interface {
	ConfirmPayment(ctx context.Context, razorpayOrderID, paymentID string) (*order.Order, error)
	MarkFailed(ctx context.Context, razorpayOrderID string) error
}

type Handler struct {
	orders   OrderUpdater
	gateway  payment.Gateway
	payments payment.Repository
	metrics  *metrics.Metrics
}

func NewWebhookHandler(orders OrderUpdater, gateway payment.Gateway, payments payment.Repository, m *metrics.Metrics) *Handler {
	return &Handler{
		orders:   orders,
		gateway:  gateway,
		payments: payments,
		metrics:  m,
	}
}

type ackResponse struct {
	Status string `json:"status"`
}

// Razorpay handles POST /webhook/razorpay.
func (h *Handler) Razorpay(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromCtx(ctx).With(zap.String("layer", "webhook"))

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}

	if err := h.gateway.VerifyWebhookSignature(body, c.Request().Header.Get(HeaderSignature)); err != nil {
		log.Warn("webhook signature rejected")
		h.metrics.ObserveWebhook("unknown", "invalid_signature")
		return err
	}

	var evt payment.WebhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		h.metrics.ObserveWebhook("unknown", "bad_payload")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	eventID := c.Request().Header.Get(HeaderEventID)
	if eventID == "" {
		sum := sha256.Sum256(body)
		eventID = "sha256:" + hex.EncodeToString(sum[:])
	}

	log = log.With(
		zap.String("event", evt.Event),
		zap.String("event_id", eventID),
		zap.String("razorpay_order_id", evt.OrderID()),
	)

	webhookID, duplicate, err := h.payments.SaveWebhook(ctx, eventID, evt.Event, evt.OrderID(), body)
	if err != nil {
		log.Error("failed to store webhook", zap.Error(err))
		h.metrics.ObserveWebhook(evt.Event, "store_error")
		return err
	}
	if duplicate {
		log.Info("duplicate webhook ignored")
		h.metrics.ObserveWebhook(evt.Event, "duplicate")
		return c.JSON(http.StatusOK, ackResponse{Status: "duplicate"})
	}

	result, err := h.dispatch(ctx, &evt)
	if err != nil {
		if markErr := h.payments.MarkWebhookFailed(ctx, webhookID, err.Error()); markErr != nil {
			log.Error("failed to mark webhook failed", zap.Error(markErr))
		}
		h.metrics.ObserveWebhook(evt.Event, "error")

		// Only infrastructure failures are worth a provider retry.
		if apperr.Is(err, apperr.Persistence) || apperr.KindOf(err) == apperr.Internal {
			log.Error("webhook processing failed", zap.Error(err))
			return err
		}
		log.Warn("webhook rejected", zap.Error(err))
		return c.JSON(http.StatusOK, ackResponse{Status: "rejected"})
	}

	if err := h.payments.MarkWebhookProcessed(ctx, webhookID); err != nil {
		log.Error("failed to mark webhook processed", zap.Error(err))
	}
	h.metrics.ObserveWebhook(evt.Event, result)
	log.Info("webhook processed", zap.String("result", result))

	return c.JSON(http.StatusOK, ackResponse{Status: result})
}

func (h *Handler) dispatch(ctx context.Context, evt *payment.WebhookEvent) (string, error) {
	orderID := evt.OrderID()

	switch evt.Event {
	case EventPaymentCaptured, EventOrderPaid:
		if orderID == "" {
			return "", apperr.FieldError("order_id", "webhook without order id")
		}
		if _, err := h.orders.ConfirmPayment(ctx, orderID, evt.PaymentID()); err != nil {
			return "", err
		}
		return "completed", nil

	case EventPaymentFailed:
		if orderID == "" {
			return "", apperr.FieldError("order_id", "webhook without order id")
		}
		err := h.orders.MarkFailed(ctx, orderID)
		if errors.Is(err, order.ErrInvalidTransition) {
			// a later attempt on the same order may already have succeeded
			return "ignored", nil
		}
		if err != nil {
			return "", err
		}
		return "failed", nil

	default:
		return "ignored", nil
	}
}
