package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"coursecart-be/internal/logger"
	"coursecart-be/internal/metrics"
	"coursecart-be/internal/utils"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultRazorpayBaseURL = "https://api.razorpay.com"
	gatewayTimeout         = 15 * time.Second
)

type RazorpayConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	BaseURL       string
}

type razorpayGateway struct {
	client        *resty.Client
	keySecret     string
	webhookSecret string
	metrics       *metrics.Metrics
}

// ----------------- Constructor -----------------

func NewRazorpayGateway(cfg RazorpayConfig, m *metrics.Metrics) Gateway {
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		logger.L().Warn("Razorpay credentials are empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultRazorpayBaseURL
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetBasicAuth(cfg.KeyID, cfg.KeySecret).
		SetTimeout(gatewayTimeout).
		SetHeader("Content-Type", "application/json")

	return &razorpayGateway{
		client:        client,
		keySecret:     cfg.KeySecret,
		webhookSecret: cfg.WebhookSecret,
		metrics:       m,
	}
}

// ----------------- CreateOrder -----------------

// CreateOrder is a single fail-fast call; it is never retried here.
func (g *razorpayGateway) CreateOrder(ctx context.Context, amount decimal.Decimal, currency string) (*ProviderOrder, error) {
	const op = "orders.create"

	reqBody := razorpayOrderRequest{
		Amount:   ToMinorUnits(amount),
		Currency: currency,
		Receipt:  utils.GenerateReceipt(),
	}
	if rid := logger.RequestIDFrom(ctx); rid != "" {
		reqBody.Notes = map[string]string{"request_id": rid}
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "gateway"),
		zap.String("op", op),
		zap.Int64("amount_minor", reqBody.Amount),
		zap.String("currency", currency),
		zap.String("receipt", reqBody.Receipt),
	)

	var (
		result  razorpayOrderResponse
		failure razorpayErrorResponse
	)

	timer := metrics.StartTimer()
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&result).
		SetError(&failure).
		Post("/v1/orders")
	if err != nil {
		g.metrics.ObserveGateway(op, "transport_error", timer.Duration())
		log.Error("Razorpay request failed", zap.Error(err))
		return nil, &GatewayError{Op: op, Err: err}
	}

	if resp.IsError() || resp.StatusCode() != http.StatusOK {
		g.metrics.ObserveGateway(op, "rejected", timer.Duration())
		log.Error("Razorpay returned non-success status",
			zap.Int("status", resp.StatusCode()),
			zap.ByteString("response", resp.Body()),
		)
		return nil, &GatewayError{
			Op:          op,
			StatusCode:  resp.StatusCode(),
			Code:        failure.Error.Code,
			Description: failure.Error.Description,
		}
	}

	if result.ID == "" {
		g.metrics.ObserveGateway(op, "bad_response", timer.Duration())
		log.Error("Razorpay response missing order id", zap.ByteString("response", resp.Body()))
		return nil, &GatewayError{Op: op, Description: "response without order id"}
	}

	g.metrics.ObserveGateway(op, "ok", timer.Duration())
	log.Info("Razorpay order created", zap.String("razorpay_order_id", result.ID))

	return &ProviderOrder{
		ID:          result.ID,
		AmountMinor: result.Amount,
		Currency:    result.Currency,
		Receipt:     result.Receipt,
		Status:      result.Status,
	}, nil
}

// ----------------- Signatures -----------------

func sign(secret string, parts ...[]byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	for _, p := range parts {
		mac.Write(p)
	}
	return hex.EncodeToString(mac.Sum(nil))
}

func verify(expected, got string) bool {
	return got != "" && hmac.Equal([]byte(expected), []byte(got))
}

// VerifyPaymentSignature checks the checkout callback signature,
// HMAC-SHA256(order_id + "|" + payment_id) keyed with the API secret.
func (g *razorpayGateway) VerifyPaymentSignature(orderID, paymentID, signature string) error {
	expected := sign(g.keySecret, []byte(orderID+"|"+paymentID))
	if !verify(expected, signature) {
		return ErrInvalidSignature
	}
	return nil
}

// VerifyWebhookSignature checks X-Razorpay-Signature against the raw body.
func (g *razorpayGateway) VerifyWebhookSignature(body []byte, signature string) error {
	if g.webhookSecret == "" {
		return ErrInvalidSignature
	}
	if !verify(sign(g.webhookSecret, body), signature) {
		return ErrInvalidSignature
	}
	return nil
}
