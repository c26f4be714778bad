package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"coursecart-be/internal/apperr"
	"coursecart-be/internal/metrics"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRoundTripper allows us to mock the HTTP response
type MockRoundTripper func(req *http.Request) *http.Response

func (f MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

type MockRoundTripperWithError func(req *http.Request) (*http.Response, error)

func (f MockRoundTripperWithError) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     h,
	}
}

func newTestGateway() *razorpayGateway {
	return NewRazorpayGateway(RazorpayConfig{
		KeyID:         "rzp_test_key",
		KeySecret:     "key-secret",
		WebhookSecret: "hook-secret",
	}, metrics.New()).(*razorpayGateway)
}

func TestRazorpayGateway_CreateOrder(t *testing.T) {
	gw := newTestGateway()
	amount := decimal.RequireFromString("1499.50")

	t.Run("Success", func(t *testing.T) {
		gw.client.SetTransport(MockRoundTripper(func(req *http.Request) *http.Response {
			assert.Equal(t, http.MethodPost, req.Method)
			assert.Equal(t, "https://api.razorpay.com/v1/orders", req.URL.String())

			user, pass, ok := req.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "rzp_test_key", user)
			assert.Equal(t, "key-secret", pass)

			var body razorpayOrderRequest
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, int64(149950), body.Amount)
			assert.Equal(t, "INR", body.Currency)
			assert.NotEmpty(t, body.Receipt)

			return jsonResponse(http.StatusOK, `{
				"id": "order_Abc123",
				"entity": "order",
				"amount": 149950,
				"currency": "INR",
				"receipt": "rcpt_1",
				"status": "created"
			}`)
		}))

		po, err := gw.CreateOrder(context.Background(), amount, "INR")
		require.NoError(t, err)
		assert.Equal(t, "order_Abc123", po.ID)
		assert.Equal(t, int64(149950), po.AmountMinor)
		assert.Equal(t, "created", po.Status)
	})

	t.Run("Rejected", func(t *testing.T) {
		gw.client.SetTransport(MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusBadRequest,
				`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount exceeds maximum"}}`)
		}))

		_, err := gw.CreateOrder(context.Background(), amount, "INR")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrGateway)
		assert.Equal(t, apperr.PaymentGateway, apperr.KindOf(err))

		var gwErr *GatewayError
		require.True(t, errors.As(err, &gwErr))
		assert.Equal(t, http.StatusBadRequest, gwErr.StatusCode)
		assert.Equal(t, "BAD_REQUEST_ERROR", gwErr.Code)
		assert.Equal(t, "amount exceeds maximum", gwErr.Description)
	})

	t.Run("NetworkError", func(t *testing.T) {
		boom := errors.New("connection reset")
		gw.client.SetTransport(MockRoundTripperWithError(func(req *http.Request) (*http.Response, error) {
			return nil, boom
		}))

		_, err := gw.CreateOrder(context.Background(), amount, "INR")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrGateway)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("MissingOrderID", func(t *testing.T) {
		gw.client.SetTransport(MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusOK, `{"amount":149950}`)
		}))

		_, err := gw.CreateOrder(context.Background(), amount, "INR")
		assert.ErrorIs(t, err, ErrGateway)
	})
}

func TestRazorpayGateway_Signatures(t *testing.T) {
	gw := newTestGateway()

	t.Run("PaymentSignature", func(t *testing.T) {
		sig := sign("key-secret", []byte("order_1|pay_1"))

		assert.NoError(t, gw.VerifyPaymentSignature("order_1", "pay_1", sig))
		assert.ErrorIs(t, gw.VerifyPaymentSignature("order_1", "pay_2", sig), ErrInvalidSignature)
		assert.ErrorIs(t, gw.VerifyPaymentSignature("order_1", "pay_1", ""), ErrInvalidSignature)
	})

	t.Run("WebhookSignature", func(t *testing.T) {
		body := []byte(`{"event":"payment.captured"}`)
		sig := sign("hook-secret", body)

		assert.NoError(t, gw.VerifyWebhookSignature(body, sig))
		assert.ErrorIs(t, gw.VerifyWebhookSignature([]byte(`{}`), sig), ErrInvalidSignature)
	})

	t.Run("NoWebhookSecret", func(t *testing.T) {
		noSecret := NewRazorpayGateway(RazorpayConfig{KeyID: "k", KeySecret: "s"}, nil)
		assert.ErrorIs(t, noSecret.VerifyWebhookSignature([]byte(`{}`), "abc"), ErrInvalidSignature)
	})
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(100000), ToMinorUnits(decimal.NewFromInt(1000)))
	assert.Equal(t, int64(1999), ToMinorUnits(decimal.RequireFromString("19.99")))
	assert.Equal(t, int64(1000), ToMinorUnits(decimal.RequireFromString("9.995")))
	assert.Equal(t, int64(0), ToMinorUnits(decimal.Zero))
}
