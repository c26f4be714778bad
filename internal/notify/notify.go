// Package notify sends transactional email through SendGrid.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"

	"coursecart-be/internal/logger"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const (
	defaultHost = "https://api.sendgrid.com"
	endpoint    = "/v3/mail/send"
)

type Recipient struct {
	Name  string
	Email string
}

// Receipt is the content of an enrollment confirmation.
type Receipt struct {
	OrderID   uint
	PaymentID string
	Amount    string
	Currency  string
	Courses   []string
}

type Mailer interface {
	SendEnrollmentConfirmation(ctx context.Context, to Recipient, r Receipt) error
}

type sendgridMailer struct {
	key  string
	host string
	from *sgmail.Email
}

// NewMailer returns a SendGrid mailer, or a logging no-op when no API key is
// configured.
func NewMailer(apiKey, from string) Mailer {
	if apiKey == "" {
		return LogMailer{}
	}
	return newSendgridMailer(apiKey, from, defaultHost)
}

func newSendgridMailer(apiKey, from, host string) *sendgridMailer {
	return &sendgridMailer{
		key:  apiKey,
		host: host,
		from: sgmail.NewEmail("CourseCart", from),
	}
}

var confirmationHTML = template.Must(template.New("confirmation").Parse(`
<p>Hi {{.Name}},</p>
<p>Your payment for order #{{.Receipt.OrderID}} ({{.Receipt.Currency}} {{.Receipt.Amount}}) was received.
You are now enrolled in:</p>
<ul>{{range .Receipt.Courses}}<li>{{.}}</li>{{end}}</ul>
`))

func (m *sendgridMailer) prepare(to Recipient, r Receipt) (*sgmail.SGMailV3, error) {
	var html bytes.Buffer
	err := confirmationHTML.Execute(&html, struct {
		Name    string
		Receipt Receipt
	}{to.Name, r})
	if err != nil {
		return nil, err
	}

	text := fmt.Sprintf("Hi %s, your payment for order #%d (%s %s) was received. Enrolled courses: %v",
		to.Name, r.OrderID, r.Currency, r.Amount, r.Courses)

	return sgmail.NewSingleEmail(
		m.from,
		fmt.Sprintf("Enrollment confirmed for order #%d", r.OrderID),
		sgmail.NewEmail(to.Name, to.Email),
		text,
		html.String(),
	), nil
}

func (m *sendgridMailer) SendEnrollmentConfirmation(ctx context.Context, to Recipient, r Receipt) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "notify"),
		zap.Uint("order_id", r.OrderID),
	)

	msg, err := m.prepare(to, r)
	if err != nil {
		log.Error("render email failed", zap.Error(err))
		return err
	}

	req := sendgrid.GetRequest(m.key, endpoint, m.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(msg)

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		log.Error("sending email failed", zap.Error(err))
		return err
	}
	if res.StatusCode >= http.StatusBadRequest {
		log.Error("sending email rejected",
			zap.Int("status", res.StatusCode),
			zap.String("body", res.Body),
		)
		return fmt.Errorf("sendgrid status %d", res.StatusCode)
	}

	log.Info("confirmation email sent")
	return nil
}

// LogMailer only logs; used when SendGrid is not configured.
type LogMailer struct{}

func (LogMailer) SendEnrollmentConfirmation(ctx context.Context, to Recipient, r Receipt) error {
	logger.FromCtx(ctx).Info("email delivery disabled, skipping confirmation",
		zap.Uint("order_id", r.OrderID),
		zap.Int("courses", len(r.Courses)),
	)
	return nil
}
