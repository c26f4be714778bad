package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"coursecart-be/internal/db"
	"coursecart-be/internal/logger"

	"go.uber.org/zap"
)

// Repository stores raw provider webhook deliveries for idempotency and audit.
type Repository interface {
	// SaveWebhook records a verified delivery. A redelivery of an event that
	// was already processed reports isDuplicate; one that previously failed
	// is handed back for another attempt.
	SaveWebhook(
		ctx context.Context,
		eventID string,
		eventType string,
		externalID string,
		payload json.RawMessage,
	) (webhookID int64, isDuplicate bool, err error)

	MarkWebhookProcessed(ctx context.Context, webhookID int64) error
	MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SaveWebhook(
	ctx context.Context,
	eventID string,
	eventType string,
	externalID string,
	payload json.RawMessage,
) (int64, bool, error) {

	const q = `
	INSERT INTO payment_webhooks (
		provider,
		event_id,
		event_type,
		external_id,
		payload
	)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (provider, event_id)
	DO UPDATE SET attempts = payment_webhooks.attempts + 1
	WHERE payment_webhooks.processed_at IS NULL
	RETURNING id;
	`

	var id int64
	err := r.db.QueryRowContext(
		ctx,
		q,
		ProviderRazorpay,
		eventID,
		eventType,
		externalID,
		[]byte(payload),
	).Scan(&id)

	if err != nil {
		// Duplicate webhook → idempotent success
		if errors.Is(err, sql.ErrNoRows) {
			return 0, true, nil
		}
		logger.FromCtx(ctx).Error("save webhook failed",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
		return 0, false, db.Wrap("failed to save webhook", err)
	}

	return id, false, nil
}

func (r *repository) MarkWebhookProcessed(ctx context.Context, webhookID int64) error {
	const q = `
	UPDATE payment_webhooks
	SET processed_at = now(), process_error = NULL
	WHERE id = $1;
	`

	if _, err := r.db.ExecContext(ctx, q, webhookID); err != nil {
		return db.Wrap("failed to mark webhook processed", err)
	}
	return nil
}

func (r *repository) MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error {
	const q = `
	UPDATE payment_webhooks
	SET process_error = $2
	WHERE id = $1;
	`

	if _, err := r.db.ExecContext(ctx, q, webhookID, reason); err != nil {
		return db.Wrap("failed to mark webhook failed", err)
	}
	return nil
}
