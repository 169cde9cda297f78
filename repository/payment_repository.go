package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/LakshanUd/sl-go-tour-backend/models"
)

// PaymentRepository is the ledger of hosted checkout sessions.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindBySessionID(ctx context.Context, sessionID string) (*models.Payment, error)
	MarkSucceeded(ctx context.Context, sessionID string, payload *string, at time.Time) error
}

type gormPaymentRepo struct {
	db *gorm.DB
}

func NewGormPaymentRepo(db *gorm.DB) PaymentRepository {
	return &gormPaymentRepo{db: db}
}

func (r *gormPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	return translate(r.db.WithContext(ctx).Create(payment).Error)
}

func (r *gormPaymentRepo) FindBySessionID(ctx context.Context, sessionID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&payment).Error; err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

// MarkSucceeded is a no-op for rows that already succeeded.
func (r *gormPaymentRepo) MarkSucceeded(ctx context.Context, sessionID string, payload *string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("session_id = ? AND status <> ?", sessionID, models.PaymentRowSucceeded).
		Updates(map[string]any{
			"status":        models.PaymentRowSucceeded,
			"event_payload": payload,
			"succeeded_at":  at,
		}).Error
}
