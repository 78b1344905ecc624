package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"booking_service/internal/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrDuplicateReference  = errors.New("transaction reference already exists")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAlreadyResolved     = errors.New("transaction already resolved")
	ErrInvalidTransaction  = errors.New("invalid transaction")
)

// TransactionLog records payment attempts. Methods taking a tx use it when
// non-nil and the log's own handle otherwise.
type TransactionLog interface {
	Open(ctx context.Context, tx *gorm.DB, p OpenParams) (*Transaction, error)
	MarkSuccessful(ctx context.Context, tx *gorm.DB, reference string, meta map[string]any) (*Transaction, error)
	MarkFailed(ctx context.Context, tx *gorm.DB, reference string, meta map[string]any) (*Transaction, error)
	MarkCancelled(ctx context.Context, tx *gorm.DB, reference string, meta map[string]any) (*Transaction, error)
	MergeMetadata(ctx context.Context, tx *gorm.DB, reference string, meta map[string]any) error
	GetByReference(ctx context.Context, reference string) (*Transaction, error)
	GetForUpdate(ctx context.Context, tx *gorm.DB, reference string) (*Transaction, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]Transaction, error)
	RecordRefund(ctx context.Context, tx *gorm.DB, userID string, coins int64, bookingReference string) error
}

type TransactionLogImpl struct {
	db *gorm.DB
}

func NewTransactionLog(db *gorm.DB) *TransactionLogImpl {
	return &TransactionLogImpl{db: db}
}

// NewReference returns "GT_" followed by 16 upper-case hex characters.
func NewReference() string {
	return "GT_" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
}

func (l *TransactionLogImpl) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return l.db.WithContext(ctx)
}

func (l *TransactionLogImpl) Open(ctx context.Context, tx *gorm.DB, p OpenParams) (*Transaction, error) {
	switch p.Type {
	case TypeSubscription, TypeBooking, TypeRefund:
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, p.Type)
	}
	if p.UserID == "" {
		return nil, fmt.Errorf("%w: user is required", ErrInvalidTransaction)
	}
	if p.Amount.IsNegative() || p.CoinsInvolved < 0 {
		return nil, fmt.Errorf("%w: negative amount", ErrInvalidTransaction)
	}

	status := p.Status
	if status == "" {
		status = StatusPending
	}
	reference := p.Reference
	if reference == "" {
		reference = NewReference()
	}
	meta := datatypes.JSONMap{}
	for k, v := range p.Metadata {
		meta[k] = v
	}

	t := &Transaction{
		ID:                 uuid.New().String(),
		UserID:             p.UserID,
		Type:               p.Type,
		Amount:             p.Amount.Round(2),
		CoinsInvolved:      p.CoinsInvolved,
		Reference:          reference,
		Status:             status,
		Metadata:           meta,
		SubscriptionTierID: p.SubscriptionTierID,
		GameID:             p.GameID,
		Description:        p.Description,
	}
	if err := l.conn(ctx, tx).Create(t).Error; err != nil {
		if database.IsUniqueViolation(err, "") {
			return nil, ErrDuplicateReference
		}
		return nil, fmt.Errorf("failed to open transaction: %w", err)
	}
	return t, nil
}

func (l *TransactionLogImpl) MarkSuccessful(ctx context.Context, tx *gorm.DB, reference string, meta map[string]any) (*Transaction, error) {
	return l.resolve(ctx, tx, reference, StatusSuccess, meta)
}

func (l *TransactionLogImpl) MarkFailed(ctx context.Context, tx *gorm.DB, reference string, meta map[string]any) (*Transaction, error) {
	return l.resolve(ctx, tx, reference, StatusFailed, meta)
}

func (l *TransactionLogImpl) MarkCancelled(ctx context.Context, tx *gorm.DB, reference string, meta map[string]any) (*Transaction, error) {
	return l.resolve(ctx, tx, reference, StatusCancelled, meta)
}

// resolve moves a pending transaction to status. The status predicate in the
// UPDATE is what makes resolution one-way.
func (l *TransactionLogImpl) resolve(ctx context.Context, tx *gorm.DB, reference, status string, meta map[string]any) (*Transaction, error) {
	patch, err := metadataPatch(meta)
	if err != nil {
		return nil, err
	}

	db := l.conn(ctx, tx)
	result := db.Model(&Transaction{}).
		Where("reference = ? AND status = ?", reference, StatusPending).
		Updates(map[string]interface{}{
			"status":     status,
			"metadata":   gorm.Expr("metadata || ?::jsonb", patch),
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to resolve transaction: %w", result.Error)
	}

	var t Transaction
	if err := db.Where("reference = ?", reference).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	if result.RowsAffected == 0 {
		return &t, ErrAlreadyResolved
	}
	return &t, nil
}

// MergeMetadata adds keys to the metadata blob without touching status.
func (l *TransactionLogImpl) MergeMetadata(ctx context.Context, tx *gorm.DB, reference string, meta map[string]any) error {
	patch, err := metadataPatch(meta)
	if err != nil {
		return err
	}
	result := l.conn(ctx, tx).
		Model(&Transaction{}).
		Where("reference = ?", reference).
		Updates(map[string]interface{}{
			"metadata":   gorm.Expr("metadata || ?::jsonb", patch),
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to merge metadata: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (l *TransactionLogImpl) GetByReference(ctx context.Context, reference string) (*Transaction, error) {
	var t Transaction
	err := l.db.WithContext(ctx).Where("reference = ?", reference).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &t, nil
}

func (l *TransactionLogImpl) GetForUpdate(ctx context.Context, tx *gorm.DB, reference string) (*Transaction, error) {
	var t Transaction
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reference = ?", reference).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to lock transaction: %w", err)
	}
	return &t, nil
}

func (l *TransactionLogImpl) ListForUser(ctx context.Context, userID string, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var txs []Transaction
	err := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// RecordRefund writes an already-settled refund entry for a cancelled booking.
func (l *TransactionLogImpl) RecordRefund(ctx context.Context, tx *gorm.DB, userID string, coins int64, bookingReference string) error {
	_, err := l.Open(ctx, tx, OpenParams{
		UserID:        userID,
		Type:          TypeRefund,
		Amount:        decimal.Zero,
		CoinsInvolved: coins,
		Status:        StatusSuccess,
		Description:   "Refund for booking " + bookingReference,
		Metadata:      map[string]any{"booking_reference": bookingReference},
	})
	return err
}

func metadataPatch(meta map[string]any) (string, error) {
	if meta == nil {
		meta = map[string]any{}
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	return string(b), nil
}
