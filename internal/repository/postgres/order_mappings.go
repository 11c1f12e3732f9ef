package postgres

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/domain"
	"github.com/jafarshop/ttsbridge/pkg/errors"
)

type orderMappingRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderMappingRepository creates a new order mapping repository
func NewOrderMappingRepository(db *sql.DB, logger *zap.Logger) *orderMappingRepository {
	return &orderMappingRepository{
		db:     db,
		logger: logger,
	}
}

func (r *orderMappingRepository) GetByTTSOrderID(ctx context.Context, ttsOrderID string) (*domain.OrderMapping, error) {
	query := `
		SELECT tts_order_id, vtex_order_id, shop_id, status, last_error, label_url, created_at, updated_at
		FROM order_mappings
		WHERE tts_order_id = $1
	`

	mapping, err := scanOrderMapping(r.db.QueryRowContext(ctx, query, ttsOrderID))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order mapping", ID: ttsOrderID}
	}
	if err != nil {
		r.logger.Error("Failed to get order mapping", zap.String("tts_order_id", ttsOrderID), zap.Error(err))
		return nil, err
	}

	return mapping, nil
}

func (r *orderMappingRepository) GetByVTEXOrderID(ctx context.Context, shopID, vtexOrderID string) (*domain.OrderMapping, error) {
	query := `
		SELECT tts_order_id, vtex_order_id, shop_id, status, last_error, label_url, created_at, updated_at
		FROM order_mappings
		WHERE shop_id = $1 AND vtex_order_id = $2
	`

	mapping, err := scanOrderMapping(r.db.QueryRowContext(ctx, query, shopID, vtexOrderID))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order mapping", ID: vtexOrderID}
	}
	if err != nil {
		r.logger.Error("Failed to get order mapping by VTEX order", zap.String("vtex_order_id", vtexOrderID), zap.Error(err))
		return nil, err
	}

	return mapping, nil
}

// Upsert inserts or overwrites the mapping row for the TikTok order.
// A null VTEX order id or label URL never erases a stored one.
func (r *orderMappingRepository) Upsert(ctx context.Context, mapping *domain.OrderMapping) error {
	query := `
		INSERT INTO order_mappings (tts_order_id, vtex_order_id, shop_id, status, last_error, label_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (tts_order_id) DO UPDATE SET
			vtex_order_id = COALESCE(EXCLUDED.vtex_order_id, order_mappings.vtex_order_id),
			shop_id = EXCLUDED.shop_id,
			status = EXCLUDED.status,
			last_error = EXCLUDED.last_error,
			label_url = COALESCE(EXCLUDED.label_url, order_mappings.label_url),
			updated_at = EXCLUDED.updated_at
	`

	now := time.Now()
	_, err := r.db.ExecContext(ctx, query,
		mapping.TTSOrderID,
		mapping.VTEXOrderID,
		mapping.ShopID,
		mapping.Status,
		mapping.LastError,
		mapping.LabelURL,
		now,
	)
	if err != nil {
		r.logger.Error("Failed to upsert order mapping", zap.String("tts_order_id", mapping.TTSOrderID), zap.Error(err))
		return err
	}

	mapping.UpdatedAt = now
	if mapping.CreatedAt.IsZero() {
		mapping.CreatedAt = now
	}
	return nil
}

func (r *orderMappingRepository) UpdateStatus(ctx context.Context, ttsOrderID string, status domain.MappingStatus, lastError *string) error {
	query := `
		UPDATE order_mappings
		SET status = $2, last_error = $3, updated_at = $4
		WHERE tts_order_id = $1
	`

	res, err := r.db.ExecContext(ctx, query, ttsOrderID, status, lastError, time.Now())
	if err != nil {
		r.logger.Error("Failed to update order mapping status", zap.String("tts_order_id", ttsOrderID), zap.Error(err))
		return err
	}

	return expectOneRow(res, "order mapping", ttsOrderID)
}

func (r *orderMappingRepository) UpdateLabelURL(ctx context.Context, ttsOrderID, labelURL string) error {
	query := `
		UPDATE order_mappings
		SET label_url = $2, last_error = NULL, updated_at = $3
		WHERE tts_order_id = $1
	`

	res, err := r.db.ExecContext(ctx, query, ttsOrderID, labelURL, time.Now())
	if err != nil {
		r.logger.Error("Failed to update order mapping label", zap.String("tts_order_id", ttsOrderID), zap.Error(err))
		return err
	}

	return expectOneRow(res, "order mapping", ttsOrderID)
}

func scanOrderMapping(row *sql.Row) (*domain.OrderMapping, error) {
	var mapping domain.OrderMapping
	var vtexOrderID, lastError, labelURL sql.NullString

	err := row.Scan(
		&mapping.TTSOrderID,
		&vtexOrderID,
		&mapping.ShopID,
		&mapping.Status,
		&lastError,
		&labelURL,
		&mapping.CreatedAt,
		&mapping.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	mapping.VTEXOrderID = nullString(vtexOrderID)
	mapping.LastError = nullString(lastError)
	mapping.LabelURL = nullString(labelURL)

	return &mapping, nil
}

func expectOneRow(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &errors.ErrNotFound{Resource: resource, ID: id}
	}
	return nil
}
