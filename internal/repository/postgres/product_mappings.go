package postgres

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/domain"
	"github.com/jafarshop/ttsbridge/pkg/errors"
)

type productMappingRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProductMappingRepository creates a new product mapping repository
func NewProductMappingRepository(db *sql.DB, logger *zap.Logger) *productMappingRepository {
	return &productMappingRepository{
		db:     db,
		logger: logger,
	}
}

func (r *productMappingRepository) GetByTTSSkuID(ctx context.Context, shopID, ttsSkuID string) (*domain.ProductMapping, error) {
	query := `
		SELECT vtex_sku_id, shop_id, tts_product_id, tts_sku_id, status, last_error, created_at, updated_at
		FROM product_mappings
		WHERE shop_id = $1 AND tts_sku_id = $2 AND status <> 'error'
		ORDER BY updated_at DESC
		LIMIT 1
	`

	var m domain.ProductMapping
	var lastError sql.NullString
	err := r.db.QueryRowContext(ctx, query, shopID, ttsSkuID).Scan(
		&m.VTEXSkuID,
		&m.ShopID,
		&m.TTSProductID,
		&m.TTSSkuID,
		&m.Status,
		&lastError,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "product mapping", ID: ttsSkuID}
	}
	if err != nil {
		r.logger.Error("Failed to get product mapping by SKU", zap.String("tts_sku_id", ttsSkuID), zap.Error(err))
		return nil, err
	}
	m.LastError = nullString(lastError)

	return &m, nil
}

func (r *productMappingRepository) ListByTTSProductID(ctx context.Context, shopID, ttsProductID string) ([]*domain.ProductMapping, error) {
	query := `
		SELECT vtex_sku_id, shop_id, tts_product_id, tts_sku_id, status, last_error, created_at, updated_at
		FROM product_mappings
		WHERE shop_id = $1 AND tts_product_id = $2 AND status <> 'error'
		ORDER BY vtex_sku_id
	`

	rows, err := r.db.QueryContext(ctx, query, shopID, ttsProductID)
	if err != nil {
		r.logger.Error("Failed to list product mappings", zap.String("tts_product_id", ttsProductID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	mappings := make([]*domain.ProductMapping, 0)
	for rows.Next() {
		var m domain.ProductMapping
		var lastError sql.NullString
		if err := rows.Scan(
			&m.VTEXSkuID,
			&m.ShopID,
			&m.TTSProductID,
			&m.TTSSkuID,
			&m.Status,
			&lastError,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, err
		}
		m.LastError = nullString(lastError)
		mappings = append(mappings, &m)
	}

	return mappings, rows.Err()
}

func (r *productMappingRepository) CreateAutoMapped(ctx context.Context, mapping *domain.ProductMapping) error {
	query := `
		INSERT INTO product_mappings (vtex_sku_id, shop_id, tts_product_id, tts_sku_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (vtex_sku_id) DO NOTHING
	`

	now := time.Now()
	mapping.Status = domain.ProductMappingStatusAutoMapped
	mapping.CreatedAt = now
	mapping.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		mapping.VTEXSkuID,
		mapping.ShopID,
		mapping.TTSProductID,
		mapping.TTSSkuID,
		mapping.Status,
		now,
	)
	if err != nil {
		r.logger.Error("Failed to create auto mapping", zap.String("vtex_sku_id", mapping.VTEXSkuID), zap.Error(err))
		return err
	}

	return nil
}
