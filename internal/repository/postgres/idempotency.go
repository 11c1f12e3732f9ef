package postgres

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/domain"
	"github.com/jafarshop/ttsbridge/internal/repository"
)

type idempotencyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewIdempotencyRepository creates a new idempotency repository
func NewIdempotencyRepository(db *sql.DB, logger *zap.Logger) *idempotencyRepository {
	return &idempotencyRepository{
		db:     db,
		logger: logger,
	}
}

func (r *idempotencyRepository) Exists(ctx context.Context, key string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM idempotency_records WHERE key = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, key).Scan(&exists); err != nil {
		r.logger.Error("Failed to check idempotency record", zap.String("key", key), zap.Error(err))
		return false, err
	}

	return exists, nil
}

// Create relies on the primary key: a concurrent writer of the same key gets ErrDuplicate
func (r *idempotencyRepository) Create(ctx context.Context, record *domain.IdempotencyRecord) error {
	query := `
		INSERT INTO idempotency_records (key, payload_hash, processed_at)
		VALUES ($1, $2, $3)
	`

	if record.ProcessedAt.IsZero() {
		record.ProcessedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query, record.Key, record.PayloadHash, record.ProcessedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		r.logger.Error("Failed to create idempotency record", zap.String("key", record.Key), zap.Error(err))
		return err
	}

	return nil
}
