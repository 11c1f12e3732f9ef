package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/domain"
)

type orderEventRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderEventRepository creates a new order event repository
func NewOrderEventRepository(db *sql.DB, logger *zap.Logger) *orderEventRepository {
	return &orderEventRepository{
		db:     db,
		logger: logger,
	}
}

func (r *orderEventRepository) Create(ctx context.Context, event *domain.OrderEvent) error {
	query := `
		INSERT INTO order_events (id, tts_order_id, event_type, event_data, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var data []byte
	if event.EventData != nil {
		var err error
		data, err = json.Marshal(event.EventData)
		if err != nil {
			return err
		}
	}

	_, err := r.db.ExecContext(ctx, query, event.ID, event.TTSOrderID, event.EventType, data, event.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create order event", zap.String("tts_order_id", event.TTSOrderID), zap.Error(err))
		return err
	}

	return nil
}
