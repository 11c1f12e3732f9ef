package postgres

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/domain"
	"github.com/jafarshop/ttsbridge/pkg/errors"
)

const shopColumns = `id, name, vtex_account, vtex_environment, vtex_app_key, vtex_app_token,
	sales_channel, affiliate_id, seller_id, payment_system_id, payment_system_name,
	payment_group, payment_merchant, webhook_token, marketplace_services_endpoint,
	preferred_sla_id, defer_label_until_invoice, tiktok_access_token, tiktok_shop_cipher,
	is_active, created_at, updated_at`

type shopRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewShopRepository creates a new shop repository
func NewShopRepository(db *sql.DB, logger *zap.Logger) *shopRepository {
	return &shopRepository{
		db:     db,
		logger: logger,
	}
}

func (r *shopRepository) GetByID(ctx context.Context, id string) (*domain.Shop, error) {
	query := `SELECT ` + shopColumns + ` FROM shops WHERE id = $1`

	shop, err := scanShop(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "shop", ID: id}
	}
	if err != nil {
		r.logger.Error("Failed to get shop by ID", zap.String("shop_id", id), zap.Error(err))
		return nil, err
	}

	return shop, nil
}

func (r *shopRepository) GetByWebhookToken(ctx context.Context, token string) (*domain.Shop, error) {
	query := `SELECT ` + shopColumns + ` FROM shops WHERE webhook_token = $1 AND is_active = true`

	shop, err := scanShop(r.db.QueryRowContext(ctx, query, token))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "shop", ID: "webhook token"}
	}
	if err != nil {
		r.logger.Error("Failed to get shop by webhook token", zap.Error(err))
		return nil, err
	}

	return shop, nil
}

func (r *shopRepository) Create(ctx context.Context, shop *domain.Shop) error {
	query := `
		INSERT INTO shops (` + shopColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`

	now := time.Now()
	if shop.CreatedAt.IsZero() {
		shop.CreatedAt = now
	}
	if shop.UpdatedAt.IsZero() {
		shop.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, query,
		shop.ID,
		shop.Name,
		shop.VTEXAccount,
		shop.VTEXEnvironment,
		shop.VTEXAppKey,
		shop.VTEXAppToken,
		shop.SalesChannel,
		shop.AffiliateID,
		shop.SellerID,
		shop.PaymentSystemID,
		shop.PaymentSystemName,
		shop.PaymentGroup,
		shop.PaymentMerchant,
		shop.WebhookToken,
		shop.MarketplaceServicesEndpoint,
		shop.PreferredSLAID,
		shop.DeferLabelUntilInvoice,
		shop.TikTokAccessToken,
		shop.TikTokShopCipher,
		shop.IsActive,
		shop.CreatedAt,
		shop.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create shop", zap.String("shop_id", shop.ID), zap.Error(err))
		return err
	}

	return nil
}

func scanShop(row *sql.Row) (*domain.Shop, error) {
	var shop domain.Shop
	var paymentSystemName, paymentGroup, paymentMerchant sql.NullString
	var servicesEndpoint, preferredSLA sql.NullString

	err := row.Scan(
		&shop.ID,
		&shop.Name,
		&shop.VTEXAccount,
		&shop.VTEXEnvironment,
		&shop.VTEXAppKey,
		&shop.VTEXAppToken,
		&shop.SalesChannel,
		&shop.AffiliateID,
		&shop.SellerID,
		&shop.PaymentSystemID,
		&paymentSystemName,
		&paymentGroup,
		&paymentMerchant,
		&shop.WebhookToken,
		&servicesEndpoint,
		&preferredSLA,
		&shop.DeferLabelUntilInvoice,
		&shop.TikTokAccessToken,
		&shop.TikTokShopCipher,
		&shop.IsActive,
		&shop.CreatedAt,
		&shop.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	shop.PaymentSystemName = nullString(paymentSystemName)
	shop.PaymentGroup = nullString(paymentGroup)
	shop.PaymentMerchant = nullString(paymentMerchant)
	shop.MarketplaceServicesEndpoint = nullString(servicesEndpoint)
	shop.PreferredSLAID = nullString(preferredSLA)

	return &shop, nil
}
