package tiktok

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jafarshop/ttsbridge/internal/config"
	"github.com/jafarshop/ttsbridge/internal/domain"
	"github.com/jafarshop/ttsbridge/pkg/errors"
)

const defaultBaseURL = "https://open-api.tiktokglobalshop.com"

// Client calls the TikTok Shop open API on behalf of a shop
type Client struct {
	http      *resty.Client
	limiter   *rate.Limiter
	baseURL   string
	appKey    string
	appSecret string
	now       func() time.Time
	logger    *zap.Logger
}

// APIError is a non-zero code in the TikTok response envelope
type APIError struct {
	Code       int
	Message    string
	RequestID  string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tiktok API error %d (status %d, request %s): %s", e.Code, e.StatusCode, e.RequestID, e.Message)
}

type envelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

// NewClient creates a new TikTok Shop client
func NewClient(cfg config.TikTokConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	limit := rate.Inf
	burst := 1
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = int(math.Ceil(cfg.RateLimit))
	}

	return &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
		limiter:   rate.NewLimiter(limit, burst),
		baseURL:   baseURL,
		appKey:    cfg.AppKey,
		appSecret: cfg.AppSecret,
		now:       time.Now,
		logger:    logger,
	}
}

// GetOrderDetail fetches one order as the raw decoded object
func (c *Client) GetOrderDetail(ctx context.Context, shop *domain.Shop, orderID string) (OrderDetail, error) {
	data, err := c.do(ctx, shop, http.MethodGet, "/order/202309/orders", map[string]string{"ids": orderID}, nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Orders []OrderDetail `json:"orders"`
	}
	if err := decode(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order detail: %w", err)
	}
	if len(out.Orders) == 0 {
		return nil, &errors.ErrNotFound{Resource: "tiktok order", ID: orderID}
	}

	return out.Orders[0], nil
}

// GetShippingDocument returns the existing label of the order's first package
func (c *Client) GetShippingDocument(ctx context.Context, shop *domain.Shop, orderID string) (*ShippingDocument, error) {
	order, err := c.GetOrderDetail(ctx, shop, orderID)
	if err != nil {
		return nil, err
	}

	packageID := order.PackageID()
	if packageID == "" {
		return nil, &errors.ErrNotFound{Resource: "tiktok package", ID: orderID}
	}

	return c.shippingDocument(ctx, shop, orderID, packageID)
}

// GetOrCreateShippingDocument arranges shipment for the package when no label exists yet
func (c *Client) GetOrCreateShippingDocument(ctx context.Context, shop *domain.Shop, orderID string) (*ShippingDocument, error) {
	order, err := c.GetOrderDetail(ctx, shop, orderID)
	if err != nil {
		return nil, err
	}

	packageID := order.PackageID()
	if packageID == "" {
		return nil, &errors.ErrNotFound{Resource: "tiktok package", ID: orderID}
	}

	doc, err := c.shippingDocument(ctx, shop, orderID, packageID)
	if err == nil && doc.LabelURL != "" {
		return doc, nil
	}
	if err != nil {
		c.logger.Info("No shipping document yet, arranging shipment",
			zap.String("order_id", orderID),
			zap.String("package_id", packageID),
			zap.Error(err),
		)
	}

	path := "/fulfillment/202309/packages/" + packageID + "/ship"
	if _, err := c.do(ctx, shop, http.MethodPost, path, nil, map[string]any{"handover_method": "PICKUP"}); err != nil {
		return nil, fmt.Errorf("failed to arrange shipment for package %s: %w", packageID, err)
	}

	return c.shippingDocument(ctx, shop, orderID, packageID)
}

// GetTracking reads tracking number and carrier from the order detail
func (c *Client) GetTracking(ctx context.Context, shop *domain.Shop, orderID string) (*Tracking, error) {
	order, err := c.GetOrderDetail(ctx, shop, orderID)
	if err != nil {
		return nil, err
	}

	tracking := order.Tracking()
	if tracking.TrackingNumber == "" {
		return nil, &errors.ErrNotFound{Resource: "tracking", ID: orderID}
	}
	return &tracking, nil
}

func (c *Client) shippingDocument(ctx context.Context, shop *domain.Shop, orderID, packageID string) (*ShippingDocument, error) {
	path := "/fulfillment/202309/packages/" + packageID + "/shipping_documents"
	data, err := c.do(ctx, shop, http.MethodGet, path, map[string]string{"document_type": "SHIPPING_LABEL"}, nil)
	if err != nil {
		return nil, err
	}

	var document map[string]any
	if err := decode(data, &document); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shipping document: %w", err)
	}

	labelURL, _ := document["doc_url"].(string)
	return &ShippingDocument{
		OrderID:   orderID,
		PackageID: packageID,
		LabelURL:  labelURL,
		Document:  document,
	}, nil
}

func (c *Client) do(ctx context.Context, shop *domain.Shop, method, path string, query map[string]string, body any) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("tiktok rate limiter: %w", err)
	}

	params := map[string]string{
		"app_key":   c.appKey,
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	if shop.TikTokShopCipher != "" {
		params["shop_cipher"] = shop.TikTokShopCipher
	}
	for k, v := range query {
		params[k] = v
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}
	params["sign"] = c.sign(path, params, payload)

	req := c.http.R().
		SetContext(ctx).
		SetHeader("x-tts-access-token", shop.TikTokAccessToken).
		SetQueryParams(params)
	if payload != nil {
		req.SetBody(payload)
	}

	resp, err := req.Execute(method, c.baseURL+path)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		if resp.IsError() {
			return nil, &APIError{Code: -1, Message: strings.TrimSpace(resp.String()), StatusCode: resp.StatusCode()}
		}
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if env.Code != 0 || resp.IsError() {
		return nil, &APIError{Code: env.Code, Message: env.Message, RequestID: env.RequestID, StatusCode: resp.StatusCode()}
	}

	c.logger.Debug("TikTok request completed", zap.String("path", path), zap.String("request_id", env.RequestID))
	return env.Data, nil
}

// sign computes the open API signature: secret + path + sorted params + body + secret
func (c *Client) sign(path string, params map[string]string, body []byte) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "sign" || k == "access_token" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(c.appSecret)
	b.WriteString(path)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params[k])
	}
	b.Write(body)
	b.WriteString(c.appSecret)

	mac := hmac.New(sha256.New, []byte(c.appSecret))
	mac.Write([]byte(b.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhook checks the Authorization header of a pushed event
func (c *Client) VerifyWebhook(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.appSecret))
	mac.Write([]byte(c.appKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

func decode(data json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
