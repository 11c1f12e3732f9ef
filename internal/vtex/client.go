package vtex

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jafarshop/ttsbridge/internal/config"
	"github.com/jafarshop/ttsbridge/internal/domain"
	"github.com/jafarshop/ttsbridge/pkg/errors"
)

const defaultEnvironment = "vtexcommercestable"

// Client talks to the VTEX checkout, fulfillment and OMS APIs.
// Credentials and sales channel come from the shop passed to each call.
type Client struct {
	http        *resty.Client
	limiter     *rate.Limiter
	environment string
	baseURL     string
	logger      *zap.Logger
}

type Option func(*Client)

// WithBaseURL sends every request to a fixed host instead of the account host
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// NewClient creates a new VTEX REST client
func NewClient(cfg config.VTEXConfig, logger *zap.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limit := rate.Inf
	burst := 1
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = int(math.Ceil(cfg.RateLimit))
	}

	environment := cfg.Environment
	if environment == "" {
		environment = defaultEnvironment
	}

	c := &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("Accept", "application/json").
			SetHeader("Content-Type", "application/json"),
		limiter:     rate.NewLimiter(limit, burst),
		environment: environment,
		logger:      logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Simulate prices the basket and lists shipping options for the destination
func (c *Client) Simulate(ctx context.Context, shop *domain.Shop, req SimulationRequest) (*SimulationResponse, error) {
	r, err := c.request(ctx, shop)
	if err != nil {
		return nil, err
	}

	resp, err := r.SetQueryParams(channelParams(shop)).
		SetBody(req).
		Post(c.baseURLFor(shop) + "/api/checkout/pub/orderForms/simulation")
	if err != nil {
		return nil, fmt.Errorf("failed to execute simulation request: %w", err)
	}
	if resp.IsError() {
		return nil, statusError("simulation", resp)
	}

	var out SimulationResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal simulation response: %w", err)
	}

	c.logger.Debug("VTEX simulation completed",
		zap.String("shop_id", shop.ID),
		zap.Int("items", len(out.Items)),
		zap.Int("logistics", len(out.LogisticsInfo)),
	)

	return &out, nil
}

// CreateOrder places a marketplace order. A refusal is returned as *RejectionError.
func (c *Client) CreateOrder(ctx context.Context, shop *domain.Shop, payload *OrderPayload) (*CreatedOrder, error) {
	r, err := c.request(ctx, shop)
	if err != nil {
		return nil, err
	}

	resp, err := r.SetQueryParams(channelParams(shop)).
		SetBody([]*OrderPayload{payload}).
		Post(c.baseURLFor(shop) + "/api/fulfillment/pvt/orders")
	if err != nil {
		return nil, fmt.Errorf("failed to execute create order request: %w", err)
	}
	if resp.IsError() {
		rej := newRejectionError(resp.StatusCode(), resp.Body())
		c.logger.Warn("VTEX rejected order",
			zap.String("marketplace_order_id", payload.MarketplaceOrderID),
			zap.String("kind", string(rej.Kind)),
			zap.String("code", rej.Code),
			zap.Int("status", rej.StatusCode),
		)
		return nil, rej
	}

	created, err := parseCreatedOrder(resp.Body())
	if err != nil {
		return nil, err
	}

	return created, nil
}

// AuthorizeDispatch releases a placed order for handling
func (c *Client) AuthorizeDispatch(ctx context.Context, shop *domain.Shop, orderID, marketplaceOrderID string) error {
	r, err := c.request(ctx, shop)
	if err != nil {
		return err
	}

	resp, err := r.SetQueryParams(channelParams(shop)).
		SetBody(map[string]string{"marketplaceOrderId": marketplaceOrderID}).
		Post(c.baseURLFor(shop) + "/api/fulfillment/pvt/orders/" + url.PathEscape(orderID) + "/fulfill")
	if err != nil {
		return fmt.Errorf("failed to execute authorize dispatch request: %w", err)
	}
	if resp.IsError() {
		return statusError("authorize dispatch", resp)
	}

	return nil
}

// SendInvoice registers invoice and tracking data on the order
func (c *Client) SendInvoice(ctx context.Context, shop *domain.Shop, orderID string, invoice Invoice) error {
	if invoice.Type == "" {
		invoice.Type = "Output"
	}

	r, err := c.request(ctx, shop)
	if err != nil {
		return err
	}

	resp, err := r.SetBody(invoice).
		Post(c.baseURLFor(shop) + "/api/oms/pvt/orders/" + url.PathEscape(orderID) + "/invoice")
	if err != nil {
		return fmt.Errorf("failed to execute invoice request: %w", err)
	}
	if resp.IsError() {
		return statusError("invoice", resp)
	}

	return nil
}

// GetOrder reads the OMS order, including attached invoices
func (c *Client) GetOrder(ctx context.Context, shop *domain.Shop, orderID string) (*Order, error) {
	r, err := c.request(ctx, shop)
	if err != nil {
		return nil, err
	}

	resp, err := r.Get(c.baseURLFor(shop) + "/api/oms/pvt/orders/" + url.PathEscape(orderID))
	if err != nil {
		return nil, fmt.Errorf("failed to execute get order request: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, &errors.ErrNotFound{Resource: "vtex order", ID: orderID}
	}
	if resp.IsError() {
		return nil, statusError("get order", resp)
	}

	var order Order
	if err := json.Unmarshal(resp.Body(), &order); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order: %w", err)
	}

	return &order, nil
}

func (c *Client) request(ctx context.Context, shop *domain.Shop) (*resty.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("vtex rate limiter: %w", err)
	}

	return c.http.R().
		SetContext(ctx).
		SetHeader("X-VTEX-API-AppKey", shop.VTEXAppKey).
		SetHeader("X-VTEX-API-AppToken", shop.VTEXAppToken), nil
}

func (c *Client) baseURLFor(shop *domain.Shop) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	env := shop.VTEXEnvironment
	if env == "" {
		env = c.environment
	}
	return fmt.Sprintf("https://%s.%s.com.br", shop.VTEXAccount, env)
}

func channelParams(shop *domain.Shop) map[string]string {
	params := make(map[string]string)
	if shop.SalesChannel != "" {
		params["sc"] = shop.SalesChannel
	}
	if shop.AffiliateID != "" {
		params["affiliateId"] = shop.AffiliateID
	}
	return params
}

func parseCreatedOrder(body []byte) (*CreatedOrder, error) {
	var list []CreatedOrder
	if err := json.Unmarshal(body, &list); err == nil {
		if len(list) > 0 && list[0].OrderID != "" {
			return &list[0], nil
		}
		return nil, fmt.Errorf("create order response has no order id: %s", truncate(string(body)))
	}

	var single CreatedOrder
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, fmt.Errorf("failed to unmarshal create order response: %w", err)
	}
	if single.OrderID == "" {
		return nil, fmt.Errorf("create order response has no order id: %s", truncate(string(body)))
	}
	return &single, nil
}

func statusError(op string, resp *resty.Response) error {
	return fmt.Errorf("vtex %s error: status %d, body: %s", op, resp.StatusCode(), truncate(resp.String()))
}

func truncate(s string) string {
	const max = 512
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
