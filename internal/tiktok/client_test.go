package tiktok

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/config"
	"github.com/jafarshop/ttsbridge/internal/domain"
	pkgerrors "github.com/jafarshop/ttsbridge/pkg/errors"
)

const orderDetailResponse = `{
	"code": 0,
	"message": "Success",
	"request_id": "req-1",
	"data": {"orders": [{
		"id": "order-001",
		"status": "AWAITING_SHIPMENT",
		"packages": [{"id": "pkg-1"}],
		"line_items": [{"sku_id": "sku-001", "product_id": "prod-1", "sale_price": "10.00",
			"tracking_number": "BR123456789", "shipping_provider_name": "Correios"}]
	}]}
}`

func testShop() *domain.Shop {
	return &domain.Shop{ID: "shop-1", TikTokAccessToken: "access", TikTokShopCipher: "cipher"}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(config.TikTokConfig{BaseURL: srv.URL, AppKey: "key", AppSecret: "secret"}, zap.NewNop())
	c.now = func() time.Time { return time.Unix(1700000000, 0) }
	return c
}

func TestClient_GetOrderDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/order/202309/orders", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "order-001", q.Get("ids"))
		assert.Equal(t, "key", q.Get("app_key"))
		assert.Equal(t, "cipher", q.Get("shop_cipher"))
		assert.Equal(t, "1700000000", q.Get("timestamp"))
		assert.NotEmpty(t, q.Get("sign"))
		assert.Equal(t, "access", r.Header.Get("x-tts-access-token"))
		_, _ = io.WriteString(w, orderDetailResponse)
	})

	order, err := client.GetOrderDetail(context.Background(), testShop(), "order-001")

	require.NoError(t, err)
	assert.Equal(t, "order-001", order.ID())
	assert.Equal(t, "AWAITING_SHIPMENT", order.Status())
	assert.False(t, order.IsCancelled())
	assert.Equal(t, "pkg-1", order.PackageID())
	require.Len(t, order.LineItems(), 1)
	assert.Equal(t, "sku-001", String(order.LineItems()[0]["sku_id"]))
}

func TestClient_GetOrderDetail_Errors(t *testing.T) {
	t.Run("empty order list", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"code": 0, "data": {"orders": []}}`)
		})

		_, err := client.GetOrderDetail(context.Background(), testShop(), "order-404")

		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("api error code", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"code": 105001, "message": "invalid access token", "request_id": "req-9"}`)
		})

		_, err := client.GetOrderDetail(context.Background(), testShop(), "order-001")

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 105001, apiErr.Code)
		assert.Equal(t, "req-9", apiErr.RequestID)
	})
}

func TestClient_GetOrCreateShippingDocument(t *testing.T) {
	shipped := false
	docCalls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/order/202309/orders":
			_, _ = io.WriteString(w, orderDetailResponse)
		case "/fulfillment/202309/packages/pkg-1/shipping_documents":
			docCalls++
			if !shipped {
				_, _ = io.WriteString(w, `{"code": 21011001, "message": "package not shipped"}`)
				return
			}
			_, _ = io.WriteString(w, `{"code": 0, "data": {"doc_url": "https://labels.example/pkg-1.pdf"}}`)
		case "/fulfillment/202309/packages/pkg-1/ship":
			assert.Equal(t, http.MethodPost, r.Method)
			shipped = true
			_, _ = io.WriteString(w, `{"code": 0, "data": {}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	doc, err := client.GetOrCreateShippingDocument(context.Background(), testShop(), "order-001")

	require.NoError(t, err)
	assert.True(t, shipped)
	assert.Equal(t, 2, docCalls)
	assert.Equal(t, "https://labels.example/pkg-1.pdf", doc.LabelURL)
	assert.Equal(t, "pkg-1", doc.PackageID)
}

func TestClient_GetOrCreateShippingDocument_Existing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/order/202309/orders":
			_, _ = io.WriteString(w, orderDetailResponse)
		case "/fulfillment/202309/packages/pkg-1/shipping_documents":
			_, _ = io.WriteString(w, `{"code": 0, "data": {"doc_url": "https://labels.example/pkg-1.pdf"}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	doc, err := client.GetOrCreateShippingDocument(context.Background(), testShop(), "order-001")

	require.NoError(t, err)
	assert.Equal(t, "https://labels.example/pkg-1.pdf", doc.LabelURL)
}

func TestClient_GetTracking(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, orderDetailResponse)
	})

	tracking, err := client.GetTracking(context.Background(), testShop(), "order-001")

	require.NoError(t, err)
	assert.Equal(t, "BR123456789", tracking.TrackingNumber)
	assert.Equal(t, "Correios", tracking.Provider)
}

func TestClient_Sign(t *testing.T) {
	client := NewClient(config.TikTokConfig{AppKey: "key", AppSecret: "secret"}, zap.NewNop())

	params := map[string]string{"timestamp": "1", "app_key": "key", "sign": "ignored", "access_token": "ignored"}
	got := client.sign("/order/202309/orders", params, []byte(`{"a":1}`))

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte(`secret/order/202309/ordersapp_keykeytimestamp1{"a":1}secret`))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), got)
}

func TestClient_VerifyWebhook(t *testing.T) {
	client := NewClient(config.TikTokConfig{AppKey: "key", AppSecret: "secret"}, zap.NewNop())
	body := []byte(`{"type":1,"shop_id":"shop-1"}`)

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte("key"))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, client.VerifyWebhook(body, signature))
	assert.False(t, client.VerifyWebhook(body, "deadbeef"))
	assert.False(t, client.VerifyWebhook(body, ""))
}

func TestOrderDetail_IsCancelled(t *testing.T) {
	assert.True(t, OrderDetail{"status": "CANCELLED"}.IsCancelled())
	assert.True(t, OrderDetail{"status": "cancel_requested"}.IsCancelled())
	assert.False(t, OrderDetail{"status": "AWAITING_COLLECTION"}.IsCancelled())
}

func TestString(t *testing.T) {
	assert.Equal(t, "42", String(json.Number("42")))
	assert.Equal(t, "1.5", String(1.5))
	assert.Equal(t, "abc", String("  abc "))
	assert.Equal(t, "", String(nil))
	assert.Equal(t, "", String(map[string]any{}))
}
