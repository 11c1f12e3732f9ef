package vtex

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/config"
	"github.com/jafarshop/ttsbridge/internal/domain"
	pkgerrors "github.com/jafarshop/ttsbridge/pkg/errors"
)

func testShop() *domain.Shop {
	return &domain.Shop{
		ID:           "shop-1",
		VTEXAccount:  "acct",
		VTEXAppKey:   "app-key",
		VTEXAppToken: "app-token",
		SalesChannel: "1",
		AffiliateID:  "TTS",
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.VTEXConfig{}, zap.NewNop(), WithBaseURL(srv.URL))
}

func TestClient_Simulate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/checkout/pub/orderForms/simulation", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("sc"))
		assert.Equal(t, "TTS", r.URL.Query().Get("affiliateId"))
		assert.Equal(t, "app-key", r.Header.Get("X-VTEX-API-AppKey"))
		assert.Equal(t, "app-token", r.Header.Get("X-VTEX-API-AppToken"))

		var req SimulationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "01001000", req.PostalCode)
		require.Len(t, req.Items, 1)
		assert.Equal(t, "sku-001", req.Items[0].ID)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"items": [{"id": "sku-001", "quantity": 1, "seller": "1", "price": 1000, "sellingPrice": 990,
				"priceTags": [{"name": "discount", "value": -10}]}],
			"logisticsInfo": [{"itemIndex": 0, "slas": [
				{"id": "STANDARD", "name": "STANDARD", "deliveryChannel": "delivery", "price": 0, "shippingEstimate": "5bd"}
			]}]
		}`)
	})

	out, err := client.Simulate(context.Background(), testShop(), SimulationRequest{
		Items:      []SimulationItem{{ID: "sku-001", Quantity: 1, Seller: "1"}},
		PostalCode: "01001000",
		Country:    "BRA",
	})

	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, int64(1000), out.Items[0].Price)
	assert.Equal(t, int64(-10), out.Items[0].PriceTags[0].Value)
	require.Len(t, out.LogisticsInfo, 1)
	assert.Equal(t, "STANDARD", out.LogisticsInfo[0].SLAs[0].ID)
	assert.Nil(t, out.PurchaseConditions)
}

func TestClient_CreateOrder(t *testing.T) {
	t.Run("returns created order id", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/fulfillment/pvt/orders", r.URL.Path)

			var body []OrderPayload
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Len(t, body, 1)
			assert.Equal(t, "order-001", body[0].MarketplaceOrderID)

			_, _ = io.WriteString(w, `[{"orderId": "vtex-001", "marketplaceOrderId": "order-001"}]`)
		})

		created, err := client.CreateOrder(context.Background(), testShop(), &OrderPayload{MarketplaceOrderID: "order-001"})

		require.NoError(t, err)
		assert.Equal(t, "vtex-001", created.OrderID)
	})

	t.Run("accepts single object response", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"orderId": "vtex-002"}`)
		})

		created, err := client.CreateOrder(context.Background(), testShop(), &OrderPayload{MarketplaceOrderID: "order-002"})

		require.NoError(t, err)
		assert.Equal(t, "vtex-002", created.OrderID)
	})

	tests := []struct {
		name     string
		status   int
		body     string
		wantKind RejectionKind
		wantCode string
	}{
		{
			name:     "pricing rejection",
			status:   http.StatusBadRequest,
			body:     `{"error": {"code": "ORD027", "message": "price mismatch"}}`,
			wantKind: RejectionPricing,
			wantCode: CodePriceMismatch,
		},
		{
			name:     "no sla rejection",
			status:   http.StatusBadRequest,
			body:     `{"error": {"code": "ORD028", "message": "no sla"}}`,
			wantKind: RejectionNoSLA,
			wantCode: CodeNoSLA,
		},
		{
			name:     "unknown code",
			status:   http.StatusBadRequest,
			body:     `{"error": {"code": "FMT001", "message": "bad field"}}`,
			wantKind: RejectionOther,
			wantCode: "FMT001",
		},
		{
			name:     "plain text body",
			status:   http.StatusInternalServerError,
			body:     `upstream exploded`,
			wantKind: RejectionOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.CreateOrder(context.Background(), testShop(), &OrderPayload{MarketplaceOrderID: "order-001"})

			var rej *RejectionError
			require.ErrorAs(t, err, &rej)
			assert.Equal(t, tt.wantKind, rej.Kind)
			assert.Equal(t, tt.wantCode, rej.Code)
			assert.Equal(t, tt.status, rej.StatusCode)
		})
	}
}

func TestClient_AuthorizeDispatch(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, "/api/fulfillment/pvt/orders/vtex-001/fulfill", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "order-001", body["marketplaceOrderId"])
		w.WriteHeader(http.StatusOK)
	})

	err := client.AuthorizeDispatch(context.Background(), testShop(), "vtex-001", "order-001")

	require.NoError(t, err)
	assert.True(t, called)
}

func TestClient_SendInvoice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/oms/pvt/orders/vtex-001/invoice", r.URL.Path)

		var inv Invoice
		require.NoError(t, json.NewDecoder(r.Body).Decode(&inv))
		assert.Equal(t, "Output", inv.Type)
		assert.Equal(t, "TRK123", inv.TrackingNumber)
		w.WriteHeader(http.StatusOK)
	})

	err := client.SendInvoice(context.Background(), testShop(), "vtex-001", Invoice{
		InvoiceNumber:  "123",
		InvoiceValue:   1000,
		IssuanceDate:   "2024-01-01",
		TrackingNumber: "TRK123",
	})

	require.NoError(t, err)
}

func TestClient_GetOrder(t *testing.T) {
	t.Run("reads invoice packages", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/api/oms/pvt/orders/vtex-001", r.URL.Path)
			_, _ = io.WriteString(w, `{
				"orderId": "vtex-001",
				"status": "invoiced",
				"value": 1500,
				"packageAttachment": {"packages": [{"invoiceNumber": "42", "invoiceKey": "KEY", "invoiceValue": 1500, "issuanceDate": "2024-01-02", "type": "Output"}]}
			}`)
		})

		order, err := client.GetOrder(context.Background(), testShop(), "vtex-001")

		require.NoError(t, err)
		assert.Equal(t, int64(1500), order.TotalValue())
		inv := order.LatestInvoice()
		require.NotNil(t, inv)
		assert.Equal(t, "42", inv.InvoiceNumber)
	})

	t.Run("not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := client.GetOrder(context.Background(), testShop(), "missing")

		assert.True(t, pkgerrors.IsNotFound(err))
	})
}

func TestOrder_LatestInvoice(t *testing.T) {
	order := &Order{}
	assert.Nil(t, order.LatestInvoice())

	order.PackageAttachment.Packages = []Package{
		{InvoiceNumber: "1", Type: "Output"},
		{InvoiceNumber: "2", Type: "Input"},
	}
	inv := order.LatestInvoice()
	require.NotNil(t, inv)
	assert.Equal(t, "1", inv.InvoiceNumber)
}

func TestOrder_TotalValue(t *testing.T) {
	order := &Order{Totals: []Total{{ID: "Items", Value: 1000}, {ID: "Shipping", Value: 250}}}
	assert.Equal(t, int64(1250), order.TotalValue())
}

func TestClient_BaseURLFor(t *testing.T) {
	client := NewClient(config.VTEXConfig{}, zap.NewNop())

	shop := testShop()
	assert.Equal(t, "https://acct.vtexcommercestable.com.br", client.baseURLFor(shop))

	shop.VTEXEnvironment = "myvtex"
	assert.Equal(t, "https://acct.myvtex.com.br", client.baseURLFor(shop))
}
