package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/builder"
	"github.com/jafarshop/ttsbridge/internal/config"
	"github.com/jafarshop/ttsbridge/internal/domain"
	"github.com/jafarshop/ttsbridge/internal/repository/postgres"
	"github.com/jafarshop/ttsbridge/internal/vtex"
	"github.com/jafarshop/ttsbridge/pkg/errors"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run cmd/find-sku/main.go <shop-id> <tts-sku-id> [postal-code]")
		fmt.Println("Example: go run cmd/find-sku/main.go 7495xxxx 1729xxxx 01001000")
		os.Exit(1)
	}

	shopID := os.Args[1]
	targetSKU := os.Args[2]
	postalCode := ""
	if len(os.Args) > 3 {
		postalCode = os.Args[3]
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)
	ctx := context.Background()

	shop, err := repos.Shop.GetByID(ctx, shopID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load shop: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("🔍 Searching for TikTok SKU: %s\n\n", targetSKU)

	mapping, err := repos.ProductMapping.GetByTTSSkuID(ctx, shop.ID, targetSKU)
	if err != nil {
		if errors.IsNotFound(err) {
			fmt.Printf("❌ SKU '%s' has no product mapping for shop %s.\n", targetSKU, shop.ID)
			fmt.Printf("\nMake sure:\n")
			fmt.Printf("  1. The SKU id is the TikTok sku_id, not the seller SKU\n")
			fmt.Printf("  2. The catalog sync has published the product\n")
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Failed to query product mappings: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Found mapping!\n\n")
	fmt.Printf("TikTok SKU: %s\n", mapping.TTSSkuID)
	fmt.Printf("TikTok Product: %s\n", mapping.TTSProductID)
	fmt.Printf("VTEX SKU: %s\n", mapping.VTEXSkuID)
	fmt.Printf("Status: %s\n", mapping.Status)

	if postalCode == "" {
		return
	}

	postal, ok := builder.NormalizePostalCode(postalCode)
	if !ok {
		fmt.Fprintf(os.Stderr, "Invalid postal code: %s\n", postalCode)
		os.Exit(1)
	}

	client := vtex.NewClient(cfg.VTEX, logger)
	seller := shop.SellerID
	if seller == "" {
		seller = "1"
	}
	sim, err := client.Simulate(ctx, shop, vtex.SimulationRequest{
		Items:      []vtex.SimulationItem{{ID: mapping.VTEXSkuID, Quantity: 1, Seller: seller}},
		PostalCode: postal,
		Country:    "BRA",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to simulate: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nSimulation to %s:\n", postal)
	for _, item := range sim.Items {
		fmt.Printf("  Price (selling): %d\n", builder.UnitPrice(item, domain.PricingModeSelling))
		fmt.Printf("  Price (list):    %d\n", builder.UnitPrice(item, domain.PricingModePrice))
	}

	for _, li := range sim.LogisticsInfo {
		slas := builder.DeliverySLAs(li.SLAs)
		for _, s := range slas {
			fmt.Printf("  SLA %s (%s): price %d, estimate %s\n", s.ID, s.Name, s.Price, s.ShippingEstimate)
		}
		preferred := ""
		if shop.PreferredSLAID != nil {
			preferred = *shop.PreferredSLAID
		}
		if chosen, ok := builder.SelectSLA(slas, preferred); ok {
			fmt.Printf("\nSelected SLA: %s\n", chosen.ID)
		} else {
			fmt.Printf("\n❌ No delivery SLA for this destination.\n")
		}
	}
}
