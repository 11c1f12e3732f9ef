package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/config"
	"github.com/jafarshop/ttsbridge/internal/domain"
	"github.com/jafarshop/ttsbridge/internal/repository/postgres"
)

func main() {
	var (
		shopID        = flag.String("id", "", "TikTok shop id (required)")
		name          = flag.String("name", "", "display name")
		vtexAccount   = flag.String("vtex-account", "", "VTEX account name (required)")
		vtexAppKey    = flag.String("vtex-app-key", "", "VTEX app key (required)")
		vtexAppToken  = flag.String("vtex-app-token", "", "VTEX app token (required)")
		salesChannel  = flag.String("sales-channel", "1", "VTEX sales channel")
		affiliateID   = flag.String("affiliate", "TTS", "VTEX affiliate id")
		sellerID      = flag.String("seller", "1", "VTEX seller id")
		paymentSystem = flag.String("payment-system", "", "VTEX payment system id (required)")
		preferredSLA  = flag.String("preferred-sla", "", "preferred SLA id or name")
		deferLabel    = flag.Bool("defer-label", false, "wait for the VTEX invoice before generating labels")
		accessToken   = flag.String("tiktok-access-token", "", "TikTok shop access token")
		shopCipher    = flag.String("tiktok-shop-cipher", "", "TikTok shop cipher")
	)
	flag.Parse()

	if *shopID == "" || *vtexAccount == "" || *vtexAppKey == "" || *vtexAppToken == "" || *paymentSystem == "" {
		fmt.Println("Usage: go run cmd/create-shop/main.go -id <shop-id> -vtex-account <account> -vtex-app-key <key> -vtex-app-token <token> -payment-system <id> [options]")
		flag.PrintDefaults()
		os.Exit(1)
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

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)

	shop := &domain.Shop{
		ID:                     *shopID,
		Name:                   *name,
		VTEXAccount:            *vtexAccount,
		VTEXEnvironment:        cfg.VTEX.Environment,
		VTEXAppKey:             *vtexAppKey,
		VTEXAppToken:           *vtexAppToken,
		SalesChannel:           *salesChannel,
		AffiliateID:            *affiliateID,
		SellerID:               *sellerID,
		PaymentSystemID:        *paymentSystem,
		WebhookToken:           strings.ReplaceAll(uuid.NewString(), "-", ""),
		DeferLabelUntilInvoice: *deferLabel,
		TikTokAccessToken:      *accessToken,
		TikTokShopCipher:       *shopCipher,
		IsActive:               true,
	}
	if shop.Name == "" {
		shop.Name = shop.ID
	}
	if *preferredSLA != "" {
		shop.PreferredSLAID = preferredSLA
	}

	if err := repos.Shop.Create(context.Background(), shop); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create shop: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Shop created successfully!\n\n")
	fmt.Printf("Shop ID: %s\n", shop.ID)
	fmt.Printf("Shop Name: %s\n", shop.Name)
	fmt.Printf("VTEX Account: %s\n", shop.VTEXAccount)
	fmt.Printf("Webhook Token: %s\n", shop.WebhookToken)
	fmt.Printf("\nMarketplace services endpoint (set on the VTEX affiliate):\n")
	fmt.Printf("%s\n", shop.ServicesEndpoint(cfg.Orders.PublicBaseURL))
	fmt.Printf("\nTikTok order webhook URL:\n")
	fmt.Printf("%s/webhooks/tiktok\n", strings.TrimSuffix(cfg.Orders.PublicBaseURL, "/"))
}
