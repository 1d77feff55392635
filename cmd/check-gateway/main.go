package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"ticket-storefront/internal/config"
	"ticket-storefront/internal/middleware"
	"ticket-storefront/internal/models"
	"ticket-storefront/internal/services"
)

// check-gateway walks the remote gateway the way a checkout does, stopping
// short of initiating a payment.
func main() {
	country := flag.String("country", "NG", "country code to fetch prices for")
	all := flag.Bool("all", false, "fetch prices for every listed country")
	handshake := flag.Bool("handshake", false, "also resolve the merchant API key and an access token")
	verbose := flag.Bool("v", false, "log gateway calls")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := zap.NewNop()
	if *verbose {
		if logger, err = middleware.NewLogger("debug"); err != nil {
			log.Fatal("Failed to build logger:", err)
		}
	}

	gateway := services.NewGatewayClient(services.GatewayConfig{
		BaseURL: cfg.Gateway.BaseURL,
		Timeout: cfg.Gateway.Timeout,
		Logger:  logger,
	})
	pricing := services.NewPricingService(gateway, cfg.Event.Slug, cfg.Gateway.MaxParallel, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Printf("🔍 Checking gateway %s (event %q)\n", cfg.Gateway.BaseURL, cfg.Event.Slug)
	fmt.Println(strings.Repeat("=", 50))

	currencies := pricing.ListCurrencies(ctx)
	fmt.Printf("\n🌍 Currencies (%d):\n", len(currencies))
	for _, c := range currencies {
		fmt.Printf("   %-4s %-4s %s\n", c.Value, c.Currency, c.Name)
	}

	if *all {
		priced := pricing.ListCurrenciesWithPrices(ctx)
		fmt.Printf("\n💰 Prices by country:\n")
		for _, c := range priced {
			if c.Prices == nil {
				fmt.Printf("   %-4s unavailable\n", c.Value)
				continue
			}
			printPrices(c.Value, *c.Prices)
		}
	}

	store := services.NewMemoryCredentialStore()
	prices := pricing.GetPrices(ctx, *country, store)
	fmt.Printf("\n💰 Prices for %s:\n", *country)
	if prices == nil {
		fmt.Println("   ❌ unavailable")
		os.Exit(1)
	}
	printPrices(*country, *prices)

	snapshot := store.Snapshot()
	fmt.Printf("   merchantId: %s\n", orNone(snapshot[services.KeyMerchantID]))
	fmt.Printf("   clientId:   %s\n", orNone(snapshot[services.KeyClientID]))

	if !*handshake {
		return
	}

	credentials := services.NewCredentialService(gateway, services.CredentialConfig{
		BasicAuthUser:     cfg.Gateway.BasicAuthUser,
		BasicAuthPassword: cfg.Gateway.BasicAuthPassword,
	}, logger)

	fmt.Printf("\n🔑 Credential handshake:\n")
	merchantID, err := credentials.ResolveMerchantID(store)
	if err != nil {
		fmt.Printf("   ❌ merchant id: %v\n", err)
		os.Exit(1)
	}
	apiKey, err := credentials.GetAPIKey(ctx, store, merchantID)
	if err != nil {
		fmt.Printf("   ❌ api key: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("   ✅ api key: %s\n", mask(apiKey))

	token, err := credentials.GetAccessToken(ctx, merchantID, apiKey)
	if err != nil {
		fmt.Printf("   ❌ access token: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("   ✅ access token: %s %s (expires in %s)\n", token.TokenType, mask(token.Token), token.ExpiresIn)
}

func printPrices(country string, p models.PriceData) {
	fmt.Printf("   %-4s premium %s, standard %s\n", country,
		models.FormatAmount(p.Premium, p.Currency, models.FormatOptions{}),
		models.FormatAmount(p.Standard, p.Currency, models.FormatOptions{}),
	)
}

func orNone(v string) string {
	if v == "" {
		return "(none)"
	}
	return v
}

// mask hides all but the last four characters of a secret
func mask(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
