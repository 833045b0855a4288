package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/samcart-relay/internal/normalize"
	"github.com/angelmondragon/samcart-relay/internal/orders"
	"github.com/angelmondragon/samcart-relay/internal/samcart"
	samcartwebhook "github.com/angelmondragon/samcart-relay/internal/webhooks/samcart"
	"github.com/angelmondragon/samcart-relay/pkg/config"
	"github.com/angelmondragon/samcart-relay/pkg/logger"
	"github.com/angelmondragon/samcart-relay/pkg/security"
	"github.com/angelmondragon/samcart-relay/pkg/utmify"
)

type options struct {
	file        string
	checkoutURL string
	dryRun      bool
	sign        bool
}

func main() {
	var opts options
	flag.StringVar(&opts.file, "file", "", "path to a saved SamCart notification (JSON)")
	flag.StringVar(&opts.checkoutURL, "checkout-url", "", "checkout URL carrying tracking parameters")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "print the mapped order without delivering it")
	flag.BoolVar(&opts.sign, "sign", false, "print the webhook signature for the file and exit")
	flag.Parse()

	if opts.file == "" {
		fmt.Fprintln(os.Stderr, "replay: -file is required")
		flag.Usage()
		os.Exit(2)
	}

	logg := logger.New(logger.Options{ServiceName: "replay", Output: os.Stderr, Format: logger.FormatConsole})
	if err := godotenv.Load(); err != nil {
		logg.Debug(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "replay",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      logger.FormatConsole,
		Output:      os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "file", opts.file)

	if err := run(ctx, cfg, logg, opts, os.Stdout); err != nil {
		logg.Error(ctx, "replay failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, opts options, out io.Writer) error {
	payload, err := os.ReadFile(opts.file)
	if err != nil {
		return fmt.Errorf("read event: %w", err)
	}

	if opts.sign {
		if cfg.SamCart.WebhookSecret == "" {
			return fmt.Errorf("%s is not set", config.EnvSamCartSecret)
		}
		_, err := fmt.Fprintf(out, "%s: %s\n", cfg.SamCart.SignatureHeader, security.Sign(payload, cfg.SamCart.WebhookSecret))
		return err
	}

	event, err := samcart.Decode(payload)
	if err != nil {
		return err
	}

	mapper, err := orders.NewMapper(orders.MapperParams{
		Normalizer:      normalize.New(logg),
		Logger:          logg,
		PlatformName:    cfg.SamCart.PlatformName,
		GatewayFeeRate:  cfg.Mapping.GatewayFeeRate,
		DefaultCurrency: cfg.Mapping.DefaultCurrency,
		DefaultCountry:  cfg.Mapping.DefaultCountry,
	})
	if err != nil {
		return err
	}

	if opts.dryRun {
		if err := samcart.ValidateStructure(ctx, event); err != nil {
			return err
		}
		order, err := mapper.Map(ctx, event, opts.checkoutURL)
		if err != nil {
			return err
		}
		return writeJSON(out, order)
	}

	client, err := utmify.NewClient(cfg.Utmify, logg)
	if err != nil {
		return err
	}
	service, err := samcartwebhook.NewService(samcartwebhook.ServiceParams{
		Mapper: mapper,
		Sender: client,
		Logger: logg,
	})
	if err != nil {
		return err
	}
	result, err := service.HandleEvent(ctx, event, opts.checkoutURL)
	if err != nil {
		return err
	}
	return writeJSON(out, result.Acknowledgement)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
