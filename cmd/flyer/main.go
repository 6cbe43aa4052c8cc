package main

// Render a flyer or QR panel without the API:
//   go run ./cmd/flyer -out flyer.png -headline "On recrute !"
//   go run ./cmd/flyer -panel -target https://example.com/postuler -out qr.png

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"recruit-backend/internal/promo"
	"recruit-backend/internal/shared/config"
)

func main() {
	outPath := flag.String("out", "./out/flyer.png", "output path for the PNG")
	panel := flag.Bool("panel", false, "render the QR panel instead of the flyer")
	target := flag.String("target", "", "link encoded in the QR code (defaults to the public form)")
	headline := flag.String("headline", "", "flyer headline")
	subtext := flag.String("subtext", "", "flyer subtext")
	accent := flag.String("accent", "", "accent color as #rrggbb")
	background := flag.String("background", "", "background image URL or data URI")
	timeout := flag.Duration("timeout", 30*time.Second, "render timeout")
	flag.Parse()

	cfg := config.Load()
	cat, err := config.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load catalog: %v\n", err)
		os.Exit(1)
	}
	svc := promo.NewService(promo.NewQRClient(cfg.QRServiceURL, nil), nil, cat, cfg.FormURL())

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var png []byte
	if *panel {
		png, err = svc.QRPanelPNG(ctx, *target)
	} else {
		png, err = svc.FlyerPNG(ctx, promo.FlyerConfig{
			Headline:        *headline,
			Subtext:         *subtext,
			AccentColor:     *accent,
			BackgroundImage: *background,
			Target:          *target,
		})
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "render failed: %v\n", err)
		os.Exit(1)
	}

	if dir := filepath.Dir(*outPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "create output dir: %v\n", err)
			os.Exit(1)
		}
	}
	if err := os.WriteFile(*outPath, png, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("OK: wrote %s (%d bytes)\n", *outPath, len(png))
}
