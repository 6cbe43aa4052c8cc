package promo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"recruit-backend/internal/resumes"
	"recruit-backend/internal/shared/config"
	"recruit-backend/internal/shared/metrics"
	"recruit-backend/internal/shared/telemetry"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrRender covers every failure to produce an image; callers report it
	// as one generic failure.
	ErrRender = errors.New("image generation failed")
)

// Service builds QR links, QR panels and flyers.
type Service struct {
	QR        *QRClient
	Generator BackgroundGenerator
	Catalog   config.Catalog
	// FormURL is the default QR target.
	FormURL string

	// httpClient fetches backgrounds; it only dials public addresses.
	httpClient *http.Client
}

// NewService constructs a Service. A nil generator disables AI backgrounds.
func NewService(qr *QRClient, gen BackgroundGenerator, cat config.Catalog, formURL string) *Service {
	if qr == nil {
		qr = NewQRClient("", nil)
	}
	if gen == nil {
		gen = DisabledGenerator{}
	}
	return &Service{
		QR:         qr,
		Generator:  gen,
		Catalog:    cat,
		FormURL:    formURL,
		httpClient: publicOnlyClient(15 * time.Second),
	}
}

// Target resolves the QR link: raw when given, else the form URL.
func (s *Service) Target(raw string) (string, error) {
	target := strings.TrimSpace(raw)
	if target == "" {
		target = s.FormURL
	}
	if err := ValidateTarget(target); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return target, nil
}

// QRImageURL returns the remote QR image address for the panel code.
func (s *Service) QRImageURL(raw string) (string, string, error) {
	target, err := s.Target(raw)
	if err != nil {
		return "", "", err
	}
	return target, s.QR.URL(PanelQR(target)), nil
}

// QRPanelPNG renders the printable QR panel.
func (s *Service) QRPanelPNG(ctx context.Context, raw string) ([]byte, error) {
	target, err := s.Target(raw)
	if err != nil {
		return nil, err
	}
	qr, err := s.QR.Fetch(ctx, PanelQR(target))
	if err != nil {
		return nil, s.renderFailed("qr_panel", err)
	}
	return s.encode("qr_panel", RenderQRPanel(s.Catalog.QRPanel, target, qr))
}

// FlyerPNG renders a flyer. The QR code and background are fetched
// concurrently; a background that cannot be loaded is dropped, a QR code
// that cannot be loaded fails the render.
func (s *Service) FlyerPNG(ctx context.Context, cfg FlyerConfig) ([]byte, error) {
	cfg = cfg.WithDefaults(s.Catalog.Flyer)
	accent, err := ParseHexColor(cfg.AccentColor)
	if err != nil {
		return nil, err
	}
	target, err := s.Target(cfg.Target)
	if err != nil {
		return nil, err
	}

	var qr, background image.Image
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		img, err := s.QR.Fetch(gctx, FlyerQR(target))
		if err != nil {
			return err
		}
		qr = img
		return nil
	})
	if ref := strings.TrimSpace(cfg.BackgroundImage); ref != "" {
		g.Go(func() error {
			img, err := s.loadBackground(gctx, ref)
			if err != nil {
				telemetry.Warn("promo.background_failed", map[string]any{"error": err})
				return nil
			}
			background = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.renderFailed("flyer", err)
	}

	return s.encode("flyer", RenderFlyer(cfg, accent, background, qr))
}

// GenerateBackground asks the generator for a background and returns it as a
// PNG data URI, or "" when none was produced.
func (s *Service) GenerateBackground(ctx context.Context, prompt string) (string, error) {
	img, err := s.Generator.Generate(ctx, prompt)
	if err != nil {
		telemetry.Error("promo.background_generate_failed", map[string]any{"error": err})
		return "", nil
	}
	if img == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", s.renderFailed("background", err)
	}
	return resumes.EncodeDataURI("image/png", buf.Bytes()), nil
}

func (s *Service) loadBackground(ctx context.Context, ref string) (image.Image, error) {
	if resumes.IsDataURI(ref) {
		_, data, err := resumes.DecodeDataURI(ref)
		if err != nil {
			return nil, err
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		return img, err
	}
	if err := ValidateTarget(ref); err != nil {
		return nil, fmt.Errorf("background must be a data uri or http(s) url")
	}
	if err := checkImageHost(ref); err != nil {
		return nil, err
	}
	client := s.httpClient
	if client == nil {
		client = publicOnlyClient(15 * time.Second)
	}
	return fetchImage(ctx, client, ref)
}

func (s *Service) encode(kind string, img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, s.renderFailed(kind, err)
	}
	metrics.IncFlyerRendered()
	telemetry.Info("promo.rendered", map[string]any{"kind": kind, "bytes": buf.Len()})
	return buf.Bytes(), nil
}

func (s *Service) renderFailed(kind string, err error) error {
	metrics.IncFlyerFailed()
	telemetry.Error("promo.render_failed", map[string]any{"kind": kind, "error": err})
	return fmt.Errorf("%w: %v", ErrRender, err)
}
