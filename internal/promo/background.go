package promo

import (
	"context"
	"image"

	"recruit-backend/internal/shared/telemetry"
)

// BackgroundGenerator produces a flyer background from a text prompt.
// Implementations return a nil image when they have nothing to offer.
type BackgroundGenerator interface {
	Generate(ctx context.Context, prompt string) (image.Image, error)
}

// DisabledGenerator never produces a background.
type DisabledGenerator struct{}

func (DisabledGenerator) Generate(ctx context.Context, prompt string) (image.Image, error) {
	telemetry.Info("promo.background_disabled", map[string]any{"prompt_chars": len(prompt)})
	return nil, nil
}

var _ BackgroundGenerator = DisabledGenerator{}
