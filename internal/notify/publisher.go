package notify

import (
	"context"

	"recruit-backend/internal/shared/telemetry"
)

// Publisher announces domain events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Noop logs events instead of sending them anywhere.
type Noop struct{}

func (Noop) Publish(ctx context.Context, evt Event) error {
	telemetry.Info("notify.skipped", map[string]any{"type": evt.Type, "applicant_id": evt.ApplicantID})
	return nil
}

var _ Publisher = Noop{}
