package applicants

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"recruit-backend/internal/notify"
	"recruit-backend/internal/resumes"
	"recruit-backend/internal/shared/metrics"
	"recruit-backend/internal/shared/telemetry"
)

const publishTimeout = 3 * time.Second

// Submission is a public application as received from the form.
type Submission struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Position  string
	StartDate string
	EndDate   string
	Notes     string
	Resume    *resumes.File
	RequestID string
}

// Service contains the applicant intake logic.
type Service struct {
	Repo      Repo
	Uploader  *resumes.Uploader
	Publisher notify.Publisher
	Now       func() time.Time
}

// Submit uploads the optional resume and stores a new applicant. The stored
// status is always NEW. A resume that cannot be stored nor inlined fails the
// whole submission with resumes.ErrUploadFailed.
func (s *Service) Submit(ctx context.Context, sub Submission) (Applicant, error) {
	a := Applicant{
		ID:        uuid.NewString(),
		FirstName: strings.TrimSpace(sub.FirstName),
		LastName:  strings.TrimSpace(sub.LastName),
		Email:     strings.TrimSpace(sub.Email),
		Phone:     strings.TrimSpace(sub.Phone),
		Position:  strings.TrimSpace(sub.Position),
		StartDate: strings.TrimSpace(sub.StartDate),
		EndDate:   strings.TrimSpace(sub.EndDate),
		Notes:     strings.TrimSpace(sub.Notes),
		Status:    StatusNew,
		CreatedAt: s.now(),
	}
	if missing := a.missingFields(); len(missing) > 0 {
		return Applicant{}, fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}

	if sub.Resume != nil {
		if s.Uploader == nil {
			return Applicant{}, resumes.ErrUploadFailed
		}
		ref, ok := s.Uploader.Upload(ctx, *sub.Resume)
		if !ok {
			metrics.IncApplicationFailed()
			return Applicant{}, resumes.ErrUploadFailed
		}
		a.CVFileName = ref.FileName
		a.CVURL = ref.URL
	}

	if err := s.Repo.Create(ctx, a); err != nil {
		metrics.IncApplicationFailed()
		telemetry.Error("applicants.create_failed", map[string]any{
			"applicant_id": a.ID,
			"request_id":   sub.RequestID,
			"error":        err,
		})
		return Applicant{}, err
	}
	metrics.IncApplicationSubmitted()

	evt := notify.NewEvent(notify.TypeApplicationSubmitted, a.ID)
	evt.FullName = a.FullName()
	evt.Position = a.Position
	evt.HasResume = a.HasResume()
	evt.RequestID = sub.RequestID
	s.publish(ctx, evt)

	return a, nil
}

// List returns every applicant newest first. Store failures are logged and
// yield an empty list.
func (s *Service) List(ctx context.Context) []Applicant {
	list, err := s.Repo.List(ctx)
	if err != nil {
		telemetry.Error("applicants.list_failed", map[string]any{"error": err})
		return []Applicant{}
	}
	if list == nil {
		return []Applicant{}
	}
	return list
}

func (s *Service) publish(ctx context.Context, evt notify.Event) {
	if s.Publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.Publisher.Publish(pubCtx, evt); err != nil {
		telemetry.Warn("notify.publish_failed", map[string]any{
			"type":         evt.Type,
			"applicant_id": evt.ApplicantID,
			"error":        err,
		})
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (a Applicant) missingFields() []string {
	var missing []string
	for _, f := range []struct {
		name, value string
	}{
		{"firstName", a.FirstName},
		{"lastName", a.LastName},
		{"email", a.Email},
		{"phone", a.Phone},
		{"position", a.Position},
		{"startDate", a.StartDate},
		{"endDate", a.EndDate},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}
