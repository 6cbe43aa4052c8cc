package applicants

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"recruit-backend/internal/notify"
	"recruit-backend/internal/resumes"
	"recruit-backend/internal/shared/storage/object/local"
	"recruit-backend/internal/shared/telemetry"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, evt notify.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

type failingCreateRepo struct {
	*MemoryRepo
}

func (r failingCreateRepo) Create(ctx context.Context, a Applicant) error {
	return errors.New("insert failed")
}

func validSubmission() Submission {
	return Submission{
		FirstName: "  Jean ",
		LastName:  "Dupont",
		Email:     "jean@example.com",
		Phone:     "+33 6 12 34 56 78",
		Position:  "Serveur",
		StartDate: "2026-06-01",
		EndDate:   "2026-09-30",
		Notes:     "Disponible les week-ends",
		RequestID: "req-1",
	}
}

func quietService(t *testing.T) {
	t.Helper()
	restore := telemetry.SetOutput(io.Discard)
	t.Cleanup(restore)
}

func TestSubmitWithoutResumeStoresNewApplicant(t *testing.T) {
	quietService(t)
	repo := NewMemoryRepo()
	pub := &recordingPublisher{}
	fixed := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	svc := &Service{Repo: repo, Publisher: pub, Now: func() time.Time { return fixed }}

	a, err := svc.Submit(context.Background(), validSubmission())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if a.ID == "" || a.Status != StatusNew || a.HasResume() || a.CVFileName != "" {
		t.Fatalf("unexpected applicant: %+v", a)
	}
	if a.FirstName != "Jean" || !a.CreatedAt.Equal(fixed) {
		t.Fatalf("expected trimmed name and fixed clock, got %+v", a)
	}

	stored, err := repo.Get(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored != a {
		t.Fatalf("stored applicant differs:\n got %+v\nwant %+v", stored, a)
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected one event, got %d", len(pub.events))
	}
	evt := pub.events[0]
	if evt.Type != notify.TypeApplicationSubmitted || evt.ApplicantID != a.ID || evt.FullName != "Jean Dupont" || evt.HasResume {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func TestSubmitRejectsMissingFields(t *testing.T) {
	quietService(t)
	svc := &Service{Repo: NewMemoryRepo()}
	sub := validSubmission()
	sub.Email = "  "
	sub.EndDate = ""

	_, err := svc.Submit(context.Background(), sub)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if !strings.Contains(err.Error(), "email") || !strings.Contains(err.Error(), "endDate") {
		t.Fatalf("expected missing field names in error, got %v", err)
	}
}

func TestSubmitStoresResumeReference(t *testing.T) {
	quietService(t)
	store := local.New(t.TempDir(), "http://localhost:8080/api/v1/files")
	svc := &Service{Repo: NewMemoryRepo(), Uploader: resumes.NewUploader(store)}

	data := []byte("%PDF-1.4 cv")
	sub := validSubmission()
	sub.Resume = &resumes.File{
		Name: "cv.pdf",
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}

	a, err := svc.Submit(context.Background(), sub)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if a.CVFileName != "cv.pdf" || !strings.HasPrefix(a.CVURL, "http://localhost:8080/api/v1/files/") {
		t.Fatalf("unexpected resume reference: %q %q", a.CVFileName, a.CVURL)
	}
}

func TestSubmitFailsWhenResumeCannotBeStoredOrInlined(t *testing.T) {
	quietService(t)
	repo := NewMemoryRepo()
	svc := &Service{Repo: repo, Uploader: resumes.NewUploader(nil)}

	sub := validSubmission()
	sub.Resume = &resumes.File{
		Name: "cv.pdf",
		Open: func() (io.ReadCloser, error) { return nil, errors.New("temp file gone") },
	}

	if _, err := svc.Submit(context.Background(), sub); !errors.Is(err, resumes.ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed, got %v", err)
	}
	if list, _ := repo.List(context.Background()); len(list) != 0 {
		t.Fatalf("nothing should be stored, got %d", len(list))
	}
}

func TestSubmitPropagatesCreateError(t *testing.T) {
	quietService(t)
	pub := &recordingPublisher{}
	svc := &Service{Repo: failingCreateRepo{NewMemoryRepo()}, Publisher: pub}

	if _, err := svc.Submit(context.Background(), validSubmission()); err == nil {
		t.Fatalf("expected create error")
	}
	if len(pub.events) != 0 {
		t.Fatalf("no event expected on failure")
	}
}

func TestSubmitIgnoresPublisherFailure(t *testing.T) {
	quietService(t)
	svc := &Service{Repo: NewMemoryRepo(), Publisher: &recordingPublisher{err: errors.New("queue down")}}
	if _, err := svc.Submit(context.Background(), validSubmission()); err != nil {
		t.Fatalf("publisher errors must not fail submission: %v", err)
	}
}

func TestServiceListDegradesToEmpty(t *testing.T) {
	quietService(t)
	repo := &flakyRepo{MemoryRepo: NewMemoryRepo(), failList: true}
	svc := &Service{Repo: repo}

	list := svc.List(context.Background())
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", list)
	}
}
