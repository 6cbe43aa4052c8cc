package applicants

import "context"

// Repo persists applicants.
type Repo interface {
	// List returns every applicant, newest first.
	List(ctx context.Context) ([]Applicant, error)
	Get(ctx context.Context, id string) (Applicant, error)
	Create(ctx context.Context, a Applicant) error
	// Update writes status and position only.
	Update(ctx context.Context, a Applicant) error
	Delete(ctx context.Context, id string) error
}
