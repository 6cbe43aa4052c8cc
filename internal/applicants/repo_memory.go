package applicants

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Applicant
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Applicant)}
}

func (r *MemoryRepo) List(ctx context.Context) ([]Applicant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Applicant, 0, len(r.data))
	for _, a := range r.data {
		out = append(out, a)
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Applicant, error) {
	if err := ctx.Err(); err != nil {
		return Applicant{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.data[id]
	if !ok {
		return Applicant{}, ErrNotFound
	}
	return a, nil
}

// Create stores a with status NEW.
func (r *MemoryRepo) Create(ctx context.Context, a Applicant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.Status = StatusNew
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[a.ID]; exists {
		return ErrInvalidInput
	}
	r.data[a.ID] = a
	return nil
}

func (r *MemoryRepo) Update(ctx context.Context, a Applicant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.data[a.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Status = a.Status
	cur.Position = a.Position
	r.data[a.ID] = cur
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
