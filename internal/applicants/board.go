package applicants

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"recruit-backend/internal/notify"
	"recruit-backend/internal/shared/metrics"
	"recruit-backend/internal/shared/telemetry"
)

// SyncState tells whether the store has confirmed the board's copy of a record.
type SyncState string

const (
	SyncStateSynced   SyncState = "synced"
	SyncStateUnsynced SyncState = "unsynced"
)

// View is an applicant as the admin board shows it.
type View struct {
	Applicant
	Sync      SyncState
	SyncError string
}

// PendingDeletion is a record removed from the board whose remote delete failed.
type PendingDeletion struct {
	Applicant Applicant
	Error     string
	Since     time.Time
}

// SyncReport lists the board's unconfirmed work.
type SyncReport struct {
	Unsynced         []View
	PendingDeletions []PendingDeletion
	Resolved         int
}

// Board is the admin working copy of the applicant list. Every List re-reads
// the store and overlays the board's unconfirmed work on top of it. Edits
// apply locally first, then to the store; a rejected edit leaves the record
// marked unsynced until Resync succeeds. Deletes always remove the record from
// the board and a rejected remote delete is kept as a pending deletion.
type Board struct {
	Repo      Repo
	Publisher notify.Publisher

	mu       sync.Mutex
	loaded   bool
	items    []Applicant
	dirty    map[string]string
	deleting map[string]PendingDeletion

	// inflight counts store writes still running per id. touched holds the
	// generation at which the last write for an id finished; a store read
	// started before that generation is stale for the id.
	inflight map[string]int
	touched  map[string]uint64
	gen      uint64
	// readGen is the generation of the newest store read applied so far.
	readGen uint64
}

// NewBoard builds an empty board over repo.
func NewBoard(repo Repo, pub notify.Publisher) *Board {
	return &Board{
		Repo:      repo,
		Publisher: pub,
		dirty:     make(map[string]string),
		deleting:  make(map[string]PendingDeletion),
		inflight:  make(map[string]int),
		touched:   make(map[string]uint64),
	}
}

// List reads every applicant from the store, newest first, and merges in the
// board's unsynced edits and pending deletions. A failed read is logged and
// yields an empty list; the board keeps its overlay for the next read.
func (b *Board) List(ctx context.Context) []View {
	if err := b.refresh(ctx); err != nil {
		return []View{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewsLocked()
}

// Get returns one applicant. Records with unconfirmed local work come from
// the board, everything else from the store.
func (b *Board) Get(ctx context.Context, id string) (View, error) {
	b.mu.Lock()
	if _, ok := b.deleting[id]; ok {
		b.mu.Unlock()
		return View{}, ErrNotFound
	}
	local, hasLocal := b.localLocked(id)
	if hasLocal && b.pinnedLocked(id) {
		v := b.viewLocked(local)
		b.mu.Unlock()
		return v, nil
	}
	b.mu.Unlock()

	a, err := b.Repo.Get(ctx, id)
	switch {
	case err == nil:
		return View{Applicant: a, Sync: SyncStateSynced}, nil
	case errors.Is(err, ErrNotFound):
		return View{}, ErrNotFound
	case hasLocal:
		telemetry.Warn("applicants.get_stale", map[string]any{"applicant_id": id, "error": err})
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.viewLocked(local), nil
	default:
		return View{}, err
	}
}

// Update applies t to the board and then to the store. The edit starts from
// the store's current row unless the board holds an unconfirmed edit for id.
// Store failures never fail the call; the returned view carries the unsynced
// marker instead.
func (b *Board) Update(ctx context.Context, id string, t Triage) (View, Status, error) {
	if t.Status != nil && !t.Status.Valid() {
		return View{}, "", ErrInvalidInput
	}
	base, err := b.base(ctx, id)
	if err != nil {
		return View{}, "", err
	}

	b.mu.Lock()
	if _, ok := b.deleting[id]; ok {
		b.mu.Unlock()
		return View{}, "", ErrNotFound
	}
	if mine, ok := b.localLocked(id); ok && b.pinnedLocked(id) {
		base = mine
	}
	prev := base.Status
	next := t.Apply(base)
	b.putLocked(next)
	b.inflight[id]++
	b.mu.Unlock()

	err = b.Repo.Update(ctx, next)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.finishLocked(id)
	if err != nil {
		b.dirty[id] = err.Error()
		metrics.IncApplicantSyncFailed()
		telemetry.Error("applicants.update_unsynced", map[string]any{
			"applicant_id": id,
			"status":       string(next.Status),
			"position":     next.Position,
			"error":        err,
		})
	} else {
		delete(b.dirty, id)
	}
	if cur, ok := b.localLocked(id); ok {
		return b.viewLocked(cur), prev, nil
	}
	return b.viewLocked(next), prev, nil
}

// Delete removes id from the board and then from the store. Store failures
// never fail the call; they are tracked as pending deletions.
func (b *Board) Delete(ctx context.Context, id string) error {
	removed, err := b.base(ctx, id)
	if err != nil {
		return err
	}

	b.mu.Lock()
	if _, ok := b.deleting[id]; ok {
		b.mu.Unlock()
		return ErrNotFound
	}
	if i := b.indexLocked(id); i >= 0 {
		removed = b.items[i]
		b.items = append(b.items[:i:i], b.items[i+1:]...)
	}
	delete(b.dirty, id)
	b.inflight[id]++
	b.mu.Unlock()

	err = b.Repo.Delete(ctx, id)

	b.mu.Lock()
	b.finishLocked(id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		b.deleting[id] = PendingDeletion{Applicant: removed, Error: err.Error(), Since: time.Now().UTC()}
		b.mu.Unlock()
		metrics.IncApplicantSyncFailed()
		telemetry.Error("applicants.delete_unsynced", map[string]any{"applicant_id": id, "error": err})
		return nil
	}
	b.mu.Unlock()
	b.announceDeleted(ctx, removed)
	return nil
}

// base returns the record a mutation of id starts from: the store's row, or
// the board's copy when the store cannot be reached.
func (b *Board) base(ctx context.Context, id string) (Applicant, error) {
	b.mu.Lock()
	if _, ok := b.deleting[id]; ok {
		b.mu.Unlock()
		return Applicant{}, ErrNotFound
	}
	local, hasLocal := b.localLocked(id)
	pinned := hasLocal && b.pinnedLocked(id)
	b.mu.Unlock()
	if pinned {
		return local, nil
	}

	a, err := b.Repo.Get(ctx, id)
	switch {
	case err == nil:
		return a, nil
	case errors.Is(err, ErrNotFound):
		return Applicant{}, ErrNotFound
	case hasLocal:
		telemetry.Warn("applicants.get_stale", map[string]any{"applicant_id": id, "error": err})
		return local, nil
	default:
		return Applicant{}, err
	}
}

// Pending reports the unconfirmed work without touching the store.
func (b *Board) Pending() SyncReport {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reportLocked(0)
}

// Resync retries every unconfirmed edit and deletion once.
func (b *Board) Resync(ctx context.Context) SyncReport {
	b.mu.Lock()
	var edits []Applicant
	for id := range b.dirty {
		if i := b.indexLocked(id); i >= 0 {
			edits = append(edits, b.items[i])
		}
	}
	deletions := make([]PendingDeletion, 0, len(b.deleting))
	for _, d := range b.deleting {
		deletions = append(deletions, d)
	}
	b.mu.Unlock()

	resolved := 0
	for _, a := range edits {
		err := b.Repo.Update(ctx, a)
		b.mu.Lock()
		switch {
		case err == nil:
			delete(b.dirty, a.ID)
			b.touchLocked(a.ID)
			resolved++
		case errors.Is(err, ErrNotFound):
			// Gone from the store; the board copy has nothing left to sync to.
			delete(b.dirty, a.ID)
			if i := b.indexLocked(a.ID); i >= 0 {
				b.items = append(b.items[:i:i], b.items[i+1:]...)
			}
			resolved++
		default:
			b.dirty[a.ID] = err.Error()
		}
		b.mu.Unlock()
	}

	for _, d := range deletions {
		err := b.Repo.Delete(ctx, d.Applicant.ID)
		if err == nil || errors.Is(err, ErrNotFound) {
			b.mu.Lock()
			delete(b.deleting, d.Applicant.ID)
			b.touchLocked(d.Applicant.ID)
			b.mu.Unlock()
			b.announceDeleted(ctx, d.Applicant)
			resolved++
			continue
		}
		b.mu.Lock()
		d.Error = err.Error()
		b.deleting[d.Applicant.ID] = d
		b.mu.Unlock()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	report := b.reportLocked(resolved)
	telemetry.Info("applicants.resync", map[string]any{
		"resolved":          resolved,
		"unsynced":          len(report.Unsynced),
		"pending_deletions": len(report.PendingDeletions),
	})
	return report
}

func (b *Board) refresh(ctx context.Context) error {
	b.mu.Lock()
	started := b.gen
	b.mu.Unlock()

	list, err := b.Repo.List(ctx)
	if err != nil {
		telemetry.Error("applicants.list_failed", map[string]any{"error": err})
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loaded && started < b.readGen {
		// A newer read already landed.
		return nil
	}

	local := make(map[string]Applicant, len(b.items))
	for _, a := range b.items {
		local[a.ID] = a
	}
	remote := make(map[string]struct{}, len(list))
	items := make([]Applicant, 0, len(list))
	for _, a := range list {
		remote[a.ID] = struct{}{}
		if _, ok := b.deleting[a.ID]; ok {
			continue
		}
		if b.pinnedLocked(a.ID) || b.touched[a.ID] > started {
			mine, ok := local[a.ID]
			if !ok {
				// Removed by a write the read did not see yet.
				continue
			}
			a = mine
		}
		items = append(items, a)
	}
	for id := range b.dirty {
		if _, ok := remote[id]; !ok && b.inflight[id] == 0 {
			delete(b.dirty, id)
		}
	}
	for id := range b.deleting {
		if _, ok := remote[id]; !ok {
			delete(b.deleting, id)
		}
	}
	for id, g := range b.touched {
		if g <= started {
			delete(b.touched, id)
		}
	}
	b.items = items
	b.readGen = started
	b.loaded = true
	return nil
}

func (b *Board) announceDeleted(ctx context.Context, a Applicant) {
	if b.Publisher == nil {
		return
	}
	evt := notify.NewEvent(notify.TypeApplicantDeleted, a.ID)
	evt.FullName = a.FullName()
	evt.Position = a.Position
	if err := b.Publisher.Publish(ctx, evt); err != nil {
		telemetry.Warn("notify.publish_failed", map[string]any{"type": evt.Type, "applicant_id": a.ID, "error": err})
	}
}

// pinnedLocked reports whether the board's copy of id wins over the store.
func (b *Board) pinnedLocked(id string) bool {
	_, dirty := b.dirty[id]
	return dirty || b.inflight[id] > 0
}

// finishLocked records the end of a store write for id.
func (b *Board) finishLocked(id string) {
	if b.inflight[id]--; b.inflight[id] <= 0 {
		delete(b.inflight, id)
	}
	b.touchLocked(id)
}

func (b *Board) touchLocked(id string) {
	b.gen++
	b.touched[id] = b.gen
}

func (b *Board) localLocked(id string) (Applicant, bool) {
	if i := b.indexLocked(id); i >= 0 {
		return b.items[i], true
	}
	return Applicant{}, false
}

// putLocked replaces the board's copy of a, or inserts it in creation order.
func (b *Board) putLocked(a Applicant) {
	if i := b.indexLocked(a.ID); i >= 0 {
		b.items[i] = a
		return
	}
	b.insertLocked(a)
}

func (b *Board) insertLocked(a Applicant) {
	i := sort.Search(len(b.items), func(i int) bool {
		return !b.items[i].CreatedAt.After(a.CreatedAt)
	})
	b.items = append(b.items, Applicant{})
	copy(b.items[i+1:], b.items[i:])
	b.items[i] = a
}

func (b *Board) indexLocked(id string) int {
	for i := range b.items {
		if b.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (b *Board) viewLocked(a Applicant) View {
	if msg, ok := b.dirty[a.ID]; ok {
		return View{Applicant: a, Sync: SyncStateUnsynced, SyncError: msg}
	}
	return View{Applicant: a, Sync: SyncStateSynced}
}

func (b *Board) viewsLocked() []View {
	out := make([]View, len(b.items))
	for i, a := range b.items {
		out[i] = b.viewLocked(a)
	}
	return out
}

func (b *Board) reportLocked(resolved int) SyncReport {
	report := SyncReport{
		Unsynced:         []View{},
		PendingDeletions: []PendingDeletion{},
		Resolved:         resolved,
	}
	for _, a := range b.items {
		if _, ok := b.dirty[a.ID]; ok {
			report.Unsynced = append(report.Unsynced, b.viewLocked(a))
		}
	}
	for _, d := range b.deleting {
		report.PendingDeletions = append(report.PendingDeletions, d)
	}
	sort.Slice(report.PendingDeletions, func(i, j int) bool {
		return report.PendingDeletions[i].Since.Before(report.PendingDeletions[j].Since)
	})
	return report
}
