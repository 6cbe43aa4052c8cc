package applicants

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"recruit-backend/internal/shared/storage/db"
)

func TestSQLRepoAgainstSQLite(t *testing.T) {
	ctx := context.Background()
	url := "sqlite:" + filepath.Join(t.TempDir(), "recruit.db")
	database, err := db.Connect(ctx, url, db.DefaultMigrateOptions())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	if err := db.RunMigrations(ctx, database, db.DialectSQLite); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}

	repo := NewSQLRepo(database, db.DialectSQLite)
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	first := Applicant{ID: "a-1", FirstName: "Jean", LastName: "Dupont", Email: "j@example.com", Phone: "0600",
		Position: "Serveur", StartDate: "2026-06-01", EndDate: "2026-09-01", Status: StatusRejected, CreatedAt: base}
	second := Applicant{ID: "a-2", FirstName: "Marie", LastName: "Curie", Email: "m@example.com", Phone: "0611",
		Position: "Barman", StartDate: "2026-06-01", EndDate: "2026-07-01", CVFileName: "cv.pdf",
		CVURL: "http://localhost:8080/api/v1/files/x.pdf", CreatedAt: base.Add(time.Hour)}

	for _, a := range []Applicant{first, second} {
		if err := repo.Create(ctx, a); err != nil {
			t.Fatalf("Create %s: %v", a.ID, err)
		}
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != "a-2" {
		t.Fatalf("expected newest first, got %+v", list)
	}
	if list[1].Status != StatusNew {
		t.Fatalf("expected forced NEW status, got %s", list[1].Status)
	}
	if !list[1].CreatedAt.Equal(base) {
		t.Fatalf("created_at round trip: got %v want %v", list[1].CreatedAt, base)
	}

	updated := list[1]
	updated.Status = StatusInterviewing
	updated.Position = "Cuisinier"
	if err := repo.Update(ctx, updated); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := repo.Get(ctx, "a-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := list[1]
	want.Status = StatusInterviewing
	want.Position = "Cuisinier"
	if got != want {
		t.Fatalf("update touched other fields:\n got %+v\nwant %+v", got, want)
	}

	if err := repo.Delete(ctx, "a-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, "a-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
