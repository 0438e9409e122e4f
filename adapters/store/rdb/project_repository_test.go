package rdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xlab-si/lcm-engine/domain/model"
)

func newTestRepo(t *testing.T) *ProjectRepository {
	t.Helper()
	db, err := OpenFromURL("sqlite::memory:")
	if err != nil {
		t.Fatalf("OpenFromURL: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	// each connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return NewProjectRepository(db)
}

func TestOpenFromURLUnsupported(t *testing.T) {
	if _, err := OpenFromURL("postgres://localhost/lcm"); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
}

func TestProjectRepository(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	p := &model.ProjectRecord{WorkspaceID: 1, ProjectID: 2, Name: "demo", Kind: "tosca", Namespace: "lcm-service-w1-p2"}
	if err := repo.Upsert(ctx, p); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if p.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt not set")
	}
	created := p.CreatedAt

	got, err := repo.Get(ctx, 1, 2)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "demo" || got.Available {
		t.Fatalf("unexpected record %+v", got)
	}

	time.Sleep(time.Millisecond)
	if err := repo.Upsert(ctx, &model.ProjectRecord{WorkspaceID: 1, ProjectID: 2, Name: "demo", Kind: "tosca", Namespace: "lcm-service-w1-p2", Available: true}); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	got, err = repo.Get(ctx, 1, 2)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Available {
		t.Fatalf("update not applied")
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("CreatedAt changed: %v -> %v", created, got.CreatedAt)
	}

	if err := repo.Upsert(ctx, &model.ProjectRecord{WorkspaceID: 1, ProjectID: 1, Name: "a", Kind: "terraform", Namespace: "lcm-service-w1-p1"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Upsert(ctx, &model.ProjectRecord{WorkspaceID: 3, ProjectID: 1, Name: "b", Kind: "tosca", Namespace: "lcm-service-w3-p1"}); err != nil {
		t.Fatal(err)
	}
	list, err := repo.List(ctx, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ProjectID != 1 || list[1].ProjectID != 2 {
		t.Fatalf("unexpected list %+v", list)
	}
	all, err := repo.List(ctx, -1)
	if err != nil || len(all) != 3 {
		t.Fatalf("List(-1) = %d, %v", len(all), err)
	}

	if err := repo.Delete(ctx, 1, 2); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, 1, 2); !errors.Is(err, model.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, 1, 2); !errors.Is(err, model.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound on second delete, got %v", err)
	}
}
