package inmem

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xlab-si/lcm-engine/domain/model"
)

func TestProjectRepository(t *testing.T) {
	ctx := context.Background()
	r := NewProjectRepository()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return t0 }

	if err := r.Upsert(ctx, &model.ProjectRecord{WorkspaceID: 2, ProjectID: 1, Kind: "tosca"}); err != nil {
		t.Fatal(err)
	}
	r.now = func() time.Time { return t0.Add(time.Hour) }
	p := &model.ProjectRecord{WorkspaceID: 2, ProjectID: 1, Kind: "tosca", Available: true}
	if err := r.Upsert(ctx, p); err != nil {
		t.Fatal(err)
	}
	if !p.CreatedAt.Equal(t0) || !p.UpdatedAt.Equal(t0.Add(time.Hour)) {
		t.Fatalf("timestamps = %v / %v", p.CreatedAt, p.UpdatedAt)
	}
	if err := r.Upsert(ctx, &model.ProjectRecord{WorkspaceID: 1, ProjectID: 5}); err != nil {
		t.Fatal(err)
	}

	all, _ := r.List(ctx, -1)
	if len(all) != 2 || all[0].WorkspaceID != 1 {
		t.Fatalf("unexpected order %+v", all)
	}
	ws2, _ := r.List(ctx, 2)
	if len(ws2) != 1 || !ws2[0].Available {
		t.Fatalf("unexpected list %+v", ws2)
	}

	if err := r.Delete(ctx, 2, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Get(ctx, 2, 1); !errors.Is(err, model.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
	if err := r.Delete(ctx, 2, 1); !errors.Is(err, model.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}
