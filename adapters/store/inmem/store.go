// Package inmem provides thread-safe in-memory repositories.
package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xlab-si/lcm-engine/domain"
	"github.com/xlab-si/lcm-engine/domain/model"
)

type projectKey struct{ workspaceID, projectID int }

// ProjectRepository is a thread-safe in-memory implementation.
type ProjectRepository struct {
	mu    sync.RWMutex
	items map[projectKey]*model.ProjectRecord
	now   func() time.Time
}

func NewProjectRepository() *ProjectRepository {
	return &ProjectRepository{items: make(map[projectKey]*model.ProjectRecord), now: time.Now}
}

func (r *ProjectRepository) Upsert(_ context.Context, p *model.ProjectRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := projectKey{p.WorkspaceID, p.ProjectID}
	now := r.now()
	if prev, ok := r.items[k]; ok {
		p.CreatedAt = prev.CreatedAt
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	cp := *p
	r.items[k] = &cp
	return nil
}

func (r *ProjectRepository) Get(_ context.Context, workspaceID, projectID int) (*model.ProjectRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[projectKey{workspaceID, projectID}]
	if !ok {
		return nil, model.ErrProjectNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *ProjectRepository) List(_ context.Context, workspaceID int) ([]*model.ProjectRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.ProjectRecord, 0, len(r.items))
	for k, v := range r.items {
		if workspaceID >= 0 && k.workspaceID != workspaceID {
			continue
		}
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WorkspaceID != out[j].WorkspaceID {
			return out[i].WorkspaceID < out[j].WorkspaceID
		}
		return out[i].ProjectID < out[j].ProjectID
	})
	return out, nil
}

func (r *ProjectRepository) Delete(_ context.Context, workspaceID, projectID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := projectKey{workspaceID, projectID}
	if _, ok := r.items[k]; !ok {
		return model.ErrProjectNotFound
	}
	delete(r.items, k)
	return nil
}

var _ domain.ProjectRepository = (*ProjectRepository)(nil)
