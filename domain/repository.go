package domain

import (
	"context"

	"github.com/xlab-si/lcm-engine/domain/model"
)

// ProjectRepository stores the deployment records of tenant projects.
// Records are keyed by workspace and project id.
type ProjectRepository interface {
	// Upsert creates or replaces the record, keeping CreatedAt of an existing one.
	Upsert(ctx context.Context, p *model.ProjectRecord) error
	Get(ctx context.Context, workspaceID, projectID int) (*model.ProjectRecord, error)
	// List returns the records of one workspace, or of all workspaces when workspaceID is negative.
	List(ctx context.Context, workspaceID int) ([]*model.ProjectRecord, error)
	Delete(ctx context.Context, workspaceID, projectID int) error
}
