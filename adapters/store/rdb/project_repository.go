package rdb

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xlab-si/lcm-engine/domain"
	"github.com/xlab-si/lcm-engine/domain/model"
)

type ProjectRepository struct{ db *gorm.DB }

func NewProjectRepository(db *gorm.DB) *ProjectRepository { return &ProjectRepository{db: db} }

func projectToRecord(p *model.ProjectRecord) *ProjectRecord {
	return &ProjectRecord{
		WorkspaceID: p.WorkspaceID,
		ProjectID:   p.ProjectID,
		Name:        p.Name,
		Kind:        p.Kind,
		Namespace:   p.Namespace,
		Available:   p.Available,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func projectToModel(r *ProjectRecord) *model.ProjectRecord {
	return &model.ProjectRecord{
		WorkspaceID: r.WorkspaceID,
		ProjectID:   r.ProjectID,
		Name:        r.Name,
		Kind:        r.Kind,
		Namespace:   r.Namespace,
		Available:   r.Available,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (r *ProjectRepository) Upsert(ctx context.Context, p *model.ProjectRecord) error {
	rec := projectToRecord(p)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "workspace_id"}, {Name: "project_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "kind", "namespace", "available", "updated_at"}),
	}).Create(rec).Error
	if err != nil {
		return err
	}
	p.UpdatedAt = rec.UpdatedAt
	if p.CreatedAt.IsZero() {
		p.CreatedAt = rec.CreatedAt
	}
	return nil
}

func (r *ProjectRepository) Get(ctx context.Context, workspaceID, projectID int) (*model.ProjectRecord, error) {
	var rec ProjectRecord
	err := r.db.WithContext(ctx).First(&rec, "workspace_id = ? AND project_id = ?", workspaceID, projectID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrProjectNotFound
		}
		return nil, err
	}
	return projectToModel(&rec), nil
}

func (r *ProjectRepository) List(ctx context.Context, workspaceID int) ([]*model.ProjectRecord, error) {
	q := r.db.WithContext(ctx).Order("workspace_id ASC").Order("project_id ASC")
	if workspaceID >= 0 {
		q = q.Where("workspace_id = ?", workspaceID)
	}
	var recs []ProjectRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*model.ProjectRecord, 0, len(recs))
	for i := range recs {
		out = append(out, projectToModel(&recs[i]))
	}
	return out, nil
}

func (r *ProjectRepository) Delete(ctx context.Context, workspaceID, projectID int) error {
	res := r.db.WithContext(ctx).Delete(&ProjectRecord{}, "workspace_id = ? AND project_id = ?", workspaceID, projectID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrProjectNotFound
	}
	return nil
}

var _ domain.ProjectRepository = (*ProjectRepository)(nil)
