package rdb

import "time"

// ProjectRecord is the RDB persistence model for domain ProjectRecord.
// Table name: projects
type ProjectRecord struct {
	WorkspaceID int       `gorm:"primaryKey;autoIncrement:false;not null"`
	ProjectID   int       `gorm:"primaryKey;autoIncrement:false;not null"`
	Name        string    `gorm:"type:text;not null"`
	Kind        string    `gorm:"type:text;not null"`
	Namespace   string    `gorm:"type:text;not null"` // tenant namespace, also the container id
	Available   bool      `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (ProjectRecord) TableName() string { return "projects" }
