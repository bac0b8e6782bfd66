package projects

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")

type Repository interface {
	Create(ctx context.Context, project *RedevelopmentProject) error
	GetByID(ctx context.Context, id uuid.UUID) (*RedevelopmentProject, error)
	ListBySociety(ctx context.Context, societyID uuid.UUID) ([]RedevelopmentProject, error)
	Update(ctx context.Context, project *RedevelopmentProject) error
	Delete(ctx context.Context, id uuid.UUID) error

	RecordStatus(ctx context.Context, history *ProjectStatusHistory) error
	ListStatusHistory(ctx context.Context, projectID uuid.UUID) ([]ProjectStatusHistory, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, project *RedevelopmentProject) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*RedevelopmentProject, error) {
	var project RedevelopmentProject
	err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &project, err
}

func (r *gormRepository) ListBySociety(ctx context.Context, societyID uuid.UUID) ([]RedevelopmentProject, error) {
	var projects []RedevelopmentProject
	err := r.db.WithContext(ctx).Where("society_id = ?", societyID).Order("created_at DESC").Find(&projects).Error
	return projects, err
}

func (r *gormRepository) Update(ctx context.Context, project *RedevelopmentProject) error {
	return r.db.WithContext(ctx).Save(project).Error
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&RedevelopmentProject{}, "id = ?", id).Error
}

func (r *gormRepository) RecordStatus(ctx context.Context, history *ProjectStatusHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}

func (r *gormRepository) ListStatusHistory(ctx context.Context, projectID uuid.UUID) ([]ProjectStatusHistory, error) {
	var history []ProjectStatusHistory
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("changed_at").Find(&history).Error
	return history, err
}
