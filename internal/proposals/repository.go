package proposals

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")

type Repository interface {
	Create(ctx context.Context, proposal *Proposal) error
	GetByID(ctx context.Context, id uuid.UUID) (*Proposal, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]Proposal, error)
	ListByDeveloper(ctx context.Context, developerID uuid.UUID) ([]Proposal, error)
	Update(ctx context.Context, proposal *Proposal) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, proposal *Proposal) error {
	return r.db.WithContext(ctx).Create(proposal).Error
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*Proposal, error) {
	var proposal Proposal
	err := r.db.WithContext(ctx).First(&proposal, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &proposal, err
}

func (r *gormRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]Proposal, error) {
	var proposals []Proposal
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("submitted_at").Find(&proposals).Error
	return proposals, err
}

func (r *gormRepository) ListByDeveloper(ctx context.Context, developerID uuid.UUID) ([]Proposal, error) {
	var proposals []Proposal
	err := r.db.WithContext(ctx).Where("developer_id = ?", developerID).Order("submitted_at DESC").Find(&proposals).Error
	return proposals, err
}

func (r *gormRepository) Update(ctx context.Context, proposal *Proposal) error {
	return r.db.WithContext(ctx).Save(proposal).Error
}
