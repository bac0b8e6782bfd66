package societies

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")

type Repository interface {
	CreateSociety(ctx context.Context, society *Society) error
	GetSociety(ctx context.Context, id uuid.UUID) (*Society, error)
	ListSocieties(ctx context.Context) ([]Society, error)

	CreateMember(ctx context.Context, member *Member) error
	GetMember(ctx context.Context, id uuid.UUID) (*Member, error)
	GetMemberByEmail(ctx context.Context, email string) (*Member, error)
	ListMembers(ctx context.Context, societyID uuid.UUID) ([]Member, error)
	UpdateMember(ctx context.Context, member *Member) error

	CreateInvitation(ctx context.Context, invitation *Invitation) error
	GetInvitationByToken(ctx context.Context, token string) (*Invitation, error)
	ListInvitations(ctx context.Context, societyID uuid.UUID) ([]Invitation, error)
	UpdateInvitation(ctx context.Context, invitation *Invitation) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateSociety(ctx context.Context, society *Society) error {
	return r.db.WithContext(ctx).Create(society).Error
}

func (r *gormRepository) GetSociety(ctx context.Context, id uuid.UUID) (*Society, error) {
	var society Society
	err := r.db.WithContext(ctx).First(&society, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &society, err
}

func (r *gormRepository) ListSocieties(ctx context.Context) ([]Society, error) {
	var societies []Society
	err := r.db.WithContext(ctx).Order("created_at").Find(&societies).Error
	return societies, err
}

func (r *gormRepository) CreateMember(ctx context.Context, member *Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *gormRepository) GetMember(ctx context.Context, id uuid.UUID) (*Member, error) {
	var member Member
	err := r.db.WithContext(ctx).First(&member, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &member, err
}

func (r *gormRepository) GetMemberByEmail(ctx context.Context, email string) (*Member, error) {
	var member Member
	err := r.db.WithContext(ctx).First(&member, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &member, err
}

func (r *gormRepository) ListMembers(ctx context.Context, societyID uuid.UUID) ([]Member, error) {
	var members []Member
	err := r.db.WithContext(ctx).Where("society_id = ?", societyID).Order("joined_at").Find(&members).Error
	return members, err
}

func (r *gormRepository) UpdateMember(ctx context.Context, member *Member) error {
	return r.db.WithContext(ctx).Save(member).Error
}

func (r *gormRepository) CreateInvitation(ctx context.Context, invitation *Invitation) error {
	return r.db.WithContext(ctx).Create(invitation).Error
}

func (r *gormRepository) GetInvitationByToken(ctx context.Context, token string) (*Invitation, error) {
	var invitation Invitation
	err := r.db.WithContext(ctx).First(&invitation, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &invitation, err
}

func (r *gormRepository) ListInvitations(ctx context.Context, societyID uuid.UUID) ([]Invitation, error) {
	var invitations []Invitation
	err := r.db.WithContext(ctx).Where("society_id = ?", societyID).Order("created_at DESC").Find(&invitations).Error
	return invitations, err
}

func (r *gormRepository) UpdateInvitation(ctx context.Context, invitation *Invitation) error {
	return r.db.WithContext(ctx).Save(invitation).Error
}
