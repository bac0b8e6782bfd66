package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, notification *Notification) error
	CreateBatch(ctx context.Context, notifications []Notification) error
	ListForMember(ctx context.Context, memberID uuid.UUID, unreadOnly bool) ([]Notification, error)
	MarkRead(ctx context.Context, memberID, notificationID uuid.UUID) error

	// ProjectAudience resolves the active society members behind a project.
	ProjectAudience(ctx context.Context, projectID uuid.UUID) ([]Recipient, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, notification *Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *gormRepository) CreateBatch(ctx context.Context, notifications []Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&notifications).Error
}

func (r *gormRepository) ListForMember(ctx context.Context, memberID uuid.UUID, unreadOnly bool) ([]Notification, error) {
	query := r.db.WithContext(ctx).Where("member_id = ?", memberID)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}
	var notifications []Notification
	err := query.Order("created_at DESC").Limit(100).Find(&notifications).Error
	return notifications, err
}

func (r *gormRepository) MarkRead(ctx context.Context, memberID, notificationID uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND member_id = ?", notificationID, memberID).
		Update("read_at", now).Error
}

func (r *gormRepository) ProjectAudience(ctx context.Context, projectID uuid.UUID) ([]Recipient, error) {
	var recipients []Recipient
	err := r.db.WithContext(ctx).Raw(`
		SELECT m.id AS member_id, m.name, m.email
		FROM society_members m
		JOIN redevelopment_projects p ON p.society_id = m.society_id
		WHERE p.id = ? AND m.status = 'active'`, projectID).
		Scan(&recipients).Error
	return recipients, err
}
