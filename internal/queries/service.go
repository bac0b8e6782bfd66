package queries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound    = errors.New("query not found")
	ErrNotOpen     = errors.New("query is not open")
	ErrNotRaisedBy = errors.New("query was raised by another member")
	ErrForbidden   = errors.New("query belongs to a different society")
)

type RaiseQueryRequest struct {
	ProjectID uuid.UUID `json:"project_id"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
}

type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

func (s *Service) Raise(ctx context.Context, memberID uuid.UUID, req RaiseQueryRequest) (*Query, error) {
	if req.ProjectID == uuid.Nil {
		return nil, errors.New("project_id is required")
	}
	if req.Subject == "" {
		return nil, errors.New("subject is required")
	}

	query := &Query{
		ID:        uuid.New(),
		ProjectID: req.ProjectID,
		MemberID:  memberID,
		Subject:   req.Subject,
		Body:      req.Body,
		Status:    StatusOpen,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(query).Error; err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}
	return query, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Query, error) {
	var query Query
	err := s.db.WithContext(ctx).First(&query, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &query, err
}

func (s *Service) ListForProject(ctx context.Context, projectID uuid.UUID) ([]Query, error) {
	var queries []Query
	err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at DESC").Find(&queries).Error
	return queries, err
}

func (s *Service) Respond(ctx context.Context, id, respondedBy, societyID uuid.UUID, response string) (*Query, error) {
	if response == "" {
		return nil, errors.New("response is required")
	}
	query, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	// Owners answer only their own society's queries.
	projectSociety, err := s.projectSocietyID(ctx, query.ProjectID)
	if err != nil {
		return nil, err
	}
	if projectSociety != societyID {
		return nil, ErrForbidden
	}
	if query.Status != StatusOpen {
		return nil, ErrNotOpen
	}

	now := time.Now()
	query.Response = response
	query.RespondedBy = &respondedBy
	query.RespondedAt = &now
	query.Status = StatusAnswered
	query.UpdatedAt = now
	if err := s.db.WithContext(ctx).Save(query).Error; err != nil {
		return nil, fmt.Errorf("failed to update query: %w", err)
	}
	return query, nil
}

func (s *Service) projectSocietyID(ctx context.Context, projectID uuid.UUID) (uuid.UUID, error) {
	var societyID uuid.UUID
	err := s.db.WithContext(ctx).Table("redevelopment_projects").
		Select("society_id").Where("id = ?", projectID).Row().Scan(&societyID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to resolve project society: %w", err)
	}
	return societyID, nil
}

// Close lets the raising member mark an answered query resolved.
func (s *Service) Close(ctx context.Context, id, memberID uuid.UUID) (*Query, error) {
	query, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if query.MemberID != memberID {
		return nil, ErrNotRaisedBy
	}
	query.Status = StatusClosed
	query.UpdatedAt = time.Now()
	if err := s.db.WithContext(ctx).Save(query).Error; err != nil {
		return nil, fmt.Errorf("failed to close query: %w", err)
	}
	return query, nil
}
