package projects

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"estate-desk/society-portal/society-portal-backend/pkg/workflows"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrForbidden is returned when an owner mutates a project outside
	// their own society.
	ErrForbidden = errors.New("project belongs to a different society")
)

type CreateProjectRequest struct {
	SocietyID                 uuid.UUID `json:"society_id"`
	Name                      string    `json:"name"`
	Description               string    `json:"description"`
	MinimumApprovalPct        int       `json:"minimum_approval_percentage"`
	ApprovalDenominatorPolicy string    `json:"approval_denominator_policy"`
	EstimatedBudget           float64   `json:"estimated_budget"`
	Requirements              []byte    `json:"requirements"`
}

type UpdateProjectRequest struct {
	Name                      *string  `json:"name"`
	Description               *string  `json:"description"`
	MinimumApprovalPct        *int     `json:"minimum_approval_percentage"`
	ApprovalDenominatorPolicy *string  `json:"approval_denominator_policy"`
	EstimatedBudget           *float64 `json:"estimated_budget"`
}

type Service struct {
	repo         Repository
	stateMachine *workflows.StateMachine
	logger       *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:         repo,
		stateMachine: workflows.NewProjectStateMachine(),
		logger:       logger,
	}
}

func (s *Service) CreateProject(ctx context.Context, createdBy, callerSocietyID uuid.UUID, req CreateProjectRequest) (*RedevelopmentProject, error) {
	if req.Name == "" {
		return nil, errors.New("name is required")
	}
	if req.SocietyID == uuid.Nil {
		return nil, errors.New("society_id is required")
	}
	if req.SocietyID != callerSocietyID {
		return nil, ErrForbidden
	}
	minPct := req.MinimumApprovalPct
	if minPct == 0 {
		minPct = 75
	}
	if minPct < 50 || minPct > 100 {
		return nil, errors.New("minimum_approval_percentage must be between 50 and 100")
	}
	policy := req.ApprovalDenominatorPolicy
	if policy == "" {
		policy = "eligible_members"
	}
	if policy != "eligible_members" && policy != "votes_cast" {
		return nil, errors.New("approval_denominator_policy must be eligible_members or votes_cast")
	}

	project := &RedevelopmentProject{
		ID:                        uuid.New(),
		SocietyID:                 req.SocietyID,
		Name:                      req.Name,
		Description:               req.Description,
		Status:                    "draft",
		MinimumApprovalPct:        minPct,
		ApprovalDenominatorPolicy: policy,
		EstimatedBudget:           req.EstimatedBudget,
		Requirements:              req.Requirements,
		CreatedBy:                 createdBy,
		CreatedAt:                 time.Now(),
		UpdatedAt:                 time.Now(),
	}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	history := &ProjectStatusHistory{
		ID:        uuid.New(),
		ProjectID: project.ID,
		Status:    project.Status,
		ChangedAt: time.Now(),
		ChangedBy: createdBy,
	}
	if err := s.repo.RecordStatus(ctx, history); err != nil {
		s.logger.Warn("failed to record status history", zap.Error(err))
	}

	s.logger.Info("redevelopment project created",
		zap.String("project_id", project.ID.String()),
		zap.String("society_id", project.SocietyID.String()))
	return project, nil
}

func (s *Service) GetProject(ctx context.Context, id uuid.UUID) (*RedevelopmentProject, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListProjects(ctx context.Context, societyID uuid.UUID) ([]RedevelopmentProject, error) {
	return s.repo.ListBySociety(ctx, societyID)
}

func (s *Service) UpdateProject(ctx context.Context, id, callerSocietyID uuid.UUID, req UpdateProjectRequest) (*RedevelopmentProject, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.SocietyID != callerSocietyID {
		return nil, ErrForbidden
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.MinimumApprovalPct != nil {
		if *req.MinimumApprovalPct < 50 || *req.MinimumApprovalPct > 100 {
			return nil, errors.New("minimum_approval_percentage must be between 50 and 100")
		}
		project.MinimumApprovalPct = *req.MinimumApprovalPct
	}
	if req.ApprovalDenominatorPolicy != nil {
		if *req.ApprovalDenominatorPolicy != "eligible_members" && *req.ApprovalDenominatorPolicy != "votes_cast" {
			return nil, errors.New("approval_denominator_policy must be eligible_members or votes_cast")
		}
		project.ApprovalDenominatorPolicy = *req.ApprovalDenominatorPolicy
	}
	if req.EstimatedBudget != nil {
		project.EstimatedBudget = *req.EstimatedBudget
	}
	project.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return project, nil
}

func (s *Service) TransitionStatus(ctx context.Context, id, callerSocietyID uuid.UUID, newStatus string, changedBy uuid.UUID) (*RedevelopmentProject, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.SocietyID != callerSocietyID {
		return nil, ErrForbidden
	}
	if !s.stateMachine.CanTransition(project.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, project.Status, newStatus)
	}

	project.Status = newStatus
	project.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project status: %w", err)
	}

	history := &ProjectStatusHistory{
		ID:        uuid.New(),
		ProjectID: project.ID,
		Status:    newStatus,
		ChangedAt: time.Now(),
		ChangedBy: changedBy,
	}
	if err := s.repo.RecordStatus(ctx, history); err != nil {
		s.logger.Warn("failed to record status history", zap.Error(err))
	}
	return project, nil
}

func (s *Service) StatusHistory(ctx context.Context, id uuid.UUID) ([]ProjectStatusHistory, error) {
	return s.repo.ListStatusHistory(ctx, id)
}

func (s *Service) DeleteProject(ctx context.Context, id, callerSocietyID uuid.UUID) error {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if project.SocietyID != callerSocietyID {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}
