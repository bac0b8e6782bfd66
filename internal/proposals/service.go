package proposals

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
	ErrNotProposalOwner  = errors.New("proposal belongs to another developer")
)

type SubmitProposalRequest struct {
	ProjectID      uuid.UUID `json:"project_id"`
	DeveloperName  string    `json:"developer_name"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	CorpusAmount   float64   `json:"corpus_amount"`
	MonthlyRent    float64   `json:"monthly_rent"`
	FSI            float64   `json:"fsi"`
	TimelineMonths int       `json:"timeline_months"`
	Attachments    []byte    `json:"attachments"`
}

type Service struct {
	repo         Repository
	stateMachine *workflows.StateMachine
	logger       *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:         repo,
		stateMachine: workflows.NewProposalStateMachine(),
		logger:       logger,
	}
}

func (s *Service) SubmitProposal(ctx context.Context, developerID uuid.UUID, req SubmitProposalRequest) (*Proposal, error) {
	if req.ProjectID == uuid.Nil {
		return nil, errors.New("project_id is required")
	}
	if req.Title == "" {
		return nil, errors.New("title is required")
	}
	if req.DeveloperName == "" {
		return nil, errors.New("developer_name is required")
	}
	if req.CorpusAmount < 0 || req.MonthlyRent < 0 || req.FSI < 0 {
		return nil, errors.New("financial terms must not be negative")
	}

	proposal := &Proposal{
		ID:             uuid.New(),
		ProjectID:      req.ProjectID,
		DeveloperID:    developerID,
		DeveloperName:  req.DeveloperName,
		Title:          req.Title,
		Description:    req.Description,
		CorpusAmount:   req.CorpusAmount,
		MonthlyRent:    req.MonthlyRent,
		FSI:            req.FSI,
		TimelineMonths: req.TimelineMonths,
		Attachments:    req.Attachments,
		Status:         StatusSubmitted,
		SubmittedAt:    time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := s.repo.Create(ctx, proposal); err != nil {
		return nil, fmt.Errorf("failed to create proposal: %w", err)
	}

	s.logger.Info("proposal submitted",
		zap.String("proposal_id", proposal.ID.String()),
		zap.String("project_id", proposal.ProjectID.String()),
		zap.String("developer", proposal.DeveloperName))
	return proposal, nil
}

func (s *Service) GetProposal(ctx context.Context, id uuid.UUID) (*Proposal, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListProposals(ctx context.Context, projectID uuid.UUID) ([]Proposal, error) {
	return s.repo.ListByProject(ctx, projectID)
}

func (s *Service) ListDeveloperProposals(ctx context.Context, developerID uuid.UUID) ([]Proposal, error) {
	return s.repo.ListByDeveloper(ctx, developerID)
}

// Review advances a proposal through the owner's review pipeline. Selection
// and rejection at session close bypass this path; they happen inside the
// voting close transaction.
func (s *Service) Review(ctx context.Context, id uuid.UUID, newStatus string) (*Proposal, error) {
	if newStatus != StatusUnderReview && newStatus != StatusShortlisted && newStatus != StatusRejected {
		return nil, fmt.Errorf("%w: review can only move a proposal to under_review, shortlisted or rejected", ErrInvalidTransition)
	}
	return s.transition(ctx, id, newStatus)
}

// Withdraw lets the submitting developer pull a proposal out of contention.
func (s *Service) Withdraw(ctx context.Context, id, developerID uuid.UUID) (*Proposal, error) {
	proposal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if proposal.DeveloperID != developerID {
		return nil, ErrNotProposalOwner
	}
	return s.transition(ctx, id, StatusWithdrawn)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, newStatus string) (*Proposal, error) {
	proposal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.stateMachine.CanTransition(proposal.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, proposal.Status, newStatus)
	}

	proposal.Status = newStatus
	proposal.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, proposal); err != nil {
		return nil, fmt.Errorf("failed to update proposal: %w", err)
	}

	s.logger.Info("proposal status changed",
		zap.String("proposal_id", proposal.ID.String()),
		zap.String("status", newStatus))
	return proposal, nil
}
