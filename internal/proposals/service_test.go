package proposals

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, proposal *Proposal) error {
	args := m.Called(ctx, proposal)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Proposal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Proposal), args.Error(1)
}

func (m *MockRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]Proposal, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]Proposal), args.Error(1)
}

func (m *MockRepository) ListByDeveloper(ctx context.Context, developerID uuid.UUID) ([]Proposal, error) {
	args := m.Called(ctx, developerID)
	return args.Get(0).([]Proposal), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, proposal *Proposal) error {
	args := m.Called(ctx, proposal)
	return args.Error(0)
}

func TestSubmitProposal(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, zap.NewNop())

	ctx := context.Background()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*proposals.Proposal")).Return(nil)

	proposal, err := service.SubmitProposal(ctx, uuid.New(), SubmitProposalRequest{
		ProjectID:      uuid.New(),
		DeveloperName:  "Skyline Builders",
		Title:          "Tower redevelopment with 2.5 FSI",
		CorpusAmount:   5000000,
		MonthlyRent:    35000,
		FSI:            2.5,
		TimelineMonths: 36,
	})

	assert.NoError(t, err)
	assert.Equal(t, StatusSubmitted, proposal.Status)
	assert.False(t, proposal.SubmittedAt.IsZero())
	mockRepo.AssertExpectations(t)
}

func TestSubmitProposalValidation(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, zap.NewNop())
	ctx := context.Background()

	_, err := service.SubmitProposal(ctx, uuid.New(), SubmitProposalRequest{
		ProjectID:     uuid.New(),
		DeveloperName: "Skyline Builders",
	})
	assert.Error(t, err)

	_, err = service.SubmitProposal(ctx, uuid.New(), SubmitProposalRequest{
		ProjectID:     uuid.New(),
		DeveloperName: "Skyline Builders",
		Title:         "Negative corpus",
		CorpusAmount:  -1,
	})
	assert.Error(t, err)
}

func TestReviewTransition(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, zap.NewNop())

	ctx := context.Background()
	proposal := &Proposal{ID: uuid.New(), Status: StatusSubmitted}

	mockRepo.On("GetByID", ctx, proposal.ID).Return(proposal, nil)
	mockRepo.On("Update", ctx, proposal).Return(nil)

	updated, err := service.Review(ctx, proposal.ID, StatusUnderReview)

	assert.NoError(t, err)
	assert.Equal(t, StatusUnderReview, updated.Status)
	mockRepo.AssertExpectations(t)
}

func TestReviewCannotSelect(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, zap.NewNop())

	// Selection only happens when a voting session closes.
	_, err := service.Review(context.Background(), uuid.New(), StatusSelected)

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReviewRejectsSkippedState(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, zap.NewNop())

	ctx := context.Background()
	proposal := &Proposal{ID: uuid.New(), Status: StatusSubmitted}

	mockRepo.On("GetByID", ctx, proposal.ID).Return(proposal, nil)

	_, err := service.Review(ctx, proposal.ID, StatusShortlisted)

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestWithdrawByAnotherDeveloper(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, zap.NewNop())

	ctx := context.Background()
	proposal := &Proposal{ID: uuid.New(), DeveloperID: uuid.New(), Status: StatusSubmitted}

	mockRepo.On("GetByID", ctx, proposal.ID).Return(proposal, nil)

	_, err := service.Withdraw(ctx, proposal.ID, uuid.New())

	assert.ErrorIs(t, err, ErrNotProposalOwner)
}
