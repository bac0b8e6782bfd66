package voting

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateSession(ctx context.Context, session *VotingSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockRepository) ReopenSession(ctx context.Context, session *VotingSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockRepository) GetSession(ctx context.Context, projectID uuid.UUID, sessionKey string) (*VotingSession, error) {
	args := m.Called(ctx, projectID, sessionKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*VotingSession), args.Error(1)
}

func (m *MockRepository) ListSessions(ctx context.Context, projectID uuid.UUID) ([]VotingSession, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]VotingSession), args.Error(1)
}

func (m *MockRepository) CloseSession(ctx context.Context, projectID uuid.UUID, sessionKey string, resolve ResolveFunc) (*FinalResults, error) {
	args := m.Called(ctx, projectID, sessionKey, resolve)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*FinalResults), args.Error(1)
}

func (m *MockRepository) InsertVote(ctx context.Context, vote *Vote) error {
	args := m.Called(ctx, vote)
	return args.Error(0)
}

func (m *MockRepository) GetVote(ctx context.Context, projectID uuid.UUID, sessionKey string, memberID, proposalID uuid.UUID) (*Vote, error) {
	args := m.Called(ctx, projectID, sessionKey, memberID, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Vote), args.Error(1)
}

func (m *MockRepository) ListMemberVotes(ctx context.Context, projectID, memberID uuid.UUID) ([]Vote, error) {
	args := m.Called(ctx, projectID, memberID)
	return args.Get(0).([]Vote), args.Error(1)
}

func (m *MockRepository) CountVotes(ctx context.Context, projectID uuid.UUID, sessionKey string) ([]VoteCount, error) {
	args := m.Called(ctx, projectID, sessionKey)
	return args.Get(0).([]VoteCount), args.Error(1)
}

func (m *MockRepository) ProjectGovernance(ctx context.Context, projectID uuid.UUID) (*ProjectGovernance, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ProjectGovernance), args.Error(1)
}

func (m *MockRepository) EligibleMemberCount(ctx context.Context, projectID uuid.UUID) (int, error) {
	args := m.Called(ctx, projectID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) IsEligibleMember(ctx context.Context, projectID, memberID uuid.UUID) (bool, error) {
	args := m.Called(ctx, projectID, memberID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) SessionProposals(ctx context.Context, projectID uuid.UUID) ([]ProposalRef, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]ProposalRef), args.Error(1)
}

func newTestService(repo Repository) Service {
	return NewService(repo, nil, zap.NewNop())
}

func openSession(projectID uuid.UUID, sessionKey string) *VotingSession {
	deadline := time.Now().Add(24 * time.Hour)
	opened := time.Now().Add(-time.Hour)
	return &VotingSession{
		ID:                 uuid.New(),
		ProjectID:          projectID,
		SessionKey:         sessionKey,
		Status:             StatusOpen,
		Deadline:           &deadline,
		MinimumApprovalPct: 75,
		DenominatorPolicy:  DenominatorEligibleMembers,
		OpenedAt:           &opened,
	}
}

func TestCastVote(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	ctx := context.Background()
	projectID := uuid.New()
	memberID := uuid.New()

	mockRepo.On("GetSession", ctx, projectID, SessionProposalSelection).
		Return(openSession(projectID, SessionProposalSelection), nil)
	mockRepo.On("IsEligibleMember", ctx, projectID, memberID).Return(true, nil)
	mockRepo.On("InsertVote", ctx, mock.AnythingOfType("*voting.Vote")).Return(nil)

	vote, err := service.CastVote(ctx, memberID, projectID, SubmitVoteRequest{
		VotingSession: SessionProposalSelection,
		Vote:          VoteYes,
		Reason:        "in favour of redevelopment",
	})

	assert.NoError(t, err)
	assert.NotNil(t, vote)
	assert.Equal(t, VoteYes, vote.Value)
	assert.Equal(t, NilProposal, vote.ProposalID)
	mockRepo.AssertExpectations(t)
}

func TestCastVoteDuplicateRejected(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	ctx := context.Background()
	projectID := uuid.New()
	memberID := uuid.New()

	mockRepo.On("GetSession", ctx, projectID, SessionProposalSelection).
		Return(openSession(projectID, SessionProposalSelection), nil)
	mockRepo.On("IsEligibleMember", ctx, projectID, memberID).Return(true, nil)
	mockRepo.On("InsertVote", ctx, mock.AnythingOfType("*voting.Vote")).Return(ErrDuplicateVote)

	vote, err := service.CastVote(ctx, memberID, projectID, SubmitVoteRequest{
		VotingSession: SessionProposalSelection,
		Vote:          VoteNo,
	})

	assert.ErrorIs(t, err, ErrDuplicateVote)
	assert.Nil(t, vote)
	mockRepo.AssertExpectations(t)
}

func TestCastVoteSessionNotStarted(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	ctx := context.Background()
	projectID := uuid.New()

	mockRepo.On("GetSession", ctx, projectID, SessionProposalSelection).Return(nil, ErrNotFound)

	_, err := service.CastVote(ctx, uuid.New(), projectID, SubmitVoteRequest{
		VotingSession: SessionProposalSelection,
		Vote:          VoteYes,
	})

	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCastVoteAfterDeadline(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	ctx := context.Background()
	projectID := uuid.New()

	// Still marked open in storage, but the deadline has passed.
	session := openSession(projectID, SessionProposalSelection)
	expired := time.Now().Add(-time.Minute)
	session.Deadline = &expired

	mockRepo.On("GetSession", ctx, projectID, SessionProposalSelection).Return(session, nil)

	_, err := service.CastVote(ctx, uuid.New(), projectID, SubmitVoteRequest{
		VotingSession: SessionProposalSelection,
		Vote:          VoteYes,
	})

	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCastVoteValidation(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	_, err := service.CastVote(ctx, uuid.New(), uuid.New(), SubmitVoteRequest{
		VotingSession: SessionProposalSelection,
		Vote:          "maybe",
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = service.CastVote(ctx, uuid.New(), uuid.New(), SubmitVoteRequest{
		Vote: VoteYes,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = service.CastVote(ctx, uuid.New(), uuid.New(), SubmitVoteRequest{
		VotingSession: SessionProposalSelection,
		Vote:          VoteYes,
		Reason:        strings.Repeat("x", maxReasonLength+1),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCastVoteNotEligible(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	ctx := context.Background()
	projectID := uuid.New()
	memberID := uuid.New()

	mockRepo.On("GetSession", ctx, projectID, SessionProposalSelection).
		Return(openSession(projectID, SessionProposalSelection), nil)
	mockRepo.On("IsEligibleMember", ctx, projectID, memberID).Return(false, nil)

	_, err := service.CastVote(ctx, memberID, projectID, SubmitVoteRequest{
		VotingSession: SessionProposalSelection,
		Vote:          VoteAbstain,
	})

	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestCastVoteDeveloperSelection(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	ctx := context.Background()
	projectID := uuid.New()
	memberID := uuid.New()
	proposalID := uuid.New()

	mockRepo.On("GetSession", ctx, projectID, SessionDeveloperSelection).
		Return(openSession(projectID, SessionDeveloperSelection), nil)
	mockRepo.On("IsEligibleMember", ctx, projectID, memberID).Return(true, nil)
	mockRepo.On("SessionProposals", ctx, projectID).
		Return([]ProposalRef{{ID: proposalID, DeveloperName: "Shree Builders", Status: "shortlisted"}}, nil)
	mockRepo.On("InsertVote", ctx, mock.AnythingOfType("*voting.Vote")).Return(nil)

	vote, err := service.CastVote(ctx, memberID, projectID, SubmitVoteRequest{
		VotingSession: SessionDeveloperSelection,
		Vote:          VoteYes,
		ProposalID:    &proposalID,
	})

	assert.NoError(t, err)
	assert.Equal(t, proposalID, vote.ProposalID)
	mockRepo.AssertExpectations(t)
}

func TestCastVoteProposalNotOnBallot(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	ctx := context.Background()
	projectID := uuid.New()
	memberID := uuid.New()
	orphan := uuid.New()

	mockRepo.On("GetSession", ctx, projectID, SessionDeveloperSelection).
		Return(openSession(projectID, SessionDeveloperSelection), nil)
	mockRepo.On("IsEligibleMember", ctx, projectID, memberID).Return(true, nil)
	mockRepo.On("SessionProposals", ctx, projectID).
		Return([]ProposalRef{{ID: uuid.New(), Status: "shortlisted"}}, nil)

	_, err := service.CastVote(ctx, memberID, projectID, SubmitVoteRequest{
		VotingSession: SessionDeveloperSelection,
		Vote:          VoteYes,
		ProposalID:    &orphan,
	})

	// A vote against an unknown proposal must never reach the ledger: it
	// would count towards participation yet appear in no breakdown.
	assert.ErrorIs(t, err, ErrValidation)
	mockRepo.AssertNotCalled(t, "InsertVote", mock.Anything, mock.Anything)
}

func TestCastVoteProposalOnSingleSubjectSession(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	ctx := context.Background()
	projectID := uuid.New()
	memberID := uuid.New()
	proposalID := uuid.New()

	mockRepo.On("GetSession", ctx, projectID, SessionProposalSelection).
		Return(openSession(projectID, SessionProposalSelection), nil)
	mockRepo.On("IsEligibleMember", ctx, projectID, memberID).Return(true, nil)

	_, err := service.CastVote(ctx, memberID, projectID, SubmitVoteRequest{
		VotingSession: SessionProposalSelection,
		Vote:          VoteYes,
		ProposalID:    &proposalID,
	})

	assert.ErrorIs(t, err, ErrValidation)
	mockRepo.AssertNotCalled(t, "InsertVote", mock.Anything, mock.Anything)
}

func TestCastVoteDeveloperSelectionRequiresProposal(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	ctx := context.Background()
	projectID := uuid.New()
	memberID := uuid.New()

	mockRepo.On("GetSession", ctx, projectID, SessionDeveloperSelection).
		Return(openSession(projectID, SessionDeveloperSelection), nil)
	mockRepo.On("IsEligibleMember", ctx, projectID, memberID).Return(true, nil)

	_, err := service.CastVote(ctx, memberID, projectID, SubmitVoteRequest{
		VotingSession: SessionDeveloperSelection,
		Vote:          VoteYes,
	})

	assert.ErrorIs(t, err, ErrValidation)
	mockRepo.AssertNotCalled(t, "InsertVote", mock.Anything, mock.Anything)
}

func TestStartVotingValidation(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	_, err := service.StartVoting(ctx, uuid.New(), uuid.New(), SessionProposalSelection, StartVotingRequest{
		MinimumApprovalPct: 40,
	})
	assert.ErrorIs(t, err, ErrValidation)

	past := time.Now().Add(-time.Hour)
	_, err = service.StartVoting(ctx, uuid.New(), uuid.New(), SessionProposalSelection, StartVotingRequest{
		MinimumApprovalPct: 75,
		Deadline:           &past,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStartVotingAlreadyOpen(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	ctx := context.Background()
	projectID := uuid.New()
	societyID := uuid.New()

	mockRepo.On("ProjectGovernance", ctx, projectID).
		Return(&ProjectGovernance{ProjectID: projectID, SocietyID: societyID, DenominatorPolicy: DenominatorEligibleMembers}, nil)
	mockRepo.On("GetSession", ctx, projectID, SessionProposalSelection).
		Return(openSession(projectID, SessionProposalSelection), nil)

	_, err := service.StartVoting(ctx, societyID, projectID, SessionProposalSelection, StartVotingRequest{
		MinimumApprovalPct: 75,
	})

	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestStartVotingCreatesSession(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	ctx := context.Background()
	projectID := uuid.New()
	societyID := uuid.New()

	mockRepo.On("ProjectGovernance", ctx, projectID).
		Return(&ProjectGovernance{ProjectID: projectID, SocietyID: societyID, DenominatorPolicy: DenominatorVotesCast}, nil)
	mockRepo.On("GetSession", ctx, projectID, SessionProposalSelection).Return(nil, ErrNotFound)
	mockRepo.On("CreateSession", ctx, mock.AnythingOfType("*voting.VotingSession")).Return(nil)

	session, err := service.StartVoting(ctx, societyID, projectID, SessionProposalSelection, StartVotingRequest{
		MinimumApprovalPct: 75,
	})

	assert.NoError(t, err)
	assert.Equal(t, StatusOpen, session.Status)
	assert.Equal(t, DenominatorVotesCast, session.DenominatorPolicy)
	mockRepo.AssertExpectations(t)
}

func TestStartVotingOtherSocietyProject(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	ctx := context.Background()
	projectID := uuid.New()

	mockRepo.On("ProjectGovernance", ctx, projectID).
		Return(&ProjectGovernance{ProjectID: projectID, SocietyID: uuid.New()}, nil)

	_, err := service.StartVoting(ctx, uuid.New(), projectID, SessionProposalSelection, StartVotingRequest{
		MinimumApprovalPct: 75,
	})

	assert.ErrorIs(t, err, ErrForbidden)
	mockRepo.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
}

func TestCloseVotingOtherSocietyProject(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	ctx := context.Background()
	projectID := uuid.New()

	mockRepo.On("ProjectGovernance", ctx, projectID).
		Return(&ProjectGovernance{ProjectID: projectID, SocietyID: uuid.New()}, nil)

	_, err := service.CloseVoting(ctx, uuid.New(), projectID, SessionProposalSelection)

	assert.ErrorIs(t, err, ErrForbidden)
	mockRepo.AssertNotCalled(t, "CloseSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCloseVotingIdempotent(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	ctx := context.Background()
	projectID := uuid.New()
	societyID := uuid.New()

	stored := FinalResults{
		ProjectID:          projectID,
		SessionKey:         SessionProposalSelection,
		ClosedAt:           time.Now().Add(-time.Hour),
		EligibleMembers:    10,
		VotesCast:          8,
		MinimumApprovalPct: 75,
		IsApproved:         true,
	}
	raw, err := json.Marshal(stored)
	assert.NoError(t, err)

	closedAt := stored.ClosedAt
	session := &VotingSession{
		ID:           uuid.New(),
		ProjectID:    projectID,
		SessionKey:   SessionProposalSelection,
		Status:       StatusClosed,
		ClosedAt:     &closedAt,
		FinalResults: raw,
	}

	mockRepo.On("ProjectGovernance", ctx, projectID).
		Return(&ProjectGovernance{ProjectID: projectID, SocietyID: societyID}, nil)
	mockRepo.On("CloseSession", ctx, projectID, SessionProposalSelection, mock.Anything).
		Return(nil, ErrAlreadyClosed)
	mockRepo.On("GetSession", ctx, projectID, SessionProposalSelection).Return(session, nil)

	final, err := service.CloseVoting(ctx, societyID, projectID, SessionProposalSelection)

	assert.NoError(t, err)
	assert.True(t, final.IsApproved)
	assert.Equal(t, 8, final.VotesCast)
	mockRepo.AssertExpectations(t)
}

func TestSessionStatusNotStarted(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	ctx := context.Background()
	projectID := uuid.New()

	mockRepo.On("GetSession", ctx, projectID, SessionProposalSelection).Return(nil, ErrNotFound)

	session, status, err := service.SessionStatus(ctx, projectID, SessionProposalSelection)

	assert.NoError(t, err)
	assert.Nil(t, session)
	assert.Equal(t, StatusNotStarted, status)
}

func TestFinalResultsWhileOpen(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	ctx := context.Background()
	projectID := uuid.New()

	mockRepo.On("GetSession", ctx, projectID, SessionProposalSelection).
		Return(openSession(projectID, SessionProposalSelection), nil)

	_, err := service.FinalResults(ctx, projectID, SessionProposalSelection)

	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestFinalResultsFinalizesExpiredSession(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	ctx := context.Background()
	projectID := uuid.New()

	session := openSession(projectID, SessionProposalSelection)
	expired := time.Now().Add(-time.Minute)
	session.Deadline = &expired

	final := &FinalResults{
		ProjectID:  projectID,
		SessionKey: SessionProposalSelection,
		ClosedAt:   expired,
		IsApproved: false,
	}

	mockRepo.On("GetSession", ctx, projectID, SessionProposalSelection).Return(session, nil)
	mockRepo.On("CloseSession", ctx, projectID, SessionProposalSelection, mock.Anything).
		Return(final, nil)

	got, err := service.FinalResults(ctx, projectID, SessionProposalSelection)

	assert.NoError(t, err)
	assert.Equal(t, final, got)
	mockRepo.AssertExpectations(t)
}
