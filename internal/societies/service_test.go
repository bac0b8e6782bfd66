package societies

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateSociety(ctx context.Context, society *Society) error {
	args := m.Called(ctx, society)
	return args.Error(0)
}

func (m *MockRepository) GetSociety(ctx context.Context, id uuid.UUID) (*Society, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Society), args.Error(1)
}

func (m *MockRepository) ListSocieties(ctx context.Context) ([]Society, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Society), args.Error(1)
}

func (m *MockRepository) CreateMember(ctx context.Context, member *Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockRepository) GetMember(ctx context.Context, id uuid.UUID) (*Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Member), args.Error(1)
}

func (m *MockRepository) GetMemberByEmail(ctx context.Context, email string) (*Member, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Member), args.Error(1)
}

func (m *MockRepository) ListMembers(ctx context.Context, societyID uuid.UUID) ([]Member, error) {
	args := m.Called(ctx, societyID)
	return args.Get(0).([]Member), args.Error(1)
}

func (m *MockRepository) UpdateMember(ctx context.Context, member *Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockRepository) CreateInvitation(ctx context.Context, invitation *Invitation) error {
	args := m.Called(ctx, invitation)
	return args.Error(0)
}

func (m *MockRepository) GetInvitationByToken(ctx context.Context, token string) (*Invitation, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Invitation), args.Error(1)
}

func (m *MockRepository) ListInvitations(ctx context.Context, societyID uuid.UUID) ([]Invitation, error) {
	args := m.Called(ctx, societyID)
	return args.Get(0).([]Invitation), args.Error(1)
}

func (m *MockRepository) UpdateInvitation(ctx context.Context, invitation *Invitation) error {
	args := m.Called(ctx, invitation)
	return args.Error(0)
}

func TestRegisterSociety(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, nil, zap.NewNop())

	ctx := context.Background()
	req := RegisterSocietyRequest{
		Name:               "Shanti Heights CHS",
		RegistrationNumber: "MUM/2001/1234",
		City:               "Mumbai",
		TotalUnits:         48,
		OwnerName:          "Asha Patil",
		OwnerEmail:         "Asha@Example.com",
		OwnerPassword:      "secret123",
	}

	mockRepo.On("CreateSociety", ctx, mock.AnythingOfType("*societies.Society")).Return(nil)
	mockRepo.On("CreateMember", ctx, mock.AnythingOfType("*societies.Member")).Return(nil)

	society, owner, err := service.RegisterSociety(ctx, req)

	assert.NoError(t, err)
	assert.Equal(t, req.Name, society.Name)
	assert.Equal(t, RoleSocietyOwner, owner.Role)
	assert.Equal(t, "asha@example.com", owner.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(owner.PasswordHash), []byte("secret123")))
	mockRepo.AssertExpectations(t)
}

func TestInviteMemberEmailTaken(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, nil, zap.NewNop())

	ctx := context.Background()
	societyID := uuid.New()

	mockRepo.On("GetMemberByEmail", ctx, "taken@example.com").
		Return(&Member{ID: uuid.New(), Email: "taken@example.com"}, nil)

	_, err := service.InviteMember(ctx, societyID, uuid.New(), InviteMemberRequest{
		Email: "taken@example.com",
	})

	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestInviteMember(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, nil, zap.NewNop())

	ctx := context.Background()
	societyID := uuid.New()

	mockRepo.On("GetMemberByEmail", ctx, "new@example.com").Return(nil, ErrNotFound)
	mockRepo.On("GetSociety", ctx, societyID).
		Return(&Society{ID: societyID, Name: "Shanti Heights CHS"}, nil)
	mockRepo.On("CreateInvitation", ctx, mock.AnythingOfType("*societies.Invitation")).Return(nil)

	invitation, err := service.InviteMember(ctx, societyID, uuid.New(), InviteMemberRequest{
		Email:      "new@example.com",
		UnitNumber: "B-203",
	})

	assert.NoError(t, err)
	assert.Equal(t, InvitationPending, invitation.Status)
	assert.Equal(t, RoleSocietyMember, invitation.Role)
	assert.NotEmpty(t, invitation.Token)
	mockRepo.AssertExpectations(t)
}

func TestAcceptInvitation(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, nil, zap.NewNop())

	ctx := context.Background()
	invitation := &Invitation{
		ID:         uuid.New(),
		SocietyID:  uuid.New(),
		Email:      "new@example.com",
		UnitNumber: "B-203",
		Role:       RoleSocietyMember,
		Token:      uuid.NewString(),
		Status:     InvitationPending,
		ExpiresAt:  time.Now().Add(24 * time.Hour),
	}

	mockRepo.On("GetInvitationByToken", ctx, invitation.Token).Return(invitation, nil)
	mockRepo.On("CreateMember", ctx, mock.AnythingOfType("*societies.Member")).Return(nil)
	mockRepo.On("UpdateInvitation", ctx, invitation).Return(nil)

	member, err := service.AcceptInvitation(ctx, invitation.Token, AcceptInvitationRequest{
		Name:     "Ravi Mehta",
		Password: "secret123",
	})

	assert.NoError(t, err)
	assert.Equal(t, invitation.SocietyID, member.SocietyID)
	assert.Equal(t, "B-203", member.UnitNumber)
	assert.Equal(t, InvitationAccepted, invitation.Status)
	mockRepo.AssertExpectations(t)
}

func TestAcceptInvitationExpired(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, nil, zap.NewNop())

	ctx := context.Background()
	invitation := &Invitation{
		ID:        uuid.New(),
		Token:     uuid.NewString(),
		Status:    InvitationPending,
		ExpiresAt: time.Now().Add(-time.Hour),
	}

	mockRepo.On("GetInvitationByToken", ctx, invitation.Token).Return(invitation, nil)

	_, err := service.AcceptInvitation(ctx, invitation.Token, AcceptInvitationRequest{
		Password: "secret123",
	})

	assert.ErrorIs(t, err, ErrInvitationNotPending)
}
