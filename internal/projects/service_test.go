package projects

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

func (m *MockRepository) Create(ctx context.Context, project *RedevelopmentProject) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*RedevelopmentProject, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RedevelopmentProject), args.Error(1)
}

func (m *MockRepository) ListBySociety(ctx context.Context, societyID uuid.UUID) ([]RedevelopmentProject, error) {
	args := m.Called(ctx, societyID)
	return args.Get(0).([]RedevelopmentProject), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, project *RedevelopmentProject) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) RecordStatus(ctx context.Context, history *ProjectStatusHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockRepository) ListStatusHistory(ctx context.Context, projectID uuid.UUID) ([]ProjectStatusHistory, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]ProjectStatusHistory), args.Error(1)
}

func storedProject(societyID uuid.UUID) *RedevelopmentProject {
	return &RedevelopmentProject{
		ID:                 uuid.New(),
		SocietyID:          societyID,
		Name:               "Shanti Niwas Redevelopment",
		Status:             "draft",
		MinimumApprovalPct: 75,
	}
}

func TestCreateProject(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, zap.NewNop())

	ctx := context.Background()
	societyID := uuid.New()

	mockRepo.On("Create", ctx, mock.AnythingOfType("*projects.RedevelopmentProject")).Return(nil)
	mockRepo.On("RecordStatus", ctx, mock.AnythingOfType("*projects.ProjectStatusHistory")).Return(nil)

	project, err := service.CreateProject(ctx, uuid.New(), societyID, CreateProjectRequest{
		SocietyID: societyID,
		Name:      "Shanti Niwas Redevelopment",
	})

	assert.NoError(t, err)
	assert.Equal(t, "draft", project.Status)
	assert.Equal(t, 75, project.MinimumApprovalPct)
	mockRepo.AssertExpectations(t)
}

func TestCreateProjectForOtherSociety(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, zap.NewNop())

	_, err := service.CreateProject(context.Background(), uuid.New(), uuid.New(), CreateProjectRequest{
		SocietyID: uuid.New(),
		Name:      "Shanti Niwas Redevelopment",
	})

	assert.ErrorIs(t, err, ErrForbidden)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateProjectOtherSociety(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, zap.NewNop())

	ctx := context.Background()
	project := storedProject(uuid.New())

	mockRepo.On("GetByID", ctx, project.ID).Return(project, nil)

	name := "renamed"
	_, err := service.UpdateProject(ctx, project.ID, uuid.New(), UpdateProjectRequest{Name: &name})

	assert.ErrorIs(t, err, ErrForbidden)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestTransitionStatusOtherSociety(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, zap.NewNop())

	ctx := context.Background()
	project := storedProject(uuid.New())

	mockRepo.On("GetByID", ctx, project.ID).Return(project, nil)

	_, err := service.TransitionStatus(ctx, project.ID, uuid.New(), "active", uuid.New())

	assert.ErrorIs(t, err, ErrForbidden)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestTransitionStatus(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, zap.NewNop())

	ctx := context.Background()
	societyID := uuid.New()
	project := storedProject(societyID)

	mockRepo.On("GetByID", ctx, project.ID).Return(project, nil)
	mockRepo.On("Update", ctx, mock.AnythingOfType("*projects.RedevelopmentProject")).Return(nil)
	mockRepo.On("RecordStatus", ctx, mock.AnythingOfType("*projects.ProjectStatusHistory")).Return(nil)

	updated, err := service.TransitionStatus(ctx, project.ID, societyID, "active", uuid.New())

	assert.NoError(t, err)
	assert.Equal(t, "active", updated.Status)
	mockRepo.AssertExpectations(t)
}

func TestTransitionStatusInvalid(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, zap.NewNop())

	ctx := context.Background()
	societyID := uuid.New()
	project := storedProject(societyID)

	mockRepo.On("GetByID", ctx, project.ID).Return(project, nil)

	_, err := service.TransitionStatus(ctx, project.ID, societyID, "completed", uuid.New())

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDeleteProjectOtherSociety(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, zap.NewNop())

	ctx := context.Background()
	project := storedProject(uuid.New())

	mockRepo.On("GetByID", ctx, project.ID).Return(project, nil)

	err := service.DeleteProject(ctx, project.ID, uuid.New())

	assert.ErrorIs(t, err, ErrForbidden)
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
