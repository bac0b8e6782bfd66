package documents

import (
	"context"
	"io"
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

func (m *MockRepository) CreateDocument(ctx context.Context, doc *Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockRepository) GetDocumentByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Document), args.Error(1)
}

func (m *MockRepository) ListDocuments(ctx context.Context, projectID *uuid.UUID, docType *DocumentType) ([]Document, error) {
	args := m.Called(ctx, projectID, docType)
	return args.Get(0).([]Document), args.Error(1)
}

func (m *MockRepository) UpdateDocument(ctx context.Context, doc *Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockRepository) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) CreateVersion(ctx context.Context, version *DocumentVersion) error {
	args := m.Called(ctx, version)
	return args.Error(0)
}

func (m *MockRepository) ListVersions(ctx context.Context, documentID uuid.UUID) ([]DocumentVersion, error) {
	args := m.Called(ctx, documentID)
	return args.Get(0).([]DocumentVersion), args.Error(1)
}

func (m *MockRepository) GetVersion(ctx context.Context, documentID uuid.UUID, versionNumber int) (*DocumentVersion, error) {
	args := m.Called(ctx, documentID, versionNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DocumentVersion), args.Error(1)
}

func (m *MockRepository) LogAccess(ctx context.Context, entry *DocumentAccessLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockRepository) ProjectSocietyID(ctx context.Context, projectID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// MockObjectStore is a mock implementation of the ObjectStore interface
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Upload(ctx context.Context, bucket, key string, body io.Reader) error {
	args := m.Called(ctx, bucket, key, body)
	return args.Error(0)
}

func (m *MockObjectStore) Download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, bucket, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockObjectStore) Delete(ctx context.Context, bucket, key string) error {
	args := m.Called(ctx, bucket, key)
	return args.Error(0)
}

func (m *MockObjectStore) PresignDownload(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, bucket, key, expiry)
	return args.String(0), args.Error(1)
}

func ownerAccess(societyID uuid.UUID) AccessContext {
	return AccessContext{
		MemberID:  uuid.New(),
		SocietyID: societyID,
		IPAddress: "10.0.0.1",
		UserAgent: "test",
	}
}

func TestUploadDocument(t *testing.T) {
	mockRepo := new(MockRepository)
	mockStore := new(MockObjectStore)
	service := NewService(mockRepo, mockStore, "society-docs", zap.NewNop())

	ctx := context.Background()
	projectID := uuid.New()
	societyID := uuid.New()

	mockRepo.On("ProjectSocietyID", ctx, projectID).Return(societyID, nil)
	mockStore.On("Upload", ctx, "society-docs", mock.AnythingOfType("string"), mock.Anything).Return(nil)
	mockRepo.On("CreateDocument", ctx, mock.AnythingOfType("*documents.Document")).Return(nil)
	mockRepo.On("LogAccess", ctx, mock.AnythingOfType("*documents.DocumentAccessLog")).Return(nil)

	doc, err := service.UploadDocument(ctx, UploadRequest{
		ProjectID:    projectID,
		Name:         "meeting-minutes.pdf",
		DocumentType: TypeMeetingMinutes,
		FileType:     FileTypePDF,
		FileSize:     1024,
		FileContent:  strings.NewReader("minutes"),
		UploadedBy:   uuid.New(),
	}, ownerAccess(societyID))

	assert.NoError(t, err)
	assert.Equal(t, 1, doc.CurrentVersion)
	assert.Equal(t, "society-docs", doc.S3Bucket)
	mockRepo.AssertExpectations(t)
	mockStore.AssertExpectations(t)
}

func TestUploadDocumentOtherSociety(t *testing.T) {
	mockRepo := new(MockRepository)
	mockStore := new(MockObjectStore)
	service := NewService(mockRepo, mockStore, "society-docs", zap.NewNop())

	ctx := context.Background()
	projectID := uuid.New()

	mockRepo.On("ProjectSocietyID", ctx, projectID).Return(uuid.New(), nil)

	_, err := service.UploadDocument(ctx, UploadRequest{
		ProjectID:    projectID,
		Name:         "meeting-minutes.pdf",
		DocumentType: TypeMeetingMinutes,
		FileContent:  strings.NewReader("minutes"),
	}, ownerAccess(uuid.New()))

	assert.ErrorIs(t, err, ErrForbidden)
	mockStore.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "CreateDocument", mock.Anything, mock.Anything)
}

func TestDeleteDocumentOtherSociety(t *testing.T) {
	mockRepo := new(MockRepository)
	mockStore := new(MockObjectStore)
	service := NewService(mockRepo, mockStore, "society-docs", zap.NewNop())

	ctx := context.Background()
	doc := &Document{
		ID:        uuid.New(),
		ProjectID: uuid.New(),
		S3Bucket:  "society-docs",
		S3Key:     "projects/x/documents/NOTICE/notice.pdf",
	}

	mockRepo.On("GetDocumentByID", ctx, doc.ID).Return(doc, nil)
	mockRepo.On("ProjectSocietyID", ctx, doc.ProjectID).Return(uuid.New(), nil)

	err := service.DeleteDocument(ctx, doc.ID, ownerAccess(uuid.New()))

	assert.ErrorIs(t, err, ErrForbidden)
	mockStore.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "DeleteDocument", mock.Anything, mock.Anything)
}

func TestUploadNewVersionOtherSociety(t *testing.T) {
	mockRepo := new(MockRepository)
	mockStore := new(MockObjectStore)
	service := NewService(mockRepo, mockStore, "society-docs", zap.NewNop())

	ctx := context.Background()
	doc := &Document{
		ID:             uuid.New(),
		ProjectID:      uuid.New(),
		Name:           "agreement.pdf",
		DocumentType:   TypeSocietyAgreement,
		S3Bucket:       "society-docs",
		CurrentVersion: 1,
	}

	mockRepo.On("GetDocumentByID", ctx, doc.ID).Return(doc, nil)
	mockRepo.On("ProjectSocietyID", ctx, doc.ProjectID).Return(uuid.New(), nil)

	_, err := service.UploadNewVersion(ctx, doc.ID, VersionRequest{
		FileContent: strings.NewReader("v2"),
		UploadedBy:  uuid.New(),
	}, ownerAccess(uuid.New()))

	assert.ErrorIs(t, err, ErrForbidden)
	mockStore.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "CreateVersion", mock.Anything, mock.Anything)
}
