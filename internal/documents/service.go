package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const presignExpiry = 15 * time.Minute

type UploadRequest struct {
	ProjectID    uuid.UUID
	Name         string
	Description  string
	DocumentType DocumentType
	FileType     FileType
	FileSize     int64
	FileContent  io.Reader
	UploadedBy   uuid.UUID
}

type VersionRequest struct {
	FileContent   io.Reader
	FileSize      int64
	ChangeSummary string
	UploadedBy    uuid.UUID
}

type AccessContext struct {
	MemberID  uuid.UUID
	SocietyID uuid.UUID
	IPAddress string
	UserAgent string
}

// ErrForbidden is returned when a mutation targets a document of a project
// outside the caller's society. Role middleware alone cannot catch this:
// an owner of one society must not touch another society's vault.
var ErrForbidden = errors.New("document belongs to a different society")

type Service interface {
	UploadDocument(ctx context.Context, req UploadRequest, access AccessContext) (*Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*Document, error)
	ListDocuments(ctx context.Context, projectID *uuid.UUID, docType *DocumentType) ([]Document, error)
	DownloadDocument(ctx context.Context, id uuid.UUID, access AccessContext) (io.ReadCloser, *Document, error)
	DownloadURL(ctx context.Context, id uuid.UUID, access AccessContext) (string, error)
	DeleteDocument(ctx context.Context, id uuid.UUID, access AccessContext) error

	UploadNewVersion(ctx context.Context, id uuid.UUID, req VersionRequest, access AccessContext) (*DocumentVersion, error)
	ListVersions(ctx context.Context, id uuid.UUID) ([]DocumentVersion, error)
	GetDocumentVersion(ctx context.Context, id uuid.UUID, version int) (*DocumentVersion, error)
}

type documentService struct {
	repo   Repository
	store  ObjectStore
	bucket string
	logger *zap.Logger
}

func NewService(repo Repository, store ObjectStore, bucket string, logger *zap.Logger) Service {
	return &documentService{repo: repo, store: store, bucket: bucket, logger: logger}
}

func (s *documentService) UploadDocument(ctx context.Context, req UploadRequest, access AccessContext) (*Document, error) {
	if req.ProjectID == uuid.Nil {
		return nil, errors.New("project_id is required")
	}
	if req.Name == "" {
		return nil, errors.New("name is required")
	}
	if !req.DocumentType.Valid() {
		return nil, fmt.Errorf("unknown document type %q", req.DocumentType)
	}
	if err := s.checkSociety(ctx, req.ProjectID, access); err != nil {
		return nil, err
	}

	docID := uuid.New()
	key := objectKey(req.ProjectID.String(), string(req.DocumentType), req.Name)

	if err := s.store.Upload(ctx, s.bucket, key, req.FileContent); err != nil {
		return nil, fmt.Errorf("failed to upload object: %w", err)
	}

	doc := &Document{
		ID:             docID,
		ProjectID:      req.ProjectID,
		Name:           req.Name,
		Description:    req.Description,
		DocumentType:   req.DocumentType,
		FileType:       req.FileType,
		FileSize:       req.FileSize,
		S3Key:          key,
		S3Bucket:       s.bucket,
		CurrentVersion: 1,
		UploadedBy:     req.UploadedBy,
		UploadedAt:     time.Now(),
	}
	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}

	s.logAccess(ctx, docID, access, "UPLOAD")
	return doc, nil
}

func (s *documentService) GetDocument(ctx context.Context, id uuid.UUID) (*Document, error) {
	return s.repo.GetDocumentByID(ctx, id)
}

func (s *documentService) ListDocuments(ctx context.Context, projectID *uuid.UUID, docType *DocumentType) ([]Document, error) {
	return s.repo.ListDocuments(ctx, projectID, docType)
}

func (s *documentService) DownloadDocument(ctx context.Context, id uuid.UUID, access AccessContext) (io.ReadCloser, *Document, error) {
	doc, err := s.repo.GetDocumentByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	reader, err := s.store.Download(ctx, doc.S3Bucket, doc.S3Key)
	if err != nil {
		return nil, nil, err
	}
	s.logAccess(ctx, id, access, "DOWNLOAD")
	return reader, doc, nil
}

func (s *documentService) DownloadURL(ctx context.Context, id uuid.UUID, access AccessContext) (string, error) {
	doc, err := s.repo.GetDocumentByID(ctx, id)
	if err != nil {
		return "", err
	}
	url, err := s.store.PresignDownload(ctx, doc.S3Bucket, doc.S3Key, presignExpiry)
	if err != nil {
		return "", err
	}
	s.logAccess(ctx, id, access, "VIEW")
	return url, nil
}

func (s *documentService) DeleteDocument(ctx context.Context, id uuid.UUID, access AccessContext) error {
	doc, err := s.repo.GetDocumentByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkSociety(ctx, doc.ProjectID, access); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, doc.S3Bucket, doc.S3Key); err != nil {
		s.logger.Warn("failed to delete object from storage",
			zap.String("document_id", id.String()), zap.Error(err))
	}
	if err := s.repo.DeleteDocument(ctx, id); err != nil {
		return err
	}
	s.logAccess(ctx, id, access, "DELETE")
	return nil
}

func (s *documentService) UploadNewVersion(ctx context.Context, id uuid.UUID, req VersionRequest, access AccessContext) (*DocumentVersion, error) {
	doc, err := s.repo.GetDocumentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkSociety(ctx, doc.ProjectID, access); err != nil {
		return nil, err
	}

	versionNumber := doc.CurrentVersion + 1
	key := objectKey(doc.ProjectID.String(), string(doc.DocumentType),
		fmt.Sprintf("%s_v%d", doc.Name, versionNumber))

	if err := s.store.Upload(ctx, doc.S3Bucket, key, req.FileContent); err != nil {
		return nil, fmt.Errorf("failed to upload object: %w", err)
	}

	version := &DocumentVersion{
		ID:            uuid.New(),
		DocumentID:    id,
		VersionNumber: versionNumber,
		S3Key:         key,
		ChangeSummary: req.ChangeSummary,
		UploadedBy:    req.UploadedBy,
		UploadedAt:    time.Now(),
	}
	if err := s.repo.CreateVersion(ctx, version); err != nil {
		return nil, err
	}

	doc.CurrentVersion = versionNumber
	doc.S3Key = key
	if req.FileSize > 0 {
		doc.FileSize = req.FileSize
	}
	if err := s.repo.UpdateDocument(ctx, doc); err != nil {
		return nil, err
	}
	return version, nil
}

func (s *documentService) ListVersions(ctx context.Context, id uuid.UUID) ([]DocumentVersion, error) {
	return s.repo.ListVersions(ctx, id)
}

func (s *documentService) GetDocumentVersion(ctx context.Context, id uuid.UUID, version int) (*DocumentVersion, error) {
	return s.repo.GetVersion(ctx, id, version)
}

func (s *documentService) checkSociety(ctx context.Context, projectID uuid.UUID, access AccessContext) error {
	societyID, err := s.repo.ProjectSocietyID(ctx, projectID)
	if err != nil {
		return err
	}
	if societyID != access.SocietyID {
		return ErrForbidden
	}
	return nil
}

// Access logging is best effort. Losing an audit row must not fail the
// member-facing request.
func (s *documentService) logAccess(ctx context.Context, docID uuid.UUID, access AccessContext, action string) {
	if access.MemberID == uuid.Nil {
		return
	}
	entry := &DocumentAccessLog{
		ID:          uuid.New(),
		DocumentID:  docID,
		MemberID:    access.MemberID,
		Action:      action,
		IPAddress:   access.IPAddress,
		UserAgent:   access.UserAgent,
		PerformedAt: time.Now(),
	}
	if err := s.repo.LogAccess(ctx, entry); err != nil {
		s.logger.Warn("failed to record document access",
			zap.String("document_id", docID.String()),
			zap.String("action", action),
			zap.Error(err))
	}
}
