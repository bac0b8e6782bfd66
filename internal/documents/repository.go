package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("document not found")

type Repository interface {
	CreateDocument(ctx context.Context, doc *Document) error
	GetDocumentByID(ctx context.Context, id uuid.UUID) (*Document, error)
	ListDocuments(ctx context.Context, projectID *uuid.UUID, docType *DocumentType) ([]Document, error)
	UpdateDocument(ctx context.Context, doc *Document) error
	DeleteDocument(ctx context.Context, id uuid.UUID) error

	CreateVersion(ctx context.Context, version *DocumentVersion) error
	ListVersions(ctx context.Context, documentID uuid.UUID) ([]DocumentVersion, error)
	GetVersion(ctx context.Context, documentID uuid.UUID, versionNumber int) (*DocumentVersion, error)

	LogAccess(ctx context.Context, entry *DocumentAccessLog) error

	ProjectSocietyID(ctx context.Context, projectID uuid.UUID) (uuid.UUID, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateDocument(ctx context.Context, doc *Document) error {
	query := `
		INSERT INTO documents (
			id, project_id, name, description, document_type, file_type,
			file_size, s3_key, s3_bucket, current_version, uploaded_by, uploaded_at
		) VALUES (
			:id, :project_id, :name, :description, :document_type, :file_type,
			:file_size, :s3_key, :s3_bucket, :current_version, :uploaded_by, :uploaded_at
		)`
	_, err := r.db.NamedExecContext(ctx, query, doc)
	return err
}

func (r *postgresRepository) GetDocumentByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	var doc Document
	err := r.db.GetContext(ctx, &doc, "SELECT * FROM documents WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &doc, err
}

func (r *postgresRepository) ListDocuments(ctx context.Context, projectID *uuid.UUID, docType *DocumentType) ([]Document, error) {
	query := "SELECT * FROM documents WHERE 1=1"
	var args []interface{}
	argCount := 1

	if projectID != nil {
		query += fmt.Sprintf(" AND project_id = $%d", argCount)
		args = append(args, *projectID)
		argCount++
	}
	if docType != nil {
		query += fmt.Sprintf(" AND document_type = $%d", argCount)
		args = append(args, *docType)
		argCount++
	}
	query += " ORDER BY uploaded_at DESC"

	var docs []Document
	err := r.db.SelectContext(ctx, &docs, query, args...)
	return docs, err
}

func (r *postgresRepository) UpdateDocument(ctx context.Context, doc *Document) error {
	query := `
		UPDATE documents SET
			name = :name,
			description = :description,
			current_version = :current_version,
			s3_key = :s3_key,
			file_size = :file_size
		WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, query, doc)
	return err
}

func (r *postgresRepository) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = $1", id)
	return err
}

func (r *postgresRepository) CreateVersion(ctx context.Context, version *DocumentVersion) error {
	query := `
		INSERT INTO document_versions (
			id, document_id, version_number, s3_key, change_summary, uploaded_by, uploaded_at
		) VALUES (
			:id, :document_id, :version_number, :s3_key, :change_summary, :uploaded_by, :uploaded_at
		)`
	_, err := r.db.NamedExecContext(ctx, query, version)
	return err
}

func (r *postgresRepository) ListVersions(ctx context.Context, documentID uuid.UUID) ([]DocumentVersion, error) {
	var versions []DocumentVersion
	err := r.db.SelectContext(ctx, &versions,
		"SELECT * FROM document_versions WHERE document_id = $1 ORDER BY version_number DESC", documentID)
	return versions, err
}

func (r *postgresRepository) GetVersion(ctx context.Context, documentID uuid.UUID, versionNumber int) (*DocumentVersion, error) {
	var version DocumentVersion
	err := r.db.GetContext(ctx, &version,
		"SELECT * FROM document_versions WHERE document_id = $1 AND version_number = $2", documentID, versionNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &version, err
}

func (r *postgresRepository) LogAccess(ctx context.Context, entry *DocumentAccessLog) error {
	query := `
		INSERT INTO document_access_logs (
			id, document_id, member_id, action, ip_address, user_agent, performed_at
		) VALUES (
			:id, :document_id, :member_id, :action, :ip_address, :user_agent, :performed_at
		)`
	_, err := r.db.NamedExecContext(ctx, query, entry)
	return err
}

func (r *postgresRepository) ProjectSocietyID(ctx context.Context, projectID uuid.UUID) (uuid.UUID, error) {
	var societyID uuid.UUID
	err := r.db.GetContext(ctx, &societyID,
		"SELECT society_id FROM redevelopment_projects WHERE id = $1", projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, ErrNotFound
	}
	return societyID, err
}
