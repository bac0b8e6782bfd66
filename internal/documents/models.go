package documents

import (
	"time"

	"github.com/google/uuid"
)

type DocumentType string

const (
	TypeSocietyAgreement DocumentType = "SOCIETY_AGREEMENT"
	TypeMeetingMinutes   DocumentType = "MEETING_MINUTES"
	TypeNotice           DocumentType = "NOTICE"
	TypeProposalBrochure DocumentType = "PROPOSAL_BROCHURE"
	TypeSurveyReport     DocumentType = "SURVEY_REPORT"
	TypeVotingResults    DocumentType = "VOTING_RESULTS"
	TypeOther            DocumentType = "OTHER"
)

func (t DocumentType) Valid() bool {
	switch t {
	case TypeSocietyAgreement, TypeMeetingMinutes, TypeNotice,
		TypeProposalBrochure, TypeSurveyReport, TypeVotingResults, TypeOther:
		return true
	}
	return false
}

type FileType string

const (
	FileTypePDF   FileType = "PDF"
	FileTypeDOCX  FileType = "DOCX"
	FileTypeXLSX  FileType = "XLSX"
	FileTypeImage FileType = "IMAGE"
	FileTypeZIP   FileType = "ZIP"
)

type Document struct {
	ID             uuid.UUID    `json:"id" db:"id"`
	ProjectID      uuid.UUID    `json:"project_id" db:"project_id"`
	Name           string       `json:"name" db:"name"`
	Description    string       `json:"description" db:"description"`
	DocumentType   DocumentType `json:"document_type" db:"document_type"`
	FileType       FileType     `json:"file_type" db:"file_type"`
	FileSize       int64        `json:"file_size" db:"file_size"`
	S3Key          string       `json:"s3_key" db:"s3_key"`
	S3Bucket       string       `json:"s3_bucket" db:"s3_bucket"`
	CurrentVersion int          `json:"current_version" db:"current_version"`
	UploadedBy     uuid.UUID    `json:"uploaded_by" db:"uploaded_by"`
	UploadedAt     time.Time    `json:"uploaded_at" db:"uploaded_at"`
}

type DocumentVersion struct {
	ID            uuid.UUID `json:"id" db:"id"`
	DocumentID    uuid.UUID `json:"document_id" db:"document_id"`
	VersionNumber int       `json:"version_number" db:"version_number"`
	S3Key         string    `json:"s3_key" db:"s3_key"`
	ChangeSummary string    `json:"change_summary" db:"change_summary"`
	UploadedBy    uuid.UUID `json:"uploaded_by" db:"uploaded_by"`
	UploadedAt    time.Time `json:"uploaded_at" db:"uploaded_at"`
}

type DocumentAccessLog struct {
	ID          uuid.UUID `json:"id" db:"id"`
	DocumentID  uuid.UUID `json:"document_id" db:"document_id"`
	MemberID    uuid.UUID `json:"member_id" db:"member_id"`
	Action      string    `json:"action" db:"action"` // 'VIEW', 'DOWNLOAD', 'UPLOAD', 'DELETE'
	IPAddress   string    `json:"ip_address" db:"ip_address"`
	UserAgent   string    `json:"user_agent" db:"user_agent"`
	PerformedAt time.Time `json:"performed_at" db:"performed_at"`
}
