package queries

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusOpen     = "open"
	StatusAnswered = "answered"
	StatusClosed   = "closed"
)

// Query is a member's question raised against a redevelopment project,
// answered by the society owner.
type Query struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	MemberID  uuid.UUID `gorm:"type:uuid;not null;index" json:"member_id"`
	Subject   string    `gorm:"not null" json:"subject"`
	Body      string    `json:"body"`
	Status    string    `gorm:"not null;default:'open'" json:"status"`

	Response    string     `json:"response,omitempty"`
	RespondedBy *uuid.UUID `gorm:"type:uuid" json:"responded_by,omitempty"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Query) TableName() string { return "member_queries" }
