package notifications

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	TypeVotingOpened  = "voting_opened"
	TypeVotingClosed  = "voting_closed"
	TypeVoteRecorded  = "vote_recorded"
	TypeInvitation    = "invitation"
	TypeDeadlineAlert = "deadline_alert"
)

// Notification is an in-app notification record for one member.
type Notification struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MemberID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"member_id"`
	ProjectID *uuid.UUID     `gorm:"type:uuid;index" json:"project_id,omitempty"`
	Type      string         `gorm:"not null" json:"type"`
	Subject   string         `gorm:"not null" json:"subject"`
	Body      string         `json:"body"`
	Payload   datatypes.JSON `json:"payload,omitempty"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

// Event is the wire shape pushed over the live WebSocket feed.
type Event struct {
	Type       string      `json:"type"`
	ProjectID  string      `json:"project_id"`
	SessionKey string      `json:"session_key,omitempty"`
	Payload    interface{} `json:"payload,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Recipient is a deliverable member address resolved from a project's
// society roster.
type Recipient struct {
	MemberID uuid.UUID `json:"member_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
}
