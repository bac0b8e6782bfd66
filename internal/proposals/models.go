package proposals

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	StatusSubmitted   = "submitted"
	StatusUnderReview = "under_review"
	StatusShortlisted = "shortlisted"
	StatusSelected    = "selected"
	StatusRejected    = "rejected"
	StatusWithdrawn   = "withdrawn"
)

// Proposal is a developer's offer for a redevelopment project. The
// submission timestamp doubles as the deterministic tie-break when two
// proposals finish a vote with identical approval percentages.
type Proposal struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID   uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	DeveloperID uuid.UUID `gorm:"type:uuid;not null" json:"developer_id"`

	DeveloperName string `gorm:"not null" json:"developer_name"`
	Title         string `gorm:"not null" json:"title"`
	Description   string `json:"description"`

	// Financial terms
	CorpusAmount   float64 `json:"corpus_amount"`
	MonthlyRent    float64 `json:"monthly_rent"`
	FSI            float64 `gorm:"column:fsi" json:"fsi"`
	TimelineMonths int     `json:"timeline_months"`

	Attachments datatypes.JSON `json:"attachments"` // document references

	Status      string    `gorm:"not null;default:'submitted'" json:"status"`
	SubmittedAt time.Time `gorm:"not null" json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Proposal) TableName() string { return "proposals" }
