package projects

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RedevelopmentProject represents one society's redevelopment undertaking.
// Voting sessions and developer proposals hang off it.
type RedevelopmentProject struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SocietyID   uuid.UUID `gorm:"type:uuid;not null;index" json:"society_id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	Status      string    `gorm:"not null;default:'draft'" json:"status"`

	// Governance knobs read by the voting core. The denominator policy
	// decides whether approval percentage is computed against all eligible
	// members or only ballots cast.
	MinimumApprovalPct        int    `gorm:"column:minimum_approval_pct;not null;default:75" json:"minimum_approval_percentage"`
	ApprovalDenominatorPolicy string `gorm:"not null;default:'eligible_members'" json:"approval_denominator_policy"`

	SelectedProposalID *uuid.UUID `gorm:"type:uuid" json:"selected_proposal_id,omitempty"`
	SelectedDeveloper  string     `json:"selected_developer,omitempty"`

	EstimatedBudget float64        `json:"estimated_budget"`
	Requirements    datatypes.JSON `json:"requirements"` // free-form owner requirements shown to developers

	CreatedBy uuid.UUID      `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (RedevelopmentProject) TableName() string { return "redevelopment_projects" }

// ProjectStatusHistory tracks status changes
type ProjectStatusHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Status    string    `gorm:"not null" json:"status"`
	ChangedAt time.Time `json:"changed_at"`
	ChangedBy uuid.UUID `gorm:"type:uuid;not null" json:"changed_by"`
}

func (ProjectStatusHistory) TableName() string { return "project_status_history" }
