package societies

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleSocietyOwner  = "society_owner"
	RoleSocietyMember = "society_member"
	RoleDeveloper     = "developer"
)

const (
	MemberActive   = "active"
	MemberInactive = "inactive"
)

// Society represents a registered housing society
type Society struct {
	ID                 uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name               string         `gorm:"not null" json:"name"`
	RegistrationNumber string         `gorm:"uniqueIndex;not null" json:"registration_number"`
	Address            string         `json:"address"`
	City               string         `json:"city"`
	Pincode            string         `json:"pincode"`
	TotalUnits         int            `json:"total_units"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Society) TableName() string { return "societies" }

// Member is a person attached to a society: the managing owner, a flat
// member, or a developer account scoped to the society's projects.
type Member struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SocietyID    uuid.UUID `gorm:"type:uuid;not null;index" json:"society_id"`
	Name         string    `gorm:"not null" json:"name"`
	Email        string    `gorm:"not null;uniqueIndex" json:"email"`
	Phone        string    `json:"phone"`
	UnitNumber   string    `json:"unit_number"`
	Role         string    `gorm:"not null;default:'society_member'" json:"role"`
	Status       string    `gorm:"not null;default:'active'" json:"status"`
	PasswordHash string    `gorm:"not null" json:"-"`
	JoinedAt     time.Time `json:"joined_at"`
	Society      Society   `gorm:"foreignKey:SocietyID" json:"-"`
}

func (Member) TableName() string { return "society_members" }

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
	InvitationRevoked  InvitationStatus = "revoked"
)

// Invitation is a pending offer to join a society. Like voting deadlines,
// expiry is computed at read time rather than swept by a background job.
type Invitation struct {
	ID         uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SocietyID  uuid.UUID        `gorm:"type:uuid;not null;index" json:"society_id"`
	Email      string           `gorm:"not null" json:"email"`
	UnitNumber string           `json:"unit_number"`
	Role       string           `gorm:"not null;default:'society_member'" json:"role"`
	Token      string           `gorm:"uniqueIndex;not null" json:"-"`
	Status     InvitationStatus `gorm:"not null;default:'pending'" json:"status"`
	ExpiresAt  time.Time        `json:"expires_at"`
	InvitedBy  uuid.UUID        `gorm:"type:uuid;not null" json:"invited_by"`
	CreatedAt  time.Time        `json:"created_at"`
	Society    Society          `gorm:"foreignKey:SocietyID" json:"-"`
}

func (Invitation) TableName() string { return "society_invitations" }

// EffectiveStatus reports the invitation status as of now.
func (i *Invitation) EffectiveStatus(now time.Time) InvitationStatus {
	if i.Status == InvitationPending && now.After(i.ExpiresAt) {
		return InvitationExpired
	}
	return i.Status
}
