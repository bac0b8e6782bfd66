package societies

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvitationNotPending = errors.New("invitation is no longer pending")
	ErrEmailTaken           = errors.New("a member with this email already exists")
)

const invitationTTL = 7 * 24 * time.Hour

// InvitationSender delivers invitation emails. Implemented by the
// notifications package; failures are logged, not fatal.
type InvitationSender interface {
	SendInvitation(ctx context.Context, email, societyName, token string, expiresAt time.Time) error
}

type RegisterSocietyRequest struct {
	Name               string `json:"name"`
	RegistrationNumber string `json:"registration_number"`
	Address            string `json:"address"`
	City               string `json:"city"`
	Pincode            string `json:"pincode"`
	TotalUnits         int    `json:"total_units"`
	OwnerName          string `json:"owner_name"`
	OwnerEmail         string `json:"owner_email"`
	OwnerPhone         string `json:"owner_phone"`
	OwnerPassword      string `json:"owner_password"`
}

type InviteMemberRequest struct {
	Email      string `json:"email"`
	UnitNumber string `json:"unit_number"`
	Role       string `json:"role"`
}

type AcceptInvitationRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type Service struct {
	repo   Repository
	sender InvitationSender
	logger *zap.Logger
}

func NewService(repo Repository, sender InvitationSender, logger *zap.Logger) *Service {
	return &Service{repo: repo, sender: sender, logger: logger}
}

func (s *Service) RegisterSociety(ctx context.Context, req RegisterSocietyRequest) (*Society, *Member, error) {
	if req.Name == "" {
		return nil, nil, errors.New("name is required")
	}
	if req.RegistrationNumber == "" {
		return nil, nil, errors.New("registration_number is required")
	}
	if req.OwnerEmail == "" || req.OwnerPassword == "" {
		return nil, nil, errors.New("owner email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.OwnerPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	society := &Society{
		ID:                 uuid.New(),
		Name:               req.Name,
		RegistrationNumber: req.RegistrationNumber,
		Address:            req.Address,
		City:               req.City,
		Pincode:            req.Pincode,
		TotalUnits:         req.TotalUnits,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}
	if err := s.repo.CreateSociety(ctx, society); err != nil {
		return nil, nil, fmt.Errorf("failed to create society: %w", err)
	}

	owner := &Member{
		ID:           uuid.New(),
		SocietyID:    society.ID,
		Name:         req.OwnerName,
		Email:        strings.ToLower(req.OwnerEmail),
		Phone:        req.OwnerPhone,
		Role:         RoleSocietyOwner,
		Status:       MemberActive,
		PasswordHash: string(hash),
		JoinedAt:     time.Now(),
	}
	if err := s.repo.CreateMember(ctx, owner); err != nil {
		return nil, nil, fmt.Errorf("failed to create owner member: %w", err)
	}

	s.logger.Info("society registered",
		zap.String("society_id", society.ID.String()),
		zap.String("name", society.Name))
	return society, owner, nil
}

func (s *Service) GetSociety(ctx context.Context, id uuid.UUID) (*Society, error) {
	return s.repo.GetSociety(ctx, id)
}

func (s *Service) ListSocieties(ctx context.Context) ([]Society, error) {
	return s.repo.ListSocieties(ctx)
}

func (s *Service) ListMembers(ctx context.Context, societyID uuid.UUID) ([]Member, error) {
	return s.repo.ListMembers(ctx, societyID)
}

func (s *Service) InviteMember(ctx context.Context, societyID, invitedBy uuid.UUID, req InviteMemberRequest) (*Invitation, error) {
	if req.Email == "" {
		return nil, errors.New("email is required")
	}
	role := req.Role
	if role == "" {
		role = RoleSocietyMember
	}
	if role != RoleSocietyMember && role != RoleDeveloper {
		return nil, errors.New("role must be society_member or developer")
	}
	if _, err := s.repo.GetMemberByEmail(ctx, strings.ToLower(req.Email)); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	society, err := s.repo.GetSociety(ctx, societyID)
	if err != nil {
		return nil, err
	}

	invitation := &Invitation{
		ID:         uuid.New(),
		SocietyID:  societyID,
		Email:      strings.ToLower(req.Email),
		UnitNumber: req.UnitNumber,
		Role:       role,
		Token:      uuid.NewString(),
		Status:     InvitationPending,
		ExpiresAt:  time.Now().Add(invitationTTL),
		InvitedBy:  invitedBy,
		CreatedAt:  time.Now(),
	}
	if err := s.repo.CreateInvitation(ctx, invitation); err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	if s.sender != nil {
		if err := s.sender.SendInvitation(ctx, invitation.Email, society.Name, invitation.Token, invitation.ExpiresAt); err != nil {
			s.logger.Warn("failed to send invitation email",
				zap.String("email", invitation.Email), zap.Error(err))
		}
	}
	return invitation, nil
}

func (s *Service) AcceptInvitation(ctx context.Context, token string, req AcceptInvitationRequest) (*Member, error) {
	if req.Password == "" {
		return nil, errors.New("password is required")
	}
	invitation, err := s.repo.GetInvitationByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if invitation.EffectiveStatus(time.Now()) != InvitationPending {
		return nil, ErrInvitationNotPending
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	member := &Member{
		ID:           uuid.New(),
		SocietyID:    invitation.SocietyID,
		Name:         req.Name,
		Email:        invitation.Email,
		Phone:        req.Phone,
		UnitNumber:   invitation.UnitNumber,
		Role:         invitation.Role,
		Status:       MemberActive,
		PasswordHash: string(hash),
		JoinedAt:     time.Now(),
	}
	if err := s.repo.CreateMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	invitation.Status = InvitationAccepted
	if err := s.repo.UpdateInvitation(ctx, invitation); err != nil {
		return nil, fmt.Errorf("failed to update invitation: %w", err)
	}

	s.logger.Info("invitation accepted",
		zap.String("society_id", invitation.SocietyID.String()),
		zap.String("member_id", member.ID.String()))
	return member, nil
}

func (s *Service) RevokeInvitation(ctx context.Context, societyID, invitationID uuid.UUID) error {
	invitations, err := s.repo.ListInvitations(ctx, societyID)
	if err != nil {
		return err
	}
	for i := range invitations {
		if invitations[i].ID == invitationID {
			if invitations[i].EffectiveStatus(time.Now()) != InvitationPending {
				return ErrInvitationNotPending
			}
			invitations[i].Status = InvitationRevoked
			return s.repo.UpdateInvitation(ctx, &invitations[i])
		}
	}
	return ErrNotFound
}

func (s *Service) ListInvitations(ctx context.Context, societyID uuid.UUID) ([]Invitation, error) {
	invitations, err := s.repo.ListInvitations(ctx, societyID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range invitations {
		invitations[i].Status = invitations[i].EffectiveStatus(now)
	}
	return invitations, nil
}
