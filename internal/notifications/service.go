package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"estate-desk/society-portal/society-portal-backend/internal/notifications/websocket"
	"estate-desk/society-portal/society-portal-backend/internal/voting"
)

// Emailer is satisfied by the SES sender; tests inject a fake.
type Emailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Service records in-app notifications, emails members and pushes live
// events. It implements the voting package's Notifier and the societies
// package's InvitationSender.
type Service struct {
	repo    Repository
	email   Emailer
	hub     *websocket.Hub
	baseURL string
	logger  *zap.Logger
}

func NewService(repo Repository, email Emailer, hub *websocket.Hub, baseURL string, logger *zap.Logger) *Service {
	return &Service{repo: repo, email: email, hub: hub, baseURL: baseURL, logger: logger}
}

func (s *Service) ListForMember(ctx context.Context, memberID uuid.UUID, unreadOnly bool) ([]Notification, error) {
	return s.repo.ListForMember(ctx, memberID, unreadOnly)
}

func (s *Service) MarkRead(ctx context.Context, memberID, notificationID uuid.UUID) error {
	return s.repo.MarkRead(ctx, memberID, notificationID)
}

// notifyProject stores one in-app notification per project member and
// optionally emails them. Failures are logged; notification delivery never
// fails the triggering operation.
func (s *Service) notifyProject(ctx context.Context, projectID uuid.UUID, notifType, subject, body string, payload interface{}, sendEmail bool) {
	recipients, err := s.repo.ProjectAudience(ctx, projectID)
	if err != nil {
		s.logger.Warn("failed to resolve project audience",
			zap.String("project_id", projectID.String()), zap.Error(err))
		return
	}

	var raw json.RawMessage
	if payload != nil {
		raw, _ = json.Marshal(payload)
	}

	records := make([]Notification, 0, len(recipients))
	pid := projectID
	for _, r := range recipients {
		records = append(records, Notification{
			ID:        uuid.New(),
			MemberID:  r.MemberID,
			ProjectID: &pid,
			Type:      notifType,
			Subject:   subject,
			Body:      body,
			Payload:   datatypes.JSON(raw),
			CreatedAt: time.Now(),
		})
	}
	if err := s.repo.CreateBatch(ctx, records); err != nil {
		s.logger.Warn("failed to store notifications", zap.Error(err))
	}

	if sendEmail && s.email != nil {
		for _, r := range recipients {
			if err := s.email.Send(ctx, r.Email, subject, body); err != nil {
				s.logger.Warn("failed to send notification email",
					zap.String("email", r.Email), zap.Error(err))
			}
		}
	}
}

func (s *Service) broadcast(projectID uuid.UUID, eventType, sessionKey string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(projectID.String(), Event{
		Type:       eventType,
		ProjectID:  projectID.String(),
		SessionKey: sessionKey,
		Payload:    payload,
		Timestamp:  time.Now(),
	})
}

// VotingOpened implements voting.Notifier.
func (s *Service) VotingOpened(ctx context.Context, projectID uuid.UUID, sessionKey string, deadline *time.Time) {
	body := "Voting is now open for your redevelopment project."
	if deadline != nil {
		body = fmt.Sprintf("Voting is now open for your redevelopment project. Cast your vote before %s.",
			deadline.Format("02 Jan 2006 15:04 MST"))
	}
	s.notifyProject(ctx, projectID, TypeVotingOpened, "Voting has started", body, map[string]interface{}{"session": sessionKey, "deadline": deadline}, true)
	s.broadcast(projectID, TypeVotingOpened, sessionKey, nil)
}

// VoteRecorded implements voting.Notifier. Only the live feed is updated;
// members are not emailed on every ballot.
func (s *Service) VoteRecorded(ctx context.Context, projectID uuid.UUID, sessionKey string, stats *voting.SessionStatistics) {
	s.broadcast(projectID, TypeVoteRecorded, sessionKey, stats)
}

// VotingClosed implements voting.Notifier.
func (s *Service) VotingClosed(ctx context.Context, projectID uuid.UUID, sessionKey string, results *voting.FinalResults) {
	subject := "Voting has closed"
	body := "Voting has closed for your redevelopment project. The proposal did not reach the required approval."
	if results.IsApproved {
		body = "Voting has closed for your redevelopment project and the ballot passed."
	}
	s.notifyProject(ctx, projectID, TypeVotingClosed, subject, body, results, true)
	s.broadcast(projectID, TypeVotingClosed, sessionKey, results)
}

// DeadlineApproaching is used by the reminder worker.
func (s *Service) DeadlineApproaching(ctx context.Context, projectID uuid.UUID, sessionKey string, deadline time.Time) {
	body := fmt.Sprintf("Voting closes at %s. Cast your vote if you have not yet.",
		deadline.Format("02 Jan 2006 15:04 MST"))
	s.notifyProject(ctx, projectID, TypeDeadlineAlert, "Voting deadline approaching", body, map[string]interface{}{"session": sessionKey}, true)
	s.broadcast(projectID, TypeDeadlineAlert, sessionKey, map[string]interface{}{"deadline": deadline})
}

// SendInvitation implements societies.InvitationSender.
func (s *Service) SendInvitation(ctx context.Context, email, societyName, token string, expiresAt time.Time) error {
	if s.email == nil {
		s.logger.Info("email sender not configured, skipping invitation email",
			zap.String("email", email))
		return nil
	}
	subject := fmt.Sprintf("Invitation to join %s", societyName)
	body := fmt.Sprintf(
		"You have been invited to join %s on Society Portal.\n\nAccept here: %s/invitations/%s\n\nThis invitation expires on %s.",
		societyName, s.baseURL, token, expiresAt.Format("02 Jan 2006"))
	return s.email.Send(ctx, email, subject, body)
}
