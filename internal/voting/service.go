package voting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier is the outbound boundary to the notification subsystem. Delivery
// is best effort; voting correctness never depends on it.
type Notifier interface {
	VotingOpened(ctx context.Context, projectID uuid.UUID, sessionKey string, deadline *time.Time)
	VoteRecorded(ctx context.Context, projectID uuid.UUID, sessionKey string, stats *SessionStatistics)
	VotingClosed(ctx context.Context, projectID uuid.UUID, sessionKey string, results *FinalResults)
}

type Service interface {
	StartVoting(ctx context.Context, societyID, projectID uuid.UUID, sessionKey string, req StartVotingRequest) (*VotingSession, error)
	CloseVoting(ctx context.Context, societyID, projectID uuid.UUID, sessionKey string) (*FinalResults, error)
	SessionStatus(ctx context.Context, projectID uuid.UUID, sessionKey string) (*VotingSession, SessionStatus, error)
	ListSessions(ctx context.Context, projectID uuid.UUID) ([]VotingSession, error)

	CastVote(ctx context.Context, memberID, projectID uuid.UUID, req SubmitVoteRequest) (*Vote, error)
	GetMyVote(ctx context.Context, memberID, projectID uuid.UUID, sessionKey string, proposalID *uuid.UUID) (*Vote, error)
	ListMemberVotes(ctx context.Context, memberID, projectID uuid.UUID) ([]Vote, error)

	Statistics(ctx context.Context, projectID uuid.UUID, sessionKey string) (*SessionStatistics, error)
	FinalResults(ctx context.Context, projectID uuid.UUID, sessionKey string) (*FinalResults, error)
}

type votingService struct {
	repo     Repository
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, notifier Notifier, logger *zap.Logger) Service {
	return &votingService{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *votingService) StartVoting(ctx context.Context, societyID, projectID uuid.UUID, sessionKey string, req StartVotingRequest) (*VotingSession, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("%w: voting session key is required", ErrValidation)
	}
	if req.MinimumApprovalPct < 50 || req.MinimumApprovalPct > 100 {
		return nil, fmt.Errorf("%w: minimum approval percentage must be between 50 and 100", ErrValidation)
	}
	now := s.now().UTC()
	if req.Deadline != nil && !req.Deadline.After(now) {
		return nil, fmt.Errorf("%w: deadline must be in the future", ErrValidation)
	}

	gov, err := s.repo.ProjectGovernance(ctx, projectID)
	if err != nil {
		return nil, err
	}
	// The role middleware only proves the caller is *an* owner; the project
	// must belong to their own society.
	if gov.SocietyID != societyID {
		return nil, ErrForbidden
	}
	policy := gov.DenominatorPolicy
	if policy == "" {
		policy = DenominatorEligibleMembers
	}

	existing, err := s.repo.GetSession(ctx, projectID, sessionKey)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	session := &VotingSession{
		ID:                 uuid.New(),
		ProjectID:          projectID,
		SessionKey:         sessionKey,
		Status:             StatusOpen,
		Deadline:           req.Deadline,
		MinimumApprovalPct: req.MinimumApprovalPct,
		DenominatorPolicy:  policy,
		OpenedAt:           &now,
	}

	switch {
	case existing == nil:
		if err := s.repo.CreateSession(ctx, session); err != nil {
			return nil, err
		}
	default:
		// Deadline extension is close + reopen; an expired-but-unresolved
		// session is finalized first so its snapshot is not silently lost.
		if existing.Status == StatusOpen {
			if existing.EffectiveStatus(now) == StatusOpen {
				return nil, fmt.Errorf("%w: voting already in progress", ErrInvalidState)
			}
			if _, err := s.finalize(ctx, projectID, sessionKey); err != nil {
				return nil, err
			}
		}
		session.ID = existing.ID
		if err := s.repo.ReopenSession(ctx, session); err != nil {
			return nil, err
		}
	}

	s.logger.Info("voting session opened",
		zap.String("project_id", projectID.String()),
		zap.String("session_key", sessionKey),
		zap.Int("minimum_approval_pct", req.MinimumApprovalPct))

	if s.notifier != nil {
		s.notifier.VotingOpened(ctx, projectID, sessionKey, req.Deadline)
	}
	return session, nil
}

// finalize runs the transactional close. Used by the explicit owner close
// and by the lazy-expiry paths (the "system trigger" on deadline passage).
func (s *votingService) finalize(ctx context.Context, projectID uuid.UUID, sessionKey string) (*FinalResults, error) {
	final, err := s.repo.CloseSession(ctx, projectID, sessionKey, s.resolve)
	if err != nil {
		return nil, err
	}
	s.logger.Info("voting session closed",
		zap.String("project_id", projectID.String()),
		zap.String("session_key", sessionKey),
		zap.Bool("approved", final.IsApproved))
	if s.notifier != nil {
		s.notifier.VotingClosed(ctx, projectID, sessionKey, final)
	}
	return final, nil
}

func (s *votingService) resolve(session *VotingSession, counts []VoteCount, proposals []ProposalRef, eligibleMembers int, closedAt time.Time) *FinalResults {
	tallies := computeTallies(counts, eligibleMembers, session.DenominatorPolicy)
	return resolveWinner(session, tallies, proposals, eligibleMembers, closedAt)
}

func (s *votingService) CloseVoting(ctx context.Context, societyID, projectID uuid.UUID, sessionKey string) (*FinalResults, error) {
	gov, err := s.repo.ProjectGovernance(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if gov.SocietyID != societyID {
		return nil, ErrForbidden
	}

	final, err := s.finalize(ctx, projectID, sessionKey)
	if errors.Is(err, ErrAlreadyClosed) {
		// Closing twice returns the stored snapshot; the winner is never
		// recomputed.
		if snapshot, snapErr := s.storedResults(ctx, projectID, sessionKey); snapErr == nil {
			return snapshot, nil
		}
		return nil, err
	}
	return final, err
}

func (s *votingService) storedResults(ctx context.Context, projectID uuid.UUID, sessionKey string) (*FinalResults, error) {
	session, err := s.repo.GetSession(ctx, projectID, sessionKey)
	if err != nil {
		return nil, err
	}
	if session.Status != StatusClosed || len(session.FinalResults) == 0 {
		return nil, ErrInvalidState
	}
	var final FinalResults
	if err := json.Unmarshal(session.FinalResults, &final); err != nil {
		return nil, fmt.Errorf("failed to decode final results: %w", err)
	}
	return &final, nil
}

func (s *votingService) SessionStatus(ctx context.Context, projectID uuid.UUID, sessionKey string) (*VotingSession, SessionStatus, error) {
	session, err := s.repo.GetSession(ctx, projectID, sessionKey)
	if errors.Is(err, ErrNotFound) {
		return nil, StatusNotStarted, nil
	}
	if err != nil {
		return nil, "", err
	}
	return session, session.EffectiveStatus(s.now()), nil
}

func (s *votingService) ListSessions(ctx context.Context, projectID uuid.UUID) ([]VotingSession, error) {
	return s.repo.ListSessions(ctx, projectID)
}

func (s *votingService) CastVote(ctx context.Context, memberID, projectID uuid.UUID, req SubmitVoteRequest) (*Vote, error) {
	if req.VotingSession == "" {
		return nil, fmt.Errorf("%w: voting session is required", ErrValidation)
	}
	if !req.Vote.Valid() {
		return nil, fmt.Errorf("%w: vote must be yes, no or abstain", ErrValidation)
	}
	if len(req.Reason) > maxReasonLength {
		return nil, fmt.Errorf("%w: reason must be at most %d characters", ErrValidation, maxReasonLength)
	}

	session, err := s.repo.GetSession(ctx, projectID, req.VotingSession)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: voting has not started", ErrInvalidState)
	}
	if err != nil {
		return nil, err
	}
	if session.EffectiveStatus(s.now()) != StatusOpen {
		return nil, fmt.Errorf("%w: voting is closed", ErrInvalidState)
	}

	eligible, err := s.repo.IsEligibleMember(ctx, projectID, memberID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, ErrNotEligible
	}

	proposalID := NilProposal
	if req.ProposalID != nil {
		proposalID = *req.ProposalID
	}
	if err := s.validateBallot(ctx, projectID, session, proposalID); err != nil {
		return nil, err
	}

	vote := &Vote{
		ID:         uuid.New(),
		ProjectID:  projectID,
		SessionKey: req.VotingSession,
		MemberID:   memberID,
		ProposalID: proposalID,
		Value:      req.Vote,
		Reason:     req.Reason,
		VotedAt:    s.now().UTC(),
	}

	// Uniqueness is enforced by the ledger's composite unique index, not a
	// read-then-write check: concurrent submissions for the same key commit
	// exactly one row.
	if err := s.repo.InsertVote(ctx, vote); err != nil {
		return nil, err
	}

	s.logger.Info("vote recorded",
		zap.String("project_id", projectID.String()),
		zap.String("session_key", req.VotingSession),
		zap.String("member_id", memberID.String()))

	if s.notifier != nil {
		if stats, statsErr := s.Statistics(ctx, projectID, req.VotingSession); statsErr == nil {
			s.notifier.VoteRecorded(ctx, projectID, req.VotingSession, stats)
		} else {
			s.logger.Warn("failed to compute statistics for notification", zap.Error(statsErr))
		}
	}
	return vote, nil
}

// validateBallot checks the proposal dimension of a vote against the session
// type. Developer selection votes must name a proposal that is on the ballot
// (submitted for this project and not withdrawn or rejected); single-subject
// sessions take no proposal at all. Without this check an arbitrary UUID
// would insert cleanly and count towards participation while appearing in no
// proposal's breakdown.
func (s *votingService) validateBallot(ctx context.Context, projectID uuid.UUID, session *VotingSession, proposalID uuid.UUID) error {
	if session.SessionKey != SessionDeveloperSelection {
		if proposalID != NilProposal {
			return fmt.Errorf("%w: this voting session does not take per-proposal votes", ErrValidation)
		}
		return nil
	}
	if proposalID == NilProposal {
		return fmt.Errorf("%w: a proposal must be specified for developer selection", ErrValidation)
	}
	proposals, err := s.repo.SessionProposals(ctx, projectID)
	if err != nil {
		return err
	}
	for _, p := range proposals {
		if p.ID == proposalID {
			return nil
		}
	}
	return fmt.Errorf("%w: proposal is not on the ballot for this project", ErrValidation)
}

func (s *votingService) GetMyVote(ctx context.Context, memberID, projectID uuid.UUID, sessionKey string, proposalID *uuid.UUID) (*Vote, error) {
	pid := NilProposal
	if proposalID != nil {
		pid = *proposalID
	}
	return s.repo.GetVote(ctx, projectID, sessionKey, memberID, pid)
}

func (s *votingService) ListMemberVotes(ctx context.Context, memberID, projectID uuid.UUID) ([]Vote, error) {
	return s.repo.ListMemberVotes(ctx, projectID, memberID)
}

func (s *votingService) Statistics(ctx context.Context, projectID uuid.UUID, sessionKey string) (*SessionStatistics, error) {
	session, err := s.repo.GetSession(ctx, projectID, sessionKey)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CountVotes(ctx, projectID, sessionKey)
	if err != nil {
		return nil, err
	}
	eligible, err := s.repo.EligibleMemberCount(ctx, projectID)
	if err != nil {
		return nil, err
	}

	tallies := computeTallies(counts, eligible, session.DenominatorPolicy)

	stats := &SessionStatistics{
		ProjectID:    projectID,
		SessionKey:   sessionKey,
		Status:       session.EffectiveStatus(s.now()),
		Deadline:     session.Deadline,
		TotalMembers: eligible,
	}
	for _, t := range tallies {
		stats.VotesCast += t.TotalVotes
		stats.YesVotes += t.YesVotes
		stats.NoVotes += t.NoVotes
		stats.AbstainVotes += t.AbstainVotes
	}
	denominator := eligible
	if session.DenominatorPolicy == DenominatorVotesCast {
		denominator = stats.VotesCast
	}
	stats.ApprovalPercentage = percentage(stats.YesVotes, denominator)
	stats.ParticipationRate = percentage(stats.VotesCast, eligible)
	if session.SessionKey == SessionDeveloperSelection {
		stats.Proposals = tallies
	}
	return stats, nil
}

func (s *votingService) FinalResults(ctx context.Context, projectID uuid.UUID, sessionKey string) (*FinalResults, error) {
	session, err := s.repo.GetSession(ctx, projectID, sessionKey)
	if err != nil {
		return nil, err
	}

	switch session.EffectiveStatus(s.now()) {
	case StatusOpen:
		return nil, fmt.Errorf("%w: voting is still open", ErrInvalidState)
	case StatusClosed:
		if session.Status == StatusOpen {
			// Deadline passed without an explicit close: finalize now so the
			// snapshot exists. A concurrent finalize losing the CAS falls
			// through to the stored snapshot.
			final, err := s.finalize(ctx, projectID, sessionKey)
			if err == nil {
				return final, nil
			}
			if !errors.Is(err, ErrAlreadyClosed) {
				return nil, err
			}
		}
		return s.storedResults(ctx, projectID, sessionKey)
	default:
		return nil, fmt.Errorf("%w: voting has not started", ErrInvalidState)
	}
}
