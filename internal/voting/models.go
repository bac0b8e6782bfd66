package voting

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type VoteValue string

const (
	VoteYes     VoteValue = "yes"
	VoteNo      VoteValue = "no"
	VoteAbstain VoteValue = "abstain"
)

func (v VoteValue) Valid() bool {
	switch v {
	case VoteYes, VoteNo, VoteAbstain:
		return true
	}
	return false
}

type SessionStatus string

const (
	StatusNotStarted SessionStatus = "not_started"
	StatusOpen       SessionStatus = "open"
	StatusClosed     SessionStatus = "closed"
)

// Well-known session keys used by the frontend. Sessions are keyed by an
// arbitrary string tag so new ballot subjects need no schema change.
const (
	SessionProposalSelection  = "proposal_selection"
	SessionDeveloperSelection = "developer_selection"
)

// DenominatorPolicy controls what the approval percentage is computed
// against. The governance-correct default counts every eligible member;
// the alternative counts only ballots actually cast.
type DenominatorPolicy string

const (
	DenominatorEligibleMembers DenominatorPolicy = "eligible_members"
	DenominatorVotesCast       DenominatorPolicy = "votes_cast"
)

// NilProposal is the sentinel proposal for single-subject sessions such as
// a plain project-approval ballot.
var NilProposal = uuid.Nil

// VotingSession is one ballot per (project, session key). A closed session
// may be reopened by the owner to extend a deadline; votes already cast are
// keyed by session key and survive the reopen.
type VotingSession struct {
	ID                 uuid.UUID         `json:"id" db:"id"`
	ProjectID          uuid.UUID         `json:"project_id" db:"project_id"`
	SessionKey         string            `json:"session_key" db:"session_key"`
	Status             SessionStatus     `json:"status" db:"status"`
	Deadline           *time.Time        `json:"deadline,omitempty" db:"deadline"`
	MinimumApprovalPct int               `json:"minimum_approval_pct" db:"minimum_approval_pct"`
	DenominatorPolicy  DenominatorPolicy `json:"denominator_policy" db:"denominator_policy"`
	OpenedAt           *time.Time        `json:"opened_at,omitempty" db:"opened_at"`
	ClosedAt           *time.Time        `json:"closed_at,omitempty" db:"closed_at"`
	FinalResults       json.RawMessage   `json:"final_results,omitempty" db:"final_results"`
	CreatedAt          time.Time         `json:"created_at" db:"created_at"`
}

// EffectiveStatus reports the session status as of now, treating an open
// session whose deadline has passed as closed. Expiry is a read-time
// property; no background job flips the stored status.
func (s *VotingSession) EffectiveStatus(now time.Time) SessionStatus {
	if s.Status == StatusOpen && s.Deadline != nil && now.After(*s.Deadline) {
		return StatusClosed
	}
	return s.Status
}

// Vote is one immutable ledger entry. At most one vote may exist per
// (project, session key, member, proposal); re-submission is rejected, never
// overwritten.
type Vote struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ProjectID  uuid.UUID `json:"project_id" db:"project_id"`
	SessionKey string    `json:"session_key" db:"session_key"`
	MemberID   uuid.UUID `json:"member_id" db:"member_id"`
	ProposalID uuid.UUID `json:"proposal_id" db:"proposal_id"`
	Value      VoteValue `json:"vote" db:"value"`
	Reason     string    `json:"reason,omitempty" db:"reason"`
	VotedAt    time.Time `json:"voted_at" db:"voted_at"`
}

const maxReasonLength = 500

// TallyResult is derived from the vote ledger on demand, never stored
// durably except inside a closed session's final-results snapshot.
type TallyResult struct {
	ProposalID         uuid.UUID `json:"proposal_id"`
	YesVotes           int       `json:"yes_votes"`
	NoVotes            int       `json:"no_votes"`
	AbstainVotes       int       `json:"abstain_votes"`
	TotalVotes         int       `json:"total_votes"`
	EligibleMembers    int       `json:"eligible_members"`
	ApprovalPercentage float64   `json:"approval_percentage"`
	ParticipationRate  float64   `json:"participation_rate"`
}

// SessionStatistics is the aggregate view served to stakeholders while a
// session is running.
type SessionStatistics struct {
	ProjectID          uuid.UUID     `json:"project_id"`
	SessionKey         string        `json:"session_key"`
	Status             SessionStatus `json:"status"`
	Deadline           *time.Time    `json:"deadline,omitempty"`
	TotalMembers       int           `json:"total_members"`
	VotesCast          int           `json:"votes_cast"`
	YesVotes           int           `json:"yes_votes"`
	NoVotes            int           `json:"no_votes"`
	AbstainVotes       int           `json:"abstain_votes"`
	ApprovalPercentage float64       `json:"approval_percentage"`
	ParticipationRate  float64       `json:"participation_rate"`
	Proposals          []TallyResult `json:"proposals,omitempty"`
}

// ProposalRef is the slice of a proposal the tally and winner resolution
// need: identity, review status and the submission time used as tie-break.
type ProposalRef struct {
	ID            uuid.UUID `json:"id" db:"id"`
	DeveloperName string    `json:"developer_name" db:"developer_name"`
	Status        string    `json:"status" db:"status"`
	SubmittedAt   time.Time `json:"submitted_at" db:"submitted_at"`
}

// ProposalResult is one proposal's final standing in a closed session.
type ProposalResult struct {
	TallyResult
	DeveloperName string    `json:"developer_name"`
	SubmittedAt   time.Time `json:"submitted_at"`
	Qualified     bool      `json:"qualified"`
	Selected      bool      `json:"selected"`
}

// FinalResults is the snapshot persisted when a session closes. Repeated
// close or result reads return this snapshot; the winner is never
// recomputed.
type FinalResults struct {
	ProjectID          uuid.UUID        `json:"project_id"`
	SessionKey         string           `json:"session_key"`
	ClosedAt           time.Time        `json:"closed_at"`
	EligibleMembers    int              `json:"eligible_members"`
	VotesCast          int              `json:"votes_cast"`
	MinimumApprovalPct int              `json:"minimum_approval_pct"`
	IsApproved         bool             `json:"is_approved"`
	WinningProposalID  *uuid.UUID       `json:"winning_proposal_id,omitempty"`
	ProposalResults    []ProposalResult `json:"proposal_results,omitempty"`
}

// Requests

type StartVotingRequest struct {
	Deadline           *time.Time `json:"deadline"`
	MinimumApprovalPct int        `json:"minimum_approval_percentage"`
}

type SubmitVoteRequest struct {
	VotingSession string     `json:"voting_session"`
	ProposalID    *uuid.UUID `json:"proposal,omitempty"`
	Vote          VoteValue  `json:"vote"`
	Reason        string     `json:"reason,omitempty"`
}
