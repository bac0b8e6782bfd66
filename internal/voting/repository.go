package voting

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ResolveFunc turns the ledger state read inside the close transaction into
// the final results snapshot. Kept pure so the close rule is testable
// without a database.
type ResolveFunc func(session *VotingSession, counts []VoteCount, proposals []ProposalRef, eligibleMembers int, closedAt time.Time) *FinalResults

// ProjectGovernance is the slice of the project row the voting core needs.
type ProjectGovernance struct {
	ProjectID         uuid.UUID         `db:"id"`
	SocietyID         uuid.UUID         `db:"society_id"`
	DenominatorPolicy DenominatorPolicy `db:"approval_denominator_policy"`
}

type Repository interface {
	CreateSession(ctx context.Context, session *VotingSession) error
	ReopenSession(ctx context.Context, session *VotingSession) error
	GetSession(ctx context.Context, projectID uuid.UUID, sessionKey string) (*VotingSession, error)
	ListSessions(ctx context.Context, projectID uuid.UUID) ([]VotingSession, error)
	CloseSession(ctx context.Context, projectID uuid.UUID, sessionKey string, resolve ResolveFunc) (*FinalResults, error)

	InsertVote(ctx context.Context, vote *Vote) error
	GetVote(ctx context.Context, projectID uuid.UUID, sessionKey string, memberID, proposalID uuid.UUID) (*Vote, error)
	ListMemberVotes(ctx context.Context, projectID, memberID uuid.UUID) ([]Vote, error)
	CountVotes(ctx context.Context, projectID uuid.UUID, sessionKey string) ([]VoteCount, error)

	ProjectGovernance(ctx context.Context, projectID uuid.UUID) (*ProjectGovernance, error)
	EligibleMemberCount(ctx context.Context, projectID uuid.UUID) (int, error)
	IsEligibleMember(ctx context.Context, projectID, memberID uuid.UUID) (bool, error)
	SessionProposals(ctx context.Context, projectID uuid.UUID) ([]ProposalRef, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}

func (r *postgresRepository) CreateSession(ctx context.Context, session *VotingSession) error {
	query := `
		INSERT INTO voting_sessions (
			id, project_id, session_key, status, deadline,
			minimum_approval_pct, denominator_policy, opened_at
		) VALUES (
			:id, :project_id, :session_key, :status, :deadline,
			:minimum_approval_pct, :denominator_policy, :opened_at
		)`
	_, err := r.db.NamedExecContext(ctx, query, session)
	if isUniqueViolation(err) {
		// Lost the race against a concurrent start for the same key.
		return ErrInvalidState
	}
	return err
}

// ReopenSession transitions a closed session back to open with a fresh
// deadline. The status guard in the WHERE clause is the compare-and-swap: a
// concurrent reopen or an already-open session matches zero rows.
func (r *postgresRepository) ReopenSession(ctx context.Context, session *VotingSession) error {
	query := `
		UPDATE voting_sessions SET
			status = :status,
			deadline = :deadline,
			minimum_approval_pct = :minimum_approval_pct,
			denominator_policy = :denominator_policy,
			opened_at = :opened_at,
			closed_at = NULL,
			final_results = NULL
		WHERE project_id = :project_id
		  AND session_key = :session_key
		  AND status = 'closed'`
	res, err := r.db.NamedExecContext(ctx, query, session)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrInvalidState
	}
	return nil
}

func (r *postgresRepository) GetSession(ctx context.Context, projectID uuid.UUID, sessionKey string) (*VotingSession, error) {
	var session VotingSession
	err := r.db.GetContext(ctx, &session,
		"SELECT * FROM voting_sessions WHERE project_id = $1 AND session_key = $2",
		projectID, sessionKey)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *postgresRepository) ListSessions(ctx context.Context, projectID uuid.UUID) ([]VotingSession, error) {
	var sessions []VotingSession
	err := r.db.SelectContext(ctx, &sessions,
		"SELECT * FROM voting_sessions WHERE project_id = $1 ORDER BY created_at", projectID)
	return sessions, err
}

// CloseSession runs the whole close inside one transaction: flip the status
// with a compare-and-swap, read the ledger, resolve the outcome, persist the
// snapshot and the winner side effects. A crash mid-close rolls everything
// back, so a session is never closed without a resolved result.
func (r *postgresRepository) CloseSession(ctx context.Context, projectID uuid.UUID, sessionKey string, resolve ResolveFunc) (*FinalResults, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	closedAt := time.Now().UTC()

	var session VotingSession
	err = tx.GetContext(ctx, &session, `
		UPDATE voting_sessions
		SET status = 'closed', closed_at = $3
		WHERE project_id = $1 AND session_key = $2 AND status = 'open'
		RETURNING *`,
		projectID, sessionKey, closedAt)
	if err == sql.ErrNoRows {
		// Either the session never existed or another close won the CAS.
		var status SessionStatus
		probe := tx.GetContext(ctx, &status,
			"SELECT status FROM voting_sessions WHERE project_id = $1 AND session_key = $2",
			projectID, sessionKey)
		if probe == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		if probe != nil {
			return nil, probe
		}
		return nil, ErrAlreadyClosed
	}
	if err != nil {
		return nil, err
	}

	counts, err := r.countVotes(ctx, tx, projectID, sessionKey)
	if err != nil {
		return nil, err
	}
	eligible, err := r.eligibleMemberCount(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}
	proposals, err := r.sessionProposals(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}

	final := resolve(&session, counts, proposals, eligible, closedAt)

	payload, err := json.Marshal(final)
	if err != nil {
		return nil, fmt.Errorf("failed to encode final results: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE voting_sessions SET final_results = $3 WHERE project_id = $1 AND session_key = $2",
		projectID, sessionKey, payload); err != nil {
		return nil, err
	}

	if err := r.applyOutcome(ctx, tx, projectID, final); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return final, nil
}

func (r *postgresRepository) applyOutcome(ctx context.Context, tx *sqlx.Tx, projectID uuid.UUID, final *FinalResults) error {
	if final.WinningProposalID != nil {
		winner := *final.WinningProposalID
		if _, err := tx.ExecContext(ctx,
			"UPDATE proposals SET status = 'selected', updated_at = $2 WHERE id = $1",
			winner, final.ClosedAt); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE proposals SET status = 'rejected', updated_at = $3
			WHERE project_id = $1 AND id <> $2 AND status = 'shortlisted'`,
			projectID, winner, final.ClosedAt); err != nil {
			return err
		}
		var developer string
		for _, p := range final.ProposalResults {
			if p.Selected {
				developer = p.DeveloperName
				break
			}
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE redevelopment_projects
			SET selected_proposal_id = $2, selected_developer = $3,
			    status = 'developer_selected', updated_at = $4
			WHERE id = $1`,
			projectID, winner, developer, final.ClosedAt)
		return err
	}

	// Single-subject approval ballot: record the outcome on the project.
	if final.IsApproved {
		_, err := tx.ExecContext(ctx,
			"UPDATE redevelopment_projects SET status = 'approved', updated_at = $2 WHERE id = $1",
			projectID, final.ClosedAt)
		return err
	}
	return nil
}

func (r *postgresRepository) InsertVote(ctx context.Context, vote *Vote) error {
	query := `
		INSERT INTO votes (
			id, project_id, session_key, member_id, proposal_id, value, reason, voted_at
		) VALUES (
			:id, :project_id, :session_key, :member_id, :proposal_id, :value, :reason, :voted_at
		)`
	_, err := r.db.NamedExecContext(ctx, query, vote)
	if isUniqueViolation(err) {
		return ErrDuplicateVote
	}
	return err
}

func (r *postgresRepository) GetVote(ctx context.Context, projectID uuid.UUID, sessionKey string, memberID, proposalID uuid.UUID) (*Vote, error) {
	var vote Vote
	err := r.db.GetContext(ctx, &vote, `
		SELECT * FROM votes
		WHERE project_id = $1 AND session_key = $2 AND member_id = $3 AND proposal_id = $4`,
		projectID, sessionKey, memberID, proposalID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func (r *postgresRepository) ListMemberVotes(ctx context.Context, projectID, memberID uuid.UUID) ([]Vote, error) {
	var votes []Vote
	err := r.db.SelectContext(ctx, &votes, `
		SELECT * FROM votes
		WHERE project_id = $1 AND member_id = $2
		ORDER BY voted_at DESC`,
		projectID, memberID)
	return votes, err
}

type queryer interface {
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func (r *postgresRepository) CountVotes(ctx context.Context, projectID uuid.UUID, sessionKey string) ([]VoteCount, error) {
	return r.countVotes(ctx, r.db, projectID, sessionKey)
}

func (r *postgresRepository) countVotes(ctx context.Context, q queryer, projectID uuid.UUID, sessionKey string) ([]VoteCount, error) {
	var counts []VoteCount
	err := q.SelectContext(ctx, &counts, `
		SELECT proposal_id, value, COUNT(*) AS count
		FROM votes
		WHERE project_id = $1 AND session_key = $2
		GROUP BY proposal_id, value`,
		projectID, sessionKey)
	return counts, err
}

func (r *postgresRepository) ProjectGovernance(ctx context.Context, projectID uuid.UUID) (*ProjectGovernance, error) {
	var gov ProjectGovernance
	err := r.db.GetContext(ctx, &gov,
		"SELECT id, society_id, approval_denominator_policy FROM redevelopment_projects WHERE id = $1",
		projectID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &gov, nil
}

func (r *postgresRepository) EligibleMemberCount(ctx context.Context, projectID uuid.UUID) (int, error) {
	return r.eligibleMemberCount(ctx, r.db, projectID)
}

func (r *postgresRepository) eligibleMemberCount(ctx context.Context, q queryer, projectID uuid.UUID) (int, error) {
	var count int
	err := q.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM society_members m
		JOIN redevelopment_projects p ON p.society_id = m.society_id
		WHERE p.id = $1 AND m.status = 'active' AND m.role IN ('society_owner', 'society_member')`,
		projectID)
	return count, err
}

func (r *postgresRepository) IsEligibleMember(ctx context.Context, projectID, memberID uuid.UUID) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM society_members m
		JOIN redevelopment_projects p ON p.society_id = m.society_id
		WHERE p.id = $1 AND m.id = $2 AND m.status = 'active'
		  AND m.role IN ('society_owner', 'society_member')`,
		projectID, memberID)
	return count > 0, err
}

func (r *postgresRepository) SessionProposals(ctx context.Context, projectID uuid.UUID) ([]ProposalRef, error) {
	return r.sessionProposals(ctx, r.db, projectID)
}

func (r *postgresRepository) sessionProposals(ctx context.Context, q queryer, projectID uuid.UUID) ([]ProposalRef, error) {
	var proposals []ProposalRef
	err := q.SelectContext(ctx, &proposals, `
		SELECT id, developer_name, status, submitted_at
		FROM proposals
		WHERE project_id = $1 AND status NOT IN ('withdrawn', 'rejected')
		ORDER BY submitted_at`,
		projectID)
	return proposals, err
}
