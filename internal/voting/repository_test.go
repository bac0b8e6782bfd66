package voting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepository(t *testing.T) (Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(sqlx.NewDb(db, "postgres")), mock
}

func testVote() *Vote {
	return &Vote{
		ID:         uuid.New(),
		ProjectID:  uuid.New(),
		SessionKey: SessionProposalSelection,
		MemberID:   uuid.New(),
		ProposalID: NilProposal,
		Value:      VoteYes,
		VotedAt:    time.Now().UTC(),
	}
}

// Two concurrent submissions for the same ledger key race on the composite
// unique index; the loser's driver error must surface as ErrDuplicateVote.
func TestInsertVoteMapsUniqueViolation(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec("INSERT INTO votes").
		WillReturnError(&pq.Error{Code: pgUniqueViolation, Constraint: "votes_project_id_session_key_member_id_proposal_id_key"})

	err := repo.InsertVote(context.Background(), testVote())

	assert.ErrorIs(t, err, ErrDuplicateVote)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertVotePassesThroughOtherErrors(t *testing.T) {
	repo, mock := newMockRepository(t)

	driverErr := errors.New("connection reset")
	mock.ExpectExec("INSERT INTO votes").WillReturnError(driverErr)

	err := repo.InsertVote(context.Background(), testVote())

	assert.ErrorIs(t, err, driverErr)
	assert.NotErrorIs(t, err, ErrDuplicateVote)
}

func TestCreateSessionMapsUniqueViolation(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec("INSERT INTO voting_sessions").
		WillReturnError(&pq.Error{Code: pgUniqueViolation})

	now := time.Now().UTC()
	err := repo.CreateSession(context.Background(), &VotingSession{
		ID:                 uuid.New(),
		ProjectID:          uuid.New(),
		SessionKey:         SessionProposalSelection,
		Status:             StatusOpen,
		MinimumApprovalPct: 75,
		DenominatorPolicy:  DenominatorEligibleMembers,
		OpenedAt:           &now,
	})

	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertVoteSucceeds(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec("INSERT INTO votes").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.InsertVote(context.Background(), testVote())

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
