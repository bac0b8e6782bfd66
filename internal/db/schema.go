package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CreateSchema creates the tables owned by the sqlx repositories.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Voting sessions: one ballot per (project, session key)
CREATE TABLE IF NOT EXISTS voting_sessions (
    id UUID PRIMARY KEY,
    project_id UUID NOT NULL,
    session_key TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'closed')),
    deadline TIMESTAMPTZ,
    minimum_approval_pct INTEGER NOT NULL,
    denominator_policy TEXT NOT NULL DEFAULT 'eligible_members'
        CHECK (denominator_policy IN ('eligible_members', 'votes_cast')),
    opened_at TIMESTAMPTZ,
    closed_at TIMESTAMPTZ,
    final_results JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (project_id, session_key)
);

CREATE INDEX IF NOT EXISTS idx_voting_sessions_project_id ON voting_sessions(project_id);
CREATE INDEX IF NOT EXISTS idx_voting_sessions_status ON voting_sessions(status);

-- Vote ledger. The UNIQUE constraint is the single enforcement point for
-- one-member-one-vote; the application never checks before inserting.
CREATE TABLE IF NOT EXISTS votes (
    id UUID PRIMARY KEY,
    project_id UUID NOT NULL,
    session_key TEXT NOT NULL,
    member_id UUID NOT NULL,
    proposal_id UUID NOT NULL,
    value TEXT NOT NULL CHECK (value IN ('yes', 'no', 'abstain')),
    reason TEXT NOT NULL DEFAULT '',
    voted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (project_id, session_key, member_id, proposal_id)
);

CREATE INDEX IF NOT EXISTS idx_votes_project_session ON votes(project_id, session_key);
CREATE INDEX IF NOT EXISTS idx_votes_member_id ON votes(member_id);

-- Documents
CREATE TABLE IF NOT EXISTS documents (
    id UUID PRIMARY KEY,
    project_id UUID NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    document_type TEXT NOT NULL,
    file_type TEXT NOT NULL,
    file_size BIGINT NOT NULL DEFAULT 0,
    s3_key TEXT NOT NULL,
    s3_bucket TEXT NOT NULL,
    current_version INTEGER NOT NULL DEFAULT 1,
    uploaded_by UUID NOT NULL,
    uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_documents_project_id ON documents(project_id);
CREATE INDEX IF NOT EXISTS idx_documents_document_type ON documents(document_type);

CREATE TABLE IF NOT EXISTS document_versions (
    id UUID PRIMARY KEY,
    document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    version_number INTEGER NOT NULL,
    s3_key TEXT NOT NULL,
    change_summary TEXT NOT NULL DEFAULT '',
    uploaded_by UUID NOT NULL,
    uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (document_id, version_number)
);

CREATE TABLE IF NOT EXISTS document_access_logs (
    id UUID PRIMARY KEY,
    document_id UUID NOT NULL,
    member_id UUID NOT NULL,
    action TEXT NOT NULL,
    ip_address TEXT NOT NULL DEFAULT '',
    user_agent TEXT NOT NULL DEFAULT '',
    performed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_document_access_logs_document_id ON document_access_logs(document_id);
`
