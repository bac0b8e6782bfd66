package voting

import "errors"

// Domain errors surfaced by the voting subsystem. The HTTP handler maps
// these to stable response codes; repositories map driver errors onto them
// so persistence details never cross the package boundary.
var (
	// ErrDuplicateVote is returned when a member has already voted for the
	// same (project, session, proposal) key.
	ErrDuplicateVote = errors.New("vote already cast for this session")

	// ErrInvalidState is returned when an operation is attempted against a
	// session in the wrong state, e.g. voting on a closed session or opening
	// a session that is already open.
	ErrInvalidState = errors.New("voting session is not in a valid state for this operation")

	// ErrAlreadyClosed is returned by close when the session is not open.
	ErrAlreadyClosed = errors.New("voting session already closed")

	// ErrNotFound is returned when a vote or session does not exist. The API
	// layer treats a missing vote as a normal "not voted yet" outcome.
	ErrNotFound = errors.New("not found")

	// ErrNotEligible is returned when the voter is not an active member of
	// the project's society.
	ErrNotEligible = errors.New("member is not eligible to vote on this project")

	// ErrForbidden is returned when an owner-only operation targets a
	// project of a different society than the caller's.
	ErrForbidden = errors.New("project belongs to a different society")

	// ErrValidation is returned for malformed input (bad vote value, reason
	// too long, approval percentage out of range).
	ErrValidation = errors.New("validation failed")
)
