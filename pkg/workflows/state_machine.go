package workflows

// StateMachine enforces status transitions for redevelopment projects and
// developer proposals.
type StateMachine struct {
	allowedTransitions map[string][]string
}

func NewStateMachine(transitions map[string][]string) *StateMachine {
	return &StateMachine{allowedTransitions: transitions}
}

// NewProjectStateMachine covers the redevelopment project lifecycle. The
// voting close path moves a project to approved or developer_selected
// directly in its transaction; those two states are also reachable here so
// manual corrections stay legal.
func NewProjectStateMachine() *StateMachine {
	return NewStateMachine(map[string][]string{
		"draft":              {"active", "cancelled"},
		"active":             {"voting", "cancelled"},
		"voting":             {"active", "approved", "developer_selected"},
		"approved":           {"voting", "developer_selected"},
		"developer_selected": {"in_progress"},
		"in_progress":        {"completed"},
		"completed":          {},
		"cancelled":          {},
	})
}

// NewProposalStateMachine covers the developer proposal review lifecycle.
func NewProposalStateMachine() *StateMachine {
	return NewStateMachine(map[string][]string{
		"submitted":    {"under_review", "withdrawn"},
		"under_review": {"shortlisted", "rejected", "withdrawn"},
		"shortlisted":  {"selected", "rejected", "withdrawn"},
		"selected":     {},
		"rejected":     {},
		"withdrawn":    {},
	})
}

// CanTransition checks if a status transition is allowed
func (sm *StateMachine) CanTransition(from, to string) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// GetAllowedTransitions returns the allowed next statuses for a given status
func (sm *StateMachine) GetAllowedTransitions(from string) []string {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []string{}
	}
	return allowed
}
