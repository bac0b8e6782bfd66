package voting

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// VoteCount is one row of the grouped ledger scan: how many votes of a given
// value exist for a proposal within a session.
type VoteCount struct {
	ProposalID uuid.UUID `db:"proposal_id"`
	Value      VoteValue `db:"value"`
	Count      int       `db:"count"`
}

func percentage(numerator, denominator int) float64 {
	if denominator <= 0 {
		return 0
	}
	return math.Round(float64(numerator)/float64(denominator)*100*100) / 100
}

// computeTallies folds grouped vote counts into one TallyResult per proposal.
// A single pass over the grouped rows covers every proposal in the session.
func computeTallies(counts []VoteCount, eligibleMembers int, policy DenominatorPolicy) []TallyResult {
	byProposal := make(map[uuid.UUID]*TallyResult)
	var order []uuid.UUID

	for _, c := range counts {
		t, ok := byProposal[c.ProposalID]
		if !ok {
			t = &TallyResult{ProposalID: c.ProposalID, EligibleMembers: eligibleMembers}
			byProposal[c.ProposalID] = t
			order = append(order, c.ProposalID)
		}
		switch c.Value {
		case VoteYes:
			t.YesVotes += c.Count
		case VoteNo:
			t.NoVotes += c.Count
		case VoteAbstain:
			t.AbstainVotes += c.Count
		}
	}

	results := make([]TallyResult, 0, len(order))
	for _, id := range order {
		t := byProposal[id]
		t.TotalVotes = t.YesVotes + t.NoVotes + t.AbstainVotes
		denominator := eligibleMembers
		if policy == DenominatorVotesCast {
			denominator = t.TotalVotes
		}
		t.ApprovalPercentage = percentage(t.YesVotes, denominator)
		t.ParticipationRate = percentage(t.TotalVotes, eligibleMembers)
		results = append(results, *t)
	}
	return results
}

// emptyTally covers the zero-votes case so statistics and results always
// carry a row for the session subject.
func emptyTally(proposalID uuid.UUID, eligibleMembers int) TallyResult {
	return TallyResult{ProposalID: proposalID, EligibleMembers: eligibleMembers}
}

// resolveWinner applies the close rule to a multi-proposal session: only
// proposals meeting the minimum approval percentage qualify; among
// qualifiers the highest approval percentage wins; ties break to the
// earliest submitted proposal, then to the smaller proposal ID so repeated
// runs always agree.
func resolveWinner(session *VotingSession, tallies []TallyResult, proposals []ProposalRef, eligibleMembers int, closedAt time.Time) *FinalResults {
	refs := make(map[uuid.UUID]ProposalRef, len(proposals))
	for _, p := range proposals {
		refs[p.ID] = p
	}
	tallyByID := make(map[uuid.UUID]TallyResult, len(tallies))
	votesCast := 0
	for _, t := range tallies {
		tallyByID[t.ProposalID] = t
		votesCast += t.TotalVotes
	}

	final := &FinalResults{
		ProjectID:          session.ProjectID,
		SessionKey:         session.SessionKey,
		ClosedAt:           closedAt,
		EligibleMembers:    eligibleMembers,
		VotesCast:          votesCast,
		MinimumApprovalPct: session.MinimumApprovalPct,
	}

	// Single-subject ballot: no proposal dimension, approval degenerates to
	// a boolean against the threshold.
	if session.SessionKey != SessionDeveloperSelection || len(proposals) == 0 {
		t, ok := tallyByID[NilProposal]
		if !ok {
			t = emptyTally(NilProposal, eligibleMembers)
		}
		final.IsApproved = t.ApprovalPercentage >= float64(session.MinimumApprovalPct)
		final.ProposalResults = []ProposalResult{{TallyResult: t, Qualified: final.IsApproved}}
		return final
	}

	results := make([]ProposalResult, 0, len(proposals))
	for _, p := range proposals {
		t, ok := tallyByID[p.ID]
		if !ok {
			t = emptyTally(p.ID, eligibleMembers)
		}
		results = append(results, ProposalResult{
			TallyResult:   t,
			DeveloperName: p.DeveloperName,
			SubmittedAt:   p.SubmittedAt,
			Qualified:     t.ApprovalPercentage >= float64(session.MinimumApprovalPct),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].ApprovalPercentage != results[j].ApprovalPercentage {
			return results[i].ApprovalPercentage > results[j].ApprovalPercentage
		}
		if !results[i].SubmittedAt.Equal(results[j].SubmittedAt) {
			return results[i].SubmittedAt.Before(results[j].SubmittedAt)
		}
		return results[i].ProposalID.String() < results[j].ProposalID.String()
	})

	for i := range results {
		if results[i].Qualified {
			results[i].Selected = true
			id := results[i].ProposalID
			final.WinningProposalID = &id
			final.IsApproved = true
			break
		}
	}

	final.ProposalResults = results
	return final
}
