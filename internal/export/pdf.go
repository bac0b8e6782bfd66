package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// ResultRow is one line of a results export: a proposal, or the single
// project-approval subject.
type ResultRow struct {
	Label            string
	YesVotes         int
	NoVotes          int
	AbstainVotes     int
	TotalVotes       int
	ApprovalPct      float64
	ParticipationPct float64
	Qualified        bool
	Selected         bool
}

// ResultsDocument is the renderable form of a closed session's final
// results. Only aggregates appear here; individual ballots are never
// exported.
type ResultsDocument struct {
	Title              string
	SessionKey         string
	ClosedAt           time.Time
	EligibleMembers    int
	VotesCast          int
	MinimumApprovalPct int
	IsApproved         bool
	WinnerLabel        string
	Rows               []ResultRow
}

// ResultsSummaryPDF renders the final results as a one-page PDF summary.
func ResultsSummaryPDF(doc *ResultsDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Title, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, doc.Title)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Session: %s", doc.SessionKey))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Closed at: %s", doc.ClosedAt.Format("02 Jan 2006 15:04 MST")))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Eligible members: %d    Votes cast: %d    Minimum approval: %d%%",
		doc.EligibleMembers, doc.VotesCast, doc.MinimumApprovalPct))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	if doc.IsApproved {
		outcome := "Outcome: APPROVED"
		if doc.WinnerLabel != "" {
			outcome = fmt.Sprintf("Outcome: APPROVED - winning proposal: %s", doc.WinnerLabel)
		}
		pdf.Cell(0, 8, outcome)
	} else {
		pdf.Cell(0, 8, "Outcome: NOT APPROVED - no proposal reached the required threshold")
	}
	pdf.Ln(12)

	// Results table
	headers := []string{"Proposal", "Yes", "No", "Abstain", "Approval %", "Turnout %", "Result"}
	widths := []float64{60, 18, 18, 18, 24, 24, 28}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range doc.Rows {
		result := "-"
		switch {
		case row.Selected:
			result = "Selected"
		case row.Qualified:
			result = "Qualified"
		default:
			result = "Not qualified"
		}
		cells := []string{
			row.Label,
			fmt.Sprintf("%d", row.YesVotes),
			fmt.Sprintf("%d", row.NoVotes),
			fmt.Sprintf("%d", row.AbstainVotes),
			fmt.Sprintf("%.2f", row.ApprovalPct),
			fmt.Sprintf("%.2f", row.ParticipationPct),
			result,
		}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 7, cell, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render results pdf: %w", err)
	}
	return buf.Bytes(), nil
}
