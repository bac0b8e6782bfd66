package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ParticipationRegisterXLSX builds a spreadsheet of the per-proposal tallies
// and participation figures for a closed session.
func ParticipationRegisterXLSX(doc *ResultsDocument) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Voting Results"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Proposal", "Yes", "No", "Abstain", "Total Votes", "Approval %", "Participation %", "Qualified", "Selected"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for rowIdx, row := range doc.Rows {
		values := []interface{}{
			row.Label,
			row.YesVotes,
			row.NoVotes,
			row.AbstainVotes,
			row.TotalVotes,
			row.ApprovalPct,
			row.ParticipationPct,
			row.Qualified,
			row.Selected,
		}
		for colIdx, value := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	summaryRow := len(doc.Rows) + 3
	summary := [][2]interface{}{
		{"Session", doc.SessionKey},
		{"Closed at", doc.ClosedAt.Format("02 Jan 2006 15:04 MST")},
		{"Eligible members", doc.EligibleMembers},
		{"Votes cast", doc.VotesCast},
		{"Minimum approval %", doc.MinimumApprovalPct},
		{"Approved", doc.IsApproved},
	}
	for i, pair := range summary {
		keyCell, _ := excelize.CoordinatesToCellName(1, summaryRow+i)
		valCell, _ := excelize.CoordinatesToCellName(2, summaryRow+i)
		f.SetCellValue(sheet, keyCell, pair[0])
		f.SetCellValue(sheet, valCell, pair[1])
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to render results workbook: %w", err)
	}
	return buf.Bytes(), nil
}
