package importers

import (
	"fmt"

	"github.com/opicprep/trainer/internal/entities"
)

// maxReportedIssues caps the row issues kept in a Report.
const maxReportedIssues = 200

// Report is the terminal outcome of an import.
type Report struct {
	RunID    string                `json:"run_id,omitempty"`
	FileName string                `json:"file_name"`
	Mode     entities.ImportMode   `json:"mode"`
	Status   entities.ImportStatus `json:"status"`
	Message  string                `json:"message"`
	DryRun   bool                  `json:"dry_run,omitempty"`
	// Pending counts rows that passed validation but were not sent because of a dry run.
	Pending int `json:"pending,omitempty"`

	entities.ImportCounts

	Issues          []RowIssue `json:"issues,omitempty"`
	IssuesTruncated bool       `json:"issues_truncated,omitempty"`
}

func (r *Report) addIssue(issue RowIssue) {
	if len(r.Issues) >= maxReportedIssues {
		r.IssuesTruncated = true
		return
	}
	r.Issues = append(r.Issues, issue)
}

func (r *Report) skip(sheet string, line int, reason string) {
	r.Skipped++
	r.addIssue(RowIssue{Sheet: sheet, Line: line, Reason: reason})
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func (r *Report) successMessage() string {
	if r.DryRun {
		return fmt.Sprintf("dry run: %s of %d would be imported (%d skipped, %s)",
			plural(r.Pending, "row"), r.Total, r.Skipped, plural(r.Duplicates, "duplicate"))
	}
	return fmt.Sprintf("imported %d of %s (%d skipped, %s, %d failed)",
		r.Inserted, plural(r.Total, "row"), r.Skipped, plural(r.Duplicates, "duplicate"), r.Errored)
}

func (r *Report) failureMessage(err error) string {
	if r.Inserted > 0 {
		return fmt.Sprintf("import failed: %v (%d inserted before the failure)", err, r.Inserted)
	}
	return fmt.Sprintf("import failed: %v", err)
}
