package types

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

// WriteIssuesTable renders the issues of one step as a markdown table.
func WriteIssuesTable(w io.Writer, result ValidationResult) error {
	table := tablewriter.NewTable(w, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Pointer", "Problem")
	for _, issue := range result.Issues {
		if err := table.Append(issue.DisplayName, issue.JSONPointer, issue.Description); err != nil {
			return err
		}
	}
	return table.Render()
}

// FormatReport renders a section per step, skipping steps without issues.
func FormatReport(results []ValidationResult) string {
	var buf strings.Builder
	for _, res := range results {
		if res.Valid {
			fmt.Fprintf(&buf, "# %s: ok\n\n", res.Step)
			continue
		}
		fmt.Fprintf(&buf, "# %s: %d problem(s)\n", res.Step, len(res.Issues))
		_ = WriteIssuesTable(&buf, res)
		buf.WriteString("\n")
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatIssuesSection(title string, issues []FieldInfo) string {
	if len(issues) == 0 {
		return ""
	}
	var buf strings.Builder
	buf.WriteString("# ")
	buf.WriteString(title)
	buf.WriteString(":\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Pointer", "Problem")
	for _, issue := range issues {
		_ = table.Append(issue.DisplayName, issue.JSONPointer, issue.Description)
	}
	_ = table.Render()
	return buf.String()
}

// PromptContext is what the assistant knows about the wizard when it builds a prompt.
type PromptContext struct {
	Step          Step
	Phase         Phase
	StateJSON     string
	StateSchema   string
	AllowedPaths  []string
	Issues        []FieldInfo
	LastQuestion  string
	UserInput     string
	PatchApplied  bool
	SubmitFailure string
}

func FormatPromptContext(pc PromptContext) string {
	sections := []string{
		fmt.Sprintf("# Current step:\n%s", pc.Step),
	}
	if pc.Phase != "" {
		sections = append(sections, fmt.Sprintf("# Current phase:\n%s", pc.Phase))
	}
	if pc.StateJSON != "" {
		sections = append(sections, fmt.Sprintf("# Application JSON:\n```json\n%s\n```", pc.StateJSON))
	}
	if pc.StateSchema != "" {
		sections = append(sections, fmt.Sprintf("# Application schema JSON:\n```json\n%s\n```", pc.StateSchema))
	}
	if len(pc.AllowedPaths) > 0 {
		sections = append(sections, "# Editable paths on this step:\n- "+strings.Join(pc.AllowedPaths, "\n- "))
	}
	if s := formatIssuesSection("Problems on this step", pc.Issues); s != "" {
		sections = append(sections, s)
	}
	if pc.SubmitFailure != "" {
		sections = append(sections, fmt.Sprintf("# Last submission failed:\n%s", pc.SubmitFailure))
	}
	if pc.LastQuestion != "" || pc.UserInput != "" {
		sections = append(sections, "# Latest dialogue:")
		if pc.LastQuestion != "" {
			sections = append(sections, fmt.Sprintf("## Assistant question:\n%s", pc.LastQuestion))
		}
		if pc.UserInput != "" {
			extracted := "no"
			if pc.PatchApplied {
				extracted = "yes"
			}
			sections = append(sections, fmt.Sprintf("## User answer:\n%s\n> extracted info: %s", pc.UserInput, extracted))
		}
	}
	return strings.Join(sections, "\n\n")
}
