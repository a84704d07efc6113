package controller

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "github.com/mouse-blink/archdna/internal/model"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

func severityStyle(severity m.Severity) lipgloss.Style {
	switch severity {
	case m.SeverityError:
		return errorStyle
	case m.SeverityWarning:
		return warningStyle
	default:
		return infoStyle
	}
}

// SimpleUI implements UI using the cobra Command's output stream.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// DisplaySummary prints the run summary: counts, severity breakdown, the
// most-violated rules and any report artifacts that failed to write.
func (s *SimpleUI) DisplaySummary(res *m.Result) error {
	summary := res.Summary

	s.printf("%s\n\n", headerStyle.Render(fmt.Sprintf("Architectural audit: %s", summary.Repo)))

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER})
	table.Append([]string{"Files analyzed", fmt.Sprintf("%d", summary.FilesAnalyzed)})
	table.Append([]string{"Files skipped", fmt.Sprintf("%d", summary.FilesSkipped)})
	table.Append([]string{"Types analyzed", fmt.Sprintf("%d", summary.TotalTypes)})
	table.Append([]string{"Namespaces", fmt.Sprintf("%d", len(res.Namespaces))})
	table.Append([]string{"Violations", fmt.Sprintf("%d", summary.TotalViolations)})
	table.Append([]string{"Patterns detected", fmt.Sprintf("%d", len(res.Patterns))})
	table.Render()
	s.printf("%s\n", tableBuffer.String())

	for _, severity := range []m.Severity{m.SeverityError, m.SeverityWarning, m.SeverityInfo} {
		if count := summary.ViolationsBySeverity[severity]; count > 0 {
			s.printf("  %s: %d\n", severityStyle(severity).Render(string(severity)), count)
		}
	}

	if len(summary.TopRules) > 0 {
		s.printf("\nTop rules:\n")
		for _, rc := range summary.TopRules {
			s.printf("  %s: %d\n", rc.RuleID, rc.Count)
		}
	}

	artifacts := make([]string, 0, len(summary.ReportErrors))
	for artifact := range summary.ReportErrors {
		artifacts = append(artifacts, artifact)
	}
	sort.Strings(artifacts)
	for _, artifact := range artifacts {
		s.printf("\n%s\n", warningStyle.Render(fmt.Sprintf("report %s failed: %s", artifact, summary.ReportErrors[artifact])))
	}

	return nil
}

// DisplayRuleCatalog prints the rule listing for the rules command.
func (s *SimpleUI) DisplayRuleCatalog(rules []RuleDescription) {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"ID", "Name", "Description"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

	for _, rule := range rules {
		table.Append([]string{rule.ID, rule.Name, rule.Description})
	}

	table.Render()
	s.printf("%s", tableBuffer.String())
}

// DisplayPatternCatalog prints the names of the registered pattern matchers.
func (s *SimpleUI) DisplayPatternCatalog(names []string) {
	s.printf("\n%s\n", headerStyle.Render("Detectable design patterns"))
	for _, name := range names {
		s.printf("  %s\n", name)
	}
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
