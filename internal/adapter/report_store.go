package adapter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	m "github.com/mouse-blink/archdna/internal/model"
)

const (
	toolName    = "archdna"
	toolVersion = "1.0.0"

	sarifSchema  = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	sarifVersion = "2.1.0"
)

// ReportStore persists audit results as report artifacts. Each artifact is
// written independently; one failing does not block the others.
type ReportStore interface {
	WriteJSON(res *m.Result) (m.Path, error)
	WriteMarkdown(res *m.Result) (m.Path, error)
	WriteSARIF(res *m.Result) (m.Path, error)
}

type fsReportStore struct {
	outputDir m.Path
	now       func() time.Time
}

// NewReportStore constructs a ReportStore writing into outputDir, creating
// it if needed.
func NewReportStore(outputDir m.Path) ReportStore {
	return &fsReportStore{outputDir: outputDir, now: time.Now}
}

func (rs *fsReportStore) artifactPath(repo, ext string) (m.Path, error) {
	if err := os.MkdirAll(string(rs.outputDir), 0o750); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	return m.Path(filepath.Join(string(rs.outputDir), repo+"_audit."+ext)), nil
}

// WriteJSON emits the machine-readable artifact: metadata, summary and the
// full finding lists.
func (rs *fsReportStore) WriteJSON(res *m.Result) (m.Path, error) {
	path, err := rs.artifactPath(res.Repo, "json")
	if err != nil {
		return "", err
	}

	report := map[string]any{
		"metadata": map[string]any{
			"generated_at": rs.now().Format(time.RFC3339),
			"tool":         toolName,
			"version":      toolVersion,
		},
		"summary":          res.Summary,
		"types":            typeMetrics(res),
		"namespaces":       res.Namespaces,
		"violations":       res.Violations,
		"patterns":         res.Patterns,
		"di_registrations": res.DIRegistrations,
		"diagnostics":      res.Diagnostics,
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode JSON report: %w", err)
	}
	if err := os.WriteFile(string(path), data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write JSON report: %w", err)
	}

	return path, nil
}

// typeMetricsEntry is the per-type metrics row serialized into the JSON
// artifact.
type typeMetricsEntry struct {
	Name         string     `json:"name"`
	Namespace    string     `json:"namespace"`
	Kind         m.TypeKind `json:"kind"`
	Role         m.Role     `json:"role"`
	File         string     `json:"file"`
	LOC          int        `json:"loc"`
	LCOM         float64    `json:"lcom"`
	Complexity   int        `json:"cyclomatic_complexity"`
	Dependencies int        `json:"dependencies"`
	Quality      int        `json:"quality_score"`
}

func typeMetrics(res *m.Result) []typeMetricsEntry {
	entries := make([]typeMetricsEntry, 0, len(res.Types))
	for _, decl := range res.Types {
		entries = append(entries, typeMetricsEntry{
			Name:         decl.Name,
			Namespace:    decl.Namespace,
			Kind:         decl.Kind,
			Role:         decl.Role,
			File:         string(decl.File),
			LOC:          decl.LOC,
			LCOM:         decl.LCOM,
			Complexity:   decl.Complexity,
			Dependencies: len(decl.Dependencies),
			Quality:      decl.Quality,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Namespace != entries[j].Namespace {
			return entries[i].Namespace < entries[j].Namespace
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// WriteMarkdown emits the human-readable artifact.
func (rs *fsReportStore) WriteMarkdown(res *m.Result) (m.Path, error) {
	path, err := rs.artifactPath(res.Repo, "md")
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Architectural Audit Report: %s\n\n", res.Repo)
	fmt.Fprintf(&sb, "**Generated:** %s\n\n", rs.now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "**Files Analyzed:** %d (%d skipped)\n\n", res.Summary.FilesAnalyzed, res.Summary.FilesSkipped)
	fmt.Fprintf(&sb, "**Types Analyzed:** %d\n\n", res.Summary.TotalTypes)
	fmt.Fprintf(&sb, "**Total Violations:** %d\n\n", res.Summary.TotalViolations)

	sb.WriteString("## Violations by Severity\n\n")
	severityTable(&sb, res.Summary.ViolationsBySeverity)

	sb.WriteString("\n## Violations by Rule\n\n")
	violationsByRule(&sb, res.Violations)

	sb.WriteString("\n## Types with Most Violations\n\n")
	topOffenders(&sb, res.Violations)

	sb.WriteString("\n## Lowest Quality Types\n\n")
	qualityTable(&sb, res)

	if len(res.Patterns) > 0 {
		sb.WriteString("\n## Detected Design Patterns\n\n")
		patternTable(&sb, res.Patterns)
	}

	sb.WriteString("\n## Namespace Stability\n\n")
	stabilityTable(&sb, res.Namespaces)

	fmt.Fprintf(&sb, "\n*Generated by %s %s*\n", toolName, toolVersion)

	if err := os.WriteFile(string(path), []byte(sb.String()), 0o600); err != nil {
		return "", fmt.Errorf("failed to write Markdown report: %w", err)
	}

	return path, nil
}

// markdownTable configures a tablewriter for GitHub-flavored table output.
func markdownTable(sb *strings.Builder, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(sb)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	return table
}

func severityTable(sb *strings.Builder, bySeverity map[m.Severity]int) {
	table := markdownTable(sb, []string{"Severity", "Count"})
	for _, severity := range []m.Severity{m.SeverityError, m.SeverityWarning, m.SeverityInfo} {
		table.Append([]string{string(severity), fmt.Sprintf("%d", bySeverity[severity])})
	}
	table.Render()
}

func violationsByRule(sb *strings.Builder, violations []m.Violation) {
	byRule := make(map[string][]m.Violation)
	for _, v := range violations {
		byRule[v.RuleID] = append(byRule[v.RuleID], v)
	}

	ruleIDs := make([]string, 0, len(byRule))
	for id := range byRule {
		ruleIDs = append(ruleIDs, id)
	}
	sort.Slice(ruleIDs, func(i, j int) bool {
		if len(byRule[ruleIDs[i]]) != len(byRule[ruleIDs[j]]) {
			return len(byRule[ruleIDs[i]]) > len(byRule[ruleIDs[j]])
		}
		return ruleIDs[i] < ruleIDs[j]
	})

	const perRuleLimit = 10
	for _, id := range ruleIDs {
		group := byRule[id]
		fmt.Fprintf(sb, "### %s (%d violations)\n\n", id, len(group))
		for i, v := range group {
			if i == perRuleLimit {
				fmt.Fprintf(sb, "... and %d more\n", len(group)-perRuleLimit)
				break
			}
			fmt.Fprintf(sb, "- **%s** (%s): %s", v.TypeName, v.Severity, v.Message)
			if v.File != "" {
				fmt.Fprintf(sb, " (`%s`", v.File)
				if v.Line > 0 {
					fmt.Fprintf(sb, ":%d", v.Line)
				}
				sb.WriteString(")")
			}
			sb.WriteString("\n")
			if v.Suggestion != "" {
				fmt.Fprintf(sb, "  - Suggestion: %s\n", v.Suggestion)
			}
		}
		sb.WriteString("\n")
	}
}

func topOffenders(sb *strings.Builder, violations []m.Violation) {
	counts := make(map[string]int)
	for _, v := range violations {
		if v.TypeName != "" {
			counts[v.TypeName]++
		}
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > 10 {
		names = names[:10]
	}

	table := markdownTable(sb, []string{"Type", "Violations"})
	for _, name := range names {
		table.Append([]string{name, fmt.Sprintf("%d", counts[name])})
	}
	table.Render()
}

func qualityTable(sb *strings.Builder, res *m.Result) {
	entries := typeMetrics(res)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Quality < entries[j].Quality })
	if len(entries) > 10 {
		entries = entries[:10]
	}

	table := markdownTable(sb, []string{"Type", "LOC", "LCOM", "Complexity", "Deps", "Score"})
	for _, e := range entries {
		table.Append([]string{
			e.Name,
			fmt.Sprintf("%d", e.LOC),
			fmt.Sprintf("%.3f", e.LCOM),
			fmt.Sprintf("%d", e.Complexity),
			fmt.Sprintf("%d", e.Dependencies),
			fmt.Sprintf("%d/10", e.Quality),
		})
	}
	table.Render()
}

func patternTable(sb *strings.Builder, patterns []m.DetectedPattern) {
	table := markdownTable(sb, []string{"Pattern", "Type", "Confidence", "Indicators"})
	for _, p := range patterns {
		table.Append([]string{
			p.Pattern,
			p.TypeName,
			fmt.Sprintf("%.2f", p.Confidence),
			strings.Join(p.Indicators, "; "),
		})
	}
	table.Render()
}

func stabilityTable(sb *strings.Builder, namespaces []m.NamespaceMetrics) {
	table := markdownTable(sb, []string{"Namespace", "Types", "Out", "In", "Instability", "Assessment"})
	for _, ns := range namespaces {
		table.Append([]string{
			ns.Namespace,
			fmt.Sprintf("%d", ns.Types),
			fmt.Sprintf("%d", ns.Outgoing),
			fmt.Sprintf("%d", ns.Incoming),
			fmt.Sprintf("%.3f", ns.Instability),
			assessStability(ns.Instability),
		})
	}
	table.Render()
}

func assessStability(instability float64) string {
	switch {
	case instability < 0.3:
		return "Stable"
	case instability < 0.7:
		return "Balanced"
	default:
		return "Unstable"
	}
}

// SARIF document shape, trimmed to the fields the 2.1.0 schema requires for
// one run with rules and results.
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	ShortDescription sarifMessage `json:"shortDescription"`
	Help             sarifMessage `json:"help"`
	DefaultConfig    sarifLevel   `json:"defaultConfiguration"`
}

type sarifLevel struct {
	Level string `json:"level"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

// WriteSARIF emits the IDE and code-scanning artifact: one result per
// violation, rule definitions collected from the violations present.
func (rs *fsReportStore) WriteSARIF(res *m.Result) (m.Path, error) {
	path, err := rs.artifactPath(res.Repo, "sarif")
	if err != nil {
		return "", err
	}

	ruleIndex := make(map[string]sarifRule)
	var ruleIDs []string
	results := make([]sarifResult, 0, len(res.Violations))

	for _, v := range res.Violations {
		if _, seen := ruleIndex[v.RuleID]; !seen {
			help := v.Suggestion
			if help == "" {
				help = "No suggestion available"
			}
			ruleIndex[v.RuleID] = sarifRule{
				ID:               v.RuleID,
				Name:             v.RuleID,
				ShortDescription: sarifMessage{Text: v.Message},
				Help:             sarifMessage{Text: help},
				DefaultConfig:    sarifLevel{Level: sarifLevelFor(v.Severity)},
			}
			ruleIDs = append(ruleIDs, v.RuleID)
		}

		entry := sarifResult{
			RuleID:  v.RuleID,
			Level:   sarifLevelFor(v.Severity),
			Message: sarifMessage{Text: v.Message},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: v.File},
				},
			}},
		}
		if v.Line > 0 {
			entry.Locations[0].PhysicalLocation.Region = &sarifRegion{StartLine: v.Line}
		}
		results = append(results, entry)
	}

	sort.Strings(ruleIDs)
	rules := make([]sarifRule, 0, len(ruleIDs))
	for _, id := range ruleIDs {
		rules = append(rules, ruleIndex[id])
	}

	doc := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{{
			Tool:    sarifTool{Driver: sarifDriver{Name: toolName, Version: toolVersion, Rules: rules}},
			Results: results,
		}},
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode SARIF report: %w", err)
	}
	if err := os.WriteFile(string(path), data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write SARIF report: %w", err)
	}

	return path, nil
}

func sarifLevelFor(severity m.Severity) string {
	switch severity {
	case m.SeverityError:
		return "error"
	case m.SeverityInfo:
		return "note"
	default:
		return "warning"
	}
}
