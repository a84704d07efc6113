package controller

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/mouse-blink/archdna/internal/model"
)

func captureUI() (*SimpleUI, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	return NewSimpleUI(cmd), &out
}

func TestDisplaySummary(t *testing.T) {
	ui, out := captureUI()

	res := &m.Result{
		Namespaces: []m.NamespaceMetrics{{Namespace: "Shop.Web"}},
		Patterns:   []m.DetectedPattern{{Pattern: "repository", TypeName: "OrderRepository"}},
		Summary: m.Summary{
			Repo:            "shop",
			FilesAnalyzed:   12,
			FilesSkipped:    1,
			TotalTypes:      8,
			TotalViolations: 3,
			ViolationsBySeverity: map[m.Severity]int{
				m.SeverityError:   1,
				m.SeverityWarning: 2,
			},
			TopRules: []m.RuleCount{
				{RuleID: "ASYNC_002", Count: 2},
				{RuleID: "DATA_001", Count: 1},
			},
		},
	}

	require.NoError(t, ui.DisplaySummary(res))

	rendered := out.String()
	assert.Contains(t, rendered, "Architectural audit: shop")
	assert.Contains(t, rendered, "Files analyzed")
	assert.Contains(t, rendered, "12")
	assert.Contains(t, rendered, "error: 1")
	assert.Contains(t, rendered, "warning: 2")
	assert.NotContains(t, rendered, "info:")
	assert.Contains(t, rendered, "ASYNC_002: 2")
	assert.Contains(t, rendered, "DATA_001: 1")
}

func TestDisplaySummary_ReportErrorsSorted(t *testing.T) {
	ui, out := captureUI()

	res := &m.Result{
		Summary: m.Summary{
			Repo: "shop",
			ReportErrors: map[string]string{
				"sarif": "disk full",
				"json":  "disk full",
			},
		},
	}

	require.NoError(t, ui.DisplaySummary(res))

	rendered := out.String()
	jsonIdx := strings.Index(rendered, "report json failed")
	sarifIdx := strings.Index(rendered, "report sarif failed")
	require.GreaterOrEqual(t, jsonIdx, 0)
	require.GreaterOrEqual(t, sarifIdx, 0)
	assert.Less(t, jsonIdx, sarifIdx)
}

func TestDisplayRuleCatalog(t *testing.T) {
	ui, out := captureUI()

	ui.DisplayRuleCatalog([]RuleDescription{
		{ID: "ARCH_001", Name: "Cyclic namespace dependencies", Description: "Namespaces must not depend on each other in a cycle"},
		{ID: "DATA_001", Name: "Raw SQL outside the data layer", Description: "SQL access belongs behind repositories"},
	})

	rendered := out.String()
	assert.Contains(t, rendered, "ARCH_001")
	assert.Contains(t, rendered, "DATA_001")
	assert.Contains(t, rendered, "Cyclic namespace dependencies")
}

func TestDisplayPatternCatalog(t *testing.T) {
	ui, out := captureUI()

	ui.DisplayPatternCatalog([]string{"singleton", "builder"})

	rendered := out.String()
	assert.Contains(t, rendered, "Detectable design patterns")
	assert.Contains(t, rendered, "singleton")
	assert.Contains(t, rendered, "builder")
}
