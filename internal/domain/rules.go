package domain

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	m "github.com/mouse-blink/archdna/internal/model"
)

// Rule is one independent audit rule. Rules are pure functions of the model
// and configuration; evaluation order never affects the result set.
type Rule struct {
	ID          string
	Name        string
	Description string
	Enabled     func(cfg m.Config) bool
	Evaluate    func(mo *Model) []m.Violation
}

func alwaysOn(m.Config) bool { return true }

func asyncEnabled(cfg m.Config) bool { return cfg.Patterns.DetectAsyncPatterns }

// Rules returns the rule registry. Adding a rule is a registration change
// here, nothing else.
func Rules() []Rule {
	return []Rule{
		{
			ID:          "ARCH_001",
			Name:        "No Cyclic Dependencies",
			Description: "Namespaces must not form circular reference groups",
			Enabled:     alwaysOn,
			Evaluate:    auditCyclicDependencies,
		},
		{
			ID:          "ARCH_002",
			Name:        "Dependency Flow Direction",
			Description: "Dependencies must flow inward along the configured layer order",
			Enabled:     alwaysOn,
			Evaluate:    auditDependencyDirection,
		},
		{
			ID:          "DESIGN_001",
			Name:        "No God Objects",
			Description: "Types must stay within cohesion, size and dependency limits",
			Enabled:     alwaysOn,
			Evaluate:    auditGodObjects,
		},
		{
			ID:          "DATA_001",
			Name:        "No Direct SQL in Application/Web Layers",
			Description: "Application and web layers must not reference SQL libraries directly",
			Enabled:     alwaysOn,
			Evaluate:    auditSQLAccess,
		},
		{
			ID:          "DATA_002",
			Name:        "Repository Interface Usage",
			Description: "Repository implementations must implement an interface",
			Enabled:     alwaysOn,
			Evaluate:    auditRepositoryInterfaces,
		},
		{
			ID:          "MEDIATR_001",
			Name:        "Handler Contract",
			Description: "Declared request handlers must expose the Handle method",
			Enabled:     alwaysOn,
			Evaluate:    auditHandlerContract,
		},
		{
			ID:          "ATTR_001",
			Name:        "Controller Attribute Validation",
			Description: "Controllers must carry [ApiController] and [Route] attributes",
			Enabled:     alwaysOn,
			Evaluate:    auditControllerAttributes,
		},
		{
			ID:          "ASYNC_001",
			Name:        "No Async Void",
			Description: "async void is reserved for event handlers",
			Enabled:     asyncEnabled,
			Evaluate:    auditAsyncVoid,
		},
		{
			ID:          "ASYNC_002",
			Name:        "No Async-over-Sync",
			Description: "Do not block on asynchronous results",
			Enabled:     asyncEnabled,
			Evaluate:    auditAsyncOverSync,
		},
	}
}

// EvaluateRules runs every enabled rule against the immutable model. A fault
// in one rule becomes a single info-level violation tagged with that rule's
// id; the remaining rules still run. Cancellation is checked between rules.
func EvaluateRules(ctx context.Context, mo *Model) ([]m.Violation, []m.Diagnostic) {
	var violations []m.Violation
	var diags []m.Diagnostic

	for _, rule := range Rules() {
		if ctx.Err() != nil {
			break
		}
		if !rule.Enabled(mo.Config) {
			continue
		}
		violations = append(violations, evaluateIsolated(rule, mo, &diags)...)
	}

	return violations, diags
}

func evaluateIsolated(rule Rule, mo *Model, diags *[]m.Diagnostic) (out []m.Violation) {
	defer func() {
		if r := recover(); r != nil {
			*diags = append(*diags, m.Diagnostic{
				Stage:   "rule",
				Subject: rule.ID,
				Message: fmt.Sprintf("rule evaluation failed: %v", r),
			})
			out = []m.Violation{{
				RuleID:   rule.ID,
				Severity: m.SeverityInfo,
				Message:  fmt.Sprintf("rule %s could not be evaluated: %v", rule.ID, r),
			}}
		}
	}()
	return rule.Evaluate(mo)
}

func auditCyclicDependencies(mo *Model) []m.Violation {
	g := buildNSGraph(mo.Namespaces, mo.Edges)

	var violations []m.Violation
	for _, cycle := range g.cycles() {
		violations = append(violations, m.Violation{
			RuleID:     "ARCH_001",
			Severity:   m.SeverityWarning,
			TypeName:   cycle[0],
			File:       "multiple files",
			Message:    fmt.Sprintf("cyclic dependency detected: %s", strings.Join(cycle, " -> ")),
			Suggestion: "break the cycle with an interface or by moving shared code",
		})
	}
	return violations
}

func auditDependencyDirection(mo *Model) []m.Violation {
	order := mo.Config.Rules.LayerOrder
	layerOf := func(ns string) (string, int) {
		for i, layer := range order {
			if strings.Contains(ns, layer) {
				return layer, i
			}
		}
		return "", -1
	}

	var violations []m.Violation
	for _, edge := range mo.Edges {
		fromLayer, fromLevel := layerOf(edge.From)
		toLayer, toLevel := layerOf(edge.To)
		if fromLevel < 0 || toLevel < 0 {
			continue
		}
		if toLevel > fromLevel {
			violations = append(violations, m.Violation{
				RuleID:     "ARCH_002",
				Severity:   m.SeverityWarning,
				TypeName:   edge.From,
				Message:    fmt.Sprintf("namespace %s (%s) depends on %s (%s): wrong direction", edge.From, fromLayer, edge.To, toLayer),
				Suggestion: fmt.Sprintf("dependencies must flow: %s", strings.Join(order, " <- ")),
			})
		}
	}
	return violations
}

func auditGodObjects(mo *Model) []m.Violation {
	cfg := mo.Config
	var violations []m.Violation

	for _, key := range mo.Keys() {
		decl := mo.Types[key]
		var reasons []string
		if decl.LCOM > cfg.Metrics.LCOMThreshold {
			reasons = append(reasons, fmt.Sprintf("low cohesion (LCOM=%.2f)", decl.LCOM))
		}
		if decl.LOC > cfg.Metrics.LOCThreshold {
			reasons = append(reasons, fmt.Sprintf("too many lines (%d LOC)", decl.LOC))
		}
		if len(decl.Dependencies) > cfg.Dependencies.MaxPerClass {
			reasons = append(reasons, fmt.Sprintf("too many dependencies (%d > %d)", len(decl.Dependencies), cfg.Dependencies.MaxPerClass))
		}
		if len(reasons) == 0 {
			continue
		}

		// One violation per type; multiple trigger conditions escalate it.
		severity := m.SeverityWarning
		if len(reasons) > 1 {
			severity = m.SeverityError
		}
		violations = append(violations, m.Violation{
			RuleID:     "DESIGN_001",
			Severity:   severity,
			TypeName:   decl.Name,
			File:       string(decl.File),
			Line:       decl.StartLine,
			Message:    fmt.Sprintf("'%s' is a potential God Object: %s", decl.Name, strings.Join(reasons, ", ")),
			Suggestion: "split into smaller, focused types with single responsibilities",
			Metric:     decl.LCOM,
		})
	}

	// Namespace-level dependency budget.
	nsDeps := make(map[string]map[string]struct{})
	for _, decl := range mo.Types {
		if nsDeps[decl.Namespace] == nil {
			nsDeps[decl.Namespace] = make(map[string]struct{})
		}
		for dep := range decl.Dependencies {
			nsDeps[decl.Namespace][dep] = struct{}{}
		}
	}
	for _, ns := range mo.Namespaces {
		if count := len(nsDeps[ns]); count > cfg.Dependencies.MaxPerNamespace {
			violations = append(violations, m.Violation{
				RuleID:   "DESIGN_001",
				Severity: m.SeverityInfo,
				TypeName: ns,
				Message:  fmt.Sprintf("namespace %s references %d distinct types (limit %d)", ns, count, cfg.Dependencies.MaxPerNamespace),
			})
		}
	}

	return violations
}

// sqlNamespaces are banned data-access imports for non-infrastructure
// layers.
var sqlNamespaces = []string{
	"Microsoft.Data.SqlClient",
	"System.Data.SqlClient",
	"Dapper",
}

var sqlForbiddenLayers = []string{"Application", "Web", "API", "Controllers"}

var sqlConnectionRe = regexp.MustCompile(`new\s+Sql(Connection|Command)\s*\(`)

func auditSQLAccess(mo *Model) []m.Violation {
	var violations []m.Violation
	for _, key := range mo.Keys() {
		decl := mo.Types[key]

		restricted := decl.Role == m.RoleController
		for _, layer := range sqlForbiddenLayers {
			if strings.Contains(decl.Namespace, layer) || strings.Contains(string(decl.File), layer) {
				restricted = true
			}
		}
		if !restricted {
			continue
		}

		for _, using := range decl.Usings {
			for _, banned := range sqlNamespaces {
				if strings.Contains(using, banned) {
					violations = append(violations, m.Violation{
						RuleID:     "DATA_001",
						Severity:   m.SeverityError,
						TypeName:   decl.Name,
						File:       string(decl.File),
						Message:    fmt.Sprintf("'%s' in %s directly references %s", decl.Name, decl.Namespace, using),
						Suggestion: "move SQL access behind a repository in the infrastructure layer",
					})
				}
			}
		}

		if sqlConnectionRe.MatchString(mo.Bodies[key]) {
			violations = append(violations, m.Violation{
				RuleID:     "DATA_001",
				Severity:   m.SeverityError,
				TypeName:   decl.Name,
				File:       string(decl.File),
				Message:    fmt.Sprintf("'%s' constructs a raw SQL connection", decl.Name),
				Suggestion: "move SQL access behind a repository in the infrastructure layer",
			})
		}
	}
	return violations
}

func auditRepositoryInterfaces(mo *Model) []m.Violation {
	var violations []m.Violation
	for _, key := range mo.Keys() {
		decl := mo.Types[key]
		if decl.Role != m.RoleRepository || decl.Kind != m.KindClass {
			continue
		}
		if len(decl.BaseTypes) == 0 {
			violations = append(violations, m.Violation{
				RuleID:     "DATA_002",
				Severity:   m.SeverityWarning,
				TypeName:   decl.Name,
				File:       string(decl.File),
				Line:       decl.StartLine,
				Message:    fmt.Sprintf("repository '%s' does not implement an interface", decl.Name),
				Suggestion: fmt.Sprintf("declare I%s and register it in the container", decl.Name),
			})
		}
	}
	return violations
}

var handlerBaseRe = regexp.MustCompile(`^I(Request|Notification|Command|Query)Handler<`)

func auditHandlerContract(mo *Model) []m.Violation {
	var violations []m.Violation
	for _, key := range mo.Keys() {
		decl := mo.Types[key]

		declares := false
		for _, base := range decl.BaseTypes {
			if handlerBaseRe.MatchString(base) {
				declares = true
				break
			}
		}
		if !declares {
			continue
		}

		hasHandle := false
		for _, member := range decl.Members {
			if member.Kind == m.MemberMethod && (member.Name == "Handle" || member.Name == "HandleAsync") {
				hasHandle = true
				break
			}
		}
		if !hasHandle {
			violations = append(violations, m.Violation{
				RuleID:     "MEDIATR_001",
				Severity:   m.SeverityWarning,
				TypeName:   decl.Name,
				File:       string(decl.File),
				Line:       decl.StartLine,
				Message:    fmt.Sprintf("'%s' declares a handler interface but defines no Handle method", decl.Name),
				Suggestion: "implement Handle(request, cancellationToken)",
			})
		}
	}
	return violations
}

func auditControllerAttributes(mo *Model) []m.Violation {
	required := []string{"ApiController", "Route"}

	var violations []m.Violation
	for _, key := range mo.Keys() {
		decl := mo.Types[key]
		if decl.Role != m.RoleController || decl.Kind != m.KindClass {
			continue
		}
		for _, want := range required {
			if !hasAttributeContaining(decl.Attributes, want) {
				violations = append(violations, m.Violation{
					RuleID:     "ATTR_001",
					Severity:   m.SeverityWarning,
					TypeName:   decl.Name,
					File:       string(decl.File),
					Line:       decl.StartLine,
					Message:    fmt.Sprintf("controller '%s' is missing the [%s] attribute", decl.Name, want),
					Suggestion: fmt.Sprintf("add [%s] to the controller", want),
				})
			}
		}
	}
	return violations
}

func hasAttributeContaining(attrs []m.Attribute, fragment string) bool {
	for _, attr := range attrs {
		if strings.Contains(attr.Name, fragment) {
			return true
		}
	}
	return false
}

func auditAsyncVoid(mo *Model) []m.Violation {
	exception := regexp.MustCompile(mo.Config.Rules.EventHandlerPattern)

	var violations []m.Violation
	for _, key := range mo.Keys() {
		decl := mo.Types[key]
		for _, member := range decl.Members {
			if member.Kind != m.MemberMethod || !member.IsAsync {
				continue
			}
			if member.ReturnType != "void" {
				continue
			}
			if exception.MatchString(member.Name) {
				continue
			}
			violations = append(violations, m.Violation{
				RuleID:     "ASYNC_001",
				Severity:   m.SeverityWarning,
				TypeName:   decl.Name,
				File:       string(decl.File),
				Line:       member.StartLine,
				Message:    fmt.Sprintf("async void method '%s.%s' is not an event handler", decl.Name, member.Name),
				Suggestion: "return Task instead of void",
			})
		}
	}
	return violations
}

// blockingPatterns match synchronous waits on asynchronous results.
var blockingPatterns = []struct {
	re      *regexp.Regexp
	message string
}{
	{regexp.MustCompile(`\.Result\b`), ".Result blocks the thread (async-over-sync)"},
	{regexp.MustCompile(`\.Wait\(\)`), ".Wait() blocks the thread (async-over-sync)"},
	{regexp.MustCompile(`\.GetAwaiter\(\)\.GetResult\(\)`), "GetAwaiter().GetResult() blocks the thread"},
	{regexp.MustCompile(`Task\.WaitAll\(`), "Task.WaitAll() blocks, prefer await Task.WhenAll()"},
	{regexp.MustCompile(`Task\.WaitAny\(`), "Task.WaitAny() blocks, prefer await Task.WhenAny()"},
}

func auditAsyncOverSync(mo *Model) []m.Violation {
	var violations []m.Violation
	for _, key := range mo.Keys() {
		decl := mo.Types[key]
		for i, line := range strings.Split(mo.Bodies[key], "\n") {
			for _, bp := range blockingPatterns {
				if bp.re.MatchString(line) {
					violations = append(violations, m.Violation{
						RuleID:     "ASYNC_002",
						Severity:   m.SeverityWarning,
						TypeName:   decl.Name,
						File:       string(decl.File),
						Line:       decl.StartLine + i,
						Message:    bp.message,
						Suggestion: "await the task instead of blocking on it",
					})
				}
			}
		}
	}
	return violations
}

// TopRules ranks rule ids by violation count, descending, ties broken by id.
func TopRules(violations []m.Violation, n int) []m.RuleCount {
	counts := make(map[string]int)
	for _, v := range violations {
		counts[v.RuleID]++
	}
	ranked := make([]m.RuleCount, 0, len(counts))
	for id, count := range counts {
		ranked = append(ranked, m.RuleCount{RuleID: id, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].RuleID < ranked[j].RuleID
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
