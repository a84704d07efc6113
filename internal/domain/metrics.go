package domain

import (
	"math"
	"regexp"
	"strings"

	m "github.com/mouse-blink/archdna/internal/model"
)

// ComputeMetrics fills in LCOM and per-method cyclomatic complexity for
// every type, and returns per-namespace aggregates. LOC and dependency
// counts are already present on the aggregated types. The model is not
// otherwise mutated after this pass.
func ComputeMetrics(mo *Model) []m.NamespaceMetrics {
	for _, key := range mo.Keys() {
		decl := mo.Types[key]
		for i := range decl.Members {
			if decl.Members[i].Kind == m.MemberMethod {
				decl.Members[i].Complexity = CyclomaticComplexity(decl.Members[i].Body)
				decl.Complexity += decl.Members[i].Complexity
			}
		}
		decl.LCOM = LCOM(decl)
		decl.Quality = QualityScore(decl, mo.Config)
	}
	return namespaceMetrics(mo)
}

// QualityScore condenses the metrics into a 1-10 score. Each threshold
// breach subtracts points, with a softer penalty near the threshold; a
// recognized architectural role earns one back.
func QualityScore(decl *m.TypeDeclaration, cfg m.Config) int {
	score := 10

	switch {
	case decl.LCOM > cfg.Metrics.LCOMThreshold:
		score -= 3
	case decl.LCOM > cfg.Metrics.LCOMThreshold*0.75:
		score--
	}

	switch {
	case decl.Complexity > cfg.Metrics.CyclomaticComplexityLimit*3:
		score -= 2
	case decl.Complexity > cfg.Metrics.CyclomaticComplexityLimit*2:
		score--
	}

	switch {
	case decl.LOC > cfg.Metrics.LOCThreshold:
		score -= 2
	case float64(decl.LOC) > float64(cfg.Metrics.LOCThreshold)*0.6:
		score--
	}

	switch {
	case len(decl.Dependencies) > cfg.Dependencies.MaxPerClass*2:
		score -= 2
	case len(decl.Dependencies) > cfg.Dependencies.MaxPerClass+3:
		score--
	}

	if decl.Role != m.RoleUnknown {
		score++
	}

	if score < 1 {
		return 1
	}
	if score > 10 {
		return 10
	}
	return score
}

// LCOM computes lack of cohesion: over all pairs of non-static methods,
// P counts pairs sharing no field access and Q counts pairs sharing at
// least one. LCOM = P/(P+Q), 0 when no pairs exist. Field access is the
// syntactic occurrence of a field identifier in the method body, which is a
// deliberate approximation; the rule thresholds are calibrated against it.
func LCOM(decl *m.TypeDeclaration) float64 {
	var methods []m.Member
	var fields []string
	for _, member := range decl.Members {
		switch {
		case member.Kind == m.MemberMethod && !member.IsStatic && member.Name != decl.Name:
			methods = append(methods, member)
		case member.Kind != m.MemberMethod && !member.IsStatic:
			fields = append(fields, member.Name)
		}
	}
	if len(methods) < 2 || len(fields) == 0 {
		return 0
	}

	accessed := make([]map[string]struct{}, len(methods))
	for i, method := range methods {
		accessed[i] = make(map[string]struct{})
		for _, field := range fields {
			if fieldAccessed(field, method.Body) {
				accessed[i][field] = struct{}{}
			}
		}
	}

	p, q := 0, 0
	for i := 0; i < len(methods); i++ {
		for j := i + 1; j < len(methods); j++ {
			if sharesField(accessed[i], accessed[j]) {
				q++
			} else {
				p++
			}
		}
	}
	if p+q == 0 {
		return 0
	}
	return round3(float64(p) / float64(p+q))
}

// fieldAccessed reports whether the field name occurs as an identifier in
// the body, tolerating the leading-underscore naming convention and
// explicit this. qualification.
func fieldAccessed(field, body string) bool {
	candidates := []string{field, strings.TrimLeft(field, "_")}
	for _, name := range candidates {
		if name == "" {
			continue
		}
		re := regexp.MustCompile(`(^|[^\w.])(this\.)?` + regexp.QuoteMeta(name) + `\b`)
		if re.MatchString(body) {
			return true
		}
	}
	return false
}

func sharesField(a, b map[string]struct{}) bool {
	for field := range a {
		if _, ok := b[field]; ok {
			return true
		}
	}
	return false
}

// else-if counts on top of the plain if match, so an else-if chain weighs
// more than a flat series of ifs.
var decisionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bif\b`),
	regexp.MustCompile(`\belse\s+if\b`),
	regexp.MustCompile(`\bwhile\b`),
	regexp.MustCompile(`\bfor\b`),
	regexp.MustCompile(`\bforeach\b`),
	regexp.MustCompile(`\bcase\b`),
	regexp.MustCompile(`\bcatch\b`),
	regexp.MustCompile(`&&`),
	regexp.MustCompile(`\|\|`),
}

// nullOperators are removed before ternary counting so ?? ?. and ??= never
// register as decision points.
var nullOperators = strings.NewReplacer("??=", "", "??", "", "?.", "")

// CyclomaticComplexity is 1 plus the number of decision points in the body.
// The body is expected to be literal-stripped already.
func CyclomaticComplexity(body string) int {
	complexity := 1
	for _, pattern := range decisionPatterns {
		complexity += len(pattern.FindAllString(body, -1))
	}
	complexity += strings.Count(nullOperators.Replace(body), "?")
	return complexity
}

// namespaceMetrics computes instability per namespace from the edge set:
// outgoing/(incoming+outgoing), reported as 0 when the namespace has no
// edges at all.
func namespaceMetrics(mo *Model) []m.NamespaceMetrics {
	g := buildNSGraph(mo.Namespaces, mo.Edges)
	out, in := g.degrees()

	typeCount := make(map[string]int)
	for _, decl := range mo.Types {
		typeCount[decl.Namespace]++
	}

	metrics := make([]m.NamespaceMetrics, 0, len(g.nodes))
	for i, ns := range g.nodes {
		instability := 0.0
		if total := out[i] + in[i]; total > 0 {
			instability = round3(float64(out[i]) / float64(total))
		}
		metrics = append(metrics, m.NamespaceMetrics{
			Namespace:   ns,
			Types:       typeCount[ns],
			Outgoing:    out[i],
			Incoming:    in[i],
			Instability: instability,
		})
	}
	return metrics
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
