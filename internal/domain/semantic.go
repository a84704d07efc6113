package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	m "github.com/mouse-blink/archdna/internal/model"
)

// Model is the queryable semantic model for one run. It is built once after
// aggregation and treated as read-only by metrics, rules and patterns, so
// per-type evaluation needs no locking.
type Model struct {
	Config m.Config

	Types map[m.TypeKey]*m.TypeDeclaration
	// Bodies holds the raw body text of each type, kept only for metric
	// and pattern computation.
	Bodies map[m.TypeKey]string
	// ByName indexes logical types by bare name for dependency resolution.
	ByName map[string][]*m.TypeDeclaration

	DIRegistrations []m.DIRegistration
	Namespaces      []string
	Edges           []m.DependencyEdge
}

// Keys returns the type keys in deterministic order.
func (mo *Model) Keys() []m.TypeKey {
	keys := make([]m.TypeKey, 0, len(mo.Types))
	for key := range mo.Types {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Namespace != keys[j].Namespace {
			return keys[i].Namespace < keys[j].Namespace
		}
		return keys[i].Name < keys[j].Name
	})
	return keys
}

// roleAttributes maps roles to attribute-name vocabularies. First match wins,
// in the order listed here.
var roleAttributes = []struct {
	role     m.Role
	patterns []string
}{
	{m.RoleController, []string{"ApiController", "Controller", "Route"}},
	{m.RoleService, []string{"Service", "Injectable", "Transient", "Scoped"}},
	{m.RoleRepository, []string{"Repository", "DataAccess"}},
	{m.RoleEntity, []string{"Entity", "DomainEntity", "Aggregate", "Table"}},
	{m.RoleValueObject, []string{"ValueObject", "Immutable"}},
	{m.RoleHandler, []string{"Handler", "RequestHandler", "CommandHandler", "QueryHandler"}},
	{m.RoleValidator, []string{"Validator", "FluentValidation"}},
	{m.RoleMiddleware, []string{"Middleware"}},
}

// roleSuffixes is the naming-convention fallback when no attribute matches.
var roleSuffixes = []struct {
	role   m.Role
	suffix string
}{
	{m.RoleController, "Controller"},
	{m.RoleService, "Service"},
	{m.RoleRepository, "Repository"},
	{m.RoleHandler, "Handler"},
	{m.RoleValidator, "Validator"},
	{m.RoleMiddleware, "Middleware"},
}

// BuildModel assembles the aggregated types into the semantic model:
// role tags, per-type dependency sets and the deduplicated namespace-level
// dependency graph.
func BuildModel(types map[m.TypeKey]*m.TypeDeclaration, bodies map[m.TypeKey]string, regs []m.DIRegistration, cfg m.Config) *Model {
	mo := &Model{
		Config:          cfg,
		Types:           types,
		Bodies:          bodies,
		ByName:          make(map[string][]*m.TypeDeclaration),
		DIRegistrations: regs,
	}

	nsSet := make(map[string]struct{})
	for _, decl := range types {
		mo.ByName[decl.Name] = append(mo.ByName[decl.Name], decl)
		nsSet[decl.Namespace] = struct{}{}
	}
	for ns := range nsSet {
		mo.Namespaces = append(mo.Namespaces, ns)
	}
	sort.Strings(mo.Namespaces)

	for _, key := range mo.Keys() {
		decl := mo.Types[key]
		decl.Role = determineRole(decl)
		collectDependencies(decl)
	}

	// DI-injected constructor parameters count as dependencies of the
	// implementation type.
	for _, reg := range regs {
		for _, impl := range mo.ByName[reg.Implementation] {
			impl.Dependencies[reg.Interface] = struct{}{}
		}
	}

	mo.Edges = namespaceEdges(mo)
	return mo
}

// determineRole tags a type from its attributes, falling back to name-suffix
// convention and base types. Best effort: RoleUnknown is a valid outcome.
func determineRole(decl *m.TypeDeclaration) m.Role {
	for _, attr := range decl.Attributes {
		for _, ra := range roleAttributes {
			for _, pattern := range ra.patterns {
				if strings.Contains(strings.ToLower(attr.Name), strings.ToLower(pattern)) {
					return ra.role
				}
			}
		}
	}

	for _, rs := range roleSuffixes {
		if strings.HasSuffix(decl.Name, rs.suffix) {
			return rs.role
		}
	}

	for _, base := range decl.BaseTypes {
		if strings.Contains(base, "Controller") {
			return m.RoleController
		}
		if strings.Contains(base, "Repository") {
			return m.RoleRepository
		}
	}

	return m.RoleUnknown
}

var identifierRe = regexp.MustCompile(`[A-Z]\w*`)

// signatureSkip are names that appear in signatures but are framework
// plumbing rather than architectural dependencies.
var signatureSkip = map[string]struct{}{
	"Task": {}, "ValueTask": {}, "String": {}, "Int32": {}, "Int64": {},
	"Boolean": {}, "Object": {}, "Void": {}, "CancellationToken": {},
	"List": {}, "IList": {}, "IEnumerable": {}, "ICollection": {},
	"Dictionary": {}, "IDictionary": {}, "Nullable": {}, "IReadOnlyList": {},
}

// collectDependencies fills the type's dependency set from member
// signatures: return types and parameter types, including constructor
// parameters.
func collectDependencies(decl *m.TypeDeclaration) {
	add := func(sig string) {
		for _, name := range identifierRe.FindAllString(sig, -1) {
			if name == decl.Name {
				continue
			}
			if _, skip := signatureSkip[name]; skip {
				continue
			}
			decl.Dependencies[name] = struct{}{}
		}
	}

	for _, member := range decl.Members {
		add(member.ReturnType)
		for _, param := range member.Parameters {
			// Parameter type is everything before the final identifier.
			if idx := strings.LastIndex(strings.TrimSpace(param), " "); idx > 0 {
				add(param[:idx])
			}
		}
	}
}

// namespaceEdges derives the directed namespace dependency graph from using
// directives and resolved type dependencies. Edges are deduplicated per
// namespace pair and never self-referential.
func namespaceEdges(mo *Model) []m.DependencyEdge {
	declared := make(map[string]struct{}, len(mo.Namespaces))
	for _, ns := range mo.Namespaces {
		declared[ns] = struct{}{}
	}

	seen := make(map[m.DependencyEdge]struct{})
	var edges []m.DependencyEdge
	addEdge := func(from, to string) {
		if from == to || from == "" || to == "" {
			return
		}
		edge := m.DependencyEdge{From: from, To: to}
		if _, dup := seen[edge]; dup {
			return
		}
		seen[edge] = struct{}{}
		edges = append(edges, edge)
	}

	for _, key := range mo.Keys() {
		decl := mo.Types[key]

		for _, using := range decl.Usings {
			if _, ok := declared[using]; ok {
				addEdge(decl.Namespace, using)
			}
		}

		targets := make([]string, 0, len(decl.Dependencies)+len(decl.BaseTypes))
		for dep := range decl.Dependencies {
			targets = append(targets, dep)
		}
		for _, base := range decl.BaseTypes {
			if idx := strings.Index(base, "<"); idx > 0 {
				base = base[:idx]
			}
			targets = append(targets, base)
		}
		sort.Strings(targets)

		for _, target := range targets {
			for _, dep := range mo.ByName[target] {
				addEdge(decl.Namespace, dep.Namespace)
			}
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

var diPatterns = []*regexp.Regexp{
	regexp.MustCompile(`Add(Transient|Scoped|Singleton)<(\w+),\s*(\w+)>\(`),
	regexp.MustCompile(`Add(Transient|Scoped|Singleton)<(\w+)>\([^)]*new\s+(\w+)`),
	regexp.MustCompile(`Add(Transient|Scoped|Singleton)\(typeof\((\w+)\),\s*typeof\((\w+)\)`),
}

// ExtractDIRegistrations recognizes container registration call sites in
// entry-point file content, by generic-argument syntax or explicit type
// tokens.
func ExtractDIRegistrations(content string, file m.Path) []m.DIRegistration {
	var regs []m.DIRegistration
	for i, line := range strings.Split(content, "\n") {
		for _, pattern := range diPatterns {
			for _, mm := range pattern.FindAllStringSubmatch(line, -1) {
				regs = append(regs, m.DIRegistration{
					Interface:      mm[2],
					Implementation: mm[3],
					Lifetime:       mm[1],
					Location:       fmt.Sprintf("%s:%d", file, i+1),
				})
			}
		}
	}
	return regs
}

// IsEntryPointFile reports whether a file conventionally hosts DI
// registrations.
func IsEntryPointFile(path m.Path) bool {
	base := string(path)
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	return base == "Program.cs" || base == "Startup.cs"
}
