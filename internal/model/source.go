// Package model defines the data structures for architectural analysis.
package model

// Path represents a file system path.
type Path string

// SourceFile is one source file read for an analysis run. Immutable once read.
type SourceFile struct {
	Path      Path
	Content   string
	LineCount int
}

// DeclarationKind classifies a raw declaration found by the scanner.
type DeclarationKind string

const (
	DeclNamespace DeclarationKind = "namespace"
	DeclType      DeclarationKind = "type"
	DeclMember    DeclarationKind = "member"
	DeclUsing     DeclarationKind = "using"
	DeclAttribute DeclarationKind = "attribute"
)

// TypeKind is the syntactic kind of a type declaration.
type TypeKind string

const (
	KindClass     TypeKind = "class"
	KindInterface TypeKind = "interface"
	KindStruct    TypeKind = "struct"
	KindRecord    TypeKind = "record"
	KindEnum      TypeKind = "enum"
)

// Attribute is a bracketed annotation attached to a type or member.
type Attribute struct {
	Name      string
	Arguments []string
	Line      int
}

// MemberKind classifies a type member.
type MemberKind string

const (
	MemberMethod   MemberKind = "method"
	MemberProperty MemberKind = "property"
	MemberField    MemberKind = "field"
)

// Member is one member of a type. Body is retained only for metric
// computation and is never serialized into reports.
type Member struct {
	Name       string
	Kind       MemberKind
	ReturnType string
	Parameters []string
	IsStatic   bool
	IsAsync    bool
	StartLine  int
	EndLine    int
	Complexity int
	Body       string `json:"-"`
}

// TypeKey identifies a logical type within one analysis run.
type TypeKey struct {
	Namespace string
	Name      string
}

// TypeDeclaration is a logical type after partial-fragment aggregation.
// Identity key is (Namespace, Name).
type TypeDeclaration struct {
	Name      string
	Namespace string
	Kind      TypeKind
	File      Path
	StartLine int
	EndLine   int

	Attributes []Attribute
	BaseTypes  []string
	Members    []Member
	Usings     []string

	IsPartial bool
	// Locations lists every fragment that contributed to this type.
	Locations []string

	Role         Role
	Dependencies map[string]struct{}

	LOC  int
	LCOM float64
	// Complexity is the summed cyclomatic complexity of the type's methods.
	Complexity int
	// Quality is a 1-10 score derived from the metric thresholds.
	Quality int
}

// Key returns the identity key for the type.
func (t *TypeDeclaration) Key() TypeKey {
	return TypeKey{Namespace: t.Namespace, Name: t.Name}
}

// Role is an architectural role tag derived from attributes and naming.
type Role string

const (
	RoleController  Role = "controller"
	RoleService     Role = "service"
	RoleRepository  Role = "repository"
	RoleEntity      Role = "entity"
	RoleValueObject Role = "value_object"
	RoleHandler     Role = "handler"
	RoleValidator   Role = "validator"
	RoleMiddleware  Role = "middleware"
	RoleUnknown     Role = "unknown"
)

// DIRegistration maps a service interface to an implementation with a
// lifetime policy, as declared at a container registration call site.
type DIRegistration struct {
	Interface      string
	Implementation string
	Lifetime       string // Transient, Scoped or Singleton
	Location       string
}

// DependencyEdge is a directed namespace-level dependency.
type DependencyEdge struct {
	From string
	To   string
}
