package domain

import (
	"testing"

	m "github.com/mouse-blink/archdna/internal/model"
)

func TestDetermineRole_AttributeWinsOverSuffix(t *testing.T) {
	decl := &m.TypeDeclaration{
		Name:       "OrderService",
		Attributes: []m.Attribute{{Name: "ApiController"}},
	}
	if role := determineRole(decl); role != m.RoleController {
		t.Fatalf("attribute must win over name suffix, got %s", role)
	}
}

func TestDetermineRole_SuffixFallback(t *testing.T) {
	cases := map[string]m.Role{
		"CustomerRepository": m.RoleRepository,
		"PricingService":     m.RoleService,
		"OrderHandler":       m.RoleHandler,
		"AuthMiddleware":     m.RoleMiddleware,
		"Customer":           m.RoleUnknown,
	}
	for name, want := range cases {
		decl := &m.TypeDeclaration{Name: name}
		if got := determineRole(decl); got != want {
			t.Fatalf("%s: got %s, want %s", name, got, want)
		}
	}
}

func TestDetermineRole_BaseTypeFallback(t *testing.T) {
	decl := &m.TypeDeclaration{Name: "Orders", BaseTypes: []string{"ControllerBase"}}
	if got := determineRole(decl); got != m.RoleController {
		t.Fatalf("base type must tag the role, got %s", got)
	}
}

func TestCollectDependencies_SkipsFrameworkTypes(t *testing.T) {
	decl := &m.TypeDeclaration{
		Name:         "OrderService",
		Dependencies: make(map[string]struct{}),
		Members: []m.Member{
			{
				Kind:       m.MemberMethod,
				Name:       "Place",
				ReturnType: "Task<OrderResult>",
				Parameters: []string{"OrderRequest request", "CancellationToken ct"},
			},
		},
	}

	collectDependencies(decl)

	for _, want := range []string{"OrderResult", "OrderRequest"} {
		if _, ok := decl.Dependencies[want]; !ok {
			t.Fatalf("missing dependency %s: %v", want, decl.Dependencies)
		}
	}
	for _, skip := range []string{"Task", "CancellationToken", "OrderService"} {
		if _, ok := decl.Dependencies[skip]; ok {
			t.Fatalf("%s must be skipped: %v", skip, decl.Dependencies)
		}
	}
}

func TestBuildModel_NamespaceEdges(t *testing.T) {
	appType := &m.TypeDeclaration{
		Name: "Checkout", Namespace: "Shop.Application",
		Usings:       []string{"Shop.Domain", "System.Linq"},
		Dependencies: make(map[string]struct{}),
		Members: []m.Member{
			{Kind: m.MemberMethod, Name: "Run", ReturnType: "Order", Parameters: nil},
		},
	}
	domainType := &m.TypeDeclaration{
		Name: "Order", Namespace: "Shop.Domain",
		Dependencies: make(map[string]struct{}),
	}

	types := map[m.TypeKey]*m.TypeDeclaration{
		appType.Key():    appType,
		domainType.Key(): domainType,
	}

	mo := BuildModel(types, map[m.TypeKey]string{}, nil, m.DefaultConfig())

	if len(mo.Edges) != 1 {
		t.Fatalf("expected one deduplicated edge, got %v", mo.Edges)
	}
	edge := mo.Edges[0]
	if edge.From != "Shop.Application" || edge.To != "Shop.Domain" {
		t.Fatalf("unexpected edge %v", edge)
	}
}

func TestBuildModel_NoSelfEdges(t *testing.T) {
	a := &m.TypeDeclaration{
		Name: "A", Namespace: "Core",
		Dependencies: make(map[string]struct{}),
		Members:      []m.Member{{Kind: m.MemberMethod, Name: "M", ReturnType: "B"}},
	}
	b := &m.TypeDeclaration{Name: "B", Namespace: "Core", Dependencies: make(map[string]struct{})}

	mo := BuildModel(map[m.TypeKey]*m.TypeDeclaration{a.Key(): a, b.Key(): b}, nil, nil, m.DefaultConfig())

	if len(mo.Edges) != 0 {
		t.Fatalf("same-namespace dependencies must not create edges: %v", mo.Edges)
	}
}

func TestBuildModel_DIRegistrationAddsDependency(t *testing.T) {
	impl := &m.TypeDeclaration{Name: "SqlOrderStore", Namespace: "Infra", Dependencies: make(map[string]struct{})}
	regs := []m.DIRegistration{{Interface: "IOrderStore", Implementation: "SqlOrderStore", Lifetime: "Scoped"}}

	mo := BuildModel(map[m.TypeKey]*m.TypeDeclaration{impl.Key(): impl}, nil, regs, m.DefaultConfig())

	if _, ok := mo.Types[impl.Key()].Dependencies["IOrderStore"]; !ok {
		t.Fatalf("registration must add the interface dependency: %v", impl.Dependencies)
	}
}

func TestExtractDIRegistrations(t *testing.T) {
	content := `var builder = WebApplication.CreateBuilder(args);
builder.Services.AddScoped<IOrderService, OrderService>();
builder.Services.AddSingleton<ICache>(sp => new MemoryCache());
builder.Services.AddTransient(typeof(IRepo), typeof(SqlRepo));
`
	regs := ExtractDIRegistrations(content, "Program.cs")

	if len(regs) != 3 {
		t.Fatalf("expected 3 registrations, got %v", regs)
	}
	if regs[0].Interface != "IOrderService" || regs[0].Implementation != "OrderService" || regs[0].Lifetime != "Scoped" {
		t.Fatalf("generic pair form wrong: %+v", regs[0])
	}
	if regs[1].Implementation != "MemoryCache" {
		t.Fatalf("factory form wrong: %+v", regs[1])
	}
	if regs[2].Interface != "IRepo" || regs[2].Implementation != "SqlRepo" || regs[2].Lifetime != "Transient" {
		t.Fatalf("typeof form wrong: %+v", regs[2])
	}
	if regs[0].Location != "Program.cs:2" {
		t.Fatalf("location must carry file and line: %s", regs[0].Location)
	}
}

func TestIsEntryPointFile(t *testing.T) {
	if !IsEntryPointFile("src/Web/Program.cs") || !IsEntryPointFile("Startup.cs") {
		t.Fatalf("entry point files not recognized")
	}
	if IsEntryPointFile("src/Program/OrderService.cs") {
		t.Fatalf("only the base name counts")
	}
}
