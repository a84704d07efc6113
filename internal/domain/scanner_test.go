package domain

import (
	"strings"
	"testing"

	m "github.com/mouse-blink/archdna/internal/model"
)

const controllerSource = `using System;
using OrderApp.Domain;

namespace OrderApp.Application
{
    [ApiController]
    [Route("api/orders")]
    public class OrdersController
    {
        private readonly IOrderService _orders;

        public OrdersController(IOrderService orders)
        {
            _orders = orders;
        }

        public async Task<Order> GetOrder(int id)
        {
            if (id < 0)
            {
                throw new ArgumentException("bad id");
            }
            return await _orders.FindAsync(id);
        }
    }
}
`

func TestScan_ClassDeclaration(t *testing.T) {
	res := NewScanner().Scan(m.SourceFile{Path: "Orders.cs", Content: controllerSource})

	if len(res.Diagnostics) != 0 {
		t.Fatalf("expected no diagnostics, got %v", res.Diagnostics)
	}
	if len(res.Usings) != 2 || res.Usings[1] != "OrderApp.Domain" {
		t.Fatalf("unexpected usings: %v", res.Usings)
	}
	if len(res.Types) != 1 {
		t.Fatalf("expected 1 type, got %d", len(res.Types))
	}

	decl := res.Types[0]
	if decl.Name != "OrdersController" || decl.Namespace != "OrderApp.Application" {
		t.Fatalf("unexpected identity: %s.%s", decl.Namespace, decl.Name)
	}
	if decl.Kind != m.KindClass {
		t.Fatalf("expected class, got %s", decl.Kind)
	}
	if len(decl.Attributes) != 2 || decl.Attributes[0].Name != "ApiController" {
		t.Fatalf("unexpected attributes: %v", decl.Attributes)
	}
	if decl.StartLine != 8 {
		t.Fatalf("expected start line 8, got %d", decl.StartLine)
	}
}

func TestScan_Members(t *testing.T) {
	res := NewScanner().Scan(m.SourceFile{Path: "Orders.cs", Content: controllerSource})
	decl := res.Types[0]

	byName := make(map[string]m.Member)
	for _, member := range decl.Members {
		byName[member.Name] = member
	}

	field, ok := byName["_orders"]
	if !ok || field.Kind != m.MemberField {
		t.Fatalf("field _orders not found: %v", decl.Members)
	}

	ctor, ok := byName["OrdersController"]
	if !ok || ctor.Kind != m.MemberMethod {
		t.Fatalf("constructor not found: %v", decl.Members)
	}
	if len(ctor.Parameters) != 1 || ctor.Parameters[0] != "IOrderService orders" {
		t.Fatalf("unexpected ctor params: %v", ctor.Parameters)
	}

	method, ok := byName["GetOrder"]
	if !ok {
		t.Fatalf("method GetOrder not found: %v", decl.Members)
	}
	if !method.IsAsync {
		t.Fatalf("expected GetOrder to be async")
	}
	if method.ReturnType != "Task<Order>" {
		t.Fatalf("unexpected return type %q", method.ReturnType)
	}
	if !strings.Contains(method.Body, "FindAsync") {
		t.Fatalf("method body not captured: %q", method.Body)
	}
}

func TestScan_FileScopedNamespace(t *testing.T) {
	src := "namespace Shop.Domain;\n\npublic record Money\n{\n    public decimal Amount { get; }\n}\n"
	res := NewScanner().Scan(m.SourceFile{Path: "Money.cs", Content: src})

	if len(res.Types) != 1 {
		t.Fatalf("expected 1 type, got %d", len(res.Types))
	}
	if res.Types[0].Namespace != "Shop.Domain" {
		t.Fatalf("expected file-scoped namespace, got %q", res.Types[0].Namespace)
	}
	if res.Types[0].Kind != m.KindRecord {
		t.Fatalf("expected record, got %s", res.Types[0].Kind)
	}
}

func TestScan_BracesInLiteralsIgnored(t *testing.T) {
	src := "namespace A;\n" +
		"public class Formatter\n{\n" +
		"    private readonly string _tpl = \"{ not a brace }\";\n" +
		"    // also { not } real\n" +
		"    public string Render() { return _tpl; }\n" +
		"}\n"
	res := NewScanner().Scan(m.SourceFile{Path: "F.cs", Content: src})

	if len(res.Diagnostics) != 0 {
		t.Fatalf("literal braces confused the scanner: %v", res.Diagnostics)
	}
	if len(res.Types) != 1 || res.Types[0].EndLine != 7 {
		t.Fatalf("unexpected span: %+v", res.Types[0])
	}
}

func TestScan_UnbalancedTypeAbortsFile(t *testing.T) {
	src := "namespace A;\npublic class Broken\n{\n    public void M()\n    {\n" // never closed
	res := NewScanner().Scan(m.SourceFile{Path: "B.cs", Content: src})

	if len(res.Types) != 1 {
		t.Fatalf("partial findings should be kept, got %d types", len(res.Types))
	}
	if len(res.Diagnostics) != 1 {
		t.Fatalf("expected a diagnostic for unbalanced braces, got %v", res.Diagnostics)
	}
}

func TestScan_EnumHasNoMembers(t *testing.T) {
	src := "namespace A;\npublic enum Color\n{\n    Red,\n    Green,\n}\n"
	res := NewScanner().Scan(m.SourceFile{Path: "C.cs", Content: src})

	if len(res.Types) != 1 || res.Types[0].Kind != m.KindEnum {
		t.Fatalf("enum not recognized: %+v", res.Types)
	}
	if len(res.Types[0].Members) != 0 {
		t.Fatalf("enum constants must not become members: %v", res.Types[0].Members)
	}
}

func TestScan_AttributeSharesDeclarationLine(t *testing.T) {
	src := "namespace A;\n" +
		"[ApiController] public class First\n{\n}\n" +
		"public class Second\n{\n}\n"
	res := NewScanner().Scan(m.SourceFile{Path: "A.cs", Content: src})

	if len(res.Diagnostics) != 0 {
		t.Fatalf("expected no diagnostics, got %v", res.Diagnostics)
	}
	if len(res.Types) != 2 {
		t.Fatalf("expected both types, got %+v", res.Types)
	}
	first := res.Types[0]
	if first.Name != "First" || len(first.Attributes) != 1 || first.Attributes[0].Name != "ApiController" {
		t.Fatalf("inline attribute lost: %+v", first)
	}
	if res.Types[1].Name != "Second" {
		t.Fatalf("declaration after inline attribute lost: %+v", res.Types[1])
	}
}

func TestScan_PositionalRecord(t *testing.T) {
	src := "namespace Shop.Domain;\n\npublic record Money(decimal Amount, string Currency);\n"
	res := NewScanner().Scan(m.SourceFile{Path: "Money.cs", Content: src})

	if len(res.Types) != 1 {
		t.Fatalf("expected 1 type, got %d", len(res.Types))
	}
	decl := res.Types[0]
	if decl.Kind != m.KindRecord || decl.Name != "Money" {
		t.Fatalf("positional record not recognized: %+v", decl)
	}
	if decl.StartLine != 3 || decl.EndLine != 3 {
		t.Fatalf("unexpected span: %d-%d", decl.StartLine, decl.EndLine)
	}
}

func TestScan_PositionalRecordWithBaseList(t *testing.T) {
	src := "namespace Shop.Domain;\npublic record Point(int X, int Y) : IShape;\n"
	res := NewScanner().Scan(m.SourceFile{Path: "Point.cs", Content: src})

	if len(res.Types) != 1 {
		t.Fatalf("expected 1 type, got %d", len(res.Types))
	}
	if got := res.Types[0].BaseTypes; len(got) != 1 || got[0] != "IShape" {
		t.Fatalf("base list not captured: %v", got)
	}
}

func TestScan_InterfaceMethodsWithoutBodies(t *testing.T) {
	src := "namespace A;\npublic interface IOrderService\n{\n" +
		"    public Task<Order> FindAsync(int id);\n" +
		"}\n"
	res := NewScanner().Scan(m.SourceFile{Path: "I.cs", Content: src})

	if len(res.Types) != 1 {
		t.Fatalf("expected 1 type, got %d", len(res.Types))
	}
	decl := res.Types[0]
	if decl.Kind != m.KindInterface || len(decl.Members) != 1 {
		t.Fatalf("interface member not recognized: %+v", decl.Members)
	}
	if decl.Members[0].Name != "FindAsync" {
		t.Fatalf("unexpected member %q", decl.Members[0].Name)
	}
}
