// Package domain implements the architectural analysis engine: declaration
// scanning, partial-type aggregation, the semantic model, metrics, audit
// rules and design-pattern detection.
package domain

import (
	"fmt"
	"regexp"
	"strings"

	m "github.com/mouse-blink/archdna/internal/model"
)

// ScanResult holds everything the scanner recovered from one file. Scanning
// never fails hard; anomalies land in Diagnostics and partial results are
// kept.
type ScanResult struct {
	File        m.Path
	Usings      []string
	Types       []*m.TypeDeclaration
	Bodies      map[m.TypeKey]string
	Diagnostics []m.Diagnostic
}

// Scanner locates structural declarations in one source file using
// brace-depth tracking and signature matching. It is a deliberate
// simplification of a full parser: one-line declaration headers, best-effort
// recovery on malformed input.
type Scanner interface {
	Scan(file m.SourceFile) ScanResult
}

type scanner struct{}

// NewScanner constructs the default line-oriented scanner.
func NewScanner() Scanner {
	return &scanner{}
}

var (
	usingRe     = regexp.MustCompile(`^\s*(?:global\s+)?using\s+(?:static\s+)?([\w.]+)\s*;`)
	namespaceRe = regexp.MustCompile(`^\s*namespace\s+([\w.]+)\s*(;)?`)
	attributeRe = regexp.MustCompile(`^\s*\[(\w+)(?:\(([^)]*)\))?\]`)
	typeRe      = regexp.MustCompile(`^\s*((?:(?:public|private|protected|internal|static|abstract|sealed|partial)\s+)*)(class|interface|struct|record|enum)\s+(\w+)(?:<[^>]*>)?\s*(?:\([^)]*\))?\s*(?::\s*([^{;]+?))?\s*(?:\{|;|$)`)
	methodRe    = regexp.MustCompile(`^\s*((?:(?:public|private|protected|internal|static|virtual|override|abstract|sealed|new|partial|extern)\s+)+)(async\s+)?([\w.<>\[\],? ]+?)\s+(\w+)\s*\(([^)]*)\)?\s*(\{|=>|;|$)`)
	ctorRe      = regexp.MustCompile(`^\s*((?:(?:public|private|protected|internal|static)\s+)+)(\w+)\s*\(([^)]*)\)?\s*(\{|:|$)`)
	propertyRe  = regexp.MustCompile(`^\s*((?:(?:public|private|protected|internal|static|virtual|override|required)\s+)+)([\w.<>\[\],? ]+?)\s+(\w+)\s*(\{|=>)`)
	fieldRe     = regexp.MustCompile(`^\s*((?:(?:public|private|protected|internal|static|readonly|const|volatile)\s+)+)([\w.<>\[\],? ]+?)\s+(\w+)\s*(;|=[^=>])`)
)

// keywords that can never be a member name or a one-word return type.
var reservedWords = map[string]struct{}{
	"if": {}, "else": {}, "for": {}, "foreach": {}, "while": {}, "switch": {},
	"case": {}, "catch": {}, "try": {}, "finally": {}, "using": {}, "lock": {},
	"return": {}, "new": {}, "throw": {}, "do": {}, "get": {}, "set": {},
	"namespace": {}, "class": {}, "interface": {}, "struct": {}, "record": {},
	"enum": {}, "delegate": {}, "operator": {}, "event": {},
}

func (s *scanner) Scan(file m.SourceFile) ScanResult {
	res := ScanResult{File: file.Path, Bodies: make(map[m.TypeKey]string)}

	cleaned := stripLiterals(file.Content)
	lines := strings.Split(cleaned, "\n")

	fileNamespace := ""
	depth := 0
	// Block namespaces are tracked as (name, depth at which they opened).
	type nsFrame struct {
		name  string
		depth int
	}
	var nsStack []nsFrame
	var pending []m.Attribute

	currentNS := func() string {
		if len(nsStack) > 0 {
			return nsStack[len(nsStack)-1].name
		}
		return fileNamespace
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if mm := usingRe.FindStringSubmatch(line); mm != nil {
			res.Usings = append(res.Usings, mm[1])
			depth += braceDelta(line)
			continue
		}

		if mm := namespaceRe.FindStringSubmatch(line); mm != nil {
			if mm[2] == ";" || strings.Contains(line, ";") {
				fileNamespace = mm[1]
			} else {
				nsStack = append(nsStack, nsFrame{name: mm[1], depth: depth})
			}
			depth += braceDelta(line)
			continue
		}

		// Attributes may stack and may share the line with the declaration
		// they annotate; strip them off and match the remainder.
		hadAttr := false
		for {
			idx := attributeRe.FindStringIndex(line)
			if idx == nil {
				break
			}
			pending = append(pending, parseAttribute(attributeRe.FindStringSubmatch(line), i+1))
			line = line[idx[1]:]
			hadAttr = true
		}
		if hadAttr && strings.TrimSpace(line) == "" {
			continue
		}

		if mm := typeRe.FindStringSubmatch(line); mm != nil {
			decl, end, ok := s.scanType(lines, i, mm, currentNS(), file.Path, pending)
			pending = nil
			res.Types = append(res.Types, decl)
			res.Bodies[decl.Key()] = strings.Join(lines[i:end+1], "\n")
			if !ok {
				res.Diagnostics = append(res.Diagnostics, m.Diagnostic{
					Stage:   "scan",
					Subject: string(file.Path),
					Message: fmt.Sprintf("unbalanced braces in type %s starting at line %d; remainder of file skipped", decl.Name, i+1),
				})
				return res
			}
			i = end
			continue
		}

		pending = nil
		depth += braceDelta(line)
		for len(nsStack) > 0 && depth <= nsStack[len(nsStack)-1].depth {
			nsStack = nsStack[:len(nsStack)-1]
		}
		if depth < 0 {
			// More closers than openers: report and keep what we have.
			res.Diagnostics = append(res.Diagnostics, m.Diagnostic{
				Stage:   "scan",
				Subject: string(file.Path),
				Message: fmt.Sprintf("unexpected closing brace at line %d", i+1),
			})
			depth = 0
		}
	}

	return res
}

// scanType consumes one type declaration starting at line start. Returns the
// declaration, the index of its last line, and whether the body was balanced.
func (s *scanner) scanType(lines []string, start int, mm []string, namespace string, file m.Path, attrs []m.Attribute) (*m.TypeDeclaration, int, bool) {
	modifiers := mm[1]
	decl := &m.TypeDeclaration{
		Name:         mm[3],
		Namespace:    namespace,
		Kind:         m.TypeKind(mm[2]),
		File:         file,
		StartLine:    start + 1,
		Attributes:   attrs,
		IsPartial:    strings.Contains(modifiers, "partial"),
		Role:         m.RoleUnknown,
		Dependencies: make(map[string]struct{}),
		Locations:    []string{fmt.Sprintf("%s:%d", file, start+1)},
	}
	if mm[4] != "" {
		for _, base := range strings.Split(mm[4], ",") {
			if b := strings.TrimSpace(base); b != "" {
				decl.BaseTypes = append(decl.BaseTypes, b)
			}
		}
	}

	end, ok := findBlockEnd(lines, start)
	if !ok {
		end = len(lines) - 1
	}
	decl.EndLine = end + 1
	decl.LOC = countCodeLines(lines[start : end+1])

	if decl.Kind != m.KindEnum {
		decl.Members = s.scanMembers(lines, start, end, decl.Name)
	}

	return decl, end, ok
}

// scanMembers walks the body span of a type and collects members declared
// one brace level inside it. Nested blocks (method bodies, nested types) are
// skipped by depth accounting.
func (s *scanner) scanMembers(lines []string, start, end int, typeName string) []m.Member {
	var members []m.Member

	depth := 0
	opened := false
	for i := start; i <= end && i < len(lines); i++ {
		line := lines[i]
		if opened && depth == 1 {
			if member, last, ok := s.matchMember(lines, i, end, typeName); ok {
				members = append(members, member)
				depth += braceDeltaRange(lines, i, last)
				i = last
				continue
			}
		}
		depth += braceDelta(line)
		if !opened && depth > 0 {
			opened = true
		}
	}

	return members
}

// matchMember tries to recognize a member header on line i. Returns the
// member with its body span and the index of its last line.
func (s *scanner) matchMember(lines []string, i, end int, typeName string) (m.Member, int, bool) {
	line := lines[i]

	if mm := methodRe.FindStringSubmatch(line); mm != nil {
		name := mm[4]
		ret := strings.TrimSpace(mm[3])
		if !isReserved(name) && !isReserved(firstWord(ret)) {
			member := m.Member{
				Name:       name,
				Kind:       m.MemberMethod,
				ReturnType: ret,
				Parameters: splitParams(mm[5]),
				IsStatic:   strings.Contains(mm[1], "static"),
				IsAsync:    mm[2] != "",
				StartLine:  i + 1,
			}
			last := memberEnd(lines, i, end, mm[6])
			member.EndLine = last + 1
			member.Body = strings.Join(lines[i:last+1], "\n")
			return member, last, true
		}
	}

	if mm := ctorRe.FindStringSubmatch(line); mm != nil && mm[2] == typeName {
		member := m.Member{
			Name:       mm[2],
			Kind:       m.MemberMethod,
			Parameters: splitParams(mm[3]),
			IsStatic:   strings.Contains(mm[1], "static"),
			StartLine:  i + 1,
		}
		last := memberEnd(lines, i, end, mm[4])
		member.EndLine = last + 1
		member.Body = strings.Join(lines[i:last+1], "\n")
		return member, last, true
	}

	if mm := propertyRe.FindStringSubmatch(line); mm != nil && !strings.Contains(line, "(") {
		name := mm[3]
		if !isReserved(name) {
			member := m.Member{
				Name:       name,
				Kind:       m.MemberProperty,
				ReturnType: strings.TrimSpace(mm[2]),
				IsStatic:   strings.Contains(mm[1], "static"),
				StartLine:  i + 1,
			}
			last := memberEnd(lines, i, end, mm[4])
			member.EndLine = last + 1
			return member, last, true
		}
	}

	if mm := fieldRe.FindStringSubmatch(line); mm != nil && !strings.Contains(line, "(") {
		name := mm[3]
		if !isReserved(name) && !isReserved(firstWord(mm[2])) {
			return m.Member{
				Name:       name,
				Kind:       m.MemberField,
				ReturnType: strings.TrimSpace(mm[2]),
				IsStatic:   strings.Contains(mm[1], "static"),
				StartLine:  i + 1,
				EndLine:    i + 1,
			}, i, true
		}
	}

	return m.Member{}, i, false
}

// memberEnd finds the last line of a member given its header terminator:
// "{" opens a brace-balanced body, "=>" and ";" end at the next semicolon,
// anything else means the opening brace is on a following line.
func memberEnd(lines []string, i, end int, terminator string) int {
	switch terminator {
	case ";":
		return i
	case "=>":
		for j := i; j <= end && j < len(lines); j++ {
			if strings.Contains(lines[j], ";") {
				return j
			}
		}
		return i
	default:
		last, ok := findBlockEnd(lines, i)
		if !ok || last > end {
			return i
		}
		return last
	}
}

// findBlockEnd returns the line index on which the brace block opened at or
// after line start closes. Input must already be literal-stripped, so every
// brace is structural.
func findBlockEnd(lines []string, start int) (int, bool) {
	depth := 0
	opened := false
	for i := start; i < len(lines); i++ {
		for _, ch := range lines[i] {
			switch ch {
			case '{':
				opened = true
				depth++
			case '}':
				depth--
				if opened && depth <= 0 {
					return i, true
				}
			}
		}
		// A bodiless declaration (interface member, record) ends at ";"
		// before any brace opens.
		if !opened && strings.Contains(lines[i], ";") {
			return i, true
		}
	}
	return len(lines) - 1, false
}

func braceDelta(line string) int {
	return strings.Count(line, "{") - strings.Count(line, "}")
}

func braceDeltaRange(lines []string, from, to int) int {
	delta := 0
	for i := from; i <= to && i < len(lines); i++ {
		delta += braceDelta(lines[i])
	}
	return delta
}

func parseAttribute(mm []string, line int) m.Attribute {
	attr := m.Attribute{Name: mm[1], Line: line}
	if mm[2] != "" {
		for _, arg := range strings.Split(mm[2], ",") {
			attr.Arguments = append(attr.Arguments, strings.TrimSpace(arg))
		}
	}
	return attr
}

func splitParams(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var params []string
	depth := 0
	cur := strings.Builder{}
	for _, ch := range raw {
		switch {
		case ch == '<' || ch == '(' || ch == '[':
			depth++
			cur.WriteRune(ch)
		case ch == '>' || ch == ')' || ch == ']':
			depth--
			cur.WriteRune(ch)
		case ch == ',' && depth == 0:
			params = append(params, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(ch)
		}
	}
	if p := strings.TrimSpace(cur.String()); p != "" {
		params = append(params, p)
	}
	return params
}

func isReserved(word string) bool {
	_, ok := reservedWords[word]
	return ok
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// countCodeLines counts lines that carry code, excluding blanks. Comment
// lines are already blank after literal stripping.
func countCodeLines(lines []string) int {
	n := 0
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

// stripLiterals blanks out comments, string literals, verbatim strings and
// char literals while preserving line structure, so brace counting and line
// numbers stay aligned with the source. State machine mirrors the C# lexical
// rules for // /* */ "..." @"..." '...'.
func stripLiterals(content string) string {
	const (
		code = iota
		lineComment
		blockComment
		str
		verbatim
		char
	)

	out := []byte(content)
	state := code
	for i := 0; i < len(content); i++ {
		c := content[i]
		var next byte
		if i+1 < len(content) {
			next = content[i+1]
		}

		switch state {
		case code:
			switch {
			case c == '/' && next == '/':
				state = lineComment
				out[i] = ' '
			case c == '/' && next == '*':
				state = blockComment
				out[i] = ' '
			case c == '@' && next == '"':
				state = verbatim
				out[i] = ' '
				out[i+1] = ' '
				i++
			case c == '"':
				state = str
				out[i] = ' '
			case c == '\'':
				state = char
				out[i] = ' '
			}
		case lineComment:
			if c == '\n' {
				state = code
			} else {
				out[i] = ' '
			}
		case blockComment:
			if c == '*' && next == '/' {
				state = code
				out[i] = ' '
				out[i+1] = ' '
				i++
			} else if c != '\n' {
				out[i] = ' '
			}
		case str:
			if c == '\\' && next != 0 {
				out[i] = ' '
				if next != '\n' {
					out[i+1] = ' '
				}
				i++
			} else if c == '"' {
				state = code
				out[i] = ' '
			} else if c != '\n' {
				out[i] = ' '
			}
		case verbatim:
			if c == '"' && next == '"' {
				out[i] = ' '
				out[i+1] = ' '
				i++
			} else if c == '"' {
				state = code
				out[i] = ' '
			} else if c != '\n' {
				out[i] = ' '
			}
		case char:
			if c == '\\' && next != 0 {
				out[i] = ' '
				if next != '\n' {
					out[i+1] = ' '
				}
				i++
			} else if c == '\'' {
				state = code
				out[i] = ' '
			} else if c != '\n' {
				out[i] = ' '
			}
		}
	}
	return string(out)
}
