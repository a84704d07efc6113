package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	m "github.com/mouse-blink/archdna/internal/model"
)

// Confidence tiers. A matcher reports a pattern only when the fraction of
// indicators it found reaches its tier.
const (
	confidenceHigh   = 0.6
	confidenceMedium = 0.5
	confidenceLow    = 0.4
)

// PatternMatcher recognizes one design pattern from a type's body text.
// Indicators returns the human-readable evidence found; confidence is
// len(indicators)/maxIndicators.
type PatternMatcher struct {
	Name          string
	MaxIndicators int
	Threshold     float64
	Indicators    func(body, typeName string) []string
}

// DetectPatterns runs every matcher against every type. A fault in one
// matcher is reported as a diagnostic and skips only that matcher for that
// type. Results are ordered by type, then descending confidence.
func DetectPatterns(mo *Model) ([]m.DetectedPattern, []m.Diagnostic) {
	if !mo.Config.Patterns.DetectDesignPatterns {
		return nil, nil
	}

	var detected []m.DetectedPattern
	var diags []m.Diagnostic

	for _, key := range mo.Keys() {
		decl := mo.Types[key]
		body := mo.Bodies[key]

		var perType []m.DetectedPattern
		for _, matcher := range Matchers() {
			match, err := matchIsolated(matcher, body, decl)
			if err != nil {
				diags = append(diags, m.Diagnostic{
					Stage:   "pattern",
					Subject: fmt.Sprintf("%s/%s", matcher.Name, decl.Name),
					Message: err.Error(),
				})
				continue
			}
			if match != nil {
				perType = append(perType, *match)
			}
		}

		sort.SliceStable(perType, func(i, j int) bool {
			return perType[i].Confidence > perType[j].Confidence
		})
		detected = append(detected, perType...)
	}

	return detected, diags
}

func matchIsolated(matcher PatternMatcher, body string, decl *m.TypeDeclaration) (match *m.DetectedPattern, err error) {
	defer func() {
		if r := recover(); r != nil {
			match = nil
			err = fmt.Errorf("matcher %s failed on %s: %v", matcher.Name, decl.Name, r)
		}
	}()

	indicators := matcher.Indicators(body, decl.Name)
	if len(indicators) == 0 {
		return nil, nil
	}
	confidence := float64(len(indicators)) / float64(matcher.MaxIndicators)
	if confidence < matcher.Threshold {
		return nil, nil
	}
	return &m.DetectedPattern{
		Pattern:    matcher.Name,
		TypeName:   decl.Name,
		File:       string(decl.File),
		Confidence: round3(confidence),
		Indicators: indicators,
	}, nil
}

var (
	staticInstanceRe = regexp.MustCompile(`static\s+(readonly\s+)?\S+\s+Instance`)

	staticCreateRe    = regexp.MustCompile(`public\s+static\s+(abstract\s+)?(new\s+)?\w+\s+Create`)
	returnsIfaceRe    = regexp.MustCompile(`I\w+\s+(Create|Make|Build)`)
	switchOnKindRe    = regexp.MustCompile(`(?i)switch\s*\(.*(type|kind).*\)`)
	withMethodRe      = regexp.MustCompile(`public\s+\w+\s+With\w+\s*\(`)
	buildMethodRe     = regexp.MustCompile(`public\s+\w+\s+Build\s*\(\s*\)`)
	returnThisRe      = regexp.MustCompile(`return\s+this;`)
	cloneMethodRe     = regexp.MustCompile(`public\s+(virtual\s+|override\s+)?\w+\s+Clone\s*\(`)
	cloneableRe       = regexp.MustCompile(`\bICloneable\b|MemberwiseClone`)
	wrappedIfaceRe    = regexp.MustCompile(`private\s+(readonly\s+)?I\w+\s+\w+;`)
	delegatingRe      = regexp.MustCompile(`(public|protected)\s+\w+\s+\w+\s*\([^)]*\)\s*\{[^}]*\w+\.\w+\(`)
	multiIfaceRe      = regexp.MustCompile(`:\s*\w+\s*,\s*\w+`)
	wrappedFieldRe    = regexp.MustCompile(`private\s+(readonly\s+)?\w+\s+\w+;`)
	proxyWrapRe       = regexp.MustCompile(`(?s)private\s+(readonly\s+)?I\w+\s+\w+;.*class\s+\w+\s*:\s*I\w+`)
	lazyOrGuardRe     = regexp.MustCompile(`(?i)if\s*\([^)]*\w+\s*==\s*null\)|lock\s*\(|IsAuthorized|Permission`)
	simpleMethodRe    = regexp.MustCompile(`public\s+(async\s+)?(Task<)?[\w\[\]]+\s+\w+\s*\([^)]*\)\s*\{[^}]{0,100}?\}`)
	eventDefRe        = regexp.MustCompile(`event\s+\w+\s+\w+;|EventHandler\s+\w+`)
	eventRaiseRe      = regexp.MustCompile(`\w+\?\.Invoke\(|OnChanged\(|RaiseEvent\(|PropertyChanged\?\.Invoke\(`)
	observerIfaceRe   = regexp.MustCompile(`IObserver|IObservable|INotifyPropertyChanged`)
	strategyFieldRe   = regexp.MustCompile(`private\s+(readonly\s+)?I\w+Strategy\s+`)
	strategyCallRe    = regexp.MustCompile(`\w+Strategy\.\w+\(|\w+\.Execute\(`)
	strategyAssignRe  = regexp.MustCompile(`Strategy\s*=|SetStrategy|ChangeStrategy`)
	executeMethodRe   = regexp.MustCompile(`public\s+(async\s+)?(Task<)?[\w\[\]]*\s+Execute\s*\(`)
	undoRedoRe        = regexp.MustCompile(`(public|protected)\s+(async\s+)?(Task<)?[\w\[\]]*\s+Undo\s*\(|Redo\s*\(`)
	commandQueueRe    = regexp.MustCompile(`(?i)Queue.*Command|List.*Command|command.*history`)
	nextHandlerRe     = regexp.MustCompile(`private\s+(readonly\s+)?\w+\s+\w*[Nn]ext|_successor|_next`)
	handleMethodRe    = regexp.MustCompile(`public\s+(abstract\s+)?(async\s+)?(Task<)?[\w\[\]]*\s+Handle\s*\(`)
	callNextRe        = regexp.MustCompile(`\w+[Nn]ext\.\w+\(|\w+_successor\.\w+\(`)
	stateIfaceRe      = regexp.MustCompile(`IState|I\w+State\s+`)
	stateAssignRe     = regexp.MustCompile(`_state\s*=|CurrentState\s*=|SetState\(`)
	stateCallRe       = regexp.MustCompile(`_state\.\w+\(|CurrentState\.\w+\(`)
	crudMethodRe      = regexp.MustCompile(`public\s+.*Get\w+\s*\(|FindBy\w+\s*\(|Add\s*\(|Remove\s*\(|Update\s*\(`)
	dataAccessRe      = regexp.MustCompile(`IRepository|IDataAccess|DbContext|DbSet`)
	multiRepoRe       = regexp.MustCompile(`(?s)I\w+Repository\s+\w+;.*I\w+Repository\s+\w+;`)
	saveChangesRe     = regexp.MustCompile(`public\s+(async\s+)?(Task<)?[\w\[\]]*\s+(SaveChanges|Commit|Complete)\s*\(`)
	transactionRe     = regexp.MustCompile(`using\s*\(.*Transaction|BeginTransaction|RollbackAsync`)
	commandQuerySepRe = regexp.MustCompile(`ICommand|IQuery|Command\s+class|Query\s+class`)
	cqrsHandlerRe     = regexp.MustCompile(`ICommandHandler|IQueryHandler|Handle\s*\(`)
	eventStoreRe      = regexp.MustCompile(`EventStore|AppendEvent|GetEvents|EventStream`)
	eventClassRe      = regexp.MustCompile(`class\s+\w+Event|: Event|DomainEvent`)
	eventReplayRe     = regexp.MustCompile(`Replay|Rebuild|Reconstruct`)
	pubSubIfaceRe     = regexp.MustCompile(`IPublisher|ISubscriber|Subscribe|Publish`)
	eventBrokerRe     = regexp.MustCompile(`EventBroker|MessageBroker|EventBus`)
	asyncEventRe      = regexp.MustCompile(`async\s+Task.*Event|await.*Event`)
)

// Matchers returns all pattern matchers. Creational, structural, behavioral
// and architectural patterns in that order.
func Matchers() []PatternMatcher {
	return []PatternMatcher{
		{
			Name: "singleton", MaxIndicators: 3, Threshold: confidenceHigh,
			Indicators: func(body, name string) []string {
				var found []string
				if staticInstanceRe.MatchString(body) {
					found = append(found, "static Instance member")
				}
				if regexp.MustCompile(`private\s+` + regexp.QuoteMeta(name) + `\s*\(`).MatchString(body) {
					found = append(found, "private constructor")
				}
				if regexp.MustCompile(`public\s+static\s+` + regexp.QuoteMeta(name) + `\s+(Instance|Current|Default)`).MatchString(body) {
					found = append(found, "public static accessor")
				}
				return found
			},
		},
		{
			Name: "factory", MaxIndicators: 3, Threshold: confidenceMedium,
			Indicators: func(body, name string) []string {
				var found []string
				if staticCreateRe.MatchString(body) {
					found = append(found, "static Create method")
				}
				if returnsIfaceRe.MatchString(body) {
					found = append(found, "returns interface type")
				}
				if switchOnKindRe.MatchString(body) {
					found = append(found, "switch on type/kind")
				}
				return found
			},
		},
		{
			Name: "builder", MaxIndicators: 3, Threshold: confidenceHigh,
			Indicators: func(body, name string) []string {
				var found []string
				if withMethodRe.MatchString(body) {
					found = append(found, "With* fluent methods")
				}
				if buildMethodRe.MatchString(body) {
					found = append(found, "Build method")
				}
				if returnThisRe.MatchString(body) {
					found = append(found, "returns this for chaining")
				}
				return found
			},
		},
		{
			Name: "prototype", MaxIndicators: 3, Threshold: confidenceMedium,
			Indicators: func(body, name string) []string {
				var found []string
				if cloneMethodRe.MatchString(body) {
					found = append(found, "Clone method")
				}
				if cloneableRe.MatchString(body) {
					found = append(found, "ICloneable/MemberwiseClone")
				}
				if regexp.MustCompile(`public\s+`+regexp.QuoteMeta(name)+`\s*\(\s*`+regexp.QuoteMeta(name)+`\s+`).MatchString(body) {
					found = append(found, "copy constructor")
				}
				return found
			},
		},
		{
			Name: "decorator", MaxIndicators: 3, Threshold: confidenceMedium,
			Indicators: func(body, name string) []string {
				var found []string
				if wrappedIfaceRe.MatchString(body) {
					found = append(found, "wraps interface type")
				}
				if delegatingRe.MatchString(body) {
					found = append(found, "delegates to wrapped object")
				}
				if regexp.MustCompile(`public\s+` + regexp.QuoteMeta(name) + `\s*\(\s*I\w+\s+`).MatchString(body) {
					found = append(found, "takes interface in constructor")
				}
				return found
			},
		},
		{
			Name: "adapter", MaxIndicators: 3, Threshold: confidenceLow,
			Indicators: func(body, name string) []string {
				var found []string
				if multiIfaceRe.MatchString(body) {
					found = append(found, "implements multiple interfaces")
				}
				if wrappedFieldRe.MatchString(body) {
					found = append(found, "wraps another type")
				}
				if strings.Contains(name, "Adapter") || strings.Contains(name, "Wrapper") {
					found = append(found, "Adapter/Wrapper in name")
				}
				return found
			},
		},
		{
			Name: "facade", MaxIndicators: 2, Threshold: confidenceHigh,
			Indicators: func(body, name string) []string {
				var found []string
				if deps := len(wrappedFieldRe.FindAllString(body, -1)); deps >= 3 {
					found = append(found, fmt.Sprintf("multiple dependencies (%d)", deps))
				}
				if len(simpleMethodRe.FindAllString(body, -1)) >= 2 {
					found = append(found, "simple public interface")
				}
				return found
			},
		},
		{
			Name: "proxy", MaxIndicators: 2, Threshold: confidenceMedium,
			Indicators: func(body, name string) []string {
				var found []string
				if proxyWrapRe.MatchString(body) {
					found = append(found, "implements same interface as wrapped object")
				}
				if lazyOrGuardRe.MatchString(body) {
					found = append(found, "access control or lazy loading")
				}
				return found
			},
		},
		{
			Name: "observer", MaxIndicators: 3, Threshold: confidenceMedium,
			Indicators: func(body, name string) []string {
				var found []string
				if eventDefRe.MatchString(body) {
					found = append(found, "event definition")
				}
				if eventRaiseRe.MatchString(body) {
					found = append(found, "event raising")
				}
				if observerIfaceRe.MatchString(body) {
					found = append(found, "standard observer interface")
				}
				return found
			},
		},
		{
			Name: "strategy", MaxIndicators: 3, Threshold: confidenceMedium,
			Indicators: func(body, name string) []string {
				var found []string
				if strategyFieldRe.MatchString(body) {
					found = append(found, "strategy interface field")
				}
				if strategyCallRe.MatchString(body) {
					found = append(found, "executes strategy")
				}
				if strategyAssignRe.MatchString(body) {
					found = append(found, "strategy assignment")
				}
				return found
			},
		},
		{
			Name: "command", MaxIndicators: 3, Threshold: confidenceMedium,
			Indicators: func(body, name string) []string {
				var found []string
				if executeMethodRe.MatchString(body) {
					found = append(found, "Execute method")
				}
				if undoRedoRe.MatchString(body) {
					found = append(found, "Undo/Redo support")
				}
				if commandQueueRe.MatchString(body) {
					found = append(found, "command queue/history")
				}
				return found
			},
		},
		{
			Name: "chain_of_responsibility", MaxIndicators: 3, Threshold: confidenceMedium,
			Indicators: func(body, name string) []string {
				var found []string
				if nextHandlerRe.MatchString(body) {
					found = append(found, "next handler reference")
				}
				if handleMethodRe.MatchString(body) {
					found = append(found, "Handle method")
				}
				if callNextRe.MatchString(body) {
					found = append(found, "delegates to next handler")
				}
				return found
			},
		},
		{
			Name: "state", MaxIndicators: 3, Threshold: confidenceMedium,
			Indicators: func(body, name string) []string {
				var found []string
				if stateIfaceRe.MatchString(body) {
					found = append(found, "state interface")
				}
				if stateAssignRe.MatchString(body) {
					found = append(found, "state assignment")
				}
				if stateCallRe.MatchString(body) {
					found = append(found, "delegates to state")
				}
				return found
			},
		},
		{
			Name: "repository", MaxIndicators: 3, Threshold: confidenceHigh,
			Indicators: func(body, name string) []string {
				var found []string
				if crudMethodRe.MatchString(body) {
					found = append(found, "CRUD methods")
				}
				if dataAccessRe.MatchString(body) {
					found = append(found, "data access interface")
				}
				if strings.Contains(name, "Repository") || strings.Contains(name, "DAO") {
					found = append(found, "Repository/DAO in name")
				}
				return found
			},
		},
		{
			Name: "unit_of_work", MaxIndicators: 3, Threshold: confidenceMedium,
			Indicators: func(body, name string) []string {
				var found []string
				if multiRepoRe.MatchString(body) {
					found = append(found, "multiple repositories")
				}
				if saveChangesRe.MatchString(body) {
					found = append(found, "SaveChanges/Commit method")
				}
				if transactionRe.MatchString(body) {
					found = append(found, "transaction handling")
				}
				return found
			},
		},
		{
			Name: "cqrs", MaxIndicators: 3, Threshold: confidenceLow,
			Indicators: func(body, name string) []string {
				var found []string
				if commandQuerySepRe.MatchString(body) {
					found = append(found, "command/query separation")
				}
				if cqrsHandlerRe.MatchString(body) {
					found = append(found, "handler interface")
				}
				if strings.Contains(name, "Command") && strings.Contains(name, "Query") {
					found = append(found, "CQRS in name")
				}
				return found
			},
		},
		{
			Name: "event_sourcing", MaxIndicators: 3, Threshold: confidenceMedium,
			Indicators: func(body, name string) []string {
				var found []string
				if eventStoreRe.MatchString(body) {
					found = append(found, "event store")
				}
				if eventClassRe.MatchString(body) {
					found = append(found, "event classes")
				}
				if eventReplayRe.MatchString(body) {
					found = append(found, "event replay")
				}
				return found
			},
		},
		{
			Name: "pubsub", MaxIndicators: 3, Threshold: confidenceLow,
			Indicators: func(body, name string) []string {
				var found []string
				if pubSubIfaceRe.MatchString(body) {
					found = append(found, "publisher/subscriber surface")
				}
				if eventBrokerRe.MatchString(body) {
					found = append(found, "event broker")
				}
				if asyncEventRe.MatchString(body) {
					found = append(found, "async event handling")
				}
				return found
			},
		},
	}
}

// CountPatterns tallies detections per pattern name.
func CountPatterns(patterns []m.DetectedPattern) map[string]int {
	counts := make(map[string]int)
	for _, p := range patterns {
		counts[p.Pattern]++
	}
	return counts
}
