package domain

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mouse-blink/archdna/internal/adapter"
	m "github.com/mouse-blink/archdna/internal/model"
)

// AnalyzeArgs carries one analysis request.
type AnalyzeArgs struct {
	ProjectPath m.Path
	RepoName    string
	// Parallelism bounds the scan worker count; zero means GOMAXPROCS.
	Parallelism int
	// Excludes are regular expressions matched against project-relative
	// paths.
	Excludes []string
	Config   m.Config
}

// Workflow runs a full architectural audit of one project.
type Workflow interface {
	Analyze(ctx context.Context, args AnalyzeArgs) (*m.Result, error)
}

type workflow struct {
	fs      adapter.SourceFSAdapter
	scanner Scanner
	reports adapter.ReportStore
}

// NewWorkflow constructs a Workflow backed by the provided filesystem and
// report adapters.
func NewWorkflow(fs adapter.SourceFSAdapter, reports adapter.ReportStore) Workflow {
	return &workflow{
		fs:      fs,
		scanner: NewScanner(),
		reports: reports,
	}
}

// Analyze is the single entry point of a run. The returned error is reserved
// for fatal conditions: invalid configuration, an unreadable project root or
// cancellation. Per-file problems, faulted rules and failed report artifacts
// degrade the result instead of aborting it.
func (w *workflow) Analyze(ctx context.Context, args AnalyzeArgs) (*m.Result, error) {
	if err := args.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	files, err := w.fs.Discover(args.ProjectPath, args.Excludes)
	if err != nil {
		return nil, fmt.Errorf("failed to discover sources: %w", err)
	}

	scans, regs, skipped, err := w.scanAll(ctx, files, args.Parallelism, args.Config.Patterns.ExtractDIRegistrations)
	if err != nil {
		return nil, err
	}

	types, bodies, diags := Aggregate(scans, args.Config.Patterns.IncludePartialClasses)
	mo := BuildModel(types, bodies, regs, args.Config)
	namespaces := ComputeMetrics(mo)

	violations, ruleDiags := EvaluateRules(ctx, mo)
	diags = append(diags, ruleDiags...)

	patterns, patternDiags := DetectPatterns(mo)
	diags = append(diags, patternDiags...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &m.Result{
		Repo:            args.RepoName,
		Types:           mo.Types,
		Namespaces:      namespaces,
		Edges:           mo.Edges,
		DIRegistrations: regs,
		Violations:      violations,
		Patterns:        patterns,
		Diagnostics:     diags,
	}
	res.Summary = buildSummary(args.RepoName, len(files)-skipped, skipped, res)

	w.writeReports(res)

	return res, nil
}

// scanAll reads and scans every file with a bounded worker pool. Unreadable
// files are skipped and counted; their diagnostics land on the scan results.
// DI registrations are extracted from entry-point files in the same pass and
// returned in file-path order, independent of scan scheduling.
func (w *workflow) scanAll(ctx context.Context, files []m.Path, parallelism int, extractDI bool) ([]ScanResult, []m.DIRegistration, int, error) {
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	var mu sync.Mutex
	var scans []ScanResult
	regsByFile := make(map[m.Path][]m.DIRegistration)
	skipped := 0

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			content, err := w.fs.ReadFile(file)
			if err != nil {
				mu.Lock()
				skipped++
				scans = append(scans, ScanResult{
					File: file,
					Diagnostics: []m.Diagnostic{{
						Stage:   "scan",
						Subject: string(file),
						Message: fmt.Sprintf("skipped unreadable file: %v", err),
					}},
				})
				mu.Unlock()
				return nil
			}

			res := w.scanner.Scan(m.SourceFile{Path: file, Content: content})

			var fileRegs []m.DIRegistration
			if extractDI && IsEntryPointFile(file) {
				fileRegs = ExtractDIRegistrations(content, file)
			}

			mu.Lock()
			scans = append(scans, res)
			if len(fileRegs) > 0 {
				regsByFile[file] = fileRegs
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, 0, err
	}

	var regs []m.DIRegistration
	for _, file := range files {
		regs = append(regs, regsByFile[file]...)
	}
	return scans, regs, skipped, nil
}

func buildSummary(repo string, analyzed, skipped int, res *m.Result) m.Summary {
	bySeverity := make(map[m.Severity]int)
	for _, v := range res.Violations {
		bySeverity[v.Severity]++
	}

	return m.Summary{
		Repo:                 repo,
		FilesAnalyzed:        analyzed,
		FilesSkipped:         skipped,
		TotalTypes:           len(res.Types),
		TotalViolations:      len(res.Violations),
		ViolationsBySeverity: bySeverity,
		TopRules:             TopRules(res.Violations, 5),
		PatternCounts:        CountPatterns(res.Patterns),
	}
}

// writeReports emits the three artifacts. Failures are recorded per artifact
// on the summary and as diagnostics; the run result stays valid regardless.
func (w *workflow) writeReports(res *m.Result) {
	writers := []struct {
		name  string
		write func(*m.Result) (m.Path, error)
	}{
		{"json", w.reports.WriteJSON},
		{"markdown", w.reports.WriteMarkdown},
		{"sarif", w.reports.WriteSARIF},
	}

	for _, writer := range writers {
		if _, err := writer.write(res); err != nil {
			if res.Summary.ReportErrors == nil {
				res.Summary.ReportErrors = make(map[string]string)
			}
			res.Summary.ReportErrors[writer.name] = err.Error()
			res.Diagnostics = append(res.Diagnostics, m.Diagnostic{
				Stage:   "report",
				Subject: writer.name,
				Message: err.Error(),
			})
		}
	}
}
