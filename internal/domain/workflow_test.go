package domain

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"testing"

	m "github.com/mouse-blink/archdna/internal/model"
)

// fakeFS serves an in-memory project tree.
type fakeFS struct {
	files      map[m.Path]string
	unreadable map[m.Path]bool
}

func (f *fakeFS) Discover(_ m.Path, _ []string) ([]m.Path, error) {
	paths := make([]m.Path, 0, len(f.files))
	for path := range f.files {
		paths = append(paths, path)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
	return paths, nil
}

func (f *fakeFS) ReadFile(path m.Path) (string, error) {
	if f.unreadable[path] {
		return "", errors.New("permission denied")
	}
	return f.files[path], nil
}

// fakeReports records write calls and optionally fails per artifact.
type fakeReports struct {
	written []string
	fail    map[string]bool
}

func (r *fakeReports) write(kind string) (m.Path, error) {
	if r.fail[kind] {
		return "", errors.New(kind + " write failed")
	}
	r.written = append(r.written, kind)
	return m.Path(kind), nil
}

func (r *fakeReports) WriteJSON(*m.Result) (m.Path, error)     { return r.write("json") }
func (r *fakeReports) WriteMarkdown(*m.Result) (m.Path, error) { return r.write("markdown") }
func (r *fakeReports) WriteSARIF(*m.Result) (m.Path, error)    { return r.write("sarif") }

const webSource = `using Dapper;
using Shop.Domain;

namespace Shop.Web.Controllers
{
    public class ReportsController
    {
        private readonly IReportService _reports;

        public ReportsController(IReportService reports)
        {
            _reports = reports;
        }

        public async void Refresh()
        {
        }
    }
}
`

const domainSource = `namespace Shop.Domain;

public class Report
{
    public string Title { get; }
}
`

const programSource = `var builder = WebApplication.CreateBuilder(args);
builder.Services.AddScoped<IReportService, ReportService>();
`

func testProject() *fakeFS {
	return &fakeFS{files: map[m.Path]string{
		"src/Web/ReportsController.cs": webSource,
		"src/Domain/Report.cs":         domainSource,
		"src/Web/Program.cs":           programSource,
	}}
}

func TestAnalyze_EndToEnd(t *testing.T) {
	reports := &fakeReports{}
	wf := NewWorkflow(testProject(), reports)

	res, err := wf.Analyze(context.Background(), AnalyzeArgs{
		ProjectPath: "src",
		RepoName:    "shop",
		Config:      m.DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if res.Summary.FilesAnalyzed != 3 || res.Summary.FilesSkipped != 0 {
		t.Fatalf("unexpected file counts: %+v", res.Summary)
	}
	if res.Summary.TotalTypes != 2 {
		t.Fatalf("expected 2 types, got %d", res.Summary.TotalTypes)
	}
	if len(res.DIRegistrations) != 1 || res.DIRegistrations[0].Interface != "IReportService" {
		t.Fatalf("DI registrations not extracted: %v", res.DIRegistrations)
	}

	// ReportsController: async void Refresh (ASYNC_001), Dapper using in a
	// web namespace (DATA_001), missing controller attributes (ATTR_001).
	for _, want := range []string{"ASYNC_001", "DATA_001", "ATTR_001"} {
		if len(violationsFor(res.Violations, want)) == 0 {
			t.Fatalf("expected a %s violation: %v", want, res.Violations)
		}
	}

	if len(reports.written) != 3 {
		t.Fatalf("all three artifacts must be written: %v", reports.written)
	}
	if len(res.Summary.ReportErrors) != 0 {
		t.Fatalf("no report errors expected: %v", res.Summary.ReportErrors)
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	run := func() m.Summary {
		wf := NewWorkflow(testProject(), &fakeReports{})
		res, err := wf.Analyze(context.Background(), AnalyzeArgs{ProjectPath: "src", RepoName: "shop", Config: m.DefaultConfig()})
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		return res.Summary
	}

	first, second := run(), run()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("summaries differ between identical runs:\n%+v\n%+v", first, second)
	}
}

func TestAnalyze_InvalidConfigIsFatal(t *testing.T) {
	cfg := m.DefaultConfig()
	cfg.Metrics.LCOMThreshold = 2.0

	wf := NewWorkflow(testProject(), &fakeReports{})
	if _, err := wf.Analyze(context.Background(), AnalyzeArgs{ProjectPath: "src", Config: cfg}); err == nil {
		t.Fatalf("invalid configuration must abort the run")
	}
}

func TestAnalyze_UnreadableFileIsSkipped(t *testing.T) {
	fs := testProject()
	fs.unreadable = map[m.Path]bool{"src/Domain/Report.cs": true}

	wf := NewWorkflow(fs, &fakeReports{})
	res, err := wf.Analyze(context.Background(), AnalyzeArgs{ProjectPath: "src", RepoName: "shop", Config: m.DefaultConfig()})
	if err != nil {
		t.Fatalf("a skipped file must not abort the run: %v", err)
	}

	if res.Summary.FilesSkipped != 1 || res.Summary.FilesAnalyzed != 2 {
		t.Fatalf("unexpected counts: %+v", res.Summary)
	}
	found := false
	for _, d := range res.Diagnostics {
		if d.Stage == "scan" && d.Subject == "src/Domain/Report.cs" {
			found = true
		}
	}
	if !found {
		t.Fatalf("skip must be diagnosed: %v", res.Diagnostics)
	}
}

func TestAnalyze_ReportFailuresAreIndependent(t *testing.T) {
	reports := &fakeReports{fail: map[string]bool{"markdown": true}}
	wf := NewWorkflow(testProject(), reports)

	res, err := wf.Analyze(context.Background(), AnalyzeArgs{ProjectPath: "src", RepoName: "shop", Config: m.DefaultConfig()})
	if err != nil {
		t.Fatalf("a failed artifact must not abort the run: %v", err)
	}

	if _, ok := res.Summary.ReportErrors["markdown"]; !ok {
		t.Fatalf("markdown failure must be recorded: %v", res.Summary.ReportErrors)
	}
	sort.Strings(reports.written)
	if !reflect.DeepEqual(reports.written, []string{"json", "sarif"}) {
		t.Fatalf("other artifacts must still be written: %v", reports.written)
	}
}

func TestAnalyze_EmptyProject(t *testing.T) {
	wf := NewWorkflow(&fakeFS{files: map[m.Path]string{}}, &fakeReports{})

	res, err := wf.Analyze(context.Background(), AnalyzeArgs{ProjectPath: "src", RepoName: "empty", Config: m.DefaultConfig()})
	if err != nil {
		t.Fatalf("empty project must yield an empty valid result: %v", err)
	}
	if res.Summary.TotalTypes != 0 || res.Summary.TotalViolations != 0 {
		t.Fatalf("unexpected summary: %+v", res.Summary)
	}
}

func TestAnalyze_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	wf := NewWorkflow(testProject(), &fakeReports{})
	if _, err := wf.Analyze(ctx, AnalyzeArgs{ProjectPath: "src", Config: m.DefaultConfig()}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAnalyze_DIRegistrationOrderDeterministic(t *testing.T) {
	fs := &fakeFS{files: map[m.Path]string{}}
	for i := 0; i < 16; i++ {
		path := m.Path(fmt.Sprintf("src/mod%02d/Program.cs", i))
		fs.files[path] = fmt.Sprintf("builder.Services.AddScoped<ISvc%02d, Svc%02d>();\n", i, i)
	}

	run := func() []m.DIRegistration {
		wf := NewWorkflow(fs, &fakeReports{})
		res, err := wf.Analyze(context.Background(), AnalyzeArgs{
			ProjectPath: "src",
			RepoName:    "shop",
			Parallelism: 8,
			Config:      m.DefaultConfig(),
		})
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		return res.DIRegistrations
	}

	first := run()
	if len(first) != 16 {
		t.Fatalf("expected 16 registrations, got %d", len(first))
	}
	for i, reg := range first {
		if want := fmt.Sprintf("ISvc%02d", i); reg.Interface != want {
			t.Fatalf("registrations must follow file-path order: got %s at %d, want %s", reg.Interface, i, want)
		}
	}
	for attempt := 0; attempt < 30; attempt++ {
		if again := run(); !reflect.DeepEqual(first, again) {
			t.Fatalf("registration order differs between identical runs:\n%v\n%v", first, again)
		}
	}
}

func TestAnalyze_DIExtractionGated(t *testing.T) {
	cfg := m.DefaultConfig()
	cfg.Patterns.ExtractDIRegistrations = false

	wf := NewWorkflow(testProject(), &fakeReports{})
	res, err := wf.Analyze(context.Background(), AnalyzeArgs{ProjectPath: "src", RepoName: "shop", Config: cfg})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(res.DIRegistrations) != 0 {
		t.Fatalf("extraction must be disabled: %v", res.DIRegistrations)
	}
}
