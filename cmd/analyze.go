package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mouse-blink/archdna/internal/adapter"
	"github.com/mouse-blink/archdna/internal/controller"
	"github.com/mouse-blink/archdna/internal/domain"
	m "github.com/mouse-blink/archdna/internal/model"
)

var analyzeRepoFlag string
var analyzeOutputFlag string
var analyzeConfigFlag string
var analyzeParallelFlag int
var analyzeExcludeFlags []string

// analyzeCmd represents the analyze command.
var analyzeCmd = newAnalyzeCmd()

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [project-path]",
		Short: "Run an architectural audit of a C# project",
		Long: `Analyze scans every C# source file under the project path, evaluates
the audit rules and detects design patterns, then writes JSON, Markdown
and SARIF reports into the output directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectPath := "."
			if len(args) == 1 {
				projectPath = args[0]
			}

			repo := analyzeRepoFlag
			if repo == "" {
				abs, err := filepath.Abs(projectPath)
				if err != nil {
					return fmt.Errorf("failed to resolve project path: %w", err)
				}
				repo = filepath.Base(abs)
			}

			cfg, err := adapter.LoadConfig(m.Path(analyzeConfigFlag))
			if err != nil {
				return err
			}

			fs := adapter.NewLocalSourceFSAdapter()
			reports := adapter.NewReportStore(m.Path(analyzeOutputFlag))
			workflow := domain.NewWorkflow(fs, reports)

			res, err := workflow.Analyze(cmd.Context(), domain.AnalyzeArgs{
				ProjectPath: m.Path(projectPath),
				RepoName:    repo,
				Parallelism: analyzeParallelFlag,
				Excludes:    analyzeExcludeFlags,
				Config:      cfg,
			})
			if err != nil {
				return err
			}

			ui := controller.NewSimpleUI(cmd)
			return ui.DisplaySummary(res)
		},
	}
	cmd.Flags().StringVarP(&analyzeRepoFlag, "repo", "r", "", "repository name used in report artifacts (default: project directory name)")
	cmd.Flags().StringVarP(&analyzeOutputFlag, "output", "o", ".archdna-reports", "directory for report artifacts")
	cmd.Flags().StringVarP(&analyzeConfigFlag, "config", "c", "", "path to a YAML audit configuration")
	cmd.Flags().IntVarP(&analyzeParallelFlag, "parallel", "p", 0, "number of parallel scan workers (default: number of CPUs)")
	cmd.Flags().StringArrayVarP(&analyzeExcludeFlags, "exclude", "x", nil, "exclude files matching regex (can be repeated)")

	return cmd
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
