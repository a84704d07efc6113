package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mouse-blink/archdna/internal/controller"
	"github.com/mouse-blink/archdna/internal/domain"
)

// rulesCmd represents the rules command.
var rulesCmd = newRulesCmd()

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the audit rules and detectable design patterns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog := make([]controller.RuleDescription, 0, len(domain.Rules()))
			for _, rule := range domain.Rules() {
				catalog = append(catalog, controller.RuleDescription{
					ID:          rule.ID,
					Name:        rule.Name,
					Description: rule.Description,
				})
			}

			names := make([]string, 0, len(domain.Matchers()))
			for _, matcher := range domain.Matchers() {
				names = append(names, matcher.Name)
			}

			ui := controller.NewSimpleUI(cmd)
			ui.DisplayRuleCatalog(catalog)
			ui.DisplayPatternCatalog(names)
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}
