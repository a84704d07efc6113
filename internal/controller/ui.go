// Package controller provides output adapters for displaying audit results.
package controller

import (
	m "github.com/mouse-blink/archdna/internal/model"
)

// RuleDescription is one row of the rule catalog listing.
type RuleDescription struct {
	ID          string
	Name        string
	Description string
}

// UI defines the interface for presenting audit output.
// Implementations can use different output methods (plain text, styled
// terminal, etc).
type UI interface {
	DisplaySummary(res *m.Result) error
	DisplayRuleCatalog(rules []RuleDescription)
	DisplayPatternCatalog(names []string)
}
