package rules

import "github.com/thephilippbusch/tep-app/internal/analyzer"

// NewDefaultRegistry returns a Registry with all built-in rules.
func NewDefaultRegistry() *analyzer.Registry {
	r := analyzer.NewRegistry()
	r.Register(NewConcurrentIndexRule())
	r.Register(NewDropIfExistsRule())
	r.Register(NewDropTableRule())
	r.RegisterMigrationRule(NewReversibilityRule())

	return r
}
