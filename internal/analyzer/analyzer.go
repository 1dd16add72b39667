package analyzer

import (
	"context"
	"fmt"

	"github.com/thephilippbusch/tep-app/internal/migration"
	"github.com/thephilippbusch/tep-app/internal/parser"
	"github.com/thephilippbusch/tep-app/internal/schema"
)

const statementDisplayLen = 120

// Option configures the Analyzer.
type Option func(*Analyzer)

// Analyzer renders migrations to PostgreSQL SQL and runs registered rules
// against both directions.
type Analyzer struct {
	registry *Registry
	parseFn  func([]string) (*parser.ParseResult, error)
}

// New creates a new Analyzer with the given options.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		registry: NewRegistry(),
		parseFn:  parser.ParseStatements,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// WithRegistry sets a custom rule registry.
func WithRegistry(r *Registry) Option {
	return func(a *Analyzer) { a.registry = r }
}

// WithParser overrides how the rendered statements of one direction are
// parsed (useful for testing).
func WithParser(fn func([]string) (*parser.ParseResult, error)) Option {
	return func(a *Analyzer) { a.parseFn = fn }
}

// Analyze renders, parses and analyzes a single migration, returning all findings.
func (a *Analyzer) Analyze(ctx context.Context, m migration.Migration) (*AnalysisResult, error) {
	up, err := a.parseDirection(ctx, m, migration.Up)
	if err != nil {
		return nil, err
	}

	down, err := a.parseDirection(ctx, m, migration.Down)
	if err != nil {
		return nil, err
	}

	base := RuleContext{
		Migration:  m.Name,
		Reversible: m.Reversible(),
		Created:    objects(CreatedObjects(up.Stmts)),
	}

	result := &AnalysisResult{Migration: m.Name, MaxSeverity: Safe}

	for _, side := range []struct {
		dir    migration.Direction
		parsed *parser.ParseResult
	}{{migration.Up, up}, {migration.Down, down}} {
		for i, stmt := range side.parsed.Stmts {
			rc := base
			rc.Direction = side.dir
			rc.StmtIndex = i
			rc.SQL = side.parsed.SQL

			for _, rule := range a.registry.Rules() {
				fs := rule.Check(stmt, &rc)
				for j := range fs {
					fs[j].Direction = side.dir

					if fs[j].Statement == "" {
						fs[j].Statement = TruncateSQL(ExtractStmtSQL(side.parsed.Stmts, i, side.parsed.SQL), statementDisplayLen)
					}
				}

				result.add(fs...)
			}
		}
	}

	for _, rule := range a.registry.MigrationRules() {
		rc := base
		result.add(rule.CheckMigration(up, down, &rc)...)
	}

	return result, nil
}

// AnalyzeAll analyzes multiple migrations and returns results for each.
func (a *Analyzer) AnalyzeAll(ctx context.Context, ms []migration.Migration) ([]AnalysisResult, error) {
	results := make([]AnalysisResult, 0, len(ms))

	for _, m := range ms {
		r, err := a.Analyze(ctx, m)
		if err != nil {
			return nil, err
		}

		results = append(results, *r)
	}

	return results, nil
}

func (r *AnalysisResult) add(fs ...Finding) {
	for _, f := range fs {
		if f.Severity > r.MaxSeverity {
			r.MaxSeverity = f.Severity
		}
	}

	r.Findings = append(r.Findings, fs...)
}

// parseDirection renders one direction of m and parses the result. An
// irreversible migration yields an empty down.
func (a *Analyzer) parseDirection(ctx context.Context, m migration.Migration, d migration.Direction) (*parser.ParseResult, error) {
	stmts, err := migration.Render(ctx, m, d, schema.Postgres)
	if err != nil {
		return nil, err //nolint:wrapcheck // Render names the migration
	}

	parsed, err := a.parseFn(stmts)
	if err != nil {
		return nil, fmt.Errorf("parsing migration %s (%s): %w", m.Name, d, err)
	}

	return parsed, nil
}
