// Package reporter renders reconciliation plans and categorization sweeps
// for terminal display, JSON consumers and spreadsheets.
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"rule-reconciliation-service/internal/engine"
	"rule-reconciliation-service/internal/models"
	"rule-reconciliation-service/internal/reconciler"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation.
type ReportConfig struct {
	Format       OutputFormat `json:"format"`
	CSVDelimiter rune         `json:"csv_delimiter"`
	ShowWarnings bool         `json:"show_warnings"`
}

// DefaultReportConfig returns a default report configuration.
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:       FormatConsole,
		CSVDelimiter: ',',
		ShowWarnings: true,
	}
}

// Validate validates the report configuration.
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// ReportGenerator renders plans and sweep results in the configured format.
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a report generator.
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &ReportGenerator{config: config}, nil
}

// planReport is the JSON shape of a rendered plan.
type planReport struct {
	Outcomes []planOutcome  `json:"outcomes"`
	Entities []planEntity   `json:"entitiesToCreate"`
	Rejected []string       `json:"rejected,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
	Summary  map[string]int `json:"summary"`
}

type planOutcome struct {
	DraftID   string `json:"draftId"`
	DraftName string `json:"draftName"`
	Outcome   string `json:"outcome"`
	RuleID    string `json:"ruleId"`
}

type planEntity struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RenderPlan writes a reconciliation plan report to the writer.
func (rg *ReportGenerator) RenderPlan(plan *reconciler.Plan, writer io.Writer) error {
	if plan == nil {
		return fmt.Errorf("plan cannot be nil")
	}

	switch rg.config.Format {
	case FormatJSON:
		return rg.renderPlanJSON(plan, writer)
	case FormatCSV:
		return rg.renderPlanCSV(plan, writer)
	default:
		return rg.renderPlanConsole(plan, writer)
	}
}

func buildPlanReport(plan *reconciler.Plan) planReport {
	report := planReport{
		Outcomes: make([]planOutcome, 0, len(plan.Outcomes)),
		Entities: make([]planEntity, 0, plan.EntityCount()),
		Summary: map[string]int{
			"new":       plan.CountByOutcome(reconciler.OutcomeNew),
			"merge":     plan.CountByOutcome(reconciler.OutcomeMerge),
			"collision": plan.CountByOutcome(reconciler.OutcomeCollision),
			"rejected":  len(plan.Rejected),
			"entities":  plan.EntityCount(),
		},
	}
	for _, o := range plan.Outcomes {
		report.Outcomes = append(report.Outcomes, planOutcome{
			DraftID:   o.DraftID,
			DraftName: o.DraftName,
			Outcome:   o.Outcome.String(),
			RuleID:    o.RuleID,
		})
	}
	for _, kind := range models.AllEntityKinds() {
		for _, e := range plan.EntitiesToCreate[kind] {
			report.Entities = append(report.Entities, planEntity{
				Kind: kind.String(),
				ID:   e.ID,
				Name: e.Name,
			})
		}
	}
	for _, r := range plan.Rejected {
		report.Rejected = append(report.Rejected, r.Error())
	}
	for _, w := range plan.Warnings {
		report.Warnings = append(report.Warnings, w.Error())
	}
	return report
}

func (rg *ReportGenerator) renderPlanJSON(plan *reconciler.Plan, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildPlanReport(plan))
}

func (rg *ReportGenerator) renderPlanCSV(plan *reconciler.Plan, writer io.Writer) error {
	w := csv.NewWriter(writer)
	w.Comma = rg.config.CSVDelimiter

	if err := w.Write([]string{"draft_id", "draft_name", "outcome", "rule_id"}); err != nil {
		return err
	}
	for _, o := range plan.Outcomes {
		if err := w.Write([]string{o.DraftID, o.DraftName, o.Outcome.String(), o.RuleID}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (rg *ReportGenerator) renderPlanConsole(plan *reconciler.Plan, writer io.Writer) error {
	report := buildPlanReport(plan)

	var b strings.Builder
	b.WriteString("Import Reconciliation Plan\n")
	b.WriteString("==========================\n\n")
	fmt.Fprintf(&b, "Drafts:   %d new, %d merge, %d collision, %d rejected\n",
		report.Summary["new"], report.Summary["merge"], report.Summary["collision"], report.Summary["rejected"])
	fmt.Fprintf(&b, "Entities: %d to create\n\n", report.Summary["entities"])

	if len(report.Outcomes) > 0 {
		fmt.Fprintf(&b, "%-12s %-28s %-10s %s\n", "DRAFT", "NAME", "OUTCOME", "RULE ID")
		for _, o := range report.Outcomes {
			fmt.Fprintf(&b, "%-12s %-28s %-10s %s\n", o.DraftID, truncate(o.DraftName, 28), o.Outcome, o.RuleID)
		}
		b.WriteString("\n")
	}

	if len(report.Entities) > 0 {
		b.WriteString("New entities:\n")
		for _, e := range report.Entities {
			fmt.Fprintf(&b, "  [%s] %s (%s)\n", e.Kind, e.Name, e.ID)
		}
		b.WriteString("\n")
	}

	if len(report.Rejected) > 0 {
		b.WriteString("Rejected drafts:\n")
		for _, msg := range report.Rejected {
			fmt.Fprintf(&b, "  - %s\n", msg)
		}
		b.WriteString("\n")
	}

	if rg.config.ShowWarnings && len(report.Warnings) > 0 {
		b.WriteString("Warnings:\n")
		for _, msg := range report.Warnings {
			fmt.Fprintf(&b, "  - %s\n", msg)
		}
	}

	_, err := io.WriteString(writer, b.String())
	return err
}

// RenderSweep writes a categorization sweep report to the writer.
func (rg *ReportGenerator) RenderSweep(result *reconciler.SweepResult, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("sweep result cannot be nil")
	}

	switch rg.config.Format {
	case FormatJSON:
		return rg.renderSweepJSON(result, writer)
	case FormatCSV:
		return rg.renderSweepCSV(result, writer)
	default:
		return rg.renderSweepConsole(result, writer)
	}
}

type sweepRow struct {
	RecordID string `json:"recordId"`
	Outcome  string `json:"outcome"`
	RuleID   string `json:"ruleId,omitempty"`
	RuleName string `json:"ruleName,omitempty"`
}

func (rg *ReportGenerator) renderSweepJSON(result *reconciler.SweepResult, writer io.Writer) error {
	doc := struct {
		Selections   []sweepRow `json:"selections"`
		InvalidRules []string   `json:"invalidRules,omitempty"`
	}{}
	for _, s := range result.Selections {
		doc.Selections = append(doc.Selections, sweepRow{
			RecordID: s.RecordID,
			Outcome:  s.Outcome.String(),
			RuleID:   s.RuleID,
			RuleName: s.RuleName,
		})
	}
	for _, d := range result.InvalidRules {
		doc.InvalidRules = append(doc.InvalidRules, d.Error())
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

func (rg *ReportGenerator) renderSweepCSV(result *reconciler.SweepResult, writer io.Writer) error {
	w := csv.NewWriter(writer)
	w.Comma = rg.config.CSVDelimiter

	if err := w.Write([]string{"record_id", "outcome", "rule_id", "rule_name"}); err != nil {
		return err
	}
	for _, s := range result.Selections {
		if err := w.Write([]string{s.RecordID, s.Outcome.String(), s.RuleID, s.RuleName}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (rg *ReportGenerator) renderSweepConsole(result *reconciler.SweepResult, writer io.Writer) error {
	var matched, suppressed, none int
	for _, s := range result.Selections {
		switch s.Outcome {
		case engine.SelectionMatched:
			matched++
		case engine.SelectionSuppressed:
			suppressed++
		default:
			none++
		}
	}

	var b strings.Builder
	b.WriteString("Categorization Sweep\n")
	b.WriteString("====================\n\n")
	fmt.Fprintf(&b, "Records: %d matched, %d suppressed, %d uncategorized\n\n",
		matched, suppressed, none)

	fmt.Fprintf(&b, "%-14s %-12s %-12s %s\n", "RECORD", "OUTCOME", "RULE ID", "RULE NAME")
	for _, s := range result.Selections {
		fmt.Fprintf(&b, "%-14s %-12s %-12s %s\n", s.RecordID, s.Outcome.String(), s.RuleID, s.RuleName)
	}

	if rg.config.ShowWarnings && len(result.InvalidRules) > 0 {
		b.WriteString("\nRule configuration defects:\n")
		for _, d := range result.InvalidRules {
			fmt.Fprintf(&b, "  - %s\n", d.Error())
		}
	}

	_, err := io.WriteString(writer, b.String())
	return err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
