package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"rule-reconciliation-service/cmd/ruleengine/config"
	"rule-reconciliation-service/internal/reconciler"
	"rule-reconciliation-service/internal/reporter"
	"rule-reconciliation-service/internal/storage"
	"rule-reconciliation-service/internal/suggest"
	"rule-reconciliation-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the import command
var (
	importDraftsFile   string
	importDBPath       string
	importDryRun       bool
	importOutputFormat string
	importOutputFile   string
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Reconcile a batch of rule drafts against the stored rule set",
	Long: `Import reads a draft batch exported by the suggestion service,
classifies each draft against the stored rules (new, merge, or collision),
resolves the entities the drafts reference, and commits the resulting plan.

Entity creations are committed before any rule write, so a failed run never
leaves a rule pointing at an entity that was not created. Re-running a
partially failed import is safe.

Examples:
  # Preview the plan without writing anything
  ruleengine import --drafts drafts.json --db rules.db --dry-run

  # Commit the batch and emit the plan as JSON
  ruleengine import --drafts drafts.json --db rules.db --output-format json`,

	PreRunE: validateImportFlags,
	RunE:    runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importDraftsFile, "drafts", "i", "", "path to draft batch JSON file (required)")
	importCmd.Flags().StringVar(&importDBPath, "db", "", "path to the rule database (default: ruleengine.db)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "build the plan without committing it")
	importCmd.Flags().StringVarP(&importOutputFormat, "output-format", "f", "console", "output format: console, json, csv")
	importCmd.Flags().StringVarP(&importOutputFile, "output-file", "o", "", "output file path (default: stdout)")

	importCmd.MarkFlagRequired("drafts")

	viper.BindPFlag("import.drafts", importCmd.Flags().Lookup("drafts"))
	viper.BindPFlag("import.db", importCmd.Flags().Lookup("db"))
	viper.BindPFlag("import.dry-run", importCmd.Flags().Lookup("dry-run"))
	viper.BindPFlag("import.output-format", importCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("import.output-file", importCmd.Flags().Lookup("output-file"))
}

func validateImportFlags(cmd *cobra.Command, args []string) error {
	if err := validateFileExists(importDraftsFile, "draft batch file"); err != nil {
		return err
	}
	if err := validateOutputFormat(importOutputFormat); err != nil {
		return err
	}
	return validateOutputFile(importOutputFile)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	log := logger.GetGlobalLogger()

	dbPath := config.ResolveDatabasePath(importDBPath)
	store, err := storage.Open(dbPath, log)
	if err != nil {
		return err
	}
	defer store.Close()

	proposer := suggest.NewFileProposer(importDraftsFile, log)
	drafts, err := proposer.ProposeRules(ctx, nil, nil)
	if err != nil {
		return err
	}

	service := reconciler.NewService(store, log)
	plan, importErr := service.ImportDrafts(ctx, drafts, importDryRun)

	// The plan is rendered even when the commit failed, so the operator can
	// see how far the batch got before deciding to re-run.
	if plan != nil {
		if renderErr := renderPlan(plan, importOutputFormat, importOutputFile); renderErr != nil {
			return renderErr
		}
	}
	if importErr != nil {
		return importErr
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nImport completed: %d rules written, %d entities created.\n",
			len(plan.RulesToUpsert), plan.EntityCount())
		if importDryRun {
			fmt.Fprintf(os.Stderr, "Dry run: nothing was committed.\n")
		}
	}

	return nil
}

func renderPlan(plan *reconciler.Plan, format, outputFile string) error {
	generator, err := reporter.NewReportGenerator(config.CreateReportConfig(format, true))
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	output, closeFn, err := openOutput(outputFile)
	if err != nil {
		return err
	}
	defer closeFn()

	return generator.RenderPlan(plan, output)
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func validateOutputFormat(format string) error {
	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[format] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", format)
	}
	return nil
}

func validateOutputFile(outputFile string) error {
	if outputFile == "" {
		return nil
	}
	dir := filepath.Dir(outputFile)
	if dir != "." {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("output directory does not exist: %s", dir)
		}
	}
	return nil
}

func openOutput(outputFile string) (*os.File, func(), error) {
	if outputFile == "" {
		return os.Stdout, func() {}, nil
	}
	output, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return output, func() { output.Close() }, nil
}
