package cmd

import (
	"context"
	"fmt"
	"os"

	"rule-reconciliation-service/cmd/ruleengine/config"
	"rule-reconciliation-service/internal/parsers"
	"rule-reconciliation-service/internal/reconciler"
	"rule-reconciliation-service/internal/reporter"
	"rule-reconciliation-service/internal/storage"
	"rule-reconciliation-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the categorize command
var (
	categorizeRecordsFile  string
	categorizeDBPath       string
	categorizeOutputFormat string
	categorizeOutputFile   string
)

// categorizeCmd represents the categorize command
var categorizeCmd = &cobra.Command{
	Use:   "categorize",
	Short: "Run a categorization sweep over a batch of transaction records",
	Long: `Categorize evaluates every stored rule against each record in a CSV
batch and reports, per record, the winning rule or that nothing applied.
A winning skip rule is reported as suppressed.

Rules with configuration defects (unknown fields or operators) are excluded
from selection and listed once each at the end of the report.

Examples:
  ruleengine categorize --records transactions.csv --db rules.db
  ruleengine categorize --records transactions.csv --output-format csv -o sweep.csv`,

	PreRunE: validateCategorizeFlags,
	RunE:    runCategorize,
}

func init() {
	rootCmd.AddCommand(categorizeCmd)

	categorizeCmd.Flags().StringVarP(&categorizeRecordsFile, "records", "r", "", "path to transaction record CSV file (required)")
	categorizeCmd.Flags().StringVar(&categorizeDBPath, "db", "", "path to the rule database (default: ruleengine.db)")
	categorizeCmd.Flags().StringVarP(&categorizeOutputFormat, "output-format", "f", "console", "output format: console, json, csv")
	categorizeCmd.Flags().StringVarP(&categorizeOutputFile, "output-file", "o", "", "output file path (default: stdout)")

	categorizeCmd.MarkFlagRequired("records")

	viper.BindPFlag("categorize.records", categorizeCmd.Flags().Lookup("records"))
	viper.BindPFlag("categorize.db", categorizeCmd.Flags().Lookup("db"))
	viper.BindPFlag("categorize.output-format", categorizeCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("categorize.output-file", categorizeCmd.Flags().Lookup("output-file"))
}

func validateCategorizeFlags(cmd *cobra.Command, args []string) error {
	if err := validateFileExists(categorizeRecordsFile, "record file"); err != nil {
		return err
	}
	if err := validateOutputFormat(categorizeOutputFormat); err != nil {
		return err
	}
	return validateOutputFile(categorizeOutputFile)
}

func runCategorize(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	log := logger.GetGlobalLogger()

	parserConfig, err := config.CreateRecordParserConfig()
	if err != nil {
		return err
	}
	parser, err := parsers.NewRecordParser(parserConfig)
	if err != nil {
		return fmt.Errorf("failed to create record parser: %w", err)
	}

	records, stats, err := parser.ParseRecordsWithContext(ctx, categorizeRecordsFile)
	if err != nil {
		return err
	}
	if stats.HasErrors() && viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Skipped %d malformed rows:\n", stats.ErrorCount)
		for _, rowErr := range stats.Errors {
			fmt.Fprintf(os.Stderr, "  - %v\n", rowErr)
		}
	}

	dbPath := config.ResolveDatabasePath(categorizeDBPath)
	store, err := storage.Open(dbPath, log)
	if err != nil {
		return err
	}
	defer store.Close()

	service := reconciler.NewService(store, log)
	result, err := service.CategorizeRecords(ctx, records)
	if err != nil {
		return err
	}

	return renderSweep(result, categorizeOutputFormat, categorizeOutputFile)
}

func renderSweep(result *reconciler.SweepResult, format, outputFile string) error {
	generator, err := reporter.NewReportGenerator(config.CreateReportConfig(format, true))
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	output, closeFn, err := openOutput(outputFile)
	if err != nil {
		return err
	}
	defer closeFn()

	return generator.RenderSweep(result, output)
}
