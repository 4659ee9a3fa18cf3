package config

import (
	"fmt"
	"os"

	"rule-reconciliation-service/internal/parsers"
	"rule-reconciliation-service/internal/reporter"
)

// DefaultDatabasePath is used when neither the flag nor the environment
// specify where the rule database lives.
const DefaultDatabasePath = "ruleengine.db"

// ResolveDatabasePath picks the database location: explicit flag value
// first, then the RULEENGINE_DB environment variable, then the default.
func ResolveDatabasePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("RULEENGINE_DB"); env != "" {
		return env
	}
	return DefaultDatabasePath
}

// CreateRecordParserConfig creates a record parser configuration with
// aliases for column names commonly seen in exported batches.
func CreateRecordParserConfig() (*parsers.RecordParserConfig, error) {
	config := parsers.DefaultRecordParserConfig()
	config.ColumnAliases = map[string]string{
		// Common aliases for record columns
		"tx_id":     "id",
		"txn_id":    "id",
		"record_id": "id",
		"memo":      "description",
		"narrative": "description",
		"details":   "description",
		"merchant":  "counterparty",
		"payee":     "counterparty",
		"place":     "location",
		"city":      "location",
		"member":    "user",
		"labels":    "tags",
		"amt":       "amount",
		"value":     "amount",
		"date":      "bookedAt",
		"booked":    "bookedAt",
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid record parser config: %w", err)
	}
	return config, nil
}

// CreateReportConfig creates a report configuration for the specified
// output format.
func CreateReportConfig(format string, showWarnings bool) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()
	config.ShowWarnings = showWarnings

	switch format {
	case "json":
		config.Format = reporter.FormatJSON
	case "csv":
		config.Format = reporter.FormatCSV
		config.CSVDelimiter = ','
	default:
		config.Format = reporter.FormatConsole
	}

	return config
}
