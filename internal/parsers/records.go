package parsers

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"rule-reconciliation-service/internal/models"
	"rule-reconciliation-service/pkg/errors"
	"rule-reconciliation-service/pkg/logger"
)

// RecordParser parses transaction record CSV files into the shape rules are
// evaluated against.
type RecordParser struct {
	*BaseParser
	config *RecordParserConfig
	logger logger.Logger
}

// NewRecordParser creates a RecordParser with the given configuration.
func NewRecordParser(config *RecordParserConfig) (*RecordParser, error) {
	if config == nil {
		config = DefaultRecordParserConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "record_parser_config", config, err)
	}

	// resolve alias targets against the configured column names so an
	// aliased header is indexed under the name the row parser asks for
	aliases := make(map[string]string, len(config.ColumnAliases))
	for alias, standard := range config.ColumnAliases {
		aliases[strings.ToLower(alias)] = config.GetColumnName(standard)
	}

	return &RecordParser{
		BaseParser: NewBaseParser(&ParseConfig{
			HasHeader:     config.HasHeader,
			Delimiter:     config.Delimiter,
			SkipEmptyRows: true,
			ColumnAliases: aliases,
		}),
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("record_parser"),
	}, nil
}

// ParseRecords parses a CSV file of transaction records.
func (rp *RecordParser) ParseRecords(filePath string) ([]models.TransactionRecord, *ParseStats, error) {
	return rp.ParseRecordsWithContext(context.Background(), filePath)
}

// ParseRecordsWithContext parses records with cancellation support. Rows
// that fail to parse are reported in the stats and skipped; the file as a
// whole only fails on unreadable structure.
func (rp *RecordParser) ParseRecordsWithContext(ctx context.Context, filePath string) ([]models.TransactionRecord, *ParseStats, error) {
	rp.logger.WithField("file_path", filePath).Info("Parsing transaction records")

	file, reader, err := rp.OpenFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	parseCtx := NewParseContext(ctx)
	stats := NewParseStats()

	required := []string{
		rp.config.GetColumnName("id"),
		rp.config.GetColumnName("description"),
	}
	if err := rp.ReadHeaders(reader, parseCtx, required); err != nil {
		return nil, stats, err
	}

	var records []models.TransactionRecord
	for {
		if parseCtx.IsCancelled() {
			return records, stats, errors.InternalError("record parsing", fmt.Errorf("cancelled"))
		}

		row, err := rp.ReadRecord(reader, parseCtx)
		if err != nil {
			if err == io.EOF {
				break
			}
			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Message: "unreadable row",
				Err:     err,
			})
			continue
		}
		stats.RecordsParsed++

		record, parseErr := rp.parseRecordFromRow(row, parseCtx)
		if parseErr != nil {
			stats.AddError(parseErr)
			continue
		}
		records = append(records, record)
		stats.RecordsValid++
	}
	stats.TotalLines = parseCtx.LineNumber

	rp.logger.WithFields(logger.Fields{
		"file_path":     filePath,
		"records_valid": stats.RecordsValid,
		"error_count":   stats.ErrorCount,
	}).Info("Record parsing completed")

	return records, stats, nil
}

func (rp *RecordParser) parseRecordFromRow(row []string, parseCtx *ParseContext) (models.TransactionRecord, *ParseError) {
	record := models.TransactionRecord{
		ID:           rp.GetFieldValue(row, parseCtx, rp.config.GetColumnName("id")),
		Description:  rp.GetFieldValue(row, parseCtx, rp.config.GetColumnName("description")),
		Counterparty: rp.GetFieldValue(row, parseCtx, rp.config.GetColumnName("counterparty")),
		Location:     rp.GetFieldValue(row, parseCtx, rp.config.GetColumnName("location")),
		User:         rp.GetFieldValue(row, parseCtx, rp.config.GetColumnName("user")),
		Account:      rp.GetFieldValue(row, parseCtx, rp.config.GetColumnName("account")),
	}

	if err := record.Validate(); err != nil {
		return record, &ParseError{
			Line:    parseCtx.LineNumber,
			Field:   rp.config.GetColumnName("id"),
			Message: "invalid record",
			Err:     err,
		}
	}

	if raw := rp.GetFieldValue(row, parseCtx, rp.config.GetColumnName("tags")); raw != "" {
		for _, tag := range strings.Split(raw, rp.config.TagSeparator) {
			if trimmed := strings.TrimSpace(tag); trimmed != "" {
				record.Tags = append(record.Tags, trimmed)
			}
		}
	}

	if raw := rp.GetFieldValue(row, parseCtx, rp.config.GetColumnName("amount")); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return record, &ParseError{
				Line:    parseCtx.LineNumber,
				Field:   rp.config.GetColumnName("amount"),
				Message: fmt.Sprintf("invalid amount %q", raw),
				Err:     err,
			}
		}
		record.Amount = amount
	}

	if raw := rp.GetFieldValue(row, parseCtx, rp.config.GetColumnName("booked_at")); raw != "" {
		bookedAt, err := rp.parseTime(raw)
		if err != nil {
			return record, &ParseError{
				Line:    parseCtx.LineNumber,
				Field:   rp.config.GetColumnName("booked_at"),
				Message: fmt.Sprintf("invalid date %q", raw),
				Err:     err,
			}
		}
		record.BookedAt = bookedAt
	}

	return record, nil
}

func (rp *RecordParser) parseTime(value string) (time.Time, error) {
	for _, format := range rp.config.DateFormats {
		if t, err := time.Parse(format, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("no configured date format matches %q", value)
}
