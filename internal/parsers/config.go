package parsers

import (
	"fmt"
	"strings"
)

// RecordParserConfig holds configuration for parsing transaction record CSV
// files. Column names cover the attributes rule conditions can inspect;
// only the id column is mandatory in the data. ColumnAliases maps header
// names as they appear in the file to the standard attribute names
// ("memo" -> "description"), so one attribute can accept several spellings.
type RecordParserConfig struct {
	IDColumn           string            `json:"id_column"`
	DescriptionColumn  string            `json:"description_column"`
	CounterpartyColumn string            `json:"counterparty_column"`
	LocationColumn     string            `json:"location_column"`
	UserColumn         string            `json:"user_column"`
	AccountColumn      string            `json:"account_column"`
	TagsColumn         string            `json:"tags_column"`
	AmountColumn       string            `json:"amount_column"`
	BookedAtColumn     string            `json:"booked_at_column"`
	TagSeparator       string            `json:"tag_separator"`
	DateFormats        []string          `json:"date_formats,omitempty"`
	HasHeader          bool              `json:"has_header"`
	Delimiter          rune              `json:"delimiter"`
	ColumnAliases      map[string]string `json:"column_aliases,omitempty"`
}

// DefaultRecordParserConfig returns a configuration with standard defaults.
func DefaultRecordParserConfig() *RecordParserConfig {
	return &RecordParserConfig{
		IDColumn:           "id",
		DescriptionColumn:  "description",
		CounterpartyColumn: "counterparty",
		LocationColumn:     "location",
		UserColumn:         "user",
		AccountColumn:      "account",
		TagsColumn:         "tags",
		AmountColumn:       "amount",
		BookedAtColumn:     "bookedAt",
		TagSeparator:       ";",
		DateFormats: []string{
			"2006-01-02T15:04:05Z07:00",
			"2006-01-02 15:04:05",
			"2006-01-02",
			"01/02/2006",
		},
		HasHeader:     true,
		Delimiter:     ',',
		ColumnAliases: make(map[string]string),
	}
}

// Validate checks if the record parser configuration is valid.
func (c *RecordParserConfig) Validate() error {
	if strings.TrimSpace(c.IDColumn) == "" {
		return fmt.Errorf("id column cannot be empty")
	}
	if strings.TrimSpace(c.DescriptionColumn) == "" {
		return fmt.Errorf("description column cannot be empty")
	}
	if c.TagSeparator == "" {
		return fmt.Errorf("tag separator cannot be empty")
	}
	if len(c.DateFormats) == 0 {
		return fmt.Errorf("at least one date format is required")
	}
	return nil
}

// GetColumnName returns the configured column name for a standard
// attribute name.
func (c *RecordParserConfig) GetColumnName(standardName string) string {
	switch standardName {
	case "id":
		return c.IDColumn
	case "description":
		return c.DescriptionColumn
	case "counterparty":
		return c.CounterpartyColumn
	case "location":
		return c.LocationColumn
	case "user":
		return c.UserColumn
	case "account":
		return c.AccountColumn
	case "tags":
		return c.TagsColumn
	case "amount":
		return c.AmountColumn
	case "booked_at":
		return c.BookedAtColumn
	default:
		return standardName
	}
}
