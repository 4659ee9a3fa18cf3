package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecord is the record shape rules are evaluated against at
// ingestion time. The reference fields hold opaque reference values (ids or
// external references, depending on the import source); the engine compares
// them as strings and attaches no meaning beyond that.
type TransactionRecord struct {
	ID           string          `json:"id" csv:"id"`
	Description  string          `json:"description" csv:"description"`
	Counterparty string          `json:"counterparty,omitempty" csv:"counterparty"`
	Location     string          `json:"location,omitempty" csv:"location"`
	User         string          `json:"user,omitempty" csv:"user"`
	Account      string          `json:"account,omitempty" csv:"account"`
	Tags         []string        `json:"tags,omitempty" csv:"tags"`
	Amount       decimal.Decimal `json:"amount" csv:"amount"`
	BookedAt     time.Time       `json:"bookedAt,omitempty" csv:"bookedAt"`
}

// Validate performs basic validation on the TransactionRecord.
func (t *TransactionRecord) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("record id cannot be empty")
	}
	return nil
}

// FieldValues resolves a condition field to the record's candidate values.
// Most fields yield exactly one value; the tag set yields one value per tag,
// and a condition matches if any tag satisfies it. The second return is false
// for an unknown field so the caller can surface a configuration error
// instead of silently not matching.
func (t *TransactionRecord) FieldValues(field ConditionField) ([]string, bool) {
	switch field {
	case FieldDescription:
		return []string{t.Description}, true
	case FieldCounterparty:
		return []string{t.Counterparty}, true
	case FieldLocation:
		return []string{t.Location}, true
	case FieldUser:
		return []string{t.User}, true
	case FieldAccount:
		return []string{t.Account}, true
	case FieldTags:
		if len(t.Tags) == 0 {
			return []string{""}, true
		}
		return t.Tags, true
	default:
		return nil, false
	}
}

// String returns a string representation of the TransactionRecord.
func (t *TransactionRecord) String() string {
	return fmt.Sprintf("Record{ID: %s, Description: %q, Amount: %s}",
		t.ID, t.Description, t.Amount.String())
}
