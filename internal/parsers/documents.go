package parsers

import (
	"encoding/json"
	"os"

	"rule-reconciliation-service/internal/models"
	"rule-reconciliation-service/pkg/errors"
)

// ReferenceData is the JSON seed-file shape holding the reference
// collections an import reconciles against.
type ReferenceData struct {
	Categories     []models.Entity             `json:"categories,omitempty"`
	Counterparties []models.Entity             `json:"counterparties,omitempty"`
	Locations      []models.Entity             `json:"locations,omitempty"`
	Types          []models.TransactionTypeDef `json:"types,omitempty"`
}

// Entities returns the collection for the given kind.
func (d *ReferenceData) Entities(kind models.EntityKind) []models.Entity {
	switch kind {
	case models.KindCategory:
		return d.Categories
	case models.KindCounterparty:
		return d.Counterparties
	case models.KindLocation:
		return d.Locations
	}
	return nil
}

// LoadRules reads a JSON rule document: either a bare array of rules or an
// object with a "rules" field.
func LoadRules(filePath string) ([]models.Rule, error) {
	data, err := readDocument(filePath)
	if err != nil {
		return nil, err
	}

	var rules []models.Rule
	if err := json.Unmarshal(data, &rules); err == nil {
		return rules, nil
	}

	var doc struct {
		Rules []models.Rule `json:"rules"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, filePath, 0, "not a rule document", err)
	}
	return doc.Rules, nil
}

// LoadDrafts reads a JSON draft document: either a bare array of drafts or
// an object with a "drafts" field, matching the suggestion service's output.
func LoadDrafts(filePath string) ([]models.RuleImportDraft, error) {
	data, err := readDocument(filePath)
	if err != nil {
		return nil, err
	}

	var drafts []models.RuleImportDraft
	if err := json.Unmarshal(data, &drafts); err == nil {
		return drafts, nil
	}

	var doc struct {
		Drafts []models.RuleImportDraft `json:"drafts"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, filePath, 0, "not a draft document", err)
	}
	return doc.Drafts, nil
}

// LoadReferenceData reads a JSON reference-data seed file.
func LoadReferenceData(filePath string) (*ReferenceData, error) {
	data, err := readDocument(filePath)
	if err != nil {
		return nil, err
	}

	var doc ReferenceData
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, filePath, 0, "not a reference-data document", err)
	}
	return &doc, nil
}

func readDocument(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, filePath, err)
		}
		return nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
	}
	return data, nil
}
