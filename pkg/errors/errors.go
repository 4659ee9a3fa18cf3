// Package errors defines the categorized error type shared across the rule
// engine. Every failure mode of the import reconciliation pipeline maps to a
// category and code, so the CLI can pick exit codes and the reconciliation
// result can carry a complete audit trail of rejections and fallbacks.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryRule          ErrorCategory = "rule"
	CategoryValidation    ErrorCategory = "validation"
	CategoryResolution    ErrorCategory = "resolution"
	CategoryCommit        ErrorCategory = "commit"
	CategoryFile          ErrorCategory = "file"
	CategoryParse         ErrorCategory = "parse"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Rule configuration errors: the rule is malformed and must stay visible
	// to its author instead of silently never matching.
	CodeUnknownField    ErrorCode = "unknown_field"
	CodeUnknownOperator ErrorCode = "unknown_operator"
	CodeEmptyConditions ErrorCode = "empty_conditions"

	// Draft validation errors
	CodeEmptyDraftName ErrorCode = "empty_draft_name"
	CodeInvalidDraft   ErrorCode = "invalid_draft"

	// Entity resolution errors
	CodeMappingInconsistency ErrorCode = "mapping_inconsistency"
	CodeUnknownEntityKind    ErrorCode = "unknown_entity_kind"
	CodeUnknownTypeName      ErrorCode = "unknown_type_name"

	// Commit errors
	CodeEntityCreateFailed ErrorCode = "entity_create_failed"
	CodeRuleUpsertFailed   ErrorCode = "rule_upsert_failed"

	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"

	// Parse errors
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeMissingColumn ErrorCode = "missing_column"
	CodeInvalidData   ErrorCode = "invalid_data"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// EngineError is the base error type for all application errors
type EngineError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// IsWarning reports whether the error is recoverable and should be surfaced
// in the audit trail instead of aborting the batch. Mapping inconsistencies
// and unresolvable type suggestions are the two recovered cases.
func (e *EngineError) IsWarning() bool {
	return e.Code == CodeMappingInconsistency || e.Code == CodeUnknownTypeName
}

// GetExitCode returns an appropriate exit code for the error
func (e *EngineError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration, CategoryRule:
		return 4
	case CategoryResolution, CategoryInternal:
		return 5
	case CategoryCommit:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *EngineError) WithContext(key string, value interface{}) *EngineError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *EngineError) WithSuggestion(suggestion string) *EngineError {
	e.Suggestion = suggestion
	return e
}

// New creates a new EngineError
func New(category ErrorCategory, code ErrorCode, message string) *EngineError {
	return &EngineError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with EngineError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *EngineError {
	if err == nil {
		return nil
	}

	return &EngineError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// InvalidRuleError creates a rule-configuration error for a malformed rule.
// Rules carrying such a defect are excluded from matching until fixed.
func InvalidRuleError(code ErrorCode, ruleID string, detail string) *EngineError {
	var message string
	var suggestion string

	switch code {
	case CodeUnknownField:
		message = fmt.Sprintf("rule %s references unknown field '%s'", ruleID, detail)
		suggestion = "use one of: description, counterparty, location, user, tags, account"
	case CodeUnknownOperator:
		message = fmt.Sprintf("rule %s uses unknown operator '%s'", ruleID, detail)
		suggestion = "check the operator catalogue supported by this engine version"
	case CodeEmptyConditions:
		message = fmt.Sprintf("rule %s has no conditions", ruleID)
		suggestion = "add at least one condition; an empty rule never matches"
	default:
		message = fmt.Sprintf("rule %s is invalid: %s", ruleID, detail)
		suggestion = "review the rule definition"
	}

	return New(CategoryRule, code, message).
		WithSuggestion(suggestion).
		WithContext("rule_id", ruleID)
}

// DraftValidationError creates a validation error for a rejected import draft.
// The draft is excluded from the batch; the batch itself continues.
func DraftValidationError(code ErrorCode, draftID string, detail string) *EngineError {
	var message string
	var suggestion string

	switch code {
	case CodeEmptyDraftName:
		message = fmt.Sprintf("draft %s has an empty name", draftID)
		suggestion = "give the draft a non-empty name before importing"
	default:
		message = fmt.Sprintf("draft %s is invalid: %s", draftID, detail)
		suggestion = "correct the draft in the staging view and retry"
	}

	return New(CategoryValidation, code, message).
		WithSuggestion(suggestion).
		WithContext("draft_id", draftID)
}

// MappingInconsistencyError creates the recoverable resolution warning raised
// when a "match" hint no longer resolves against the registry. The resolver
// falls back to create semantics; the reference is never silently dropped.
func MappingInconsistencyError(kind string, name string) *EngineError {
	message := fmt.Sprintf("%s '%s' was hinted as an existing match but no longer resolves", kind, name)

	return New(CategoryResolution, CodeMappingInconsistency, message).
		WithSuggestion("the entity was recreated; review it after the import commits").
		WithContext("entity_kind", kind).
		WithContext("suggested_name", name)
}

// UnknownTypeNameError creates the recoverable warning for a suggested
// transaction-type name that matches no existing type. Types are never
// auto-created, so the assignment is left unset.
func UnknownTypeNameError(draftID string, name string) *EngineError {
	message := fmt.Sprintf("draft %s suggests unknown transaction type '%s'", draftID, name)

	return New(CategoryResolution, CodeUnknownTypeName, message).
		WithSuggestion("create the transaction type manually if the assignment is wanted").
		WithContext("draft_id", draftID).
		WithContext("type_name", name)
}

// CommitError creates a persistence error. A failed entity creation withholds
// every rule upsert of the batch, so rules never point at entities that were
// not persisted.
func CommitError(code ErrorCode, operation string, err error) *EngineError {
	var message string
	var suggestion string

	switch code {
	case CodeEntityCreateFailed:
		message = fmt.Sprintf("entity creation failed during %s; no rules were committed", operation)
		suggestion = "fix the storage problem and re-run the import; the batch was withheld"
	case CodeRuleUpsertFailed:
		message = fmt.Sprintf("rule upsert failed during %s", operation)
		suggestion = "entities were already committed; re-running the import is safe"
	default:
		message = fmt.Sprintf("commit failed during %s", operation)
		suggestion = "check the storage backend and retry"
	}

	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryCommit, code, message)
	} else {
		result = New(CategoryCommit, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *EngineError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError creates a parsing-related error
func ParseError(code ErrorCode, file string, line int, detail string, err error) *EngineError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidFormat:
		message = fmt.Sprintf("invalid format in file %s: %s", file, detail)
		suggestion = "check the document structure against the expected schema"
	case CodeMissingColumn:
		message = fmt.Sprintf("missing required column '%s' in file %s", detail, file)
		suggestion = "verify the file has all required columns with correct headers"
	case CodeInvalidData:
		message = fmt.Sprintf("invalid data in file %s at line %d: %s", file, line, detail)
		suggestion = "correct the data or remove the invalid entry"
	default:
		message = fmt.Sprintf("parse error in file %s at line %d", file, line)
		suggestion = "check the file format and data integrity"
	}

	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file", file).
		WithContext("line", line)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *EngineError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError creates an internal error
func InternalError(operation string, err error) *EngineError {
	message := fmt.Sprintf("unexpected error during %s", operation)

	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryInternal, CodeUnexpectedError, message)
	} else {
		result = New(CategoryInternal, CodeUnexpectedError, message)
	}

	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total        int                   `json:"total"`
	ByCategory   map[ErrorCategory]int `json:"by_category"`
	ByCode       map[ErrorCode]int     `json:"by_code"`
	Errors       []*EngineError        `json:"errors"`
	SampleErrors []*EngineError        `json:"sample_errors,omitempty"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errs []*EngineError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errs),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errs,
	}
	if len(errs) == 0 {
		summary.Errors = []*EngineError{}
		return summary
	}

	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	// Include sample errors (max 5)
	maxSamples := 5
	if len(errs) > maxSamples {
		summary.SampleErrors = errs[:maxSamples]
	} else {
		summary.SampleErrors = errs
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// HasCategory checks if the summary contains errors of the given category
func (es *ErrorSummary) HasCategory(category ErrorCategory) bool {
	count, exists := es.ByCategory[category]
	return exists && count > 0
}

// HasCode checks if the summary contains errors with the given code
func (es *ErrorSummary) HasCode(code ErrorCode) bool {
	count, exists := es.ByCode[code]
	return exists && count > 0
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}

// Utility functions

// IsEngineError checks if an error is an EngineError
func IsEngineError(err error) bool {
	_, ok := err.(*EngineError)
	return ok
}

// AsEngineError extracts an EngineError from an error chain
func AsEngineError(err error) (*EngineError, bool) {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already an EngineError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *EngineError {
	if err == nil {
		return nil
	}

	if engineErr, ok := AsEngineError(err); ok {
		return engineErr
	}

	return Wrap(err, category, code, message)
}
