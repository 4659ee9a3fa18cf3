// Package suggest defines the boundary to the external rule-suggestion
// service. The engine treats the producer as opaque: it consumes draft
// batches and validates only their shape, never the reasoning behind them.
package suggest

import (
	"context"

	"rule-reconciliation-service/internal/models"
	"rule-reconciliation-service/internal/parsers"
	"rule-reconciliation-service/pkg/logger"
)

// Proposer produces rule drafts from a sample of raw records and the
// existing category registry.
type Proposer interface {
	ProposeRules(ctx context.Context, sample []models.TransactionRecord, categories *models.Registry) ([]models.RuleImportDraft, error)
}

// FileProposer serves a pre-computed draft batch from a JSON file. It is
// the offline stand-in for the hosted suggestion service: the CLI consumes
// exported draft documents instead of calling the service directly.
type FileProposer struct {
	path   string
	logger logger.Logger
}

// NewFileProposer creates a proposer backed by a draft document on disk.
func NewFileProposer(path string, log logger.Logger) *FileProposer {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &FileProposer{
		path:   path,
		logger: log.WithComponent("suggest"),
	}
}

// ProposeRules loads the draft batch. The sample and registry are ignored;
// the file already embodies the service's answer for this batch.
func (p *FileProposer) ProposeRules(ctx context.Context, _ []models.TransactionRecord, _ *models.Registry) ([]models.RuleImportDraft, error) {
	drafts, err := parsers.LoadDrafts(p.path)
	if err != nil {
		return nil, err
	}
	p.logger.WithFields(logger.Fields{
		"path":   p.path,
		"drafts": len(drafts),
	}).Debug("Loaded draft batch")
	return drafts, nil
}
