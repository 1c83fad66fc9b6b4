package repositories

import (
	"context"

	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
)

// AnalysisRepository is the append-only store of past symptom analyses.
type AnalysisRepository interface {
	// Append stores a finished analysis
	Append(ctx context.Context, record *entities.AnalysisRecord) error

	// ListByUser returns the most recent analyses for a user, newest first
	ListByUser(ctx context.Context, userID string, limit int) ([]*entities.AnalysisRecord, error)
}
