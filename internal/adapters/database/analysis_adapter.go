package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
	"github.com/zatekoja/symptomchecker/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/symptomchecker/backend/pkg/errors"
)

const analysisHistoryTable = "analysis_history"

const analysisHistorySchema = `
CREATE TABLE IF NOT EXISTS analysis_history (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	symptoms    TEXT NOT NULL,
	predictions JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analysis_history_user_created
	ON analysis_history (user_id, created_at DESC);
`

// AnalysisAdapter implements the AnalysisRepository interface in Postgres.
type AnalysisAdapter struct {
	conn    *sql.DB
	db      *goqu.Database
	metrics *observability.Metrics
}

// NewAnalysisAdapter creates a new analysis history adapter.
func NewAnalysisAdapter(conn *sql.DB) *AnalysisAdapter {
	return &AnalysisAdapter{
		conn: conn,
		db:   goqu.New("postgres", conn),
	}
}

// WithMetrics records query durations on metrics.
func (a *AnalysisAdapter) WithMetrics(metrics *observability.Metrics) *AnalysisAdapter {
	a.metrics = metrics
	return a
}

func (a *AnalysisAdapter) observe(ctx context.Context, operation string, start time.Time) {
	observability.RecordDBMetric(ctx, a.metrics, operation, time.Since(start))
}

// EnsureSchema creates the history table and index when missing.
func (a *AnalysisAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.conn.ExecContext(ctx, analysisHistorySchema); err != nil {
		return apperrors.NewInternalError("failed to create analysis history schema", err)
	}
	return nil
}

// Append inserts one analysis record.
func (a *AnalysisAdapter) Append(ctx context.Context, record *entities.AnalysisRecord) error {
	if record == nil {
		return apperrors.NewInternalError("analysis record is nil", fmt.Errorf("analysis record is nil"))
	}

	predictions, err := json.Marshal(record.Predictions)
	if err != nil {
		return apperrors.NewInternalError("failed to encode predictions", err)
	}

	query, args, err := a.db.Insert(analysisHistoryTable).
		Prepared(true).
		Rows(goqu.Record{
			"id":          record.ID,
			"user_id":     record.UserID,
			"symptoms":    record.Symptoms,
			"predictions": string(predictions),
			"created_at":  record.CreatedAt,
		}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build analysis insert query", err)
	}

	defer a.observe(ctx, "analysis_history.insert", time.Now())
	if _, err := a.conn.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to save analysis", err)
	}
	return nil
}

// ListByUser returns a user's analyses, newest first.
func (a *AnalysisAdapter) ListByUser(ctx context.Context, userID string, limit int) ([]*entities.AnalysisRecord, error) {
	query, args, err := a.db.Select("id", "user_id", "symptoms", "predictions", "created_at").
		From(analysisHistoryTable).
		Prepared(true).
		Where(goqu.Ex{"user_id": userID}).
		Order(goqu.I("created_at").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build analysis history query", err)
	}

	defer a.observe(ctx, "analysis_history.list", time.Now())
	rows, err := a.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list analyses", err)
	}
	defer rows.Close()

	records := make([]*entities.AnalysisRecord, 0, limit)
	for rows.Next() {
		record := &entities.AnalysisRecord{}
		var predictions []byte
		if err := rows.Scan(&record.ID, &record.UserID, &record.Symptoms, &predictions, &record.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan analysis", err)
		}
		if err := json.Unmarshal(predictions, &record.Predictions); err != nil {
			return nil, apperrors.NewInternalError("failed to decode predictions", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to list analyses", err)
	}

	return records, nil
}
