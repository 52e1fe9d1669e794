package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Report is one stored processing report: what was recognized, with which
// engine, and how it measured against ground truth when one was supplied.
type Report struct {
	ID           uuid.UUID  `json:"id"`
	ProjectID    *uuid.UUID `json:"project_id,omitempty"`
	Filename     string     `json:"filename"`
	Engine       string     `json:"engine"`
	Language     string     `json:"language"`
	Text         string     `json:"text"`
	FileURL      string     `json:"file_url,omitempty"`
	MetricsJSON  string     `json:"metrics_json,omitempty"`
	SegmentsJSON string     `json:"segments_json,omitempty"`
	CER          *float64   `json:"cer,omitempty"`
	WER          *float64   `json:"wer,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// SaveReport persists a processing report into the reports table.
func SaveReport(ctx context.Context, r *Report) error {
	if Pool == nil {
		return ErrNoDatabase
	}

	query := `
		INSERT INTO reports (
			project_id, filename, engine, language, extracted_text,
			file_url, metrics, segments, cer, wer
		) VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9, $10)
		RETURNING id, created_at
	`

	// Handle nullable JSONB
	var metricsJSON, segmentsJSON interface{}
	if r.MetricsJSON != "" {
		metricsJSON = r.MetricsJSON
	}
	if r.SegmentsJSON != "" {
		segmentsJSON = r.SegmentsJSON
	}

	return Pool.QueryRow(ctx, query,
		r.ProjectID, r.Filename, r.Engine, r.Language, r.Text,
		r.FileURL, metricsJSON, segmentsJSON, r.CER, r.WER,
	).Scan(&r.ID, &r.CreatedAt)
}

// GetReports lists reports newest first, optionally scoped to a project.
// The heavy text and JSON columns stay out of the listing.
func GetReports(ctx context.Context, projectID string, limit, offset int) ([]Report, int, error) {
	if Pool == nil {
		return nil, 0, ErrNoDatabase
	}

	filter := ""
	args := []interface{}{}
	if projectID != "" {
		filter = "WHERE project_id = $1::uuid"
		args = append(args, projectID)
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM reports %s", filter)
	if err := Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, project_id, COALESCE(filename, ''), COALESCE(engine, ''),
		       COALESCE(language, ''), COALESCE(file_url, ''),
		       cer, wer, created_at
		FROM reports
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, filter, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var r Report
		err := rows.Scan(
			&r.ID, &r.ProjectID, &r.Filename, &r.Engine,
			&r.Language, &r.FileURL,
			&r.CER, &r.WER, &r.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		reports = append(reports, r)
	}

	return reports, total, nil
}

// GetReportByID retrieves a single report with its full text and JSON blobs.
func GetReportByID(ctx context.Context, reportID string) (*Report, error) {
	if Pool == nil {
		return nil, ErrNoDatabase
	}

	query := `
		SELECT id, project_id, COALESCE(filename, ''), COALESCE(engine, ''),
		       COALESCE(language, ''), COALESCE(extracted_text, ''),
		       COALESCE(file_url, ''), COALESCE(metrics::text, ''),
		       COALESCE(segments::text, ''), cer, wer, created_at
		FROM reports
		WHERE id = $1::uuid
	`

	var r Report
	err := Pool.QueryRow(ctx, query, reportID).Scan(
		&r.ID, &r.ProjectID, &r.Filename, &r.Engine,
		&r.Language, &r.Text,
		&r.FileURL, &r.MetricsJSON,
		&r.SegmentsJSON, &r.CER, &r.WER, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteReport removes a report. Missing ids surface as pgx.ErrNoRows.
func DeleteReport(ctx context.Context, reportID string) error {
	if Pool == nil {
		return ErrNoDatabase
	}

	tag, err := Pool.Exec(ctx, `DELETE FROM reports WHERE id = $1::uuid`, reportID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ReportStats summarizes the current month's processing quality.
type ReportStats struct {
	Month       string  `json:"month"`
	Total       int     `json:"total_reports"`
	WithMetrics int     `json:"with_metrics"`
	AvgCER      float64 `json:"avg_cer"`
	AvgWER      float64 `json:"avg_wer"`
}

// GetMonthlyStats returns this month's report count and average error
// rates, optionally scoped to a project. Reports processed without a
// ground truth carry no error rates and stay out of the averages.
func GetMonthlyStats(ctx context.Context, projectID string) (*ReportStats, error) {
	if Pool == nil {
		return nil, ErrNoDatabase
	}

	query := `
		SELECT
		    COUNT(*) as total,
		    COUNT(*) FILTER (WHERE cer IS NOT NULL) as with_metrics,
		    COALESCE(AVG(cer), 0) as avg_cer,
		    COALESCE(AVG(wer), 0) as avg_wer
		FROM reports
		WHERE DATE_TRUNC('month', created_at) = DATE_TRUNC('month', CURRENT_DATE)
	`
	args := []interface{}{}
	if projectID != "" {
		query += " AND project_id = $1::uuid"
		args = append(args, projectID)
	}

	stats := &ReportStats{
		Month: time.Now().Format("2006-01"),
	}

	err := Pool.QueryRow(ctx, query, args...).Scan(
		&stats.Total,
		&stats.WithMetrics,
		&stats.AvgCER,
		&stats.AvgWER,
	)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
