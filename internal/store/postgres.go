package store

import (
	"context"
	"embed"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"

	"resumescan/internal/config"
	"resumescan/internal/types"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Postgres is a Store backed by a pgx connection pool
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect opens and pings a connection pool
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return dbError("ping database", err)
	}
	return nil
}

// Migrate applies the embedded schema files in name order. Every statement
// is idempotent, so Migrate may run on every start.
func (p *Postgres) Migrate(ctx context.Context) ([]string, error) {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		sql, err := migrationFiles.ReadFile("migrations/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := p.pool.Exec(ctx, string(sql)); err != nil {
			return nil, dbError("apply migration "+name, err)
		}
	}
	return names, nil
}

// SaveAnalysis writes a scan, its suggestions and its quality log in one transaction
func (p *Postgres) SaveAnalysis(ctx context.Context, scan types.Scan, suggestions []types.Suggestion, log types.QualityMetricLog) error {
	distribution, err := json.Marshal(log.ScoreDistribution)
	if err != nil {
		return fmt.Errorf("failed to marshal score distribution: %w", err)
	}
	criteria, err := json.Marshal(log.CriteriaAvg)
	if err != nil {
		return fmt.Errorf("failed to marshal criteria averages: %w", err)
	}
	breakdown, err := json.Marshal(log.FailureBreakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal failure breakdown: %w", err)
	}

	err = pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO scans (id, owner_id, job_title, resume_text, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			scan.ID, scan.OwnerID, scan.JobTitle, scan.ResumeText, scan.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert scan: %w", err)
		}

		batch := &pgx.Batch{}
		for _, s := range suggestions {
			batch.Queue(
				`INSERT INTO suggestions (id, scan_id, section, item_index, original_text, suggested_text,
				                          suggestion_type, reasoning, status, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				s.ID, s.ScanID, string(s.Section), s.ItemIndex, s.OriginalText, s.SuggestedText,
				string(s.SuggestionType), s.Reasoning, string(s.Status), s.CreatedAt,
			)
		}
		if batch.Len() > 0 {
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("insert suggestions: %w", err)
			}
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO quality_metric_logs (scan_id, total_evaluated, passed, failed, pass_rate, avg_score,
			                                  score_distribution, criteria_avg, failure_breakdown, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			scan.ID, log.TotalEvaluated, log.Passed, log.Failed, log.PassRate, log.AvgScore,
			distribution, criteria, breakdown, log.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert quality log: %w", err)
		}
		return nil
	})
	if err != nil {
		return dbError("save analysis", err)
	}
	return nil
}

func (p *Postgres) GetScan(ctx context.Context, scanID string) (*types.Scan, error) {
	if uuid.Validate(scanID) != nil {
		return nil, scanNotFound(scanID)
	}

	var scan types.Scan
	err := p.pool.QueryRow(ctx,
		`SELECT id::text, owner_id, job_title, resume_text, created_at FROM scans WHERE id = $1`,
		scanID,
	).Scan(&scan.ID, &scan.OwnerID, &scan.JobTitle, &scan.ResumeText, &scan.CreatedAt)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, scanNotFound(scanID)
		}
		return nil, dbError("get scan", err)
	}
	return &scan, nil
}

const suggestionColumns = `id::text, scan_id::text, section, item_index, original_text, suggested_text,
	suggestion_type, reasoning, status, created_at`

func scanSuggestion(row pgx.Row) (types.Suggestion, error) {
	var s types.Suggestion
	var section, typ, status string
	err := row.Scan(&s.ID, &s.ScanID, &section, &s.ItemIndex, &s.OriginalText, &s.SuggestedText,
		&typ, &s.Reasoning, &status, &s.CreatedAt)
	s.Section = types.Section(section)
	s.SuggestionType = types.SuggestionType(typ)
	s.Status = types.SuggestionStatus(status)
	return s, err
}

func (p *Postgres) ListSuggestions(ctx context.Context, scanID string) ([]types.Suggestion, error) {
	out := []types.Suggestion{}
	if uuid.Validate(scanID) != nil {
		return out, nil
	}

	rows, err := p.pool.Query(ctx,
		`SELECT `+suggestionColumns+` FROM suggestions WHERE scan_id = $1 ORDER BY created_at, id`,
		scanID,
	)
	if err != nil {
		return nil, dbError("list suggestions", err)
	}
	defer rows.Close()

	for rows.Next() {
		s, err := scanSuggestion(rows)
		if err != nil {
			return nil, dbError("scan suggestion", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("list suggestions", err)
	}
	return out, nil
}

func (p *Postgres) GetSuggestion(ctx context.Context, scanID, suggestionID string) (*types.Suggestion, error) {
	if uuid.Validate(scanID) != nil || uuid.Validate(suggestionID) != nil {
		return nil, suggestionNotFound(suggestionID)
	}

	s, err := scanSuggestion(p.pool.QueryRow(ctx,
		`SELECT `+suggestionColumns+` FROM suggestions WHERE id = $1 AND scan_id = $2`,
		suggestionID, scanID,
	))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, suggestionNotFound(suggestionID)
		}
		return nil, dbError("get suggestion", err)
	}
	return &s, nil
}

// TransitionSuggestion moves one suggestion from one status to another only
// if it is still in the from status. It reports whether a row changed.
func (p *Postgres) TransitionSuggestion(ctx context.Context, scanID, suggestionID string, from, to types.SuggestionStatus) (bool, error) {
	if uuid.Validate(scanID) != nil || uuid.Validate(suggestionID) != nil {
		return false, nil
	}

	tag, err := p.pool.Exec(ctx,
		`UPDATE suggestions SET status = $1 WHERE id = $2 AND scan_id = $3 AND status = $4`,
		string(to), suggestionID, scanID, string(from),
	)
	if err != nil {
		return false, dbError("update suggestion status", err)
	}
	return tag.RowsAffected() == 1, nil
}

// TransitionPending moves every pending suggestion of a scan, optionally
// limited to one section, to the given status.
func (p *Postgres) TransitionPending(ctx context.Context, scanID string, section types.Section, to types.SuggestionStatus) (int, error) {
	if uuid.Validate(scanID) != nil {
		return 0, nil
	}

	tag, err := p.pool.Exec(ctx,
		`UPDATE suggestions SET status = $1
		 WHERE scan_id = $2 AND status = 'pending' AND ($3 = '' OR section = $3)`,
		string(to), scanID, string(section),
	)
	if err != nil {
		return 0, dbError("update section status", err)
	}
	return int(tag.RowsAffected()), nil
}

func (p *Postgres) SummarizeSuggestions(ctx context.Context, scanID string) (types.SuggestionSummary, error) {
	var sum types.SuggestionSummary
	if uuid.Validate(scanID) != nil {
		return sum, nil
	}

	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'accepted'),
		        COUNT(*) FILTER (WHERE status = 'rejected'),
		        COUNT(*) FILTER (WHERE status = 'pending')
		 FROM suggestions WHERE scan_id = $1`,
		scanID,
	).Scan(&sum.Total, &sum.Accepted, &sum.Rejected, &sum.Pending)
	if err != nil {
		return sum, dbError("summarize suggestions", err)
	}
	return sum, nil
}

// RecentQualityLogs returns up to limit logs, newest first
func (p *Postgres) RecentQualityLogs(ctx context.Context, limit int) ([]types.QualityMetricLog, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := p.pool.Query(ctx,
		`SELECT scan_id::text, total_evaluated, passed, failed, pass_rate, avg_score,
		        score_distribution, criteria_avg, failure_breakdown, created_at
		 FROM quality_metric_logs ORDER BY created_at DESC, id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, dbError("list quality logs", err)
	}
	defer rows.Close()

	out := []types.QualityMetricLog{}
	for rows.Next() {
		var l types.QualityMetricLog
		var distribution, criteria, breakdown []byte
		if err := rows.Scan(&l.ScanID, &l.TotalEvaluated, &l.Passed, &l.Failed, &l.PassRate, &l.AvgScore,
			&distribution, &criteria, &breakdown, &l.CreatedAt); err != nil {
			return nil, dbError("scan quality log", err)
		}
		_ = json.Unmarshal(distribution, &l.ScoreDistribution)
		_ = json.Unmarshal(criteria, &l.CriteriaAvg)
		_ = json.Unmarshal(breakdown, &l.FailureBreakdown)
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("list quality logs", err)
	}
	return out, nil
}

var (
	_ Store = (*Postgres)(nil)
	_ Store = (*Memory)(nil)
)
