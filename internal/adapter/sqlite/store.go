// Package sqlite persists search runs, cloud elements, link graphs and
// features in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/storm-mcc-search/internal/domain"
	"github.com/couchcryptid/storm-mcc-search/internal/pipeline"
	"github.com/couchcryptid/storm-mcc-search/internal/track"
)

// Store is a SQLite result sink. It implements pipeline.FeatureLoader.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// RunRecord is one stored run.
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Frames     int
	Lineages   int
	MCCCount   int
}

// Open connects to the database at path and creates the schema if needed.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{db: db, path: path, logger: logger}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Name identifies the sink in logs and metrics.
func (s *Store) Name() string { return "sqlite" }

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// LoadFeatures writes run, its cloud elements, both graphs and every feature
// in one transaction.
func (s *Store) LoadFeatures(ctx context.Context, run *pipeline.Run) error {
	criteria, err := json.Marshal(run.Criteria)
	if err != nil {
		return fmt.Errorf("marshal criteria: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, frames, lineages, mcc_count, criteria_json)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		formatTime(run.StartedAt),
		nullableTime(run.FinishedAt),
		len(run.Times),
		len(run.Lineages),
		len(run.MCC),
		string(criteria),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if run.Repo != nil {
		if err := insertElements(ctx, tx, run.ID, run.Repo.All()); err != nil {
			return err
		}
	}
	if err := insertEdges(ctx, tx, run.ID, "full", run.Full); err != nil {
		return err
	}
	if err := insertEdges(ctx, tx, run.ID, "pruned", run.Pruned); err != nil {
		return err
	}
	for _, f := range run.Features {
		if err := insertFeature(ctx, tx, f); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	s.logger.Debug("run stored", "run_id", run.ID, "path", s.path, "features", len(run.Features))
	return nil
}

func insertElements(ctx context.Context, tx *sql.Tx, runID string, elements []*domain.CloudElement) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cloud_elements (
            run_id, ce_id, frame, seq, valid_time, center_lat, center_lon, area, eccentricity,
            temp_min, temp_max, temp_mean, temp_variance, stage, behavior, criteria_b_area,
            precip_total, precip_max, precip_area
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare cloud element insert: %w", err)
	}
	defer stmt.Close()

	for _, ce := range elements {
		var total, peak, area any
		if ce.Precip != nil {
			total, peak, area = ce.Precip.Total, ce.Precip.Max, ce.Precip.Area
		}
		if _, err := stmt.ExecContext(ctx,
			runID, ce.ID.String(), ce.ID.Frame, ce.ID.Seq, formatTime(ce.Time),
			ce.CenterLat, ce.CenterLon, ce.Area, ce.Eccentricity,
			ce.TempMin, ce.TempMax, ce.TempMean, ce.TempVariance,
			nullableString(ce.Stage.String()), nullableString(ce.Behavior.String()),
			ce.CriteriaBArea, total, peak, area,
		); err != nil {
			return fmt.Errorf("insert cloud element %s: %w", ce.ID, err)
		}
	}
	return nil
}

func insertEdges(ctx context.Context, tx *sql.Tx, runID, graph string, g *track.Graph) error {
	if g == nil {
		return nil
	}
	for _, e := range g.Edges() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO graph_edges (run_id, graph, from_ce, to_ce, weight) VALUES (?, ?, ?, ?, ?)`,
			runID, graph, e.From.String(), e.To.String(), e.Weight,
		); err != nil {
			return fmt.Errorf("insert %s edge %s->%s: %w", graph, e.From, e.To, err)
		}
	}
	return nil
}

func insertFeature(ctx context.Context, tx *sql.Tx, f domain.Feature) error {
	var precipTotal any
	if f.Precip != nil {
		precipTotal = f.Precip.Total
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO features (
            id, run_id, kind, start_time, end_time, duration_hours, max_area, mean_area,
            max_extent_node, center_lat, center_lon, place_name, min_speed, precip_total, processed_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.RunID, string(f.Kind), formatTime(f.StartTime), formatTime(f.EndTime),
		f.DurationHours, f.MaxArea, f.MeanArea, ceidText(f.MaxExtentNode),
		f.CenterLat, f.CenterLon, nullableString(f.PlaceName), f.MinSpeed, precipTotal,
		formatTime(f.ProcessedAt),
	); err != nil {
		return fmt.Errorf("insert feature %s: %w", f.ID, err)
	}
	for i, id := range f.Nodes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO feature_nodes (feature_id, position, ce_id) VALUES (?, ?, ?)`,
			f.ID, i, id.String(),
		); err != nil {
			return fmt.Errorf("insert feature node %s: %w", id, err)
		}
	}
	return nil
}

// Runs lists stored runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, frames, lineages, mcc_count FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			r        RunRecord
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.Frames, &r.Lineages, &r.MCCCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if finished.Valid {
			if r.FinishedAt, err = parseTime(finished.String); err != nil {
				return nil, err
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Features returns the stored features of a run, optionally filtered by kind,
// with their node ids. Cloud element snapshots are not reloaded.
func (s *Store) Features(ctx context.Context, runID string, kind domain.FeatureKind) ([]domain.Feature, error) {
	query := `SELECT id, run_id, kind, start_time, end_time, duration_hours, max_area, mean_area,
                     max_extent_node, center_lat, center_lon, place_name, min_speed, precip_total, processed_at
              FROM features WHERE run_id = ?`
	args := []any{runID}
	if kind != "" {
		query += " AND kind = ?"
		args = append(args, string(kind))
	}
	query += " ORDER BY kind, start_time, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query features: %w", err)
	}
	defer rows.Close()

	var out []domain.Feature
	for rows.Next() {
		f, err := scanFeature(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Nodes, err = s.featureNodes(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func scanFeature(rows *sql.Rows) (domain.Feature, error) {
	var (
		f                     domain.Feature
		kind, maxExtent       string
		start, end, processed string
		place                 sql.NullString
		precipTotal           sql.NullFloat64
	)
	if err := rows.Scan(&f.ID, &f.RunID, &kind, &start, &end, &f.DurationHours, &f.MaxArea, &f.MeanArea,
		&maxExtent, &f.CenterLat, &f.CenterLon, &place, &f.MinSpeed, &precipTotal, &processed); err != nil {
		return domain.Feature{}, fmt.Errorf("scan feature: %w", err)
	}
	f.Kind = domain.FeatureKind(kind)
	f.PlaceName = place.String
	if precipTotal.Valid {
		f.Precip = &domain.FeaturePrecip{Total: precipTotal.Float64}
	}

	var err error
	if err = f.MaxExtentNode.UnmarshalText([]byte(maxExtent)); err != nil {
		return domain.Feature{}, fmt.Errorf("feature %s: %w", f.ID, err)
	}
	for _, ts := range []struct {
		dst *time.Time
		raw string
	}{{&f.StartTime, start}, {&f.EndTime, end}, {&f.ProcessedAt, processed}} {
		if *ts.dst, err = parseTime(ts.raw); err != nil {
			return domain.Feature{}, err
		}
	}
	return f, nil
}

func (s *Store) featureNodes(ctx context.Context, featureID string) ([]domain.CEID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ce_id FROM feature_nodes WHERE feature_id = ? ORDER BY position`, featureID)
	if err != nil {
		return nil, fmt.Errorf("query feature nodes: %w", err)
	}
	defer rows.Close()

	var ids []domain.CEID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan feature node: %w", err)
		}
		id, err := domain.ParseCEID(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

// ceidText stores the zero id as an empty string.
func ceidText(id domain.CEID) string {
	text, _ := id.MarshalText()
	return string(text)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
