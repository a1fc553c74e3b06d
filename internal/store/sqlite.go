package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/civic-pulse/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'running',
	districts  INTEGER NOT NULL DEFAULT 0,
	states     INTEGER NOT NULL DEFAULT 0,
	trends     INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS district_metrics (
	run_id               TEXT NOT NULL REFERENCES runs(id),
	district             TEXT NOT NULL,
	state                TEXT NOT NULL,
	total_volume         INTEGER NOT NULL,
	active_pincodes      INTEGER NOT NULL,
	sps_score            REAL NOT NULL,
	child_updates_5_17   INTEGER NOT NULL,
	total_child_activity INTEGER NOT NULL,
	compliance_share     REAL NOT NULL,
	clcs_zscore          REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS state_metrics (
	run_id               TEXT NOT NULL REFERENCES runs(id),
	state                TEXT NOT NULL,
	total_volume         INTEGER NOT NULL,
	active_pincodes      INTEGER NOT NULL,
	child_updates_5_17   INTEGER NOT NULL,
	total_child_activity INTEGER NOT NULL,
	num_districts        INTEGER NOT NULL,
	sps_score            REAL NOT NULL,
	compliance_share     REAL NOT NULL,
	clcs_zscore          REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS monthly_trends (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	district    TEXT NOT NULL,
	month       TEXT NOT NULL,
	volume      INTEGER NOT NULL,
	season_type TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_district_metrics_run_id ON district_metrics(run_id);
CREATE INDEX IF NOT EXISTS idx_state_metrics_run_id ON state_metrics(run_id);
CREATE INDEX IF NOT EXISTS idx_monthly_trends_run_id ON monthly_trends(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, created_at) VALUES (?, ?, ?)`,
		id, model.RunStatusRunning, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{ID: id, Status: model.RunStatusRunning, CreatedAt: now.Format(time.RFC3339)}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, result *model.Result) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, districts = ?, states = ?, trends = ? WHERE id = ?`,
		model.RunStatusComplete, len(result.Districts), len(result.States), len(result.Trends), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ? WHERE id = ?`,
		model.RunStatusFailed, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, districts, states, trends, created_at FROM runs ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var created time.Time
		if err := rows.Scan(&r.ID, &r.Status, &r.Districts, &r.States, &r.Trends, &created); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		r.CreatedAt = created.Format(time.RFC3339)
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

// SaveResult writes the three result tables for a run in one transaction.
func (s *SQLiteStore) SaveResult(ctx context.Context, runID string, result *model.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save result")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, d := range result.Districts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO district_metrics (run_id, district, state, total_volume, active_pincodes, sps_score, child_updates_5_17, total_child_activity, compliance_share, clcs_zscore)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, d.District, d.State, d.TotalVolume, d.ActivePincodes, d.SPSScore,
			d.ChildUpdates517, d.TotalChildActivity, d.ComplianceShare, d.CLCSZScore,
		); err != nil {
			return eris.Wrap(err, "sqlite: insert district metrics")
		}
	}

	for _, st := range result.States {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO state_metrics (run_id, state, total_volume, active_pincodes, child_updates_5_17, total_child_activity, num_districts, sps_score, compliance_share, clcs_zscore)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, st.State, st.TotalVolume, st.ActivePincodes, st.ChildUpdates517,
			st.TotalChildActivity, st.NumDistricts, st.SPSScore, st.ComplianceShare, st.CLCSZScore,
		); err != nil {
			return eris.Wrap(err, "sqlite: insert state metrics")
		}
	}

	for _, tr := range result.Trends {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO monthly_trends (run_id, district, month, volume, season_type) VALUES (?, ?, ?, ?, ?)`,
			runID, tr.District, tr.Month, tr.Volume, tr.SeasonType,
		); err != nil {
			return eris.Wrap(err, "sqlite: insert trend point")
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit save result")
}

// LatestResult reads the three tables of the most recent complete run.
func (s *SQLiteStore) LatestResult(ctx context.Context) (*model.Result, error) {
	var runID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM runs WHERE status = ? ORDER BY created_at DESC LIMIT 1`,
		model.RunStatusComplete,
	).Scan(&runID)
	if err == sql.ErrNoRows {
		return nil, eris.New("sqlite: no complete run")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest run")
	}

	result := &model.Result{}

	dRows, err := s.db.QueryContext(ctx,
		`SELECT district, state, total_volume, active_pincodes, sps_score, child_updates_5_17, total_child_activity, compliance_share, clcs_zscore
		 FROM district_metrics WHERE run_id = ? ORDER BY district`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query district metrics")
	}
	defer dRows.Close() //nolint:errcheck
	for dRows.Next() {
		var d model.DistrictMetrics
		if err := dRows.Scan(&d.District, &d.State, &d.TotalVolume, &d.ActivePincodes, &d.SPSScore,
			&d.ChildUpdates517, &d.TotalChildActivity, &d.ComplianceShare, &d.CLCSZScore); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan district metrics")
		}
		result.Districts = append(result.Districts, d)
	}
	if err := dRows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate district metrics")
	}

	sRows, err := s.db.QueryContext(ctx,
		`SELECT state, total_volume, active_pincodes, child_updates_5_17, total_child_activity, num_districts, sps_score, compliance_share, clcs_zscore
		 FROM state_metrics WHERE run_id = ? ORDER BY state`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query state metrics")
	}
	defer sRows.Close() //nolint:errcheck
	for sRows.Next() {
		var st model.StateMetrics
		if err := sRows.Scan(&st.State, &st.TotalVolume, &st.ActivePincodes, &st.ChildUpdates517,
			&st.TotalChildActivity, &st.NumDistricts, &st.SPSScore, &st.ComplianceShare, &st.CLCSZScore); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan state metrics")
		}
		result.States = append(result.States, st)
	}
	if err := sRows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate state metrics")
	}

	tRows, err := s.db.QueryContext(ctx,
		`SELECT district, month, volume, season_type FROM monthly_trends WHERE run_id = ? ORDER BY district, month`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query trends")
	}
	defer tRows.Close() //nolint:errcheck
	for tRows.Next() {
		var tr model.TrendPoint
		if err := tRows.Scan(&tr.District, &tr.Month, &tr.Volume, &tr.SeasonType); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan trend point")
		}
		result.Trends = append(result.Trends, tr)
	}
	if err := tRows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate trends")
	}

	return result, nil
}

func checkRowsAffected(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: run %s not found", runID)
	}
	return nil
}
