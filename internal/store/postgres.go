package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/civic-pulse/internal/db"
	"github.com/sells-group/civic-pulse/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'running',
	districts  INTEGER NOT NULL DEFAULT 0,
	states     INTEGER NOT NULL DEFAULT 0,
	trends     INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS district_metrics (
	run_id               TEXT NOT NULL REFERENCES runs(id),
	district             TEXT NOT NULL,
	state                TEXT NOT NULL,
	total_volume         BIGINT NOT NULL,
	active_pincodes      BIGINT NOT NULL,
	sps_score            DOUBLE PRECISION NOT NULL,
	child_updates_5_17   BIGINT NOT NULL,
	total_child_activity BIGINT NOT NULL,
	compliance_share     DOUBLE PRECISION NOT NULL,
	clcs_zscore          DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS state_metrics (
	run_id               TEXT NOT NULL REFERENCES runs(id),
	state                TEXT NOT NULL,
	total_volume         BIGINT NOT NULL,
	active_pincodes      BIGINT NOT NULL,
	child_updates_5_17   BIGINT NOT NULL,
	total_child_activity BIGINT NOT NULL,
	num_districts        BIGINT NOT NULL,
	sps_score            DOUBLE PRECISION NOT NULL,
	compliance_share     DOUBLE PRECISION NOT NULL,
	clcs_zscore          DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS monthly_trends (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	district    TEXT NOT NULL,
	month       TEXT NOT NULL,
	volume      BIGINT NOT NULL,
	season_type TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_district_metrics_run_id ON district_metrics(run_id);
CREATE INDEX IF NOT EXISTS idx_state_metrics_run_id ON state_metrics(run_id);
CREATE INDEX IF NOT EXISTS idx_monthly_trends_run_id ON monthly_trends(run_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, status, created_at) VALUES ($1, $2, $3)`,
		id, model.RunStatusRunning, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return &model.Run{ID: id, Status: model.RunStatusRunning, CreatedAt: now.Format(time.RFC3339)}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, result *model.Result) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, districts = $2, states = $3, trends = $4 WHERE id = $5`,
		model.RunStatusComplete, len(result.Districts), len(result.States), len(result.Trends), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1 WHERE id = $2`,
		model.RunStatusFailed, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, status, districts, states, trends, created_at FROM runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var created time.Time
		if err := rows.Scan(&r.ID, &r.Status, &r.Districts, &r.States, &r.Trends, &created); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		r.CreatedAt = created.Format(time.RFC3339)
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

var districtColumns = []string{
	"run_id", "district", "state", "total_volume", "active_pincodes", "sps_score",
	"child_updates_5_17", "total_child_activity", "compliance_share", "clcs_zscore",
}

var stateColumns = []string{
	"run_id", "state", "total_volume", "active_pincodes", "child_updates_5_17",
	"total_child_activity", "num_districts", "sps_score", "compliance_share", "clcs_zscore",
}

var trendColumns = []string{"run_id", "district", "month", "volume", "season_type"}

// SaveResult bulk-inserts the three result tables via COPY.
func (s *PostgresStore) SaveResult(ctx context.Context, runID string, result *model.Result) error {
	dRows := make([][]any, 0, len(result.Districts))
	for _, d := range result.Districts {
		dRows = append(dRows, []any{
			runID, d.District, d.State, d.TotalVolume, d.ActivePincodes, d.SPSScore,
			d.ChildUpdates517, d.TotalChildActivity, d.ComplianceShare, d.CLCSZScore,
		})
	}
	if _, err := db.CopyFrom(ctx, s.pool, "district_metrics", districtColumns, dRows); err != nil {
		return eris.Wrap(err, "postgres: save district metrics")
	}

	sRows := make([][]any, 0, len(result.States))
	for _, st := range result.States {
		sRows = append(sRows, []any{
			runID, st.State, st.TotalVolume, st.ActivePincodes, st.ChildUpdates517,
			st.TotalChildActivity, st.NumDistricts, st.SPSScore, st.ComplianceShare, st.CLCSZScore,
		})
	}
	if _, err := db.CopyFrom(ctx, s.pool, "state_metrics", stateColumns, sRows); err != nil {
		return eris.Wrap(err, "postgres: save state metrics")
	}

	tRows := make([][]any, 0, len(result.Trends))
	for _, tr := range result.Trends {
		tRows = append(tRows, []any{runID, tr.District, tr.Month, tr.Volume, tr.SeasonType})
	}
	if _, err := db.CopyFrom(ctx, s.pool, "monthly_trends", trendColumns, tRows); err != nil {
		return eris.Wrap(err, "postgres: save trends")
	}

	return nil
}

// LatestResult reads the tables of the most recent complete run.
func (s *PostgresStore) LatestResult(ctx context.Context) (*model.Result, error) {
	var runID string
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM runs WHERE status = $1 ORDER BY created_at DESC LIMIT 1`,
		model.RunStatusComplete,
	).Scan(&runID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.New("postgres: no complete run")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest run")
	}

	result := &model.Result{}

	dRows, err := s.pool.Query(ctx,
		`SELECT district, state, total_volume, active_pincodes, sps_score, child_updates_5_17, total_child_activity, compliance_share, clcs_zscore
		 FROM district_metrics WHERE run_id = $1 ORDER BY district`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query district metrics")
	}
	defer dRows.Close()
	for dRows.Next() {
		var d model.DistrictMetrics
		if err := dRows.Scan(&d.District, &d.State, &d.TotalVolume, &d.ActivePincodes, &d.SPSScore,
			&d.ChildUpdates517, &d.TotalChildActivity, &d.ComplianceShare, &d.CLCSZScore); err != nil {
			return nil, eris.Wrap(err, "postgres: scan district metrics")
		}
		result.Districts = append(result.Districts, d)
	}
	if err := dRows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate district metrics")
	}

	sRows, err := s.pool.Query(ctx,
		`SELECT state, total_volume, active_pincodes, child_updates_5_17, total_child_activity, num_districts, sps_score, compliance_share, clcs_zscore
		 FROM state_metrics WHERE run_id = $1 ORDER BY state`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query state metrics")
	}
	defer sRows.Close()
	for sRows.Next() {
		var st model.StateMetrics
		if err := sRows.Scan(&st.State, &st.TotalVolume, &st.ActivePincodes, &st.ChildUpdates517,
			&st.TotalChildActivity, &st.NumDistricts, &st.SPSScore, &st.ComplianceShare, &st.CLCSZScore); err != nil {
			return nil, eris.Wrap(err, "postgres: scan state metrics")
		}
		result.States = append(result.States, st)
	}
	if err := sRows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate state metrics")
	}

	tRows, err := s.pool.Query(ctx,
		`SELECT district, month, volume, season_type FROM monthly_trends WHERE run_id = $1 ORDER BY district, month`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query trends")
	}
	defer tRows.Close()
	for tRows.Next() {
		var tr model.TrendPoint
		if err := tRows.Scan(&tr.District, &tr.Month, &tr.Volume, &tr.SeasonType); err != nil {
			return nil, eris.Wrap(err, "postgres: scan trend point")
		}
		result.Trends = append(result.Trends, tr)
	}
	if err := tRows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate trends")
	}

	return result, nil
}
