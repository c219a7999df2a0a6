package provider

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/batchlens/batchlens/pkg/domain"
)

// sqliteSchema creates the corpus tables when missing so a fresh
// database loads as an empty dataset instead of erroring.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS batches (
	id            TEXT PRIMARY KEY,
	product       TEXT NOT NULL,
	stage         TEXT NOT NULL,
	scenario      TEXT NOT NULL,
	started_at    TEXT NOT NULL,
	bioreactor_id TEXT NOT NULL DEFAULT '',
	result        TEXT NOT NULL DEFAULT 'Pending'
);
CREATE TABLE IF NOT EXISTS cqa_results (
	batch_id  TEXT NOT NULL,
	attribute TEXT NOT NULL,
	value     REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS ml_outputs (
	batch_id   TEXT NOT NULL,
	risk_score REAL NOT NULL,
	risk_level TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS cpp_points (
	batch_id  TEXT NOT NULL,
	phase     INTEGER NOT NULL,
	parameter TEXT NOT NULL,
	value     REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS bioreactors (
	id     TEXT PRIMARY KEY,
	status TEXT NOT NULL
);
`

// LoadSQLite loads the corpus from a SQLite database, one table per
// record type. started_at is stored as RFC 3339 text; a row with an
// unparseable timestamp loads with the zero time rather than failing
// the whole corpus, and the date filter's "all" mode keeps such
// batches visible.
func LoadSQLite(path string) (domain.Dataset, error) {
	if path == "" {
		return domain.Dataset{}, fmt.Errorf("provider: sqlite source requires a path")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("provider: open sqlite: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(sqliteSchema); err != nil {
		return domain.Dataset{}, fmt.Errorf("provider: ensure schema: %w", err)
	}

	var ds domain.Dataset
	if ds.Batches, err = loadBatches(db); err != nil {
		return domain.Dataset{}, err
	}
	if ds.CqaResults, err = loadCqaResults(db); err != nil {
		return domain.Dataset{}, err
	}
	if ds.MlOutputs, err = loadMlOutputs(db); err != nil {
		return domain.Dataset{}, err
	}
	if ds.CppPoints, err = loadCppPoints(db); err != nil {
		return domain.Dataset{}, err
	}
	if ds.Bioreactors, err = loadBioreactors(db); err != nil {
		return domain.Dataset{}, err
	}
	return ds, nil
}

func loadBatches(db *sql.DB) ([]domain.Batch, error) {
	rows, err := db.Query(`SELECT id, product, stage, scenario, started_at, bioreactor_id, result FROM batches`)
	if err != nil {
		return nil, fmt.Errorf("provider: select batches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Batch
	for rows.Next() {
		var b domain.Batch
		var startedAt string
		if err := rows.Scan(&b.ID, &b.Product, &b.Stage, &b.Scenario, &startedAt, &b.BioreactorID, &b.Result); err != nil {
			return nil, fmt.Errorf("provider: scan batch: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, startedAt); err == nil {
			b.StartedAt = ts
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func loadCqaResults(db *sql.DB) ([]domain.CqaResult, error) {
	rows, err := db.Query(`SELECT batch_id, attribute, value FROM cqa_results`)
	if err != nil {
		return nil, fmt.Errorf("provider: select cqa results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.CqaResult
	for rows.Next() {
		var r domain.CqaResult
		if err := rows.Scan(&r.BatchID, &r.Attribute, &r.Value); err != nil {
			return nil, fmt.Errorf("provider: scan cqa result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func loadMlOutputs(db *sql.DB) ([]domain.MlOutput, error) {
	rows, err := db.Query(`SELECT batch_id, risk_score, risk_level FROM ml_outputs`)
	if err != nil {
		return nil, fmt.Errorf("provider: select ml outputs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.MlOutput
	for rows.Next() {
		var m domain.MlOutput
		if err := rows.Scan(&m.BatchID, &m.RiskScore, &m.RiskLevel); err != nil {
			return nil, fmt.Errorf("provider: scan ml output: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func loadCppPoints(db *sql.DB) ([]domain.CppPoint, error) {
	rows, err := db.Query(`SELECT batch_id, phase, parameter, value FROM cpp_points`)
	if err != nil {
		return nil, fmt.Errorf("provider: select cpp points: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.CppPoint
	for rows.Next() {
		var p domain.CppPoint
		if err := rows.Scan(&p.BatchID, &p.Phase, &p.Parameter, &p.Value); err != nil {
			return nil, fmt.Errorf("provider: scan cpp point: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func loadBioreactors(db *sql.DB) ([]domain.Bioreactor, error) {
	rows, err := db.Query(`SELECT id, status FROM bioreactors`)
	if err != nil {
		return nil, fmt.Errorf("provider: select bioreactors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Bioreactor
	for rows.Next() {
		var br domain.Bioreactor
		if err := rows.Scan(&br.ID, &br.Status); err != nil {
			return nil, fmt.Errorf("provider: scan bioreactor: %w", err)
		}
		out = append(out, br)
	}
	return out, rows.Err()
}
