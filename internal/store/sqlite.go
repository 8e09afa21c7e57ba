package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/insight-cli/internal/model"
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
CREATE TABLE IF NOT EXISTS dataset_profiles (
	dataset_version_id TEXT PRIMARY KEY,
	profile            TEXT NOT NULL,
	profiled_at        DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS artifacts (
	id                 TEXT PRIMARY KEY,
	dataset_version_id TEXT NOT NULL,
	type               TEXT NOT NULL,
	payload            TEXT NOT NULL,
	generated_at       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS baselines (
	dataset_version_id TEXT PRIMARY KEY,
	analysis           TEXT NOT NULL,
	analyzed_at        DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_artifacts_dataset ON artifacts(dataset_version_id);
CREATE INDEX IF NOT EXISTS idx_artifacts_type ON artifacts(type);
CREATE INDEX IF NOT EXISTS idx_artifacts_generated_at ON artifacts(generated_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveProfile(ctx context.Context, profile *model.DatasetProfile) error {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal profile")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO dataset_profiles (dataset_version_id, profile, profiled_at) VALUES (?, ?, ?)
		 ON CONFLICT (dataset_version_id) DO UPDATE SET profile = excluded.profile, profiled_at = excluded.profiled_at`,
		profile.DatasetVersionID, string(profileJSON), profile.ProfiledAt,
	)
	return eris.Wrap(err, "sqlite: save profile")
}

func (s *SQLiteStore) GetProfile(ctx context.Context, datasetVersionID string) (*model.DatasetProfile, error) {
	var profileJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT profile FROM dataset_profiles WHERE dataset_version_id = ?`,
		datasetVersionID,
	).Scan(&profileJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get profile %s", datasetVersionID)
	}

	var p model.DatasetProfile
	if err := json.Unmarshal([]byte(profileJSON), &p); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal profile")
	}
	return &p, nil
}

func (s *SQLiteStore) SaveArtifact(ctx context.Context, artifact *model.Artifact) error {
	payloadJSON, err := json.Marshal(artifact)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal artifact")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO artifacts (id, dataset_version_id, type, payload, generated_at) VALUES (?, ?, ?, ?, ?)`,
		artifact.ID, artifact.DatasetVersionID, string(artifact.Type), string(payloadJSON), artifact.GeneratedAt,
	)
	return eris.Wrap(err, "sqlite: save artifact")
}

func (s *SQLiteStore) GetArtifact(ctx context.Context, artifactID string) (*model.Artifact, error) {
	var payloadJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM artifacts WHERE id = ?`,
		artifactID,
	).Scan(&payloadJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get artifact %s", artifactID)
	}

	var a model.Artifact
	if err := json.Unmarshal([]byte(payloadJSON), &a); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal artifact")
	}
	return &a, nil
}

func (s *SQLiteStore) ListArtifacts(ctx context.Context, filter ArtifactFilter) ([]model.Artifact, error) {
	query := `SELECT payload FROM artifacts WHERE 1=1`
	var args []any

	if filter.DatasetVersionID != "" {
		query += ` AND dataset_version_id = ?`
		args = append(args, filter.DatasetVersionID)
	}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}
	query += ` ORDER BY generated_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list artifacts")
	}
	defer rows.Close()

	var artifacts []model.Artifact
	for rows.Next() {
		var payloadJSON string
		if err := rows.Scan(&payloadJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan artifact")
		}
		var a model.Artifact
		if err := json.Unmarshal([]byte(payloadJSON), &a); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal artifact")
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, eris.Wrap(rows.Err(), "sqlite: list artifacts iterate")
}

func (s *SQLiteStore) SaveBaseline(ctx context.Context, baseline *model.BaselineAnalysis) error {
	analysisJSON, err := json.Marshal(baseline)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal baseline")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO baselines (dataset_version_id, analysis, analyzed_at) VALUES (?, ?, ?)
		 ON CONFLICT (dataset_version_id) DO UPDATE SET analysis = excluded.analysis, analyzed_at = excluded.analyzed_at`,
		baseline.Metadata.DatasetVersionID, string(analysisJSON), baseline.Metadata.AnalyzedAt,
	)
	return eris.Wrap(err, "sqlite: save baseline")
}

func (s *SQLiteStore) GetBaseline(ctx context.Context, datasetVersionID string) (*model.BaselineAnalysis, error) {
	var analysisJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT analysis FROM baselines WHERE dataset_version_id = ?`,
		datasetVersionID,
	).Scan(&analysisJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get baseline %s", datasetVersionID)
	}

	var b model.BaselineAnalysis
	if err := json.Unmarshal([]byte(analysisJSON), &b); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal baseline")
	}
	return &b, nil
}
