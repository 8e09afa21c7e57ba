package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/insight-cli/internal/db"
	"github.com/sells-group/insight-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"save_profile": `INSERT INTO dataset_profiles (dataset_version_id, profile, profiled_at) VALUES ($1, $2, $3)
	 ON CONFLICT (dataset_version_id) DO UPDATE SET profile = $2, profiled_at = $3`,
	"get_profile":   `SELECT profile FROM dataset_profiles WHERE dataset_version_id = $1`,
	"save_artifact": `INSERT INTO artifacts (id, dataset_version_id, type, payload, generated_at) VALUES ($1, $2, $3, $4, $5)`,
	"get_artifact":  `SELECT payload FROM artifacts WHERE id = $1`,
	"save_baseline": `INSERT INTO baselines (dataset_version_id, analysis, analyzed_at) VALUES ($1, $2, $3)
	 ON CONFLICT (dataset_version_id) DO UPDATE SET analysis = $2, analyzed_at = $3`,
	"get_baseline": `SELECT analysis FROM baselines WHERE dataset_version_id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS dataset_profiles (
	dataset_version_id TEXT PRIMARY KEY,
	profile            JSONB NOT NULL,
	profiled_at        TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS artifacts (
	id                 TEXT PRIMARY KEY,
	dataset_version_id TEXT NOT NULL,
	type               TEXT NOT NULL,
	payload            JSONB NOT NULL,
	generated_at       TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS baselines (
	dataset_version_id TEXT PRIMARY KEY,
	analysis           JSONB NOT NULL,
	analyzed_at        TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_artifacts_dataset ON artifacts(dataset_version_id);
CREATE INDEX IF NOT EXISTS idx_artifacts_type ON artifacts(type);
CREATE INDEX IF NOT EXISTS idx_artifacts_generated_at ON artifacts(generated_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveProfile(ctx context.Context, profile *model.DatasetProfile) error {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal profile")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO dataset_profiles (dataset_version_id, profile, profiled_at) VALUES ($1, $2, $3)
		 ON CONFLICT (dataset_version_id) DO UPDATE SET profile = $2, profiled_at = $3`,
		profile.DatasetVersionID, profileJSON, profile.ProfiledAt,
	)
	return eris.Wrap(err, "postgres: save profile")
}

func (s *PostgresStore) GetProfile(ctx context.Context, datasetVersionID string) (*model.DatasetProfile, error) {
	var profileJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT profile FROM dataset_profiles WHERE dataset_version_id = $1`,
		datasetVersionID,
	).Scan(&profileJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get profile %s", datasetVersionID)
	}

	var p model.DatasetProfile
	if err := json.Unmarshal(profileJSON, &p); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal profile")
	}
	return &p, nil
}

func (s *PostgresStore) SaveArtifact(ctx context.Context, artifact *model.Artifact) error {
	payloadJSON, err := json.Marshal(artifact)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal artifact")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO artifacts (id, dataset_version_id, type, payload, generated_at) VALUES ($1, $2, $3, $4, $5)`,
		artifact.ID, artifact.DatasetVersionID, string(artifact.Type), payloadJSON, artifact.GeneratedAt,
	)
	return eris.Wrap(err, "postgres: save artifact")
}

func (s *PostgresStore) GetArtifact(ctx context.Context, artifactID string) (*model.Artifact, error) {
	var payloadJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM artifacts WHERE id = $1`,
		artifactID,
	).Scan(&payloadJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get artifact %s", artifactID)
	}

	var a model.Artifact
	if err := json.Unmarshal(payloadJSON, &a); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal artifact")
	}
	return &a, nil
}

func (s *PostgresStore) ListArtifacts(ctx context.Context, filter ArtifactFilter) ([]model.Artifact, error) {
	query := `SELECT payload FROM artifacts WHERE true`
	args := []any{}
	argIdx := 1

	if filter.DatasetVersionID != "" {
		query += fmt.Sprintf(` AND dataset_version_id = $%d`, argIdx)
		args = append(args, filter.DatasetVersionID)
		argIdx++
	}
	if filter.Type != "" {
		query += fmt.Sprintf(` AND type = $%d`, argIdx)
		args = append(args, string(filter.Type))
		argIdx++
	}
	query += ` ORDER BY generated_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list artifacts")
	}
	defer rows.Close()

	var artifacts []model.Artifact
	for rows.Next() {
		var payloadJSON []byte
		if err := rows.Scan(&payloadJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan artifact")
		}
		var a model.Artifact
		if err := json.Unmarshal(payloadJSON, &a); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal artifact")
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, eris.Wrap(rows.Err(), "postgres: list artifacts iterate")
}

func (s *PostgresStore) SaveBaseline(ctx context.Context, baseline *model.BaselineAnalysis) error {
	analysisJSON, err := json.Marshal(baseline)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal baseline")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO baselines (dataset_version_id, analysis, analyzed_at) VALUES ($1, $2, $3)
		 ON CONFLICT (dataset_version_id) DO UPDATE SET analysis = $2, analyzed_at = $3`,
		baseline.Metadata.DatasetVersionID, analysisJSON, baseline.Metadata.AnalyzedAt,
	)
	return eris.Wrap(err, "postgres: save baseline")
}

func (s *PostgresStore) GetBaseline(ctx context.Context, datasetVersionID string) (*model.BaselineAnalysis, error) {
	var analysisJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT analysis FROM baselines WHERE dataset_version_id = $1`,
		datasetVersionID,
	).Scan(&analysisJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get baseline %s", datasetVersionID)
	}

	var b model.BaselineAnalysis
	if err := json.Unmarshal(analysisJSON, &b); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal baseline")
	}
	return &b, nil
}
