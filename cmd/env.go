package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/baseline"
	"github.com/sells-group/insight-cli/internal/dataset"
	"github.com/sells-group/insight-cli/internal/explain"
	"github.com/sells-group/insight-cli/internal/model"
	"github.com/sells-group/insight-cli/internal/profiler"
	"github.com/sells-group/insight-cli/internal/store"
	anthropicpkg "github.com/sells-group/insight-cli/pkg/anthropic"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.SQLitePath
		if dsn == "" {
			dsn = "insight.db"
		}
		st, err := store.NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
		return st, nil
	case "postgres":
		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
		return st, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initExplainer returns nil when explanation enrichment is disabled.
func initExplainer() *explain.Explainer {
	if !cfg.Explain.Enabled {
		return nil
	}
	client := anthropicpkg.NewClient(cfg.Anthropic.Key)
	return explain.New(client, explain.Options{
		Model:          cfg.Anthropic.Model,
		MaxTokens:      cfg.Explain.MaxTokens,
		RequestsPerMin: cfg.Explain.RequestsPerMin,
	})
}

// profiledDataset returns the profile for the dataset version at path,
// reusing a stored profile when the same bytes were profiled before.
func profiledDataset(ctx context.Context, st store.Store, path string) (*model.DatasetProfile, error) {
	versionID, err := dataset.VersionID(path)
	if err != nil {
		return nil, err
	}

	if cached, err := st.GetProfile(ctx, versionID); err != nil {
		return nil, err
	} else if cached != nil {
		zap.L().Debug("profile cache hit", zap.String("dataset_version_id", versionID))
		return cached, nil
	}

	schema, err := dataset.LoadSchema(path)
	if err != nil {
		return nil, err
	}
	table, err := dataset.Load(ctx, path, dataset.LoadOptions{})
	if err != nil {
		return nil, err
	}

	profile, err := profiler.Profile(table, versionID, schema)
	if err != nil {
		return nil, err
	}

	if err := st.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	zap.L().Info("dataset profiled",
		zap.String("dataset_version_id", versionID),
		zap.Int("rows", profile.RowCount),
		zap.Int("columns", profile.ColumnCount),
	)

	// A new dataset version also gets its baseline analysis up front, so
	// later baseline reads hit the store.
	analysis, err := baseline.Run(ctx, profile, path)
	if err != nil {
		return nil, err
	}
	if err := st.SaveBaseline(ctx, analysis); err != nil {
		return nil, err
	}

	// Phase A histograms and the Phase C outcome analysis are persisted as
	// artifacts so they can be listed and explained like question results.
	for _, s := range analysis.PhaseA.MetricSummaries {
		if len(s.Distribution) == 0 {
			continue
		}
		art := &model.Artifact{
			ID:               uuid.New().String(),
			Type:             model.ArtifactDistribution,
			DatasetVersionID: versionID,
			GeneratedAt:      analysis.Metadata.AnalyzedAt,
			Distribution:     &model.DistributionData{Column: s.ColumnName, Buckets: s.Distribution},
		}
		if err := st.SaveArtifact(ctx, art); err != nil {
			return nil, err
		}
	}
	if oa := analysis.PhaseC.OutcomeAnalysis; oa != nil {
		art := &model.Artifact{
			ID:               uuid.New().String(),
			Type:             model.ArtifactOutcomeAnalysis,
			DatasetVersionID: versionID,
			GeneratedAt:      analysis.Metadata.AnalyzedAt,
			Outcome:          oa,
		}
		if err := st.SaveArtifact(ctx, art); err != nil {
			return nil, err
		}
	}

	return profile, nil
}
