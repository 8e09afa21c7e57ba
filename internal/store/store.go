package store

import (
	"context"

	"github.com/sells-group/insight-cli/internal/model"
)

// ArtifactFilter specifies criteria for listing artifacts.
type ArtifactFilter struct {
	DatasetVersionID string             `json:"dataset_version_id,omitempty"`
	Type             model.ArtifactType `json:"type,omitempty"`
	Limit            int                `json:"limit,omitempty"`
	Offset           int                `json:"offset,omitempty"`
}

// Store defines the persistence interface for analysis results. Getters
// return (nil, nil) when the requested record does not exist.
type Store interface {
	// Profiles, keyed by dataset version.
	SaveProfile(ctx context.Context, profile *model.DatasetProfile) error
	GetProfile(ctx context.Context, datasetVersionID string) (*model.DatasetProfile, error)

	// Artifacts
	SaveArtifact(ctx context.Context, artifact *model.Artifact) error
	GetArtifact(ctx context.Context, artifactID string) (*model.Artifact, error)
	ListArtifacts(ctx context.Context, filter ArtifactFilter) ([]model.Artifact, error)

	// Baselines, keyed by dataset version.
	SaveBaseline(ctx context.Context, baseline *model.BaselineAnalysis) error
	GetBaseline(ctx context.Context, datasetVersionID string) (*model.BaselineAnalysis, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
