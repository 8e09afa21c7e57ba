package dataset

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/insight-cli/internal/model"
)

// Schema carries optional per-dataset declarations read from a yaml sidecar
// next to the data file (<file>.schema.yaml): the designated outcome column
// and semantic-type pins that override inference for specific columns.
type Schema struct {
	OutcomeColumn string                        `yaml:"outcome_column"`
	TypeOverrides map[string]model.SemanticType `yaml:"type_overrides"`
}

// SidecarPath returns the schema sidecar path for a dataset file.
func SidecarPath(dataPath string) string {
	return dataPath + ".schema.yaml"
}

// LoadSchema reads the sidecar schema for a dataset file. A missing sidecar
// is not an error; it returns an empty schema.
func LoadSchema(dataPath string) (*Schema, error) {
	data, err := os.ReadFile(SidecarPath(dataPath))
	if err != nil {
		if os.IsNotExist(err) {
			return &Schema{}, nil
		}
		return nil, eris.Wrapf(err, "dataset: read schema sidecar for %s", dataPath)
	}

	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrapf(err, "dataset: parse schema sidecar for %s", dataPath)
	}

	for col, st := range s.TypeOverrides {
		switch st {
		case model.SemanticString, model.SemanticNumber, model.SemanticBoolean, model.SemanticDate:
		default:
			return nil, eris.Errorf("dataset: invalid type override %q for column %q", st, col)
		}
	}

	return &s, nil
}
