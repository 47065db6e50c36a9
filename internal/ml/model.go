package ml

import (
	"encoding/json"
	"fmt"

	"diabetes-risk/internal/tree"
)

// TreeArtifact holds the flat node array of the serialized tree.
type TreeArtifact struct {
	Nodes []tree.Node `json:"nodes"`
}

// Model is the decision-tree artifact. It is never mutated after loading.
type Model struct {
	Tree         TreeArtifact `json:"tree"`
	Threshold    float64      `json:"threshold"`
	ModelVersion string       `json:"model_version"`
}

// ParseModel decodes and structurally validates a model artifact.
func ParseModel(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if err := tree.Validate(m.Tree.Nodes); err != nil {
		return nil, err
	}
	if m.Threshold < 0 || m.Threshold > 1 {
		return nil, fmt.Errorf("model threshold %v outside [0,1]", m.Threshold)
	}
	return &m, nil
}

// ModelInfo summarizes a loaded model for clients.
type ModelInfo struct {
	ModelVersion string   `json:"model_version"`
	Threshold    float64  `json:"threshold"`
	Nodes        int      `json:"nodes"`
	Leaves       int      `json:"leaves"`
	NumFeatures  int      `json:"num_features"`
	Features     []string `json:"features"`
	State        string   `json:"state"`
}
