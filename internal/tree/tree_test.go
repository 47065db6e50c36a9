package tree

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// depth-2 tree: BMI (f0) split at 30, then HighBP (f1) split at 0.5 on the right.
func sampleNodes() []Node {
	return []Node{
		{IsLeaf: false, FeatureIndex: 0, Threshold: 30, Left: 1, Right: 2},
		{IsLeaf: true, Value: []float64{80, 20}},
		{IsLeaf: false, FeatureIndex: 1, Threshold: 0.5, Left: 3, Right: 4},
		{IsLeaf: true, Value: []float64{55, 45}},
		{IsLeaf: true, Value: []float64{25, 75}},
	}
}

func TestEvaluate_Paths(t *testing.T) {
	nodes := sampleNodes()

	tests := []struct {
		name      string
		features  []float64
		wantClass int
		wantLeaf  int
		wantCount [2]float64
	}{
		{"left leaf", []float64{22, 1}, 0, 1, [2]float64{80, 20}},
		{"threshold goes left", []float64{30, 1}, 0, 1, [2]float64{80, 20}},
		{"right then left", []float64{35, 0}, 0, 3, [2]float64{55, 45}},
		{"right then right", []float64{35, 1}, 1, 4, [2]float64{25, 75}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Evaluate(nodes, tc.features)
			require.NoError(t, err)
			assert.Equal(t, tc.wantClass, res.PredictedClass)
			assert.Equal(t, tc.wantLeaf, res.LeafIndex)
			assert.Equal(t, tc.wantCount, res.LeafCounts)
		})
	}
}

func TestEvaluate_TieFavorsClassZero(t *testing.T) {
	res, err := Evaluate([]Node{{IsLeaf: true, Value: []float64{5, 5}}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.PredictedClass)
}

func TestEvaluate_Idempotent(t *testing.T) {
	nodes := sampleNodes()
	features := []float64{41.2, 1}

	first, err := Evaluate(nodes, features)
	require.NoError(t, err)
	second, err := Evaluate(nodes, features)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		nodes    []Node
		features []float64
		want     error
	}{
		{"empty", nil, []float64{1}, ErrMalformedTree},
		{"child out of range", []Node{{FeatureIndex: 0, Threshold: 1, Left: 7, Right: 1}, {IsLeaf: true, Value: []float64{1, 1}}}, []float64{0}, ErrMalformedTree},
		{"negative child", []Node{{FeatureIndex: 0, Threshold: 1, Left: 1, Right: -1}, {IsLeaf: true, Value: []float64{1, 1}}}, []float64{5}, ErrMalformedTree},
		{"cycle", []Node{{FeatureIndex: 0, Threshold: 1, Left: 1, Right: 1}, {FeatureIndex: 0, Threshold: 1, Left: 0, Right: 0}}, []float64{0}, ErrMalformedTree},
		{"bad leaf arity", []Node{{IsLeaf: true, Value: []float64{1}}}, nil, ErrMalformedTree},
		{"feature vector too short", sampleNodes(), []float64{35}, ErrFeatureIndex},
		{"negative feature index", []Node{{FeatureIndex: -1, Left: 1, Right: 1}, {IsLeaf: true, Value: []float64{1, 0}}}, []float64{1}, ErrFeatureIndex},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Evaluate(tc.nodes, tc.features)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(sampleNodes()))

	shared := []Node{
		{FeatureIndex: 0, Threshold: 1, Left: 1, Right: 1},
		{IsLeaf: true, Value: []float64{1, 2}},
	}
	assert.ErrorIs(t, Validate(shared), ErrMalformedTree)

	cyclic := []Node{
		{FeatureIndex: 0, Threshold: 1, Left: 1, Right: 2},
		{IsLeaf: true, Value: []float64{1, 2}},
		{FeatureIndex: 0, Threshold: 1, Left: 0, Right: 1},
	}
	assert.ErrorIs(t, Validate(cyclic), ErrMalformedTree)

	assert.ErrorIs(t, Validate(nil), ErrMalformedTree)

	// negative feature index on the right branch only
	badBranch := []Node{
		{FeatureIndex: 0, Threshold: 1, Left: 1, Right: 2},
		{IsLeaf: true, Value: []float64{3, 1}},
		{FeatureIndex: -1, Threshold: 1, Left: 3, Right: 4},
		{IsLeaf: true, Value: []float64{1, 3}},
		{IsLeaf: true, Value: []float64{0, 4}},
	}
	require.NoError(t, Validate(badBranch))
	_, err := Evaluate(badBranch, []float64{0})
	assert.NoError(t, err)
	_, err = Evaluate(badBranch, []float64{5})
	assert.ErrorIs(t, err, ErrFeatureIndex)
}

func TestNodeJSON(t *testing.T) {
	data := []byte(`[
		{"is_leaf": false, "feature_index": 2, "threshold": 0.5, "left": 1, "right": 2},
		{"is_leaf": true, "value": [10, 3]},
		{"is_leaf": true, "value": [1, 9]}
	]`)

	var nodes []Node
	require.NoError(t, json.Unmarshal(data, &nodes))
	require.NoError(t, Validate(nodes))
	assert.Equal(t, 2, MaxFeatureIndex(nodes))
	assert.Equal(t, 2, NumLeaves(nodes))

	res, err := Evaluate(nodes, []float64{0, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, 1, res.PredictedClass)
}
