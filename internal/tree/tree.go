// Package tree evaluates serialized binary decision trees stored as a flat
// node array with integer child indices. Node 0 is the root.
package tree

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedTree is returned when the node array is not a finite binary tree.
	ErrMalformedTree = errors.New("malformed tree")
	// ErrFeatureIndex is returned when a split references a feature the vector does not have.
	ErrFeatureIndex = errors.New("feature index out of range")
)

// Node is a single tree node. Leaves carry class counts, internal nodes a split.
type Node struct {
	IsLeaf       bool      `json:"is_leaf"`
	Value        []float64 `json:"value,omitempty"`
	FeatureIndex int       `json:"feature_index"`
	Threshold    float64   `json:"threshold"`
	Left         int       `json:"left"`
	Right        int       `json:"right"`
}

// Result is the outcome of walking the tree to a leaf.
type Result struct {
	// PredictedClass is the leaf majority; ties favor class 0.
	PredictedClass int
	LeafCounts     [2]float64
	LeafIndex      int
}

// Evaluate walks nodes from the root following features until a leaf is reached.
func Evaluate(nodes []Node, features []float64) (Result, error) {
	if len(nodes) == 0 {
		return Result{}, fmt.Errorf("%w: no nodes", ErrMalformedTree)
	}

	idx := 0
	for steps := 0; steps <= len(nodes); steps++ {
		node := nodes[idx]
		if node.IsLeaf {
			if len(node.Value) != 2 {
				return Result{}, fmt.Errorf("%w: leaf %d has %d class counts, want 2", ErrMalformedTree, idx, len(node.Value))
			}
			counts := [2]float64{node.Value[0], node.Value[1]}
			class := 0
			if counts[1] > counts[0] {
				class = 1
			}
			return Result{PredictedClass: class, LeafCounts: counts, LeafIndex: idx}, nil
		}

		if node.FeatureIndex < 0 || node.FeatureIndex >= len(features) {
			return Result{}, fmt.Errorf("%w: node %d needs feature %d, vector has %d", ErrFeatureIndex, idx, node.FeatureIndex, len(features))
		}

		next := node.Right
		if features[node.FeatureIndex] <= node.Threshold {
			next = node.Left
		}
		if next < 0 || next >= len(nodes) {
			return Result{}, fmt.Errorf("%w: node %d points to child %d outside [0,%d)", ErrMalformedTree, idx, next, len(nodes))
		}
		idx = next
	}

	return Result{}, fmt.Errorf("%w: traversal did not reach a leaf within %d steps", ErrMalformedTree, len(nodes))
}

// Validate checks the whole node graph reachable from the root: child indices in
// range, two counts per leaf, and no node reached twice. Feature indices are
// left to Evaluate, which checks them on the path taken.
func Validate(nodes []Node) error {
	if len(nodes) == 0 {
		return fmt.Errorf("%w: no nodes", ErrMalformedTree)
	}

	seen := make([]bool, len(nodes))
	stack := []int{0}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if seen[idx] {
			return fmt.Errorf("%w: node %d is reachable twice", ErrMalformedTree, idx)
		}
		seen[idx] = true

		node := nodes[idx]
		if node.IsLeaf {
			if len(node.Value) != 2 {
				return fmt.Errorf("%w: leaf %d has %d class counts, want 2", ErrMalformedTree, idx, len(node.Value))
			}
			continue
		}
		for _, child := range []int{node.Left, node.Right} {
			if child < 0 || child >= len(nodes) {
				return fmt.Errorf("%w: node %d points to child %d outside [0,%d)", ErrMalformedTree, idx, child, len(nodes))
			}
			stack = append(stack, child)
		}
	}
	return nil
}

// MaxFeatureIndex returns the highest feature index used by any internal node, or -1.
func MaxFeatureIndex(nodes []Node) int {
	maxIdx := -1
	for _, n := range nodes {
		if !n.IsLeaf && n.FeatureIndex > maxIdx {
			maxIdx = n.FeatureIndex
		}
	}
	return maxIdx
}

// NumLeaves counts leaf nodes in the array.
func NumLeaves(nodes []Node) int {
	count := 0
	for _, n := range nodes {
		if n.IsLeaf {
			count++
		}
	}
	return count
}
