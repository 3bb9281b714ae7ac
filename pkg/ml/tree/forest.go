package tree

import (
	"errors"
	"fmt"
)

// Node is one entry of a flattened binary tree. Children are indices into
// the same slice.
type Node struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	ClassLabel int     `json:"class_label"`
	IsLeaf     bool    `json:"is_leaf"`
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Check walks every node and rejects feature indices or child links that
// would fall outside the tree or the sample.
func (t Tree) Check(features int) error {
	if len(t.Nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, n := range t.Nodes {
		if n.IsLeaf {
			continue
		}
		if n.FeatureIdx < 0 || n.FeatureIdx >= features {
			return fmt.Errorf("node %d: feature index %d out of range", i, n.FeatureIdx)
		}
		if n.LeftChild <= i || n.LeftChild >= len(t.Nodes) || n.RightChild <= i || n.RightChild >= len(t.Nodes) {
			return fmt.Errorf("node %d: child index out of range", i)
		}
	}
	return nil
}

// Predict follows the sample from the root to a leaf: values at or below the
// threshold go left.
func (t Tree) Predict(sample []float64) (int, error) {
	if len(t.Nodes) == 0 {
		return 0, errors.New("tree has no nodes")
	}
	idx := 0
	// Checked trees only move forward, so a path never exceeds len(Nodes) steps.
	for steps := 0; steps <= len(t.Nodes); steps++ {
		node := t.Nodes[idx]
		if node.IsLeaf {
			return node.ClassLabel, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(sample) {
			return 0, errors.New("feature index out of range")
		}
		if sample[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(t.Nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
	return 0, errors.New("tree contains a cycle")
}

type Forest struct {
	Trees []Tree `json:"trees"`
}

func (f Forest) Check(features int) error {
	if len(f.Trees) == 0 {
		return errors.New("forest has no trees")
	}
	for i, t := range f.Trees {
		if err := t.Check(features); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// Predict takes a majority vote over binary tree labels. A tie goes to 0.
func (f Forest) Predict(sample []float64) (int, error) {
	if len(f.Trees) == 0 {
		return 0, errors.New("forest has no trees")
	}
	positive := 0
	for i, t := range f.Trees {
		label, err := t.Predict(sample)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		switch label {
		case 0:
		case 1:
			positive++
		default:
			return 0, fmt.Errorf("tree %d: non-binary label %d", i, label)
		}
	}
	if 2*positive > len(f.Trees) {
		return 1, nil
	}
	return 0, nil
}
