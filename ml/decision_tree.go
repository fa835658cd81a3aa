package ml

import (
	"github.com/cockroachdb/errors"
)

// DecisionTree 决策树，节点以扁平数组存储，子节点总在父节点之后
type DecisionTree struct {
	nodes       []TreeNode
	numClasses  int
	importances []float64
}

// TreeNode 树节点，Value非空时为叶节点
type TreeNode struct {
	FeatureIdx int       `json:"feature_idx"`
	Threshold  float64   `json:"threshold"`
	LeftChild  int       `json:"left_child"`
	RightChild int       `json:"right_child"`
	IsLeaf     bool      `json:"is_leaf"`
	Value      []float64 `json:"value,omitempty"`
}

// NewDecisionTree 创建并校验决策树；作为森林成员时importances可为nil
func NewDecisionTree(nodes []TreeNode, numClasses, numFeatures int, importances []float64) (*DecisionTree, error) {
	if len(nodes) == 0 {
		return nil, errors.New("tree has no nodes")
	}
	if numClasses < 2 {
		return nil, errors.Newf("tree needs at least 2 classes, got %d", numClasses)
	}
	for idx, node := range nodes {
		if node.IsLeaf {
			if len(node.Value) != numClasses {
				return nil, errors.Newf("leaf %d has %d class weights, want %d", idx, len(node.Value), numClasses)
			}
			var total float64
			for _, v := range node.Value {
				if v < 0 {
					return nil, errors.Newf("leaf %d has negative class weight", idx)
				}
				total += v
			}
			if total <= 0 {
				return nil, errors.Newf("leaf %d has no class weight", idx)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= numFeatures {
			return nil, errors.Newf("node %d splits on feature %d, have %d features", idx, node.FeatureIdx, numFeatures)
		}
		for _, child := range []int{node.LeftChild, node.RightChild} {
			if child <= idx || child >= len(nodes) {
				return nil, errors.Newf("node %d has invalid child %d", idx, child)
			}
		}
	}
	if importances != nil && len(importances) != numFeatures {
		return nil, errors.Newf("tree has %d importances for %d features", len(importances), numFeatures)
	}
	return &DecisionTree{
		nodes:       append([]TreeNode(nil), nodes...),
		numClasses:  numClasses,
		importances: append([]float64(nil), importances...),
	}, nil
}

// Predict 返回类别索引和各类别概率
func (dt *DecisionTree) Predict(features []float64) (int, []float64, error) {
	proba, err := dt.PredictProba(features)
	if err != nil {
		return 0, nil, err
	}
	return argmax(proba), proba, nil
}

// PredictProba 走到叶节点，返回归一化的类别权重
func (dt *DecisionTree) PredictProba(features []float64) ([]float64, error) {
	leaf, err := dt.leaf(features)
	if err != nil {
		return nil, err
	}
	return normalize(leaf.Value), nil
}

func (dt *DecisionTree) leaf(features []float64) (TreeNode, error) {
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node, nil
		}
		if node.FeatureIdx >= len(features) {
			return TreeNode{}, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
}

// FeatureImportances 返回特征重要性
func (dt *DecisionTree) FeatureImportances() []float64 {
	return append([]float64(nil), dt.importances...)
}

// NumClasses 返回类别数
func (dt *DecisionTree) NumClasses() int {
	return dt.numClasses
}

// Depth 返回树深度（最长根到叶路径的边数）
func (dt *DecisionTree) Depth() int {
	return dt.depth(0)
}

func (dt *DecisionTree) depth(idx int) int {
	node := dt.nodes[idx]
	if node.IsLeaf {
		return 0
	}
	return 1 + max(dt.depth(node.LeftChild), dt.depth(node.RightChild))
}

func normalize(weights []float64) []float64 {
	var total float64
	for _, w := range weights {
		total += w
	}
	out := make([]float64, len(weights))
	for i, w := range weights {
		out[i] = w / total
	}
	return out
}

// argmax 最大值相同时取最小索引
func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}
