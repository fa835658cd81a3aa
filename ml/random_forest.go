package ml

import (
	"github.com/cockroachdb/errors"
)

// RandomForest 随机森林，对各树叶节点分布取平均
type RandomForest struct {
	trees       []*DecisionTree
	numClasses  int
	importances []float64
}

// NewRandomForest 创建随机森林，所有树的类别数必须一致
func NewRandomForest(trees []*DecisionTree, importances []float64) (*RandomForest, error) {
	if len(trees) == 0 {
		return nil, errors.New("forest has no trees")
	}
	numClasses := trees[0].NumClasses()
	for i, tree := range trees[1:] {
		if tree.NumClasses() != numClasses {
			return nil, errors.Newf("tree %d has %d classes, want %d", i+1, tree.NumClasses(), numClasses)
		}
	}
	if len(importances) == 0 {
		return nil, errors.New("forest has no feature importances")
	}
	return &RandomForest{
		trees:       trees,
		numClasses:  numClasses,
		importances: append([]float64(nil), importances...),
	}, nil
}

// Predict 返回类别索引和各类别概率
func (rf *RandomForest) Predict(features []float64) (int, []float64, error) {
	proba, err := rf.PredictProba(features)
	if err != nil {
		return 0, nil, err
	}
	return argmax(proba), proba, nil
}

// PredictProba 返回各树概率的平均值
func (rf *RandomForest) PredictProba(features []float64) ([]float64, error) {
	sum := make([]float64, rf.numClasses)
	for i, tree := range rf.trees {
		proba, err := tree.PredictProba(features)
		if err != nil {
			return nil, errors.Wrapf(err, "tree %d", i)
		}
		for c, p := range proba {
			sum[c] += p
		}
	}
	n := float64(len(rf.trees))
	for c := range sum {
		sum[c] /= n
	}
	return sum, nil
}

// FeatureImportances 返回特征重要性
func (rf *RandomForest) FeatureImportances() []float64 {
	return append([]float64(nil), rf.importances...)
}

// NumClasses 返回类别数
func (rf *RandomForest) NumClasses() int {
	return rf.numClasses
}

// NumTrees 返回树的数量
func (rf *RandomForest) NumTrees() int {
	return len(rf.trees)
}
