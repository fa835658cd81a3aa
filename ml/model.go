package ml

// Encoder 将按列名索引的类别编码转换为编码器列顺序的数值行
type Encoder interface {
	FeatureNames() []string
	Transform(row map[string]string) ([]float64, error)
}

// Classifier 分类模型接口
type Classifier interface {
	// Predict 返回概率最大的类别索引和各类别概率
	Predict(features []float64) (int, []float64, error)
	// FeatureImportances 每个编码列一个静态分数
	FeatureImportances() []float64
	NumClasses() int
}
