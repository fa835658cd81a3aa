package ml

import (
	"encoding/json"
	"os"

	"github.com/cockroachdb/errors"

	"fauxpas/vocab"
)

const bundleVersion = 1

// Bundle 一起加载的编码器与分类器，加载后只读
type Bundle struct {
	Path       string
	Version    int
	Classes    []vocab.Class
	Encoder    *OrdinalEncoder
	Classifier Classifier
}

type bundleFile struct {
	Version    int           `json:"version"`
	Classes    []string      `json:"classes"`
	Encoder    encoderDef    `json:"encoder"`
	Classifier classifierDef `json:"classifier"`
}

type encoderDef struct {
	Type         string     `json:"type"`
	FeatureNames []string   `json:"feature_names"`
	Categories   [][]string `json:"categories"`
}

type classifierDef struct {
	Type               string     `json:"type"`
	FeatureImportances []float64  `json:"feature_importances"`
	Trees              []treeDef  `json:"trees,omitempty"`
	Nodes              []TreeNode `json:"nodes,omitempty"`
}

type treeDef struct {
	Nodes []TreeNode `json:"nodes"`
}

// LoadBundle 加载并校验模型文件，失败时返回*ArtifactLoadError
func LoadBundle(path string) (*Bundle, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, loadError(path, errors.Wrap(err, "read bundle"))
	}
	bundle, err := ParseBundle(payload)
	if err != nil {
		return nil, loadError(path, err)
	}
	bundle.Path = path
	return bundle, nil
}

// ParseBundle 解析JSON格式的模型
func ParseBundle(payload []byte) (*Bundle, error) {
	var file bundleFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return nil, errors.Wrap(err, "decode bundle")
	}
	if file.Version != bundleVersion {
		return nil, errors.Newf("unsupported bundle version %d", file.Version)
	}

	classes, err := parseClasses(file.Classes)
	if err != nil {
		return nil, err
	}
	encoder, err := loadEncoder(file.Encoder)
	if err != nil {
		return nil, errors.Wrap(err, "encoder")
	}
	classifier, err := loadClassifier(file.Classifier, len(classes), len(encoder.FeatureNames()))
	if err != nil {
		return nil, errors.Wrap(err, "classifier")
	}
	return &Bundle{
		Version:    file.Version,
		Classes:    classes,
		Encoder:    encoder,
		Classifier: classifier,
	}, nil
}

func parseClasses(names []string) ([]vocab.Class, error) {
	if len(names) != 2 {
		return nil, errors.Newf("bundle declares %d classes, want 2", len(names))
	}
	classes := make([]vocab.Class, len(names))
	seen := make(map[vocab.Class]bool, len(names))
	for i, name := range names {
		class, err := vocab.ParseClass(name)
		if err != nil {
			return nil, err
		}
		if seen[class] {
			return nil, errors.Newf("class %s declared twice", class)
		}
		seen[class] = true
		classes[i] = class
	}
	return classes, nil
}

func loadEncoder(def encoderDef) (*OrdinalEncoder, error) {
	switch def.Type {
	case "ordinal":
		return NewOrdinalEncoder(def.FeatureNames, def.Categories)
	default:
		return nil, errors.Newf("unsupported encoder type %q", def.Type)
	}
}

func loadClassifier(def classifierDef, numClasses, numFeatures int) (Classifier, error) {
	if len(def.FeatureImportances) != numFeatures {
		return nil, &SchemaMismatchError{
			Column: "*",
			Reason: "feature importance count does not match encoder columns",
		}
	}
	switch def.Type {
	case "decision_tree":
		return NewDecisionTree(def.Nodes, numClasses, numFeatures, def.FeatureImportances)
	case "random_forest":
		trees := make([]*DecisionTree, 0, len(def.Trees))
		for i, t := range def.Trees {
			tree, err := NewDecisionTree(t.Nodes, numClasses, numFeatures, nil)
			if err != nil {
				return nil, errors.Wrapf(err, "tree %d", i)
			}
			trees = append(trees, tree)
		}
		return NewRandomForest(trees, def.FeatureImportances)
	default:
		return nil, errors.Newf("unsupported classifier type %q", def.Type)
	}
}

func loadError(path string, err error) error {
	return errors.WithHint(&ArtifactLoadError{Path: path, Err: err},
		"check that model.bundle_path (or FAUXPAS_BUNDLE_PATH) points at a valid model bundle, then restart")
}
