package ml

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// OrdinalEncoder 序数编码器，将类别编码替换为其在该列类别表中的索引
type OrdinalEncoder struct {
	names      []string
	categories [][]string
	index      []map[string]int
	column     map[string]int
}

// NewOrdinalEncoder 创建序数编码器，列名与类别表一一对应
func NewOrdinalEncoder(names []string, categories [][]string) (*OrdinalEncoder, error) {
	if len(names) == 0 {
		return nil, errors.New("encoder has no columns")
	}
	if len(names) != len(categories) {
		return nil, errors.Newf("encoder has %d columns but %d category lists", len(names), len(categories))
	}

	enc := &OrdinalEncoder{
		names:      append([]string(nil), names...),
		categories: make([][]string, len(categories)),
		index:      make([]map[string]int, len(categories)),
		column:     make(map[string]int, len(names)),
	}
	for i, name := range names {
		if name == "" {
			return nil, errors.Newf("encoder column %d has no name", i)
		}
		if _, dup := enc.column[name]; dup {
			return nil, errors.Newf("encoder column %q declared twice", name)
		}
		enc.column[name] = i
		if len(categories[i]) == 0 {
			return nil, errors.Newf("encoder column %q has no categories", name)
		}
		enc.categories[i] = append([]string(nil), categories[i]...)
		enc.index[i] = make(map[string]int, len(categories[i]))
		for j, code := range categories[i] {
			if _, dup := enc.index[i][code]; dup {
				return nil, errors.Newf("encoder column %q repeats category %q", name, code)
			}
			enc.index[i][code] = j
		}
	}
	return enc, nil
}

// FeatureNames 返回列名
func (e *OrdinalEncoder) FeatureNames() []string {
	return append([]string(nil), e.names...)
}

// Categories 返回某列的类别表
func (e *OrdinalEncoder) Categories(name string) ([]string, bool) {
	i, ok := e.column[name]
	if !ok {
		return nil, false
	}
	return append([]string(nil), e.categories[i]...), true
}

// Transform 按列名对齐并编码一行，缺失、多余或未知的值返回*SchemaMismatchError
func (e *OrdinalEncoder) Transform(row map[string]string) ([]float64, error) {
	for name := range row {
		if _, ok := e.column[name]; !ok {
			return nil, &SchemaMismatchError{Column: name, Reason: "column not in fitted schema"}
		}
	}
	out := make([]float64, len(e.names))
	for i, name := range e.names {
		code, ok := row[name]
		if !ok {
			return nil, &SchemaMismatchError{Column: name, Reason: "column missing from row"}
		}
		idx, ok := e.index[i][code]
		if !ok {
			return nil, &SchemaMismatchError{Column: name, Reason: fmt.Sprintf("code %q not in fitted categories", code)}
		}
		out[i] = float64(idx)
	}
	return out, nil
}
