package vocab

import (
	"fmt"
	"sort"
	"strings"
)

// Selection 一组表单选择
type Selection struct {
	Odor      string `json:"odor"`
	CapShape  string `json:"cap_shape"`
	CapColor  string `json:"cap_color"`
	GillSize  string `json:"gill_size"`
	GillColor string `json:"gill_color"`
	Habitat   string `json:"habitat"`
	Bruises   string `json:"bruises"`
}

// Values 返回按特征名索引的选择
func (s Selection) Values() map[string]string {
	return map[string]string{
		Odor:      s.Odor,
		CapShape:  s.CapShape,
		CapColor:  s.CapColor,
		GillSize:  s.GillSize,
		GillColor: s.GillColor,
		Habitat:   s.Habitat,
		Bruises:   s.Bruises,
	}
}

// SelectionFromValues 从表单值构建Selection，缺失的键在编码时报错
func SelectionFromValues(values map[string]string) Selection {
	return Selection{
		Odor:      values[Odor],
		CapShape:  values[CapShape],
		CapColor:  values[CapColor],
		GillSize:  values[GillSize],
		GillColor: values[GillColor],
		Habitat:   values[Habitat],
		Bruises:   values[Bruises],
	}
}

// EncodedRow 特征名到单字符编码的映射
type EncodedRow map[string]string

// Key 返回稳定的字符串形式，用作缓存键
func (r EncodedRow) Key() string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(r[name])
		b.WriteByte(';')
	}
	return b.String()
}

// UnknownCategoryError 特征取值不在词表中
type UnknownCategoryError struct {
	Field string
	Value string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q for feature %s", e.Value, e.Field)
}

// Encode 先校验全部字段再替换编码，非法选择不会产生部分结果
func Encode(s Selection) (EncodedRow, error) {
	values := s.Values()
	for _, name := range order {
		if _, ok := Lookup(name, values[name]); !ok {
			return nil, &UnknownCategoryError{Field: name, Value: values[name]}
		}
	}
	row := make(EncodedRow, len(order))
	for _, name := range order {
		row[name], _ = Lookup(name, values[name])
	}
	return row, nil
}
