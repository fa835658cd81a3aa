package vocab

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Class 预测类别；概率索引与类别的对应关系由模型文件声明
type Class int

const (
	Poisonous Class = iota
	Edible
)

var classTable = map[string]string{"edible": "e", "poisonous": "p"}

// String 返回类别名
func (c Class) String() string {
	switch c {
	case Edible:
		return "edible"
	case Poisonous:
		return "poisonous"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Code 返回数据集编码（"e"或"p"）
func (c Class) Code() string {
	return classTable[c.String()]
}

// MarshalText 序列化为类别名
func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText 从类别名或编码解析
func (c *Class) UnmarshalText(text []byte) error {
	parsed, err := ParseClass(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseClass 解析类别名或数据集编码
func ParseClass(s string) (Class, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for name, code := range classTable {
		if s != name && s != code {
			continue
		}
		if name == "edible" {
			return Edible, nil
		}
		return Poisonous, nil
	}
	return 0, errors.Newf("unknown class %q", s)
}
