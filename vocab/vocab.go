// Package vocab 蘑菇特征词表，推理管道和表单共用
package vocab

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	Odor      = "odor"
	CapShape  = "cap-shape"
	CapColor  = "cap-color"
	GillSize  = "gill-size"
	GillColor = "gill-color"
	Habitat   = "habitat"
	Bruises   = "bruises"
)

// Option 特征的一个可选值
type Option struct {
	Label string `json:"label"`
	Code  string `json:"code"`
}

// Feature 类别特征及其选项
type Feature struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Options     []Option `json:"options"`
}

var table = map[string]map[string]string{
	CapShape:  {"bell": "b", "conical": "c", "convex": "x", "flat": "f", "knobbed": "k", "sunken": "s"},
	CapColor:  {"brown": "n", "buff": "b", "cinnamon": "c", "gray": "g", "green": "r", "pink": "p", "purple": "u", "red": "e", "white": "w", "yellow": "y"},
	Bruises:   {"bruises": "t", "no": "f"},
	Odor:      {"almond": "a", "anise": "l", "creosote": "c", "fishy": "y", "foul": "f", "musty": "m", "none": "n", "pungent": "p", "spicy": "s"},
	GillSize:  {"broad": "b", "narrow": "n"},
	GillColor: {"black": "k", "brown": "n", "buff": "b", "chocolate": "h", "gray": "g", "green": "r", "orange": "o", "pink": "p", "purple": "u", "red": "e", "white": "w", "yellow": "y"},
	Habitat:   {"grasses": "g", "leaves": "l", "meadows": "m", "paths": "p", "urban": "u", "waste": "w", "woods": "d"},
}

// order 表单顺序，校验时按此顺序报告第一个错误字段
var order = []string{Odor, CapShape, CapColor, GillSize, GillColor, Habitat, Bruises}

var features = buildFeatures()

func buildFeatures() []Feature {
	title := cases.Title(language.English)
	out := make([]Feature, 0, len(order))
	for _, name := range order {
		options := make([]Option, 0, len(table[name]))
		for label, code := range table[name] {
			options = append(options, Option{Label: label, Code: code})
		}
		sort.Slice(options, func(i, j int) bool { return options[i].Label < options[j].Label })
		out = append(out, Feature{
			Name:        name,
			DisplayName: title.String(strings.ReplaceAll(name, "-", " ")),
			Options:     options,
		})
	}
	return out
}

// Names 按表单顺序返回特征名
func Names() []string {
	return append([]string(nil), order...)
}

// Features 返回所有特征，选项按标签排序，返回副本
func Features() []Feature {
	out := make([]Feature, len(features))
	for i, f := range features {
		f.Options = append([]Option(nil), f.Options...)
		out[i] = f
	}
	return out
}

// Lookup 查找特征标签对应的编码
func Lookup(feature, label string) (string, bool) {
	options, ok := table[feature]
	if !ok {
		return "", false
	}
	code, ok := options[label]
	return code, ok
}

// Codes 返回特征的全部编码，已排序
func Codes(feature string) []string {
	options := table[feature]
	codes := make([]string, 0, len(options))
	for _, code := range options {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// DisplayName 将"gill-color"转换为"Gill Color"
func DisplayName(feature string) string {
	for _, f := range features {
		if f.Name == feature {
			return f.DisplayName
		}
	}
	return cases.Title(language.English).String(strings.ReplaceAll(feature, "-", " "))
}
