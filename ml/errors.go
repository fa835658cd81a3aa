package ml

import "fmt"

// SchemaMismatchError 编码器列与输入行不一致，属于词表或模型文件缺陷
type SchemaMismatchError struct {
	Column string
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch on column %q: %s", e.Column, e.Reason)
}

// ArtifactLoadError 模型文件读取、解析或校验失败
type ArtifactLoadError struct {
	Path string
	Err  error
}

func (e *ArtifactLoadError) Error() string {
	return fmt.Sprintf("load model artifact %s: %v", e.Path, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error {
	return e.Err
}
