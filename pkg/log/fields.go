package log

import (
	"go.uber.org/zap"
)

const (
	FieldNameDocument = "document"
	FieldNameFormat   = "format"
	FieldNameVersion  = "version"
)

// FieldDocument 返回一个包含文档名（文件路径）的 zap 字段。
func FieldDocument(name string) zap.Field {
	return zap.String(FieldNameDocument, name)
}

// FieldFormat 返回一个包含落盘格式的 zap 字段。
func FieldFormat(format string) zap.Field {
	return zap.String(FieldNameFormat, format)
}

// FieldVersion 返回一个包含文档版本号的 zap 字段。
func FieldVersion(version string) zap.Field {
	return zap.String(FieldNameVersion, version)
}
