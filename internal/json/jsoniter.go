//go:build (!amd64 && !arm64) || gojson

package json

import (
	jsoniter "github.com/json-iterator/go"
)

// sonic 仅支持 amd64/arm64，其余平台使用 json-iterator 提供兼容实现。
var api = jsoniter.ConfigCompatibleWithStandardLibrary

// Marshal 将任意对象编码为 JSON 字节序列。
func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

// MarshalIndent 将任意对象编码为带缩进的 JSON 字节序列。
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return api.MarshalIndent(v, prefix, indent)
}

// Unmarshal 将 JSON 字节序列解码到目标对象。
func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}
