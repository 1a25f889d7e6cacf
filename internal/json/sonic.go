//go:build (amd64 || arm64) && !gojson

package json

import (
	"github.com/bytedance/sonic"
)

// 在 amd64/arm64 平台上使用 bytedance/sonic 作为 JSON 实现。
// 其余平台（或显式指定 gojson 构建标签时）回退到 json-iterator，见 jsoniter.go。
var api = sonic.ConfigStd

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
