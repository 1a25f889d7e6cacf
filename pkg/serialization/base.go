package serialization

import (
	"strings"

	"github.com/lk2023060901/treedoc-garden-go/internal/dom"
	"github.com/lk2023060901/treedoc-garden-go/pkg/log"
	"github.com/lk2023060901/treedoc-garden-go/pkg/util/serr"
)

// serializeBase 持有一次遍历共享的文档与游标状态。
//
// 游标始终指向“当前读写位置”对应的元素；
// 进入嵌套对象时下压，对应调用返回时必须恢复。
type serializeBase struct {
	log.Binder

	doc    *dom.Document
	cursor *dom.Element
}

// pushNode 将游标移动到 node，并返回恢复函数。
//
// 调用方必须 defer 返回的恢复函数，保证错误路径上游标也能回到原位：
//
//	restore := s.pushNode(child)
//	defer restore()
func (b *serializeBase) pushNode(node *dom.Element) func() {
	prev := b.cursor
	b.cursor = node
	return func() {
		b.cursor = prev
	}
}

// validateKey 校验元素名：非空、不含空白、不以数字开头。
func validateKey(key string) error {
	if key == "" {
		return serr.WrapErrKeyInvalid(key, "empty element name")
	}
	if strings.ContainsAny(key, " \t\r\n") {
		return serr.WrapErrKeyInvalid(key, "element name contains whitespace")
	}
	if key[0] >= '0' && key[0] <= '9' {
		return serr.WrapErrKeyInvalid(key, "element name starts with a digit")
	}
	return nil
}
