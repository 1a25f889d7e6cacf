package dom

import (
	"github.com/cockroachdb/errors"
)

// versionAttr 是根元素上承载文档格式版本的属性名。
const versionAttr = "version"

// Document 是一次序列化/反序列化过程产出或消费的版本化文档树。
//
// 约定：
//   - 有且仅有一个根元素。
//   - 版本号在创建时写入根元素属性，此后不再变更。
type Document struct {
	version string

	Root *Element
}

// NewDocument 创建一个带根元素和版本标记的空文档。
func NewDocument(rootName, version string) *Document {
	root := NewElement(rootName)
	root.SetAttribute(versionAttr, version)
	return &Document{
		version: version,
		Root:    root,
	}
}

// Version 返回文档创建（或加载）时的格式版本号。
// 加载的文档缺少版本属性时返回空字符串，由上层决定兼容策略。
func (d *Document) Version() string {
	return d.version
}

// newLoadedDocument 由解析器调用，根据已解析的根元素构造 Document。
func newLoadedDocument(root *Element) (*Document, error) {
	if root == nil {
		return nil, errors.New("document has no root element")
	}
	version, _ := root.Attribute(versionAttr)
	return &Document{
		version: version,
		Root:    root,
	}, nil
}
