package serialization

// 文档格式约定的固定常量。
const (
	// rootElementName 为文档根元素名。
	rootElementName = "TreedocData"

	// versionAttribute 为根元素上携带格式版本号的属性名。
	versionAttribute = "version"

	// typeAttribute 为多态节点上携带工厂类型标识的属性名。
	typeAttribute = "type"

	// idAttribute 标记一个身份首次完整写出的节点。
	// referenceAttribute 标记后续引用同一身份的占位节点。
	// 两者的属性值形如 "ref1"、"ref2"。
	idAttribute        = "id"
	referenceAttribute = "reference"

	// DocumentVersion 为当前写出文档的格式版本号（semver）。
	DocumentVersion = "1.2.0"

	// editWarning 作为根元素的第一个子节点写入，提示不要手工编辑。
	editWarning = "This file is generated, do not edit it manually. Manual changes may be lost on the next save."
)

// Format 表示文档的落盘编码格式。
type Format int

const (
	// FormatXML 为默认格式。
	FormatXML Format = iota
	// FormatJSON 将同一棵文档树渲染为嵌套 JSON 对象。
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "xml"
}
