package dom

import (
	"github.com/samber/lo"
)

// Attr 表示元素上的一个属性键值对。
type Attr struct {
	Key   string
	Value string
}

// Element 是文档树中的一个命名节点。
//
// 约定：
//   - 属性按首次写入顺序排列，键唯一，重复写入只更新值、不改变位置。
//   - 子元素顺序即追加顺序，序列化时必须保持（列表等结构依赖位置信息）。
//   - Comment 若非空，会在所有子元素之前输出一条注释节点。
type Element struct {
	Name     string
	Comment  string
	Text     string
	Children []*Element

	attrs     []Attr
	attrIndex map[string]int
}

// NewElement 创建一个指定名称的空元素。
func NewElement(name string) *Element {
	return &Element{Name: name}
}

// SetAttribute 写入一个属性。
// 键已存在时仅更新值，保持原有顺序。
func (e *Element) SetAttribute(key, value string) {
	if e.attrIndex == nil {
		e.attrIndex = make(map[string]int)
	}
	if i, ok := e.attrIndex[key]; ok {
		e.attrs[i].Value = value
		return
	}
	e.attrIndex[key] = len(e.attrs)
	e.attrs = append(e.attrs, Attr{Key: key, Value: value})
}

// Attribute 返回指定属性的值。
// 第二个返回值表示属性是否存在。
func (e *Element) Attribute(key string) (string, bool) {
	if e.attrIndex == nil {
		return "", false
	}
	i, ok := e.attrIndex[key]
	if !ok {
		return "", false
	}
	return e.attrs[i].Value, true
}

// HasAttribute 判断指定属性是否存在。
func (e *Element) HasAttribute(key string) bool {
	_, ok := e.Attribute(key)
	return ok
}

// Attrs 返回属性列表的拷贝，顺序与写入顺序一致。
func (e *Element) Attrs() []Attr {
	out := make([]Attr, len(e.attrs))
	copy(out, e.attrs)
	return out
}

// AppendChild 将 child 追加为 e 的最后一个子元素。
func (e *Element) AppendChild(child *Element) {
	e.Children = append(e.Children, child)
}

// FirstChild 返回第一个名称为 name 的子元素，不存在时返回 nil。
func (e *Element) FirstChild(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed 返回所有名称为 name 的子元素，保持文档顺序。
func (e *Element) ChildrenNamed(name string) []*Element {
	return lo.Filter(e.Children, func(c *Element, _ int) bool {
		return c.Name == name
	})
}

// SetText 设置元素的文本内容。
func (e *Element) SetText(text string) {
	e.Text = text
}
