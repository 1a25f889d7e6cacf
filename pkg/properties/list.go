package properties

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/lk2023060901/treedoc-garden-go/pkg/serialization"
	"github.com/lk2023060901/treedoc-garden-go/pkg/util/serr"
)

// ListProperty 是可增删的同构属性列表。
//
// 列表持有一个 prefab 属性作为模板：AddElement 克隆 prefab 并赋予
// “elementName + 序号”形式的标识符；DeleteElement 删除后对剩余元素
// 重新编号。maxElements 为 0 时不限制元素个数。
type ListProperty struct {
	identifier  string
	prefab      Property
	elementName string
	maxElements int64
	elements    []Property
}

// NewListProperty 创建列表属性。
// elementName 为新元素标识符的前缀；maxElements 为元素个数上限，0 表示不限。
func NewListProperty(identifier string, prefab Property, elementName string, maxElements int64) *ListProperty {
	return &ListProperty{
		identifier:  identifier,
		prefab:      prefab,
		elementName: elementName,
		maxElements: maxElements,
	}
}

func (l *ListProperty) Identifier() string              { return l.identifier }
func (l *ListProperty) SetIdentifier(identifier string) { l.identifier = identifier }
func (l *ListProperty) TypeTag() string                 { return "org.treedoc.ListProperty" }

// Elements 返回元素快照，顺序即文档顺序。
func (l *ListProperty) Elements() []Property {
	return append([]Property(nil), l.elements...)
}

func (l *ListProperty) Len() int {
	return len(l.elements)
}

// AddElement 克隆 prefab 追加为新元素并返回它。
// 超过元素个数上限时返回错误。
func (l *ListProperty) AddElement() (Property, error) {
	if l.prefab == nil {
		return nil, serr.WrapErrNodeMissing(prefabKey, "list has no prefab")
	}
	if l.maxElements > 0 && int64(len(l.elements)) >= l.maxElements {
		return nil, serr.WrapErrValueOutOfRange("elements", int64(0), l.maxElements, int64(len(l.elements)+1))
	}

	element := l.prefab.Clone()
	element.SetIdentifier(fmt.Sprintf("%s%d", l.elementName, len(l.elements)+1))
	l.elements = append(l.elements, element)
	return element, nil
}

// DeleteElement 删除下标 i 处的元素并对剩余元素重新编号。
func (l *ListProperty) DeleteElement(i int) error {
	if i < 0 || i >= len(l.elements) {
		return serr.WrapErrValueOutOfRange("index", 0, len(l.elements)-1, i)
	}

	l.elements = append(l.elements[:i], l.elements[i+1:]...)
	l.renumber()
	return nil
}

// Clear 删除全部元素。
func (l *ListProperty) Clear() {
	l.elements = nil
}

func (l *ListProperty) renumber() {
	for i, element := range l.elements {
		element.SetIdentifier(fmt.Sprintf("%s%d", l.elementName, i+1))
	}
}

func (l *ListProperty) Clone() Property {
	var prefab Property
	if l.prefab != nil {
		prefab = l.prefab.Clone()
	}
	clone := NewListProperty(l.identifier, prefab, l.elementName, l.maxElements)
	clone.elements = lo.Map(l.elements, func(p Property, _ int) Property {
		return p.Clone()
	})
	return clone
}

func (l *ListProperty) Serialize(s *serialization.Serializer) error {
	if err := serializeIdentifier(s, l.identifier); err != nil {
		return err
	}
	if err := serialization.Write(s, "maxElements", l.maxElements, false); err != nil {
		return err
	}
	if err := serialization.Write(s, "count", int64(len(l.elements)), false); err != nil {
		return err
	}
	if err := serialization.Write(s, "elementName", l.elementName, false); err != nil {
		return err
	}
	err := s.SerializeContainer(prefabKey, func(s *serialization.Serializer) error {
		if l.prefab == nil {
			return nil
		}
		return s.Serialize(propertyKey, l.prefab)
	})
	if err != nil {
		return err
	}
	return s.SerializeContainer(propertiesKey, func(s *serialization.Serializer) error {
		for _, element := range l.elements {
			if err := s.Serialize(propertyKey, element); err != nil {
				return err
			}
		}
		return nil
	})
}

func (l *ListProperty) Deserialize(d *serialization.Deserializer) error {
	maxElements, err := serialization.ReadDefault(d, "maxElements", l.maxElements)
	if err != nil {
		return err
	}
	count, err := serialization.ReadDefault(d, "count", int64(0))
	if err != nil {
		return err
	}
	if maxElements > 0 && count > maxElements {
		return serr.WrapErrValueOutOfRange("count", int64(0), maxElements, count)
	}
	l.maxElements = maxElements

	l.elementName, err = serialization.ReadDefault(d, "elementName", l.elementName)
	if err != nil {
		return err
	}

	var prefabExisting []Property
	if l.prefab != nil {
		prefabExisting = []Property{l.prefab}
	}
	err = d.DeserializeList(prefabKey, propertyKey, func(d *serialization.Deserializer) error {
		p, _, err := readProperty(d, prefabExisting)
		if err != nil {
			return err
		}
		l.prefab = p
		return nil
	})
	if err != nil {
		return err
	}

	existing := l.elements
	l.elements = nil
	err = d.DeserializeList(propertiesKey, propertyKey, func(d *serialization.Deserializer) error {
		p, _, err := readProperty(d, existing)
		if err != nil {
			return err
		}
		l.elements = append(l.elements, p)
		return nil
	})
	if err != nil {
		return err
	}
	l.renumber()
	return nil
}
