package properties

import (
	"github.com/samber/lo"

	"github.com/lk2023060901/treedoc-garden-go/pkg/serialization"
	"github.com/lk2023060901/treedoc-garden-go/pkg/util/serr"
)

// CompositeProperty 按添加顺序持有一组子属性。
//
// 序列化时写出标识符与一个 Properties 容器，每个子属性一个 Property
// 元素并携带类型标识；反序列化按标识符匹配已有子属性，
// 匹配不到的经工厂构造后追加。
type CompositeProperty struct {
	identifier string
	properties []Property
}

func NewCompositeProperty(identifier string) *CompositeProperty {
	return &CompositeProperty{identifier: identifier}
}

func (c *CompositeProperty) Identifier() string              { return c.identifier }
func (c *CompositeProperty) SetIdentifier(identifier string) { c.identifier = identifier }
func (c *CompositeProperty) TypeTag() string                 { return "org.treedoc.CompositeProperty" }

// AddProperty 追加一个子属性，标识符冲突时返回错误。
func (c *CompositeProperty) AddProperty(p Property) error {
	if c.PropertyByIdentifier(p.Identifier()) != nil {
		return serr.WrapErrKeyInvalid(p.Identifier(), "duplicate property identifier")
	}
	c.properties = append(c.properties, p)
	return nil
}

// PropertyByIdentifier 按标识符查找子属性，找不到返回 nil。
func (c *CompositeProperty) PropertyByIdentifier(identifier string) Property {
	p, ok := lo.Find(c.properties, func(p Property) bool {
		return p.Identifier() == identifier
	})
	if !ok {
		return nil
	}
	return p
}

// Properties 返回子属性的快照，顺序与添加顺序一致。
func (c *CompositeProperty) Properties() []Property {
	return append([]Property(nil), c.properties...)
}

func (c *CompositeProperty) Len() int {
	return len(c.properties)
}

func (c *CompositeProperty) Clone() Property {
	clone := NewCompositeProperty(c.identifier)
	clone.properties = lo.Map(c.properties, func(p Property, _ int) Property {
		return p.Clone()
	})
	return clone
}

func (c *CompositeProperty) Serialize(s *serialization.Serializer) error {
	if err := serializeIdentifier(s, c.identifier); err != nil {
		return err
	}
	return s.SerializeContainer(propertiesKey, func(s *serialization.Serializer) error {
		for _, p := range c.properties {
			if err := s.Serialize(propertyKey, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *CompositeProperty) Deserialize(d *serialization.Deserializer) error {
	return d.DeserializeList(propertiesKey, propertyKey, func(d *serialization.Deserializer) error {
		p, created, err := readProperty(d, c.properties)
		if err != nil {
			return err
		}
		if created {
			c.properties = append(c.properties, p)
		}
		return nil
	})
}
