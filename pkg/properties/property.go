package properties

import (
	"github.com/lk2023060901/treedoc-garden-go/pkg/serialization"
	"github.com/lk2023060901/treedoc-garden-go/pkg/util/serr"
)

// Property 是可序列化属性的公共能力：
// 拥有稳定的标识符、稳定的类型标识，并且可以克隆出同配置的新实例。
type Property interface {
	serialization.Serializable
	serialization.TypeTagged

	Identifier() string
	SetIdentifier(identifier string)
	Clone() Property
}

const (
	identifierKey = "identifier"
	valueKey      = "value"

	propertiesKey = "Properties"
	propertyKey   = "Property"
	prefabKey     = "Prefab"
)

// serializeIdentifier 把标识符写成当前属性元素的属性。
func serializeIdentifier(s *serialization.Serializer, identifier string) error {
	return serialization.Write(s, identifierKey, identifier, true)
}

// readProperty 从当前游标处的 Property 元素恢复一个属性：
// 在 existing 中按标识符匹配已有实例，匹配不到时按 type 属性经工厂构造。
func readProperty(d *serialization.Deserializer, existing []Property) (Property, bool, error) {
	identifier, err := serialization.Read[string](d, identifierKey)
	if err != nil {
		return nil, false, err
	}

	for _, p := range existing {
		if p.Identifier() == identifier {
			return p, false, p.Deserialize(d)
		}
	}

	tag, err := serialization.Read[string](d, "type")
	if err != nil {
		return nil, false, err
	}
	created, err := serialization.Create(tag)
	if err != nil {
		return nil, false, err
	}
	p, ok := created.(Property)
	if !ok {
		return nil, false, serr.WrapErrTypeTagUnknown(tag, "not a property type")
	}
	p.SetIdentifier(identifier)
	return p, true, p.Deserialize(d)
}
