package properties

import (
	"github.com/lk2023060901/treedoc-garden-go/pkg/serialization"
	"github.com/lk2023060901/treedoc-garden-go/pkg/util/serr"
)

// BoolProperty 是布尔标量属性。
type BoolProperty struct {
	identifier string
	Value      bool
}

func NewBoolProperty(identifier string, value bool) *BoolProperty {
	return &BoolProperty{identifier: identifier, Value: value}
}

func (p *BoolProperty) Identifier() string              { return p.identifier }
func (p *BoolProperty) SetIdentifier(identifier string) { p.identifier = identifier }
func (p *BoolProperty) TypeTag() string                 { return "org.treedoc.BoolProperty" }

func (p *BoolProperty) Clone() Property {
	clone := *p
	return &clone
}

func (p *BoolProperty) Serialize(s *serialization.Serializer) error {
	if err := serializeIdentifier(s, p.identifier); err != nil {
		return err
	}
	return serialization.Write(s, valueKey, p.Value, false)
}

func (p *BoolProperty) Deserialize(d *serialization.Deserializer) error {
	var err error
	p.Value, err = serialization.ReadDefault(d, valueKey, p.Value)
	return err
}

// IntProperty 是整型标量属性。
type IntProperty struct {
	identifier string
	Value      int64
}

func NewIntProperty(identifier string, value int64) *IntProperty {
	return &IntProperty{identifier: identifier, Value: value}
}

func (p *IntProperty) Identifier() string              { return p.identifier }
func (p *IntProperty) SetIdentifier(identifier string) { p.identifier = identifier }
func (p *IntProperty) TypeTag() string                 { return "org.treedoc.IntProperty" }

func (p *IntProperty) Clone() Property {
	clone := *p
	return &clone
}

func (p *IntProperty) Serialize(s *serialization.Serializer) error {
	if err := serializeIdentifier(s, p.identifier); err != nil {
		return err
	}
	return serialization.Write(s, valueKey, p.Value, false)
}

func (p *IntProperty) Deserialize(d *serialization.Deserializer) error {
	var err error
	p.Value, err = serialization.ReadDefault(d, valueKey, p.Value)
	return err
}

// FloatProperty 是浮点标量属性。
type FloatProperty struct {
	identifier string
	Value      float64
}

func NewFloatProperty(identifier string, value float64) *FloatProperty {
	return &FloatProperty{identifier: identifier, Value: value}
}

func (p *FloatProperty) Identifier() string              { return p.identifier }
func (p *FloatProperty) SetIdentifier(identifier string) { p.identifier = identifier }
func (p *FloatProperty) TypeTag() string                 { return "org.treedoc.FloatProperty" }

func (p *FloatProperty) Clone() Property {
	clone := *p
	return &clone
}

func (p *FloatProperty) Serialize(s *serialization.Serializer) error {
	if err := serializeIdentifier(s, p.identifier); err != nil {
		return err
	}
	return serialization.Write(s, valueKey, p.Value, false)
}

func (p *FloatProperty) Deserialize(d *serialization.Deserializer) error {
	var err error
	p.Value, err = serialization.ReadDefault(d, valueKey, p.Value)
	return err
}

// StringProperty 是字符串标量属性。
type StringProperty struct {
	identifier string
	Value      string
}

func NewStringProperty(identifier string, value string) *StringProperty {
	return &StringProperty{identifier: identifier, Value: value}
}

func (p *StringProperty) Identifier() string              { return p.identifier }
func (p *StringProperty) SetIdentifier(identifier string) { p.identifier = identifier }
func (p *StringProperty) TypeTag() string                 { return "org.treedoc.StringProperty" }

func (p *StringProperty) Clone() Property {
	clone := *p
	return &clone
}

func (p *StringProperty) Serialize(s *serialization.Serializer) error {
	if err := serializeIdentifier(s, p.identifier); err != nil {
		return err
	}
	return serialization.Write(s, valueKey, p.Value, false)
}

func (p *StringProperty) Deserialize(d *serialization.Deserializer) error {
	var err error
	p.Value, err = serialization.ReadDefault(d, valueKey, p.Value)
	return err
}

// OptionProperty 是单选属性：一组字符串选项加一个选中下标。
type OptionProperty struct {
	identifier string
	Options    []string
	Selected   int64
}

func NewOptionProperty(identifier string, options []string, selected int64) *OptionProperty {
	return &OptionProperty{identifier: identifier, Options: options, Selected: selected}
}

func (p *OptionProperty) Identifier() string              { return p.identifier }
func (p *OptionProperty) SetIdentifier(identifier string) { p.identifier = identifier }
func (p *OptionProperty) TypeTag() string                 { return "org.treedoc.OptionProperty" }

func (p *OptionProperty) Clone() Property {
	clone := *p
	clone.Options = append([]string(nil), p.Options...)
	return &clone
}

func (p *OptionProperty) Serialize(s *serialization.Serializer) error {
	if err := serializeIdentifier(s, p.identifier); err != nil {
		return err
	}
	if err := serialization.WriteScalarSlice(s, "options", "option", p.Options); err != nil {
		return err
	}
	return serialization.Write(s, "selected", p.Selected, false)
}

func (p *OptionProperty) Deserialize(d *serialization.Deserializer) error {
	options, err := serialization.ReadScalarSlice[string](d, "options", "option")
	if err != nil {
		return err
	}
	selected, err := serialization.ReadDefault(d, "selected", p.Selected)
	if err != nil {
		return err
	}
	// 空选项列表只允许 selected == 0，否则下标必须落在选项范围内。
	upper := int64(len(options)) - 1
	if upper < 0 {
		upper = 0
	}
	if selected < 0 || (selected > 0 && selected >= int64(len(options))) {
		return serr.WrapErrValueOutOfRange("selected", int64(0), upper, selected)
	}
	p.Options = options
	p.Selected = selected
	return nil
}
