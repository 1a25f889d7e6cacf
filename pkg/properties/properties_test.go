package properties

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/treedoc-garden-go/pkg/serialization"
	"github.com/lk2023060901/treedoc-garden-go/pkg/util/serr"
)

type PropertiesSuite struct {
	suite.Suite
}

func (s *PropertiesSuite) encode(p Property) []byte {
	ser, err := serialization.NewSerializer("test")
	s.Require().NoError(err)
	s.Require().NoError(ser.Serialize(propertyKey, p))

	var buf bytes.Buffer
	s.Require().NoError(ser.Write(context.Background(), &buf))
	return buf.Bytes()
}

func (s *PropertiesSuite) decodeInto(data []byte, p Property) {
	d, err := serialization.NewDeserializerFromReader(bytes.NewReader(data), "test")
	s.Require().NoError(err)
	s.Require().NoError(d.Deserialize(propertyKey, p))
	s.Require().NoError(d.ResolveReferences())
}

func (s *PropertiesSuite) TestScalarRoundTrip() {
	data := s.encode(NewBoolProperty("enabled", true))
	b := NewBoolProperty("enabled", false)
	s.decodeInto(data, b)
	s.True(b.Value)

	data = s.encode(NewIntProperty("count", -42))
	i := NewIntProperty("count", 0)
	s.decodeInto(data, i)
	s.EqualValues(-42, i.Value)

	data = s.encode(NewFloatProperty("ratio", 0.125))
	f := NewFloatProperty("ratio", 0)
	s.decodeInto(data, f)
	s.EqualValues(0.125, f.Value)

	data = s.encode(NewStringProperty("name", "emitter"))
	str := NewStringProperty("name", "")
	s.decodeInto(data, str)
	s.Equal("emitter", str.Value)
}

func (s *PropertiesSuite) TestOptionRoundTrip() {
	in := NewOptionProperty("mode", []string{"off", "auto", "manual"}, 2)
	data := s.encode(in)

	out := NewOptionProperty("mode", []string{"off", "auto", "manual"}, 0)
	s.decodeInto(data, out)
	s.EqualValues(2, out.Selected)
}

func (s *PropertiesSuite) TestOptionSelectedOutOfRange() {
	// 文档里的选中下标超出自身选项个数。
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<TreedocData version="` + serialization.DocumentVersion + `">
  <Property identifier="mode">
    <options><option>off</option><option>auto</option></options>
    <selected>5</selected>
  </Property>
</TreedocData>`

	out := NewOptionProperty("mode", nil, 0)
	d, err := serialization.NewDeserializerFromReader(bytes.NewReader([]byte(doc)), "test")
	s.Require().NoError(err)
	s.ErrorIs(d.Deserialize(propertyKey, out), serr.ErrValueOutOfRange)
}

func (s *PropertiesSuite) TestOptionSelectedWithoutOptions() {
	// 选项列表为空时，非零的选中下标同样越界。
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<TreedocData version="` + serialization.DocumentVersion + `">
  <Property identifier="mode">
    <options></options>
    <selected>1</selected>
  </Property>
</TreedocData>`

	out := NewOptionProperty("mode", nil, 0)
	d, err := serialization.NewDeserializerFromReader(bytes.NewReader([]byte(doc)), "test")
	s.Require().NoError(err)
	s.ErrorIs(d.Deserialize(propertyKey, out), serr.ErrValueOutOfRange)
}

func (s *PropertiesSuite) TestCompositeRoundTripExisting() {
	in := NewCompositeProperty("camera")
	s.Require().NoError(in.AddProperty(NewFloatProperty("fov", 60)))
	s.Require().NoError(in.AddProperty(NewBoolProperty("ortho", true)))
	data := s.encode(in)

	// 已有同标识符的子属性时就地恢复,不经工厂。
	out := NewCompositeProperty("camera")
	fov := NewFloatProperty("fov", 0)
	s.Require().NoError(out.AddProperty(fov))
	s.Require().NoError(out.AddProperty(NewBoolProperty("ortho", false)))
	s.decodeInto(data, out)

	s.Equal(2, out.Len())
	s.Same(fov, out.PropertyByIdentifier("fov"))
	s.EqualValues(60, fov.Value)
	s.True(out.PropertyByIdentifier("ortho").(*BoolProperty).Value)
}

func (s *PropertiesSuite) TestCompositeConstructsMissing() {
	in := NewCompositeProperty("camera")
	s.Require().NoError(in.AddProperty(NewFloatProperty("fov", 60)))
	s.Require().NoError(in.AddProperty(NewStringProperty("name", "main")))
	data := s.encode(in)

	out := NewCompositeProperty("camera")
	s.decodeInto(data, out)

	s.Equal(2, out.Len())
	fov, ok := out.PropertyByIdentifier("fov").(*FloatProperty)
	s.Require().True(ok)
	s.EqualValues(60, fov.Value)
	name, ok := out.PropertyByIdentifier("name").(*StringProperty)
	s.Require().True(ok)
	s.Equal("main", name.Value)
}

func (s *PropertiesSuite) TestCompositeDuplicateIdentifier() {
	c := NewCompositeProperty("camera")
	s.Require().NoError(c.AddProperty(NewIntProperty("fov", 1)))
	s.ErrorIs(c.AddProperty(NewFloatProperty("fov", 2)), serr.ErrKeyInvalid)
}

func (s *PropertiesSuite) TestCompositeNested() {
	inner := NewCompositeProperty("lens")
	s.Require().NoError(inner.AddProperty(NewFloatProperty("focal", 35)))
	in := NewCompositeProperty("camera")
	s.Require().NoError(in.AddProperty(inner))
	data := s.encode(in)

	out := NewCompositeProperty("camera")
	s.decodeInto(data, out)

	lens, ok := out.PropertyByIdentifier("lens").(*CompositeProperty)
	s.Require().True(ok)
	focal, ok := lens.PropertyByIdentifier("focal").(*FloatProperty)
	s.Require().True(ok)
	s.EqualValues(35, focal.Value)
}

func (s *PropertiesSuite) TestListAddDelete() {
	l := NewListProperty("points", NewIntProperty("point", 0), "point", 3)

	first, err := l.AddElement()
	s.Require().NoError(err)
	s.Equal("point1", first.Identifier())
	_, err = l.AddElement()
	s.Require().NoError(err)
	third, err := l.AddElement()
	s.Require().NoError(err)
	s.Equal("point3", third.Identifier())

	_, err = l.AddElement()
	s.ErrorIs(err, serr.ErrValueOutOfRange)

	s.Require().NoError(l.DeleteElement(0))
	s.Equal(2, l.Len())
	// 删除后重新编号。
	s.Equal("point1", l.Elements()[0].Identifier())
	s.Equal("point2", l.Elements()[1].Identifier())

	s.ErrorIs(l.DeleteElement(5), serr.ErrValueOutOfRange)
}

func (s *PropertiesSuite) TestListRoundTrip() {
	in := NewListProperty("points", NewIntProperty("point", 0), "point", 0)
	for i := 0; i < 3; i++ {
		p, err := in.AddElement()
		s.Require().NoError(err)
		p.(*IntProperty).Value = int64(10 * (i + 1))
	}
	data := s.encode(in)

	out := NewListProperty("points", NewIntProperty("point", 0), "point", 0)
	s.decodeInto(data, out)

	s.Equal(3, out.Len())
	for i, element := range out.Elements() {
		s.EqualValues(10*(i+1), element.(*IntProperty).Value)
	}

	// 恢复后仍可继续追加,编号接续。
	next, err := out.AddElement()
	s.Require().NoError(err)
	s.Equal("point4", next.Identifier())
}

func (s *PropertiesSuite) TestListFactoryConstructed() {
	in := NewListProperty("points", NewFloatProperty("point", 1.5), "point", 4)
	_, err := in.AddElement()
	s.Require().NoError(err)

	parent := NewCompositeProperty("scene")
	s.Require().NoError(parent.AddProperty(in))
	data := s.encode(parent)

	// 列表经工厂构造,prefab 与上限都从文档恢复。
	out := NewCompositeProperty("scene")
	s.decodeInto(data, out)

	list, ok := out.PropertyByIdentifier("points").(*ListProperty)
	s.Require().True(ok)
	s.Equal(1, list.Len())
	s.EqualValues(1.5, list.Elements()[0].(*FloatProperty).Value)

	p, err := list.AddElement()
	s.Require().NoError(err)
	s.Equal("point2", p.Identifier())
	s.IsType(&FloatProperty{}, p)
}

func (s *PropertiesSuite) TestListCountOverCap() {
	// 文档声称的元素个数超过自身上限。
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<TreedocData version="` + serialization.DocumentVersion + `">
  <Property identifier="points">
    <maxElements>1</maxElements>
    <count>2</count>
    <elementName>point</elementName>
  </Property>
</TreedocData>`

	out := NewListProperty("points", NewIntProperty("point", 0), "point", 1)
	d, err := serialization.NewDeserializerFromReader(bytes.NewReader([]byte(doc)), "test")
	s.Require().NoError(err)
	s.ErrorIs(d.Deserialize(propertyKey, out), serr.ErrValueOutOfRange)
}

func (s *PropertiesSuite) TestClone() {
	l := NewListProperty("points", NewIntProperty("point", 7), "point", 2)
	_, err := l.AddElement()
	s.Require().NoError(err)

	c := NewCompositeProperty("scene")
	s.Require().NoError(c.AddProperty(l))

	clone := c.Clone().(*CompositeProperty)
	cloned, ok := clone.PropertyByIdentifier("points").(*ListProperty)
	s.Require().True(ok)
	s.Equal(1, cloned.Len())
	s.NotSame(l.Elements()[0], cloned.Elements()[0])

	// 克隆互不影响。
	cloned.Elements()[0].(*IntProperty).Value = 99
	s.EqualValues(7, l.Elements()[0].(*IntProperty).Value)
}

func TestProperties(t *testing.T) {
	suite.Run(t, new(PropertiesSuite))
}
