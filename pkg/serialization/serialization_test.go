package serialization

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/treedoc-garden-go/pkg/util/serr"
)

// gadget 覆盖全部标量种类与有序集合。
type gadget struct {
	Name    string
	Level   int8
	Count   uint8
	Big     int64
	Ratio   float32
	Weight  float64
	Enabled bool
	Tags    []string
}

func (g *gadget) Serialize(s *Serializer) error {
	if err := Write(s, "name", g.Name, true); err != nil {
		return err
	}
	if err := Write(s, "level", g.Level, false); err != nil {
		return err
	}
	if err := Write(s, "count", g.Count, false); err != nil {
		return err
	}
	if err := Write(s, "big", g.Big, false); err != nil {
		return err
	}
	if err := Write(s, "ratio", g.Ratio, false); err != nil {
		return err
	}
	if err := Write(s, "weight", g.Weight, false); err != nil {
		return err
	}
	if err := Write(s, "enabled", g.Enabled, true); err != nil {
		return err
	}
	return WriteScalarSlice(s, "tags", "tag", g.Tags)
}

func (g *gadget) Deserialize(d *Deserializer) error {
	var err error
	if g.Name, err = Read[string](d, "name"); err != nil {
		return err
	}
	if g.Level, err = Read[int8](d, "level"); err != nil {
		return err
	}
	if g.Count, err = Read[uint8](d, "count"); err != nil {
		return err
	}
	if g.Big, err = Read[int64](d, "big"); err != nil {
		return err
	}
	if g.Ratio, err = Read[float32](d, "ratio"); err != nil {
		return err
	}
	if g.Weight, err = Read[float64](d, "weight"); err != nil {
		return err
	}
	if g.Enabled, err = Read[bool](d, "enabled"); err != nil {
		return err
	}
	g.Tags, err = ReadScalarSlice[string](d, "tags", "tag")
	return err
}

// sharedNode 用于身份保持场景。
type sharedNode struct {
	ID string
}

func (n *sharedNode) TypeTag() string { return "test.sharedNode" }

func (n *sharedNode) Serialize(s *Serializer) error {
	return Write(s, "identifier", n.ID, true)
}

func (n *sharedNode) Deserialize(d *Deserializer) error {
	var err error
	n.ID, err = Read[string](d, "identifier")
	return err
}

// holder 持有一个 int8 字段和一个引用感知的指针字段。
type holder struct {
	X      int8
	Target *sharedNode
}

func (h *holder) Serialize(s *Serializer) error {
	if err := Write(s, "x", h.X, true); err != nil {
		return err
	}
	return s.Serialize("target", h.Target)
}

func (h *holder) Deserialize(d *Deserializer) error {
	var err error
	if h.X, err = Read[int8](d, "x"); err != nil {
		return err
	}
	return Ref(d, "target", &h.Target)
}

// world 先读 C 后读 A，制造前向引用。
type world struct {
	A *holder
	C *holder
}

func (w *world) Serialize(s *Serializer) error {
	if err := s.Serialize("a", w.A); err != nil {
		return err
	}
	return s.Serialize("c", w.C)
}

func (w *world) Deserialize(d *Deserializer) error {
	w.C = &holder{}
	if err := d.Deserialize("c", w.C); err != nil {
		return err
	}
	w.A = &holder{}
	return d.Deserialize("a", w.A)
}

// ringNode 用于环安全场景。
type ringNode struct {
	Name string
	Next *ringNode
}

func (r *ringNode) TypeTag() string { return "test.ringNode" }

func (r *ringNode) Serialize(s *Serializer) error {
	if err := Write(s, "name", r.Name, true); err != nil {
		return err
	}
	return s.Serialize("next", r.Next)
}

func (r *ringNode) Deserialize(d *Deserializer) error {
	var err error
	if r.Name, err = Read[string](d, "name"); err != nil {
		return err
	}
	return Ref(d, "next", &r.Next)
}

func init() {
	Register("test.sharedNode", func() Serializable { return &sharedNode{} })
	Register("test.ringNode", func() Serializable { return &ringNode{} })
}

type SerializationSuite struct {
	suite.Suite
}

func (s *SerializationSuite) encode(key string, obj Serializable, opts ...SerializerOption) []byte {
	ser, err := NewSerializer("test", opts...)
	s.Require().NoError(err)
	s.Require().NoError(ser.Serialize(key, obj))

	var buf bytes.Buffer
	s.Require().NoError(ser.Write(context.Background(), &buf))
	return buf.Bytes()
}

func (s *SerializationSuite) decode(data []byte) *Deserializer {
	d, err := NewDeserializerFromReader(bytes.NewReader(data), "test")
	s.Require().NoError(err)
	return d
}

func (s *SerializationSuite) TestRoundTrip() {
	in := &gadget{
		Name:    "emitter",
		Level:   -7,
		Count:   200,
		Big:     1 << 40,
		Ratio:   0.25,
		Weight:  3.5,
		Enabled: true,
		Tags:    []string{"alpha", "beta", "gamma"},
	}

	data := s.encode("gadget", in)
	s.Contains(string(data), rootElementName)

	d := s.decode(data)
	out := &gadget{}
	s.Require().NoError(d.Deserialize("gadget", out))
	s.Require().NoError(d.ResolveReferences())
	s.Equal(in, out)
}

func (s *SerializationSuite) TestRoundTripJSON() {
	in := &gadget{Name: "emitter", Level: 1, Tags: []string{"x"}}

	data := s.encode("gadget", in, WithFormat(FormatJSON))
	d := s.decode(data)
	out := &gadget{}
	s.Require().NoError(d.Deserialize("gadget", out))
	s.Equal(in.Name, out.Name)
	s.Equal(in.Level, out.Level)
	s.Equal(in.Tags, out.Tags)
}

func (s *SerializationSuite) TestSharedIdentity() {
	// A 与 C 引用同一个 B：B 的子树只完整写出一次，另一处为占位节点。
	b := &sharedNode{ID: "b"}
	w := &world{
		A: &holder{X: 5, Target: b},
		C: &holder{X: 9, Target: b},
	}

	data := s.encode("world", w)
	text := string(data)
	s.Equal(1, strings.Count(text, `identifier="b"`))
	s.Contains(text, `id="ref`)
	s.Contains(text, `reference="ref`)

	d := s.decode(data)
	out := &world{}
	s.Require().NoError(d.Deserialize("world", out))
	s.Require().NoError(d.ResolveReferences())

	s.Equal(int8(5), out.A.X)
	s.Equal("b", out.A.Target.ID)
	// 身份律：两个字段必须观察到同一个实例。
	s.Same(out.A.Target, out.C.Target)
}

func (s *SerializationSuite) TestCycleSafety() {
	a := &ringNode{Name: "a"}
	b := &ringNode{Name: "b"}
	a.Next = b
	b.Next = a

	data := s.encode("ring", a)

	d := s.decode(data)
	out := &ringNode{}
	s.Require().NoError(d.Deserialize("ring", out))
	s.Require().NoError(d.ResolveReferences())

	s.Equal("a", out.Name)
	s.Equal("b", out.Next.Name)
	s.Same(out, out.Next.Next)
}

func (s *SerializationSuite) TestNarrowTypeFidelity() {
	signed := make([]int8, 0, 256)
	for v := -128; v <= 127; v++ {
		signed = append(signed, int8(v))
	}
	unsigned := make([]uint8, 0, 256)
	for v := 0; v <= 255; v++ {
		unsigned = append(unsigned, uint8(v))
	}

	ser, err := NewSerializer("test")
	s.Require().NoError(err)
	s.Require().NoError(WriteScalarSlice(ser, "signed", "v", signed))
	s.Require().NoError(WriteScalarSlice(ser, "unsigned", "v", unsigned))

	var buf bytes.Buffer
	s.Require().NoError(ser.Write(context.Background(), &buf))

	d := s.decode(buf.Bytes())
	gotSigned, err := ReadScalarSlice[int8](d, "signed", "v")
	s.Require().NoError(err)
	s.Equal(signed, gotSigned)
	gotUnsigned, err := ReadScalarSlice[uint8](d, "unsigned", "v")
	s.Require().NoError(err)
	s.Equal(unsigned, gotUnsigned)
}

func (s *SerializationSuite) rawDocument(body string) *Deserializer {
	doc := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<%s version=%q>%s</%s>`, rootElementName, DocumentVersion, body, rootElementName)
	d, err := NewDeserializerFromReader(strings.NewReader(doc), "raw")
	s.Require().NoError(err)
	return d
}

func (s *SerializationSuite) TestValueErrors() {
	d := s.rawDocument(`<level>300</level><count>-1</count><ratio>fast</ratio>`)

	_, err := Read[int8](d, "level")
	s.ErrorIs(err, serr.ErrValueOutOfRange)

	_, err = Read[uint8](d, "count")
	s.ErrorIs(err, serr.ErrValueFormat)

	_, err = Read[float32](d, "ratio")
	s.ErrorIs(err, serr.ErrValueFormat)
}

func (s *SerializationSuite) TestMissingFields() {
	d := s.rawDocument(``)

	// 必填字段缺失是硬错误。
	err := d.Deserialize("gadget", &gadget{})
	s.ErrorIs(err, serr.ErrNodeMissing)

	_, err = Read[string](d, "name")
	s.ErrorIs(err, serr.ErrNodeMissing)

	// 可选字段缺失保持默认值。
	found, err := d.DeserializeOptional("gadget", &gadget{})
	s.NoError(err)
	s.False(found)

	value, err := ReadDefault(d, "name", "fallback")
	s.NoError(err)
	s.Equal("fallback", value)
}

func (s *SerializationSuite) TestVersionPolicy() {
	newDoc := func(attrs string) (*Deserializer, error) {
		doc := fmt.Sprintf(`<%s %s></%s>`, rootElementName, attrs, rootElementName)
		return NewDeserializerFromReader(strings.NewReader(doc), "raw")
	}

	// 旧版本但主版本一致：接受。
	d, err := newDoc(`version="1.0.0"`)
	s.NoError(err)
	s.Equal(uint64(1), d.Version().Major)

	// 文档比读端新但主版本一致：告警后接受。
	_, err = newDoc(`version="1.9.0"`)
	s.NoError(err)

	// 主版本不一致：硬错误。
	_, err = newDoc(`version="3.0.0"`)
	s.ErrorIs(err, serr.ErrVersionMismatch)

	// 无法解析的版本号：硬错误。
	_, err = newDoc(`version="latest"`)
	s.ErrorIs(err, serr.ErrVersionMismatch)

	// 缺失版本属性：按 0.0.0 告警处理。
	d, err = newDoc(``)
	s.NoError(err)
	s.Equal(uint64(0), d.Version().Major)
}

func (s *SerializationSuite) TestInvalidDocuments() {
	_, err := NewDeserializerFromReader(strings.NewReader(`<Wrong></Wrong>`), "raw")
	s.ErrorIs(err, serr.ErrDocumentInvalid)

	_, err = NewDeserializerFromReader(strings.NewReader(`<a><b></a>`), "raw")
	s.ErrorIs(err, serr.ErrDocumentInvalid)

	_, err = NewDeserializer(filepath.Join(s.T().TempDir(), "absent.trd"))
	s.ErrorIs(err, serr.ErrDocumentRead)
}

func (s *SerializationSuite) TestInvalidKeys() {
	ser, err := NewSerializer("test")
	s.Require().NoError(err)

	s.ErrorIs(ser.Serialize("", &gadget{}), serr.ErrKeyInvalid)
	s.ErrorIs(ser.Serialize("9gadget", &gadget{}), serr.ErrKeyInvalid)
	s.ErrorIs(ser.Serialize("bad name", &gadget{}), serr.ErrKeyInvalid)
	s.ErrorIs(Write(ser, "bad name", 1, false), serr.ErrKeyInvalid)
}

func (s *SerializationSuite) TestDanglingReference() {
	d := s.rawDocument(`<target reference="ref9" type="test.sharedNode"></target>`)

	var target *sharedNode
	s.Require().NoError(Ref(d, "target", &target))
	s.Nil(target)

	err := d.ResolveReferences()
	s.ErrorIs(err, serr.ErrReferenceDangling)
}

func (s *SerializationSuite) TestRefConstructsNilTarget() {
	// 目标是带类型的空指针：必须走工厂构造，而不是对空实例下行。
	d := s.rawDocument(`<target type="test.sharedNode" identifier="n1"></target>`)

	var target *sharedNode
	s.Require().NoError(Ref(d, "target", &target))
	s.Require().NoError(d.ResolveReferences())
	s.Require().NotNil(target)
	s.Equal("n1", target.ID)
}

func (s *SerializationSuite) TestPaddedTextFidelity() {
	in := &gadget{Name: "g", Tags: []string{"  leading", "trailing  ", "  both  "}}

	data := s.encode("gadget", in)
	d := s.decode(data)
	out := &gadget{}
	s.Require().NoError(d.Deserialize("gadget", out))
	s.Equal(in.Tags, out.Tags)
}

func (s *SerializationSuite) TestSerializeNilObject() {
	ser, err := NewSerializer("test")
	s.Require().NoError(err)

	var g *gadget
	s.ErrorIs(ser.Serialize("gadget", g), serr.ErrKeyInvalid)
	s.ErrorIs(ser.Serialize("gadget", nil), serr.ErrKeyInvalid)
}

func (s *SerializationSuite) TestUnknownTypeTag() {
	d := s.rawDocument(`<target type="test.unknown"></target>`)

	var target *sharedNode
	err := Ref(d, "target", &target)
	s.ErrorIs(err, serr.ErrTypeTagUnknown)
}

func (s *SerializationSuite) TestWriteFileCompressed() {
	path := filepath.Join(s.T().TempDir(), "workspace.trd")

	ser, err := NewSerializer(path, WithZstdCompression())
	s.Require().NoError(err)
	in := &gadget{Name: "emitter", Level: 3, Tags: []string{"x", "y"}}
	s.Require().NoError(ser.Serialize("gadget", in))
	s.Require().NoError(ser.WriteFile(context.Background()))

	d, err := NewDeserializer(path)
	s.Require().NoError(err)
	out := &gadget{}
	s.Require().NoError(d.Deserialize("gadget", out))
	s.Equal(in, out)
}

func (s *SerializationSuite) TestCompressedWriteRepeatable() {
	// 压缩编码器按落盘趟次创建并释放，同一 Serializer 可多次写出。
	path := filepath.Join(s.T().TempDir(), "workspace.trd")

	ser, err := NewSerializer(path, WithZstdCompression())
	s.Require().NoError(err)
	in := &gadget{Name: "emitter", Tags: []string{"x"}}
	s.Require().NoError(ser.Serialize("gadget", in))

	var buf bytes.Buffer
	s.Require().NoError(ser.Write(context.Background(), &buf))
	s.Require().NoError(ser.WriteFile(context.Background()))

	d, err := NewDeserializer(path)
	s.Require().NoError(err)
	out := &gadget{}
	s.Require().NoError(d.Deserialize("gadget", out))
	s.Equal(in.Name, out.Name)
	s.Equal(in.Tags, out.Tags)
}

func (s *SerializationSuite) TestBatch() {
	dir := s.T().TempDir()
	ctx := context.Background()

	passes := make([]PassFunc, 0, 4)
	for i := 0; i < 4; i++ {
		i := i
		passes = append(passes, func(ctx context.Context) error {
			ser, err := NewSerializer(filepath.Join(dir, fmt.Sprintf("doc-%d.trd", i)))
			if err != nil {
				return err
			}
			if err := ser.Serialize("gadget", &gadget{Name: fmt.Sprintf("g%d", i)}); err != nil {
				return err
			}
			return ser.WriteFile(ctx)
		})
	}
	s.Require().NoError(SaveAll(ctx, 2, passes...))

	loads := make([]PassFunc, 0, 4)
	for i := 0; i < 4; i++ {
		i := i
		loads = append(loads, func(ctx context.Context) error {
			d, err := NewDeserializer(filepath.Join(dir, fmt.Sprintf("doc-%d.trd", i)))
			if err != nil {
				return err
			}
			out := &gadget{}
			if err := d.Deserialize("gadget", out); err != nil {
				return err
			}
			return d.ResolveReferences()
		})
	}
	s.Require().NoError(LoadAll(ctx, 2, loads...))
}

func TestSerialization(t *testing.T) {
	suite.Run(t, new(SerializationSuite))
}
