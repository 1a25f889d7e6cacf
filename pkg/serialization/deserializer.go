package serialization

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/blang/semver/v4"
	"go.uber.org/zap"

	"github.com/lk2023060901/treedoc-garden-go/internal/compressor"
	"github.com/lk2023060901/treedoc-garden-go/internal/dom"
	"github.com/lk2023060901/treedoc-garden-go/pkg/log"
	"github.com/lk2023060901/treedoc-garden-go/pkg/metrics"
	"github.com/lk2023060901/treedoc-garden-go/pkg/util/serr"
)

// zstdMagic 为 zstd 帧的魔数，用于加载时自动识别压缩文档。
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// engineVersion 为当前读端支持的文档版本。
var engineVersion = semver.MustParse(DocumentVersion)

// Deserializer 从一棵版本化文档树恢复对象图，是 Serializer 的对称实现。
//
// 一次反序列化遍历由单协程驱动；不同实例之间相互独立。
type Deserializer struct {
	serializeBase

	fileName string
	format   Format
	version  semver.Version
	refs     *refResolver
}

type deserializerOption struct {
	format    Format
	hasFormat bool
}

// DeserializerOption 用于配置 Deserializer 行为的选项函数。
type DeserializerOption func(*deserializerOption)

// WithReadFormat 显式指定文档格式；不指定时按首字节自动识别。
func WithReadFormat(format Format) DeserializerOption {
	return func(opt *deserializerOption) {
		opt.format = format
		opt.hasFormat = true
	}
}

// NewDeserializer 加载并解析 fileName 指向的文档。
//
// 加载即完成根元素与版本校验；压缩文档按 zstd 魔数自动识别。
func NewDeserializer(fileName string, opts ...DeserializerOption) (*Deserializer, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, serr.WrapErrDocumentRead(fileName, err)
	}
	return newDeserializer(fileName, data, opts...)
}

// NewDeserializerFromReader 从流加载文档，name 仅用于错误信息与日志。
func NewDeserializerFromReader(r io.Reader, name string, opts ...DeserializerOption) (*Deserializer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, serr.WrapErrDocumentRead(name, err)
	}
	return newDeserializer(name, data, opts...)
}

func newDeserializer(name string, data []byte, opts ...DeserializerOption) (d *Deserializer, err error) {
	opt := &deserializerOption{}
	for _, o := range opts {
		o(opt)
	}

	start := time.Now()
	format := opt.format
	defer func() {
		status := metrics.StatusSuccess
		if err != nil {
			status = metrics.StatusFail
		}
		metrics.DeserializeTotal.WithLabelValues(status, format.String()).Inc()
		metrics.PassDuration.WithLabelValues(metrics.OpDeserialize).
			Observe(float64(time.Since(start).Milliseconds()))
	}()

	if bytes.HasPrefix(data, zstdMagic) {
		zc, zerr := compressor.NewZstdCompressor()
		if zerr != nil {
			return nil, serr.WrapErrDocumentRead(name, zerr)
		}
		defer zc.Close()
		data, err = zc.Decompress(nil, data)
		if err != nil {
			return nil, serr.WrapErrDocumentRead(name, err)
		}
	}
	metrics.DocumentBytes.WithLabelValues(metrics.OpDeserialize).Observe(float64(len(data)))

	if !opt.hasFormat {
		format = sniffFormat(data)
	}

	var doc *dom.Document
	switch format {
	case FormatJSON:
		doc, err = dom.ReadJSON(bytes.NewReader(data))
	default:
		doc, err = dom.ReadXML(bytes.NewReader(data))
	}
	if err != nil {
		return nil, serr.WrapErrDocumentInvalid(err.Error(), name)
	}

	d = &Deserializer{
		fileName: name,
		format:   format,
		refs:     newRefResolver(),
	}
	d.doc = doc
	d.cursor = doc.Root
	d.SetLogger(log.With(log.FieldDocument(name)))

	if err = d.checkRoot(); err != nil {
		return nil, err
	}
	if err = d.checkVersion(); err != nil {
		return nil, err
	}
	return d, nil
}

// sniffFormat 按首个非空白字节识别格式：'{' 视为 JSON，其余按 XML 处理。
func sniffFormat(data []byte) Format {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatXML
}

func (d *Deserializer) checkRoot() error {
	if d.doc.Root == nil || d.doc.Root.Name != rootElementName {
		return serr.WrapErrDocumentInvalid("unexpected root element", d.fileName)
	}
	return nil
}

// checkVersion 实施版本兼容策略：
// 主版本不一致为硬错误；文档比读端新则告警后继续；缺失版本按 0.0.0 告警处理。
func (d *Deserializer) checkVersion() error {
	raw := d.doc.Version()
	if raw == "" {
		d.Logger().Warn("document carries no version attribute, assuming 0.0.0")
		return nil
	}

	v, err := semver.Parse(raw)
	if err != nil {
		return serr.WrapErrVersionMismatch(DocumentVersion, raw, "unparsable version")
	}
	if v.Major != engineVersion.Major {
		return serr.WrapErrVersionMismatch(DocumentVersion, raw)
	}
	if v.GT(engineVersion) {
		d.Logger().Warn("document written by a newer writer, unknown fields will be ignored",
			log.FieldVersion(raw),
			zap.String("engineVersion", DocumentVersion))
	}
	d.version = v
	return nil
}

// Version 返回文档自带的格式版本号，缺失时为零值。
func (d *Deserializer) Version() semver.Version {
	return d.version
}

// Deserialize 在当前游标下查找名为 key 的子元素并用它填充 obj。
// 子元素缺失为硬错误；可选字段请使用 DeserializeOptional。
//
// 若该元素携带 id 属性，obj 会在递归之前登记到引用表，
// 使环内与后续的占位节点都能取得同一实例。
func (d *Deserializer) Deserialize(key string, obj Serializable) error {
	node := d.cursor.FirstChild(key)
	if node == nil {
		return serr.WrapErrNodeMissing(key)
	}
	return d.into(node, obj)
}

// DeserializeOptional 与 Deserialize 相同，但子元素缺失时不视为错误，
// obj 保持原状并返回 found=false。
func (d *Deserializer) DeserializeOptional(key string, obj Serializable) (found bool, err error) {
	node := d.cursor.FirstChild(key)
	if node == nil {
		return false, nil
	}
	return true, d.into(node, obj)
}

func (d *Deserializer) into(node *dom.Element, obj Serializable) error {
	if id, ok := node.Attribute(idAttribute); ok {
		d.refs.resolve(id, obj)
	}

	restore := d.pushNode(node)
	defer restore()
	return obj.Deserialize(d)
}

// DeserializeContainer 把游标压入名为 key 的容器元素执行 visit。
// 容器缺失为硬错误。
func (d *Deserializer) DeserializeContainer(key string, visit func(d *Deserializer) error) error {
	node := d.cursor.FirstChild(key)
	if node == nil {
		return serr.WrapErrNodeMissing(key)
	}

	restore := d.pushNode(node)
	defer restore()
	return visit(d)
}

// DeserializeList 依次把游标压入名为 containerKey 的容器下
// 每个名为 itemKey 的子元素并执行 visit，顺序与文档一致。
// visit 内部可通过 Read 取回元素自身的属性（如 type、identifier）。
func (d *Deserializer) DeserializeList(containerKey, itemKey string, visit func(d *Deserializer) error) error {
	container := d.cursor.FirstChild(containerKey)
	if container == nil {
		return serr.WrapErrNodeMissing(containerKey)
	}

	for _, item := range container.ChildrenNamed(itemKey) {
		restore := d.pushNode(item)
		err := visit(d)
		restore()
		if err != nil {
			return err
		}
	}
	return nil
}

// Ref 读取一个引用感知的指针字段。
//
// 完整子树：*target 为空时先按 type 属性经工厂构造，再于递归之前
// 登记 id，随后下行填充；占位节点：引用已解析时立即共享同一实例，
// 未解析时挂起赋值回调，由 ResolveReferences 统一清算。
func Ref[T Serializable](d *Deserializer, key string, target *T) error {
	node := d.cursor.FirstChild(key)
	if node == nil {
		return serr.WrapErrNodeMissing(key)
	}

	if ref, ok := node.Attribute(referenceAttribute); ok {
		assign := func(obj Serializable) error {
			typed, ok := obj.(T)
			if !ok {
				return serr.WrapErrReferenceInvalid(ref, "referenced object has unexpected type")
			}
			*target = typed
			return nil
		}

		if obj, resolved := d.refs.lookup(ref); resolved {
			return assign(obj)
		}
		d.refs.enqueue(ref, assign)
		return nil
	}

	if isNilSerializable(*target) {
		tag, ok := node.Attribute(typeAttribute)
		if !ok {
			return serr.WrapErrAttributeMissing(typeAttribute, key)
		}
		created, err := construct(tag)
		if err != nil {
			return err
		}
		typed, ok := created.(T)
		if !ok {
			return serr.WrapErrTypeTagUnknown(tag, "factory product has unexpected type")
		}
		*target = typed
	}

	return d.into(node, *target)
}

// ResolveReferences 清算全部挂起的前向引用。
// 必须在整棵树走完后调用一次；悬空 id 汇总为 dangling reference 错误。
func (d *Deserializer) ResolveReferences() error {
	return d.refs.flush()
}
