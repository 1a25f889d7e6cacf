package serialization

import (
	"bytes"
	"context"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/lk2023060901/treedoc-garden-go/internal/compressor"
	"github.com/lk2023060901/treedoc-garden-go/internal/dom"
	"github.com/lk2023060901/treedoc-garden-go/pkg/log"
	"github.com/lk2023060901/treedoc-garden-go/pkg/metrics"
	"github.com/lk2023060901/treedoc-garden-go/pkg/util/retry"
	"github.com/lk2023060901/treedoc-garden-go/pkg/util/serr"
)

// Serializer 将对象图深度优先写入一棵版本化文档树。
//
// 一次序列化遍历由单协程驱动；不同 Serializer 实例之间相互独立，
// 可以并发使用而无需额外同步。
type Serializer struct {
	serializeBase

	fileName  string
	format    Format
	allowRefs bool
	refs      *refTable
	compress  bool
	tracer    trace.Tracer
}

type serializerOption struct {
	format      Format
	allowRefs   bool
	compression bool
	tracerProv  trace.TracerProvider
}

// SerializerOption 用于配置 Serializer 行为的选项函数。
type SerializerOption func(*serializerOption)

// WithFormat 指定落盘格式，默认 XML。
func WithFormat(format Format) SerializerOption {
	return func(opt *serializerOption) {
		opt.format = format
	}
}

// WithoutReferences 关闭引用检测：共享子图按值重复写出，环会导致遍历不终止。
// 仅在确认对象图为纯树时使用。
func WithoutReferences() SerializerOption {
	return func(opt *serializerOption) {
		opt.allowRefs = false
	}
}

// WithZstdCompression 开启 zstd 压缩，落盘前整块压缩编码结果。
func WithZstdCompression() SerializerOption {
	return func(opt *serializerOption) {
		opt.compression = true
	}
}

// WithTracerProvider 为每次落盘挂一个 otel span。
func WithTracerProvider(tp trace.TracerProvider) SerializerOption {
	return func(opt *serializerOption) {
		opt.tracerProv = tp
	}
}

// NewSerializer 创建绑定到 fileName 的 Serializer。
//
// 创建时即写好根元素、版本属性与编辑警告注释；
// fileName 仅在 WriteFile 时使用，通过 Write 写入流时可以为空。
func NewSerializer(fileName string, opts ...SerializerOption) (*Serializer, error) {
	opt := &serializerOption{
		format:    FormatXML,
		allowRefs: true,
	}
	for _, o := range opts {
		o(opt)
	}

	doc := dom.NewDocument(rootElementName, DocumentVersion)
	doc.Root.Comment = editWarning

	s := &Serializer{
		fileName:  fileName,
		format:    opt.format,
		allowRefs: opt.allowRefs,
		refs:      newRefTable(),
	}
	s.doc = doc
	s.cursor = doc.Root
	s.SetLogger(log.With(log.FieldDocument(fileName), log.FieldFormat(opt.format.String())))

	s.compress = opt.compression
	if opt.tracerProv != nil {
		s.tracer = opt.tracerProv.Tracer("treedoc")
	}
	return s, nil
}

// Serialize 在当前游标下写出一个对象。
//
// 每次调用恰好创建一个名为 key 的子元素，嵌套深度与调用嵌套一一对应。
// 开启引用检测时，同一身份第二次出现只写占位节点，不再递归；
// 身份表项在递归之前登记，因此真环同样会被截断。
// 失败时已挂入文档的节点不回滚，文档保持结构合法。
func (s *Serializer) Serialize(key string, obj Serializable) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if isNilSerializable(obj) {
		return serr.WrapErrKeyInvalid(key, "cannot serialize nil object")
	}

	node := dom.NewElement(key)
	if tagged, ok := obj.(TypeTagged); ok {
		node.SetAttribute(typeAttribute, tagged.TypeTag())
	}
	s.cursor.AppendChild(node)

	if s.allowRefs {
		entry, isNew := s.refs.assignOrLookup(obj)
		entry.nodes = append(entry.nodes, node)
		if !isNew {
			// 占位节点，id/reference 属性在落盘前统一补写。
			return nil
		}
	}

	restore := s.pushNode(node)
	defer restore()
	return obj.Serialize(s)
}

// SerializeContainer 在当前游标下创建名为 key 的容器元素，
// 并把游标压入该容器执行 fill，适合写出对象列表等同名子元素集合。
func (s *Serializer) SerializeContainer(key string, fill func(s *Serializer) error) error {
	if err := validateKey(key); err != nil {
		return err
	}

	node := dom.NewElement(key)
	s.cursor.AppendChild(node)

	restore := s.pushNode(node)
	defer restore()
	return fill(s)
}

// Write 完成引用属性补写后把文档编码写入 w。
func (s *Serializer) Write(ctx context.Context, w io.Writer) error {
	data, err := s.finalize(ctx)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return serr.WrapErrDocumentWrite(s.fileName, err)
	}
	return nil
}

// WriteFile 完成引用属性补写后把文档原子落盘：
// 先写临时文件再重命名，失败时目标文件与内存文档都保持原样，
// 瞬时 I/O 错误按可重试策略重试。
func (s *Serializer) WriteFile(ctx context.Context) error {
	data, err := s.finalize(ctx)
	if err != nil {
		return err
	}

	err = retry.Do(ctx, func() error {
		tmp := s.fileName + ".tmp"
		if err := os.WriteFile(tmp, data, 0o600); err != nil {
			return serr.WrapErrDocumentWrite(s.fileName, err)
		}
		if err := os.Rename(tmp, s.fileName); err != nil {
			_ = os.Remove(tmp)
			return serr.WrapErrDocumentWrite(s.fileName, err)
		}
		return nil
	}, retry.Attempts(3), retry.Sleep(50*time.Millisecond), retry.RetryErr(serr.IsRetryableErr))
	if err != nil {
		s.Logger().Warn("failed to write document file", zap.Error(err))
		return err
	}

	s.Logger().Debug("document file written", zap.Int("bytes", len(data)))
	return nil
}

// finalize 补写引用属性并编码整棵文档，返回待落盘的字节块。
func (s *Serializer) finalize(ctx context.Context) (data []byte, err error) {
	if s.tracer != nil {
		var span trace.Span
		_, span = s.tracer.Start(ctx, "treedoc.serialize")
		defer span.End()
	}

	start := time.Now()
	defer func() {
		status := metrics.StatusSuccess
		if err != nil {
			status = metrics.StatusFail
		}
		metrics.SerializeTotal.WithLabelValues(status, s.format.String()).Inc()
		metrics.PassDuration.WithLabelValues(metrics.OpSerialize).
			Observe(float64(time.Since(start).Milliseconds()))
	}()

	referenced := s.refs.setReferenceAttributes()
	metrics.ReferencedNodes.Observe(float64(referenced))

	var buf bytes.Buffer
	switch s.format {
	case FormatJSON:
		err = s.doc.WriteJSON(&buf)
	default:
		err = s.doc.WriteXML(&buf)
	}
	if err != nil {
		return nil, serr.WrapErrDocumentWrite(s.fileName, err)
	}

	data = buf.Bytes()
	if s.compress {
		zc, zerr := compressor.NewZstdCompressor()
		if zerr != nil {
			return nil, serr.WrapErrDocumentWrite(s.fileName, zerr)
		}
		defer zc.Close()
		data, err = zc.Compress(nil, data)
		if err != nil {
			return nil, serr.WrapErrDocumentWrite(s.fileName, err)
		}
	}

	metrics.DocumentBytes.WithLabelValues(metrics.OpSerialize).Observe(float64(len(data)))
	return data, nil
}
