package serialization

import (
	"math"
	"strconv"

	"github.com/lk2023060901/treedoc-garden-go/internal/dom"
	"github.com/lk2023060901/treedoc-garden-go/pkg/util/serr"
)

// Scalar 为可直接落盘的标量类型集合。
type Scalar interface {
	bool |
		int | int8 | int16 | int32 | int64 |
		uint | uint8 | uint16 | uint32 | uint64 |
		float32 | float64 |
		string
}

// Write 写出一个标量。
//
// asAttribute 为 true 时写成当前元素的属性，不产生子节点；
// 为 false 时创建名为 key 的子元素，值作为文本内容。
// 所有整数（含 int8/uint8）统一经 int64/uint64 十进制文本编码，
// 避免文本后端把单字节数值当作字符处理。
func Write[T Scalar](s *Serializer, key string, value T, asAttribute bool) error {
	if err := validateKey(key); err != nil {
		return err
	}

	text := formatScalar(value)
	if asAttribute {
		s.cursor.SetAttribute(key, text)
		return nil
	}

	node := dom.NewElement(key)
	node.SetText(text)
	s.cursor.AppendChild(node)
	return nil
}

// WriteScalarSlice 写出一个有序标量集合：
// 在当前元素下创建名为 key 的容器元素，每个值一个名为 itemKey 的子元素，顺序保留。
func WriteScalarSlice[T Scalar](s *Serializer, key, itemKey string, values []T) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := validateKey(itemKey); err != nil {
		return err
	}

	container := dom.NewElement(key)
	s.cursor.AppendChild(container)
	for _, value := range values {
		item := dom.NewElement(itemKey)
		item.SetText(formatScalar(value))
		container.AppendChild(item)
	}
	return nil
}

// Read 读取一个标量：先查当前元素的同名属性，再查子元素文本。
// 两处都不存在时返回 node/attribute missing 错误。
func Read[T Scalar](d *Deserializer, key string) (T, error) {
	var out T

	if raw, ok := d.cursor.Attribute(key); ok {
		err := parseScalar(key, raw, &out)
		return out, err
	}

	node := d.cursor.FirstChild(key)
	if node == nil {
		return out, serr.WrapErrNodeMissing(key)
	}
	err := parseScalar(key, node.Text, &out)
	return out, err
}

// ReadDefault 读取一个可选标量。
// 字段缺失时返回给定默认值；存在但无法解析时仍返回错误。
func ReadDefault[T Scalar](d *Deserializer, key string, fallback T) (T, error) {
	if !d.cursor.HasAttribute(key) && d.cursor.FirstChild(key) == nil {
		return fallback, nil
	}
	return Read[T](d, key)
}

// ReadScalarSlice 读取 WriteScalarSlice 写出的有序标量集合。
// 容器元素缺失时返回 node missing 错误；空容器返回空切片。
func ReadScalarSlice[T Scalar](d *Deserializer, key, itemKey string) ([]T, error) {
	container := d.cursor.FirstChild(key)
	if container == nil {
		return nil, serr.WrapErrNodeMissing(key)
	}

	items := container.ChildrenNamed(itemKey)
	values := make([]T, 0, len(items))
	for _, item := range items {
		var value T
		if err := parseScalar(itemKey, item.Text, &value); err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

func formatScalar(v any) string {
	switch x := v.(type) {
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.FormatInt(int64(x), 10)
	case int8:
		// 8 位整数显式拓宽后编码。
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	default:
		// Scalar 约束保证不可达。
		panic("unsupported scalar type")
	}
}

func parseScalar[T Scalar](key, raw string, out *T) error {
	switch p := any(out).(type) {
	case *bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return serr.WrapErrValueFormat(key, raw, err)
		}
		*p = v
	case *int:
		v, err := parseSigned(key, raw, math.MinInt, math.MaxInt)
		if err != nil {
			return err
		}
		*p = int(v)
	case *int8:
		v, err := parseSigned(key, raw, math.MinInt8, math.MaxInt8)
		if err != nil {
			return err
		}
		*p = int8(v)
	case *int16:
		v, err := parseSigned(key, raw, math.MinInt16, math.MaxInt16)
		if err != nil {
			return err
		}
		*p = int16(v)
	case *int32:
		v, err := parseSigned(key, raw, math.MinInt32, math.MaxInt32)
		if err != nil {
			return err
		}
		*p = int32(v)
	case *int64:
		v, err := parseSigned(key, raw, math.MinInt64, math.MaxInt64)
		if err != nil {
			return err
		}
		*p = v
	case *uint:
		v, err := parseUnsigned(key, raw, math.MaxUint)
		if err != nil {
			return err
		}
		*p = uint(v)
	case *uint8:
		v, err := parseUnsigned(key, raw, math.MaxUint8)
		if err != nil {
			return err
		}
		*p = uint8(v)
	case *uint16:
		v, err := parseUnsigned(key, raw, math.MaxUint16)
		if err != nil {
			return err
		}
		*p = uint16(v)
	case *uint32:
		v, err := parseUnsigned(key, raw, math.MaxUint32)
		if err != nil {
			return err
		}
		*p = uint32(v)
	case *uint64:
		v, err := parseUnsigned(key, raw, math.MaxUint64)
		if err != nil {
			return err
		}
		*p = v
	case *float32:
		v, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return serr.WrapErrValueFormat(key, raw, err)
		}
		*p = float32(v)
	case *float64:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return serr.WrapErrValueFormat(key, raw, err)
		}
		*p = v
	case *string:
		*p = raw
	default:
		panic("unsupported scalar type")
	}
	return nil
}

// parseSigned 以 64 位解析十进制文本，再按目标类型范围校验。
// 语法错误与范围错误区分为不同的错误码。
func parseSigned(key, raw string, lower, upper int64) (int64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
			return 0, serr.WrapErrValueOutOfRange(key, lower, upper, v)
		}
		return 0, serr.WrapErrValueFormat(key, raw, err)
	}
	if v < lower || v > upper {
		return 0, serr.WrapErrValueOutOfRange(key, lower, upper, v)
	}
	return v, nil
}

func parseUnsigned(key, raw string, upper uint64) (uint64, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
			return 0, serr.WrapErrValueOutOfRange(key, uint64(0), upper, v)
		}
		return 0, serr.WrapErrValueFormat(key, raw, err)
	}
	if v > upper {
		return 0, serr.WrapErrValueOutOfRange(key, uint64(0), upper, v)
	}
	return v, nil
}
