package serialization

import (
	"reflect"
	"sync"

	"github.com/lk2023060901/treedoc-garden-go/pkg/util/serr"
)

// Serializable 是所有参与序列化的对象必须实现的能力。
//
// 两个方法都在“当前游标”处读写：Serialize 把自身字段写入当前元素，
// Deserialize 从当前元素恢复自身字段。实现方不需要关心自身在文档中的位置。
//
// 参与对象一律以指针形式实现并传入：引用检测把接口值本身当作身份，
// 按指针相等判定“同一个对象”。
type Serializable interface {
	Serialize(s *Serializer) error
	Deserialize(d *Deserializer) error
}

// TypeTagged 为可多态重建的对象提供稳定的类型标识。
//
// 实现该接口的对象在写出时会携带 type 属性，
// 反序列化时通过工厂按该标识重新构造实例。
type TypeTagged interface {
	TypeTag() string
}

var (
	factoryMu sync.RWMutex
	factories = make(map[string]func() Serializable)
)

// Register 将类型标识与构造函数注册到全局工厂。
// 同一标识重复注册会 panic，通常在包的 init 函数中调用。
func Register(tag string, constructor func() Serializable) {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	if _, ok := factories[tag]; ok {
		panic(serr.WrapErrTypeTagDuplicated(tag))
	}
	factories[tag] = constructor
}

// Create 按注册的类型标识构造一个新实例，
// 供客户端包在反序列化多态列表时使用。
func Create(tag string) (Serializable, error) {
	return construct(tag)
}

// isNilSerializable 判断接口值是否为空，包括装入接口的带类型空指针。
// 直接与 nil 比较对带类型空指针恒为 false，对其调用方法会 panic。
func isNilSerializable(obj Serializable) bool {
	if obj == nil {
		return true
	}
	v := reflect.ValueOf(obj)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// construct 按类型标识构造一个新实例。
func construct(tag string) (Serializable, error) {
	factoryMu.RLock()
	constructor, ok := factories[tag]
	factoryMu.RUnlock()

	if !ok {
		return nil, serr.WrapErrTypeTagUnknown(tag)
	}
	return constructor(), nil
}
