package properties

import (
	"github.com/lk2023060901/treedoc-garden-go/pkg/serialization"
)

// 内建属性类型在包加载时登记到工厂，
// 反序列化时即可按 type 属性构造缺失的实例。
func init() {
	serialization.Register("org.treedoc.BoolProperty", func() serialization.Serializable {
		return NewBoolProperty("", false)
	})
	serialization.Register("org.treedoc.IntProperty", func() serialization.Serializable {
		return NewIntProperty("", 0)
	})
	serialization.Register("org.treedoc.FloatProperty", func() serialization.Serializable {
		return NewFloatProperty("", 0)
	})
	serialization.Register("org.treedoc.StringProperty", func() serialization.Serializable {
		return NewStringProperty("", "")
	})
	serialization.Register("org.treedoc.OptionProperty", func() serialization.Serializable {
		return NewOptionProperty("", nil, 0)
	})
	serialization.Register("org.treedoc.CompositeProperty", func() serialization.Serializable {
		return NewCompositeProperty("")
	})
	serialization.Register("org.treedoc.ListProperty", func() serialization.Serializable {
		return NewListProperty("", nil, "", 0)
	})
}
