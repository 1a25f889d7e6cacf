package serialization

import (
	"strings"

	"github.com/lk2023060901/treedoc-garden-go/pkg/util/serr"
	"github.com/lk2023060901/treedoc-garden-go/pkg/util/typeutil"
)

// pendingRef 表示一个尚未就绪的前向引用：
// 目标 id 被解析出来后，通过 assign 回调把对象写回引用方字段。
type pendingRef struct {
	id     string
	assign func(Serializable) error
}

// refResolver 在一次反序列化遍历内维护“引用 id -> 已重建对象”的映射。
//
// 占位节点命中已解析的 id 时立即取得共享实例；
// 命中尚未解析的 id 时挂入 pending 列表，待整棵树走完后统一清算。
type refResolver struct {
	resolved map[string]Serializable
	pending  []pendingRef
}

func newRefResolver() *refResolver {
	return &refResolver{
		resolved: make(map[string]Serializable),
	}
}

// resolve 登记一个 id 对应的已重建对象。
// 必须在递归进入该对象的子树之前调用，环内的引用才能命中。
func (r *refResolver) resolve(id string, obj Serializable) {
	r.resolved[id] = obj
}

func (r *refResolver) lookup(id string) (Serializable, bool) {
	obj, ok := r.resolved[id]
	return obj, ok
}

// enqueue 挂起一个前向引用，等待 flush 时赋值。
func (r *refResolver) enqueue(id string, assign func(Serializable) error) {
	r.pending = append(r.pending, pendingRef{id: id, assign: assign})
}

// flush 清算全部挂起的前向引用。
// 仍然悬空的 id 汇总为一个 dangling reference 错误返回。
func (r *refResolver) flush() error {
	var (
		errs     []error
		dangling []string
		seen     = typeutil.NewSet[string]()
	)

	for _, p := range r.pending {
		obj, ok := r.resolved[p.id]
		if !ok {
			if !seen.Contain(p.id) {
				seen.Insert(p.id)
				dangling = append(dangling, p.id)
			}
			continue
		}
		if err := p.assign(obj); err != nil {
			errs = append(errs, err)
		}
	}
	r.pending = nil

	if len(dangling) > 0 {
		errs = append(errs, serr.WrapErrReferenceDangling(strings.Join(dangling, ",")))
	}
	return serr.Combine(errs...)
}
