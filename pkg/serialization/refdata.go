package serialization

import (
	"fmt"

	"github.com/lk2023060901/treedoc-garden-go/internal/dom"
	"github.com/lk2023060901/treedoc-garden-go/pkg/util/typeutil"
)

// refEntry 记录一个身份在本次遍历中的引用信息：
// 分配到的 id，以及引用该身份的全部文档节点（首个为完整子树，其余为占位节点）。
type refEntry struct {
	id    typeutil.RefID
	nodes []*dom.Element
}

// refTable 在一次序列化遍历内维护“对象身份 -> 引用 id”的双射。
//
// 身份即 Serializable 接口值本身（按指针相等比较）；
// id 从 1 开始单调分配，一次遍历内从不复用。
type refTable struct {
	entries map[Serializable]*refEntry
	order   []*refEntry
	next    typeutil.RefID
}

func newRefTable() *refTable {
	return &refTable{
		entries: make(map[Serializable]*refEntry),
		next:    1,
	}
}

// assignOrLookup 返回对象身份对应的表项。
// 首次遇到时分配新 id 并返回 isNew=true；再次遇到返回已有表项。
//
// 表项在递归写出子树之前登记，因此正在写出中的节点（真环）
// 再次进入时同样会命中该表项并退化为占位节点。
func (t *refTable) assignOrLookup(obj Serializable) (entry *refEntry, isNew bool) {
	if entry, ok := t.entries[obj]; ok {
		return entry, false
	}

	entry = &refEntry{id: t.next}
	t.next++
	t.entries[obj] = entry
	t.order = append(t.order, entry)
	return entry, true
}

// setReferenceAttributes 在整棵树遍历完成后统一补写 id/reference 属性。
//
// 只有被多个节点引用的身份才需要属性：首个节点写 id，其余节点写 reference。
// 该操作幂等，可在多次落盘之间重复执行。返回补写属性的身份个数。
func (t *refTable) setReferenceAttributes() int {
	count := 0
	for _, entry := range t.order {
		if len(entry.nodes) < 2 {
			continue
		}
		count++

		ref := refValue(entry.id)
		entry.nodes[0].SetAttribute(idAttribute, ref)
		for _, node := range entry.nodes[1:] {
			node.SetAttribute(referenceAttribute, ref)
		}
	}
	return count
}

// refValue 返回引用 id 的文档表示，形如 "ref3"。
func refValue(id typeutil.RefID) string {
	return fmt.Sprintf("ref%d", id)
}
