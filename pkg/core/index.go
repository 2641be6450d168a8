package core

import (
	"fmt"

	"rollcall/pkg/common"
	"rollcall/pkg/core/bst"
	"rollcall/pkg/core/memory"
)

// StudentIndex 抽象接口，屏蔽 BST 与 B 树实现的差异
type StudentIndex interface {
	Insert(rec common.StudentRecord) bool
	Replace(rec common.StudentRecord) bool
	Search(enrollmentNo string) (common.StudentRecord, bool)
	Delete(enrollmentNo string) bool
	InOrder() []common.StudentRecord
	Ascend(fn func(common.StudentRecord) bool)
	Size() int
	Type() string // "BST", "BTree"
}

const (
	IndexBST   = "bst"
	IndexBTree = "btree"
)

var (
	_ StudentIndex = (*bst.StudentBST)(nil)
	_ StudentIndex = (*memory.MemTable)(nil)
)

// NewIndex builds an empty index of the given kind.
func NewIndex(kind string, validate func(common.StudentRecord) bool) (StudentIndex, error) {
	switch kind {
	case IndexBST, "":
		return bst.New(validate), nil
	case IndexBTree:
		return memory.NewMemTable(32, validate), nil
	default:
		return nil, fmt.Errorf("unknown index kind %q", kind)
	}
}
