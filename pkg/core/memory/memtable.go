package memory

import (
	"sync"

	"github.com/google/btree"

	"rollcall/pkg/common"
)

type Item struct {
	Rec common.StudentRecord
}

func (i Item) Less(than btree.Item) bool {
	return i.Rec.EnrollmentNo < than.(Item).Rec.EnrollmentNo
}

// MemTable is a B-tree backed student index with the same first-insert-wins
// contract as the BST.
type MemTable struct {
	tree     *btree.BTree
	lock     sync.RWMutex
	validate func(common.StudentRecord) bool
}

func NewMemTable(degree int, validate func(common.StudentRecord) bool) *MemTable {
	if validate == nil {
		validate = common.StudentRecord.Validate
	}
	return &MemTable{
		tree:     btree.New(degree),
		validate: validate,
	}
}

func (mt *MemTable) Type() string { return "BTree" }

func (mt *MemTable) Insert(rec common.StudentRecord) bool {
	if !mt.validate(rec) {
		return false
	}

	mt.lock.Lock()
	defer mt.lock.Unlock()

	item := Item{Rec: rec}
	if mt.tree.Has(item) {
		return false
	}
	mt.tree.ReplaceOrInsert(item)
	return true
}

// Replace swaps the stored record for an existing key. Absent keys are not
// inserted.
func (mt *MemTable) Replace(rec common.StudentRecord) bool {
	if !mt.validate(rec) {
		return false
	}

	mt.lock.Lock()
	defer mt.lock.Unlock()

	item := Item{Rec: rec}
	if !mt.tree.Has(item) {
		return false
	}
	mt.tree.ReplaceOrInsert(item)
	return true
}

func (mt *MemTable) Search(enrollmentNo string) (common.StudentRecord, bool) {
	mt.lock.RLock()
	defer mt.lock.RUnlock()

	res := mt.tree.Get(Item{Rec: common.StudentRecord{EnrollmentNo: enrollmentNo}})
	if res == nil {
		return common.StudentRecord{}, false
	}
	return res.(Item).Rec, true
}

func (mt *MemTable) Delete(enrollmentNo string) bool {
	mt.lock.Lock()
	defer mt.lock.Unlock()

	return mt.tree.Delete(Item{Rec: common.StudentRecord{EnrollmentNo: enrollmentNo}}) != nil
}

func (mt *MemTable) Size() int {
	mt.lock.RLock()
	defer mt.lock.RUnlock()
	return mt.tree.Len()
}

func (mt *MemTable) Ascend(fn func(common.StudentRecord) bool) {
	mt.lock.RLock()
	defer mt.lock.RUnlock()

	mt.tree.Ascend(func(i btree.Item) bool {
		return fn(i.(Item).Rec)
	})
}

func (mt *MemTable) InOrder() []common.StudentRecord {
	out := make([]common.StudentRecord, 0, mt.Size())
	mt.Ascend(func(rec common.StudentRecord) bool {
		out = append(out, rec)
		return true
	})
	return out
}
