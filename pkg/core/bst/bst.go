// Package bst implements the ordered student index as an unbalanced binary
// search tree keyed by enrollment number.
//
// Keys compare as plain strings, so "E10" sorts before "E9". Enrollment
// numbers are expected to be zero-padded by the issuing college.
package bst

import (
	"sync"

	"rollcall/pkg/common"
)

type node struct {
	rec   common.StudentRecord
	left  *node
	right *node
}

// StudentBST is safe for concurrent use. Every public method holds the tree
// lock for its whole duration.
type StudentBST struct {
	mu       sync.RWMutex
	root     *node
	size     int
	validate func(common.StudentRecord) bool
}

// New returns an empty tree. A nil validate falls back to
// common.StudentRecord.Validate.
func New(validate func(common.StudentRecord) bool) *StudentBST {
	if validate == nil {
		validate = common.StudentRecord.Validate
	}
	return &StudentBST{validate: validate}
}

func (t *StudentBST) Type() string { return "BST" }

func (t *StudentBST) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.size
}

// Insert places rec in key order. It returns false without touching the
// tree when rec fails validation or its key is already present.
func (t *StudentBST) Insert(rec common.StudentRecord) bool {
	if !t.validate(rec) {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	link := &t.root
	for *link != nil {
		n := *link
		switch {
		case rec.EnrollmentNo < n.rec.EnrollmentNo:
			link = &n.left
		case rec.EnrollmentNo > n.rec.EnrollmentNo:
			link = &n.right
		default:
			return false
		}
	}
	*link = &node{rec: rec}
	t.size++
	return true
}

// Replace overwrites the record stored under rec's key in place. It returns
// false when rec fails validation or the key is absent; the tree shape and
// size never change.
func (t *StudentBST) Replace(rec common.StudentRecord) bool {
	if !t.validate(rec) {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.root
	for n != nil {
		switch {
		case rec.EnrollmentNo < n.rec.EnrollmentNo:
			n = n.left
		case rec.EnrollmentNo > n.rec.EnrollmentNo:
			n = n.right
		default:
			n.rec = rec
			return true
		}
	}
	return false
}

// Search returns the record stored under key. The bool is false on a miss;
// the zero record returned alongside it carries no meaning.
func (t *StudentBST) Search(key string) (common.StudentRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := t.root
	for n != nil {
		switch {
		case key < n.rec.EnrollmentNo:
			n = n.left
		case key > n.rec.EnrollmentNo:
			n = n.right
		default:
			return n.rec, true
		}
	}
	return common.StudentRecord{}, false
}

// Delete removes key and reports whether a node was removed.
func (t *StudentBST) Delete(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	var removed bool
	t.root, removed = deleteNode(t.root, key)
	if removed {
		t.size--
	}
	return removed
}

// deleteNode returns the new root of the subtree at n.
func deleteNode(n *node, key string) (*node, bool) {
	if n == nil {
		return nil, false
	}

	var removed bool
	switch {
	case key < n.rec.EnrollmentNo:
		n.left, removed = deleteNode(n.left, key)
		return n, removed
	case key > n.rec.EnrollmentNo:
		n.right, removed = deleteNode(n.right, key)
		return n, removed
	}

	if n.left == nil {
		return n.right, true
	}
	if n.right == nil {
		return n.left, true
	}
	promoteSuccessor(n)
	return n, true
}

// promoteSuccessor overwrites n with its in-order successor and unlinks the
// successor from the right subtree. n must have two children. The element
// count drops by one in total; the copy into n is a relabel, not an insert.
func promoteSuccessor(n *node) {
	succ := minNode(n.right)
	n.rec = succ.rec
	n.right, _ = deleteNode(n.right, succ.rec.EnrollmentNo)
}

func minNode(n *node) *node {
	for n.left != nil {
		n = n.left
	}
	return n
}

// Ascend calls fn for each record in ascending key order until fn returns
// false. fn runs under the read lock and must not mutate the tree.
func (t *StudentBST) Ascend(fn func(common.StudentRecord) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var stack []*node
	n := t.root
	for n != nil || len(stack) > 0 {
		for n != nil {
			stack = append(stack, n)
			n = n.left
		}
		n = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n.rec) {
			return
		}
		n = n.right
	}
}

// InOrder materializes the full ascending traversal.
func (t *StudentBST) InOrder() []common.StudentRecord {
	out := make([]common.StudentRecord, 0, t.Size())
	t.Ascend(func(rec common.StudentRecord) bool {
		out = append(out, rec)
		return true
	})
	return out
}

// Height is the number of nodes on the longest root-to-leaf path.
func (t *StudentBST) Height() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return height(t.root)
}

func height(n *node) int {
	if n == nil {
		return 0
	}
	l, r := height(n.left), height(n.right)
	if l > r {
		return l + 1
	}
	return r + 1
}
