// Package search answers student lookups on top of an ordered index.
//
// Only enrollment-number lookups use the index ordering. Roll, name and
// division lookups walk the whole index in order and cost O(n).
package search

import (
	"strings"

	"github.com/pkg/errors"

	"rollcall/pkg/common"
)

// Index is the subset of an ordered student index the service needs.
type Index interface {
	Insert(rec common.StudentRecord) bool
	Replace(rec common.StudentRecord) bool
	Search(enrollmentNo string) (common.StudentRecord, bool)
	Delete(enrollmentNo string) bool
	InOrder() []common.StudentRecord
	Ascend(fn func(common.StudentRecord) bool)
	Size() int
}

type SearchService struct {
	index Index
}

func NewSearchService(index Index) *SearchService {
	return &SearchService{index: index}
}

func (s *SearchService) AddStudent(rec common.StudentRecord) bool {
	return s.index.Insert(rec)
}

// ReplaceStudent updates an indexed student in one step, so concurrent
// readers see either the old or the new record.
func (s *SearchService) ReplaceStudent(rec common.StudentRecord) bool {
	return s.index.Replace(rec)
}

func (s *SearchService) RemoveStudent(enrollmentNo string) bool {
	return s.index.Delete(enrollmentNo)
}

func (s *SearchService) FindByEnrollment(enrollmentNo string) (common.StudentRecord, error) {
	rec, ok := s.index.Search(enrollmentNo)
	if !ok {
		return common.StudentRecord{}, errors.Wrapf(common.ErrStudentNotFound, "enrollment %q", enrollmentNo)
	}
	return rec, nil
}

// FindByRoll returns the first student in enrollment order with the given
// roll number. Roll numbers repeat across divisions.
func (s *SearchService) FindByRoll(rollNo int) (common.StudentRecord, error) {
	var (
		found common.StudentRecord
		ok    bool
	)
	s.index.Ascend(func(rec common.StudentRecord) bool {
		if rec.RollNo == rollNo {
			found, ok = rec, true
			return false
		}
		return true
	})
	if !ok {
		return common.StudentRecord{}, errors.Wrapf(common.ErrStudentNotFound, "roll %d", rollNo)
	}
	return found, nil
}

// FindByName matches text as a case-insensitive substring of the name.
func (s *SearchService) FindByName(text string) []common.StudentRecord {
	needle := strings.ToLower(text)
	return s.filter(func(rec common.StudentRecord) bool {
		return strings.Contains(strings.ToLower(rec.Name), needle)
	})
}

func (s *SearchService) FindByDivision(divisionID int64) []common.StudentRecord {
	return s.filter(func(rec common.StudentRecord) bool {
		return rec.DivisionID == divisionID
	})
}

func (s *SearchService) All() []common.StudentRecord {
	return s.index.InOrder()
}

func (s *SearchService) Size() int {
	return s.index.Size()
}

func (s *SearchService) filter(match func(common.StudentRecord) bool) []common.StudentRecord {
	out := []common.StudentRecord{}
	s.index.Ascend(func(rec common.StudentRecord) bool {
		if match(rec) {
			out = append(out, rec)
		}
		return true
	})
	return out
}
