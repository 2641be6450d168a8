package search_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/pkg/common"
	"rollcall/pkg/core/bst"
	"rollcall/pkg/core/memory"
	"rollcall/pkg/search"
)

var roster = []common.StudentRecord{
	{EnrollmentNo: "EN003", RollNo: 3, Name: "Rohan Kulkarni", DivisionID: 1},
	{EnrollmentNo: "EN001", RollNo: 1, Name: "Asha Patil", DivisionID: 1},
	{EnrollmentNo: "EN005", RollNo: 1, Name: "Meera Joshi", DivisionID: 2},
	{EnrollmentNo: "EN002", RollNo: 2, Name: "Sameer Patil", DivisionID: 2},
	{EnrollmentNo: "EN004", RollNo: 4, Name: "Kavya Rao", DivisionID: 1},
}

func newService(t *testing.T, idx search.Index) *search.SearchService {
	t.Helper()
	svc := search.NewSearchService(idx)
	for _, rec := range roster {
		require.True(t, svc.AddStudent(rec))
	}
	return svc
}

func enrollments(recs []common.StudentRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.EnrollmentNo
	}
	return out
}

func TestSearchService(t *testing.T) {
	indexes := map[string]func() search.Index{
		"bst":   func() search.Index { return bst.New(nil) },
		"btree": func() search.Index { return memory.NewMemTable(4, nil) },
	}

	for name, mk := range indexes {
		t.Run(name, func(t *testing.T) {
			svc := newService(t, mk())

			t.Run("FindByEnrollment", func(t *testing.T) {
				rec, err := svc.FindByEnrollment("EN004")
				require.NoError(t, err)
				assert.Equal(t, "Kavya Rao", rec.Name)

				_, err = svc.FindByEnrollment("EN999")
				assert.True(t, errors.Is(err, common.ErrStudentNotFound))
			})

			t.Run("FindByRollReturnsFirstInEnrollmentOrder", func(t *testing.T) {
				rec, err := svc.FindByRoll(1)
				require.NoError(t, err)
				assert.Equal(t, "EN001", rec.EnrollmentNo)

				_, err = svc.FindByRoll(99)
				assert.True(t, errors.Is(err, common.ErrStudentNotFound))
			})

			t.Run("FindByName", func(t *testing.T) {
				assert.Equal(t, []string{"EN001", "EN002"}, enrollments(svc.FindByName("PATIL")))
				assert.Empty(t, svc.FindByName("nobody"))
				assert.Len(t, svc.FindByName(""), len(roster))
			})

			t.Run("FindByDivision", func(t *testing.T) {
				assert.Equal(t, []string{"EN001", "EN003", "EN004"}, enrollments(svc.FindByDivision(1)))
				assert.NotNil(t, svc.FindByDivision(42))
				assert.Empty(t, svc.FindByDivision(42))
			})

			t.Run("All", func(t *testing.T) {
				assert.Equal(t, []string{"EN001", "EN002", "EN003", "EN004", "EN005"}, enrollments(svc.All()))
				assert.Equal(t, 5, svc.Size())
			})
		})
	}
}

func TestAddAndRemoveStudent(t *testing.T) {
	svc := newService(t, bst.New(nil))

	assert.False(t, svc.AddStudent(roster[0]), "duplicate enrollment")
	assert.False(t, svc.AddStudent(common.StudentRecord{Name: "no keys"}), "invalid record")

	assert.True(t, svc.RemoveStudent("EN003"))
	assert.False(t, svc.RemoveStudent("EN003"))
	assert.Equal(t, 4, svc.Size())

	_, err := svc.FindByEnrollment("EN003")
	assert.True(t, errors.Is(err, common.ErrStudentNotFound))
}
