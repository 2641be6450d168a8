package memory

import (
	"testing"

	"rollcall/pkg/common"
)

func rec(no string) common.StudentRecord {
	return common.StudentRecord{EnrollmentNo: no, RollNo: 1}
}

func TestMemTableOrderAndDuplicates(t *testing.T) {
	mt := NewMemTable(4, nil)
	for _, no := range []string{"E010", "E005", "E020", "E003", "E008"} {
		if !mt.Insert(rec(no)) {
			t.Fatalf("insert %s failed", no)
		}
	}
	if mt.Insert(common.StudentRecord{EnrollmentNo: "E005", RollNo: 9}) {
		t.Fatal("expected duplicate insert to be rejected")
	}
	if got, _ := mt.Search("E005"); got.RollNo != 1 {
		t.Fatalf("duplicate overwrote original: roll=%d", got.RollNo)
	}

	want := []string{"E003", "E005", "E008", "E010", "E020"}
	got := mt.InOrder()
	if len(got) != len(want) || mt.Size() != len(want) {
		t.Fatalf("expected %d records, got len=%d size=%d", len(want), len(got), mt.Size())
	}
	for i := range want {
		if got[i].EnrollmentNo != want[i] {
			t.Fatalf("position %d: got %s want %s", i, got[i].EnrollmentNo, want[i])
		}
	}
}

func TestMemTableDeleteAndValidate(t *testing.T) {
	mt := NewMemTable(4, nil)
	if mt.Insert(common.StudentRecord{EnrollmentNo: "E001"}) {
		t.Fatal("expected record without roll number to be rejected")
	}
	mt.Insert(rec("E001"))
	mt.Insert(rec("E002"))

	if !mt.Delete("E001") {
		t.Fatal("expected delete of E001 to succeed")
	}
	if mt.Delete("ZZZZ") {
		t.Fatal("expected delete of missing key to fail")
	}
	if _, ok := mt.Search("E001"); ok {
		t.Fatal("E001 still present after delete")
	}
	if mt.Size() != 1 {
		t.Fatalf("expected size 1, got %d", mt.Size())
	}
}

func TestMemTableReplace(t *testing.T) {
	mt := NewMemTable(4, nil)
	mt.Insert(rec("E001"))

	if !mt.Replace(common.StudentRecord{EnrollmentNo: "E001", RollNo: 7}) {
		t.Fatal("replace of existing key failed")
	}
	if got, _ := mt.Search("E001"); got.RollNo != 7 {
		t.Fatalf("expected roll 7, got %d", got.RollNo)
	}
	if mt.Replace(rec("E002")) {
		t.Fatal("replace must not insert absent keys")
	}
	if mt.Size() != 1 {
		t.Fatalf("expected size 1, got %d", mt.Size())
	}
}
