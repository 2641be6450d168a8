package storage

import (
	"database/sql"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"rollcall/pkg/common"
)

const createStudentTable = `
CREATE TABLE IF NOT EXISTS student (
	enrollment_no TEXT PRIMARY KEY,
	student_id    BIGINT NOT NULL DEFAULT 0,
	user_id       BIGINT NOT NULL DEFAULT 0,
	roll_no       INTEGER NOT NULL,
	name          TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL DEFAULT '',
	dept_id       BIGINT NOT NULL DEFAULT 0,
	division_id   BIGINT NOT NULL DEFAULT 0,
	semester_id   BIGINT NOT NULL DEFAULT 0,
	mentor_id     BIGINT NOT NULL DEFAULT 0
);`

const studentColumns = `enrollment_no, student_id, user_id, roll_no, name, email, dept_id, division_id, semester_id, mentor_id`

const upsertStudent = `
INSERT INTO student (` + studentColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (enrollment_no) DO UPDATE SET
	student_id = excluded.student_id,
	user_id = excluded.user_id,
	roll_no = excluded.roll_no,
	name = excluded.name,
	email = excluded.email,
	dept_id = excluded.dept_id,
	division_id = excluded.division_id,
	semester_id = excluded.semester_id,
	mentor_id = excluded.mentor_id`

// SQLBackend stores students in a relational table. The same statements run
// on SQLite and PostgreSQL; placeholders are rebound per driver.
type SQLBackend struct {
	db       *sql.DB
	mu       sync.Mutex
	dollarPH bool
}

func NewSQLiteBackend(path string) (*SQLBackend, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "create data dir")
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	_, err = db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
	`)
	if err != nil {
		log.Printf("[Storage] Warning: Failed to set PRAGMA: %v", err)
	}

	return newSQLBackend(db, false)
}

func NewPostgresBackend(dsn string) (*SQLBackend, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	return newSQLBackend(db, true)
}

func newSQLBackend(db *sql.DB, dollarPH bool) (*SQLBackend, error) {
	if _, err := db.Exec(createStudentTable); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "init student table")
	}
	return &SQLBackend{db: db, dollarPH: dollarPH}, nil
}

// rebind rewrites ? placeholders to $1..$n for PostgreSQL.
func (s *SQLBackend) rebind(query string) string {
	if !s.dollarPH {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLBackend) Put(rec common.StudentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(s.rebind(upsertStudent),
		rec.EnrollmentNo, rec.StudentID, rec.UserID, rec.RollNo, rec.Name, rec.Email,
		rec.DeptID, rec.DivisionID, rec.SemesterID, rec.MentorID)
	return errors.Wrapf(err, "upsert student %s", rec.EnrollmentNo)
}

func (s *SQLBackend) Delete(enrollmentNo string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(s.rebind("DELETE FROM student WHERE enrollment_no = ?"), enrollmentNo)
	if err != nil {
		return false, errors.Wrapf(err, "delete student %s", enrollmentNo)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStudent(row rowScanner) (common.StudentRecord, error) {
	var r common.StudentRecord
	err := row.Scan(&r.EnrollmentNo, &r.StudentID, &r.UserID, &r.RollNo, &r.Name, &r.Email,
		&r.DeptID, &r.DivisionID, &r.SemesterID, &r.MentorID)
	return r, err
}

func (s *SQLBackend) Get(enrollmentNo string) (common.StudentRecord, bool, error) {
	row := s.db.QueryRow(s.rebind("SELECT "+studentColumns+" FROM student WHERE enrollment_no = ?"), enrollmentNo)
	rec, err := scanStudent(row)
	if err == sql.ErrNoRows {
		return common.StudentRecord{}, false, nil
	}
	if err != nil {
		return common.StudentRecord{}, false, errors.Wrapf(err, "get student %s", enrollmentNo)
	}
	return rec, true, nil
}

func (s *SQLBackend) LoadAll() ([]common.StudentRecord, error) {
	rows, err := s.db.Query("SELECT " + studentColumns + " FROM student ORDER BY enrollment_no ASC")
	if err != nil {
		return nil, errors.Wrap(err, "load students")
	}
	defer rows.Close()

	var records []common.StudentRecord
	for rows.Next() {
		rec, err := scanStudent(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan student")
		}
		records = append(records, rec)
	}
	return records, errors.Wrap(rows.Err(), "iterate students")
}

func (s *SQLBackend) Truncate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM student")
	return errors.Wrap(err, "truncate student")
}

func (s *SQLBackend) Close() error {
	return s.db.Close()
}
