package storage

import (
	"encoding/json"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"

	"rollcall/pkg/common"
)

const studentPrefix = "student/"

// PebbleBackend keeps one JSON document per student under
// student/<enrollment_no>. Pebble iterates keys in byte order, which is the
// index order. mu serializes writers so Delete's existence check and the
// delete happen as one step.
type PebbleBackend struct {
	db *pebble.DB
	mu sync.Mutex
}

func NewPebbleBackend(dir string) (*PebbleBackend, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "open pebble")
	}
	return &PebbleBackend{db: db}, nil
}

func keyFor(enrollmentNo string) []byte {
	return []byte(studentPrefix + enrollmentNo)
}

func (p *PebbleBackend) Put(rec common.StudentRecord) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "encode student")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return errors.Wrapf(p.db.Set(keyFor(rec.EnrollmentNo), val, pebble.Sync), "put student %s", rec.EnrollmentNo)
}

func (p *PebbleBackend) Delete(enrollmentNo string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, found, err := p.Get(enrollmentNo)
	if err != nil || !found {
		return false, err
	}
	if err := p.db.Delete(keyFor(enrollmentNo), pebble.Sync); err != nil {
		return false, errors.Wrapf(err, "delete student %s", enrollmentNo)
	}
	return true, nil
}

func (p *PebbleBackend) Get(enrollmentNo string) (common.StudentRecord, bool, error) {
	val, closer, err := p.db.Get(keyFor(enrollmentNo))
	if err == pebble.ErrNotFound {
		return common.StudentRecord{}, false, nil
	}
	if err != nil {
		return common.StudentRecord{}, false, errors.Wrapf(err, "get student %s", enrollmentNo)
	}
	defer closer.Close()

	var rec common.StudentRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return common.StudentRecord{}, false, errors.Wrapf(err, "decode student %s", enrollmentNo)
	}
	return rec, true, nil
}

func (p *PebbleBackend) iter() (*pebble.Iterator, error) {
	return p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(studentPrefix),
		UpperBound: []byte("student0"), // '0' follows '/'
	})
}

func (p *PebbleBackend) LoadAll() ([]common.StudentRecord, error) {
	it, err := p.iter()
	if err != nil {
		return nil, errors.Wrap(err, "open iterator")
	}
	defer it.Close()

	var records []common.StudentRecord
	for it.First(); it.Valid(); it.Next() {
		var rec common.StudentRecord
		if err := json.Unmarshal(it.Value(), &rec); err != nil {
			return nil, errors.Wrapf(err, "decode %s", it.Key())
		}
		records = append(records, rec)
	}
	return records, errors.Wrap(it.Error(), "iterate students")
}

func (p *PebbleBackend) Truncate() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return errors.Wrap(
		p.db.DeleteRange([]byte(studentPrefix), []byte("student0"), pebble.Sync),
		"truncate students")
}

func (p *PebbleBackend) Close() error {
	return p.db.Close()
}
