package core

import (
	"context"
	"log"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"rollcall/pkg/common"
	"rollcall/pkg/config"
	"rollcall/pkg/core/structure"
	"rollcall/pkg/events"
	"rollcall/pkg/monitor"
	"rollcall/pkg/search"
	"rollcall/pkg/storage"
)

// Registry keeps the in-memory student index in step with the backing
// store. The store is written first; the index follows only on success.
type Registry struct {
	mu        sync.Mutex // serializes store+index mutations
	indexMu   sync.RWMutex
	index     StudentIndex
	search    *search.SearchService
	filter    *structure.BloomFilter
	backend   storage.Backend
	publisher events.Publisher
	stats     *monitor.LookupStats
	conf      *config.Config
}

func NewRegistry(cfg *config.Config, backend storage.Backend, publisher events.Publisher, stats *monitor.LookupStats) (*Registry, error) {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if stats == nil {
		stats = monitor.NewLookupStats(nil)
	}
	r := &Registry{
		backend:   backend,
		publisher: publisher,
		stats:     stats,
		conf:      cfg,
	}
	if _, err := r.Rebuild(); err != nil {
		return nil, err
	}
	return r, nil
}

// Rebuild loads every record from the backing store into a fresh index and
// swaps it in. Records failing validation are skipped.
func (r *Registry) Rebuild() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	log.Printf("[Registry] Rebuilding %s index from %s...", r.conf.Index.Kind, r.conf.Storage.Driver)
	records, err := r.backend.LoadAll()
	if err != nil {
		return 0, errors.Wrap(err, "rebuild index")
	}

	idx, err := NewIndex(r.conf.Index.Kind, nil)
	if err != nil {
		return 0, err
	}
	filter := structure.NewBloomFilter(filterCapacity(len(records)), filterFalseProb)
	count := 0
	for _, rec := range balancedOrder(records) {
		if idx.Insert(rec) {
			filter.Add(rec.EnrollmentNo)
			count++
			continue
		}
		log.Printf("[Registry] Skipping invalid record %s", rec)
	}

	r.indexMu.Lock()
	r.index = idx
	r.search = search.NewSearchService(idx)
	r.filter = filter
	r.indexMu.Unlock()

	r.stats.RecordRebuild()
	log.Printf("[Registry] Index rebuilt with %d students.", count)
	return count, nil
}

const filterFalseProb = 0.01

// filterCapacity leaves room for the roster to double before the false
// positive rate drifts past filterFalseProb.
func filterCapacity(n int) uint {
	if n < 512 {
		return 1024
	}
	return uint(2 * n)
}

// balancedOrder sorts records by enrollment number and reorders them
// midpoint-first, so that inserting them one by one into an unbalanced BST
// yields a tree of minimal height instead of a chain.
func balancedOrder(records []common.StudentRecord) []common.StudentRecord {
	sorted := make([]common.StudentRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EnrollmentNo < sorted[j].EnrollmentNo
	})

	out := make([]common.StudentRecord, 0, len(sorted))
	var walk func(lo, hi int)
	walk = func(lo, hi int) {
		if lo >= hi {
			return
		}
		mid := lo + (hi-lo)/2
		out = append(out, sorted[mid])
		walk(lo, mid)
		walk(mid+1, hi)
	}
	walk(0, len(sorted))
	return out
}

func (r *Registry) service() *search.SearchService {
	r.indexMu.RLock()
	defer r.indexMu.RUnlock()
	return r.search
}

func (r *Registry) bloom() *structure.BloomFilter {
	r.indexMu.RLock()
	defer r.indexMu.RUnlock()
	return r.filter
}

func (r *Registry) Enroll(ctx context.Context, rec common.StudentRecord) error {
	if !rec.Validate() {
		return common.ErrInvalidRecord
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	svc := r.service()
	if _, err := svc.FindByEnrollment(rec.EnrollmentNo); err == nil {
		return errors.Wrapf(common.ErrDuplicateEnrollment, "enrollment %q", rec.EnrollmentNo)
	}
	if err := r.backend.Put(rec); err != nil {
		return err
	}
	svc.AddStudent(rec)
	r.bloom().Add(rec.EnrollmentNo)
	r.stats.RecordEnroll()

	r.publish(ctx, events.NewEvent(events.TypeEnrolled, rec.EnrollmentNo, &rec))
	return nil
}

// Update replaces the stored record for an existing enrollment number.
func (r *Registry) Update(ctx context.Context, rec common.StudentRecord) error {
	if !rec.Validate() {
		return common.ErrInvalidRecord
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	svc := r.service()
	if _, err := svc.FindByEnrollment(rec.EnrollmentNo); err != nil {
		return err
	}
	if err := r.backend.Put(rec); err != nil {
		return err
	}
	svc.ReplaceStudent(rec)
	r.stats.RecordUpdate()

	r.publish(ctx, events.NewEvent(events.TypeUpdated, rec.EnrollmentNo, &rec))
	return nil
}

func (r *Registry) Withdraw(ctx context.Context, enrollmentNo string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	svc := r.service()
	if _, err := svc.FindByEnrollment(enrollmentNo); err != nil {
		return err
	}
	if _, err := r.backend.Delete(enrollmentNo); err != nil {
		return err
	}
	svc.RemoveStudent(enrollmentNo)
	r.stats.RecordWithdraw()

	r.publish(ctx, events.NewEvent(events.TypeWithdrawn, enrollmentNo, nil))
	return nil
}

func (r *Registry) publish(ctx context.Context, ev events.Event) {
	if err := r.publisher.Publish(ctx, ev); err != nil {
		log.Printf("[Events] Failed to publish %s for %s: %v", ev.Type, ev.EnrollmentNo, err)
	}
}

// Lookup resolves one enrollment number. Keys the bloom filter has never
// seen are answered without touching the index.
func (r *Registry) Lookup(enrollmentNo string) (common.StudentRecord, error) {
	if !r.bloom().Contains(enrollmentNo) {
		r.stats.RecordLookup(false)
		return common.StudentRecord{}, errors.Wrapf(common.ErrStudentNotFound, "enrollment %q", enrollmentNo)
	}
	rec, err := r.service().FindByEnrollment(enrollmentNo)
	r.stats.RecordLookup(err == nil)
	return rec, err
}

func (r *Registry) LookupRoll(rollNo int) (common.StudentRecord, error) {
	rec, err := r.service().FindByRoll(rollNo)
	r.stats.RecordLookup(err == nil)
	return rec, err
}

func (r *Registry) SearchName(text string) []common.StudentRecord {
	return r.service().FindByName(text)
}

func (r *Registry) ListDivision(divisionID int64) []common.StudentRecord {
	return r.service().FindByDivision(divisionID)
}

func (r *Registry) List() []common.StudentRecord {
	return r.service().All()
}

func (r *Registry) Size() int {
	return r.service().Size()
}

func (r *Registry) Stats() map[string]interface{} {
	r.indexMu.RLock()
	idx := r.index
	r.indexMu.RUnlock()

	stats := map[string]interface{}{
		"student_count":  idx.Size(),
		"index_type":     idx.Type(),
		"storage_driver": r.conf.Storage.Driver,
		"lookups":        atomic.LoadUint64(&r.stats.LookupCount),
		"misses":         atomic.LoadUint64(&r.stats.MissCount),
		"enrollments":    atomic.LoadUint64(&r.stats.EnrollCount),
		"withdrawals":    atomic.LoadUint64(&r.stats.WithdrawCount),
		"rebuilds":       atomic.LoadUint64(&r.stats.RebuildCount),
		"hit_ratio":      r.stats.GetHitRatio(),
	}
	for k, v := range r.bloom().Stats() {
		stats[k] = v
	}
	if h, ok := idx.(interface{ Height() int }); ok {
		stats["index_height"] = h.Height()
	}
	return stats
}

func (r *Registry) Close() error {
	if err := r.publisher.Close(); err != nil {
		log.Printf("[Events] Close error: %v", err)
	}
	return r.backend.Close()
}
