package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"rollcall/pkg/common"
	"rollcall/pkg/core"
)

func main() {
	n := flag.Int("n", 50000, "number of students")
	lookups := flag.Int("lookups", 100000, "number of lookups per run")
	sorted := flag.Bool("sorted", false, "insert in ascending enrollment order (worst case for the BST)")
	flag.Parse()

	records := makeRecords(*n, *sorted)
	probes := makeProbes(records, *lookups)

	fmt.Printf("rollcall Index Benchmark (N=%d, lookups=%d, sorted=%v)\n", *n, *lookups, *sorted)
	fmt.Println("---------------------------------------------------")

	for _, kind := range []string{core.IndexBST, core.IndexBTree} {
		idx, err := core.NewIndex(kind, common.StudentRecord.Validate)
		if err != nil {
			log.Fatalf("index %s: %v", kind, err)
		}

		start := time.Now()
		for _, rec := range records {
			idx.Insert(rec)
		}
		insert := time.Since(start)

		start = time.Now()
		hits := 0
		for _, key := range probes {
			if _, ok := idx.Search(key); ok {
				hits++
			}
		}
		search := time.Since(start)

		fmt.Printf(">> %-6s insert %v | lookup %v (%.0f ops/s, %d hits)\n",
			idx.Type(), insert, search, float64(len(probes))/search.Seconds(), hits)
	}

	// Linear scan baseline.
	start := time.Now()
	hits := 0
	for _, key := range probes {
		for i := range records {
			if records[i].EnrollmentNo == key {
				hits++
				break
			}
		}
	}
	search := time.Since(start)
	fmt.Printf(">> %-6s lookup %v (%.0f ops/s, %d hits)\n",
		"Linear", search, float64(len(probes))/search.Seconds(), hits)
}

func makeRecords(n int, sorted bool) []common.StudentRecord {
	records := make([]common.StudentRecord, n)
	for i := range records {
		records[i] = common.StudentRecord{
			StudentID:    int64(i + 1),
			EnrollmentNo: fmt.Sprintf("EN%08d", i),
			RollNo:       i%120 + 1,
			Name:         fmt.Sprintf("Student %d", i),
			DivisionID:   int64(i%8 + 1),
		}
	}
	if !sorted {
		rand.Shuffle(len(records), func(i, j int) { records[i], records[j] = records[j], records[i] })
	}
	return records
}

// makeProbes mixes existing keys with roughly 10% misses.
func makeProbes(records []common.StudentRecord, n int) []string {
	probes := make([]string, n)
	for i := range probes {
		if i%10 == 9 {
			probes[i] = fmt.Sprintf("MISS%06d", i)
			continue
		}
		probes[i] = records[rand.Intn(len(records))].EnrollmentNo
	}
	return probes
}
