package monitor

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupStats(t *testing.T) {
	reg := prometheus.NewRegistry()
	ls := NewLookupStats(reg)

	assert.Equal(t, 0.0, ls.GetHitRatio())

	ls.RecordLookup(true)
	ls.RecordLookup(true)
	ls.RecordLookup(true)
	ls.RecordLookup(false)
	ls.RecordEnroll()
	ls.RecordWithdraw()
	ls.RecordRebuild()

	assert.Equal(t, uint64(4), ls.LookupCount)
	assert.Equal(t, uint64(1), ls.MissCount)
	assert.InDelta(t, 0.75, ls.GetHitRatio(), 1e-9)

	assert.Equal(t, 3.0, testutil.ToFloat64(ls.lookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ls.rebuilds))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["rollcall_lookups_total"])
	assert.True(t, names["rollcall_mutations_total"])
	assert.True(t, names["rollcall_index_rebuilds_total"])
}

func TestLookupStatsWithoutRegistry(t *testing.T) {
	ls := NewLookupStats(nil)
	ls.RecordLookup(false)
	assert.Equal(t, 0.0, ls.GetHitRatio())
}
