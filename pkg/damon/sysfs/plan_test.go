package sysfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/damonctl/pkg/damon"
	"github.com/ja7ad/damonctl/pkg/types"
)

func testScheme() damon.Scheme {
	return damon.Scheme{
		AccessPattern: damon.AccessPattern{
			MinSzBytes:          4096,
			MaxSzBytes:          types.MaxBytes,
			MinNrAccessesPermil: 0,
			MaxNrAccessesPermil: 500,
			MinAgeUs:            250000,
			MaxAgeUs:            1000000,
		},
		Action: "pageout",
		Quotas: damon.Quota{
			TimeMs:                 10,
			SzBytes:                128 << 20,
			ResetIntervalMs:        1000,
			WeightSzPermil:         0,
			WeightNrAccessesPermil: 500,
			WeightAgePermil:        500,
		},
		Watermarks: damon.Watermarks{
			Metric:     damon.MetricFreeMemRate,
			IntervalUs: 5000000,
			HighPermil: 600,
			MidPermil:  500,
			LowPermil:  50,
		},
	}
}

func testContext(ops string, regions ...damon.Region) damon.Context {
	return damon.Context{
		Ops:       ops,
		Intervals: damon.Intervals{Sample: 1000, Aggr: 100000, OpsUpdate: 1000000},
		NrRegions: damon.NrRegionsRange{Min: 10, Max: 1000},
		Targets:   []damon.Target{{PID: 4242, Regions: regions}},
		Schemes:   []damon.Scheme{testScheme()},
	}
}

func testKdamonds(ops string, regions ...damon.Region) []damon.Kdamond {
	return []damon.Kdamond{{Contexts: []damon.Context{testContext(ops, regions...)}}}
}

func TestAccessPatternPlan_Conversions(t *testing.T) {
	iv := damon.Intervals{Sample: 1000, Aggr: 100000}
	p := AccessPatternPlan(testScheme().AccessPattern, iv)

	cases := []struct {
		keys []string
		want string
	}{
		{[]string{"sz", "min"}, "4096"},
		{[]string{"sz", "max"}, "18446744073709551615"},
		{[]string{"nr_accesses", "min"}, "0"},
		{[]string{"nr_accesses", "max"}, "50"}, // 500 * 100 / 1000
		{[]string{"age", "min"}, "2"},          // 250000 / 100000 = 2.5, truncated
		{[]string{"age", "max"}, "10"},
	}
	for _, tc := range cases {
		got, ok := p.Lookup(tc.keys...)
		require.True(t, ok, "%v", tc.keys)
		assert.Equal(t, tc.want, got, "%v", tc.keys)
	}
}

func TestAccessPatternPlan_TruncatesFrequency(t *testing.T) {
	// ratio 20, 999 permil -> 19.98 accesses
	iv := damon.Intervals{Sample: 5000, Aggr: 100000}
	p := AccessPatternPlan(damon.AccessPattern{MinNrAccessesPermil: 999, MaxNrAccessesPermil: 1000}, iv)

	got, _ := p.Lookup("nr_accesses", "min")
	assert.Equal(t, "19", got)
	got, _ = p.Lookup("nr_accesses", "max")
	assert.Equal(t, "20", got)
}

func TestTargetsPlan_PIDOnlyForProcessOps(t *testing.T) {
	regions := []damon.Region{{Start: 0x1000, End: 0x2000}}

	for _, tc := range []struct {
		ops     string
		wantPID bool
	}{
		{damon.OpsVaddr, true},
		{damon.OpsFvaddr, true},
		{damon.OpsPaddr, false},
	} {
		t.Run(tc.ops, func(t *testing.T) {
			plan := TargetsPlan(testContext(tc.ops, regions...))

			pid, ok := plan.Lookup("0", "pid_target")
			assert.Equal(t, tc.wantPID, ok)
			if tc.wantPID {
				assert.Equal(t, "4242", pid)
			}

			start, _ := plan.Lookup("0", "regions", "0", "start")
			end, _ := plan.Lookup("0", "regions", "0", "end")
			assert.Equal(t, "4096", start)
			assert.Equal(t, "8192", end)
		})
	}
}

func TestTargetsPlan_PositionalRegions(t *testing.T) {
	ctx := testContext(damon.OpsPaddr,
		damon.Region{Start: 0, End: 10},
		damon.Region{Start: 20, End: 30},
		damon.Region{Start: 40, End: 50},
	)
	regions, ok := TargetsPlan(ctx).Sub("0", "regions")
	require.True(t, ok)
	assert.Equal(t, []string{"0", "1", "2"}, regions.Keys())

	v, _ := regions.Lookup("2", "start")
	assert.Equal(t, "40", v)
}

func TestSchemesPlan_FixedKeys(t *testing.T) {
	ctx := testContext(damon.OpsVaddr)
	ctx.Schemes = append(ctx.Schemes, damon.Scheme{Action: "stat", Watermarks: damon.Watermarks{Metric: damon.MetricNone}})

	plan := SchemesPlan(ctx)
	assert.Equal(t, []string{"0", "1"}, plan.Keys())
	for _, s := range []string{"0", "1"} {
		sub, ok := plan.Sub(s)
		require.True(t, ok)
		assert.Equal(t, []string{"access_pattern", "action", "quotas", "watermarks"}, sub.Keys())
	}

	action, _ := plan.Lookup("1", "action")
	assert.Equal(t, "stat", action)
}

func TestQuotasPlan(t *testing.T) {
	p := QuotasPlan(testScheme().Quotas)

	cases := []struct {
		path []string
		want string
	}{
		{[]string{"ms"}, "10"},
		{[]string{"bytes"}, "134217728"},
		{[]string{"reset_interval_ms"}, "1000"},
		{[]string{"weights", "sz_permil"}, "0"},
		{[]string{"weights", "nr_accesses_permil"}, "500"},
		{[]string{"weights", "age_permil"}, "500"},
	}
	for _, tc := range cases {
		got, ok := p.Lookup(tc.path...)
		require.True(t, ok, "%v", tc.path)
		assert.Equal(t, tc.want, got, "%v", tc.path)
	}
}

func TestWatermarksPlan(t *testing.T) {
	p := WatermarksPlan(testScheme().Watermarks)
	assert.Equal(t, []string{"metric", "interval_us", "high", "mid", "low"}, p.Keys())

	metric, _ := p.Lookup("metric")
	assert.Equal(t, "free_mem_rate", metric)
	high, _ := p.Lookup("high")
	assert.Equal(t, "600", high)
	low, _ := p.Lookup("low")
	assert.Equal(t, "50", low)
}

func TestContextPlan_Order(t *testing.T) {
	p := ContextPlan(testContext(damon.OpsVaddr))
	assert.Equal(t, []string{"operations", "monitoring_attrs", "targets", "schemes"}, p.Keys())

	ops, _ := p.Lookup("operations")
	assert.Equal(t, "vaddr", ops)
	sample, _ := p.Lookup("monitoring_attrs", "intervals", "sample_us")
	assert.Equal(t, "1000", sample)
	update, _ := p.Lookup("monitoring_attrs", "intervals", "update_us")
	assert.Equal(t, "1000000", update)
	maxNr, _ := p.Lookup("monitoring_attrs", "nr_regions", "max")
	assert.Equal(t, "1000", maxNr)
}

func TestKdamondsPlan_PositionalKeys(t *testing.T) {
	kds := []damon.Kdamond{
		{Contexts: []damon.Context{testContext(damon.OpsVaddr)}},
		{Contexts: []damon.Context{testContext(damon.OpsPaddr), testContext(damon.OpsFvaddr)}},
	}
	p := KdamondsPlan(kds)
	assert.Equal(t, []string{"0", "1"}, p.Keys())

	ctxs, ok := p.Sub("1", "contexts")
	require.True(t, ok)
	assert.Equal(t, []string{"0", "1"}, ctxs.Keys())

	ops, _ := p.Lookup("1", "contexts", "1", "operations")
	assert.Equal(t, "fvaddr", ops)
}

func TestKdamondsPlan_DoesNotMutateInput(t *testing.T) {
	kds := testKdamonds(damon.OpsVaddr, damon.Region{Start: 1, End: 2})
	before := testKdamonds(damon.OpsVaddr, damon.Region{Start: 1, End: 2})
	_ = KdamondsPlan(kds)
	assert.Equal(t, before, kds)
}

func TestAccessPatternPlan_DefaultedMaxima(t *testing.T) {
	ctx := damon.Context{Schemes: []damon.Scheme{{Action: "pageout"}}}
	ctx.SetDefaults()
	p := AccessPatternPlan(ctx.Schemes[0].AccessPattern, ctx.Intervals)

	for keys, want := range map[[2]string]string{
		{"sz", "max"}:          "18446744073709551615",
		{"nr_accesses", "max"}: "0",
		{"age", "max"}:         "0",
	} {
		got, ok := p.Lookup(keys[0], keys[1])
		require.True(t, ok, "%v", keys)
		assert.Equal(t, want, got, "%v", keys)
	}
}
