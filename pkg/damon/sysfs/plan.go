package sysfs

import (
	"strconv"

	"github.com/ja7ad/damonctl/pkg/damon"
	"github.com/ja7ad/damonctl/pkg/system/vfs"
)

func u64(v uint64) string { return strconv.FormatUint(v, 10) }

// KdamondsPlan returns the value writes for kdamonds, keyed by position and
// relative to <root>/kdamonds.
func KdamondsPlan(kdamonds []damon.Kdamond) vfs.Plan {
	plan := vfs.Plan{}
	for k, kd := range kdamonds {
		plan = plan.Dir(idx(k), KdamondPlan(kd))
	}
	return plan
}

// KdamondPlan returns the writes below one kdamond directory.
func KdamondPlan(kd damon.Kdamond) vfs.Plan {
	return vfs.Plan{}.Dir("contexts", ContextsPlan(kd.Contexts))
}

// ContextsPlan returns the writes below a contexts directory.
func ContextsPlan(ctxs []damon.Context) vfs.Plan {
	plan := vfs.Plan{}
	for c, ctx := range ctxs {
		plan = plan.Dir(idx(c), ContextPlan(ctx))
	}
	return plan
}

// ContextPlan returns the writes below one context directory. operations is
// written first since it decides how targets are interpreted.
func ContextPlan(ctx damon.Context) vfs.Plan {
	return vfs.Plan{}.
		Set("operations", ctx.Ops).
		Dir("monitoring_attrs", MonitoringAttrsPlan(ctx)).
		Dir("targets", TargetsPlan(ctx)).
		Dir("schemes", SchemesPlan(ctx))
}

// MonitoringAttrsPlan returns the intervals and nr_regions writes.
func MonitoringAttrsPlan(ctx damon.Context) vfs.Plan {
	return vfs.Plan{}.
		Dir("intervals", vfs.Plan{}.
			Set("sample_us", u64(ctx.Intervals.Sample)).
			Set("aggr_us", u64(ctx.Intervals.Aggr)).
			Set("update_us", u64(ctx.Intervals.OpsUpdate))).
		Dir("nr_regions", vfs.Plan{}.
			Set("min", u64(ctx.NrRegions.Min)).
			Set("max", u64(ctx.NrRegions.Max)))
}

// TargetsPlan returns the target writes. pid_target is only written for
// process based operations; its presence is what the kernel keys off.
func TargetsPlan(ctx damon.Context) vfs.Plan {
	plan := vfs.Plan{}
	hasPID := damon.TargetHasPID(ctx.Ops)
	for t, target := range ctx.Targets {
		tp := vfs.Plan{}
		if hasPID {
			tp = tp.Set("pid_target", strconv.Itoa(target.PID))
		}
		regions := vfs.Plan{}
		for r, region := range target.Regions {
			regions = regions.Dir(idx(r), vfs.Plan{}.
				Set("start", u64(region.Start)).
				Set("end", u64(region.End)))
		}
		plan = plan.Dir(idx(t), tp.Dir("regions", regions))
	}
	return plan
}

// SchemesPlan returns the scheme writes. Every scheme has exactly the
// access_pattern, action, quotas and watermarks entries.
func SchemesPlan(ctx damon.Context) vfs.Plan {
	plan := vfs.Plan{}
	for s, scheme := range ctx.Schemes {
		plan = plan.Dir(idx(s), vfs.Plan{}.
			Dir("access_pattern", AccessPatternPlan(scheme.AccessPattern, ctx.Intervals)).
			Set("action", scheme.Action).
			Dir("quotas", QuotasPlan(scheme.Quotas)).
			Dir("watermarks", WatermarksPlan(scheme.Watermarks)))
	}
	return plan
}

// AccessPatternPlan converts the normalized pattern into the kernel units of
// the owning context: access frequencies into access counts per aggregation
// interval, ages into aggregation intervals. Both truncate.
func AccessPatternPlan(p damon.AccessPattern, iv damon.Intervals) vfs.Plan {
	return vfs.Plan{}.
		Dir("sz", vfs.Plan{}.
			Set("min", u64(p.MinSzBytes.Uint64())).
			Set("max", u64(p.MaxSzBytes.Uint64()))).
		Dir("nr_accesses", vfs.Plan{}.
			Set("min", u64(iv.NrAccessesBound(p.MinNrAccessesPermil))).
			Set("max", u64(iv.NrAccessesBound(p.MaxNrAccessesPermil)))).
		Dir("age", vfs.Plan{}.
			Set("min", u64(iv.AgeBound(p.MinAgeUs))).
			Set("max", u64(iv.AgeBound(p.MaxAgeUs))))
}

// QuotasPlan returns the quota writes.
func QuotasPlan(q damon.Quota) vfs.Plan {
	return vfs.Plan{}.
		Set("ms", u64(q.TimeMs)).
		Set("bytes", u64(q.SzBytes.Uint64())).
		Set("reset_interval_ms", u64(q.ResetIntervalMs)).
		Dir("weights", vfs.Plan{}.
			Set("sz_permil", u64(q.WeightSzPermil)).
			Set("nr_accesses_permil", u64(q.WeightNrAccessesPermil)).
			Set("age_permil", u64(q.WeightAgePermil)))
}

// WatermarksPlan returns the watermark writes.
func WatermarksPlan(w damon.Watermarks) vfs.Plan {
	return vfs.Plan{}.
		Set("metric", w.Metric).
		Set("interval_us", u64(w.IntervalUs)).
		Set("high", u64(w.HighPermil)).
		Set("mid", u64(w.MidPermil)).
		Set("low", u64(w.LowPermil))
}
