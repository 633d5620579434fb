package damon

import "github.com/ja7ad/damonctl/pkg/types"

// Operations set identifiers.
const (
	OpsVaddr  = "vaddr"  // virtual address spaces of processes
	OpsFvaddr = "fvaddr" // fixed virtual address ranges of processes
	OpsPaddr  = "paddr"  // physical address space
)

// Watermark metrics.
const (
	MetricNone        = "none"
	MetricFreeMemRate = "free_mem_rate"
)

// Scheme actions.
var Actions = []string{
	"willneed", "cold", "pageout", "hugepage", "nohugepage",
	"lru_prio", "lru_deprio", "stat",
}

// TargetHasPID reports whether targets of the given operations set are
// identified by a process id.
func TargetHasPID(ops string) bool {
	return ops == OpsVaddr || ops == OpsFvaddr
}

// Intervals holds the monitoring intervals, all in microseconds.
type Intervals struct {
	Sample    uint64 `yaml:"sample_us"`
	Aggr      uint64 `yaml:"aggr_us"`
	OpsUpdate uint64 `yaml:"update_us"`
}

// MaxNrAccesses is the largest access count a region can reach within one
// aggregation interval.
func (i Intervals) MaxNrAccesses() uint64 {
	if i.Sample == 0 {
		return 0
	}
	return i.Aggr / i.Sample
}

// NrAccessesBound converts a per-mille access frequency into the access
// count DAMON compares against: floor(permil * (aggr / sample) / 1000),
// computed on integers.
func (i Intervals) NrAccessesBound(permil uint64) uint64 {
	if i.Sample == 0 {
		return 0
	}
	return permil * i.Aggr / (i.Sample * 1000)
}

// AgeBound converts an age in microseconds into a number of aggregation
// intervals, truncated.
func (i Intervals) AgeBound(ageUs uint64) uint64 {
	if i.Aggr == 0 {
		return 0
	}
	return ageUs / i.Aggr
}

// NrRegionsRange bounds the number of regions DAMON keeps per target.
type NrRegionsRange struct {
	Min uint64 `yaml:"min"`
	Max uint64 `yaml:"max"`
}

// AccessPattern selects regions a scheme applies to.
type AccessPattern struct {
	MinSzBytes          types.Bytes `yaml:"min_sz_bytes"`
	MaxSzBytes          types.Bytes `yaml:"max_sz_bytes"`
	MinNrAccessesPermil uint64      `yaml:"min_nr_accesses_permil"`
	MaxNrAccessesPermil uint64      `yaml:"max_nr_accesses_permil"`
	MinAgeUs            uint64      `yaml:"min_age_us"`
	MaxAgeUs            uint64      `yaml:"max_age_us"`
}

// Quota limits how much a scheme may do per reset interval. The weights
// prioritize regions when the quota is exceeded.
type Quota struct {
	TimeMs                 uint64      `yaml:"time_ms"`
	SzBytes                types.Bytes `yaml:"sz_bytes"`
	ResetIntervalMs        uint64      `yaml:"reset_interval_ms"`
	WeightSzPermil         uint64      `yaml:"weight_sz_permil"`
	WeightNrAccessesPermil uint64      `yaml:"weight_nr_accesses_permil"`
	WeightAgePermil        uint64      `yaml:"weight_age_permil"`
}

// Watermarks activate or deactivate a scheme based on a system metric.
type Watermarks struct {
	Metric     string `yaml:"metric"`
	IntervalUs uint64 `yaml:"interval_us"`
	HighPermil uint64 `yaml:"high_permil"`
	MidPermil  uint64 `yaml:"mid_permil"`
	LowPermil  uint64 `yaml:"low_permil"`
}

// Scheme is a reactive rule: apply Action to regions matching AccessPattern,
// within Quotas, while Watermarks allow.
type Scheme struct {
	AccessPattern AccessPattern `yaml:"access_pattern"`
	Action        string        `yaml:"action"`
	Quotas        Quota         `yaml:"quotas"`
	Watermarks    Watermarks    `yaml:"watermarks"`
}

// Region is the address range [Start, End).
type Region struct {
	Start uint64 `yaml:"start"`
	End   uint64 `yaml:"end"`
}

// Size returns the length of the region.
func (r Region) Size() types.Bytes {
	if r.End < r.Start {
		return 0
	}
	return types.Bytes(r.End - r.Start)
}

// Target is one monitored entity. PID is only meaningful when the owning
// context's operations set is process based (see TargetHasPID).
type Target struct {
	PID     int      `yaml:"pid"`
	Regions []Region `yaml:"regions"`
}

// Context is a monitoring session of a kdamond.
type Context struct {
	Ops       string         `yaml:"ops"`
	Intervals Intervals      `yaml:"intervals"`
	NrRegions NrRegionsRange `yaml:"nr_regions"`
	Targets   []Target       `yaml:"targets"`
	Schemes   []Scheme       `yaml:"schemes"`
}

// Kdamond is one monitoring thread.
type Kdamond struct {
	Contexts []Context `yaml:"contexts"`
}

// Root is the whole configuration. List positions are identities: the
// element at index i is written to the directory named i.
type Root struct {
	Kdamonds []Kdamond `yaml:"kdamonds"`
}
