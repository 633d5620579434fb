package damon

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/ja7ad/damonctl/pkg/types"
)

// Defaults applied to zero fields by SetDefaults. They match the kernel's
// own defaults for a freshly created context.
const (
	DefaultSampleUs    = 5000
	DefaultAggrUs      = 100000
	DefaultOpsUpdateUs = 1000000
	DefaultMinNrRegion = 10
	DefaultMaxNrRegion = 1000
	DefaultAction      = "stat"
)

// LoadFile reads a YAML configuration from path.
func LoadFile(path string) (*Root, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return Load(bytes.NewReader(b))
}

// Load decodes a YAML configuration, fills defaults and validates it.
// Unknown keys are rejected.
func Load(r io.Reader) (*Root, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var root Root
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidConfig)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	root.SetDefaults()
	if err := root.Validate(); err != nil {
		return nil, err
	}
	return &root, nil
}

// SetDefaults fills zero valued fields with their defaults.
func (r *Root) SetDefaults() {
	for i := range r.Kdamonds {
		for j := range r.Kdamonds[i].Contexts {
			r.Kdamonds[i].Contexts[j].SetDefaults()
		}
	}
}

// SetDefaults fills zero valued fields of the context and its schemes.
func (c *Context) SetDefaults() {
	if c.Ops == "" {
		c.Ops = OpsVaddr
	}
	if c.Intervals == (Intervals{}) {
		c.Intervals = Intervals{Sample: DefaultSampleUs, Aggr: DefaultAggrUs, OpsUpdate: DefaultOpsUpdateUs}
	}
	if c.NrRegions == (NrRegionsRange{}) {
		c.NrRegions = NrRegionsRange{Min: DefaultMinNrRegion, Max: DefaultMaxNrRegion}
	}
	for i := range c.Schemes {
		s := &c.Schemes[i]
		if s.Action == "" {
			s.Action = DefaultAction
		}
		if s.Watermarks.Metric == "" {
			s.Watermarks.Metric = MetricNone
		}
		// a zero max_sz_bytes would match no region at all
		if s.AccessPattern.MaxSzBytes == 0 {
			s.AccessPattern.MaxSzBytes = types.MaxBytes
		}
	}
}

// Validate checks r against the constraints the kernel enforces.
func (r *Root) Validate() error {
	for i, kd := range r.Kdamonds {
		for j, ctx := range kd.Contexts {
			where := fmt.Sprintf("kdamonds[%d].contexts[%d]", i, j)
			if err := ctx.validate(where); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Context) validate(where string) error {
	switch c.Ops {
	case OpsVaddr, OpsFvaddr, OpsPaddr:
	default:
		return invalid(where, "unknown ops %q", c.Ops)
	}
	if c.Intervals.Sample == 0 {
		return invalid(where, "sample interval must be > 0")
	}
	if c.Intervals.Aggr < c.Intervals.Sample {
		return invalid(where, "aggregation interval %d < sampling interval %d", c.Intervals.Aggr, c.Intervals.Sample)
	}
	if c.NrRegions.Min > c.NrRegions.Max {
		return invalid(where, "nr_regions min %d > max %d", c.NrRegions.Min, c.NrRegions.Max)
	}
	for k, t := range c.Targets {
		tw := fmt.Sprintf("%s.targets[%d]", where, k)
		if TargetHasPID(c.Ops) && t.PID <= 0 {
			return invalid(tw, "%s target needs a pid", c.Ops)
		}
		for m, reg := range t.Regions {
			if reg.Start >= reg.End {
				return invalid(fmt.Sprintf("%s.regions[%d]", tw, m), "start %#x >= end %#x", reg.Start, reg.End)
			}
		}
	}
	for s, sc := range c.Schemes {
		if err := sc.validate(fmt.Sprintf("%s.schemes[%d]", where, s)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheme) validate(where string) error {
	p := s.AccessPattern
	if p.MinSzBytes > p.MaxSzBytes {
		return invalid(where, "min size > max size")
	}
	if p.MaxNrAccessesPermil > 1000 {
		return invalid(where, "max_nr_accesses_permil %d > 1000", p.MaxNrAccessesPermil)
	}
	if p.MinNrAccessesPermil > p.MaxNrAccessesPermil {
		return invalid(where, "min_nr_accesses_permil > max_nr_accesses_permil")
	}
	if p.MinAgeUs > p.MaxAgeUs {
		return invalid(where, "min_age_us > max_age_us")
	}
	if !slices.Contains(Actions, s.Action) {
		return invalid(where, "unknown action %q", s.Action)
	}
	q := s.Quotas
	for name, w := range map[string]uint64{
		"weight_sz_permil":          q.WeightSzPermil,
		"weight_nr_accesses_permil": q.WeightNrAccessesPermil,
		"weight_age_permil":         q.WeightAgePermil,
	} {
		if w > 1000 {
			return invalid(where, "%s %d > 1000", name, w)
		}
	}
	wm := s.Watermarks
	if wm.Metric != MetricNone && wm.Metric != MetricFreeMemRate {
		return invalid(where, "unknown watermark metric %q", wm.Metric)
	}
	if wm.HighPermil > 1000 || !(wm.HighPermil >= wm.MidPermil && wm.MidPermil >= wm.LowPermil) {
		return invalid(where, "watermarks must satisfy 1000 >= high >= mid >= low")
	}
	return nil
}

func invalid(where, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, where, fmt.Sprintf(format, args...))
}
