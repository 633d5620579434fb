//go:build linux

package util

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ja7ad/damonctl/pkg/damon"
	"github.com/ja7ad/damonctl/pkg/system/proc"
)

// ParsePID parses a positive process id.
func ParsePID(s string) (int, error) {
	pid, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid %q", s)
	}
	return pid, nil
}

// ParseAddr parses a decimal or 0x-prefixed hexadecimal address.
func ParseAddr(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	base := 10
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		s, base = rest, 16
	}
	v, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return v, nil
}

// ParseRegion parses "START-END" into a region. START must be below END.
func ParseRegion(s string) (damon.Region, error) {
	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		return damon.Region{}, fmt.Errorf("invalid region %q: want START-END", s)
	}
	start, err := ParseAddr(lo)
	if err != nil {
		return damon.Region{}, fmt.Errorf("region %q: %w", s, err)
	}
	end, err := ParseAddr(hi)
	if err != nil {
		return damon.Region{}, fmt.Errorf("region %q: %w", s, err)
	}
	if start >= end {
		return damon.Region{}, fmt.Errorf("invalid region %q: start must be below end", s)
	}
	return damon.Region{Start: start, End: end}, nil
}

// ParseRegions parses a comma or space separated list of regions. Regions
// must be sorted and must not overlap.
func ParseRegions(s string) ([]damon.Region, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]damon.Region, 0, len(fields))
	for _, f := range fields {
		r, err := ParseRegion(f)
		if err != nil {
			return nil, err
		}
		if n := len(out); n > 0 && r.Start < out[n-1].End {
			return nil, fmt.Errorf("region %q overlaps or precedes %d-%d", f, out[n-1].Start, out[n-1].End)
		}
		out = append(out, r)
	}
	return out, nil
}

// MappingRegions returns the regions of the mappings whose path is name,
// e.g. "[heap]" or "[stack]". Adjacent mappings are merged.
func MappingRegions(maps []proc.Mapping, name string) []damon.Region {
	var out []damon.Region
	for _, m := range maps {
		if m.Path != name {
			continue
		}
		if n := len(out); n > 0 && out[n-1].End == m.Start {
			out[n-1].End = m.End
			continue
		}
		out = append(out, damon.Region{Start: m.Start, End: m.End})
	}
	return out
}
