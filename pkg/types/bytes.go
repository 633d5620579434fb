package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Bytes is a uint64 wrapper representing a size in bytes.
type Bytes uint64

// MaxBytes is the largest representable size. DAMON treats it as "no upper bound".
const MaxBytes = Bytes(math.MaxUint64)

var units = map[string]uint64{
	"":    1,
	"b":   1,
	"k":   1 << 10,
	"kb":  1 << 10,
	"kib": 1 << 10,
	"m":   1 << 20,
	"mb":  1 << 20,
	"mib": 1 << 20,
	"g":   1 << 30,
	"gb":  1 << 30,
	"gib": 1 << 30,
	"t":   1 << 40,
	"tb":  1 << 40,
	"tib": 1 << 40,
}

// Humanized returns a human-readable string with automatic unit (B, KB, MB, GB, TB).
func (b Bytes) Humanized() string {
	v := float64(b)
	switch {
	case b == MaxBytes:
		return "max"
	case b >= 1<<40:
		return fmt.Sprintf("%.2f TB", v/(1<<40))
	case b >= 1<<30:
		return fmt.Sprintf("%.2f GB", v/(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.2f MB", v/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.2f KB", v/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// Uint64 returns the raw byte count.
func (b Bytes) Uint64() uint64 { return uint64(b) }

// ParseBytes parses a size such as "4096", "0x1000", "4K", "2MiB", "1.5 GB" or "max".
// Units are 1024 based and case-insensitive.
func ParseBytes(s string) (Bytes, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("bytes: empty size")
	}
	if strings.EqualFold(s, "max") {
		return MaxBytes, nil
	}
	if hex, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		v, err := strconv.ParseUint(hex, 16, 64)
		if err != nil {
			return 0, fmt.Errorf("bytes: invalid size %q: %w", s, err)
		}
		return Bytes(v), nil
	}
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return Bytes(v), nil
	}

	i := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	if i <= 0 {
		return 0, fmt.Errorf("bytes: invalid size %q", s)
	}
	num, unit := s[:i], strings.ToLower(strings.TrimSpace(s[i:]))
	mul, ok := units[unit]
	if !ok {
		return 0, fmt.Errorf("bytes: unknown unit %q in %q", unit, s)
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("bytes: invalid size %q: %w", s, err)
	}
	v := f * float64(mul)
	if v >= math.MaxUint64 {
		return MaxBytes, nil
	}
	return Bytes(v), nil
}

// UnmarshalYAML accepts plain integers as well as strings understood by ParseBytes.
func (b *Bytes) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("bytes: line %d: expected a scalar size", value.Line)
	}
	v, err := ParseBytes(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*b = v
	return nil
}
