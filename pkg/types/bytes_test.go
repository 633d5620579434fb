package types

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestBytes_Humanized_Boundaries(t *testing.T) {
	cases := []struct {
		in   Bytes
		want string
	}{
		{Bytes(0), "0 B"},
		{Bytes(1), "1 B"},
		{Bytes(1023), "1023 B"},                   // just below 1 KiB
		{Bytes(1024), "1.00 KB"},                  // exactly 1 KiB
		{Bytes(1024*1024 - 1), "1024.00 KB"},      // just below 1 MiB
		{Bytes(1024 * 1024), "1.00 MB"},           // exactly 1 MiB
		{Bytes(1024*1024*1024 - 1), "1024.00 MB"}, // just below 1 GiB
		{Bytes(1024 * 1024 * 1024), "1.00 GB"},    // exactly 1 GiB
		{Bytes(1<<40 - 1), "1024.00 GB"},          // just below 1 TiB
		{Bytes(1 << 40), "1.00 TB"},               // exactly 1 TiB
		{MaxBytes, "max"},
	}
	for i, tc := range cases {
		t.Run(fmt.Sprintf("case_%d_%d", i, uint64(tc.in)), func(t *testing.T) {
			got := tc.in.Humanized()
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseBytes(t *testing.T) {
	cases := []struct {
		in   string
		want Bytes
	}{
		{"0", 0},
		{"4096", 4096},
		{"0x1000", 4096},
		{"4K", 4096},
		{"4 KB", 4096},
		{"2MiB", 2 << 20},
		{"1.5 gb", 3 << 29},
		{"1T", 1 << 40},
		{"max", MaxBytes},
		{"MAX", MaxBytes},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseBytes(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseBytes_Invalid(t *testing.T) {
	for _, in := range []string{"", "  ", "K", "12 parsecs", "-5", "1.2.3K"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseBytes(in)
			assert.Error(t, err)
		})
	}
}

func TestBytes_UnmarshalYAML(t *testing.T) {
	var doc struct {
		Min Bytes `yaml:"min"`
		Max Bytes `yaml:"max"`
		Raw Bytes `yaml:"raw"`
	}
	err := yaml.Unmarshal([]byte("min: 4K\nmax: max\nraw: 123\n"), &doc)
	require.NoError(t, err)
	assert.Equal(t, Bytes(4096), doc.Min)
	assert.Equal(t, MaxBytes, doc.Max)
	assert.Equal(t, Bytes(123), doc.Raw)

	err = yaml.Unmarshal([]byte("min: [1, 2]\n"), &doc)
	assert.Error(t, err)

	err = yaml.Unmarshal([]byte("min: lots\n"), &doc)
	assert.Error(t, err)
}
