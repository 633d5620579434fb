package sysfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/damonctl/pkg/damon"
	"github.com/ja7ad/damonctl/pkg/damon/sysfs/sysfstest"
	"github.com/ja7ad/damonctl/pkg/system/vfs"
)

func TestProbe_AvailOperations(t *testing.T) {
	k := sysfstest.New(sysfstest.WithOperations(damon.OpsVaddr, damon.OpsPaddr))
	i := newTestInterface(k)

	f, err := i.Probe(ProbeOptions{})
	require.NoError(t, err)

	assert.True(t, f.Supported(damon.OpsVaddr))
	assert.True(t, f.Supported(damon.OpsPaddr))
	assert.False(t, f.Supported(damon.OpsFvaddr))
	assert.False(t, f.Supported("record"))
	assert.True(t, f.Supported("schemes"))
	assert.True(t, f.Supported("schemes_wmarks"))
	assert.False(t, f.Supported("no_such_feature"))

	// only the population writes, operations is left alone
	assert.Equal(t, []vfs.Write{
		{Path: k.Path("kdamonds/nr_kdamonds"), Value: "1"},
		{Path: k.Path("kdamonds/0/contexts/nr_contexts"), Value: "1"},
		{Path: k.Path("kdamonds/0/contexts/0/targets/nr_targets"), Value: "1"},
	}, k.Writes())
}

func TestProbe_AvailOperationsWhitespace(t *testing.T) {
	k := sysfstest.New()
	i := newTestInterface(k)
	require.NoError(t, i.EnsureDirsPopulated(0, 0))
	k.Set("kdamonds/0/contexts/0/avail_operations", "  vaddr\tfvaddr \n\n")

	f, err := i.Probe(ProbeOptions{})
	require.NoError(t, err)
	assert.True(t, f.Supported(damon.OpsVaddr))
	assert.True(t, f.Supported(damon.OpsFvaddr))
	assert.False(t, f.Supported(damon.OpsPaddr))
}

func TestProbe_MissingInterface(t *testing.T) {
	i := newTestInterface(sysfstest.New(sysfstest.Missing()))

	f, err := i.Probe(ProbeOptions{})
	assert.ErrorIs(t, err, ErrInterfaceMissing)
	assert.Empty(t, f.List())
	for _, name := range KnownFeatures {
		assert.False(t, f.Supported(name), name)
	}
}

func TestProbe_LegacyRefusesUnsafeProbe(t *testing.T) {
	k := sysfstest.New(sysfstest.Legacy())
	i := newTestInterface(k)
	require.NoError(t, i.EnsureDirsPopulated(0, 0))
	k.Set("kdamonds/0/contexts/0/operations", "paddr")
	k.Reset()

	_, err := i.Probe(ProbeOptions{})
	require.ErrorIs(t, err, ErrUnsafeProbe)
	assert.Empty(t, k.Writes())
	assert.Equal(t, "paddr", k.Get("kdamonds/0/contexts/0/operations"), "configured operations must survive")
}

func TestProbe_LegacyWithStoppedMonitor(t *testing.T) {
	k := sysfstest.New(sysfstest.Legacy(), sysfstest.WithOperations(damon.OpsVaddr, damon.OpsPaddr))
	i := newTestInterface(k)
	require.NoError(t, i.EnsureDirsPopulated(0, 0))
	k.Reset()

	f, err := i.Probe(ProbeOptions{MonitorStopped: true})
	require.NoError(t, err)
	assert.True(t, f.Supported(damon.OpsVaddr))
	assert.True(t, f.Supported(damon.OpsPaddr))
	assert.False(t, f.Supported(damon.OpsFvaddr))

	ops := k.Path("kdamonds/0/contexts/0/operations")
	assert.Equal(t, []vfs.Write{
		{Path: ops, Value: "vaddr"},
		{Path: ops, Value: "paddr"},
		{Path: ops, Value: "vaddr"},
	}, k.Writes(), "the rejected fvaddr write is not journaled")
	assert.Equal(t, "vaddr", k.Get("kdamonds/0/contexts/0/operations"))
}

func TestProbe_PopulationFailure(t *testing.T) {
	i := newTestInterface(sysfstest.New(sysfstest.FailWrite("kdamonds/nr_kdamonds")))

	_, err := i.Probe(ProbeOptions{})
	assert.ErrorIs(t, err, ErrPopulate)
}

func TestFeatures_List(t *testing.T) {
	i := newTestInterface(sysfstest.New())

	f, err := i.Probe(ProbeOptions{})
	require.NoError(t, err)

	list := f.List()
	assert.IsNonDecreasing(t, list)
	assert.Len(t, list, len(KnownFeatures)-1)
	assert.NotContains(t, list, "record")
	assert.Contains(t, list, "paddr")
}

func TestFeatures_ZeroValue(t *testing.T) {
	var f Features
	assert.False(t, f.Supported(damon.OpsVaddr))
	assert.Empty(t, f.List())
}

func TestProbe_ResultsAreIndependent(t *testing.T) {
	full := newTestInterface(sysfstest.New())
	vaddrOnly := newTestInterface(sysfstest.New(sysfstest.WithOperations(damon.OpsVaddr)))

	a, err := full.Probe(ProbeOptions{})
	require.NoError(t, err)
	b, err := vaddrOnly.Probe(ProbeOptions{})
	require.NoError(t, err)

	assert.True(t, a.Supported(damon.OpsPaddr))
	assert.False(t, b.Supported(damon.OpsPaddr))

	// probing again reflects the current kernel, nothing is cached
	again, err := full.Probe(ProbeOptions{})
	require.NoError(t, err)
	assert.Equal(t, a.List(), again.List())
}

func TestFeatures_LegacyRefusalRestoresFreshTree(t *testing.T) {
	k := sysfstest.New(sysfstest.Legacy())
	i := newTestInterface(k)

	_, err := i.Probe(ProbeOptions{})
	require.ErrorIs(t, err, ErrUnsafeProbe)
	assert.Equal(t, "0", k.Get("kdamonds/nr_kdamonds"))
	assert.False(t, k.DirExists(k.Path("kdamonds/0")))
}

func TestFeatures_LegacyRefusalRestoresPartialTree(t *testing.T) {
	k := sysfstest.New(sysfstest.Legacy())
	i := newTestInterface(k)
	require.NoError(t, i.EnsureShape(shaped(2, 0, 0, 0, 0)))

	_, err := i.Probe(ProbeOptions{})
	require.ErrorIs(t, err, ErrUnsafeProbe)
	assert.Equal(t, "2", k.Get("kdamonds/nr_kdamonds"))
	assert.Equal(t, "0", k.Get("kdamonds/0/contexts/nr_contexts"))
	assert.True(t, k.FileExists(k.Path("kdamonds/1/state")))
}
