// Package sysfs drives DAMON, the kernel Data Access MONitor, through its
// sysfs admin interface.
//
// # Layout
//
// The interface is a tree of numbered directories whose sizes are set by
// nr_* files:
//
//	<root>/kdamonds/nr_kdamonds
//	<root>/kdamonds/<k>/state                      on | off | commit
//	<root>/kdamonds/<k>/contexts/nr_contexts
//	<root>/kdamonds/<k>/contexts/<c>/operations
//	<root>/kdamonds/<k>/contexts/<c>/avail_operations
//	<root>/kdamonds/<k>/contexts/<c>/monitoring_attrs/intervals/{sample_us,aggr_us,update_us}
//	<root>/kdamonds/<k>/contexts/<c>/monitoring_attrs/nr_regions/{min,max}
//	<root>/kdamonds/<k>/contexts/<c>/targets/nr_targets
//	<root>/kdamonds/<k>/contexts/<c>/targets/<t>/pid_target
//	<root>/kdamonds/<k>/contexts/<c>/targets/<t>/regions/nr_regions
//	<root>/kdamonds/<k>/contexts/<c>/targets/<t>/regions/<r>/{start,end}
//	<root>/kdamonds/<k>/contexts/<c>/schemes/nr_schemes
//	<root>/kdamonds/<k>/contexts/<c>/schemes/<s>/...
//
// Positions are the only identity the kernel offers. Reordering a list is
// the same as deleting and recreating its entries.
//
// # Applying a configuration
//
// Apply runs in two batches. EnsureShape first makes every nr_* count match
// the configuration, top-down, because lower counts only exist once their
// parent directories do. KdamondsPlan then yields the value writes, which
// are applied in order. Neither batch is rolled back on failure: after an
// error the tree may be partially written.
//
//	iface := sysfs.New(vfs.OS(), sysfs.WithLogger(log))
//	if err := iface.Apply(root.Kdamonds); err != nil {
//		return err
//	}
//	if err := iface.Turn(sysfs.StateOn, 0); err != nil {
//		return err
//	}
//
// # Features
//
// Probe returns a Features value describing what the kernel supports.
// Kernels without avail_operations can only be probed by writing each
// operations set, which clobbers the configured one; Probe refuses to do so
// unless the caller asserts the monitor is stopped.
//
// # Concurrency
//
// Nothing is locked. Another writer resizing the tree between the reads of
// ShapePlan and its writes can cause truncation or stale counts. Every file
// operation blocks and is attempted exactly once.
package sysfs
