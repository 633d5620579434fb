package sysfs

import (
	"slices"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ja7ad/damonctl/pkg/damon"
	"github.com/ja7ad/damonctl/pkg/system/vfs"
)

// KnownFeatures lists every optional feature a Features value answers for.
var KnownFeatures = []string{
	"record",
	"schemes",
	"init_regions",
	damon.OpsVaddr,
	damon.OpsFvaddr,
	damon.OpsPaddr,
	"init_regions_target_idx",
	"schemes_speed_limit",
	"schemes_quotas",
	"schemes_prioritization",
	"schemes_wmarks",
	"schemes_stat_succ",
	"schemes_stat_qt_exceed",
}

// record is tracepoint based and has no sysfs control.
const featureRecord = "record"

var operationsFeatures = []string{damon.OpsVaddr, damon.OpsFvaddr, damon.OpsPaddr}

// Features is the result of a probe. The zero value supports nothing.
type Features struct {
	supported map[string]bool
}

// Supported reports whether name is supported. Unknown names are not.
func (f Features) Supported(name string) bool { return f.supported[name] }

// List returns the supported feature names, sorted.
func (f Features) List() []string {
	var out []string
	for name, ok := range f.supported {
		if ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// ProbeOptions controls Probe.
type ProbeOptions struct {
	// MonitorStopped asserts that kdamond 0 is not running. It is required
	// on kernels without avail_operations, where support can only be found
	// by writing every operations set to the live operations file. Without
	// it the call is refused, and counts raised to reach context 0 are
	// written back to their previous values.
	MonitorStopped bool
}

// Probe discovers which features the interface supports.
//
// It populates kdamond 0, context 0 and target 0 if needed, then reads
// avail_operations. Without that file support is probed by writing each
// operations set, which overwrites the configured one; that path fails with
// ErrUnsafeProbe unless opts.MonitorStopped is set, and the refusal leaves
// the counts as it found them.
//
// Call it once and pass the result to whoever needs it.
func (i *Interface) Probe(opts ProbeOptions) (Features, error) {
	if err := i.Missing(); err != nil {
		return Features{}, err
	}

	f := Features{supported: make(map[string]bool, len(KnownFeatures))}
	for _, name := range KnownFeatures {
		f.supported[name] = name != featureRecord
	}

	avail := i.paths.availOperationsFile(0, 0)
	if !opts.MonitorStopped && i.fs.DirExists(i.paths.ctxDir(0, 0)) && !i.fs.FileExists(avail) {
		return Features{}, ErrUnsafeProbe
	}

	undo, err := i.populate(0, 0)
	if err != nil {
		return Features{}, err
	}

	if !i.fs.FileExists(avail) {
		if !opts.MonitorStopped {
			if err := vfs.Apply(i.fs, "", undo, i.log); err != nil {
				i.log.Error("restoring dirs after refusal failed", zap.Error(err))
			}
			return Features{}, ErrUnsafeProbe
		}
		i.probeOperations(f)
		return f, nil
	}

	content, err := i.fs.ReadFile(avail)
	if err != nil {
		i.log.Error("reading avail_operations failed, assuming every operations set", zap.Error(err))
		return f, nil
	}
	tokens := strings.Fields(content)
	for _, ops := range operationsFeatures {
		f.supported[ops] = slices.Contains(tokens, ops)
	}
	i.log.Debug("probed features", zap.Strings("avail_operations", tokens))
	return f, nil
}

// probeOperations writes every operations set to the operations file of
// context 0 and records which writes the kernel accepts. vaddr is written
// last again so the file ends at the kernel default.
func (i *Interface) probeOperations(f Features) {
	path := i.paths.operationsFile(0, 0)
	for _, ops := range []string{damon.OpsVaddr, damon.OpsPaddr, damon.OpsFvaddr, damon.OpsVaddr} {
		err := i.fs.WriteFile(path, ops)
		f.supported[ops] = err == nil
		i.log.Info("probed operations", zap.String("ops", ops), zap.Bool("supported", err == nil))
	}
}
