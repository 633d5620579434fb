package sysfs

import (
	"path/filepath"
	"strings"

	"github.com/ja7ad/damonctl/pkg/damon"
	"github.com/ja7ad/damonctl/pkg/system/vfs"
)

// KdamondStatus is what the interface currently holds for one kdamond.
type KdamondStatus struct {
	Index    int
	State    string
	PID      int // kdamond thread, -1 when not running
	Contexts []ContextStatus
}

// ContextStatus is the current content of one context directory.
type ContextStatus struct {
	Ops       string
	Intervals damon.Intervals
	NrRegions damon.NrRegionsRange
	Targets   []damon.Target
	NrSchemes int
}

// Status reads back kdamond k.
func (i *Interface) Status(k int) (KdamondStatus, error) {
	st := KdamondStatus{Index: k, PID: -1}

	state, err := i.fs.ReadFile(i.paths.stateFile(k))
	if err != nil {
		return st, err
	}
	st.State = strings.TrimSpace(state)
	if pid, err := i.readInt(filepath.Join(i.paths.kdamondDir(k), "pid")); err == nil {
		st.PID = pid
	}

	nrContexts, err := i.readInt(i.paths.nrContextsFile(k))
	if err != nil {
		return st, err
	}
	for c := 0; c < nrContexts; c++ {
		cs, err := i.contextStatus(k, c)
		if err != nil {
			return st, err
		}
		st.Contexts = append(st.Contexts, cs)
	}
	return st, nil
}

func (i *Interface) contextStatus(k, c int) (ContextStatus, error) {
	var cs ContextStatus
	ops, err := i.fs.ReadFile(i.paths.operationsFile(k, c))
	if err != nil {
		return cs, err
	}
	cs.Ops = strings.TrimSpace(ops)

	r := uintReader{fs: i.fs}
	iv := i.paths.intervalsDir(k, c)
	cs.Intervals = damon.Intervals{
		Sample:    r.read(filepath.Join(iv, "sample_us")),
		Aggr:      r.read(filepath.Join(iv, "aggr_us")),
		OpsUpdate: r.read(filepath.Join(iv, "update_us")),
	}
	nr := i.paths.nrRegionsRangeDir(k, c)
	cs.NrRegions = damon.NrRegionsRange{
		Min: r.read(filepath.Join(nr, "min")),
		Max: r.read(filepath.Join(nr, "max")),
	}
	if r.err != nil {
		return cs, r.err
	}

	nrTargets, err := i.readInt(i.paths.nrTargetsFile(k, c))
	if err != nil {
		return cs, err
	}
	for t := 0; t < nrTargets; t++ {
		var target damon.Target
		if damon.TargetHasPID(cs.Ops) {
			if target.PID, err = i.readInt(filepath.Join(i.paths.targetDir(k, c, t), "pid_target")); err != nil {
				return cs, err
			}
		}
		nrRegions, err := i.readInt(i.paths.nrRegionsFile(k, c, t))
		if err != nil {
			return cs, err
		}
		for m := 0; m < nrRegions; m++ {
			dir := i.paths.regionDir(k, c, t, m)
			target.Regions = append(target.Regions, damon.Region{
				Start: r.read(filepath.Join(dir, "start")),
				End:   r.read(filepath.Join(dir, "end")),
			})
		}
		if r.err != nil {
			return cs, r.err
		}
		cs.Targets = append(cs.Targets, target)
	}

	cs.NrSchemes, err = i.readInt(i.paths.nrSchemesFile(k, c))
	return cs, err
}

// uintReader keeps the first error so a group of reads can be checked once.
type uintReader struct {
	fs  vfs.FS
	err error
}

func (r *uintReader) read(path string) uint64 {
	if r.err != nil {
		return 0
	}
	v, err := vfs.ReadUint(r.fs, path)
	r.err = err
	return v
}
