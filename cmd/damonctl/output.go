//go:build linux

package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/ja7ad/damonctl/pkg/damon"
	"github.com/ja7ad/damonctl/pkg/damon/sysfs"
	"github.com/ja7ad/damonctl/pkg/system/proc"
	"github.com/ja7ad/damonctl/pkg/system/vfs"
	"github.com/ja7ad/damonctl/pkg/types"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printFeatures(w io.Writer, f sysfs.Features) {
	tw := newTable(w)
	fmt.Fprintln(tw, "FEATURE\tSUPPORTED")
	fmt.Fprintln(tw, "-------\t---------")
	for _, name := range sysfs.KnownFeatures {
		fmt.Fprintf(tw, "%s\t%t\n", name, f.Supported(name))
	}
	tw.Flush()
}

func printWrites(w io.Writer, writes []vfs.Write) {
	tw := newTable(w)
	fmt.Fprintln(tw, "PATH\tVALUE")
	fmt.Fprintln(tw, "----\t-----")
	for _, wr := range writes {
		fmt.Fprintf(tw, "%s\t%s\n", wr.Path, wr.Value)
	}
	tw.Flush()
}

func printStatus(w io.Writer, sts []sysfs.KdamondStatus) {
	if len(sts) == 0 {
		fmt.Fprintln(w, "no kdamonds")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "KDAMOND\tSTATE\tPID\tCTX\tOPS\tSAMPLE/AGGR/UPDATE (us)\tMAX_ACCESSES\tNR_REGIONS\tTARGET\tREGIONS\tSIZE\tSCHEMES")
	fmt.Fprintln(tw, "-------\t-----\t---\t---\t---\t-----------------------\t------------\t----------\t------\t-------\t----\t-------")
	for _, st := range sts {
		if len(st.Contexts) == 0 {
			fmt.Fprintf(tw, "%d\t%s\t%s\t-\t-\t-\t-\t-\t-\t-\t-\t-\n", st.Index, st.State, pidString(st.PID))
			continue
		}
		for c, cs := range st.Contexts {
			iv := cs.Intervals
			head := fmt.Sprintf("%d\t%s\t%s\t%d\t%s\t%d/%d/%d\t%d\t%d..%d",
				st.Index, st.State, pidString(st.PID), c, cs.Ops,
				iv.Sample, iv.Aggr, iv.OpsUpdate, iv.MaxNrAccesses(), cs.NrRegions.Min, cs.NrRegions.Max)
			if len(cs.Targets) == 0 {
				fmt.Fprintf(tw, "%s\t-\t-\t-\t%d\n", head, cs.NrSchemes)
				continue
			}
			for _, t := range cs.Targets {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\n", head, targetName(cs.Ops, t), len(t.Regions), regionsSize(t.Regions).Humanized(), cs.NrSchemes)
			}
		}
	}
	tw.Flush()
}

func pidString(pid int) string {
	if pid < 0 {
		return "-"
	}
	return strconv.Itoa(pid)
}

// targetName describes a target: the pid, process name and resident size
// for process targets, "physical" otherwise.
func targetName(ops string, t damon.Target) string {
	if !damon.TargetHasPID(ops) {
		return "physical"
	}
	p, err := proc.Describe(t.PID)
	if err != nil {
		return strconv.Itoa(t.PID) + " (gone)"
	}
	return p.String()
}

func regionsSize(regions []damon.Region) types.Bytes {
	var total types.Bytes
	for _, r := range regions {
		total += r.Size()
	}
	return total
}
