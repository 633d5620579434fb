//go:build linux

package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ja7ad/damonctl/pkg/damon"
	"github.com/ja7ad/damonctl/pkg/damon/sysfs"
)

func featuresCmd(g *globals) *cobra.Command {
	var opts sysfs.ProbeOptions
	cmd := &cobra.Command{
		Use:   "features",
		Short: "Show which DAMON features the kernel supports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := g.iface().Probe(opts)
			if err != nil {
				return hint(err)
			}
			g.log.Debug("probed features", zap.Strings("supported", f.List()))
			printFeatures(cmd.OutOrStdout(), f)
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.MonitorStopped, "monitor-stopped", false,
		"allow probing by writing each operations set (kernels without avail_operations)")
	return cmd
}

func applyCmd(g *globals) *cobra.Command {
	var (
		src    source
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Write a configuration without starting or committing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kds, err := src.load()
			if err != nil {
				return err
			}
			iface := g.iface()
			if dryRun {
				return dryRunPlan(cmd.OutOrStdout(), iface, kds)
			}
			if err := iface.Apply(kds); err != nil {
				return hint(err)
			}
			g.log.Info("configuration applied", zap.String("root", iface.Root()))
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the writes instead of performing them")
	return cmd
}

// dryRunPlan prints the shape writes (read from the current tree) followed
// by the value writes.
func dryRunPlan(w io.Writer, iface *sysfs.Interface, kds []damon.Kdamond) error {
	shape, err := iface.ShapePlan(kds)
	if err != nil {
		return hint(err)
	}
	writes := shape.Flatten("")
	writes = append(writes, sysfs.KdamondsPlan(kds).Flatten(filepath.Join(iface.Root(), "kdamonds"))...)
	printWrites(w, writes)
	return nil
}

func startCmd(g *globals) *cobra.Command {
	var src source
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Apply a configuration and turn kdamond 0 on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kds, err := src.load()
			if err != nil {
				return err
			}
			iface := g.iface()
			if iface.IsRunning(0) {
				return fmt.Errorf("kdamond 0 is already running, use commit to update it")
			}
			if err := iface.Apply(kds); err != nil {
				return hint(err)
			}
			if err := iface.Turn(sysfs.StateOn, 0); err != nil {
				return hint(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "kdamond 0 started")
			return nil
		},
	}
	src.register(cmd)
	return cmd
}

func commitCmd(g *globals) *cobra.Command {
	var src source
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Apply a configuration to running kdamond 0 and commit it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kds, err := src.load()
			if err != nil {
				return err
			}
			iface := g.iface()
			if !iface.IsRunning(0) {
				return sysfs.ErrNotRunning
			}
			if err := iface.Apply(kds); err != nil {
				return hint(err)
			}
			if err := iface.Commit(0); err != nil {
				return hint(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "kdamond 0 committed")
			return nil
		},
	}
	src.register(cmd)
	return cmd
}

func stopCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Turn off every running kdamond",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			iface := g.iface()
			stopped, err := iface.TurnOffRunning()
			if err != nil {
				return hint(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stopped %d kdamond(s)\n", len(stopped))
			return nil
		},
	}
}

func statusCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the kdamonds currently configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			iface := g.iface()
			n, err := iface.NrKdamonds()
			if err != nil {
				return hint(err)
			}
			sts := make([]sysfs.KdamondStatus, 0, n)
			for k := 0; k < n; k++ {
				st, err := iface.Status(k)
				if err != nil {
					return fmt.Errorf("kdamond %d: %w", k, err)
				}
				sts = append(sts, st)
			}
			printStatus(cmd.OutOrStdout(), sts)
			return nil
		},
	}
}
