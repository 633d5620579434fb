//go:build linux

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ja7ad/damonctl/pkg/damon/sysfs"
	"github.com/ja7ad/damonctl/pkg/system/mount"
	"github.com/ja7ad/damonctl/pkg/system/vfs"
)

// envRoot overrides the detected DAMON sysfs admin directory.
const envRoot = "DAMON_SYSFS_ROOT"

type globals struct {
	root     string
	logLevel string
	settle   time.Duration

	fs  vfs.FS
	log *zap.Logger
}

func main() {
	g := globals{fs: vfs.OS()}
	root := newRootCmd(&g)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if g.log != nil {
			g.log.Error("command failed", zap.Error(err))
			_ = g.log.Sync()
		}
		os.Exit(1)
	}
}

// newRootCmd builds the command tree around g. A logger already set on g is
// kept, otherwise one is built from --log-level.
func newRootCmd(g *globals) *cobra.Command {
	root := &cobra.Command{
		Use:   "damonctl",
		Short: "Configure and control DAMON through its sysfs interface",
		Long: `damonctl writes DAMON (Data Access MONitor) configurations to the kernel's
sysfs admin interface and turns kdamonds on and off.

A configuration is a YAML file of kdamonds, contexts, targets and schemes, or
a single target given with --ops, --pid and --regions.

* GitHub: https://github.com/ja7ad/damonctl

Examples:
  damonctl features
  damonctl start --pid $(pidof redis-server) --regions '[heap]'
  damonctl apply -c damon.yaml --dry-run
  damonctl commit -c damon.yaml
  damonctl stop`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if g.log != nil {
				return nil
			}
			log, err := newLogger(g.logLevel)
			if err != nil {
				return err
			}
			g.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if g.log != nil {
				_ = g.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&g.root, "root", "", "DAMON sysfs admin directory (default $"+envRoot+", else detected from mountinfo)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().DurationVar(&g.settle, "settle", sysfs.DefaultSettleDelay, "pause before turning a kdamond on")

	root.AddCommand(
		featuresCmd(g),
		applyCmd(g),
		startCmd(g),
		commitCmd(g),
		stopCmd(g),
		statusCmd(g),
	)
	return root
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// resolveRoot picks the admin directory: --root, then $DAMON_SYSFS_ROOT,
// then the sysfs mount point from mountinfo.
func resolveRoot(flag string, log *zap.Logger) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(envRoot); env != "" {
		return env
	}
	mounts, err := mount.Read()
	if err == nil {
		var root string
		if root, err = mount.DamonAdminRoot(mounts); err == nil {
			return root
		}
	}
	log.Warn("sysfs mount not detected, using default root", zap.String("root", sysfs.DefaultRoot), zap.Error(err))
	return sysfs.DefaultRoot
}

func (g *globals) iface() *sysfs.Interface {
	root := resolveRoot(g.root, g.log)
	g.log.Debug("using DAMON sysfs root", zap.String("root", root))
	return sysfs.New(g.fs,
		sysfs.WithRoot(root),
		sysfs.WithLogger(g.log),
		sysfs.WithSettleDelay(g.settle),
	)
}

// hint adds an actionable message to errors a user commonly hits.
func hint(err error) error {
	switch {
	case errors.Is(err, sysfs.ErrInterfaceMissing):
		return fmt.Errorf("%w (is CONFIG_DAMON_SYSFS enabled and sysfs mounted?)", err)
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("%w (writing DAMON sysfs requires root)", err)
	case errors.Is(err, sysfs.ErrUnsafeProbe):
		return fmt.Errorf("%w (stop DAMON and retry with --monitor-stopped)", err)
	}
	return err
}
