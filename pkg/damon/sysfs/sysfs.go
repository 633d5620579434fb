package sysfs

import (
	"time"

	"go.uber.org/zap"

	"github.com/ja7ad/damonctl/pkg/system/vfs"
)

// DefaultSettleDelay is the pause before turning a kdamond on. Monitoring a
// process right after it started shows unstable mapping changes, so the
// target is given some time to settle its memory layout.
const DefaultSettleDelay = 500 * time.Millisecond

// Interface drives one DAMON sysfs admin directory.
type Interface struct {
	fs     vfs.FS
	paths  paths
	log    *zap.Logger
	settle time.Duration
	sleep  func(time.Duration)
}

// Option configures an Interface.
type Option func(*Interface)

// WithRoot sets the admin directory. Defaults to DefaultRoot.
func WithRoot(root string) Option {
	return func(i *Interface) { i.paths.root = root }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(i *Interface) {
		if l != nil {
			i.log = l
		}
	}
}

// WithSettleDelay overrides DefaultSettleDelay.
func WithSettleDelay(d time.Duration) Option {
	return func(i *Interface) { i.settle = d }
}

// New returns an Interface operating on fs.
func New(fs vfs.FS, opts ...Option) *Interface {
	i := &Interface{
		fs:     fs,
		paths:  paths{root: DefaultRoot},
		log:    zap.NewNop(),
		settle: DefaultSettleDelay,
		sleep:  time.Sleep,
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

// Root returns the admin directory in use.
func (i *Interface) Root() string { return i.paths.root }

// Missing returns ErrInterfaceMissing if the kdamonds directory is absent.
func (i *Interface) Missing() error {
	if !i.fs.DirExists(i.paths.kdamondsDir()) {
		return ErrInterfaceMissing
	}
	return nil
}

func (i *Interface) readInt(path string) (int, error) {
	n, err := vfs.ReadInt(i.fs, path)
	if err != nil {
		return 0, err
	}
	i.log.Debug("read", zap.String("path", path), zap.Int("value", n))
	return n, nil
}
