package sysfs

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ja7ad/damonctl/pkg/damon"
	"github.com/ja7ad/damonctl/pkg/system/vfs"
)

// State is a value written to a kdamond state file.
type State string

const (
	StateOn     State = "on"
	StateOff    State = "off"
	StateCommit State = "commit"
)

// Apply writes kdamonds to the interface: it resizes the tree with
// EnsureShape and then writes every value in one batch.
//
// Only one kdamond with one context and one target is supported; anything
// else fails with ErrUnsupportedScope before the interface is touched.
// Values of a running kdamond only take effect after Commit.
func (i *Interface) Apply(kdamonds []damon.Kdamond) error {
	if err := checkScope(kdamonds); err != nil {
		return err
	}
	if err := i.EnsureShape(kdamonds); err != nil {
		i.log.Error("directory populating failed", zap.Error(err))
		return err
	}
	if err := vfs.Apply(i.fs, i.paths.kdamondsDir(), KdamondsPlan(kdamonds), i.log); err != nil {
		i.log.Error("kdamond applying failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrApply, err)
	}
	return nil
}

func checkScope(kdamonds []damon.Kdamond) error {
	switch {
	case len(kdamonds) != 1:
		return fmt.Errorf("%w: got %d kdamonds", ErrUnsupportedScope, len(kdamonds))
	case len(kdamonds[0].Contexts) != 1:
		return fmt.Errorf("%w: got %d contexts", ErrUnsupportedScope, len(kdamonds[0].Contexts))
	case len(kdamonds[0].Contexts[0].Targets) != 1:
		return fmt.Errorf("%w: got %d targets", ErrUnsupportedScope, len(kdamonds[0].Contexts[0].Targets))
	}
	return nil
}

// Commit makes running kdamond k pick up the applied inputs without a
// stop/start cycle.
func (i *Interface) Commit(k int) error {
	return i.writeState(k, StateCommit)
}

// Turn writes on or off to the state file of kdamond k. Turning on waits
// for the settle delay first.
func (i *Interface) Turn(state State, k int) error {
	if state != StateOn && state != StateOff {
		return fmt.Errorf("sysfs: cannot turn kdamond %d %q", k, state)
	}
	if state == StateOn && i.settle > 0 {
		i.sleep(i.settle)
	}
	return i.writeState(k, state)
}

func (i *Interface) writeState(k int, state State) error {
	path := i.paths.stateFile(k)
	if err := i.fs.WriteFile(path, string(state)); err != nil {
		i.log.Error("writing kdamond state failed", zap.Int("kdamond", k), zap.String("state", string(state)), zap.Error(err))
		return err
	}
	i.log.Info("kdamond state written", zap.Int("kdamond", k), zap.String("state", string(state)))
	return nil
}

// IsRunning reports whether the state of kdamond k is exactly "on".
// An unreadable state file means not running.
func (i *Interface) IsRunning(k int) bool {
	content, err := i.fs.ReadFile(i.paths.stateFile(k))
	if err != nil {
		i.log.Debug("reading kdamond state failed", zap.Int("kdamond", k), zap.Error(err))
		return false
	}
	return strings.TrimSpace(content) == string(StateOn)
}

// NrKdamonds returns the number of kdamond directories.
func (i *Interface) NrKdamonds() (int, error) {
	if err := i.Missing(); err != nil {
		return 0, err
	}
	return i.readInt(i.paths.nrKdamondsFile())
}

// RunningKdamonds returns the indexes of the kdamonds that are on.
func (i *Interface) RunningKdamonds() ([]int, error) {
	n, err := i.NrKdamonds()
	if err != nil {
		return nil, err
	}
	var running []int
	for k := 0; k < n; k++ {
		if i.IsRunning(k) {
			running = append(running, k)
		}
	}
	return running, nil
}

// TurnOffRunning turns off every running kdamond and returns the indexes it
// turned off. It fails with ErrNotRunning when none is on. On a failed write
// the kdamonds turned off before it are still returned.
func (i *Interface) TurnOffRunning() ([]int, error) {
	running, err := i.RunningKdamonds()
	if err != nil {
		return nil, err
	}
	if len(running) == 0 {
		return nil, ErrNotRunning
	}
	stopped := make([]int, 0, len(running))
	for _, k := range running {
		if err := i.Turn(StateOff, k); err != nil {
			return stopped, fmt.Errorf("turning off kdamond %d: %w", k, err)
		}
		stopped = append(stopped, k)
	}
	return stopped, nil
}
