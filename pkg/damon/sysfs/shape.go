package sysfs

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ja7ad/damonctl/pkg/damon"
	"github.com/ja7ad/damonctl/pkg/system/vfs"
)

// ShapePlan compares the nr_* counts of the tree with the lengths of the
// desired lists and returns the count writes needed to match them.
//
// Counts are read top-down and writes are staged in the same order: writing
// a smaller count truncates the entries beyond it, and a larger count creates
// the directories the deeper counts live in. Objects whose directory will
// only be created by a staged write are not read; their count is zero.
//
// Nothing is written. Any read failure, including a count file holding
// something other than an integer, is returned before a plan exists.
func (i *Interface) ShapePlan(kdamonds []damon.Kdamond) (vfs.Plan, error) {
	if err := i.Missing(); err != nil {
		return nil, err
	}
	s := shaper{i: i}

	nrKdamonds, err := s.count(i.paths.nrKdamondsFile(), true, len(kdamonds))
	if err != nil {
		return nil, err
	}
	for k, kd := range kdamonds {
		kdExists := k < nrKdamonds
		nrContexts, err := s.count(i.paths.nrContextsFile(k), kdExists, len(kd.Contexts))
		if err != nil {
			return nil, err
		}
		for c, ctx := range kd.Contexts {
			ctxExists := kdExists && c < nrContexts
			nrTargets, err := s.count(i.paths.nrTargetsFile(k, c), ctxExists, len(ctx.Targets))
			if err != nil {
				return nil, err
			}
			for t, target := range ctx.Targets {
				targetExists := ctxExists && t < nrTargets
				if _, err := s.count(i.paths.nrRegionsFile(k, c, t), targetExists, len(target.Regions)); err != nil {
					return nil, err
				}
			}
			if _, err := s.count(i.paths.nrSchemesFile(k, c), ctxExists, len(ctx.Schemes)); err != nil {
				return nil, err
			}
		}
	}
	return s.plan, nil
}

// EnsureShape applies ShapePlan as one batch. A failing write leaves the
// earlier writes of the batch applied.
func (i *Interface) EnsureShape(kdamonds []damon.Kdamond) error {
	plan, err := i.ShapePlan(kdamonds)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrResize, err)
	}
	if len(plan) == 0 {
		return nil
	}
	i.log.Info("resizing dirs", zap.Int("writes", plan.Len()))
	if err := vfs.Apply(i.fs, "", plan, i.log); err != nil {
		return fmt.Errorf("%w: %w", ErrResize, err)
	}
	return nil
}

type shaper struct {
	i    *Interface
	plan vfs.Plan
}

// count returns the current count of path (zero when the owning object does
// not exist yet) and stages a write if it differs from want.
func (s *shaper) count(path string, exists bool, want int) (int, error) {
	cur := 0
	if exists {
		n, err := s.i.readInt(path)
		if err != nil {
			return 0, err
		}
		cur = n
	}
	if cur != want {
		s.plan = s.plan.Set(path, idx(want))
	}
	return cur, nil
}

// DirsPopulated reports whether kdamond k, its context c and target 0 of
// that context exist. Read failures are logged and reported as false.
func (i *Interface) DirsPopulated(k, c int) bool {
	for _, f := range []struct {
		path string
		min  int
	}{
		{i.paths.nrKdamondsFile(), k + 1},
		{i.paths.nrContextsFile(k), c + 1},
		{i.paths.nrTargetsFile(k, c), 1},
	} {
		n, err := i.readInt(f.path)
		if err != nil {
			i.log.Debug("dirs not populated", zap.Error(err))
			return false
		}
		if n < f.min {
			return false
		}
	}
	return true
}

// EnsureDirsPopulated makes kdamond k, context c and target 0 addressable
// if DirsPopulated is false. Counts are only ever raised, to k+1, c+1 and 1,
// so kdamonds and contexts beyond the requested ones are kept.
func (i *Interface) EnsureDirsPopulated(k, c int) error {
	_, err := i.populate(k, c)
	return err
}

// populate does the work of EnsureDirsPopulated and returns the writes that
// restore the previous counts, deepest first.
func (i *Interface) populate(k, c int) (vfs.Plan, error) {
	if i.DirsPopulated(k, c) {
		return nil, nil
	}
	g := grower{i: i}
	nrKdamonds := g.grow(i.paths.nrKdamondsFile(), true, k+1)
	kdExists := k < nrKdamonds
	nrContexts := g.grow(i.paths.nrContextsFile(k), kdExists, c+1)
	g.grow(i.paths.nrTargetsFile(k, c), kdExists && c < nrContexts, 1)
	if g.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPopulate, g.err)
	}

	i.log.Info("populating dirs", zap.Int("kdamond", k), zap.Int("context", c))
	if err := vfs.Apply(i.fs, "", g.plan, i.log); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPopulate, err)
	}
	return g.undo, nil
}

// grower stages count writes that raise counts to a minimum.
type grower struct {
	i    *Interface
	plan vfs.Plan
	undo vfs.Plan
	err  error
}

// grow returns the current count of path (zero when the owning object does
// not exist yet) and stages a write to want if it is lower.
func (g *grower) grow(path string, exists bool, want int) int {
	if g.err != nil {
		return 0
	}
	cur := 0
	if exists {
		if cur, g.err = g.i.readInt(path); g.err != nil {
			return 0
		}
	}
	if cur < want {
		g.plan = g.plan.Set(path, idx(want))
		if exists {
			g.undo = append(vfs.Plan{{Key: path, Value: idx(cur)}}, g.undo...)
		}
	}
	return cur
}
