//go:build linux

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ja7ad/damonctl/pkg/damon"
	"github.com/ja7ad/damonctl/pkg/system/proc"
	"github.com/ja7ad/damonctl/pkg/system/util"
)

// source is where a command takes its configuration from: a YAML file or a
// single target described by flags.
type source struct {
	config  string
	ops     string
	pid     string
	regions string
}

func (s *source) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.config, "config", "c", "", "YAML configuration file")
	cmd.Flags().StringVar(&s.ops, "ops", damon.OpsVaddr, "operations set of the target (vaddr, fvaddr, paddr)")
	cmd.Flags().StringVar(&s.pid, "pid", "", "target process id (vaddr, fvaddr)")
	cmd.Flags().StringVar(&s.regions, "regions", "", "START-END[,START-END...] or a mapping name such as '[heap]'")
	cmd.MarkFlagsMutuallyExclusive("config", "ops")
	cmd.MarkFlagsMutuallyExclusive("config", "pid")
	cmd.MarkFlagsMutuallyExclusive("config", "regions")
	cmd.MarkFlagsOneRequired("config", "pid", "regions")
}

// load returns the kdamonds to apply.
func (s *source) load() ([]damon.Kdamond, error) {
	if s.config != "" {
		root, err := damon.LoadFile(s.config)
		if err != nil {
			return nil, err
		}
		return root.Kdamonds, nil
	}

	target, err := s.target()
	if err != nil {
		return nil, err
	}
	root := damon.Root{Kdamonds: []damon.Kdamond{{
		Contexts: []damon.Context{{Ops: s.ops, Targets: []damon.Target{target}}},
	}}}
	root.SetDefaults()
	if err := root.Validate(); err != nil {
		return nil, err
	}
	return root.Kdamonds, nil
}

func (s *source) target() (damon.Target, error) {
	var t damon.Target
	if damon.TargetHasPID(s.ops) {
		if s.pid == "" {
			return t, fmt.Errorf("--pid is required for %s", s.ops)
		}
		pid, err := util.ParsePID(s.pid)
		if err != nil {
			return t, err
		}
		if !proc.Exists(pid) {
			return t, fmt.Errorf("process %d does not exist", pid)
		}
		t.PID = pid
	} else if s.pid != "" {
		return t, fmt.Errorf("--pid is not used by %s", s.ops)
	}

	switch {
	case strings.HasPrefix(s.regions, "["):
		if t.PID == 0 {
			return t, fmt.Errorf("--regions %s needs a process target", s.regions)
		}
		maps, err := proc.ReadMaps(t.PID)
		if err != nil {
			return t, fmt.Errorf("reading mappings of %d: %w", t.PID, err)
		}
		t.Regions = util.MappingRegions(maps, s.regions)
		if len(t.Regions) == 0 {
			return t, fmt.Errorf("process %d has no %s mapping", t.PID, s.regions)
		}
	case s.regions != "":
		regions, err := util.ParseRegions(s.regions)
		if err != nil {
			return t, err
		}
		t.Regions = regions
	case s.ops == damon.OpsPaddr:
		return t, fmt.Errorf("--regions is required for %s", s.ops)
	}
	return t, nil
}
