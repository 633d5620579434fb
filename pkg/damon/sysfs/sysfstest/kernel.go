// Package sysfstest provides an in-memory DAMON sysfs tree that reacts to
// writes the way the kernel does, for hermetic tests of the control code.
package sysfstest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/ja7ad/damonctl/pkg/system/vfs"
)

// Root is where the simulated admin directory lives.
const Root = "/sys/kernel/mm/damon/admin"

// Kernel is a simulated DAMON sysfs interface. It implements vfs.FS.
type Kernel struct {
	*vfs.AferoFS

	root    string
	ops     []string
	legacy  bool
	missing bool
	fail    map[string]bool
	journal []vfs.Write
}

// Option customizes a Kernel.
type Option func(*Kernel)

// WithOperations sets the operations sets the kernel supports.
func WithOperations(ops ...string) Option {
	return func(k *Kernel) { k.ops = ops }
}

// Legacy omits the avail_operations file, like kernels before 5.19.
func Legacy() Option {
	return func(k *Kernel) { k.legacy = true }
}

// Missing leaves the admin directory absent, like a kernel without DAMON sysfs.
func Missing() Option {
	return func(k *Kernel) { k.missing = true }
}

// FailWrite makes every write to the path (relative to Root) fail.
func FailWrite(rel string) Option {
	return func(k *Kernel) { k.fail[filepath.Join(k.root, rel)] = true }
}

// New builds a kernel with zero kdamonds.
func New(opts ...Option) *Kernel {
	k := &Kernel{
		AferoFS: vfs.New(afero.NewMemMapFs()),
		root:    Root,
		ops:     []string{"vaddr", "fvaddr", "paddr"},
		fail:    map[string]bool{},
	}
	for _, o := range opts {
		o(k)
	}
	if !k.missing {
		k.mustCreate(filepath.Join(k.root, "kdamonds", "nr_kdamonds"), "0")
	}
	return k
}

// Path joins rel onto the admin root.
func (k *Kernel) Path(rel ...string) string {
	return filepath.Join(append([]string{k.root}, rel...)...)
}

// Get returns the trimmed content of a file relative to Root, or "" if absent.
func (k *Kernel) Get(rel string) string {
	b, err := afero.ReadFile(k.Afero(), k.Path(rel))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// Set stores raw content into a file relative to Root, bypassing every
// kernel rule. Used to stage states and malformed content.
func (k *Kernel) Set(rel, content string) {
	k.mustCreate(k.Path(rel), content)
}

// Remove deletes a file or directory relative to Root.
func (k *Kernel) Remove(rel string) {
	_ = k.Afero().RemoveAll(k.Path(rel))
}

// Writes returns the successful writes since creation or the last Reset.
func (k *Kernel) Writes() []vfs.Write {
	return slices.Clone(k.journal)
}

// Reset clears the write journal.
func (k *Kernel) Reset() { k.journal = nil }

// WriteFile applies the kernel rules for the attribute being written.
func (k *Kernel) WriteFile(name, content string) error {
	if k.fail[name] {
		return &fs.PathError{Op: "write", Path: name, Err: os.ErrPermission}
	}
	if !k.FileExists(name) {
		return &fs.PathError{Op: "write", Path: name, Err: os.ErrNotExist}
	}
	value := strings.TrimSpace(content)

	base := filepath.Base(name)
	switch {
	case populators[base] != nil:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return &fs.PathError{Op: "write", Path: name, Err: os.ErrInvalid}
		}
		if err := k.AferoFS.WriteFile(name, value); err != nil {
			return err
		}
		k.resize(filepath.Dir(name), n, populators[base])
	case base == "state":
		switch value {
		case "on", "off":
			if err := k.AferoFS.WriteFile(name, value); err != nil {
				return err
			}
		case "commit":
			cur, _ := k.ReadFile(name)
			if strings.TrimSpace(cur) != "on" {
				return &fs.PathError{Op: "write", Path: name, Err: os.ErrInvalid}
			}
		default:
			return &fs.PathError{Op: "write", Path: name, Err: os.ErrInvalid}
		}
	case base == "operations":
		if !slices.Contains(k.ops, value) {
			return &fs.PathError{Op: "write", Path: name, Err: os.ErrInvalid}
		}
		if err := k.AferoFS.WriteFile(name, value); err != nil {
			return err
		}
	case base == "avail_operations":
		return &fs.PathError{Op: "write", Path: name, Err: os.ErrPermission}
	default:
		if err := k.AferoFS.WriteFile(name, value); err != nil {
			return err
		}
	}
	k.journal = append(k.journal, vfs.Write{Path: name, Value: content})
	return nil
}

type populator func(k *Kernel, dir string)

var populators = map[string]populator{
	"nr_kdamonds": (*Kernel).populateKdamond,
	"nr_contexts": (*Kernel).populateContext,
	"nr_targets":  (*Kernel).populateTarget,
	"nr_regions":  (*Kernel).populateRegion,
	"nr_schemes":  (*Kernel).populateScheme,
}

// resize creates numbered children [0, n) of dir and removes the rest.
func (k *Kernel) resize(dir string, n int, populate populator) {
	for i := 0; ; i++ {
		child := filepath.Join(dir, strconv.Itoa(i))
		exists := k.DirExists(child)
		switch {
		case i < n && !exists:
			populate(k, child)
		case i >= n && exists:
			_ = k.Afero().RemoveAll(child)
		case i >= n:
			return
		}
	}
}

func (k *Kernel) files(dir string, files map[string]string) {
	for name, content := range files {
		k.mustCreate(filepath.Join(dir, name), content)
	}
}

func (k *Kernel) populateKdamond(dir string) {
	k.files(dir, map[string]string{
		"state":                "off",
		"pid":                  "-1",
		"contexts/nr_contexts": "0",
	})
}

func (k *Kernel) populateContext(dir string) {
	k.files(dir, map[string]string{
		"operations":                           "vaddr",
		"monitoring_attrs/intervals/sample_us": "5000",
		"monitoring_attrs/intervals/aggr_us":   "100000",
		"monitoring_attrs/intervals/update_us": "1000000",
		"monitoring_attrs/nr_regions/min":      "10",
		"monitoring_attrs/nr_regions/max":      "1000",
		"targets/nr_targets":                   "0",
		"schemes/nr_schemes":                   "0",
	})
	if !k.legacy {
		k.mustCreate(filepath.Join(dir, "avail_operations"), strings.Join(k.ops, "\n"))
	}
}

func (k *Kernel) populateTarget(dir string) {
	k.files(dir, map[string]string{
		"pid_target":         "0",
		"regions/nr_regions": "0",
	})
}

func (k *Kernel) populateRegion(dir string) {
	k.files(dir, map[string]string{"start": "0", "end": "0"})
}

func (k *Kernel) populateScheme(dir string) {
	files := map[string]string{
		"action":                            "stat",
		"quotas/ms":                         "0",
		"quotas/bytes":                      "0",
		"quotas/reset_interval_ms":          "0",
		"quotas/weights/sz_permil":          "0",
		"quotas/weights/nr_accesses_permil": "0",
		"quotas/weights/age_permil":         "0",
		"watermarks/metric":                 "none",
		"watermarks/interval_us":            "0",
		"watermarks/high":                   "0",
		"watermarks/mid":                    "0",
		"watermarks/low":                    "0",
	}
	for _, p := range []string{"sz", "nr_accesses", "age"} {
		files["access_pattern/"+p+"/min"] = "0"
		files["access_pattern/"+p+"/max"] = "0"
	}
	k.files(dir, files)
}

func (k *Kernel) mustCreate(path, content string) {
	if err := k.Afero().MkdirAll(filepath.Dir(path), 0o755); err != nil {
		panic(fmt.Sprintf("sysfstest: mkdir %s: %v", path, err))
	}
	if err := afero.WriteFile(k.Afero(), path, []byte(content+"\n"), 0o644); err != nil {
		panic(fmt.Sprintf("sysfstest: create %s: %v", path, err))
	}
}
