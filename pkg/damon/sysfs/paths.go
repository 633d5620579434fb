package sysfs

import (
	"path/filepath"
	"strconv"
)

// DefaultRoot is the DAMON sysfs admin directory.
const DefaultRoot = "/sys/kernel/mm/damon/admin"

// paths builds attribute paths below the admin root:
//
//	<root>/kdamonds/nr_kdamonds
//	<root>/kdamonds/<k>/state
//	<root>/kdamonds/<k>/contexts/<c>/targets/<t>/regions/nr_regions
//	<root>/kdamonds/<k>/contexts/<c>/schemes/nr_schemes
type paths struct {
	root string
}

func idx(i int) string { return strconv.Itoa(i) }

func (p paths) kdamondsDir() string { return filepath.Join(p.root, "kdamonds") }

func (p paths) nrKdamondsFile() string { return filepath.Join(p.kdamondsDir(), "nr_kdamonds") }

func (p paths) kdamondDir(k int) string { return filepath.Join(p.kdamondsDir(), idx(k)) }

func (p paths) stateFile(k int) string { return filepath.Join(p.kdamondDir(k), "state") }

func (p paths) nrContextsFile(k int) string {
	return filepath.Join(p.kdamondDir(k), "contexts", "nr_contexts")
}

func (p paths) ctxDir(k, c int) string {
	return filepath.Join(p.kdamondDir(k), "contexts", idx(c))
}

func (p paths) operationsFile(k, c int) string {
	return filepath.Join(p.ctxDir(k, c), "operations")
}

func (p paths) availOperationsFile(k, c int) string {
	return filepath.Join(p.ctxDir(k, c), "avail_operations")
}

func (p paths) intervalsDir(k, c int) string {
	return filepath.Join(p.ctxDir(k, c), "monitoring_attrs", "intervals")
}

func (p paths) nrRegionsRangeDir(k, c int) string {
	return filepath.Join(p.ctxDir(k, c), "monitoring_attrs", "nr_regions")
}

func (p paths) nrTargetsFile(k, c int) string {
	return filepath.Join(p.ctxDir(k, c), "targets", "nr_targets")
}

func (p paths) targetDir(k, c, t int) string {
	return filepath.Join(p.ctxDir(k, c), "targets", idx(t))
}

func (p paths) nrRegionsFile(k, c, t int) string {
	return filepath.Join(p.targetDir(k, c, t), "regions", "nr_regions")
}

func (p paths) regionDir(k, c, t, r int) string {
	return filepath.Join(p.targetDir(k, c, t), "regions", idx(r))
}

func (p paths) nrSchemesFile(k, c int) string {
	return filepath.Join(p.ctxDir(k, c), "schemes", "nr_schemes")
}
