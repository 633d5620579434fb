package sysfs

import "errors"

var (
	// ErrInterfaceMissing indicates that <root>/kdamonds does not exist: the
	// kernel lacks DAMON sysfs support or sysfs is not mounted.
	ErrInterfaceMissing = errors.New("sysfs: damon sysfs interface not found")

	// ErrUnsupportedScope indicates a configuration with more than one
	// kdamond, context or target.
	ErrUnsupportedScope = errors.New("sysfs: only one kdamond, context and target are supported")

	// ErrPopulate indicates that the minimal kdamond/context/target
	// directories could not be created.
	ErrPopulate = errors.New("sysfs: populating kdamond and context dirs failed")

	// ErrResize indicates that the nr_* counts could not be read or written.
	ErrResize = errors.New("sysfs: resizing dirs failed")

	// ErrApply indicates that writing the configuration values failed. The
	// tree may be partially written.
	ErrApply = errors.New("sysfs: applying kdamonds failed")

	// ErrUnsafeProbe indicates that probing operations support would have to
	// overwrite the operations file of a possibly running monitor.
	ErrUnsafeProbe = errors.New("sysfs: operations probe requires a stopped monitor")

	// ErrNotRunning indicates that no kdamond is turned on.
	ErrNotRunning = errors.New("sysfs: damon is not turned on")
)
