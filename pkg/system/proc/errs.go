package proc

import "errors"

var (
	// ErrNoComm indicates that /proc/<pid>/comm was empty.
	ErrNoComm = errors.New("proc: empty comm")

	// ErrNoRSS indicates that neither status nor statm gave a resident size.
	ErrNoRSS = errors.New("proc: no rss")

	// ErrNoMaps indicates that /proc/<pid>/maps held no mapping.
	ErrNoMaps = errors.New("proc: no mappings")
)
